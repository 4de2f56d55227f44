package codec

import "github.com/oneconcern/lineagesync/pkg/model"

// spotAttrLen is the size of the attribute block of spot records: timepoint,
// position, covariance and bounding sphere radius²
const spotAttrLen = 4 + 3*8 + 9*8 + 8

const linkAttrLen = 0

func writeSpotAttributes(w *recordWriter, attrs model.Vertex) {
	w.int32(attrs.Timepoint)
	for _, x := range attrs.Position {
		w.float64(x)
	}
	for _, row := range attrs.Covariance {
		for _, x := range row {
			w.float64(x)
		}
	}
	w.float64(attrs.BoundingSphereRadiusSquared)
}

func readSpotAttributes(r *recordReader) model.Vertex {
	var attrs model.Vertex
	attrs.Timepoint = r.int32()
	for i := range attrs.Position {
		attrs.Position[i] = r.float64()
	}
	for i := range attrs.Covariance {
		for j := range attrs.Covariance[i] {
			attrs.Covariance[i][j] = r.float64()
		}
	}
	attrs.BoundingSphereRadiusSquared = r.float64()
	return attrs
}
