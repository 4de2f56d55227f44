package merge

import (
	"math"

	"github.com/oneconcern/lineagesync/pkg/model"
)

// matching pairs spots of b with spots of a
type matching struct {
	matched   map[model.VertexRef]model.VertexRef
	ambiguous map[model.VertexRef]model.VertexRef
}

type candidate struct {
	v      model.VertexRef
	dist   float64
	second float64
}

// match pairs spots of the same timepoint which are mutual nearest
// neighbours within the distance cutoffs.
//
// A pair is ambiguous when another spot lies closer than RatioThreshold
// times the distance of the pair, on either side.
func match(a, b *model.Graph, p Params) matching {
	m := matching{
		matched:   make(map[model.VertexRef]model.VertexRef),
		ambiguous: make(map[model.VertexRef]model.VertexRef),
	}
	byTimeA := byTimepoint(a)
	for t, ys := range byTimepoint(b) {
		xs := byTimeA[t]
		if len(xs) == 0 {
			continue
		}
		for _, y := range ys {
			toA := nearest(b.Vertex(y), a, xs)
			if toA.v == model.NoVertex || toA.dist > p.DistCutoff {
				continue
			}
			toB := nearest(a.Vertex(toA.v), b, ys)
			if toB.v != y {
				continue
			}
			if mahalanobis(a.Vertex(toA.v), b.Vertex(y)) > p.MahalanobisDistCutoff {
				continue
			}
			if ambiguous(toA, p.RatioThreshold) || ambiguous(toB, p.RatioThreshold) {
				m.ambiguous[y] = toA.v
				continue
			}
			m.matched[y] = toA.v
		}
	}
	return m
}

func byTimepoint(g *model.Graph) map[int][]model.VertexRef {
	groups := make(map[int][]model.VertexRef)
	for _, v := range g.Vertices() {
		t := g.Vertex(v).Timepoint
		groups[t] = append(groups[t], v)
	}
	return groups
}

// nearest finds the closest spot among candidates, and the distance to the
// second closest one
func nearest(from model.Vertex, g *model.Graph, candidates []model.VertexRef) candidate {
	best := candidate{v: model.NoVertex, dist: math.Inf(1), second: math.Inf(1)}
	for _, v := range candidates {
		d := distance(from.Position, g.Vertex(v).Position)
		switch {
		case d < best.dist:
			best.second = best.dist
			best.dist = d
			best.v = v
		case d < best.second:
			best.second = d
		}
	}
	return best
}

func ambiguous(c candidate, ratio float64) bool {
	if math.IsInf(c.second, 1) {
		return false
	}
	return c.second < ratio*c.dist || c.second == 0
}

func distance(p, q [3]float64) float64 {
	var sum float64
	for i := range p {
		d := p[i] - q[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// mahalanobis distance between two spots, using the mean of their
// covariances. A singular covariance only accepts identical positions.
func mahalanobis(x, y model.Vertex) float64 {
	var s [3][3]float64
	for i := range s {
		for j := range s[i] {
			s[i][j] = (x.Covariance[i][j] + y.Covariance[i][j]) / 2
		}
	}
	var d [3]float64
	for i := range d {
		d[i] = x.Position[i] - y.Position[i]
	}
	if d == [3]float64{} {
		return 0
	}
	inv, ok := invert(s)
	if !ok {
		return math.Inf(1)
	}
	var sum float64
	for i := range d {
		for j := range d {
			sum += d[i] * inv[i][j] * d[j]
		}
	}
	if sum < 0 {
		return math.Inf(1)
	}
	return math.Sqrt(sum)
}

func invert(m [3][3]float64) ([3][3]float64, bool) {
	var inv [3][3]float64
	inv[0][0] = m[1][1]*m[2][2] - m[1][2]*m[2][1]
	inv[0][1] = m[0][2]*m[2][1] - m[0][1]*m[2][2]
	inv[0][2] = m[0][1]*m[1][2] - m[0][2]*m[1][1]
	inv[1][0] = m[1][2]*m[2][0] - m[1][0]*m[2][2]
	inv[1][1] = m[0][0]*m[2][2] - m[0][2]*m[2][0]
	inv[1][2] = m[0][2]*m[1][0] - m[0][0]*m[1][2]
	inv[2][0] = m[1][0]*m[2][1] - m[1][1]*m[2][0]
	inv[2][1] = m[0][1]*m[2][0] - m[0][0]*m[2][1]
	inv[2][2] = m[0][0]*m[1][1] - m[0][1]*m[1][0]

	det := m[0][0]*inv[0][0] + m[0][1]*inv[1][0] + m[0][2]*inv[2][0]
	if math.Abs(det) < 1e-12 {
		return inv, false
	}
	for i := range inv {
		for j := range inv[i] {
			inv[i][j] /= det
		}
	}
	return inv, true
}
