package model

// Copy makes a deep copy of a model.
//
// The outgoing edge order of every vertex is preserved. Tag ids are kept.
func Copy(src *Model) *Model {
	dst, _, _ := CopyMapped(src)
	return dst
}

// CopyMapped makes a deep copy of a model and returns the mapping of source
// handles to copied handles
func CopyMapped(src *Model) (*Model, map[VertexRef]VertexRef, map[EdgeRef]EdgeRef) {
	dst := New()
	dst.Tags.SetStructure(src.Tags.Structure().Clone())

	g := src.Graph
	vertices := make(map[VertexRef]VertexRef, g.NumVertices())
	for _, v := range g.Vertices() {
		c := dst.Graph.AddVertex(g.Vertex(v))
		vertices[v] = c
		if ids := src.Tags.Vertices.TagIDs(v); len(ids) > 0 {
			dst.Tags.Vertices.SetTagIDs(c, ids)
		}
	}

	edges := make(map[EdgeRef]EdgeRef, g.NumEdges())
	for _, v := range g.Vertices() {
		for _, e := range g.Outgoing(v) {
			c := dst.Graph.AddEdge(vertices[v], vertices[g.Target(e)])
			edges[e] = c
			if ids := src.Tags.Edges.TagIDs(e); len(ids) > 0 {
				dst.Tags.Edges.SetTagIDs(c, ids)
			}
		}
	}
	return dst, vertices, edges
}
