package model

import (
	"fmt"
	"sort"
)

// VertexRef is the in-memory handle of a vertex: its slot in the vertex pool.
//
// Handles are ephemeral: the slot of a removed vertex is handed out again to
// the next added vertex, and two independent loads of the same snapshot may
// give different handles to the same logical vertex.
type VertexRef int

// EdgeRef is the in-memory handle of an edge, see VertexRef.
type EdgeRef int

const (
	// NoVertex is the invalid vertex handle
	NoVertex VertexRef = -1

	// NoEdge is the invalid edge handle
	NoEdge EdgeRef = -1
)

// Vertex holds the attributes of a vertex (a "spot" in a lineage).
//
// An empty label means the vertex is unlabeled.
type Vertex struct {
	Label                       string
	Timepoint                   int
	Position                    [3]float64
	Covariance                  [3][3]float64
	BoundingSphereRadiusSquared float64
}

// GraphListener is notified before a vertex or an edge is removed from a graph
type GraphListener interface {
	VertexRemoved(VertexRef)
	EdgeRemoved(EdgeRef)
}

type vertexSlot struct {
	Vertex
	out   []EdgeRef
	in    []EdgeRef
	alive bool
}

type edgeSlot struct {
	source VertexRef
	target VertexRef
	alive  bool
}

// Graph is a directed graph with ordered adjacency lists.
//
// The order of the outgoing edges of a vertex is meaningful to lineage
// consumers (e.g. which daughter cell comes first) and is preserved by
// all operations, including copy and persistence.
//
// Graph is not safe for concurrent use.
type Graph struct {
	vertices     []vertexSlot
	freeVertices []VertexRef
	numVertices  int

	edges     []edgeSlot
	freeEdges []EdgeRef
	numEdges  int

	listeners []GraphListener
}

// NewGraph builds an empty graph
func NewGraph() *Graph {
	return &Graph{}
}

// AddListener registers a listener for removals
func (g *Graph) AddListener(l GraphListener) {
	g.listeners = append(g.listeners, l)
}

// RemoveListener unregisters a listener
func (g *Graph) RemoveListener(l GraphListener) {
	for i, registered := range g.listeners {
		if registered == l {
			g.listeners = append(g.listeners[:i], g.listeners[i+1:]...)
			return
		}
	}
}

// AddVertex adds a vertex with the given attributes and returns its handle
func (g *Graph) AddVertex(attrs Vertex) VertexRef {
	var v VertexRef
	if n := len(g.freeVertices); n > 0 {
		v = g.freeVertices[n-1]
		g.freeVertices = g.freeVertices[:n-1]
	} else {
		v = VertexRef(len(g.vertices))
		g.vertices = append(g.vertices, vertexSlot{})
	}
	g.vertices[v] = vertexSlot{Vertex: attrs, alive: true}
	g.numVertices++
	return v
}

// IsVertex tells if the handle refers to a live vertex
func (g *Graph) IsVertex(v VertexRef) bool {
	return v >= 0 && int(v) < len(g.vertices) && g.vertices[v].alive
}

// IsEdge tells if the handle refers to a live edge
func (g *Graph) IsEdge(e EdgeRef) bool {
	return e >= 0 && int(e) < len(g.edges) && g.edges[e].alive
}

// Vertex returns the attributes of a vertex
func (g *Graph) Vertex(v VertexRef) Vertex {
	g.mustVertex(v)
	return g.vertices[v].Vertex
}

// SetVertex replaces the attributes of a vertex
func (g *Graph) SetVertex(v VertexRef, attrs Vertex) {
	g.mustVertex(v)
	g.vertices[v].Vertex = attrs
}

// SetLabel sets the label of a vertex
func (g *Graph) SetLabel(v VertexRef, label string) {
	g.mustVertex(v)
	g.vertices[v].Label = label
}

// RemoveVertex removes a vertex and all its incident edges
func (g *Graph) RemoveVertex(v VertexRef) {
	g.mustVertex(v)
	slot := &g.vertices[v]
	for len(slot.out) > 0 {
		g.RemoveEdge(slot.out[len(slot.out)-1])
	}
	for len(slot.in) > 0 {
		g.RemoveEdge(slot.in[len(slot.in)-1])
	}
	for _, l := range g.listeners {
		l.VertexRemoved(v)
	}
	g.vertices[v] = vertexSlot{}
	g.freeVertices = append(g.freeVertices, v)
	g.numVertices--
}

// AddEdge appends an edge at the end of the outgoing list of source and
// of the incoming list of target
func (g *Graph) AddEdge(source, target VertexRef) EdgeRef {
	return g.InsertEdge(source, -1, target, -1)
}

// InsertEdge adds an edge at a given position in the outgoing list of source
// and the incoming list of target. Negative positions or positions beyond
// the end of a list append.
func (g *Graph) InsertEdge(source VertexRef, sourceOutIndex int, target VertexRef, targetInIndex int) EdgeRef {
	g.mustVertex(source)
	g.mustVertex(target)

	var e EdgeRef
	if n := len(g.freeEdges); n > 0 {
		e = g.freeEdges[n-1]
		g.freeEdges = g.freeEdges[:n-1]
	} else {
		e = EdgeRef(len(g.edges))
		g.edges = append(g.edges, edgeSlot{})
	}
	g.edges[e] = edgeSlot{source: source, target: target, alive: true}
	g.numEdges++

	g.vertices[source].out = insertAt(g.vertices[source].out, sourceOutIndex, e)
	g.vertices[target].in = insertAt(g.vertices[target].in, targetInIndex, e)
	return e
}

// RemoveEdge removes an edge
func (g *Graph) RemoveEdge(e EdgeRef) {
	g.mustEdge(e)
	for _, l := range g.listeners {
		l.EdgeRemoved(e)
	}
	edge := g.edges[e]
	g.vertices[edge.source].out = removeFrom(g.vertices[edge.source].out, e)
	g.vertices[edge.target].in = removeFrom(g.vertices[edge.target].in, e)
	g.edges[e] = edgeSlot{}
	g.freeEdges = append(g.freeEdges, e)
	g.numEdges--
}

// Source vertex of an edge
func (g *Graph) Source(e EdgeRef) VertexRef {
	g.mustEdge(e)
	return g.edges[e].source
}

// Target vertex of an edge
func (g *Graph) Target(e EdgeRef) VertexRef {
	g.mustEdge(e)
	return g.edges[e].target
}

// Outgoing edges of a vertex, in order. The returned slice must not be modified.
func (g *Graph) Outgoing(v VertexRef) []EdgeRef {
	g.mustVertex(v)
	return g.vertices[v].out
}

// Incoming edges of a vertex, in order. The returned slice must not be modified.
func (g *Graph) Incoming(v VertexRef) []EdgeRef {
	g.mustVertex(v)
	return g.vertices[v].in
}

// SourceOutIndex is the position of an edge in the outgoing list of its source
func (g *Graph) SourceOutIndex(e EdgeRef) int {
	return indexOf(g.vertices[g.Source(e)].out, e)
}

// TargetInIndex is the position of an edge in the incoming list of its target
func (g *Graph) TargetInIndex(e EdgeRef) int {
	return indexOf(g.vertices[g.Target(e)].in, e)
}

// SortOutgoing reorders the outgoing edges of a vertex by ascending key
func (g *Graph) SortOutgoing(v VertexRef, key func(EdgeRef) int) {
	g.mustVertex(v)
	out := g.vertices[v].out
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
}

// SortIncoming reorders the incoming edges of a vertex by ascending key
func (g *Graph) SortIncoming(v VertexRef, key func(EdgeRef) int) {
	g.mustVertex(v)
	in := g.vertices[v].in
	sort.SliceStable(in, func(i, j int) bool { return key(in[i]) < key(in[j]) })
}

// Vertices returns the handles of all vertices, in slot order
func (g *Graph) Vertices() []VertexRef {
	result := make([]VertexRef, 0, g.numVertices)
	for i := range g.vertices {
		if g.vertices[i].alive {
			result = append(result, VertexRef(i))
		}
	}
	return result
}

// Edges returns the handles of all edges, in slot order
func (g *Graph) Edges() []EdgeRef {
	result := make([]EdgeRef, 0, g.numEdges)
	for i := range g.edges {
		if g.edges[i].alive {
			result = append(result, EdgeRef(i))
		}
	}
	return result
}

// NumVertices in the graph
func (g *Graph) NumVertices() int {
	return g.numVertices
}

// NumEdges in the graph
func (g *Graph) NumEdges() int {
	return g.numEdges
}

// Clear removes all vertices and edges, without notifying listeners
func (g *Graph) Clear() {
	listeners := g.listeners
	*g = Graph{listeners: listeners}
}

// moveFrom takes over the content of src, keeping the listeners of g
func (g *Graph) moveFrom(src *Graph) {
	listeners := g.listeners
	*g = *src
	g.listeners = listeners
	*src = Graph{}
}

func (g *Graph) mustVertex(v VertexRef) {
	if !g.IsVertex(v) {
		panic(fmt.Sprintf("invalid vertex handle: %d", v))
	}
}

func (g *Graph) mustEdge(e EdgeRef) {
	if !g.IsEdge(e) {
		panic(fmt.Sprintf("invalid edge handle: %d", e))
	}
}

func insertAt(list []EdgeRef, index int, e EdgeRef) []EdgeRef {
	if index < 0 || index >= len(list) {
		return append(list, e)
	}
	list = append(list, NoEdge)
	copy(list[index+1:], list[index:])
	list[index] = e
	return list
}

func removeFrom(list []EdgeRef, e EdgeRef) []EdgeRef {
	i := indexOf(list, e)
	if i < 0 {
		return list
	}
	return append(list[:i], list[i+1:]...)
}

func indexOf(list []EdgeRef, e EdgeRef) int {
	for i, x := range list {
		if x == e {
			return i
		}
	}
	return -1
}
