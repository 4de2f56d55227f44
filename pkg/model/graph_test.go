package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	vertices []VertexRef
	edges    []EdgeRef
}

func (r *recordingListener) VertexRemoved(v VertexRef) { r.vertices = append(r.vertices, v) }
func (r *recordingListener) EdgeRemoved(e EdgeRef)     { r.edges = append(r.edges, e) }

func TestGraphAdjacencyOrder(t *testing.T) {
	g := NewGraph()
	a := g.AddVertex(Vertex{Label: "a"})
	b := g.AddVertex(Vertex{Label: "b", Timepoint: 1})
	c := g.AddVertex(Vertex{Label: "c", Timepoint: 1})
	d := g.AddVertex(Vertex{Label: "d", Timepoint: 1})

	ab := g.AddEdge(a, b)
	ad := g.AddEdge(a, d)
	ac := g.InsertEdge(a, 1, c, 0)

	assert.Equal(t, []EdgeRef{ab, ac, ad}, g.Outgoing(a))
	assert.Equal(t, 1, g.SourceOutIndex(ac))
	assert.Equal(t, 0, g.TargetInIndex(ac))
	assert.Equal(t, 2, g.SourceOutIndex(ad))
	assert.Equal(t, a, g.Source(ac))
	assert.Equal(t, c, g.Target(ac))

	g.RemoveEdge(ac)
	assert.Equal(t, []EdgeRef{ab, ad}, g.Outgoing(a))
	assert.Empty(t, g.Incoming(c))
	assert.Equal(t, 2, g.NumEdges())
}

func TestGraphSlotsAreReused(t *testing.T) {
	g := NewGraph()
	a := g.AddVertex(Vertex{Label: "a"})
	b := g.AddVertex(Vertex{Label: "b"})
	g.RemoveVertex(a)
	require.False(t, g.IsVertex(a))

	c := g.AddVertex(Vertex{Label: "c"})
	assert.Equal(t, a, c, "the slot of a removed vertex is handed out again")
	assert.Equal(t, "c", g.Vertex(c).Label)
	assert.Equal(t, []VertexRef{c, b}, g.Vertices())
}

func TestGraphRemoveVertexNotifies(t *testing.T) {
	g := NewGraph()
	l := &recordingListener{}
	g.AddListener(l)

	a := g.AddVertex(Vertex{})
	b := g.AddVertex(Vertex{})
	c := g.AddVertex(Vertex{})
	ab := g.AddEdge(a, b)
	ca := g.AddEdge(c, a)

	g.RemoveVertex(a)
	assert.ElementsMatch(t, []EdgeRef{ab, ca}, l.edges)
	assert.Equal(t, []VertexRef{a}, l.vertices)
	assert.Equal(t, 0, g.NumEdges())
	assert.Equal(t, 2, g.NumVertices())
	assert.Empty(t, g.Outgoing(c))

	g.RemoveListener(l)
	g.RemoveVertex(b)
	assert.Len(t, l.vertices, 1)
}

func TestGraphSort(t *testing.T) {
	g := NewGraph()
	root := g.AddVertex(Vertex{})
	children := make([]VertexRef, 4)
	slots := map[EdgeRef]int{}
	for i, slot := range []int{3, 2, 0, 1} {
		children[i] = g.AddVertex(Vertex{Timepoint: 1})
		e := g.AddEdge(root, children[i])
		slots[e] = slot
	}
	g.SortOutgoing(root, func(e EdgeRef) int { return slots[e] })

	var got []VertexRef
	for _, e := range g.Outgoing(root) {
		got = append(got, g.Target(e))
	}
	assert.Equal(t, []VertexRef{children[2], children[3], children[1], children[0]}, got)
}

func TestGraphInvalidHandle(t *testing.T) {
	g := NewGraph()
	assert.Panics(t, func() { g.Vertex(3) })
	assert.Panics(t, func() { g.AddEdge(0, 1) })
	assert.Panics(t, func() { g.RemoveEdge(NoEdge) })
}

func TestGraphClearKeepsListeners(t *testing.T) {
	g := NewGraph()
	l := &recordingListener{}
	g.AddListener(l)
	g.AddVertex(Vertex{})
	g.Clear()
	assert.Equal(t, 0, g.NumVertices())

	v := g.AddVertex(Vertex{})
	g.RemoveVertex(v)
	assert.Equal(t, []VertexRef{v}, l.vertices)
}
