package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneconcern/lineagesync/internal/lineagetest"
	"github.com/oneconcern/lineagesync/pkg/model"
)

func TestTagAssignments(t *testing.T) {
	m := model.New()
	s := m.Tags.Structure()
	color := s.CreateTagSet("color")
	red := s.CreateTag(color, "red", 0xffff0000)
	blue := s.CreateTag(color, "blue", 0xff0000ff)
	size := s.CreateTagSet("size")
	big := s.CreateTag(size, "big", 0xff000000)

	v := m.Graph.AddVertex(model.Vertex{Label: "v"})
	w := m.Graph.AddVertex(model.Vertex{Label: "w"})

	m.Tags.Vertices.Set(v, color, red)
	m.Tags.Vertices.Set(v, size, big)
	m.Tags.Vertices.Set(w, color, red)
	assert.Equal(t, []int{red.ID, big.ID}, m.Tags.Vertices.TagIDs(v))
	assert.Equal(t, []model.VertexRef{v, w}, m.Tags.Vertices.TaggedWith(red.ID))

	// one tag per tag set
	m.Tags.Vertices.Set(v, color, blue)
	assert.Same(t, blue, m.Tags.Vertices.Tag(v, color))
	assert.Equal(t, []model.VertexRef{w}, m.Tags.Vertices.TaggedWith(red.ID))

	m.Tags.Vertices.Set(v, color, nil)
	assert.Nil(t, m.Tags.Vertices.Tag(v, color))
	assert.Same(t, big, m.Tags.Vertices.Tag(v, size))

	m.Graph.RemoveVertex(w)
	assert.Empty(t, m.Tags.Vertices.TaggedWith(red.ID))
	assert.Equal(t, []model.VertexRef{v}, m.Tags.Vertices.Handles())

	m.Tags.RemoveTagSet(size)
	assert.Empty(t, m.Tags.Vertices.TagIDs(v))
	assert.Nil(t, s.TagSet("size"))
}

func TestTagStager(t *testing.T) {
	m := model.New()
	s := m.Tags.Structure()
	ts := s.CreateTagSet("set")
	a := s.CreateTag(ts, "a", 1)
	b := s.CreateTag(ts, "b", 2)

	var refs []model.VertexRef
	for i := 0; i < 10; i++ {
		refs = append(refs, m.Graph.AddVertex(model.Vertex{}))
	}
	m.Tags.Vertices.Set(refs[0], ts, b)

	stager := m.Tags.Vertices.Stager()
	for i, v := range refs {
		if i%2 == 0 {
			stager.Assign(v, []int{a.ID})
		}
	}
	assert.Equal(t, []model.VertexRef{refs[0]}, m.Tags.Vertices.TaggedWith(b.ID), "staged assignments are not visible before Finish")

	stager.Finish()
	assert.Equal(t, []model.VertexRef{refs[0], refs[2], refs[4], refs[6], refs[8]}, m.Tags.Vertices.TaggedWith(a.ID))
	assert.Empty(t, m.Tags.Vertices.TaggedWith(b.ID))
}

func TestTagSetStructure(t *testing.T) {
	s := model.NewTagSetStructure()
	first := s.CreateTagSet("first")
	x := s.CreateTag(first, "x", 1)
	second := s.CreateTagSet("second")
	y := s.CreateTag(second, "y", 2)

	ids := map[int]bool{first.ID: true, x.ID: true, second.ID: true, y.ID: true}
	assert.Len(t, ids, 4, "ids are unique across the structure")

	ts, tag := s.Tag(y.ID)
	assert.Same(t, second, ts)
	assert.Same(t, y, tag)

	c := s.Clone()
	require.True(t, s.Equal(c))
	c.TagSets[1].Tags[0].Color = 3
	assert.False(t, s.Equal(c))
	assert.Equal(t, uint32(2), y.Color)
}

func TestCopyAndEqual(t *testing.T) {
	m := lineagetest.Sample()
	c := model.Copy(m)
	assert.True(t, model.Equal(m, c))
	assert.Equal(t, model.Describe(m), model.Describe(c))

	b := lineagetest.Find(c, "b")
	require.NotEqual(t, model.NoVertex, b)
	out := c.Graph.Outgoing(b)
	require.Len(t, out, 2)
	assert.Equal(t, "d", c.Graph.Vertex(c.Graph.Target(out[0])).Label)

	// swapping the daughters changes the model
	rank := map[model.EdgeRef]int{out[0]: 1, out[1]: 0}
	c.Graph.SortOutgoing(b, func(e model.EdgeRef) int { return rank[e] })
	assert.False(t, model.Equal(m, c))
}

func TestEqualDetectsTagChanges(t *testing.T) {
	m := lineagetest.Sample()
	c := model.Copy(m)
	ts := c.Tags.Structure().TagSet("cell type")
	c.Tags.Vertices.Set(lineagetest.Find(c, "c"), ts, ts.Tag("neuron"))
	assert.False(t, model.Equal(m, c))
}

func TestReplaceKeepsListeners(t *testing.T) {
	m := model.New()
	m.Graph.AddVertex(model.Vertex{Label: "old"})

	src := lineagetest.Sample()
	m.Replace(src)
	assert.Equal(t, 0, src.Graph.NumVertices())
	assert.True(t, model.Equal(lineagetest.Sample(), m))

	// the tag listener of m still cleans up tags of removed spots
	a := lineagetest.Find(m, "a")
	m.Graph.RemoveVertex(a)
	assert.Empty(t, m.Tags.Vertices.TagIDs(a))
}

func TestFixInconsistencies(t *testing.T) {
	m := model.New()
	g := m.Graph
	a := g.AddVertex(lineagetest.Spot("a", 0, 0, 0, 0))
	b := g.AddVertex(lineagetest.Spot("b", 1, 0, 0, 0))
	c := g.AddVertex(lineagetest.Spot("c", 1, 1, 0, 0))
	g.AddEdge(b, a) // backwards
	g.AddEdge(a, b) // becomes a duplicate once flipped
	g.AddEdge(b, c) // same timepoint

	report := model.FixInconsistencies(m, nil)
	assert.True(t, report.Changed())
	assert.Equal(t, []string{"b -> a"}, report.Flipped)
	assert.Len(t, report.Duplicate, 1)
	assert.Equal(t, []string{"b -> c"}, report.SameTime)
	assert.Empty(t, report.Warnings)

	require.Equal(t, 1, g.NumEdges())
	e := g.Edges()[0]
	assert.Equal(t, a, g.Source(e))
	assert.Equal(t, b, g.Target(e))

	again := model.FixInconsistencies(m, nil)
	assert.False(t, again.Changed())
}

func TestFixInconsistenciesWarnings(t *testing.T) {
	m := model.New()
	g := m.Graph
	root := g.AddVertex(lineagetest.Spot("root", 0, 0, 0, 0))
	for _, label := range []string{"x", "y", "z"} {
		g.AddEdge(root, g.AddVertex(lineagetest.Spot(label, 1, 0, 0, 0)))
	}
	report := model.FixInconsistencies(m, nil)
	assert.False(t, report.Changed())
	assert.Equal(t, []string{"more than two children: root"}, report.Warnings)
}

func TestSetStructureDropsEveryRemovedTag(t *testing.T) {
	m := model.New()
	s := m.Tags.Structure()
	var sets []*model.TagSet
	var tags []*model.Tag
	for _, name := range []string{"keep", "x", "y", "z"} {
		ts := s.CreateTagSet(name)
		sets = append(sets, ts)
		tags = append(tags, s.CreateTag(ts, name+"-tag", 1))
	}
	v := m.Graph.AddVertex(model.Vertex{Label: "v"})
	w := m.Graph.AddVertex(model.Vertex{Label: "w", Timepoint: 1})
	e := m.Graph.AddEdge(v, w)
	for i, ts := range sets {
		m.Tags.Vertices.Set(v, ts, tags[i])
		m.Tags.Vertices.Set(w, ts, tags[i])
		m.Tags.Edges.Set(e, ts, tags[i])
	}

	kept := s.Clone()
	for _, name := range []string{"x", "y", "z"} {
		kept.Remove(kept.TagSet(name))
	}
	m.Tags.SetStructure(kept)

	assert.Equal(t, []int{tags[0].ID}, m.Tags.Vertices.TagIDs(v))
	assert.Equal(t, []int{tags[0].ID}, m.Tags.Vertices.TagIDs(w))
	assert.Equal(t, []int{tags[0].ID}, m.Tags.Edges.TagIDs(e))
	for _, removed := range tags[1:] {
		assert.Empty(t, m.Tags.Vertices.TaggedWith(removed.ID), removed.Label)
		assert.Empty(t, m.Tags.Edges.TaggedWith(removed.ID), removed.Label)
	}
	assert.Equal(t, []model.VertexRef{v, w}, m.Tags.Vertices.TaggedWith(tags[0].ID))
}

func TestRemoveTagSets(t *testing.T) {
	m := lineagetest.Sample()
	s := m.Tags.Structure()
	var added []int
	for _, name := range []string{"x", "y", "z"} {
		ts := s.CreateTagSet(name)
		tag := s.CreateTag(ts, name, 2)
		added = append(added, tag.ID)
		for _, v := range m.Graph.Vertices() {
			m.Tags.Vertices.Set(v, ts, tag)
		}
	}

	for _, name := range []string{"x", "y", "z"} {
		m.Tags.RemoveTagSet(s.TagSet(name))
	}
	assert.True(t, model.Equal(lineagetest.Sample(), m))
	for _, id := range added {
		assert.Empty(t, m.Tags.Vertices.TaggedWith(id))
	}
}
