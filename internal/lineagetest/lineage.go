// Package lineagetest builds lineage models for tests
package lineagetest

import (
	"fmt"

	"github.com/oneconcern/lineagesync/internal/rand"
	"github.com/oneconcern/lineagesync/pkg/model"
)

// Identity is the covariance of a unit sphere
var Identity = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Spot builds the attributes of a unit spot
func Spot(label string, timepoint int, x, y, z float64) model.Vertex {
	return model.Vertex{
		Label:                       label,
		Timepoint:                   timepoint,
		Position:                    [3]float64{x, y, z},
		Covariance:                  Identity,
		BoundingSphereRadiusSquared: 1,
	}
}

// Sample builds a small lineage with a division, tag sets and tagged spots
// and links:
//
//	a(t0) -> b(t1) -> c(t2)
//	               -> d(t2)
//
// The tag set "cell type" has tags "stem" and "neuron". The link b -> d is
// the first outgoing link of b.
func Sample() *model.Model {
	m := model.New()
	g := m.Graph
	a := g.AddVertex(Spot("a", 0, 1, 2, 3))
	b := g.AddVertex(Spot("b", 1, 1, 2, 4))
	c := g.AddVertex(Spot("c", 2, 0, 2, 5))
	d := g.AddVertex(Spot("d", 2, 2, 2, 5))
	g.AddEdge(a, b)
	bd := g.AddEdge(b, d)
	g.AddEdge(b, c)

	s := m.Tags.Structure()
	cellType := s.CreateTagSet("cell type")
	stem := s.CreateTag(cellType, "stem", 0xff00ff00)
	neuron := s.CreateTag(cellType, "neuron", 0xffff0000)
	quality := s.CreateTagSet("quality")
	checked := s.CreateTag(quality, "checked", 0xff0000ff)

	m.Tags.Vertices.Set(a, cellType, stem)
	m.Tags.Vertices.Set(b, cellType, stem)
	m.Tags.Vertices.Set(b, quality, checked)
	m.Tags.Vertices.Set(d, cellType, neuron)
	m.Tags.Edges.Set(bd, quality, checked)
	return m
}

// Random builds a lineage of n tracks, each running over the given number of
// timepoints, with random labels and positions. Every fifth spot is tagged.
func Random(tracks, timepoints int) *model.Model {
	m := model.New()
	s := m.Tags.Structure()
	ts := s.CreateTagSet("random")
	tags := []*model.Tag{
		s.CreateTag(ts, "x", 0xff112233),
		s.CreateTag(ts, "y", 0xff445566),
	}
	g := m.Graph
	count := 0
	for i := 0; i < tracks; i++ {
		previous := model.NoVertex
		for t := 0; t < timepoints; t++ {
			attrs := Spot(fmt.Sprintf("%s-%d", rand.LetterString(4), t), t, 0, 0, 0)
			attrs.Position = rand.Position(1000)
			v := g.AddVertex(attrs)
			if count%5 == 0 {
				m.Tags.Vertices.Set(v, ts, tags[rand.Intn(len(tags))])
			}
			count++
			if previous != model.NoVertex {
				g.AddEdge(previous, v)
			}
			previous = v
		}
	}
	return m
}

// Find returns the spot with the given label, or model.NoVertex
func Find(m *model.Model, label string) model.VertexRef {
	for _, v := range m.Graph.Vertices() {
		if m.Graph.Vertex(v).Label == label {
			return v
		}
	}
	return model.NoVertex
}
