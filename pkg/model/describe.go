package model

import (
	"fmt"
	"sort"
	"strings"
)

// Describe renders a model as sorted lines, independent of in-memory handles.
//
// One line per vertex (label, timepoint, position, covariance and tags), one
// line per vertex with outgoing edges listing the targets in adjacency order,
// then the tag-set structure. Two models with the same description are
// equal for all purposes of persistence and synchronization.
func Describe(m *Model) []string {
	g := m.Graph
	vertexNames := make(map[VertexRef]string, g.NumVertices())
	for _, v := range g.Vertices() {
		vertexNames[v] = describeVertex(m, v)
	}

	var vertexLines, edgeLines []string
	for _, v := range g.Vertices() {
		vertexLines = append(vertexLines, "spot "+vertexNames[v])
		out := g.Outgoing(v)
		if len(out) == 0 {
			continue
		}
		targets := make([]string, 0, len(out))
		for _, e := range out {
			targets = append(targets, vertexNames[g.Target(e)]+describeTags(m.Tags, m.Tags.Edges.TagIDs(e)))
		}
		edgeLines = append(edgeLines, fmt.Sprintf("links %s -> [%s]", vertexNames[v], strings.Join(targets, ", ")))
	}
	sort.Strings(vertexLines)
	sort.Strings(edgeLines)

	lines := append(vertexLines, edgeLines...)
	for _, ts := range m.Tags.Structure().TagSets {
		tags := make([]string, 0, len(ts.Tags))
		for _, t := range ts.Tags {
			tags = append(tags, fmt.Sprintf("%s#%08x", t.Label, t.Color))
		}
		lines = append(lines, fmt.Sprintf("tagset %q [%s]", ts.Name, strings.Join(tags, ", ")))
	}
	return lines
}

// Equal tells if two models have the same description
func Equal(a, b *Model) bool {
	da, db := Describe(a), Describe(b)
	if len(da) != len(db) {
		return false
	}
	for i := range da {
		if da[i] != db[i] {
			return false
		}
	}
	return true
}

func describeVertex(m *Model, v VertexRef) string {
	attrs := m.Graph.Vertex(v)
	c := attrs.Covariance
	return fmt.Sprintf("%q t=%d x=%g,%g,%g cov=%g,%g,%g,%g,%g,%g,%g,%g,%g%s",
		attrs.Label, attrs.Timepoint,
		attrs.Position[0], attrs.Position[1], attrs.Position[2],
		c[0][0], c[0][1], c[0][2], c[1][0], c[1][1], c[1][2], c[2][0], c[2][1], c[2][2],
		describeTags(m.Tags, m.Tags.Vertices.TagIDs(v)))
}

func describeTags(tags *TagSetModel, ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		ts, t := tags.Structure().Tag(id)
		if t == nil {
			continue
		}
		parts = append(parts, ts.Name+"="+t.Label)
	}
	sort.Strings(parts)
	return " {" + strings.Join(parts, ", ") + "}"
}
