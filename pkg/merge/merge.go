// Package merge reconciles two snapshots of a lineage.
//
// The merge is structural: spots of both snapshots are matched by proximity,
// per timepoint, and the result is the union of both lineages. Entities which
// cannot be reconciled are tagged with conflict markers (see HasConflict).
package merge

import (
	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/errors"
	"github.com/oneconcern/lineagesync/pkg/model"
)

// ErrInvalidParams is returned when merge thresholds are not positive
var ErrInvalidParams = errors.New("invalid merge parameters")

// Params tune the matching of spots
type Params struct {
	// DistCutoff is the maximum euclidean distance between matched spots
	DistCutoff float64 `json:"distCutoff" yaml:"distCutoff" mapstructure:"distCutoff"`

	// MahalanobisDistCutoff is the maximum distance between matched spots,
	// measured with their averaged covariance
	MahalanobisDistCutoff float64 `json:"mahalanobisDistCutoff" yaml:"mahalanobisDistCutoff" mapstructure:"mahalanobisDistCutoff"`

	// RatioThreshold is the minimum ratio between the distance to the second
	// closest candidate and the distance to the matched spot
	RatioThreshold float64 `json:"ratioThreshold" yaml:"ratioThreshold" mapstructure:"ratioThreshold"`
}

// DefaultParams are the thresholds used unless configured otherwise
func DefaultParams() Params {
	return Params{
		DistCutoff:            1000,
		MahalanobisDistCutoff: 1,
		RatioThreshold:        2,
	}
}

func (p Params) validate() error {
	if p.DistCutoff <= 0 || p.MahalanobisDistCutoff <= 0 || p.RatioThreshold < 1 {
		return ErrInvalidParams.WrapMessage("%+v", p)
	}
	return nil
}

// Merger merges two snapshots into a new one. The inputs are left unchanged.
type Merger interface {
	Merge(a, b *model.Model, p Params) (*model.Model, error)
}

// Option for the proximity merger
type Option func(*Proximity)

// Logger for the merger
func Logger(l *zap.Logger) Option {
	return func(m *Proximity) {
		if l != nil {
			m.l = l
		}
	}
}

// Proximity merges snapshots by matching their spots on position
type Proximity struct {
	l *zap.Logger
}

var _ Merger = &Proximity{}

// New proximity merger
func New(opts ...Option) *Proximity {
	m := &Proximity{l: zap.NewNop()}
	for _, apply := range opts {
		apply(m)
	}
	return m
}

// Merge a and b.
//
// The result starts as a copy of a. Spots of b matched to a spot of a are
// merged into it: differing labels and tags are marked as conflicts. Other
// spots of b are added. Links of b are added between the corresponding
// spots, unless already present; a spot ending up with two parents is
// marked as a conflict.
func (p *Proximity) Merge(a, b *model.Model, params Params) (*model.Model, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	result, fromA, _ := model.CopyMapped(a)
	mg := &merger{
		p:      params,
		l:      p.l,
		b:      b,
		r:      result,
		fromA:  fromA,
		fromB:  make(map[model.VertexRef]model.VertexRef, b.Graph.NumVertices()),
		tagMap: make(map[int]int),
	}
	mg.mergeStructure()
	stats := mg.mergeSpots(match(a.Graph, b.Graph, params))
	stats.links, stats.linkConflicts = mg.mergeLinks()

	p.l.Info("merged snapshots",
		zap.Int("matched", stats.matched),
		zap.Int("added", stats.added),
		zap.Int("ambiguous", stats.ambiguous),
		zap.Int("labelConflicts", stats.labelConflicts),
		zap.Int("tagConflicts", stats.tagConflicts),
		zap.Int("addedLinks", stats.links),
		zap.Int("linkConflicts", stats.linkConflicts))
	return result, nil
}

type mergeStats struct {
	matched        int
	added          int
	ambiguous      int
	labelConflicts int
	tagConflicts   int
	links          int
	linkConflicts  int
}

type merger struct {
	p      Params
	l      *zap.Logger
	b      *model.Model
	r      *model.Model
	fromA  map[model.VertexRef]model.VertexRef
	fromB  map[model.VertexRef]model.VertexRef
	tagMap map[int]int
}

// mergeStructure adds the tag sets and tags of b missing from the result,
// matched by name and label
func (mg *merger) mergeStructure() {
	for _, ts := range mg.b.Tags.Structure().TagSets {
		rts := mg.tagSet(ts.Name)
		for _, t := range ts.Tags {
			mg.tagMap[t.ID] = mg.tag(rts, t.Label, t.Color).ID
		}
	}
}

func (mg *merger) tagSet(name string) *model.TagSet {
	s := mg.r.Tags.Structure()
	if ts := s.TagSet(name); ts != nil {
		return ts
	}
	return s.CreateTagSet(name)
}

func (mg *merger) tag(ts *model.TagSet, label string, color uint32) *model.Tag {
	if t := ts.Tag(label); t != nil {
		return t
	}
	return mg.r.Tags.Structure().CreateTag(ts, label, color)
}

func (mg *merger) marker(tagSetName, tagLabel string) (*model.TagSet, *model.Tag) {
	ts := mg.tagSet(tagSetName)
	return ts, mg.tag(ts, tagLabel, markerColor)
}

const markerColor = 0xffff0000

func (mg *merger) mergeSpots(m matching) mergeStats {
	var stats mergeStats
	rg, bg := mg.r.Graph, mg.b.Graph
	for _, y := range bg.Vertices() {
		bAttrs := bg.Vertex(y)
		bTags := mg.b.Tags.Vertices.TagIDs(y)

		if x, ok := m.matched[y]; ok {
			rx := mg.fromA[x]
			mg.fromB[y] = rx
			stats.matched++

			attrs := rg.Vertex(rx)
			switch {
			case attrs.Label == bAttrs.Label || bAttrs.Label == "":
			case attrs.Label == "":
				rg.SetLabel(rx, bAttrs.Label)
			default:
				rg.SetLabel(rx, PrefixA+attrs.Label+" "+PrefixB+bAttrs.Label)
				ts, t := mg.marker(LabelConflictTagSet, LabelConflictTag)
				mg.r.Tags.Vertices.Set(rx, ts, t)
				stats.labelConflicts++
			}
			if mergeAssignments(mg, mg.r.Tags.Vertices, rx, bTags) {
				stats.tagConflicts++
			}
			continue
		}

		ry := rg.AddVertex(bAttrs)
		mg.fromB[y] = ry
		mergeAssignments(mg, mg.r.Tags.Vertices, ry, bTags)
		stats.added++

		if x, ok := m.ambiguous[y]; ok {
			rx := mg.fromA[x]
			conflictSet, conflict := mg.marker(ConflictTagSet, ConflictTag)
			mg.r.Tags.Vertices.Set(rx, conflictSet, conflict)
			mg.r.Tags.Vertices.Set(ry, conflictSet, conflict)
			mg.markSource(rx, ry)
			stats.ambiguous++
		}
	}
	return stats
}

func (mg *merger) markSource(fromA, fromB model.VertexRef) {
	tsA, a := mg.marker(SourceATagSet, SourceATag)
	tsB, b := mg.marker(SourceBTagSet, SourceBTag)
	mg.r.Tags.Vertices.Set(fromA, tsA, a)
	mg.r.Tags.Vertices.Set(fromB, tsB, b)
}

func (mg *merger) mergeLinks() (added, conflicts int) {
	rg, bg := mg.r.Graph, mg.b.Graph
	for _, s := range bg.Vertices() {
		for _, e := range bg.Outgoing(s) {
			rs, rt := mg.fromB[s], mg.fromB[bg.Target(e)]
			bTags := mg.b.Tags.Edges.TagIDs(e)

			if existing := findEdge(rg, rs, rt); existing != model.NoEdge {
				mergeAssignments(mg, mg.r.Tags.Edges, existing, bTags)
				continue
			}

			re := rg.AddEdge(rs, rt)
			mergeAssignments(mg, mg.r.Tags.Edges, re, bTags)
			added++

			in := rg.Incoming(rt)
			if len(in) < 2 {
				continue
			}
			conflicts++
			mg.l.Debug("spot with competing parents", zap.String("spot", rg.Vertex(rt).Label))
			conflictSet, conflict := mg.marker(ConflictTagSet, ConflictTag)
			mg.r.Tags.Vertices.Set(rt, conflictSet, conflict)
			tsA, a := mg.marker(SourceATagSet, SourceATag)
			tsB, b := mg.marker(SourceBTagSet, SourceBTag)
			for _, other := range in {
				if other != re {
					mg.r.Tags.Edges.Set(other, tsA, a)
				}
			}
			mg.r.Tags.Edges.Set(re, tsB, b)
		}
	}
	return added, conflicts
}

func findEdge(g *model.Graph, source, target model.VertexRef) model.EdgeRef {
	for _, e := range g.Outgoing(source) {
		if g.Target(e) == target {
			return e
		}
	}
	return model.NoEdge
}

// mergeAssignments assigns the tags of b (given as ids in b's structure)
// to an entity of the result. When the entity already carries another tag
// of the same tag set, both tags are kept aside in the prefixed tag sets
// and the entity is marked with a tag conflict.
func mergeAssignments[H ~int](mg *merger, dst *model.TagAssignments[H], h H, bTagIDs []int) bool {
	conflict := false
	s := mg.r.Tags.Structure()
	for _, id := range bTagIDs {
		rid, ok := mg.tagMap[id]
		if !ok {
			continue
		}
		ts, fromB := s.Tag(rid)
		current := dst.Tag(h, ts)
		switch {
		case current == nil:
			dst.Set(h, ts, fromB)
		case current.ID != fromB.ID:
			conflict = true
			tsA := mg.tagSet(PrefixA + ts.Name)
			dst.Set(h, tsA, mg.tag(tsA, current.Label, current.Color))
			tsB := mg.tagSet(PrefixB + ts.Name)
			dst.Set(h, tsB, mg.tag(tsB, fromB.Label, fromB.Color))
		}
	}
	if conflict {
		ts, t := mg.marker(TagConflictTagSet, TagConflictTag)
		dst.Set(h, ts, t)
	}
	return conflict
}
