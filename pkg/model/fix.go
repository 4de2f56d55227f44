package model

import (
	"fmt"

	"go.uber.org/zap"
)

// FixReport lists what FixInconsistencies changed or found suspicious
type FixReport struct {
	Flipped   []string
	Duplicate []string
	SameTime  []string
	Warnings  []string
}

// Changed tells if the graph was modified
func (r FixReport) Changed() bool {
	return len(r.Flipped)+len(r.Duplicate)+len(r.SameTime) > 0
}

// FixInconsistencies repairs common editing mistakes in a lineage graph:
// edges pointing backwards in time are flipped, duplicated edges between
// the same pair of vertices are removed, and edges linking two vertices of
// the same timepoint are removed.
//
// Vertices with more than one parent or more than two children are only
// reported.
func FixInconsistencies(m *Model, logger *zap.Logger) FixReport {
	if logger == nil {
		logger = zap.NewNop()
	}
	var report FixReport
	g := m.Graph

	for _, e := range g.Edges() {
		source, target := g.Source(e), g.Target(e)
		if g.Vertex(source).Timepoint <= g.Vertex(target).Timepoint {
			continue
		}
		msg := fmt.Sprintf("%s -> %s", g.Vertex(source).Label, g.Vertex(target).Label)
		logger.Info("flip backwards edge", zap.String("edge", msg))
		report.Flipped = append(report.Flipped, msg)

		tags := m.Tags.Edges.TagIDs(e)
		g.RemoveEdge(e)
		flipped := g.AddEdge(target, source)
		if len(tags) > 0 {
			m.Tags.Edges.SetTagIDs(flipped, tags)
		}
	}

	for _, v := range g.Vertices() {
		in := g.Incoming(v)
		if len(in) < 2 {
			continue
		}
		seen := make(map[VertexRef]struct{}, len(in))
		var doubles []EdgeRef
		for _, e := range in {
			s := g.Source(e)
			if _, ok := seen[s]; ok {
				doubles = append(doubles, e)
				continue
			}
			seen[s] = struct{}{}
		}
		for _, e := range doubles {
			msg := fmt.Sprintf("%s -> %s", g.Vertex(g.Source(e)).Label, g.Vertex(v).Label)
			logger.Info("remove duplicated edge", zap.String("edge", msg))
			report.Duplicate = append(report.Duplicate, msg)
			g.RemoveEdge(e)
		}
	}

	for _, e := range g.Edges() {
		source, target := g.Vertex(g.Source(e)), g.Vertex(g.Target(e))
		if source.Timepoint != target.Timepoint {
			continue
		}
		msg := fmt.Sprintf("%s -> %s", source.Label, target.Label)
		logger.Info("remove same timepoint edge", zap.String("edge", msg))
		report.SameTime = append(report.SameTime, msg)
		g.RemoveEdge(e)
	}

	for _, v := range g.Vertices() {
		label := g.Vertex(v).Label
		if len(g.Incoming(v)) > 1 {
			logger.Warn("more than one parent", zap.String("spot", label))
			report.Warnings = append(report.Warnings, "more than one parent: "+label)
		}
		if len(g.Outgoing(v)) > 2 {
			logger.Warn("more than two children", zap.String("spot", label))
			report.Warnings = append(report.Warnings, "more than two children: "+label)
		}
	}
	return report
}
