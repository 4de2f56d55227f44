// Copyright © 2018 One Concern

package codec

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/metrics"
	"github.com/oneconcern/lineagesync/pkg/model"
	"github.com/oneconcern/lineagesync/pkg/storage"
)

// M describes the metrics collected when reading and writing snapshots
type M struct {
	Volumetry struct {
		Tables metrics.TableMetrics `group:"tables" description:"paged tables of snapshots"`
	} `group:"codec" description:"snapshot volumetry"`
	Usage metrics.UsageMetrics `group:"usage" description:"snapshot reads and writes"`
}

var (
	mOnce        sync.Once
	codecMetrics *M
)

func ensureMetrics(enabled bool) *M {
	if !enabled {
		return nil
	}
	mOnce.Do(func() {
		codecMetrics = metrics.EnsureMetrics("codec", &M{}).(*M)
	})
	return codecMetrics
}

// Write saves a model to a store.
//
// Spots and links which already have an id in x keep it. New ones get the
// next free ids. The label dictionary of x is compacted to the labels in use.
// x must be bound to the graph of the model.
func Write(ctx context.Context, store storage.Store, mdl *model.Model, x *Ids, opts ...Option) (err error) {
	o := defaultOptions(opts)
	mx := ensureMetrics(o.metrics)
	if mx != nil {
		defer func(start time.Time) {
			mx.Usage.UsedAll(start, "Write")(err)
		}(time.Now())
	}
	g := mdl.Graph

	labels := make(map[string]struct{})
	for _, v := range g.Vertices() {
		x.Spots.GetOrCreateID(v)
		if label := g.Vertex(v).Label; label != "" {
			labels[label] = struct{}{}
		}
	}
	for _, v := range g.Vertices() {
		for _, e := range g.Outgoing(v) {
			x.Links.GetOrCreateID(e)
		}
	}
	x.Labels.Update(labels)

	size, err := writeStructure(ctx, store, mdl.Tags.Structure())
	if err != nil {
		return err
	}
	o.l.Debug("tag set structure written", zap.Int64("size", size))

	spotTags, spotTagIndex := buildTagLookup(x.Spots, mdl.Tags.Vertices)
	if _, err = writeTagLookup(ctx, store, spotsLookupKey, spotTags); err != nil {
		return err
	}
	linkTags, linkTagIndex := buildTagLookup(x.Links, mdl.Tags.Edges)
	if _, err = writeTagLookup(ctx, store, linksLookupKey, linkTags); err != nil {
		return err
	}

	version := formatWithoutUUID
	if o.legacyUUIDs {
		version = formatWithUUID
	}
	spotAt := func(id int) (model.VertexRef, bool) {
		v, ok := x.Spots.Handle(id)
		return v, ok && g.IsVertex(v)
	}
	stats, err := writeTable(ctx, store, spotsTable, x.Spots.MaxID(), pageHeader{version: version, attrLen: spotAttrLen},
		func(id int) bool {
			_, ok := spotAt(id)
			return ok
		},
		func(w *recordWriter, id int) {
			v, _ := spotAt(id)
			attrs := g.Vertex(v)
			if o.legacyUUIDs {
				u := x.UUID(v)
				w.raw(u[:])
			}
			labelIndex := -1
			if attrs.Label != "" {
				labelIndex, _ = x.Labels.Index(attrs.Label)
			}
			w.int32(labelIndex)
			w.int32(spotTagIndex[v])
			writeSpotAttributes(w, attrs)
		})
	if err != nil {
		return err
	}
	o.record(mx, spotsTable, "write", stats)

	linkAt := func(id int) (model.EdgeRef, bool) {
		e, ok := x.Links.Handle(id)
		return e, ok && g.IsEdge(e)
	}
	stats, err = writeTable(ctx, store, linksTable, x.Links.MaxID(), pageHeader{version: formatWithoutUUID, attrLen: linkAttrLen},
		func(id int) bool {
			_, ok := linkAt(id)
			return ok
		},
		func(w *recordWriter, id int) {
			e, _ := linkAt(id)
			w.int32(x.Spots.ID(g.Source(e)))
			w.int32(x.Spots.ID(g.Target(e)))
			w.int32(g.SourceOutIndex(e))
			w.int32(g.TargetInIndex(e))
			w.int32(linkTagIndex[e])
		})
	if err != nil {
		return err
	}
	o.record(mx, linksTable, "write", stats)

	entries := x.Labels.Entries()
	stats, err = writeTable(ctx, store, labelsTable, len(entries)-1, pageHeader{version: formatWithoutUUID},
		func(id int) bool { return entries[id] != "" },
		func(w *recordWriter, id int) { w.string(entries[id]) })
	if err != nil {
		return err
	}
	o.record(mx, labelsTable, "write", stats)

	o.l.Info("snapshot written",
		zap.Stringer("store", store),
		zap.Int("spots", g.NumVertices()),
		zap.Int("links", g.NumEdges()),
		zap.Int("labels", x.Labels.Len()))
	return nil
}

// Read loads a model from a store, with the identities of its spots, links
// and labels. The returned Ids are bound to the graph of the returned model.
//
// An empty store reads as an empty model.
func Read(ctx context.Context, store storage.Store, opts ...Option) (_ *model.Model, _ *Ids, err error) {
	o := defaultOptions(opts)
	mx := ensureMetrics(o.metrics)
	if mx != nil {
		defer func(start time.Time) {
			mx.Usage.UsedAll(start, "Read")(err)
		}(time.Now())
	}

	structure, err := readStructure(ctx, store)
	if err != nil {
		return nil, nil, err
	}
	mdl := model.New()
	mdl.Tags.SetStructure(structure)
	g := mdl.Graph
	x := NewIds(g)

	labels := make(map[int]string)
	stats, err := readTable(ctx, store, labelsTable, 0, func(r *recordReader, _ pageHeader, id int) error {
		label := r.string()
		if _, ok := labels[id]; ok {
			return errDuplicateID
		}
		labels[id] = label
		x.Labels.Put(label, id)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	o.record(mx, labelsTable, "read", stats)

	spotTags, err := readTagLookup(ctx, store, spotsLookupKey)
	if err != nil {
		return nil, nil, err
	}
	linkTags, err := readTagLookup(ctx, store, linksLookupKey)
	if err != nil {
		return nil, nil, err
	}

	spotStager := mdl.Tags.Vertices.Stager()
	stats, err = readTable(ctx, store, spotsTable, spotAttrLen, func(r *recordReader, header pageHeader, id int) error {
		var u []byte
		if header.version == formatWithUUID {
			u = r.raw(16)
		}
		labelIndex := r.int32()
		tagIndex := r.int32()
		attrs := readSpotAttributes(r)
		if r.err != nil {
			return r.err
		}
		if labelIndex >= 0 {
			label, ok := labels[labelIndex]
			if !ok {
				return errLabelIndex.WrapMessage("%d", labelIndex)
			}
			attrs.Label = label
		} else if labelIndex != -1 {
			return errLabelIndex.WrapMessage("%d", labelIndex)
		}
		tagIDs, err := lookupTags(spotTags, tagIndex)
		if err != nil {
			return err
		}
		if x.Spots.ContainsID(id) {
			return errDuplicateID
		}

		v := g.AddVertex(attrs)
		x.Spots.Put(id, v)
		if u != nil {
			var legacy uuid.UUID
			copy(legacy[:], u)
			x.setUUID(v, legacy)
		}
		if len(tagIDs) > 0 {
			spotStager.Assign(v, tagIDs)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	spotStager.Finish()
	o.record(mx, spotsTable, "read", stats)

	outSlots := make(map[model.EdgeRef]int)
	inSlots := make(map[model.EdgeRef]int)
	linkStager := mdl.Tags.Edges.Stager()
	stats, err = readTable(ctx, store, linksTable, linkAttrLen, func(r *recordReader, _ pageHeader, id int) error {
		sourceID, targetID := r.int32(), r.int32()
		outIndex, inIndex := r.int32(), r.int32()
		tagIndex := r.int32()
		if r.err != nil {
			return r.err
		}
		source, ok := x.Spots.Handle(sourceID)
		if !ok {
			return errUnknownEndpoint.WrapMessage("source %d", sourceID)
		}
		target, ok := x.Spots.Handle(targetID)
		if !ok {
			return errUnknownEndpoint.WrapMessage("target %d", targetID)
		}
		tagIDs, err := lookupTags(linkTags, tagIndex)
		if err != nil {
			return err
		}
		if x.Links.ContainsID(id) {
			return errDuplicateID
		}

		e := g.AddEdge(source, target)
		x.Links.Put(id, e)
		outSlots[e] = outIndex
		inSlots[e] = inIndex
		if len(tagIDs) > 0 {
			linkStager.Assign(e, tagIDs)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	linkStager.Finish()
	o.record(mx, linksTable, "read", stats)

	for _, v := range g.Vertices() {
		if len(g.Outgoing(v)) > 1 {
			g.SortOutgoing(v, func(e model.EdgeRef) int { return outSlots[e] })
		}
		if len(g.Incoming(v)) > 1 {
			g.SortIncoming(v, func(e model.EdgeRef) int { return inSlots[e] })
		}
	}

	// drop assignments of tags the structure doesn't define
	mdl.Tags.SetStructure(mdl.Tags.Structure())

	o.l.Info("snapshot read",
		zap.Stringer("store", store),
		zap.Int("spots", g.NumVertices()),
		zap.Int("links", g.NumEdges()),
		zap.Int("labels", x.Labels.Len()))
	return mdl, x, nil
}

func (o *options) record(mx *M, table, operation string, stats tableStats) {
	o.l.Debug("table "+operation,
		zap.String("table", table),
		zap.Int("records", stats.records),
		zap.Int("pages", stats.pages),
		zap.Int64("size", stats.size))
	if mx != nil {
		mx.Volumetry.Tables.Table(table, operation, stats.records, stats.pages, stats.size)
	}
}
