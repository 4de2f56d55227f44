package metrics

import (
	"path"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-units"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/metrics/exporters/zaplog"
)

const (
	// KB stands for kilo bytes (1024 bytes)
	KB = units.KiB

	// MB stands for mega bytes (1024 kilo bytes)
	MB = units.MiB

	unitCount    = "count"
	unitSumBytes = "sumbytes"
	unitBps      = "bps"
)

var (
	// global settings for metrics
	mp       *settings
	initOnce sync.Once
)

type settings struct {
	basePath string
	exporter FlushExporter

	allMetrics []stats.Measure
	allViews   []*view.View

	// registered modules, by location in the metrics tree
	modules   map[string]interface{}
	exclusive sync.Mutex

	period time.Duration
}

func current() *settings {
	initOnce.Do(func() {
		if mp == nil {
			mp = newSettings()
		}
	})
	return mp
}

func defaultSettings() *settings {
	return &settings{
		modules: make(map[string]interface{}),
	}
}

// DefaultExporter logs view data with a zap logger at the debug level
func DefaultExporter(logger *zap.Logger) view.Exporter {
	return zaplog.NewExporter(logger)
}

func newSettings(opts ...Option) *settings {
	s := defaultSettings()
	for _, apply := range opts {
		apply(s)
	}
	if s.exporter == nil {
		s.exporter = flusher(DefaultExporter(zap.NewNop()))
	}
	s.RegisterExporter()
	return s
}

func (s *settings) EnsureMetrics(location string, m interface{}) interface{} {
	s.exclusive.Lock()
	defer s.exclusive.Unlock()
	location = path.Join(s.basePath, location)

	if existing, ok := s.modules[location]; ok {
		if !equalType(existing, m) {
			panic("trying to re-register existing metrics module with a different type")
		}
		return existing
	}
	scanStruct(location, s.addMetric, m)
	s.modules[location] = m
	return m
}

// Flush collects all remaining data for registered views and exports them
func (s *settings) Flush() {
	s.exclusive.Lock()
	views := append([]*view.View(nil), s.allViews...)
	s.exclusive.Unlock()

	now := time.Now()
	for _, v := range views {
		rows, err := view.RetrieveData(v.Name)
		if err != nil || len(rows) == 0 {
			continue
		}
		s.exporter.Flush(&view.Data{View: v, Start: now, End: now, Rows: rows})
	}
}

// RegisterExporter registers the current exporter to the opencensus library
func (s *settings) RegisterExporter() {
	if s.exporter == nil {
		return
	}
	view.RegisterExporter(s.exporter)
	if s.period >= time.Second {
		view.SetReportingPeriod(s.period)
	}
}

// addMetric creates a metric with some views, according to the decoded struct tags.
//
// Every metric gets a default view according to its unit:
//   - counters (unit "count" or none) get a count view
//   - bytes get a size distribution view
//   - milliseconds get a duration distribution view
//   - bytespersec get a throughput distribution view
//   - sumbytes get a cumulated size view
//
// Extra views may be declared with the extraviews tag, e.g. extraviews:"sum,lastvalue"
func (s *settings) addMetric(m interface{}, metric, group string, tags map[string]string) interface{} {
	name := path.Join(group, metric)
	description := tags["description"]
	if description == "" {
		description = describeFromTags(name, tags)
	}
	u, dist := unitAndDist(tags["unit"])

	var measure stats.Measure
	switch m.(type) {
	case *stats.Int64Measure:
		measure = stats.Int64(name, description, u)
	case *stats.Float64Measure:
		measure = stats.Float64(name, description, u)
	default:
		return nil
	}
	s.allMetrics = append(s.allMetrics, measure)

	var keys []tag.Key
	for _, g := range strings.Split(tags["groupings"], ",") {
		if g != "" {
			keys = append(keys, tag.MustNewKey(g))
		}
	}

	s.register(&view.View{
		Name:        name,
		Description: describeViewFromDist(description, dist),
		Measure:     measure,
		Aggregation: dist,
		TagKeys:     keys,
	})

	for _, extra := range strings.Split(tags["views"], ",") {
		var agg *view.Aggregation
		switch extra {
		case unitCount:
			agg = view.Count()
		case "sum":
			agg = view.Sum()
		case "lastvalue":
			agg = view.LastValue()
		default:
			continue
		}
		s.register(&view.View{
			Name:        describeViewFromDist(name, agg),
			Description: describeViewFromDist(description, agg),
			Measure:     measure,
			Aggregation: agg,
			TagKeys:     keys,
		})
	}
	return measure
}

func (s *settings) register(v *view.View) {
	s.allViews = append(s.allViews, v)
	_ = view.Register(v)
}

func durationDistribution() *view.Aggregation {
	// buckets in milliseconds: codec IO is fast, network operations are not
	return view.Distribution(
		1, 5, 10, 50,
		100, 300, 500,
		1000, 2000, 5000,
		10000, 30000, 60000,
		120000,
	)
}

func bytesDistribution() *view.Aggregation {
	// buckets in bytes: a page of 1000 spots is about 130KB
	return view.Distribution(
		100, 500,
		1*KB, 5*KB, 10*KB, 50*KB,
		100*KB, 150*KB, 500*KB,
		1*MB, 10*MB,
	)
}

func throughputDistribution() *view.Aggregation {
	return view.Distribution(
		100*KB, 500*KB,
		1*MB, 10*MB, 50*MB, 100*MB, 500*MB,
	)
}

func unitAndDist(unit string) (string, *view.Aggregation) {
	switch unit {
	case "milliseconds":
		return stats.UnitMilliseconds, durationDistribution()
	case "bytes":
		return stats.UnitBytes, bytesDistribution()
	case unitSumBytes:
		return stats.UnitBytes, view.Sum()
	case "bytespersec", unitBps:
		return unitBps, throughputDistribution()
	default:
		return stats.UnitDimensionless, view.Count()
	}
}

func describeFromTags(name string, tags map[string]string) string {
	switch unit := tags["unit"]; unit {
	case unitSumBytes:
		return name + " cumulated bytes"
	case "", unitCount:
		return name + " counter"
	default:
		return name + " in " + unit
	}
}

func describeViewFromDist(desc string, in *view.Aggregation) string {
	if in == nil {
		return desc
	}
	switch in.Type {
	case view.AggTypeCount:
		return desc + " [count]"
	case view.AggTypeSum:
		return desc + " [cumulated]"
	case view.AggTypeDistribution:
		return desc + " [distribution]"
	case view.AggTypeLastValue:
		return desc + " [last]"
	default:
		return desc
	}
}

// FlushExporter is a view exporter that knows how to flush metrics.
//
// Flushing may happen concurrently with the background exporter of opencensus.
type FlushExporter interface {
	view.Exporter
	Flush(*view.Data)
}

func flusher(e view.Exporter) FlushExporter {
	if f, ok := e.(FlushExporter); ok {
		return f
	}
	return &simpleFlusher{e: e}
}

type simpleFlusher struct {
	e view.Exporter
	m sync.RWMutex
}

func (f *simpleFlusher) ExportView(viewData *view.Data) {
	f.m.RLock()
	f.e.ExportView(viewData)
	f.m.RUnlock()
}

func (f *simpleFlusher) Flush(viewData *view.Data) {
	f.m.Lock()
	f.e.ExportView(viewData)
	f.m.Unlock()
}
