package metrics

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
)

// Init global settings for metrics collection, such as the exporter and the
// reporting period.
//
// Init is called once by the CLI. Only the first call matters: later calls
// are ignored. Metrics may be registered before or after Init.
func Init(opts ...Option) {
	initOnce.Do(func() {
		mp = newSettings(opts...)
	})
}

// Flush all collected metrics to the exporter
func Flush() {
	current().Flush()
}

// EnsureMetrics allows for lazy registration of metrics definitions.
//
// It may safely be called several times: only the first registration at a
// given location is retained, and later calls return it. Registering another
// type at the same location panics.
func EnsureMetrics(location string, m interface{}) interface{} {
	return current().EnsureMetrics(location, m)
}

// Inc increments a counter-like metric
func Inc(counter *stats.Int64Measure, tags ...map[string]string) {
	record(tags, counter.M(1))
}

// Int64 sets a value to a measurement
func Int64(measure *stats.Int64Measure, value int64, tags ...map[string]string) {
	record(tags, measure.M(value))
}

// Float64 sets a value to a measurement
func Float64(measure *stats.Float64Measure, value float64, tags ...map[string]string) {
	record(tags, measure.M(value))
}

// Since feeds a millisecs timing measurement from some start time
func Since(start time.Time, measure *stats.Float64Measure, tags ...map[string]string) {
	Duration(start, time.Now(), measure, tags...)
}

// Duration feeds a millisecs timing measurement from some start to end timings
func Duration(start, end time.Time, measure *stats.Float64Measure, tags ...map[string]string) {
	record(tags, measure.M(float64(end.Sub(start).Nanoseconds())/1e6))
}

func record(tags []map[string]string, measurement stats.Measurement) {
	_ = stats.RecordWithTags(context.Background(), mergeTags(tags), measurement)
}

// mergeTags adds some dynamically defined tags to a single measurement
func mergeTags(extras []map[string]string) []tag.Mutator {
	var mutators []tag.Mutator
	for _, extra := range extras {
		for k, v := range extra {
			mutators = append(mutators, tag.Upsert(tag.MustNewKey(k), v))
		}
	}
	return mutators
}

// Enable equips any type with the capability to collect metrics.
//
// Sample usage:
//
//	type Repository struct {
//	  metrics.Enable
//	  m *M
//	}
//
//	// M describes the metrics recorded on repositories
//	type M struct {
//	  Usage metrics.UsageMetrics `group:"usage" description:"repository operations"`
//	}
//
//	func (r *Repository) Push() (err error) {
//	  if r.MetricsEnabled() {
//	    defer func(t0 time.Time) {
//	      r.m.Usage.UsedAll(t0, "Push")(err)
//	    }(time.Now())
//	  }
//	  ...
//	}
//
//	func New() *Repository {
//	  r := &Repository{}
//	  r.EnableMetrics(true)
//	  r.m = r.EnsureMetrics("core", &M{}).(*M)
//	  return r
//	}
type Enable struct {
	metricsEnabled bool
}

// MetricsEnabled tells whether metrics are enabled or not
func (e Enable) MetricsEnabled() bool {
	return e.metricsEnabled
}

// EnableMetrics toggles metrics collection
func (e *Enable) EnableMetrics(enabled bool) {
	e.metricsEnabled = enabled
}

// EnsureMetrics registers a type describing metrics to the global metrics
// collection, under some name in the metrics tree.
//
// NOTE: EnsureMetrics panics if not called with a pointer to a struct.
func (e *Enable) EnsureMetrics(name string, m interface{}) interface{} {
	return EnsureMetrics(name, m)
}
