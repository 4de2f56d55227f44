package metrics

import (
	"time"

	"go.opencensus.io/stats/view"
)

// Option configures metrics collection
type Option func(*settings)

// WithBasePath sets the root of the metrics tree, e.g. the name of the binary
func WithBasePath(location string) Option {
	return func(m *settings) {
		m.basePath = location
	}
}

// WithExporter conveys metrics to some collector. Metrics are logged by default.
func WithExporter(exporter view.Exporter) Option {
	return func(m *settings) {
		if exporter != nil {
			m.exporter = flusher(exporter)
		}
	}
}

// WithReportingPeriod sets how often views are exported, in addition to
// explicit flushes. Periods under a second are ignored.
func WithReportingPeriod(d time.Duration) Option {
	return func(m *settings) {
		m.period = d
	}
}
