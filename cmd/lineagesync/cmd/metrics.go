package cmd

import (
	"time"

	"go.uber.org/zap"

	"github.com/oneconcern/lineagesync/pkg/metrics"
	"github.com/oneconcern/lineagesync/pkg/metrics/exporters/influxdb"
)

type metricsFlags struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"` // pointer because we want to distinguish unset from false
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	m       *M
}

func (m metricsFlags) IsEnabled() bool {
	return m.Enabled != nil && *m.Enabled
}

// M describes metrics for the cmd package
type M struct {
	Usage metrics.UsageMetrics `group:"telemetry" description:"usage stats for lineagesync CLI"`
}

// initMetrics sets the exporter of metrics: an influxdb collector when an URL
// is configured, the logger otherwise
func initMetrics(l *zap.Logger) {
	if !lineageFlags.root.metrics.IsEnabled() {
		return
	}
	exporter := metrics.DefaultExporter(l)
	if url := lineageFlags.root.metrics.URL; url != "" {
		store, err := influxdb.NewStore(influxdb.WithURL(url), influxdb.WithNameAsTag("lineagesync"))
		if err != nil {
			wrapFatalln("cannot connect to metrics collector", err)
			return
		}
		exporter = influxdb.NewExporter(
			influxdb.WithStore(store),
			influxdb.WithTags(map[string]string{"version": NewVersionInfo().Version}),
			influxdb.WithErrorHandler(func(err error) {
				l.Warn("failed to export metrics", zap.Error(err))
			}),
		)
	}
	metrics.Init(
		metrics.WithExporter(exporter),
		metrics.WithBasePath("lineagesync"),
		metrics.WithReportingPeriod(settings.Metrics.Period),
	)
	lineageFlags.root.metrics.m = metrics.EnsureMetrics("cli", &M{}).(*M)
}

// cliUsage records a usage metric in the CLI context in a single go.
// This is intended to be used in some defer statement.
//
// Metrics are flushed as soon as the command is done.
func cliUsage(t0 time.Time, command string, err error) {
	if lineageFlags.root.metrics.IsEnabled() && lineageFlags.root.metrics.m != nil {
		lineageFlags.root.metrics.m.Usage.UsedAll(t0, command)(err)
		metrics.Flush()
	}
}
