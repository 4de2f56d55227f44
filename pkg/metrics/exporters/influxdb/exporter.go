// Package influxdb exports opencensus views to an influxdb v1 database
package influxdb

import (
	"context"
	"fmt"
	"strings"

	"go.opencensus.io/stats/view"
)

var _ view.Exporter = &Exporter{}

// NewExporter creates a new Influxdb exporter.
//
// Use options to configure:
//   - an influxdb Store instance (required)
//   - an error handler. If set to nil, a no-op handler is set by default
//   - a map of custom tags for written records (may be nil)
func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{
		errorHandler: func(_ error) {},
	}
	for _, apply := range opts {
		apply(e)
	}
	return e
}

const (
	// opencensus information represented as influxdb tags
	descriptionTag = "description"
	unitTag        = "unit"
	aggregationTag = "aggregation"

	// opencensus information represented as influxdb fields
	startField       = "start"
	observationField = "observationPeriod"
	valueField       = "value"
	minField         = "min"
	maxField         = "max"
	meanField        = "mean"
	countField       = "count"
)

// Exporter is an opencensus exporter for Influxdb
type Exporter struct {
	store        Store
	errorHandler func(error)
	customTags   map[string]string
}

// ExportView sends collected metrics to the backend sink
func (e *Exporter) ExportView(viewData *view.Data) {
	if e.store == nil || len(viewData.Rows) == 0 {
		return
	}
	points := make([]MetricPoint, 0, len(viewData.Rows))
	for _, row := range viewData.Rows {
		fields := map[string]interface{}{
			startField:       viewData.Start,
			observationField: viewData.End.Sub(viewData.Start).String(),
		}
		tags := map[string]string{
			unitTag: viewData.View.Measure.Unit(),
		}
		if viewData.View.Description != "" {
			tags[descriptionTag] = viewData.View.Description
		}

		switch d := row.Data.(type) {
		case *view.CountData:
			fields[valueField] = float64(d.Value)
			tags[aggregationTag] = "count"
		case *view.DistributionData:
			fields[minField] = d.Min
			fields[maxField] = d.Max
			fields[meanField] = d.Mean
			fields[countField] = d.Count
			tags[aggregationTag] = "distribution"
		case *view.LastValueData:
			fields[valueField] = d.Value
			tags[aggregationTag] = "last"
		case *view.SumData:
			fields[valueField] = d.Value
			tags[aggregationTag] = "sum"
		default:
			e.errorHandler(fmt.Errorf("unknown AggregationData type: %T", row.Data))
			return
		}

		for k, v := range e.customTags {
			tags[k] = v
		}
		for _, t := range row.Tags {
			tags[strings.ToLower(t.Key.Name())] = t.Value
		}

		points = append(points, MetricPoint{
			Measurement: viewData.View.Name,
			Tags:        tags,
			Fields:      fields,
			Timestamp:   viewData.End,
		})
	}

	if err := e.store.WriteBatch(context.Background(), points); err != nil {
		e.errorHandler(err)
	}
}
