// Package zaplog exports opencensus views to a zap logger
package zaplog

import (
	"go.opencensus.io/stats/view"
	"go.uber.org/zap"
)

var _ view.Exporter = &Exporter{}

// NewExporter builds an exporter logging view data at the debug level
func NewExporter(l *zap.Logger) *Exporter {
	if l == nil {
		l = zap.NewNop()
	}
	return &Exporter{l: l}
}

// Exporter logs every row of the views it receives
type Exporter struct {
	l *zap.Logger
}

// ExportView logs the view data
func (e *Exporter) ExportView(viewData *view.Data) {
	for _, row := range viewData.Rows {
		fields := make([]zap.Field, 0, len(row.Tags)+3)
		fields = append(fields,
			zap.String("view", viewData.View.Name),
			zap.String("unit", viewData.View.Measure.Unit()),
		)
		for _, t := range row.Tags {
			fields = append(fields, zap.String(t.Key.Name(), t.Value))
		}
		switch d := row.Data.(type) {
		case *view.CountData:
			fields = append(fields, zap.Int64("count", d.Value))
		case *view.SumData:
			fields = append(fields, zap.Float64("sum", d.Value))
		case *view.LastValueData:
			fields = append(fields, zap.Float64("last", d.Value))
		case *view.DistributionData:
			fields = append(fields,
				zap.Int64("count", d.Count),
				zap.Float64("min", d.Min),
				zap.Float64("max", d.Max),
				zap.Float64("mean", d.Mean),
			)
		}
		e.l.Debug("metrics", fields...)
	}
}
