package zaplog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestExportView(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := NewExporter(zap.New(core))

	measure := stats.Int64("core/usage/usageCount", "number of calls", stats.UnitDimensionless)
	key := tag.MustNewKey("method")
	e.ExportView(&view.Data{
		View:  &view.View{Name: "core/usage/usageCount", Measure: measure, Aggregation: view.Count(), TagKeys: []tag.Key{key}},
		Start: time.Now(),
		End:   time.Now(),
		Rows: []*view.Row{
			{Tags: []tag.Tag{{Key: key, Value: "Push"}}, Data: &view.CountData{Value: 3}},
			{Tags: []tag.Tag{{Key: key, Value: "Pull"}}, Data: &view.CountData{Value: 1}},
		},
	})

	entries := logs.All()
	assert.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "core/usage/usageCount", fields["view"])
	assert.Equal(t, "Push", fields["method"])
	assert.Equal(t, int64(3), fields["count"])
}
