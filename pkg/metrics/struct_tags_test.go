package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats"
)

func TestStructTags(t *testing.T) {
	s := newSettings()
	m := &exampleMetrics{}

	scanStruct("parent", s.addMetric, m)

	assert.Nil(t, m.Telemetry.Ignored)

	assert.NotNil(t, m.Telemetry.TestCount)
	assert.NotNil(t, m.Volumetry.Tables.Records)
	assert.NotNil(t, m.Volumetry.Tables.Pages)
	assert.NotNil(t, m.Volumetry.Tables.Size)
	assert.NotNil(t, m.Network.Requests.Count)
	assert.NotNil(t, m.Network.Requests.Timing)
	assert.NotNil(t, m.Network.Requests.Failures)
	assert.NotNil(t, m.Network.Requests.IOSize)
	require.NotNil(t, m.Usage)
	assert.NotNil(t, m.Usage.Count)

	require.NotNil(t, m.Network.Requests.IOThroughput)
	assert.IsType(t, &stats.Float64Measure{}, m.Network.Requests.IOThroughput)
	assert.Equal(t, "parent/telemetry/testCount", m.Telemetry.TestCount.Name())
	assert.Equal(t, "parent/volumetry/tables/records", m.Volumetry.Tables.Records.Name())
	assert.Len(t, s.allMetrics, 12)
	assert.Len(t, s.allViews, 16)
}

func TestScanStructPanics(t *testing.T) {
	s := newSettings()
	assert.Panics(t, func() { scanStruct("x", s.addMetric, exampleMetrics{}) })
}
