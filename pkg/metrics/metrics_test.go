package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oneconcern/lineagesync/pkg/metrics/exporters/zaplog"
)

func fixtureRequires(t testing.TB, m *exampleMetrics) {
	require.NotNil(t, m.Telemetry.TestCount)
	require.NotNil(t, m.Volumetry.Tables.Records)
	require.NotNil(t, m.Network.Requests.Count)
}

func TestRegister(t *testing.T) {
	testMetrics := &exampleMetrics{}
	Init(WithExporter(zaplog.NewExporter(zap.NewNop())))

	// lazy registration
	x := EnsureMetrics("registerExample", testMetrics)
	fixtureRequires(t, testMetrics)
	Inc(testMetrics.Telemetry.TestCount)

	// retry registration
	y := EnsureMetrics("registerExample", &exampleMetrics{})
	require.Equal(t, x, y)

	assert.Panics(t, func() { EnsureMetrics("registerExample", &UsageMetrics{}) })
}

func TestModules(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := newSettings(
		WithBasePath("root"),
		WithExporter(zaplog.NewExporter(zap.New(core))),
	)
	testMetrics := &exampleMetrics{}
	_ = s.EnsureMetrics("moduleTesting", testMetrics)

	require.Len(t, s.modules, 1)
	fixtureRequires(t, testMetrics)
	saved := mp
	mp = s
	defer func() { mp = saved }()

	t0 := time.Now()
	testMetrics.IncTest()

	testMetrics.Network.Requests.Size(100, "write")
	testMetrics.Network.Requests.Throughput(t0, time.Now(), 100, "read")
	testMetrics.Network.Requests.Throughput(t0, t0, 100, "nop")
	testMetrics.Network.Requests.Throughput(t0, t0, 0, "nop")

	testMetrics.Network.Requests.IORecord(t0, "nop")(0, nil)
	testMetrics.Network.Requests.IORecord(t0, "read")(100, nil)
	testMetrics.Network.Requests.IORecord(t0, "error")(0, fmt.Errorf("failure"))

	testMetrics.Volumetry.Tables.Table("spots", "write", 1000, 1, 130*KB)
	testMetrics.Usage.UsedAll(t0, "Push")(nil)
	testMetrics.Usage.UsedAll(t0, "Pull")(fmt.Errorf("conflict"))
	testMetrics.Usage.Inc("Commit")

	s.Flush()
	assert.NotZero(t, logs.FilterMessage("metrics").Len())
}
