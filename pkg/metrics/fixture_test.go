package metrics

import "go.opencensus.io/stats"

type exampleMetrics struct {
	Telemetry struct {
		Ignored   []TableMetrics      `group:"ignored" description:""`
		TestCount *stats.Int64Measure `metric:"testCount" description:"number of tests"`
	} `group:"telemetry" description:""`
	Volumetry struct {
		Tables TableMetrics `group:"tables" description:""`
	} `group:"volumetry" description:""`
	Network struct {
		Requests IOMetrics
	} `group:"network" description:""`
	Usage *UsageMetrics `group:"usage"`
}

func (e *exampleMetrics) IncTest() {
	Inc(e.Telemetry.TestCount, map[string]string{"kind": "test"})
}
