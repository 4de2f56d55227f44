package core

import (
	"github.com/oneconcern/lineagesync/pkg/metrics"
)

// M describes metrics for the core package
type M struct {
	Volume struct {
		Snapshots metrics.IOMetrics `group:"snapshots" description:"saving and loading lineage snapshots"`
	} `group:"volumetry" description:""`
	Usage metrics.UsageMetrics `group:"telemetry" description:"usage stats for the core package"`
}
