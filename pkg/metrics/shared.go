package metrics

import (
	"time"

	"go.opencensus.io/stats"
)

// TableMetrics reports about the paged tables of a snapshot
type TableMetrics struct {
	Records *stats.Int64Measure `metric:"records" description:"number of records" extraviews:"sum" tags:"table,operation"`
	Pages   *stats.Int64Measure `metric:"pages" description:"number of page files" extraviews:"sum" tags:"table,operation"`
	Size    *stats.Int64Measure `metric:"tableSize" unit:"bytes" description:"size of a table" extraviews:"sum" tags:"table,operation"`
}

func (m *TableMetrics) tags(table, operation string) map[string]string {
	return map[string]string{"table": table, "operation": operation}
}

// Table records the volumetry of a table read or written
func (m *TableMetrics) Table(table, operation string, records, pages int, size int64) {
	tags := m.tags(table, operation)
	Int64(m.Records, int64(records), tags)
	Int64(m.Pages, int64(pages), tags)
	if size > 0 {
		Int64(m.Size, size, tags)
	}
}

// IOMetrics is a common set of metrics reporting about IO activity
type IOMetrics struct {
	Count        *stats.Int64Measure   `metric:"ioCount" description:"number of IO requests" tags:"kind,operation"`
	Timing       *stats.Float64Measure `metric:"timing" unit:"milliseconds" description:"response time in milliseconds" tags:"kind,operation"`
	Failures     *stats.Int64Measure   `metric:"ioFailures" description:"number of failed IOs" tags:"kind,operation"`
	IOSize       *stats.Int64Measure   `metric:"ioSize" unit:"bytes" description:"IO chunk size in bytes" extraviews:"sum" tags:"kind,operation"`
	IOThroughput *stats.Float64Measure `metric:"throughput" unit:"bytespersec" description:"throughput of an unitary operation in bytes per second" tags:"kind,operation"`
}

func (n *IOMetrics) tags(operation string) map[string]string {
	return map[string]string{"kind": "io", "operation": operation}
}

// Size records the size of some IO operation. Zero sizes are not recorded.
func (n *IOMetrics) Size(size int64, operation string) {
	if size == 0 {
		return
	}
	Int64(n.IOSize, size, n.tags(operation))
}

// Throughput records the throughput of a successful, non-empty, IO operation,
// in bytes per second
func (n *IOMetrics) Throughput(start, end time.Time, size int64, operation string) {
	elapsed := end.Sub(start)
	if size == 0 || elapsed == 0 {
		return
	}
	Float64(n.IOThroughput, float64(size)/elapsed.Seconds(), n.tags(operation))
}

// IORecord records all metrics for an IO operation in one go.
//
// Example with deferred error capture:
//
//	defer func(start time.Time) {
//	  m.IORecord(start, "read")(size, err)
//	}(time.Now())
func (n *IOMetrics) IORecord(start time.Time, operation string) func(int64, error) {
	return func(size int64, err error) {
		now := time.Now()
		tags := n.tags(operation)
		Duration(start, now, n.Timing, tags)
		Inc(n.Count, tags)
		n.Size(size, operation)
		if err != nil {
			Inc(n.Failures, tags)
			return
		}
		n.Throughput(start, now, size, operation)
	}
}

// UsageMetrics is a common set of metrics reporting about usage
type UsageMetrics struct {
	Count    *stats.Int64Measure   `metric:"usageCount" description:"number of calls" tags:"kind,method"`
	Failures *stats.Int64Measure   `metric:"usageFailures" description:"number of failed calls" tags:"kind,method"`
	Timing   *stats.Float64Measure `metric:"timing" unit:"milliseconds" description:"duration of a call" tags:"kind,method"`
}

func (u *UsageMetrics) tags(method string) map[string]string {
	return map[string]string{"kind": "usage", "method": method}
}

// Inc records the usage of some method, without timings or failure reporting
func (u *UsageMetrics) Inc(method string) {
	Inc(u.Count, u.tags(method))
}

// UsedAll records usage of some instrumented entry point with failures, in one go.
//
// Example:
//
//	func (r *Repository) Pull() (err error) {
//	  defer func(start time.Time) {
//	    r.m.Usage.UsedAll(start, "Pull")(err)
//	  }(time.Now())
//	  ...
//	}
func (u *UsageMetrics) UsedAll(start time.Time, method string) func(error) {
	return func(err error) {
		tags := u.tags(method)
		Since(start, u.Timing, tags)
		Inc(u.Count, tags)
		if err != nil {
			Inc(u.Failures, tags)
		}
	}
}
