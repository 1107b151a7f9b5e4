package octree

import "time"

// QueryKind identifies the primitive a query was run with.
type QueryKind uint8

const (
	KindFrustum QueryKind = iota
	KindSphere
	KindRay
)

func (k QueryKind) String() string {
	switch k {
	case KindFrustum:
		return "frustum"
	case KindSphere:
		return "sphere"
	case KindRay:
		return "ray"
	}
	return "unknown"
}

// MetricsCollector receives operational metrics from an Index.
type MetricsCollector interface {
	// RecordInsert is called after each insert; placed is false when the entry
	// landed in no block or was already present.
	RecordInsert(placed bool)

	// RecordRemove is called after each remove; removed is false for unknown entries.
	RecordRemove(removed bool)

	// RecordQuery is called after each query with the number of distinct results
	// and the number of blocks visited.
	RecordQuery(kind QueryKind, results, visited int, duration time.Duration)

	// RecordRebalance is called after each deferred pass.
	RecordRebalance(splits, collapses int, duration time.Duration)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(bool)                              {}
func (NoopMetricsCollector) RecordRemove(bool)                              {}
func (NoopMetricsCollector) RecordQuery(QueryKind, int, int, time.Duration) {}
func (NoopMetricsCollector) RecordRebalance(int, int, time.Duration)        {}
