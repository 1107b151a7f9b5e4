package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pthm-cable/octree/octree"
)

const (
	kindLabel    = "kind"
	outcomeLabel = "outcome"
)

// PromCollector exports index metrics to Prometheus. It implements octree.MetricsCollector.
type PromCollector struct {
	inserts    *prometheus.CounterVec
	removes    *prometheus.CounterVec
	queries    *prometheus.HistogramVec
	results    *prometheus.HistogramVec
	visited    *prometheus.HistogramVec
	passes     prometheus.Counter
	splits     prometheus.Counter
	collapses  prometheus.Counter
	rebalances prometheus.Histogram

	entries prometheus.Gauge
	blocks  *prometheus.GaugeVec
	depth   prometheus.Gauge
}

var _ octree.MetricsCollector = (*PromCollector)(nil)

// NewPromCollector registers the index metrics with reg.
func NewPromCollector(reg prometheus.Registerer) *PromCollector {
	f := promauto.With(reg)
	countBuckets := prometheus.ExponentialBuckets(1, 2, 12)

	return &PromCollector{
		inserts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "octree_inserts_total",
			Help: "The total number of inserts, by whether the entry was placed.",
		}, []string{outcomeLabel}),
		removes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "octree_removes_total",
			Help: "The total number of removes, by whether the entry was indexed.",
		}, []string{outcomeLabel}),
		queries: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "octree_query_duration_seconds",
			Help:    "Query latency by primitive.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{kindLabel}),
		results: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "octree_query_results",
			Help:    "Distinct entries returned per query.",
			Buckets: countBuckets,
		}, []string{kindLabel}),
		visited: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "octree_query_blocks_visited",
			Help:    "Blocks tested per query.",
			Buckets: countBuckets,
		}, []string{kindLabel}),
		passes: f.NewCounter(prometheus.CounterOpts{
			Name: "octree_rebalance_passes_total",
			Help: "The total number of deferred rebalance passes.",
		}),
		splits: f.NewCounter(prometheus.CounterOpts{
			Name: "octree_splits_total",
			Help: "The total number of leaf splits.",
		}),
		collapses: f.NewCounter(prometheus.CounterOpts{
			Name: "octree_collapses_total",
			Help: "The total number of interior collapses.",
		}),
		rebalances: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "octree_rebalance_duration_seconds",
			Help:    "Rebalance pass latency.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		entries: f.NewGauge(prometheus.GaugeOpts{
			Name: "octree_entries",
			Help: "Distinct entries in the index.",
		}),
		blocks: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "octree_blocks",
			Help: "Blocks in the tree, by kind.",
		}, []string{kindLabel}),
		depth: f.NewGauge(prometheus.GaugeOpts{
			Name: "octree_depth",
			Help: "Depth of the deepest block.",
		}),
	}
}

func outcome(ok bool) string {
	if ok {
		return "hit"
	}
	return "miss"
}

// RecordInsert implements octree.MetricsCollector.
func (p *PromCollector) RecordInsert(placed bool) {
	p.inserts.With(prometheus.Labels{outcomeLabel: outcome(placed)}).Inc()
}

// RecordRemove implements octree.MetricsCollector.
func (p *PromCollector) RecordRemove(removed bool) {
	p.removes.With(prometheus.Labels{outcomeLabel: outcome(removed)}).Inc()
}

// RecordQuery implements octree.MetricsCollector.
func (p *PromCollector) RecordQuery(kind octree.QueryKind, results, visited int, d time.Duration) {
	labels := prometheus.Labels{kindLabel: kind.String()}
	p.queries.With(labels).Observe(d.Seconds())
	p.results.With(labels).Observe(float64(results))
	p.visited.With(labels).Observe(float64(visited))
}

// RecordRebalance implements octree.MetricsCollector.
func (p *PromCollector) RecordRebalance(splits, collapses int, d time.Duration) {
	p.passes.Inc()
	p.splits.Add(float64(splits))
	p.collapses.Add(float64(collapses))
	p.rebalances.Observe(d.Seconds())
}

// SetTree publishes the current tree shape.
func (p *PromCollector) SetTree(s octree.Stats) {
	p.entries.Set(float64(s.Entries))
	p.blocks.With(prometheus.Labels{kindLabel: "leaf"}).Set(float64(s.Leaves))
	p.blocks.With(prometheus.Labels{kindLabel: "interior"}).Set(float64(s.Interiors))
	p.depth.Set(float64(s.Deepest))
}

// Fanout forwards index metrics to several collectors.
type Fanout []octree.MetricsCollector

// RecordInsert implements octree.MetricsCollector.
func (f Fanout) RecordInsert(placed bool) {
	for _, m := range f {
		m.RecordInsert(placed)
	}
}

// RecordRemove implements octree.MetricsCollector.
func (f Fanout) RecordRemove(removed bool) {
	for _, m := range f {
		m.RecordRemove(removed)
	}
}

// RecordQuery implements octree.MetricsCollector.
func (f Fanout) RecordQuery(kind octree.QueryKind, results, visited int, d time.Duration) {
	for _, m := range f {
		m.RecordQuery(kind, results, visited, d)
	}
}

// RecordRebalance implements octree.MetricsCollector.
func (f Fanout) RecordRebalance(splits, collapses int, d time.Duration) {
	for _, m := range f {
		m.RecordRebalance(splits, collapses, d)
	}
}
