package telemetry

import (
	"time"

	"github.com/pthm-cable/octree/octree"
)

type queryTally struct {
	count   int
	results int
	visited int
}

func (q queryTally) means() (results, visited float64) {
	if q.count == 0 {
		return 0, 0
	}
	return float64(q.results) / float64(q.count), float64(q.visited) / float64(q.count)
}

// Collector accumulates index events within time windows and produces WindowStats.
// It implements octree.MetricsCollector.
type Collector struct {
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	inserts       int
	insertMisses  int
	removes       int
	removeMisses  int
	passes        int
	splits        int
	collapses     int
	rebalanceTime time.Duration
	queries       [3]queryTally // indexed by octree.QueryKind
}

var _ octree.MetricsCollector = (*Collector)(nil)

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec/float64(dt) + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordInsert records an insert.
func (c *Collector) RecordInsert(placed bool) {
	c.inserts++
	if !placed {
		c.insertMisses++
	}
}

// RecordRemove records a remove.
func (c *Collector) RecordRemove(removed bool) {
	c.removes++
	if !removed {
		c.removeMisses++
	}
}

// RecordQuery records a query's result and visit counts.
func (c *Collector) RecordQuery(kind octree.QueryKind, results, visited int, _ time.Duration) {
	if int(kind) >= len(c.queries) {
		return
	}
	q := &c.queries[kind]
	q.count++
	q.results += results
	q.visited += visited
}

// RecordRebalance records a rebalance pass.
func (c *Collector) RecordRebalance(splits, collapses int, d time.Duration) {
	c.passes++
	c.splits += splits
	c.collapses += collapses
	c.rebalanceTime += d
}

// ShouldFlush returns true if the current window has completed.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces WindowStats for the completed window and resets counters.
func (c *Collector) Flush(currentTick int32, tree octree.Stats, occupancy []float64) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),
		Inserts:         c.inserts,
		InsertMisses:    c.insertMisses,
		Removes:         c.removes,
		RemoveMisses:    c.removeMisses,
		Passes:          c.passes,
		Splits:          c.splits,
		Collapses:       c.collapses,
	}
	if c.passes > 0 {
		stats.RebalanceUS = float64(c.rebalanceTime.Microseconds()) / float64(c.passes)
	}

	stats.FrustumQueries = c.queries[octree.KindFrustum].count
	stats.FrustumResults, stats.FrustumVisited = c.queries[octree.KindFrustum].means()
	stats.SphereQueries = c.queries[octree.KindSphere].count
	stats.SphereResults, stats.SphereVisited = c.queries[octree.KindSphere].means()
	stats.RayQueries = c.queries[octree.KindRay].count
	stats.RayResults, stats.RayVisited = c.queries[octree.KindRay].means()

	stats.applyTree(tree, occupancy)

	c.reset(currentTick)
	return stats
}

func (c *Collector) reset(tick int32) {
	*c = Collector{
		windowDurationTicks: c.windowDurationTicks,
		dt:                  c.dt,
		windowStartTick:     tick,
	}
}

// WindowDurationTicks returns the window size in ticks.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
