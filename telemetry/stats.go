package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/octree/octree"
)

// WindowStats holds aggregated index statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Tree shape at window end
	Entries      int     `csv:"entries"`
	Blocks       int     `csv:"blocks"`
	Leaves       int     `csv:"leaves"`
	Interiors    int     `csv:"interiors"`
	Deepest      int     `csv:"deepest"`
	Resident     int     `csv:"resident"`
	OverCapacity int     `csv:"over_capacity"`
	Straddle     float64 `csv:"straddle"` // Leaf slots per entry; 1 means no entry straddles a boundary

	// Leaf occupancy distribution (sampled at window end)
	LeafMean float64 `csv:"leaf_mean"`
	LeafStd  float64 `csv:"leaf_std"`
	LeafP50  float64 `csv:"leaf_p50"`
	LeafP90  float64 `csv:"leaf_p90"`
	LeafMax  float64 `csv:"leaf_max"`

	// Mutations during window
	Inserts      int `csv:"inserts"`
	InsertMisses int `csv:"insert_misses"` // Entries placed in no block
	Removes      int `csv:"removes"`
	RemoveMisses int `csv:"remove_misses"`

	// Rebalancing during window
	Passes      int     `csv:"passes"`
	Splits      int     `csv:"splits"`
	Collapses   int     `csv:"collapses"`
	RebalanceUS float64 `csv:"rebalance_us"` // Mean pass duration

	// Queries during window, per kind: mean results and mean blocks visited
	FrustumQueries int     `csv:"frustum_queries"`
	FrustumResults float64 `csv:"frustum_results"`
	FrustumVisited float64 `csv:"frustum_visited"`
	SphereQueries  int     `csv:"sphere_queries"`
	SphereResults  float64 `csv:"sphere_results"`
	SphereVisited  float64 `csv:"sphere_visited"`
	RayQueries     int     `csv:"ray_queries"`
	RayResults     float64 `csv:"ray_results"`
	RayVisited     float64 `csv:"ray_visited"`
}

// LeafOccupancy appends the entry count of every leaf in idx to dst.
func LeafOccupancy(idx *octree.Index, dst []float64) []float64 {
	idx.Walk(func(b *octree.Block) bool {
		if b.IsLeaf() {
			dst = append(dst, float64(len(b.Entries())))
		}
		return true
	})
	return dst
}

// ComputeOccupancyStats calculates mean, standard deviation, median, 90th percentile and
// maximum of the values. Returns zeros for an empty slice.
func ComputeOccupancyStats(values []float64) (mean, std, p50, p90, maxV float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)

	return mean, std, p50, p90, sorted[n-1]
}

// applyTree copies the tree shape and occupancy distribution into s.
func (s *WindowStats) applyTree(tree octree.Stats, occupancy []float64) {
	s.Entries = tree.Entries
	s.Blocks = tree.Blocks
	s.Leaves = tree.Leaves
	s.Interiors = tree.Interiors
	s.Deepest = tree.Deepest
	s.Resident = tree.Resident
	s.OverCapacity = tree.OverCapacity
	if tree.Entries > 0 {
		s.Straddle = float64(tree.Resident) / float64(tree.Entries)
	}
	s.LeafMean, s.LeafStd, s.LeafP50, s.LeafP90, s.LeafMax = ComputeOccupancyStats(occupancy)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("entries", s.Entries),
		slog.Int("blocks", s.Blocks),
		slog.Int("leaves", s.Leaves),
		slog.Int("deepest", s.Deepest),
		slog.Int("over_capacity", s.OverCapacity),
		slog.Float64("straddle", s.Straddle),
		slog.Float64("leaf_mean", s.LeafMean),
		slog.Float64("leaf_p90", s.LeafP90),
		slog.Float64("leaf_max", s.LeafMax),
		slog.Int("inserts", s.Inserts),
		slog.Int("removes", s.Removes),
		slog.Int("passes", s.Passes),
		slog.Int("splits", s.Splits),
		slog.Int("collapses", s.Collapses),
		slog.Float64("frustum_results", s.FrustumResults),
		slog.Float64("frustum_visited", s.FrustumVisited),
		slog.Float64("sphere_results", s.SphereResults),
		slog.Float64("ray_results", s.RayResults),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
