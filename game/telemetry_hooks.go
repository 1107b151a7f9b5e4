package game

import (
	"log/slog"

	"github.com/pthm-cable/octree/telemetry"
)

// flushTelemetry writes out the stats window once it has completed.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	tree := g.index.Stats()
	g.occupancy = telemetry.LeafOccupancy(g.index, g.occupancy[:0])

	stats := g.collector.Flush(g.tick, tree, g.occupancy)
	perfStats := g.perfCollector.Stats()

	if g.prom != nil {
		g.prom.SetTree(tree)
	}

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTree(stats); err != nil {
			slog.Error("failed to write tree stats", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}
