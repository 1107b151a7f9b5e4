package game

import (
	"log/slog"

	"github.com/pthm-cable/octree/octree"
	"github.com/pthm-cable/octree/telemetry"
)

// newIndex creates an empty index wired to the game's scheduler and telemetry.
func (g *Game) newIndex(capacity, maxDepth int) *octree.Index {
	var metrics octree.MetricsCollector = g.collector
	if g.prom != nil {
		metrics = telemetry.Fanout{g.collector, g.prom}
	}

	opts := []octree.Option{
		octree.WithCapacity(capacity),
		octree.WithMaxDepth(maxDepth),
		octree.WithScheduler(&g.tasks),
		octree.WithMetrics(metrics),
		octree.WithLogger(slog.Default().With("component", "octree")),
	}
	if !g.headless {
		opts = append(opts, octree.WithObserver(g.overlay))
	}
	return octree.New(opts...)
}

// Rebuild replaces the index with one using the given parameters and reindexes
// every live box. Pending rebalance tasks of the old index are discarded.
func (g *Game) Rebuild(capacity, maxDepth int) {
	g.index.Close()
	g.tasks.RunPending()

	entries := make([]octree.Entry, 0, len(g.entries))
	for _, e := range g.entries {
		entries = append(entries, e)
	}

	g.index = g.newIndex(capacity, maxDepth)
	d := g.cfg.Derived
	g.index.Initialize(d.WorldMin, d.WorldMax, entries)
	g.panelCapacity = float32(g.index.Capacity())
	g.panelMaxDepth = float32(g.index.MaxDepth())

	slog.Info("index rebuilt",
		"capacity", g.index.Capacity(),
		"max_depth", g.index.MaxDepth(),
		"entries", g.index.Len(),
	)
}

func (g *Game) pendingCapacity() int {
	return max(int(g.panelCapacity+0.5), 1)
}

func (g *Game) pendingMaxDepth() int {
	return max(int(g.panelMaxDepth+0.5), 1)
}
