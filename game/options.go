package game

import (
	"github.com/pthm-cable/octree/config"
	"github.com/pthm-cable/octree/telemetry"
)

// Options configures a Game.
type Options struct {
	Seed           int64
	Headless       bool
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	StepsPerUpdate int
	OutputDir      string

	// Config overrides the global config. Used by the optimizer to run many
	// configurations side by side.
	Config *config.Config

	// Prom additionally receives index metrics and tree shape when set.
	Prom *telemetry.PromCollector

	// StatsCallback is called with every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}
