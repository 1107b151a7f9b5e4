// Package game runs the octree viewer: a world of moving boxes indexed by an
// octree and probed every tick with frustum, sphere and ray queries.
package game

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/octree/camera"
	"github.com/pthm-cable/octree/components"
	"github.com/pthm-cable/octree/config"
	"github.com/pthm-cable/octree/debugdraw"
	"github.com/pthm-cable/octree/geom"
	"github.com/pthm-cable/octree/inspector"
	"github.com/pthm-cable/octree/octree"
	"github.com/pthm-cable/octree/telemetry"
	"github.com/pthm-cable/octree/unique"
)

// Game holds the complete viewer state.
type Game struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand

	boxMapper *ecs.Map4[
		components.Body,
		components.Transform,
		components.Motion,
		components.Geometry,
	]
	boxFilter *ecs.Filter4[
		components.Body,
		components.Transform,
		components.Motion,
		components.Geometry,
	]

	bodyMap      *ecs.Map1[components.Body]
	transformMap *ecs.Map1[components.Transform]
	motionMap    *ecs.Map1[components.Motion]
	geometryMap  *ecs.Map1[components.Geometry]

	// Spatial index, rebalanced from tasks once per tick
	index   *octree.Index
	tasks   octree.TaskQueue
	entries map[uint64]*entry
	nextID  uint64

	// Per-tick query state
	probe       geom.Sphere
	pick        geom.Ray
	frustumHits *unique.Array[octree.Entry]
	sphereHits  *unique.Array[octree.Entry]
	rayHits     *unique.Array[octree.Entry]

	// Scratch buffers reused across ticks
	moved     []*entry
	resized   []*entry
	churned   []*entry
	occupancy []float64

	camera    *camera.Camera
	overlay   *debugdraw.Overlay
	inspector *inspector.Inspector

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	prom          *telemetry.PromCollector
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	// State
	tick           int32
	paused         bool
	headless       bool
	stepsPerUpdate int
	mouseX, mouseY float64

	// Debug toggles
	showTree  bool
	showEmpty bool
	showProbe bool

	// Panel slider values, applied by Rebuild
	panelCapacity float32
	panelMaxDepth float32
}

// NewGameWithOptions creates a viewer. Graphical mode expects the raylib window
// to exist already.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	world := ecs.NewWorld()

	g := &Game{
		cfg:   cfg,
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		boxMapper: ecs.NewMap4[
			components.Body,
			components.Transform,
			components.Motion,
			components.Geometry,
		](world),
		boxFilter: ecs.NewFilter4[
			components.Body,
			components.Transform,
			components.Motion,
			components.Geometry,
		](world),
		bodyMap:        ecs.NewMap1[components.Body](world),
		transformMap:   ecs.NewMap1[components.Transform](world),
		motionMap:      ecs.NewMap1[components.Motion](world),
		geometryMap:    ecs.NewMap1[components.Geometry](world),
		entries:        make(map[uint64]*entry),
		frustumHits:    unique.New[octree.Entry](cfg.Scene.Entities),
		sphereHits:     unique.New[octree.Entry](64),
		rayHits:        unique.New[octree.Entry](64),
		overlay:        debugdraw.NewOverlay(),
		inspector:      inspector.NewInspector(int32(cfg.Screen.Width), int32(cfg.Screen.Height)),
		prom:           opts.Prom,
		statsCallback:  opts.StatsCallback,
		logStats:       opts.LogStats,
		headless:       opts.Headless,
		stepsPerUpdate: max(opts.StepsPerUpdate, 1),
		showTree:       true,
		showProbe:      true,
	}

	d := cfg.Derived
	cc := cfg.Camera
	g.camera = camera.New(
		float64(cfg.Screen.Width), float64(cfg.Screen.Height),
		d.WorldCenter,
		degToRad(cc.Yaw), degToRad(cc.Pitch), cc.Distance,
		degToRad(cc.FOV), cc.Near, cc.Far,
	)
	g.mouseX = float64(cfg.Screen.Width) / 2
	g.mouseY = float64(cfg.Screen.Height) / 2

	// Telemetry
	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	g.collector = telemetry.NewCollector(statsWindow, d.DT32)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
	}
	g.outputManager = om
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	g.index = g.newIndex(cfg.Index.Capacity, cfg.Index.MaxDepth)
	g.panelCapacity = float32(g.index.Capacity())
	g.panelMaxDepth = float32(g.index.MaxDepth())

	g.spawnInitialPopulation()

	slog.Info("viewer initialized",
		"seed", opts.Seed,
		"entities", g.index.Len(),
		"capacity", g.index.Capacity(),
		"max_depth", g.index.MaxDepth(),
	)
	return g
}

// Update handles input and runs simulation steps unless paused.
func (g *Game) Update() {
	g.handleInput()

	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// UpdateHeadless runs simulation steps without input or rendering.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// simulationStep runs a single tick.
func (g *Game) simulationStep() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseMove)
	g.moveBoxes()

	g.perfCollector.StartPhase(telemetry.PhaseUpdate)
	g.updateIndex()

	g.perfCollector.StartPhase(telemetry.PhaseRebalance)
	g.tasks.RunPending()

	g.runQueries()

	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// Index returns the spatial index.
func (g *Game) Index() *octree.Index {
	return g.index
}

// EntityCount returns the number of live boxes.
func (g *Game) EntityCount() int {
	return len(g.entries)
}

// Camera returns the orbit camera.
func (g *Game) Camera() *camera.Camera {
	return g.camera
}

// Unload releases the index and output files.
func (g *Game) Unload() {
	g.index.Close()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}

func radToDeg(r float64) float64 {
	return r * 180 / math.Pi
}
