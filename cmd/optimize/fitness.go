package main

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/octree/config"
	"github.com/pthm-cable/octree/game"
	"github.com/pthm-cable/octree/telemetry"
)

// restructureWeight converts one split or collapse into query-cost units.
// A restructure touches roughly eight blocks.
const restructureWeight = 8.0

// Result is the averaged outcome of one parameter setting over all seeds.
type Result struct {
	Capacity     int     `csv:"capacity"`
	MaxDepth     int     `csv:"max_depth"`
	Cost         float64 `csv:"cost"`
	Visited      float64 `csv:"visited"`      // Blocks visited per query
	Returned     float64 `csv:"returned"`     // Distinct entries returned per query
	Restructures float64 `csv:"restructures"` // Splits plus collapses per tick
	Blocks       float64 `csv:"blocks"`
	Deepest      float64 `csv:"deepest"`
	Straddle     float64 `csv:"straddle"`
}

// Evaluator runs headless workloads and scores index parameters (lower = better).
// Settings that round to the same integers are only run once.
type Evaluator struct {
	params  *ParamVector
	ticks   int32
	seeds   []int64
	base    *config.Config
	workers int

	mu    sync.Mutex
	cache map[[2]int]Result
}

// NewEvaluator creates a new evaluator. workers bounds concurrent seed runs.
func NewEvaluator(params *ParamVector, ticks int32, seeds []int64, base *config.Config, workers int) *Evaluator {
	return &Evaluator{
		params:  params,
		ticks:   ticks,
		seeds:   seeds,
		base:    base,
		workers: max(workers, 1),
		cache:   make(map[[2]int]Result),
	}
}

// Evaluate scores a raw parameter vector.
func (ev *Evaluator) Evaluate(ctx context.Context, x []float64) (Result, error) {
	cfg := *ev.base
	ev.params.ApplyToConfig(&cfg, x)
	key := [2]int{cfg.Index.Capacity, cfg.Index.MaxDepth}

	ev.mu.Lock()
	cached, ok := ev.cache[key]
	ev.mu.Unlock()
	if ok {
		return cached, nil
	}

	windows := make([]telemetry.WindowStats, len(ev.seeds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ev.workers)
	for i, seed := range ev.seeds {
		g.Go(func() error {
			w, err := ev.runSeed(ctx, &cfg, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			windows[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	r := ev.score(key, windows)
	ev.mu.Lock()
	ev.cache[key] = r
	ev.mu.Unlock()
	return r, nil
}

// runSeed runs one headless workload and returns its single stats window.
func (ev *Evaluator) runSeed(ctx context.Context, cfg *config.Config, seed int64) (telemetry.WindowStats, error) {
	var last telemetry.WindowStats
	g := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: float64(ev.ticks) * cfg.Scene.DT,
		StepsPerUpdate: 1,
		Config:         cfg,
		StatsCallback: func(s telemetry.WindowStats) {
			last = s
		},
	})
	defer g.Unload()

	for g.Tick() < ev.ticks {
		if g.Tick()%100 == 0 {
			if err := ctx.Err(); err != nil {
				return last, err
			}
		}
		g.UpdateHeadless()
	}
	return last, nil
}

// score averages the seed windows into a Result.
func (ev *Evaluator) score(key [2]int, windows []telemetry.WindowStats) Result {
	r := Result{Capacity: key[0], MaxDepth: key[1]}
	ticks := float64(ev.ticks)
	for _, w := range windows {
		r.Visited += (w.FrustumVisited + w.SphereVisited + w.RayVisited) / 3
		r.Returned += (w.FrustumResults + w.SphereResults + w.RayResults) / 3
		r.Restructures += float64(w.Splits+w.Collapses) / ticks
		r.Blocks += float64(w.Blocks)
		r.Deepest += float64(w.Deepest)
		r.Straddle += w.Straddle
	}

	n := float64(len(windows))
	r.Visited /= n
	r.Returned /= n
	r.Restructures /= n
	r.Blocks /= n
	r.Deepest /= n
	r.Straddle /= n
	r.Cost = r.Visited + r.Returned + restructureWeight*r.Restructures
	return r
}
