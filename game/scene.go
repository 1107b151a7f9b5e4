package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/octree/components"
	"github.com/pthm-cable/octree/geom"
	"github.com/pthm-cable/octree/octree"
)

// entry adapts a box entity to octree.Entry. Bounds and transform are read from
// the ECS on demand, so the index always sees current component values.
type entry struct {
	id     uint64
	entity ecs.Entity
	g      *Game
}

var _ octree.Entry = (*entry)(nil)

func (e *entry) ID() uint64 { return e.id }

func (e *entry) LocalBounds() geom.Box {
	return e.g.geometryMap.Get(e.entity).Bounds()
}

func (e *entry) WorldTransform() geom.Transform {
	return e.g.transformMap.Get(e.entity).World()
}

// spawnInitialPopulation creates the starting boxes and builds the index over them.
func (g *Game) spawnInitialPopulation() {
	initial := make([]octree.Entry, 0, g.cfg.Scene.Entities)
	for i := 0; i < g.cfg.Scene.Entities; i++ {
		initial = append(initial, g.spawnBox())
	}
	d := g.cfg.Derived
	g.index.Initialize(d.WorldMin, d.WorldMax, initial)
}

// spawnBox creates a box entity at a random position. The caller indexes it.
func (g *Game) spawnBox() *entry {
	id := g.nextID
	g.nextID++

	body, tr, motion, geo := components.FromSpec(id, g.randomSpec())
	e := &entry{
		id:     id,
		entity: g.boxMapper.NewEntity(&body, &tr, &motion, &geo),
		g:      g,
	}
	g.entries[id] = e
	return e
}

// despawnBox removes a box from the index and the world.
func (g *Game) despawnBox(e *entry) {
	g.index.Remove(e)
	g.boxMapper.Remove(e.entity)
	delete(g.entries, e.id)
}

func (g *Game) randomSpec() components.BoxSpec {
	sc := g.cfg.Scene
	d := g.cfg.Derived
	return components.BoxSpec{
		Position: r3.Vec{
			X: lerp(d.WorldMin.X, d.WorldMax.X, g.rng.Float64()),
			Y: lerp(d.WorldMin.Y, d.WorldMax.Y, g.rng.Float64()),
			Z: lerp(d.WorldMin.Z, d.WorldMax.Z, g.rng.Float64()),
		},
		Size:     g.randomSize(),
		Velocity: r3.Scale(sc.Speed*g.rng.Float64(), g.randomUnit()),
		Axis:     g.randomUnit(),
		Spin:     (g.rng.Float64()*2 - 1) * sc.Spin,
	}
}

func (g *Game) randomSize() r3.Vec {
	sc := g.cfg.Scene
	return r3.Vec{
		X: lerp(sc.MinSize, sc.MaxSize, g.rng.Float64()),
		Y: lerp(sc.MinSize, sc.MaxSize, g.rng.Float64()),
		Z: lerp(sc.MinSize, sc.MaxSize, g.rng.Float64()),
	}
}

// randomUnit returns a uniformly distributed unit vector.
func (g *Game) randomUnit() r3.Vec {
	z := g.rng.Float64()*2 - 1
	phi := g.rng.Float64() * 2 * math.Pi
	r := math.Sqrt(1 - z*z)
	return r3.Vec{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

// moveBoxes integrates motion and picks boxes to resize or churn this tick.
// Index changes are applied afterwards in updateIndex.
func (g *Game) moveBoxes() {
	g.moved = g.moved[:0]
	g.resized = g.resized[:0]
	g.churned = g.churned[:0]

	sc := g.cfg.Scene
	bounds := g.index.Bounds()
	dt := sc.DT

	query := g.boxFilter.Query()
	for query.Next() {
		body, tr, motion, geo := query.Get()
		body.Hits = 0

		e, ok := g.entries[body.ID]
		if !ok {
			continue
		}

		if g.rng.Float64() < sc.Churn {
			g.churned = append(g.churned, e)
			continue
		}
		if g.rng.Float64() < sc.Resize {
			geo.HalfExtents = r3.Scale(0.5, g.randomSize())
			g.resized = append(g.resized, e)
		}

		motion.Step(tr, bounds, dt)
		g.moved = append(g.moved, e)
	}
}

// updateIndex re-places moved boxes and replaces churned ones.
func (g *Game) updateIndex() {
	for _, e := range g.resized {
		g.index.Invalidate(e)
	}
	for _, e := range g.moved {
		g.index.Update(e)
	}
	for _, e := range g.churned {
		g.despawnBox(e)
		g.index.Insert(g.spawnBox())
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
