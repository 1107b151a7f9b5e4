package game

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/octree/inspector"
	"github.com/pthm-cable/octree/octree"
)

// pickBox returns the ray hit nearest the ray origin. Candidates from the ray query
// are confirmed against their own world cube.
func (g *Game) pickBox() (*entry, bool) {
	var best *entry
	bestDist := math.Inf(1)

	for _, oe := range g.rayHits.Items() {
		e, ok := oe.(*entry)
		if !ok {
			continue
		}
		cube := e.LocalBounds().BoundingCube().Transform(e.WorldTransform())
		if !g.pick.IntersectsBox(cube) {
			continue
		}
		if d := r3.Norm(r3.Sub(cube.Center(), g.pick.Origin)); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, best != nil
}

// residency returns the number of leaves holding e and the deepest of them.
func (g *Game) residency(e *entry) (leaves, deepest int) {
	g.index.Walk(func(b *octree.Block) bool {
		if b.IsLeaf() && b.Contains(e) {
			leaves++
			deepest = max(deepest, b.Depth())
		}
		return true
	})
	return leaves, deepest
}

// selectedEntry returns the inspected box if it is still alive.
func (g *Game) selectedEntry() (*entry, bool) {
	ent, ok := g.inspector.Selected()
	if !ok || !g.world.Alive(ent) {
		return nil, false
	}
	e, ok := g.entries[g.bodyMap.Get(ent).ID]
	return e, ok
}

// refreshInspector rebuilds the inspector sections for the selected box.
func (g *Game) refreshInspector() {
	e, ok := g.selectedEntry()
	if !ok {
		g.inspector.Deselect()
		return
	}

	g.inspector.Reset()
	g.inspector.Add("Body", g.bodyMap.Get(e.entity))
	g.inspector.Add("Transform", g.transformMap.Get(e.entity))
	g.inspector.Add("Motion", g.motionMap.Get(e.entity))
	g.inspector.Add("Geometry", g.geometryMap.Get(e.entity))

	leaves, deepest := g.residency(e)
	g.inspector.AddFields("Index",
		inspector.Field{Name: "Leaves", Value: leaves, Widget: inspector.WidgetLabel},
		inspector.Field{Name: "Depth", Value: deepest, Widget: inspector.WidgetLabel},
	)
}
