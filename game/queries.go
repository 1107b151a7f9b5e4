package game

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/octree/components"
	"github.com/pthm-cable/octree/geom"
	"github.com/pthm-cable/octree/octree"
	"github.com/pthm-cable/octree/telemetry"
	"github.com/pthm-cable/octree/unique"
)

// runQueries issues one frustum, sphere and ray query and flags the hits.
func (g *Game) runQueries() {
	g.perfCollector.StartPhase(telemetry.PhaseQueryFrustum)
	g.frustumHits.Reset()
	g.index.QueryFrustumInto(g.camera.Frustum(), g.frustumHits)
	g.markHits(g.frustumHits, components.HitFrustum)

	g.perfCollector.StartPhase(telemetry.PhaseQuerySphere)
	g.probe = g.probeSphere()
	g.sphereHits.Reset()
	g.index.QueryRadiusInto(g.probe.Center, g.probe.Radius, g.sphereHits)
	g.markHits(g.sphereHits, components.HitSphere)

	g.perfCollector.StartPhase(telemetry.PhaseQueryRay)
	g.pick = g.camera.Ray(g.mouseX, g.mouseY)
	g.rayHits.Reset()
	g.index.QueryRayInto(g.pick, g.rayHits)
	g.markHits(g.rayHits, components.HitRay)
}

// probeSphere returns the sphere query for the current tick. Its centre follows a
// closed path through the world so the query sweeps every region.
func (g *Game) probeSphere() (s geom.Sphere) {
	d := g.cfg.Derived
	t := float64(g.tick) * g.cfg.Scene.DT
	reach := d.WorldExtent * 0.35

	s.Center = r3.Add(d.WorldCenter, r3.Vec{
		X: reach * math.Cos(t*0.31),
		Y: reach * 0.5 * math.Sin(t*0.53),
		Z: reach * math.Sin(t*0.31),
	})
	s.Radius = g.cfg.Queries.SphereRadius
	return s
}

func (g *Game) markHits(hits *unique.Array[octree.Entry], flag uint8) {
	hits.Each(func(oe octree.Entry) bool {
		if e, ok := oe.(*entry); ok {
			if body := g.bodyMap.Get(e.entity); body != nil {
				body.Hits |= flag
			}
		}
		return true
	})
}
