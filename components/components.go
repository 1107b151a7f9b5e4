// Package components defines ECS components for the octree viewer scene.
package components

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/octree/geom"
)

// Highlight flags set on a body by the per-tick queries.
const (
	HitFrustum uint8 = 1 << iota
	HitSphere
	HitRay
)

// Body identifies an entity to the spatial index.
type Body struct {
	ID   uint64 `inspect:"label"`                        // Index key; never reused within a run
	Hits uint8  `inspect:"flags,names:frustum|sphere|ray"` // Query highlight flags from the last tick
}

// Geometry is the entity's local-space box, centred on its origin.
type Geometry struct {
	HalfExtents r3.Vec `inspect:"vec"`
}

// Bounds returns the local-space box.
func (g Geometry) Bounds() geom.Box {
	return geom.Box{Min: r3.Scale(-1, g.HalfExtents), Max: g.HalfExtents}
}
