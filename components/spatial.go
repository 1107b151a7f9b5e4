package components

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/octree/geom"
)

// Transform places an entity in the world.
type Transform struct {
	Position r3.Vec
	Axis     r3.Vec  `inspect:"vec"`   // Spin axis, unit length
	Angle    float64 `inspect:"angle"` // radians about Axis
}

// World returns the local-to-world transform.
func (t Transform) World() geom.Transform {
	w := geom.Translation(t.Position)
	if t.Axis != (r3.Vec{}) {
		w.Rotation = r3.NewRotation(t.Angle, t.Axis)
	}
	return w
}

// Motion is the per-second change applied to a Transform.
type Motion struct {
	Velocity r3.Vec  // world units per second
	Spin     float64 `inspect:"bar,max:3"` // radians per second
}

// Step advances t by dt seconds and reflects the velocity off the faces of bounds.
// The position is clamped inside bounds.
func (m *Motion) Step(t *Transform, bounds geom.Box, dt float64) {
	t.Position = r3.Add(t.Position, r3.Scale(dt, m.Velocity))
	t.Angle += m.Spin * dt

	p, v := &t.Position, &m.Velocity
	reflect(&p.X, &v.X, bounds.Min.X, bounds.Max.X)
	reflect(&p.Y, &v.Y, bounds.Min.Y, bounds.Max.Y)
	reflect(&p.Z, &v.Z, bounds.Min.Z, bounds.Max.Z)
}

func reflect(p, v *float64, lo, hi float64) {
	switch {
	case *p < lo:
		*p = lo
		if *v < 0 {
			*v = -*v
		}
	case *p > hi:
		*p = hi
		if *v > 0 {
			*v = -*v
		}
	}
}
