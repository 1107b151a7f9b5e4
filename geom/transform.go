package geom

import "gonum.org/v1/gonum/spatial/r3"

// Transform places a local-space object in the world: scale, then rotate, then translate.
// A zero Rotation is treated as the identity, as is a zero Scale.
type Transform struct {
	Position r3.Vec
	Rotation r3.Rotation
	Scale    r3.Vec
}

// Identity returns the transform that leaves points unchanged.
func Identity() Transform {
	return Transform{
		Rotation: r3.NewRotation(0, r3.Vec{Z: 1}),
		Scale:    r3.Vec{X: 1, Y: 1, Z: 1},
	}
}

// Translation returns a transform that only moves points by p.
func Translation(p r3.Vec) Transform {
	t := Identity()
	t.Position = p
	return t
}

// Apply maps a local-space point into world space.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	if t.Scale != (r3.Vec{}) {
		p = r3.Vec{X: p.X * t.Scale.X, Y: p.Y * t.Scale.Y, Z: p.Z * t.Scale.Z}
	}
	if t.Rotation != (r3.Rotation{}) {
		p = t.Rotation.Rotate(p)
	}
	return r3.Add(p, t.Position)
}
