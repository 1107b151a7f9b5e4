package components

import "gonum.org/v1/gonum/spatial/r3"

// BoxSpec describes a box to spawn.
type BoxSpec struct {
	Position r3.Vec
	Size     r3.Vec // Full edge lengths
	Velocity r3.Vec
	Axis     r3.Vec
	Spin     float64
}

// FromSpec returns the components for a new box entity.
func FromSpec(id uint64, s BoxSpec) (Body, Transform, Motion, Geometry) {
	return Body{ID: id},
		Transform{Position: s.Position, Axis: s.Axis},
		Motion{Velocity: s.Velocity, Spin: s.Spin},
		Geometry{HalfExtents: r3.Scale(0.5, s.Size)}
}
