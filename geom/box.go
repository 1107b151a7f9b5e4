// Package geom provides the 3D bounding volumes and intersection tests used by the octree.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max r3.Vec
}

// NewBox returns the box spanning the two corners, in any order.
func NewBox(a, b r3.Vec) Box {
	return Box{
		Min: r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)},
		Max: r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)},
	}
}

// Empty reports whether the box has a negative extent on any axis.
func (b Box) Empty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// Size returns the extent of the box along each axis.
func (b Box) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// Center returns the midpoint of the box.
func (b Box) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Intersects reports whether two boxes overlap. Touching faces count as overlap.
func (b Box) Intersects(o Box) bool {
	return !(o.Max.X < b.Min.X || o.Min.X > b.Max.X ||
		o.Max.Y < b.Min.Y || o.Min.Y > b.Max.Y ||
		o.Max.Z < b.Min.Z || o.Min.Z > b.Max.Z)
}

// ContainsPoint reports whether p lies inside or on the surface of the box.
func (b Box) ContainsPoint(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ContainsBox reports whether o lies entirely inside b.
func (b Box) ContainsBox(o Box) bool {
	return b.ContainsPoint(o.Min) && b.ContainsPoint(o.Max)
}

// ClampPoint returns the point of the box closest to p.
func (b Box) ClampPoint(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: math.Max(b.Min.X, math.Min(p.X, b.Max.X)),
		Y: math.Max(b.Min.Y, math.Min(p.Y, b.Max.Y)),
		Z: math.Max(b.Min.Z, math.Min(p.Z, b.Max.Z)),
	}
}

// IntersectsSphere reports whether the sphere touches the box.
func (b Box) IntersectsSphere(s Sphere) bool {
	d := r3.Sub(b.ClampPoint(s.Center), s.Center)
	return r3.Dot(d, d) <= s.Radius*s.Radius
}

// Corners returns the eight corner points of the box.
func (b Box) Corners() [8]r3.Vec {
	var c [8]r3.Vec
	for i := range c {
		c[i] = r3.Vec{
			X: pick(i&4 != 0, b.Max.X, b.Min.X),
			Y: pick(i&2 != 0, b.Max.Y, b.Min.Y),
			Z: pick(i&1 != 0, b.Max.Z, b.Min.Z),
		}
	}
	return c
}

// Octant returns one of the eight equal sub-boxes of b.
// Octants are numbered x-major: index = x*4 + y*2 + z, where 0 selects the lower half.
func (b Box) Octant(i int) Box {
	half := r3.Scale(0.5, b.Size())
	offset := r3.Vec{
		X: float64(i>>2&1) * half.X,
		Y: float64(i>>1&1) * half.Y,
		Z: float64(i&1) * half.Z,
	}
	min := r3.Add(b.Min, offset)
	return Box{Min: min, Max: r3.Add(min, half)}
}

// Octants returns all eight octants in index order.
func (b Box) Octants() [8]Box {
	var o [8]Box
	for i := range o {
		o[i] = b.Octant(i)
	}
	return o
}

// BoundingCube returns the cube centred at the origin whose edge equals the largest
// dimension of b. The result does not depend on how b is oriented, so it stays valid
// when the owning object rotates.
func (b Box) BoundingCube() Box {
	size := b.Size()
	h := math.Max(size.X, math.Max(size.Y, size.Z)) / 2
	return Box{
		Min: r3.Vec{X: -h, Y: -h, Z: -h},
		Max: r3.Vec{X: h, Y: h, Z: h},
	}
}

// Transform returns the axis-aligned box enclosing b after applying t to each corner.
func (b Box) Transform(t Transform) Box {
	corners := b.Corners()
	p := t.Apply(corners[0])
	out := Box{Min: p, Max: p}
	for _, c := range corners[1:] {
		out = out.expand(t.Apply(c))
	}
	return out
}

func (b Box) expand(p r3.Vec) Box {
	return Box{
		Min: r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
