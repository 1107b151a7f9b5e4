package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sphere is a ball given by centre and radius.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// Ray is a half-line starting at Origin. Direction need not be normalised.
type Ray struct {
	Origin    r3.Vec
	Direction r3.Vec
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Direction))
}

// IntersectsBox reports whether the ray hits the box. A ray starting inside the box hits it;
// a box entirely behind the origin does not.
func (r Ray) IntersectsBox(b Box) bool {
	tmin, tmax := math.Inf(-1), math.Inf(1)

	axes := [3][4]float64{
		{r.Origin.X, r.Direction.X, b.Min.X, b.Max.X},
		{r.Origin.Y, r.Direction.Y, b.Min.Y, b.Max.Y},
		{r.Origin.Z, r.Direction.Z, b.Min.Z, b.Max.Z},
	}
	for _, a := range axes {
		o, d, lo, hi := a[0], a[1], a[2], a[3]
		if d == 0 {
			// Parallel to this slab: either always inside it or never.
			if o < lo || o > hi {
				return false
			}
			continue
		}
		t0, t1 := (lo-o)/d, (hi-o)/d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math.Max(tmin, t0)
		tmax = math.Min(tmax, t1)
		if tmin > tmax {
			return false
		}
	}
	return tmax >= 0
}

// Plane is the set of points p with Dot(Normal, p) + Constant == 0.
// Points on the side Normal points to have positive distance.
type Plane struct {
	Normal   r3.Vec
	Constant float64
}

// NewPlane returns the plane through point with the given normal.
func NewPlane(normal, point r3.Vec) Plane {
	n := r3.Unit(normal)
	return Plane{Normal: n, Constant: -r3.Dot(n, point)}
}

// Distance returns the signed distance from the plane to p.
func (pl Plane) Distance(p r3.Vec) float64 {
	return r3.Dot(pl.Normal, p) + pl.Constant
}

// Frustum is a convex volume bounded by six planes whose normals point inwards.
type Frustum struct {
	Planes [6]Plane
}

// IntersectsBox reports whether the box may overlap the frustum. For each plane the box
// corner furthest along the normal is tested; this never rejects a visible box but can
// accept a few near the frustum's edges.
func (f Frustum) IntersectsBox(b Box) bool {
	for _, pl := range f.Planes {
		p := r3.Vec{
			X: pick(pl.Normal.X > 0, b.Max.X, b.Min.X),
			Y: pick(pl.Normal.Y > 0, b.Max.Y, b.Min.Y),
			Z: pick(pl.Normal.Z > 0, b.Max.Z, b.Min.Z),
		}
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p is inside all six planes.
func (f Frustum) ContainsPoint(p r3.Vec) bool {
	for _, pl := range f.Planes {
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}

// NewPerspectiveFrustum builds the view volume of a perspective camera at eye looking at
// target. fovY is the vertical field of view in radians.
func NewPerspectiveFrustum(eye, target, up r3.Vec, fovY, aspect, near, far float64) Frustum {
	forward := r3.Unit(r3.Sub(target, eye))
	right := r3.Unit(r3.Cross(forward, up))
	camUp := r3.Cross(right, forward)

	halfV := math.Tan(fovY / 2)
	halfH := halfV * aspect

	return Frustum{Planes: [6]Plane{
		NewPlane(forward, r3.Add(eye, r3.Scale(near, forward))),
		NewPlane(r3.Scale(-1, forward), r3.Add(eye, r3.Scale(far, forward))),
		NewPlane(r3.Add(right, r3.Scale(halfH, forward)), eye),
		NewPlane(r3.Add(r3.Scale(-1, right), r3.Scale(halfH, forward)), eye),
		NewPlane(r3.Add(camUp, r3.Scale(halfV, forward)), eye),
		NewPlane(r3.Add(r3.Scale(-1, camUp), r3.Scale(halfV, forward)), eye),
	}}
}

// NewBoxFrustum returns the frustum whose volume is exactly the box.
func NewBoxFrustum(b Box) Frustum {
	return Frustum{Planes: [6]Plane{
		NewPlane(r3.Vec{X: 1}, b.Min),
		NewPlane(r3.Vec{X: -1}, b.Max),
		NewPlane(r3.Vec{Y: 1}, b.Min),
		NewPlane(r3.Vec{Y: -1}, b.Max),
		NewPlane(r3.Vec{Z: 1}, b.Min),
		NewPlane(r3.Vec{Z: -1}, b.Max),
	}}
}
