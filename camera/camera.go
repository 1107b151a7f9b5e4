// Package camera provides a 3D orbit camera for viewport control and picking.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/octree/geom"
)

// maxPitch keeps the camera off the poles, where the up vector degenerates.
const maxPitch = math.Pi/2 - 0.01

// Up is the world up direction.
var Up = r3.Vec{Y: 1}

// Camera orbits a target point at a fixed distance.
type Camera struct {
	// Target is the point the camera looks at.
	Target r3.Vec

	// Yaw rotates around the up axis, Pitch tilts above the horizon. Radians.
	Yaw, Pitch float64

	// Distance from the target.
	Distance float64

	// Vertical field of view in radians and the clip distances.
	FOV, Near, Far float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	// Distance constraints
	MinDistance, MaxDistance float64

	home pose
}

// pose is the part of the camera restored by Reset.
type pose struct {
	Target     r3.Vec
	Yaw, Pitch float64
	Distance   float64
}

// New creates a camera looking at target from distance, with angles in radians.
func New(viewportW, viewportH float64, target r3.Vec, yaw, pitch, distance, fov, near, far float64) *Camera {
	c := &Camera{
		Target:      target,
		Yaw:         yaw,
		Pitch:       clamp(pitch, -maxPitch, maxPitch),
		Distance:    distance,
		FOV:         fov,
		Near:        near,
		Far:         far,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: near * 4,
		MaxDistance: far / 2,
	}
	c.home = pose{Target: c.Target, Yaw: c.Yaw, Pitch: c.Pitch, Distance: c.Distance}
	return c
}

// Position returns the camera's location in world coordinates.
func (c *Camera) Position() r3.Vec {
	cp := math.Cos(c.Pitch)
	offset := r3.Vec{
		X: cp * math.Sin(c.Yaw),
		Y: math.Sin(c.Pitch),
		Z: cp * math.Cos(c.Yaw),
	}
	return r3.Add(c.Target, r3.Scale(c.Distance, offset))
}

// Forward returns the unit view direction.
func (c *Camera) Forward() r3.Vec {
	return r3.Unit(r3.Sub(c.Target, c.Position()))
}

// Aspect returns the viewport width over height.
func (c *Camera) Aspect() float64 {
	if c.ViewportH == 0 {
		return 1
	}
	return c.ViewportW / c.ViewportH
}

// Frustum returns the camera's view volume.
func (c *Camera) Frustum() geom.Frustum {
	return geom.NewPerspectiveFrustum(c.Position(), c.Target, Up, c.FOV, c.Aspect(), c.Near, c.Far)
}

// Ray returns the picking ray through the screen point (sx, sy), with the origin at the
// top-left of the viewport.
func (c *Camera) Ray(sx, sy float64) geom.Ray {
	forward := c.Forward()
	right := r3.Unit(r3.Cross(forward, Up))
	camUp := r3.Cross(right, forward)

	halfV := math.Tan(c.FOV / 2)
	halfH := halfV * c.Aspect()
	nx := 2*sx/c.ViewportW - 1
	ny := 1 - 2*sy/c.ViewportH

	dir := r3.Add(forward, r3.Add(r3.Scale(nx*halfH, right), r3.Scale(ny*halfV, camUp)))
	return geom.Ray{Origin: c.Position(), Direction: r3.Unit(dir)}
}

// Orbit rotates the camera around the target. Pitch is kept off the poles.
func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw = math.Mod(c.Yaw+dyaw, 2*math.Pi)
	c.Pitch = clamp(c.Pitch+dpitch, -maxPitch, maxPitch)
}

// Pan moves the target in the camera's screen plane by world-unit deltas.
func (c *Camera) Pan(dx, dy float64) {
	forward := c.Forward()
	right := r3.Unit(r3.Cross(forward, Up))
	camUp := r3.Cross(right, forward)
	c.Target = r3.Add(c.Target, r3.Add(r3.Scale(dx, right), r3.Scale(dy, camUp)))
}

// ZoomBy scales the orbit distance by factor, clamped to min/max.
func (c *Camera) ZoomBy(factor float64) {
	c.Distance = clamp(c.Distance*factor, c.MinDistance, c.MaxDistance)
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float64) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset returns the camera to the pose it was created with.
func (c *Camera) Reset() {
	c.Target = c.home.Target
	c.Yaw = c.home.Yaw
	c.Pitch = c.home.Pitch
	c.Distance = c.home.Distance
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
