package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func newTestCamera() *Camera {
	return New(1280, 720, r3.Vec{}, 0, 0, 100, math.Pi/3, 0.5, 1000)
}

func near(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < 1e-9
}

func TestPosition(t *testing.T) {
	tests := []struct {
		name       string
		yaw, pitch float64
		want       r3.Vec
	}{
		{"front", 0, 0, r3.Vec{Z: 100}},
		{"side", math.Pi / 2, 0, r3.Vec{X: 100}},
		{"behind", math.Pi, 0, r3.Vec{Z: -100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := newTestCamera()
			cam.Yaw, cam.Pitch = tt.yaw, tt.pitch
			if got := cam.Position(); !near(got, tt.want) {
				t.Errorf("Position() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPitchIsClamped(t *testing.T) {
	cam := newTestCamera()
	cam.Orbit(0, 10)
	if cam.Pitch != maxPitch {
		t.Errorf("Pitch = %f, want %f", cam.Pitch, maxPitch)
	}
	cam.Orbit(0, -20)
	if cam.Pitch != -maxPitch {
		t.Errorf("Pitch = %f, want %f", cam.Pitch, -maxPitch)
	}
}

func TestCenterRayLooksAtTarget(t *testing.T) {
	cam := newTestCamera()
	cam.Orbit(0.7, 0.3)

	r := cam.Ray(cam.ViewportW/2, cam.ViewportH/2)
	if !near(r.Origin, cam.Position()) {
		t.Errorf("ray origin = %v, want camera position %v", r.Origin, cam.Position())
	}
	if !near(r.Direction, cam.Forward()) {
		t.Errorf("ray direction = %v, want %v", r.Direction, cam.Forward())
	}
}

func TestCornerRayDirection(t *testing.T) {
	cam := newTestCamera()

	// Looking down -Z with +X to the right and +Y up.
	r := cam.Ray(0, 0)
	if r.Direction.X >= 0 || r.Direction.Y <= 0 || r.Direction.Z >= 0 {
		t.Errorf("top-left ray direction = %v, want -X +Y -Z", r.Direction)
	}
	r = cam.Ray(cam.ViewportW, cam.ViewportH)
	if r.Direction.X <= 0 || r.Direction.Y >= 0 {
		t.Errorf("bottom-right ray direction = %v, want +X -Y", r.Direction)
	}
}

func TestFrustumContainsTarget(t *testing.T) {
	cam := newTestCamera()
	f := cam.Frustum()

	if !f.ContainsPoint(cam.Target) {
		t.Error("frustum should contain the target")
	}
	behind := r3.Add(cam.Position(), r3.Vec{Z: 10})
	if f.ContainsPoint(behind) {
		t.Error("frustum should not contain a point behind the camera")
	}
	beyond := r3.Vec{Z: -2000}
	if f.ContainsPoint(beyond) {
		t.Error("frustum should not contain a point past the far plane")
	}
}

func TestZoomClamp(t *testing.T) {
	cam := newTestCamera()

	cam.ZoomBy(0.0001)
	if cam.Distance != cam.MinDistance {
		t.Errorf("Distance = %f, want clamped to %f", cam.Distance, cam.MinDistance)
	}
	cam.ZoomBy(1e6)
	if cam.Distance != cam.MaxDistance {
		t.Errorf("Distance = %f, want clamped to %f", cam.Distance, cam.MaxDistance)
	}
}

func TestPanKeepsViewDirection(t *testing.T) {
	cam := newTestCamera()
	before := cam.Forward()

	cam.Pan(5, -3)
	if !near(cam.Forward(), before) {
		t.Errorf("Forward() = %v after pan, want %v", cam.Forward(), before)
	}
	if !near(cam.Target, r3.Vec{X: 5, Y: -3}) {
		t.Errorf("Target = %v, want (5, -3, 0)", cam.Target)
	}
}

func TestReset(t *testing.T) {
	cam := newTestCamera()
	cam.Orbit(1, 0.5)
	cam.Pan(10, 10)
	cam.ZoomBy(2)

	cam.Reset()

	if !near(cam.Position(), r3.Vec{Z: 100}) {
		t.Errorf("Position() = %v after reset, want (0, 0, 100)", cam.Position())
	}
}

func TestResizeChangesAspect(t *testing.T) {
	cam := newTestCamera()
	cam.Resize(800, 800)
	if cam.Aspect() != 1 {
		t.Errorf("Aspect() = %f, want 1", cam.Aspect())
	}
}
