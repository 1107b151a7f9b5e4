package game

import rl "github.com/gen2brain/raylib-go/raylib"

// Camera control rates
const (
	orbitSpeed = 0.005 // radians per pixel of mouse drag
	keyOrbit   = 0.02  // radians per tick while an orbit key is held
	panScale   = 0.002 // world units per pixel per unit of distance
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyT) {
		g.showTree = !g.showTree
	}
	if rl.IsKeyPressed(rl.KeyE) {
		g.showEmpty = !g.showEmpty
		g.overlay.ShowEmpty = g.showEmpty
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showProbe = !g.showProbe
	}

	mouse := rl.GetMousePosition()
	g.mouseX, g.mouseY = float64(mouse.X), float64(mouse.Y)

	g.handleCameraInput()
	g.handleSelection(mouse)
}

// handleSelection picks the box under the cursor on left click.
func (g *Game) handleSelection(mouse rl.Vector2) {
	if rl.IsKeyPressed(rl.KeyEscape) {
		g.inspector.Deselect()
		return
	}
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	if g.inspector.Contains(mouse.X, mouse.Y) || mouse.X > float32(rl.GetScreenWidth()-panelWidth-panelPad) {
		return
	}
	if e, ok := g.pickBox(); ok {
		g.inspector.Select(e.entity)
	} else {
		g.inspector.Deselect()
	}
}

// handleResize propagates window size changes to the camera and inspector.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
	g.camera.Resize(float64(w), float64(h))
	g.inspector.Resize(int32(w), int32(h))
}

// handleCameraInput processes orbit, pan and zoom controls.
func (g *Game) handleCameraInput() {
	c := g.camera

	// Right drag orbits, middle drag pans
	delta := rl.GetMouseDelta()
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		c.Orbit(-float64(delta.X)*orbitSpeed, float64(delta.Y)*orbitSpeed)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		s := panScale * c.Distance
		c.Pan(-float64(delta.X)*s, float64(delta.Y)*s)
	}

	if rl.IsKeyDown(rl.KeyLeft) {
		c.Orbit(-keyOrbit, 0)
	}
	if rl.IsKeyDown(rl.KeyRight) {
		c.Orbit(keyOrbit, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		c.Orbit(0, keyOrbit)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		c.Orbit(0, -keyOrbit)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		c.ZoomBy(1 - float64(wheel)*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		c.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		c.ZoomBy(1.25)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		c.Reset()
	}
}
