package game

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/octree/components"
	"github.com/pthm-cable/octree/debugdraw"
)

// Panel layout
const (
	panelWidth = 260
	panelPad   = 10
)

// Draw renders the scene and the control panel.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 18, G: 20, B: 26, A: 255})

	rl.BeginMode3D(g.camera3D())

	if g.showTree {
		g.overlay.Draw()
	} else {
		rl.DrawBoundingBox(debugdraw.BoundingBox(g.index.Bounds()), rl.DarkGray)
	}
	g.drawBoxes()
	g.drawSelection()
	if g.showProbe {
		rl.DrawSphereWires(vec3(g.probe.Center), float32(g.probe.Radius), 8, 12, rl.Orange)
	}

	rl.EndMode3D()

	g.drawHUD()
	g.drawPanel()
	g.drawInspector()

	rl.EndDrawing()
}

// camera3D converts the orbit camera to raylib's camera.
func (g *Game) camera3D() rl.Camera3D {
	c := g.camera
	return rl.Camera3D{
		Position:   vec3(c.Position()),
		Target:     vec3(c.Target),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       float32(g.cfg.Camera.FOV),
		Projection: rl.CameraPerspective,
	}
}

// drawBoxes draws the boxes returned by the frustum query.
func (g *Game) drawBoxes() {
	query := g.boxFilter.Query()
	for query.Next() {
		body, tr, _, geo := query.Get()
		if body.Hits&components.HitFrustum == 0 {
			continue
		}

		color := rl.Color{R: 150, G: 150, B: 160, A: 255}
		switch {
		case body.Hits&components.HitRay != 0:
			color = rl.Yellow
		case body.Hits&components.HitSphere != 0:
			color = rl.Orange
		}

		rl.PushMatrix()
		rl.Translatef(float32(tr.Position.X), float32(tr.Position.Y), float32(tr.Position.Z))
		if tr.Axis != (r3.Vec{}) {
			rl.Rotatef(float32(radToDeg(tr.Angle)), float32(tr.Axis.X), float32(tr.Axis.Y), float32(tr.Axis.Z))
		}
		rl.DrawCubeWiresV(rl.Vector3{}, vec3(r3.Scale(2, geo.HalfExtents)), color)
		rl.PopMatrix()
	}
}

// drawSelection outlines the bounding cube of the selected box.
func (g *Game) drawSelection() {
	e, ok := g.selectedEntry()
	if !ok {
		return
	}
	cube := e.LocalBounds().BoundingCube().Transform(e.WorldTransform())
	rl.DrawBoundingBox(debugdraw.BoundingBox(cube), rl.SkyBlue)
}

// drawInspector draws the selected box's components.
func (g *Game) drawInspector() {
	g.refreshInspector()
	if e, ok := g.selectedEntry(); ok {
		g.inspector.Draw(fmt.Sprintf("Box #%d", e.id))
	}
}

// drawHUD draws tick and query counters.
func (g *Game) drawHUD() {
	stats := g.index.Stats()
	lines := []string{
		fmt.Sprintf("Tick: %d  FPS: %d  Steps: %dx [</>]", g.tick, rl.GetFPS(), g.stepsPerUpdate),
		fmt.Sprintf("Entries: %d  Blocks: %d  Leaves: %d  Depth: %d", stats.Entries, stats.Blocks, stats.Leaves, stats.Deepest),
		fmt.Sprintf("Frustum: %d  Sphere: %d  Ray: %d", g.frustumHits.Len(), g.sphereHits.Len(), g.rayHits.Len()),
	}
	for i, line := range lines {
		rl.DrawText(line, 10, int32(10+i*22), 18, rl.RayWhite)
	}
	if g.paused {
		rl.DrawText("PAUSED", 10, int32(10+len(lines)*22), 18, rl.Yellow)
	}
}

// drawPanel draws the index controls.
func (g *Game) drawPanel() {
	x := float32(rl.GetScreenWidth()) - panelWidth - panelPad
	y := float32(panelPad)
	w := float32(panelWidth - 2*panelPad)

	rl.DrawRectangle(int32(x-panelPad), 0, panelWidth+panelPad, 250, rl.Fade(rl.Black, 0.6))

	rl.DrawText("Index", int32(x), int32(y), 20, rl.RayWhite)
	y += 30

	rl.DrawText(fmt.Sprintf("Capacity: %d", g.pendingCapacity()), int32(x), int32(y), 14, rl.LightGray)
	y += 18
	g.panelCapacity = gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: w, Height: 18}, "", "", g.panelCapacity, 1, 256)
	y += 28

	rl.DrawText(fmt.Sprintf("Max depth: %d", g.pendingMaxDepth()), int32(x), int32(y), 14, rl.LightGray)
	y += 18
	g.panelMaxDepth = gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: w, Height: 18}, "", "", g.panelMaxDepth, 1, 8)
	y += 30

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 120, Height: 26}, "Rebuild") {
		g.Rebuild(g.pendingCapacity(), g.pendingMaxDepth())
	}
	y += 36

	g.showTree = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Leaves [T]", g.showTree)
	y += 24
	g.showEmpty = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Empty leaves [E]", g.showEmpty)
	g.overlay.ShowEmpty = g.showEmpty
	y += 24
	g.showProbe = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Sphere probe [P]", g.showProbe)
}

func vec3(v r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z))
}
