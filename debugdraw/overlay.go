// Package debugdraw renders octree structure for the interactive viewer.
package debugdraw

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/octree/geom"
	"github.com/pthm-cable/octree/octree"
)

// depthColors tint leaf wireframes by depth; deeper levels reuse the last colour.
var depthColors = []rl.Color{
	{R: 90, G: 90, B: 110, A: 255},
	{R: 70, G: 140, B: 200, A: 255},
	{R: 80, G: 200, B: 140, A: 255},
	{R: 230, G: 190, B: 70, A: 255},
	{R: 230, G: 110, B: 70, A: 255},
}

// Overlay tracks the blocks currently in an index. It implements octree.Observer.
type Overlay struct {
	blocks map[*octree.Block]struct{}

	attached int
	detached int

	ShowEmpty bool // Draw leaves with no entries
}

var _ octree.Observer = (*Overlay)(nil)

// NewOverlay creates an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{blocks: make(map[*octree.Block]struct{})}
}

// Attach implements octree.Observer.
func (o *Overlay) Attach(b *octree.Block) {
	o.blocks[b] = struct{}{}
	o.attached++
}

// Detach implements octree.Observer.
func (o *Overlay) Detach(b *octree.Block) {
	delete(o.blocks, b)
	o.detached++
}

// Len returns the number of tracked blocks.
func (o *Overlay) Len() int { return len(o.blocks) }

// Counts returns the total attach and detach notifications received.
func (o *Overlay) Counts() (attached, detached int) { return o.attached, o.detached }

// Leaves returns the tracked leaf blocks, optionally skipping empty ones.
func (o *Overlay) Leaves(includeEmpty bool) []*octree.Block {
	out := make([]*octree.Block, 0, len(o.blocks))
	for b := range o.blocks {
		if !b.IsLeaf() {
			continue
		}
		if !includeEmpty && len(b.Entries()) == 0 {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Draw renders leaf wireframes. Must be called inside rl.BeginMode3D.
func (o *Overlay) Draw() {
	for _, b := range o.Leaves(o.ShowEmpty) {
		c := ColorForDepth(b.Depth())
		if len(b.Entries()) > b.Capacity() {
			c = rl.Red
		}
		rl.DrawBoundingBox(BoundingBox(b.Box()), c)
	}
}

// ColorForDepth returns the wireframe colour for a block depth.
func ColorForDepth(depth int) rl.Color {
	if depth < 0 {
		depth = 0
	}
	if depth >= len(depthColors) {
		depth = len(depthColors) - 1
	}
	return depthColors[depth]
}

// BoundingBox converts a geom.Box to raylib's float32 box.
func BoundingBox(b geom.Box) rl.BoundingBox {
	return rl.NewBoundingBox(
		rl.NewVector3(float32(b.Min.X), float32(b.Min.Y), float32(b.Min.Z)),
		rl.NewVector3(float32(b.Max.X), float32(b.Max.Y), float32(b.Max.Z)),
	)
}
