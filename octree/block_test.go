package octree

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/octree/geom"
)

// mesh is a unit cube placed by translation.
type mesh struct {
	id   uint64
	pos  r3.Vec
	size float64
}

func newMesh(id uint64, x, y, z float64) *mesh {
	return &mesh{id: id, pos: r3.Vec{X: x, Y: y, Z: z}, size: 1}
}

func (m *mesh) ID() uint64 { return m.id }

func (m *mesh) LocalBounds() geom.Box {
	h := m.size / 2
	return geom.Box{Min: r3.Vec{X: -h, Y: -h, Z: -h}, Max: r3.Vec{X: h, Y: h, Z: h}}
}

func (m *mesh) WorldTransform() geom.Transform { return geom.Translation(m.pos) }

var (
	worldMin = r3.Vec{X: -10, Y: -10, Z: -10}
	worldMax = r3.Vec{X: 10, Y: 10, Z: 10}
)

func TestCreateBlocksTilesParent(t *testing.T) {
	idx := New()
	box := geom.NewBox(worldMin, worldMax)
	blocks, placed := createBlocks(box, nil, 4, 0, 3, idx)

	if placed != 0 {
		t.Errorf("placed = %d, want 0", placed)
	}
	for i, b := range blocks {
		if b.Depth() != 1 {
			t.Errorf("block %d depth = %d, want 1", i, b.Depth())
		}
		if !b.IsLeaf() {
			t.Errorf("block %d is not a leaf", i)
		}
		if b.Box() != box.Octant(i) {
			t.Errorf("block %d box = %v, want %v", i, b.Box(), box.Octant(i))
		}
	}
}

func TestBlockInsertOutsideBox(t *testing.T) {
	idx := New()
	idx.Initialize(worldMin, worldMax, nil)
	b := idx.Blocks()[7] // +x +y +z

	m := newMesh(1, -5, -5, -5)
	added, present := b.insert(m, idx.worldCube(m))
	if added || present {
		t.Errorf("insert = (%v, %v), want (false, false)", added, present)
	}
	if b.Contains(m) {
		t.Error("block should not contain entry outside its box")
	}
}

func TestBlockInsertTwiceIsPresent(t *testing.T) {
	idx := New()
	idx.Initialize(worldMin, worldMax, nil)
	b := idx.Blocks()[7]

	m := newMesh(1, 5, 5, 5)
	cube := idx.worldCube(m)
	if added, _ := b.insert(m, cube); !added {
		t.Fatal("first insert should add")
	}
	added, present := b.insert(m, cube)
	if added || !present {
		t.Errorf("second insert = (%v, %v), want (false, true)", added, present)
	}
	if n := b.DescendantCount(); n != 1 {
		t.Errorf("DescendantCount = %d, want 1", n)
	}
}

func TestSplitFansOutEntries(t *testing.T) {
	idx := New(WithCapacity(1), WithMaxDepth(3))
	idx.Initialize(worldMin, worldMax, nil)
	b := idx.Blocks()[0]

	a := newMesh(1, -8, -8, -8)
	c := newMesh(2, -2, -2, -2)
	b.insert(a, idx.worldCube(a))
	b.insert(c, idx.worldCube(c))

	b.split()

	if b.IsLeaf() {
		t.Fatal("block should be interior after split")
	}
	if n := b.DescendantCount(); n != 2 {
		t.Errorf("DescendantCount = %d, want 2", n)
	}
	if n := b.Len(); n != 0 {
		t.Errorf("interior Len = %d, want 0", n)
	}
	children := b.Children()
	if !children[0].Contains(a) {
		t.Error("entry near min corner should land in child 0")
	}
	if !children[7].Contains(c) {
		t.Error("entry near max corner should land in child 7")
	}
	for _, ch := range children {
		if ch.Depth() != 2 {
			t.Errorf("child depth = %d, want 2", ch.Depth())
		}
	}
}

func TestSplitAtMaxDepthIsNoop(t *testing.T) {
	idx := New(WithCapacity(1), WithMaxDepth(1))
	m1, m2 := newMesh(1, -5, -5, -5), newMesh(2, -6, -6, -6)
	idx.Initialize(worldMin, worldMax, []Entry{m1, m2})

	b := idx.Blocks()[0]
	b.split()
	if !b.IsLeaf() {
		t.Error("block at max depth should stay a leaf")
	}
	if len(b.Entries()) != 2 {
		t.Errorf("entries = %d, want 2", len(b.Entries()))
	}
	if idx.Dirty() {
		t.Error("over-capacity leaf at max depth should not mark the index dirty")
	}
}

func TestCollapseGathersWholeSubtree(t *testing.T) {
	idx := New(WithCapacity(1), WithMaxDepth(3))
	idx.Initialize(worldMin, worldMax, nil)
	b := idx.Blocks()[0]

	entries := []*mesh{newMesh(1, -9, -9, -9), newMesh(2, -8, -8, -8), newMesh(3, -2, -2, -2)}
	for _, m := range entries {
		b.insert(m, idx.worldCube(m))
	}
	b.split()
	b.Children()[0].split()

	b.collapse()

	if !b.IsLeaf() {
		t.Fatal("block should be a leaf after collapse")
	}
	for _, m := range entries {
		if !b.Contains(m) {
			t.Errorf("collapsed block missing entry %d", m.id)
		}
	}
	if n := b.Len(); n != len(entries) {
		t.Errorf("Len = %d, want %d", n, len(entries))
	}
}

func TestStructuralMisuse(t *testing.T) {
	tests := []struct {
		name string
		op   func(b *Block)
	}{
		{"split interior", func(b *Block) { b.split(); b.split() }},
		{"collapse leaf", func(b *Block) { b.collapse() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := New(WithMaxDepth(3))
			idx.Initialize(worldMin, worldMax, nil)
			defer func() {
				if recover() == nil {
					t.Errorf("%s should panic", tt.name)
				}
			}()
			tt.op(idx.Blocks()[0])
		})
	}
}

func TestBlockQueriesVisitOnlyOverlapping(t *testing.T) {
	idx := New(WithCapacity(1), WithMaxDepth(2))
	near, far := newMesh(1, -9, -9, -9), newMesh(2, -1, -1, -1)
	idx.Initialize(worldMin, worldMax, []Entry{near, far})
	idx.Flush()

	b := idx.Blocks()[0]
	if b.IsLeaf() {
		t.Fatal("block 0 should have split")
	}

	got := idx.QueryRadius(r3.Vec{X: -9, Y: -9, Z: -9}, 0.1)
	if !got.Contains(near) {
		t.Error("radius query should find the nearby entry")
	}
	if got.Contains(far) {
		t.Error("radius query should not reach the far entry")
	}
}
