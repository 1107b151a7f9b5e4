package octree

import (
	"github.com/pthm-cable/octree/geom"
	"github.com/pthm-cable/octree/unique"
)

// Entry is an object placed in the index. The index keeps references only; it never
// mutates entries.
type Entry interface {
	// ID returns a stable identity, unique among live entries.
	ID() uint64
	// LocalBounds returns the entry's bounding box in its own coordinate space.
	LocalBounds() geom.Box
	// WorldTransform returns the entry's current placement in the world.
	WorldTransform() geom.Transform
}

// blockState is either *leaf or *interior, never both.
type blockState interface {
	isBlockState()
}

type leaf struct {
	entries *unique.Array[Entry]
}

type interior struct {
	children [8]*Block
	// descendants counts distinct entries resident anywhere below this block.
	descendants int
}

func (*leaf) isBlockState()     {}
func (*interior) isBlockState() {}

// Block is one node of the tree: a leaf holding entries, or an interior node whose
// eight children tile its box.
type Block struct {
	box      geom.Box
	capacity int
	depth    int
	maxDepth int
	state    blockState

	// root receives dirty notifications and owns the bounding-cube cache. Blocks never
	// use it to change the shape of the tree.
	root *Index
}

// createBlocks builds the eight children of box one level below depth and inserts every
// entry into each of them. Returns the blocks and the number of distinct entries that
// landed in at least one.
func createBlocks(box geom.Box, entries []Entry, capacity, depth, maxDepth int, root *Index) ([8]*Block, int) {
	var blocks [8]*Block
	for i := range blocks {
		blocks[i] = &Block{
			box:      box.Octant(i),
			capacity: capacity,
			depth:    depth + 1,
			maxDepth: maxDepth,
			state:    &leaf{entries: unique.New[Entry](capacity + 1)},
			root:     root,
		}
	}

	placed := 0
	for _, e := range entries {
		cube := root.worldCube(e)
		var added, present bool
		for _, b := range blocks {
			a, p := b.insert(e, cube)
			added = added || a
			present = present || p
		}
		if added && !present {
			placed++
		}
	}
	return blocks, placed
}

// Box returns the region covered by the block.
func (b *Block) Box() geom.Box { return b.box }

// Depth returns the block's level; the blocks created by Initialize are depth 1.
func (b *Block) Depth() int { return b.depth }

// Capacity returns the entry count above which the block is a split candidate.
func (b *Block) Capacity() int { return b.capacity }

// MaxDepth returns the deepest level the block's subtree may reach.
func (b *Block) MaxDepth() int { return b.maxDepth }

// IsLeaf reports whether the block holds entries directly.
func (b *Block) IsLeaf() bool {
	_, ok := b.state.(*leaf)
	return ok
}

// Children returns the eight children of an interior block, or nil for a leaf.
func (b *Block) Children() []*Block {
	if s, ok := b.state.(*interior); ok {
		return s.children[:]
	}
	return nil
}

// Entries returns the resident entries of a leaf, or nil for an interior block.
// The slice is invalidated by the next mutation of the index.
func (b *Block) Entries() []Entry {
	if s, ok := b.state.(*leaf); ok {
		return s.entries.Items()
	}
	return nil
}

// Len returns the number of entries resident in a leaf, 0 for an interior block.
func (b *Block) Len() int {
	if s, ok := b.state.(*leaf); ok {
		return s.entries.Len()
	}
	return 0
}

// Contains reports whether a leaf holds e. Always false for interior blocks.
func (b *Block) Contains(e Entry) bool {
	if s, ok := b.state.(*leaf); ok {
		return s.entries.Contains(e)
	}
	return false
}

// DescendantCount returns the number of distinct entries in the block's subtree.
func (b *Block) DescendantCount() int {
	switch s := b.state.(type) {
	case *leaf:
		return s.entries.Len()
	case *interior:
		return s.descendants
	}
	return 0
}

// insert places e, whose world-space bounding cube is cube, in every leaf it touches.
// added reports whether e became resident somewhere new; present whether it already
// was resident somewhere in the subtree.
func (b *Block) insert(e Entry, cube geom.Box) (added, present bool) {
	switch s := b.state.(type) {
	case *interior:
		for _, c := range s.children {
			a, p := c.insert(e, cube)
			added = added || a
			present = present || p
		}
		if added && !present {
			s.descendants++
		}
	case *leaf:
		if cube.Intersects(b.box) {
			added = s.entries.Add(e)
			present = !added
		} else {
			present = s.entries.Contains(e)
		}
		if s.entries.Len() > b.capacity && b.depth < b.maxDepth {
			b.root.markDirty()
		}
	}
	return added, present
}

// remove evicts e from every leaf of the subtree. Returns true if any leaf held it.
func (b *Block) remove(e Entry) bool {
	switch s := b.state.(type) {
	case *interior:
		removed := false
		for _, c := range s.children {
			if c.remove(e) {
				removed = true
			}
		}
		if removed {
			s.descendants--
		}
		if s.descendants <= b.capacity {
			b.root.markDirty()
		}
		return removed
	case *leaf:
		return s.entries.Remove(e)
	}
	return false
}

// split turns a leaf into an interior block, fanning its entries out to eight children.
// A leaf already at max depth stays a leaf and keeps its entries over capacity.
func (b *Block) split() {
	s, ok := b.state.(*leaf)
	if !ok {
		panic("octree: split called on an interior block")
	}
	if b.depth >= b.maxDepth {
		return
	}

	children, placed := createBlocks(b.box, s.entries.Items(), b.capacity, b.depth, b.maxDepth, b.root)
	s.entries.Reset()
	b.state = &interior{children: children, descendants: placed}

	for _, c := range children {
		b.root.attach(c)
	}
}

// collapse turns an interior block back into a leaf holding every entry of its subtree.
func (b *Block) collapse() {
	s, ok := b.state.(*interior)
	if !ok {
		panic("octree: collapse called on a leaf block")
	}

	merged := unique.New[Entry](max(s.descendants, b.capacity+1))
	for _, c := range s.children {
		c.gather(merged)
		c.discard()
	}
	b.state = &leaf{entries: merged}
}

// gather adds every entry of the subtree to dst.
func (b *Block) gather(dst *unique.Array[Entry]) {
	switch s := b.state.(type) {
	case *interior:
		for _, c := range s.children {
			c.gather(dst)
		}
	case *leaf:
		dst.Concat(s.entries.Items()...)
	}
}

// discard detaches the subtree from the observer, deepest blocks first.
func (b *Block) discard() {
	if s, ok := b.state.(*interior); ok {
		for _, c := range s.children {
			c.discard()
		}
	}
	b.root.detach(b)
}

type rebalanceCounts struct {
	splits    int
	collapses int
}

// rebalance splits over-capacity leaves and collapses under-capacity interior blocks.
// Children created by a split are left for the next pass.
func (b *Block) rebalance(n *rebalanceCounts) {
	switch s := b.state.(type) {
	case *leaf:
		if s.entries.Len() > b.capacity && b.depth < b.maxDepth {
			b.split()
			n.splits++
		}
	case *interior:
		if s.descendants <= b.capacity {
			b.collapse()
			n.collapses++
			return
		}
		for _, c := range s.children {
			c.rebalance(n)
		}
	}
}

// collect appends the entries of every leaf whose box passes hit.
func (b *Block) collect(hit func(geom.Box) bool, out *unique.Array[Entry]) {
	b.root.visits++
	if !hit(b.box) {
		return
	}
	switch s := b.state.(type) {
	case *interior:
		for _, c := range s.children {
			c.collect(hit, out)
		}
	case *leaf:
		out.Concat(s.entries.Items()...)
	}
}

// QueryFrustum appends to out the entries of every leaf overlapping f.
func (b *Block) QueryFrustum(f geom.Frustum, out *unique.Array[Entry]) {
	b.collect(f.IntersectsBox, out)
}

// QuerySphere appends to out the entries of every leaf overlapping s.
func (b *Block) QuerySphere(s geom.Sphere, out *unique.Array[Entry]) {
	b.collect(func(box geom.Box) bool { return box.IntersectsSphere(s) }, out)
}

// QueryRay appends to out the entries of every leaf the ray passes through.
func (b *Block) QueryRay(r geom.Ray, out *unique.Array[Entry]) {
	b.collect(r.IntersectsBox, out)
}
