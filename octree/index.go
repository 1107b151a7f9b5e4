// Package octree implements a dynamic eight-way spatial index over a bounded 3D volume.
//
// Entries are placed in every leaf their bounding cube touches. Leaves that grow past
// capacity and interior blocks that shrink to capacity are restructured by a deferred
// rebalance pass, so a burst of mutations costs at most one restructuring. Queries are
// exact at any time; an unbalanced tree is only slower to traverse.
//
// An Index is not safe for concurrent use.
package octree

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/octree/geom"
	"github.com/pthm-cable/octree/unique"
)

// Index owns the eight top-level blocks spanning the world volume.
type Index struct {
	blocks      []*Block
	bounds      geom.Box
	capacity    int
	maxDepth    int
	descendants int

	// selection is reused by every query and returned to the caller.
	selection *unique.Array[Entry]
	// cubes caches each entry's local bounding cube by ID.
	cubes map[uint64]geom.Box

	dirty     bool
	scheduler Scheduler
	queue     *TaskQueue // set when no scheduler was supplied

	observer Observer
	metrics  MetricsCollector
	logger   *slog.Logger

	visits int
	passes int
}

// New creates an empty index. Call Initialize before inserting entries.
func New(opts ...Option) *Index {
	o := options{
		capacity: DefaultCapacity,
		maxDepth: DefaultMaxDepth,
		metrics:  NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	idx := &Index{
		capacity:  o.capacity,
		maxDepth:  o.maxDepth,
		selection: unique.New[Entry](o.capacity),
		cubes:     make(map[uint64]geom.Box),
		scheduler: o.scheduler,
		observer:  o.observer,
		metrics:   o.metrics,
		logger:    o.logger,
	}
	if idx.scheduler == nil {
		idx.queue = &TaskQueue{}
		idx.scheduler = idx.queue
	}
	return idx
}

// Initialize builds the eight depth-1 blocks covering the box between worldMin and
// worldMax and inserts entries into them. Any previous tree is discarded.
func (idx *Index) Initialize(worldMin, worldMax r3.Vec, entries []Entry) {
	idx.Close()

	idx.bounds = geom.NewBox(worldMin, worldMax)
	blocks, placed := createBlocks(idx.bounds, entries, idx.capacity, 0, idx.maxDepth, idx)
	idx.blocks = blocks[:]
	idx.descendants = placed

	for _, b := range idx.blocks {
		idx.attach(b)
	}
}

// Close detaches every block from the observer and empties the index.
func (idx *Index) Close() {
	for _, b := range idx.blocks {
		b.discard()
	}
	idx.blocks = nil
	idx.descendants = 0
	idx.dirty = false
	clear(idx.cubes)
}

// Bounds returns the world volume given to Initialize.
func (idx *Index) Bounds() geom.Box { return idx.bounds }

// Capacity returns the per-leaf split threshold.
func (idx *Index) Capacity() int { return idx.capacity }

// MaxDepth returns the deepest level blocks may be split to.
func (idx *Index) MaxDepth() int { return idx.maxDepth }

// Blocks returns the top-level blocks.
func (idx *Index) Blocks() []*Block { return idx.blocks }

// Len returns the number of distinct entries resident in at least one leaf.
func (idx *Index) Len() int { return idx.descendants }

// Dirty reports whether a rebalance pass is pending.
func (idx *Index) Dirty() bool { return idx.dirty }

// Insert places e in every leaf its bounding cube touches. Returns false if e landed
// nowhere new: it is outside the world volume or already indexed there.
func (idx *Index) Insert(e Entry) bool {
	added := idx.insert(e)
	idx.metrics.RecordInsert(added)
	return added
}

// Remove evicts e from the index and forgets its cached bounding cube.
// Returns false if e was not indexed.
func (idx *Index) Remove(e Entry) bool {
	removed := idx.remove(e)
	delete(idx.cubes, e.ID())
	idx.metrics.RecordRemove(removed)
	return removed
}

// Update re-places e after its transform changed. It is a remove followed by an insert.
// Returns whether e is indexed afterwards.
func (idx *Index) Update(e Entry) bool {
	idx.metrics.RecordRemove(idx.remove(e))
	return idx.Insert(e)
}

// Invalidate drops the cached bounding cube of e so the next placement recomputes it
// from LocalBounds. Call it when an entry's geometry changes, then Update.
func (idx *Index) Invalidate(e Entry) {
	delete(idx.cubes, e.ID())
}

func (idx *Index) insert(e Entry) bool {
	cube := idx.worldCube(e)
	var added, present bool
	for _, b := range idx.blocks {
		a, p := b.insert(e, cube)
		added = added || a
		present = present || p
	}
	if added && !present {
		idx.descendants++
	}
	return added
}

func (idx *Index) remove(e Entry) bool {
	removed := false
	for _, b := range idx.blocks {
		if b.remove(e) {
			removed = true
		}
	}
	if removed {
		idx.descendants--
	}
	return removed
}

// worldCube returns the entry's bounding cube placed by its current transform.
func (idx *Index) worldCube(e Entry) geom.Box {
	id := e.ID()
	cube, ok := idx.cubes[id]
	if !ok {
		cube = e.LocalBounds().BoundingCube()
		idx.cubes[id] = cube
	}
	return cube.Transform(e.WorldTransform())
}

// markDirty schedules a rebalance pass unless one is already pending.
func (idx *Index) markDirty() {
	if idx.dirty {
		return
	}
	idx.dirty = true
	idx.scheduler.Schedule(idx.rebalance)
}

// rebalance runs one pass over the whole tree if the index is dirty.
func (idx *Index) rebalance() {
	if !idx.dirty {
		return
	}
	idx.dirty = false
	idx.passes++

	start := time.Now()
	var n rebalanceCounts
	for _, b := range idx.blocks {
		b.rebalance(&n)
	}
	elapsed := time.Since(start)

	idx.metrics.RecordRebalance(n.splits, n.collapses, elapsed)
	idx.logger.Debug("octree rebalanced",
		"splits", n.splits,
		"collapses", n.collapses,
		"entries", idx.descendants,
		"again", idx.dirty,
		"us", elapsed.Microseconds(),
	)
}

// Flush runs pending rebalance passes until the tree is within its capacity bounds.
// Returns the number of passes run.
func (idx *Index) Flush() int {
	before := idx.passes
	if idx.queue != nil {
		idx.queue.RunPending()
	}
	for idx.dirty {
		idx.rebalance()
	}
	return idx.passes - before
}

// QueryFrustum returns the entries in leaves overlapping f. The result is reused by the
// next query on this index.
func (idx *Index) QueryFrustum(f geom.Frustum) *unique.Array[Entry] {
	idx.selection.Reset()
	return idx.QueryFrustumInto(f, idx.selection)
}

// QueryRadius returns the entries in leaves overlapping the sphere. The result is reused
// by the next query on this index.
func (idx *Index) QueryRadius(center r3.Vec, radius float64) *unique.Array[Entry] {
	idx.selection.Reset()
	return idx.QueryRadiusInto(center, radius, idx.selection)
}

// QueryRay returns the entries in leaves the ray passes through. The result is reused by
// the next query on this index.
func (idx *Index) QueryRay(r geom.Ray) *unique.Array[Entry] {
	idx.selection.Reset()
	return idx.QueryRayInto(r, idx.selection)
}

// QueryFrustumInto appends the frustum query results to dst and returns it.
func (idx *Index) QueryFrustumInto(f geom.Frustum, dst *unique.Array[Entry]) *unique.Array[Entry] {
	return idx.query(KindFrustum, dst, func(b *Block) { b.QueryFrustum(f, dst) })
}

// QueryRadiusInto appends the sphere query results to dst and returns it.
func (idx *Index) QueryRadiusInto(center r3.Vec, radius float64, dst *unique.Array[Entry]) *unique.Array[Entry] {
	s := geom.Sphere{Center: center, Radius: radius}
	return idx.query(KindSphere, dst, func(b *Block) { b.QuerySphere(s, dst) })
}

// QueryRayInto appends the ray query results to dst and returns it.
func (idx *Index) QueryRayInto(r geom.Ray, dst *unique.Array[Entry]) *unique.Array[Entry] {
	return idx.query(KindRay, dst, func(b *Block) { b.QueryRay(r, dst) })
}

func (idx *Index) query(kind QueryKind, dst *unique.Array[Entry], visit func(*Block)) *unique.Array[Entry] {
	start := time.Now()
	idx.visits = 0
	for _, b := range idx.blocks {
		visit(b)
	}
	idx.metrics.RecordQuery(kind, dst.Len(), idx.visits, time.Since(start))
	return dst
}

// LastQueryVisits returns how many blocks the most recent query tested.
func (idx *Index) LastQueryVisits() int { return idx.visits }

// Walk visits blocks depth first, parents before children. Returning false from fn
// skips the children of that block.
func (idx *Index) Walk(fn func(b *Block) bool) {
	for _, b := range idx.blocks {
		walk(b, fn)
	}
}

func walk(b *Block, fn func(*Block) bool) {
	if !fn(b) {
		return
	}
	for _, c := range b.Children() {
		walk(c, fn)
	}
}

// Stats summarises the shape of the tree.
type Stats struct {
	Blocks       int
	Leaves       int
	Interiors    int
	Deepest      int
	Entries      int // distinct indexed entries
	Resident     int // leaf slots in use; exceeds Entries when entries straddle leaves
	OverCapacity int // leaves holding more than capacity entries
}

// Stats walks the tree and returns its shape.
func (idx *Index) Stats() Stats {
	s := Stats{Entries: idx.descendants}
	idx.Walk(func(b *Block) bool {
		s.Blocks++
		s.Deepest = max(s.Deepest, b.depth)
		if !b.IsLeaf() {
			s.Interiors++
			return true
		}
		s.Leaves++
		n := len(b.Entries())
		s.Resident += n
		if n > b.capacity {
			s.OverCapacity++
		}
		return true
	})
	return s
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("blocks", s.Blocks),
		slog.Int("leaves", s.Leaves),
		slog.Int("interiors", s.Interiors),
		slog.Int("deepest", s.Deepest),
		slog.Int("entries", s.Entries),
		slog.Int("resident", s.Resident),
		slog.Int("over_capacity", s.OverCapacity),
	)
}
