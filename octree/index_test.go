package octree

import (
	"bytes"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/octree/geom"
)

func TestInitializeCreatesEightBlocks(t *testing.T) {
	idx := New()
	idx.Initialize(worldMin, worldMax, nil)

	blocks := idx.Blocks()
	if len(blocks) != 8 {
		t.Fatalf("blocks = %d, want 8", len(blocks))
	}
	for i, b := range blocks {
		if b.Depth() != 1 || !b.IsLeaf() {
			t.Errorf("block %d: depth %d leaf %v, want depth 1 leaf", i, b.Depth(), b.IsLeaf())
		}
		if b.Capacity() != DefaultCapacity || b.MaxDepth() != DefaultMaxDepth {
			t.Errorf("block %d: capacity %d maxDepth %d", i, b.Capacity(), b.MaxDepth())
		}
	}
}

func TestOptionsFallBackToDefaults(t *testing.T) {
	idx := New(WithCapacity(0), WithMaxDepth(-1), WithMetrics(nil))
	if idx.Capacity() != DefaultCapacity {
		t.Errorf("Capacity() = %d, want %d", idx.Capacity(), DefaultCapacity)
	}
	if idx.MaxDepth() != DefaultMaxDepth {
		t.Errorf("MaxDepth() = %d, want %d", idx.MaxDepth(), DefaultMaxDepth)
	}
	idx.Initialize(worldMin, worldMax, nil)
	idx.Insert(newMesh(1, 0, 0, 0)) // must not panic on a nil collector
}

func TestAddAndRemoveAtOrigin(t *testing.T) {
	idx := New()
	m := newMesh(1, 0, 0, 0)
	idx.Initialize(worldMin, worldMax, []Entry{m})

	for i, b := range idx.Blocks() {
		if !b.Contains(m) {
			t.Errorf("block %d should contain entry at origin", i)
		}
	}
	if idx.Len() != 1 {
		t.Errorf("Len() = %d, want 1", idx.Len())
	}

	if !idx.Remove(m) {
		t.Fatal("Remove() = false, want true")
	}
	for i, b := range idx.Blocks() {
		if b.Contains(m) {
			t.Errorf("block %d still contains removed entry", i)
		}
	}
	if idx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", idx.Len())
	}
}

func TestMultipleEntries(t *testing.T) {
	idx := New()
	origin := newMesh(1, 0, 0, 0)
	corner := newMesh(2, 10, 10, 10)
	idx.Initialize(worldMin, worldMax, []Entry{origin, corner})

	holding := 0
	for _, b := range idx.Blocks() {
		if b.Contains(corner) {
			holding++
		}
	}
	if holding != 1 {
		t.Errorf("corner entry in %d blocks, want 1", holding)
	}
	if !idx.Blocks()[7].Contains(corner) {
		t.Error("corner entry should be in the +x+y+z block")
	}
	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}
}

func TestInsertOutsideWorld(t *testing.T) {
	idx := New()
	idx.Initialize(worldMin, worldMax, nil)

	if idx.Insert(newMesh(1, 50, 50, 50)) {
		t.Error("Insert() outside world = true, want false")
	}
	if idx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", idx.Len())
	}
}

func TestRemoveUnknown(t *testing.T) {
	idx := New()
	idx.Initialize(worldMin, worldMax, []Entry{newMesh(1, 1, 1, 1)})

	if idx.Remove(newMesh(2, 1, 1, 1)) {
		t.Error("Remove() of unknown entry = true, want false")
	}
	if idx.Len() != 1 {
		t.Errorf("Len() = %d, want 1", idx.Len())
	}
}

func TestSplitAndCollapse(t *testing.T) {
	idx := New(WithCapacity(1), WithMaxDepth(2))
	m1 := newMesh(1, -10, -10, -10)
	m2 := newMesh(2, -10, -10, -10)
	idx.Initialize(worldMin, worldMax, nil)

	idx.Insert(m1)
	idx.Insert(m2)

	b := idx.Blocks()[0]
	if !b.IsLeaf() {
		t.Fatal("split must wait for the deferred pass")
	}
	if !idx.Dirty() {
		t.Fatal("over-capacity insert should mark the index dirty")
	}

	if passes := idx.Flush(); passes != 1 {
		t.Errorf("Flush() = %d passes, want 1", passes)
	}
	if b.IsLeaf() {
		t.Fatal("block 0 should be interior after rebalance")
	}
	if n := len(b.Children()[0].Entries()); n != 2 {
		t.Errorf("child 0 entries = %d, want 2", n)
	}
	if b.DescendantCount() != 2 {
		t.Errorf("DescendantCount() = %d, want 2", b.DescendantCount())
	}

	idx.Remove(m1)
	if b.IsLeaf() {
		t.Fatal("collapse must wait for the deferred pass")
	}
	idx.Flush()

	if !b.IsLeaf() {
		t.Fatal("block 0 should be a leaf after collapse")
	}
	if got := b.Entries(); len(got) != 1 || got[0] != Entry(m2) {
		t.Errorf("entries = %v, want [m2]", got)
	}
}

func TestRebalanceIsDebounced(t *testing.T) {
	var pending []func()
	scheduled := 0
	sched := SchedulerFunc(func(task func()) {
		scheduled++
		pending = append(pending, task)
	})

	idx := New(WithCapacity(2), WithMaxDepth(4), WithScheduler(sched))
	idx.Initialize(worldMin, worldMax, nil)
	for i := range 20 {
		idx.Insert(newMesh(uint64(i+1), -7, -7, -7))
	}

	if scheduled != 1 {
		t.Errorf("scheduled = %d, want 1", scheduled)
	}

	for len(pending) > 0 {
		task := pending[0]
		pending = pending[1:]
		task()
	}
	if idx.Dirty() {
		t.Error("index still dirty after running all scheduled tasks")
	}
	if s := idx.Stats(); s.Deepest != 4 {
		t.Errorf("Deepest = %d, want 4", s.Deepest)
	}
}

func TestMaxDepthIsSoftLimit(t *testing.T) {
	idx := New(WithCapacity(2), WithMaxDepth(3))
	idx.Initialize(worldMin, worldMax, nil)
	for i := range 10 {
		idx.Insert(newMesh(uint64(i+1), -9, -9, -9))
	}
	idx.Flush()

	s := idx.Stats()
	if s.Deepest != 3 {
		t.Errorf("Deepest = %d, want 3", s.Deepest)
	}
	if s.OverCapacity != 1 {
		t.Errorf("OverCapacity = %d, want 1", s.OverCapacity)
	}
	if idx.Len() != 10 {
		t.Errorf("Len() = %d, want 10", idx.Len())
	}
}

func TestUpdateMovesEntry(t *testing.T) {
	idx := New()
	m := newMesh(1, -5, -5, -5)
	idx.Initialize(worldMin, worldMax, []Entry{m})

	m.pos = r3.Vec{X: 5, Y: 5, Z: 5}
	if !idx.Update(m) {
		t.Fatal("Update() = false, want true")
	}
	if idx.Blocks()[0].Contains(m) {
		t.Error("entry should have left block 0")
	}
	if !idx.Blocks()[7].Contains(m) {
		t.Error("entry should be in block 7")
	}
	if idx.Len() != 1 {
		t.Errorf("Len() = %d, want 1", idx.Len())
	}
}

func TestUpdateOutOfWorld(t *testing.T) {
	idx := New()
	m := newMesh(1, 5, 5, 5)
	idx.Initialize(worldMin, worldMax, []Entry{m})

	m.pos = r3.Vec{X: 100}
	if idx.Update(m) {
		t.Error("Update() outside world = true, want false")
	}
	if idx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", idx.Len())
	}
}

func TestInvalidateRecomputesCube(t *testing.T) {
	idx := New()
	m := newMesh(1, 3, 3, 3)
	idx.Initialize(worldMin, worldMax, []Entry{m})
	if idx.Blocks()[0].Contains(m) {
		t.Fatal("small entry should not reach block 0")
	}

	m.size = 8 // half-size 4 now reaches across the origin
	idx.Update(m)
	if idx.Blocks()[0].Contains(m) {
		t.Error("Update alone should reuse the cached cube")
	}

	idx.Invalidate(m)
	idx.Update(m)
	if !idx.Blocks()[0].Contains(m) {
		t.Error("entry should reach block 0 after Invalidate")
	}
}

func TestRotationDoesNotChangeCube(t *testing.T) {
	m := &rotatingMesh{mesh: mesh{id: 1, size: 2}}
	idx := New()
	idx.Initialize(worldMin, worldMax, nil)

	base := idx.worldCube(m)
	m.rot = r3.NewRotation(math.Pi/4, r3.Vec{Z: 1})
	rotated := idx.worldCube(m)

	// A rotated origin-centred cube grows by at most sqrt(3).
	if rotated.Size().X < base.Size().X-1e-9 {
		t.Errorf("rotated cube shrank: %v < %v", rotated.Size(), base.Size())
	}
	if rotated.Size().X > base.Size().X*math.Sqrt(3)+1e-9 {
		t.Errorf("rotated cube too large: %v", rotated.Size())
	}
}

type rotatingMesh struct {
	mesh
	rot r3.Rotation
}

func (m *rotatingMesh) WorldTransform() geom.Transform {
	return geom.Transform{Position: m.pos, Rotation: m.rot}
}

func TestQueries(t *testing.T) {
	idx := New(WithCapacity(2), WithMaxDepth(3))
	a := newMesh(1, -8, -8, -8)
	b := newMesh(2, 8, 8, 8)
	c := newMesh(3, 8, -8, 8)
	idx.Initialize(worldMin, worldMax, []Entry{a, b, c})
	idx.Flush()

	everything := geom.NewBoxFrustum(geom.NewBox(worldMin, worldMax))
	if n := idx.QueryFrustum(everything).Len(); n != 3 {
		t.Errorf("full frustum query = %d, want 3", n)
	}

	tests := []struct {
		name string
		run  func() []Entry
		want []Entry
	}{
		{"radius near a", func() []Entry { return idx.QueryRadius(a.pos, 1).Items() }, []Entry{a}},
		{"radius outside world", func() []Entry { return idx.QueryRadius(r3.Vec{X: 100}, 1).Items() }, nil},
		{"ray along x", func() []Entry {
			r := geom.Ray{Origin: r3.Vec{X: -20, Y: -8, Z: -8}, Direction: r3.Vec{X: 1}}
			return idx.QueryRay(r).Items()
		}, []Entry{a}},
		{"ray pointing away", func() []Entry {
			r := geom.Ray{Origin: r3.Vec{X: -20, Y: -20, Z: -20}, Direction: r3.Vec{X: -1}}
			return idx.QueryRay(r).Items()
		}, nil},
		{"frustum over +x half", func() []Entry {
			f := geom.NewBoxFrustum(geom.NewBox(r3.Vec{X: 1, Y: -10, Z: -10}, worldMax))
			return idx.QueryFrustum(f).Items()
		}, []Entry{b, c}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.run()
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for _, w := range tt.want {
				found := false
				for _, g := range got {
					if g == w {
						found = true
					}
				}
				if !found {
					t.Errorf("missing entry %d", w.ID())
				}
			}
		})
	}
}

func TestQueriesExactWhileDirty(t *testing.T) {
	idx := New(WithCapacity(1), WithMaxDepth(3))
	idx.Initialize(worldMin, worldMax, nil)
	entries := []*mesh{newMesh(1, -9, -9, -9), newMesh(2, -7, -7, -7), newMesh(3, -3, -3, -3)}
	for _, m := range entries {
		idx.Insert(m)
	}
	if !idx.Dirty() {
		t.Fatal("over-capacity leaf should leave the index dirty")
	}

	before := idx.QueryRadius(r3.Vec{X: -6, Y: -6, Z: -6}, 2.5).Len()
	idx.Flush()
	after := idx.QueryRadius(r3.Vec{X: -6, Y: -6, Z: -6}, 2.5).Len()

	if before != after {
		t.Errorf("dirty query = %d, clean query = %d", before, after)
	}
	if after != 1 {
		t.Errorf("radius query = %d, want 1", after)
	}
}

func TestQueryIntoAccumulates(t *testing.T) {
	idx := New()
	a, b := newMesh(1, -5, -5, -5), newMesh(2, 5, 5, 5)
	idx.Initialize(worldMin, worldMax, []Entry{a, b})

	dst := idx.QueryRadius(a.pos, 1)
	idx.QueryRadiusInto(b.pos, 1, dst)
	idx.QueryRadiusInto(a.pos, 1, dst)

	if dst.Len() != 2 {
		t.Errorf("Len() = %d, want 2", dst.Len())
	}
	if idx.LastQueryVisits() != 8 {
		t.Errorf("LastQueryVisits() = %d, want 8", idx.LastQueryVisits())
	}
}

// TestRandomWorkload checks placement and counts after mixed mutations.
func TestRandomWorkload(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	idx := New(WithCapacity(4), WithMaxDepth(4))
	idx.Initialize(worldMin, worldMax, nil)

	live := make(map[uint64]*mesh)
	coord := func() float64 { return rng.Float64()*20 - 10 }

	for i := range 2000 {
		switch op := rng.Intn(10); {
		case op < 5 || len(live) == 0:
			m := newMesh(uint64(i+1), coord(), coord(), coord())
			m.size = 0.2 + rng.Float64()*2
			idx.Insert(m)
			live[m.id] = m
		case op < 8:
			for _, m := range live {
				m.pos = r3.Vec{X: coord(), Y: coord(), Z: coord()}
				idx.Update(m)
				break
			}
		default:
			for id, m := range live {
				if !idx.Remove(m) {
					t.Fatalf("Remove(%d) = false for a live entry", id)
				}
				delete(live, id)
				break
			}
		}
		if i%100 == 0 {
			idx.Flush()
		}
	}
	idx.Flush()

	if idx.Len() != len(live) {
		t.Errorf("Len() = %d, want %d", idx.Len(), len(live))
	}
	if idx.Dirty() {
		t.Error("index dirty after Flush")
	}

	idx.Walk(func(b *Block) bool {
		if !b.IsLeaf() {
			if b.DescendantCount() <= b.Capacity() {
				t.Errorf("interior block at depth %d holds only %d entries", b.Depth(), b.DescendantCount())
			}
			return true
		}
		if len(b.Entries()) > b.Capacity() && b.Depth() < b.MaxDepth() {
			t.Errorf("leaf at depth %d over capacity: %d", b.Depth(), len(b.Entries()))
		}
		for _, e := range b.Entries() {
			if _, ok := live[e.ID()]; !ok {
				t.Errorf("leaf holds dead entry %d", e.ID())
			}
		}
		return true
	})

	// Every live entry is found by a query over its own cube.
	for _, m := range live {
		if !idx.QueryRadius(m.pos, 0).Contains(m) {
			t.Errorf("entry %d not found at its own position", m.id)
		}
	}
}

func TestCloseDetachesEverything(t *testing.T) {
	obs := &countingObserver{live: make(map[*Block]bool)}
	idx := New(WithCapacity(1), WithMaxDepth(3), WithObserver(obs))
	idx.Initialize(worldMin, worldMax, []Entry{newMesh(1, -9, -9, -9), newMesh(2, -8, -8, -8)})
	idx.Flush()

	if s := idx.Stats(); len(obs.live) != s.Blocks {
		t.Errorf("observer tracks %d blocks, tree has %d", len(obs.live), s.Blocks)
	}

	idx.Close()
	if len(obs.live) != 0 {
		t.Errorf("observer still tracks %d blocks after Close", len(obs.live))
	}
	if idx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", idx.Len())
	}
}

type countingObserver struct {
	live map[*Block]bool
}

func (o *countingObserver) Attach(b *Block) { o.live[b] = true }
func (o *countingObserver) Detach(b *Block) { delete(o.live, b) }

type panickingObserver struct{}

func (panickingObserver) Attach(*Block) { panic("attach boom") }
func (panickingObserver) Detach(*Block) { panic("detach boom") }

func TestObserverPanicIsContained(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	idx := New(WithCapacity(1), WithObserver(panickingObserver{}), WithLogger(logger))

	idx.Initialize(worldMin, worldMax, nil)
	idx.Insert(newMesh(1, -9, -9, -9))
	idx.Insert(newMesh(2, -9, -9, -9))
	idx.Flush()

	if idx.Blocks()[0].IsLeaf() {
		t.Error("split should complete despite the observer panic")
	}
	if !strings.Contains(buf.String(), "octree observer failed") {
		t.Error("observer panic was not logged")
	}
}

type recordingMetrics struct {
	NoopMetricsCollector
	inserts, queries, splits int
	kinds                    []QueryKind
}

func (m *recordingMetrics) RecordInsert(bool) { m.inserts++ }
func (m *recordingMetrics) RecordQuery(k QueryKind, _, _ int, _ time.Duration) {
	m.queries++
	m.kinds = append(m.kinds, k)
}
func (m *recordingMetrics) RecordRebalance(splits, _ int, _ time.Duration) { m.splits += splits }

func TestMetricsAreRecorded(t *testing.T) {
	rec := &recordingMetrics{}
	idx := New(WithCapacity(1), WithMetrics(rec))
	idx.Initialize(worldMin, worldMax, nil)

	idx.Insert(newMesh(1, -9, -9, -9))
	idx.Insert(newMesh(2, -9, -9, -9))
	idx.Flush()
	idx.QueryRadius(r3.Vec{}, 1)
	idx.QueryRay(geom.Ray{Direction: r3.Vec{X: 1}})

	if rec.inserts != 2 {
		t.Errorf("inserts = %d, want 2", rec.inserts)
	}
	if rec.splits != 1 {
		t.Errorf("splits = %d, want 1", rec.splits)
	}
	if rec.queries != 2 || rec.kinds[0] != KindSphere || rec.kinds[1] != KindRay {
		t.Errorf("queries = %d kinds = %v", rec.queries, rec.kinds)
	}
}

func TestStatsLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	idx := New()
	idx.Initialize(worldMin, worldMax, []Entry{newMesh(1, 0, 0, 0)})

	logger.Info("tree", "stats", idx.Stats())

	out := buf.String()
	for _, want := range []string{"stats.blocks=8", "stats.leaves=8", "stats.entries=1", "stats.resident=8"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
