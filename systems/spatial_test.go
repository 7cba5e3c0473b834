package systems

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// ---------- Bookkeeping ----------

func TestSpatialIndexInvariantErrors(t *testing.T) {
	w := ecs.NewWorld()
	e := ecs.NewMap1[components.Position](w).NewEntity(&components.Position{})
	idx := NewSpatialIndex(100, 100, 10)

	if err := idx.Remove(e); !IsInvariant(err) {
		t.Errorf("Remove absent = %v, want invariant error", err)
	}
	if err := idx.Update(e, components.Position{}); !IsInvariant(err) {
		t.Errorf("Update absent = %v, want invariant error", err)
	}
	if err := idx.Insert(e, components.Position{X: 5, Y: 5}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := idx.Insert(e, components.Position{X: 5, Y: 5}); !IsInvariant(err) {
		t.Errorf("duplicate Insert = %v, want invariant error", err)
	}
	if idx.Len() != 1 {
		t.Errorf("Len = %d, want 1", idx.Len())
	}
}

func TestSpatialIndexEmpty(t *testing.T) {
	idx := NewSpatialIndex(100, 100, 10)
	if _, ok := idx.Nearest(components.Position{X: 50, Y: 50}); ok {
		t.Error("Nearest on empty index returned a result")
	}
	if got := idx.WithinRadius(components.Position{X: 50, Y: 50}, 30); len(got) != 0 {
		t.Errorf("WithinRadius on empty index = %v", got)
	}
}

func TestSpatialIndexExcludesSelf(t *testing.T) {
	w := ecs.NewWorld()
	m := ecs.NewMap1[components.Position](w)
	self := m.NewEntity(&components.Position{X: 10, Y: 10})
	other := m.NewEntity(&components.Position{X: 90, Y: 90})

	idx := NewSpatialIndex(100, 100, 10)
	_ = idx.Insert(self, components.Position{X: 10, Y: 10})

	if _, ok := idx.NearestExcluding(components.Position{X: 10, Y: 10}, self); ok {
		t.Error("only self indexed, want no result")
	}
	_ = idx.Insert(other, components.Position{X: 90, Y: 90})
	if got, _ := idx.NearestExcluding(components.Position{X: 10, Y: 10}, self); got != other {
		t.Errorf("NearestExcluding = %v, want %v", got, other)
	}
}

func TestSpatialIndexTieBreaksOnID(t *testing.T) {
	w := ecs.NewWorld()
	m := ecs.NewMap1[components.Position](w)
	a := m.NewEntity(&components.Position{})
	b := m.NewEntity(&components.Position{})

	idx := NewSpatialIndex(100, 100, 10)
	// Insert the higher ID first so insertion order cannot decide.
	_ = idx.Insert(b, components.Position{X: 40, Y: 50})
	_ = idx.Insert(a, components.Position{X: 60, Y: 50})

	if got, _ := idx.Nearest(components.Position{X: 50, Y: 50}); got != a {
		t.Errorf("Nearest = %v, want lowest ID %v", got, a)
	}
}

// ---------- Consistency against brute force ----------

func TestSpatialIndexMatchesBruteForce(t *testing.T) {
	const size = 500
	rng := rand.New(rand.NewSource(42))
	w := ecs.NewWorld()
	m := ecs.NewMap1[components.Position](w)
	idx := NewSpatialIndex(size, size, 16)
	truth := map[ecs.Entity]components.Position{}

	randPos := func() components.Position {
		return components.Position{X: rng.Float32() * size, Y: rng.Float32() * size}
	}
	randKey := func() ecs.Entity {
		keys := make([]ecs.Entity, 0, len(truth))
		for e := range truth {
			keys = append(keys, e)
		}
		slices.SortFunc(keys, func(a, b ecs.Entity) int { return int(a.ID()) - int(b.ID()) })
		return keys[rng.Intn(len(keys))]
	}

	for step := 0; step < 3000; step++ {
		switch op := rng.Intn(10); {
		case op < 4 || len(truth) == 0:
			pos := randPos()
			e := m.NewEntity(&pos)
			if err := idx.Insert(e, pos); err != nil {
				t.Fatalf("step %d: Insert: %v", step, err)
			}
			truth[e] = pos
		case op < 8:
			e, pos := randKey(), randPos()
			if err := idx.Update(e, pos); err != nil {
				t.Fatalf("step %d: Update: %v", step, err)
			}
			truth[e] = pos
		default:
			e := randKey()
			if err := idx.Remove(e); err != nil {
				t.Fatalf("step %d: Remove: %v", step, err)
			}
			delete(truth, e)
		}

		if step%25 != 0 {
			continue
		}
		q := randPos()
		radius := rng.Float32() * 80

		if idx.Len() != len(truth) {
			t.Fatalf("step %d: Len = %d, want %d", step, idx.Len(), len(truth))
		}
		want, wantOK := bruteNearest(truth, q)
		got, ok := idx.Nearest(q)
		if ok != wantOK || got != want {
			t.Fatalf("step %d: Nearest(%v) = %v,%v want %v,%v", step, q, got, ok, want, wantOK)
		}
		gotR := idx.WithinRadius(q, radius)
		wantR := bruteWithin(truth, q, radius)
		if !slices.Equal(gotR, wantR) {
			t.Fatalf("step %d: WithinRadius = %v, want %v", step, gotR, wantR)
		}
	}
}

func bruteNearest(truth map[ecs.Entity]components.Position, q components.Position) (ecs.Entity, bool) {
	var best ecs.Entity
	bestD := float32(-1)
	for e, p := range truth {
		d := q.DistSq(p)
		if bestD < 0 || d < bestD || (d == bestD && e.ID() < best.ID()) {
			best, bestD = e, d
		}
	}
	return best, bestD >= 0
}

func bruteWithin(truth map[ecs.Entity]components.Position, q components.Position, r float32) []ecs.Entity {
	var found []Neighbor
	for e, p := range truth {
		if d := q.DistSq(p); d < r*r {
			found = append(found, Neighbor{E: e, DistSq: d})
		}
	}
	slices.SortFunc(found, compareNeighbors)
	result := make([]ecs.Entity, len(found))
	for i, n := range found {
		result[i] = n.E
	}
	return result
}

// ---------- Staleness ----------

func TestSpatialIndexStaleUntilResync(t *testing.T) {
	tw := newTestWorld(t)
	near := tw.herbivore(10, 0, 0, 50)
	far := tw.herbivore(50, 0, 0, 50)
	origin := components.Position{}

	tw.posMap.Get(near).X = 100

	if got, _ := tw.herbivores.Nearest(origin); got != near {
		t.Errorf("before resync Nearest = %v, want pre-movement answer %v", got, near)
	}
	tw.resync()
	if got, _ := tw.herbivores.Nearest(origin); got != far {
		t.Errorf("after resync Nearest = %v, want %v", got, far)
	}
}

func BenchmarkSpatialIndexNearest(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	w := ecs.NewWorld()
	m := ecs.NewMap1[components.Position](w)
	idx := NewSpatialIndex(4096, 4096, 64)
	for i := 0; i < 5000; i++ {
		pos := components.Position{X: rng.Float32() * 4096, Y: rng.Float32() * 4096}
		_ = idx.Insert(m.NewEntity(&pos), pos)
	}
	q := components.Position{X: 2048, Y: 2048}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Nearest(q)
	}
}
