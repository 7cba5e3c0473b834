package systems

import (
	"cmp"
	"math/rand"
	"slices"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

func herbReproduction(tw *testWorld, onInvalid InvariantHandler) *Reproduction[components.Herbivore] {
	return NewReproduction[components.Herbivore](tw.world, components.SpeciesHerbivore, tw.herbivores, MateParams{
		Threshold:    120,
		Cost:         50,
		SearchRadius: 500,
		Radius:       40,
		MatingTime:   10,
	}, onInvalid)
}

// ---------- Scenarios ----------

func TestReproductionPairsIdleNeighbors(t *testing.T) {
	tw := newTestWorld(t)
	a := tw.herbivore(0, 0, 20, 200)
	b := tw.herbivore(100, 0, 20, 200)

	repro := herbReproduction(tw, nil)
	stats := repro.Update(1, tw.cmds)
	if stats.Paired != 1 {
		t.Fatalf("stats = %+v, want one pair", stats)
	}

	for _, tc := range []struct{ self, mate ecs.Entity }{{a, b}, {b, a}} {
		agent := tw.agentMap.Get(tc.self)
		if agent.State != components.StateSearchingMate {
			t.Errorf("state = %v, want SearchingMate", agent.State)
		}
		if got, _ := agent.Mate(); got != tc.mate {
			t.Errorf("mate = %v, want %v", got, tc.mate)
		}
	}
	if err := repro.CheckSymmetry(); err != nil {
		t.Errorf("CheckSymmetry: %v", err)
	}

	// Out of mating range: they walk toward each other.
	if dir := tw.moveMap.Get(a).Dir; dir[0] <= 0 {
		t.Errorf("a not heading toward b: %v", dir)
	}
	if dir := tw.moveMap.Get(b).Dir; dir[0] >= 0 {
		t.Errorf("b not heading toward a: %v", dir)
	}
}

func TestReproductionFastPairMeetsInTheMiddle(t *testing.T) {
	tw := newTestWorld(t)
	a := tw.herbivore(100, 100, 10, 200)
	b := tw.herbivore(110, 100, 10, 200)

	// Mating radius smaller than one step: walking the full gap would
	// swap their places every tick.
	repro := NewReproduction[components.Herbivore](tw.world, components.SpeciesHerbivore, tw.herbivores, MateParams{
		Threshold:    120,
		Cost:         50,
		SearchRadius: 500,
		Radius:       5,
		MatingTime:   10,
	}, nil)
	movement := NewMovement(tw.world, 1000, 1000, 0, nil)

	mated := -1
	for tick := 0; tick < 20; tick++ {
		repro.Update(1, tw.cmds)
		if tw.agentMap.Get(a).State == components.StateMating {
			mated = tick
			break
		}
		movement.Update(1)
		tw.resync()
	}
	if mated < 0 {
		t.Fatalf("pair never started mating: a=%v b=%v", tw.agentMap.Get(a).State, tw.agentMap.Get(b).State)
	}
	if mated > 2 {
		t.Errorf("mating started on tick %d, want within 2", mated)
	}
	if got := tw.agentMap.Get(b).State; got != components.StateMating {
		t.Errorf("partner state = %v, want Mating", got)
	}
	pa, pb := *tw.posMap.Get(a), *tw.posMap.Get(b)
	if pa.X < 100 || pa.X > 105 || pb.X < 105 || pb.X > 110 {
		t.Errorf("partners crossed: a=%v b=%v", pa, pb)
	}
}

func TestReproductionIneligible(t *testing.T) {
	tests := []struct {
		name   string
		energy float32
		state  components.AgentState
		x      float32
	}{
		{"low energy", 100, components.StateIdle, 10},
		{"eating", 200, components.StateEating, 10},
		{"cooling", 200, components.StateAttackCooling, 10},
		{"too far", 200, components.StateIdle, 800},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := newTestWorld(t)
			tw.herbivore(0, 0, 20, 200)
			other := tw.herbivore(tt.x, 0, 20, tt.energy)
			tw.agentMap.Get(other).State = tt.state

			stats := herbReproduction(tw, nil).Update(1, tw.cmds)
			if stats.Paired != 0 {
				t.Errorf("paired with an ineligible partner: %+v", stats)
			}
		})
	}
}

func TestReproductionHunterCanBeProposedTo(t *testing.T) {
	tw := newTestWorld(t)
	a := tw.herbivore(0, 0, 20, 200)
	b := tw.herbivore(10, 0, 20, 200)
	grass := tw.producer(300, 300, 10)
	tw.agentMap.Get(b).ToHunting(grass)

	stats := herbReproduction(tw, nil).Update(1, tw.cmds)
	if stats.Paired != 1 {
		t.Fatalf("stats = %+v, want hunting partner to be paired", stats)
	}
	if got, _ := tw.agentMap.Get(b).Mate(); got != a {
		t.Errorf("hunter's mate = %v, want %v", got, a)
	}
}

func TestReproductionCostAndOffspring(t *testing.T) {
	tw := newTestWorld(t)
	a := tw.herbivore(0, 0, 20, 200)
	b := tw.herbivore(10, 0, 20, 200)
	repro := herbReproduction(tw, nil)

	// Pair and, already within mating radius, start mating.
	repro.Update(1, tw.cmds)
	for _, e := range []ecs.Entity{a, b} {
		if got := tw.agentMap.Get(e).State; got != components.StateMating {
			t.Fatalf("state = %v, want Mating", got)
		}
	}

	repro.Update(5, tw.cmds)
	if _, spawns := tw.flush(); len(spawns) != 0 {
		t.Fatalf("offspring before mating finished: %+v", spawns)
	}

	stats := repro.Update(5, tw.cmds)
	if stats.Completed != 1 {
		t.Fatalf("stats = %+v, want one completion", stats)
	}
	_, spawns := tw.flush()
	if len(spawns) != 1 {
		t.Fatalf("spawns = %+v, want exactly one", spawns)
	}
	child := spawns[0]
	if child.Pos != (components.Position{X: 5, Y: 0}) {
		t.Errorf("offspring at %v, want midpoint {5 0}", child.Pos)
	}
	if child.Species != components.SpeciesHerbivore {
		t.Errorf("offspring species = %v", child.Species)
	}
	wantParents := [2]uint32{tw.orgMap.Get(a).ID, tw.orgMap.Get(b).ID}
	if child.Parents != wantParents {
		t.Errorf("parents = %v, want %v", child.Parents, wantParents)
	}

	for _, e := range []ecs.Entity{a, b} {
		if got := tw.energyMap.Get(e).Value; got != 150 {
			t.Errorf("parent energy = %v, want 200 - cost 50", got)
		}
		if got := tw.agentMap.Get(e).State; got != components.StateIdle {
			t.Errorf("parent state = %v, want Idle", got)
		}
	}
}

func TestReproductionMateDied(t *testing.T) {
	tw := newTestWorld(t)
	a := tw.herbivore(0, 0, 20, 200)
	b := tw.herbivore(100, 0, 20, 200)
	repro := herbReproduction(tw, nil)
	repro.Update(1, tw.cmds)

	tw.cmds.Despawn(b, CauseStarved)
	tw.flush()

	stats := repro.Update(1, tw.cmds)
	if stats.Abandoned != 1 {
		t.Errorf("stats = %+v, want one abandoned", stats)
	}
	if got := tw.agentMap.Get(a).State; got != components.StateIdle {
		t.Errorf("survivor state = %v, want Idle", got)
	}
}

// ---------- Invariant policy ----------

// corruptTriangle builds a -> b, b <-> c: b's partner is not a.
func corruptTriangle(tw *testWorld) (a, b, c ecs.Entity) {
	a = tw.herbivore(0, 0, 20, 10)
	b = tw.herbivore(100, 0, 20, 10)
	c = tw.herbivore(200, 0, 20, 10)
	tw.agentMap.Get(a).ToSearchingMate(b)
	tw.agentMap.Get(b).ToSearchingMate(c)
	tw.agentMap.Get(c).ToSearchingMate(b)
	return a, b, c
}

func TestReproductionAsymmetryPanics(t *testing.T) {
	tw := newTestWorld(t)
	corruptTriangle(tw)
	repro := herbReproduction(tw, nil)

	if err := repro.CheckSymmetry(); err == nil || !IsInvariant(err) {
		t.Fatalf("CheckSymmetry = %v, want an invariant error", err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on asymmetric pair")
		}
		if err, ok := r.(error); !ok || !IsInvariant(err) {
			t.Errorf("panic value = %v, want *InvariantError", r)
		}
	}()
	repro.Update(1, tw.cmds)
}

func TestReproductionAsymmetryRecovers(t *testing.T) {
	tw := newTestWorld(t)
	a, b, c := corruptTriangle(tw)

	var reported []error
	repro := herbReproduction(tw, func(err error) { reported = append(reported, err) })
	stats := repro.Update(1, tw.cmds)

	if len(reported) != 1 || stats.Anomalies != 1 {
		t.Fatalf("reported %d errors, stats %+v; want exactly one anomaly", len(reported), stats)
	}
	for _, e := range []ecs.Entity{a, b, c} {
		if got := tw.agentMap.Get(e).State; got != components.StateIdle {
			t.Errorf("entity %d state = %v, want Idle", e.ID(), got)
		}
	}
	if err := repro.CheckSymmetry(); err != nil {
		t.Errorf("still asymmetric after recovery: %v", err)
	}
}

// ---------- kd-tree pairing ----------

func TestPairCandidatesGreedyByID(t *testing.T) {
	tests := []struct {
		name   string
		xs     []float64
		radius float64
		want   [][2]int
	}{
		{"nearest first", []float64{0, 1, 3, 10}, 5, [][2]int{{0, 1}}},
		{"wider radius", []float64{0, 1, 3, 10}, 8, [][2]int{{0, 1}, {2, 3}}},
		{"lowest id chooses", []float64{5, 0, 6}, 10, [][2]int{{0, 2}}},
		{"alone", []float64{0}, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := newTestWorld(t)
			entities := make([]ecs.Entity, len(tt.xs))
			var cands []mateCandidate
			for i, x := range tt.xs {
				entities[i] = tw.herbivore(float32(x), 0, 0, 200)
				cands = append(cands, mateCandidate{E: entities[i], X: x})
			}

			got := pairCandidates(cands, tt.radius)
			if len(got) != len(tt.want) {
				t.Fatalf("pairs = %v, want %v", got, tt.want)
			}
			for i, w := range tt.want {
				want := [2]ecs.Entity{entities[w[0]], entities[w[1]]}
				if got[i] != want {
					t.Errorf("pair %d = %v, want %v", i, got[i], want)
				}
			}
		})
	}
}

func TestPairCandidatesMatchesBruteForce(t *testing.T) {
	tw := newTestWorld(t)
	rng := rand.New(rand.NewSource(7))

	var cands []mateCandidate
	for i := 0; i < 300; i++ {
		x, y := rng.Float64()*1000, rng.Float64()*1000
		e := tw.herbivore(float32(x), float32(y), 0, 200)
		cands = append(cands, mateCandidate{E: e, X: x, Y: y})
	}
	brute := bruteForcePairs(cands, 60)
	got := pairCandidates(slices.Clone(cands), 60)

	if len(got) != len(brute) {
		t.Fatalf("kd-tree formed %d pairs, brute force %d", len(got), len(brute))
	}
	for i := range got {
		if got[i] != brute[i] {
			t.Fatalf("pair %d = %v, brute force %v", i, got[i], brute[i])
		}
	}
}

func bruteForcePairs(cands []mateCandidate, radius float64) [][2]ecs.Entity {
	sorted := slices.Clone(cands)
	slices.SortFunc(sorted, func(a, b mateCandidate) int { return cmp.Compare(a.E.ID(), b.E.ID()) })
	matched := make([]bool, len(sorted))
	var pairs [][2]ecs.Entity
	for i, c := range sorted {
		if matched[i] {
			continue
		}
		best, bestD := -1, radius*radius
		for j, o := range sorted {
			if j == i || matched[j] {
				continue
			}
			if d := c.Distance(o); d < bestD || (d == bestD && best < 0) {
				best, bestD = j, d
			}
		}
		if best >= 0 {
			matched[i], matched[best] = true, true
			pairs = append(pairs, [2]ecs.Entity{c.E, sorted[best].E})
		}
	}
	return pairs
}
