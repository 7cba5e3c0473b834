package components

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// ---------- Reproduction view ----------

func TestReproductionView(t *testing.T) {
	tests := []struct {
		state AgentState
		want  ReproView
	}{
		{StateIdle, ReproIdle},
		{StateHunting, ReproOtherCanMate},
		{StateAttackCooling, ReproOtherCantMate},
		{StateEating, ReproOtherCantMate},
		{StateSearchingMate, ReproSearchingMate},
		{StateMating, ReproMating},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			a := Agent{State: tt.state}
			if got := a.Reproduction(); got != tt.want {
				t.Errorf("Reproduction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToEatingDropsTarget(t *testing.T) {
	var a Agent
	a.ToHunting(a.Target)
	a.ToEating(2, 15)
	if a.State != StateEating || a.Timer != 2 || a.PendingGain != 15 {
		t.Errorf("unexpected agent after ToEating: %+v", a)
	}
	if _, ok := a.Mate(); ok {
		t.Error("eating agent reports a mate")
	}
}

// ---------- Presentation ----------

func TestBehaviorOf(t *testing.T) {
	tests := []struct {
		name   string
		agent  *Agent
		evader *Evader
		want   Behavior
	}{
		{"producer", nil, nil, BehaviorGrowing},
		{"idle", &Agent{}, &Evader{}, BehaviorIdle},
		{"hunting", &Agent{State: StateHunting}, nil, BehaviorHunting},
		{"fleeing wins", &Agent{State: StateMating}, &Evader{State: EvadeFleeing}, BehaviorFleeing},
		{"cannot flee", &Agent{State: StateEating}, &Evader{State: EvadeCannotFlee}, BehaviorEating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BehaviorOf(tt.agent, tt.evader); got != tt.want {
				t.Errorf("BehaviorOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEveryBehaviorHasNameAndColor(t *testing.T) {
	seen := map[[4]uint8]Behavior{}
	for b := Behavior(0); int(b) < BehaviorCount(); b++ {
		if b.String() == "Unknown" {
			t.Errorf("behavior %d has no name", b)
		}
		c := b.Color()
		key := [4]uint8{c.R, c.G, c.B, c.A}
		if prev, dup := seen[key]; dup {
			t.Errorf("%v and %v share a color", prev, b)
		}
		seen[key] = b
	}
}

// ---------- Movement ----------

func TestMovementToward(t *testing.T) {
	var m Movement
	m.Toward(Position{0, 0}, Position{3, 4})
	if math.Abs(float64(m.Range-5)) > 1e-5 {
		t.Errorf("Range = %v, want 5", m.Range)
	}
	want := mgl32.Vec2{0.6, 0.8}
	if !m.Dir.ApproxEqual(want) {
		t.Errorf("Dir = %v, want %v", m.Dir, want)
	}

	m.Toward(Position{1, 1}, Position{1, 1})
	if m.Dir.Len() != 0 || m.Range != 0 {
		t.Errorf("co-located Toward should stop, got %+v", m)
	}
}

func TestMidpoint(t *testing.T) {
	got := Position{2, 4}.Midpoint(Position{6, -2})
	if got != (Position{4, 1}) {
		t.Errorf("Midpoint = %v, want {4 1}", got)
	}
}
