package game

import (
	"fmt"
	"log/slog"
)

// InvariantPolicy decides what happens when bookkeeping is found broken.
type InvariantPolicy uint8

const (
	// PolicyPanic aborts the simulation with the violation.
	PolicyPanic InvariantPolicy = iota
	// PolicyRecover logs the violation, counts it and repairs locally.
	PolicyRecover
)

func (p InvariantPolicy) String() string {
	if p == PolicyRecover {
		return "recover"
	}
	return "panic"
}

// ParsePolicy reads debug.invariant_policy. Empty means panic.
func ParsePolicy(s string) (InvariantPolicy, error) {
	switch s {
	case "", "panic":
		return PolicyPanic, nil
	case "recover":
		return PolicyRecover, nil
	}
	return PolicyPanic, fmt.Errorf("unknown invariant policy %q", s)
}

// MustParsePolicy is ParsePolicy for already validated configs.
func MustParsePolicy(s string) InvariantPolicy {
	p, err := ParsePolicy(s)
	if err != nil {
		panic(err)
	}
	return p
}

// logInvariant applies the policy without counting. Systems that keep
// their own anomaly counters receive it as their handler.
func (g *Game) logInvariant(err error) {
	if g.policy == PolicyPanic {
		panic(err)
	}
	slog.Error("invariant violated", "tick", g.tick, "error", err)
}

// invariant applies the policy to err and counts it. nil is ignored.
func (g *Game) invariant(err error) {
	if err == nil {
		return
	}
	g.logInvariant(err)
	g.anomalies++
	g.collector.RecordAnomaly()
}

// CheckSymmetry verifies that every mating relationship is mirrored.
func (g *Game) CheckSymmetry() error {
	if err := g.herbRepro.CheckSymmetry(); err != nil {
		return err
	}
	return g.predRepro.CheckSymmetry()
}
