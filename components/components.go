// Package components defines ECS components for the simulation.
package components

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"
)

// AgentState is the primary behavior state of a consumer.
// Hunting and reproduction share it, so an agent is never doing both.
type AgentState uint8

const (
	StateIdle AgentState = iota
	StateHunting
	StateAttackCooling
	StateEating
	StateSearchingMate
	StateMating
)

// ReproView is the reproduction subsystem's reading of an AgentState.
type ReproView uint8

const (
	ReproIdle ReproView = iota
	ReproSearchingMate
	ReproMating
	ReproOtherCanMate  // busy, but may be proposed to
	ReproOtherCantMate // busy and must not be disturbed
)

// Agent is the shared hunting/reproduction state machine of a consumer.
// Target is a weak reference: the prey while hunting, the mate while
// searching or mating. It must be looked up before every use.
type Agent struct {
	State       AgentState `inspect:"label"`
	Target      ecs.Entity `inspect:"skip"`
	Timer       float32    `inspect:"label,fmt:%.1fs"`
	PendingGain float32    `inspect:"label,fmt:%.1f"`
}

// Reproduction maps the primary state onto the reproduction view.
func (a *Agent) Reproduction() ReproView {
	switch a.State {
	case StateIdle:
		return ReproIdle
	case StateSearchingMate:
		return ReproSearchingMate
	case StateMating:
		return ReproMating
	case StateHunting:
		return ReproOtherCanMate
	default:
		return ReproOtherCantMate
	}
}

// Mate returns the partner if the agent is searching or mating.
func (a *Agent) Mate() (ecs.Entity, bool) {
	if a.State == StateSearchingMate || a.State == StateMating {
		return a.Target, true
	}
	return ecs.Entity{}, false
}

// ToIdle clears every transient field.
func (a *Agent) ToIdle() {
	*a = Agent{}
}

// ToHunting records the prey.
func (a *Agent) ToHunting(prey ecs.Entity) {
	a.State = StateHunting
	a.Target = prey
	a.Timer = 0
}

// BackToHunting resumes the chase after a cooldown with the same target.
func (a *Agent) BackToHunting() {
	a.State = StateHunting
	a.Timer = 0
}

// ToAttackCooling starts the cooldown; the target is kept.
func (a *Agent) ToAttackCooling(cooldown float32) {
	a.State = StateAttackCooling
	a.Timer = cooldown
}

// ToEating starts digesting; gain is credited when the timer expires.
func (a *Agent) ToEating(duration, gain float32) {
	a.State = StateEating
	a.Target = ecs.Entity{}
	a.Timer = duration
	a.PendingGain = gain
}

// ToSearchingMate records the partner.
func (a *Agent) ToSearchingMate(mate ecs.Entity) {
	a.State = StateSearchingMate
	a.Target = mate
	a.Timer = 0
	a.PendingGain = 0
}

// ToMating starts the mating timer; the partner is kept.
func (a *Agent) ToMating(duration float32) {
	a.State = StateMating
	a.Timer = duration
}

// EvadeState is the evasion state of an entity.
type EvadeState uint8

const (
	EvadeCanFlee EvadeState = iota
	EvadeFleeing
	EvadeCannotFlee // never prey, permanently ineligible
)

// Evader holds flight state. Away is the heading chosen at the last check
// and is re-applied every tick while fleeing.
type Evader struct {
	State   EvadeState `inspect:"label"`
	Recheck float32    `inspect:"label,fmt:%.2fs"`
	Away    mgl32.Vec2 `inspect:"skip"`
}
