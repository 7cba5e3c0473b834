package components

import "image/color"

// Behavior is the read-only per-tick state exposed to presentation layers.
type Behavior uint8

const (
	BehaviorGrowing Behavior = iota // producers
	BehaviorIdle
	BehaviorHunting
	BehaviorAttackCooling
	BehaviorEating
	BehaviorSearchingMate
	BehaviorMating
	BehaviorFleeing
)

// String returns the display name for a Behavior.
func (b Behavior) String() string {
	names := BehaviorNames()
	if int(b) < len(names) {
		return names[b]
	}
	return "Unknown"
}

// BehaviorNames returns the display names for all behaviors.
// The order matches the Behavior constants.
func BehaviorNames() []string {
	return []string{"Growing", "Idle", "Hunting", "AttackCooling", "Eating", "SearchingMate", "Mating", "Fleeing"}
}

// BehaviorCount returns the number of behaviors.
func BehaviorCount() int {
	return len(BehaviorNames())
}

var behaviorColors = [...]color.RGBA{
	BehaviorGrowing:       {R: 40, G: 200, B: 60, A: 255},
	BehaviorIdle:          {R: 180, G: 180, B: 180, A: 255},
	BehaviorHunting:       {R: 230, G: 60, B: 50, A: 255},
	BehaviorAttackCooling: {R: 240, G: 150, B: 40, A: 255},
	BehaviorEating:        {R: 150, G: 90, B: 40, A: 255},
	BehaviorSearchingMate: {R: 240, G: 110, B: 200, A: 255},
	BehaviorMating:        {R: 160, G: 60, B: 220, A: 255},
	BehaviorFleeing:       {R: 80, G: 170, B: 255, A: 255},
}

// Color returns the visual treatment for a behavior.
func (b Behavior) Color() color.RGBA {
	if int(b) < len(behaviorColors) {
		return behaviorColors[b]
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

// BehaviorOf derives the presentation state. Fleeing wins over the
// primary state because evasion owns movement while it lasts.
func BehaviorOf(agent *Agent, evader *Evader) Behavior {
	if agent == nil {
		return BehaviorGrowing
	}
	if evader != nil && evader.State == EvadeFleeing {
		return BehaviorFleeing
	}
	switch agent.State {
	case StateHunting:
		return BehaviorHunting
	case StateAttackCooling:
		return BehaviorAttackCooling
	case StateEating:
		return BehaviorEating
	case StateSearchingMate:
		return BehaviorSearchingMate
	case StateMating:
		return BehaviorMating
	default:
		return BehaviorIdle
	}
}

// String returns the display name for an AgentState.
func (s AgentState) String() string {
	return BehaviorOf(&Agent{State: s}, nil).String()
}

// String returns the display name for an EvadeState.
func (s EvadeState) String() string {
	switch s {
	case EvadeCanFlee:
		return "CanFlee"
	case EvadeFleeing:
		return "Fleeing"
	case EvadeCannotFlee:
		return "CannotFlee"
	default:
		return "Unknown"
	}
}
