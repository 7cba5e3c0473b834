package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// AgentView is a read-only copy of what a presentation layer may show
// about one entity after the last completed tick.
type AgentView struct {
	Entity   ecs.Entity
	ID       uint32
	Species  components.Species
	Pos      components.Position
	Visual   components.VisualPosition // equals Pos for producers
	Behavior components.Behavior
	Health   float32
	Energy   float32 // zero for producers
	Age      float32
	Target   uint32 // organism ID of the prey or mate, zero when none
}

// Behavior returns the presentation state of e. Dead entities read as Idle.
func (g *Game) Behavior(e ecs.Entity) components.Behavior {
	if !g.world.Alive(e) {
		return components.BehaviorIdle
	}
	if g.orgMap.Get(e).Species == components.SpeciesProducer {
		return components.BehaviorGrowing
	}
	return components.BehaviorOf(g.agentMap.Get(e), g.evaderMap.Get(e))
}

// View returns the AgentView of a single entity.
func (g *Game) View(e ecs.Entity) (AgentView, bool) {
	if !g.world.Alive(e) {
		return AgentView{}, false
	}
	return g.view(e, *g.posMap.Get(e), g.healthMap.Get(e).Value, *g.orgMap.Get(e)), true
}

// Agents calls fn for every living entity until fn returns false.
// It must not be called while a tick is running.
func (g *Game) Agents(fn func(AgentView) bool) {
	query := g.viewFilter.Query()
	for query.Next() {
		pos, health, org := query.Get()
		if !fn(g.view(query.Entity(), *pos, health.Value, *org)) {
			query.Close()
			return
		}
	}
}

func (g *Game) view(e ecs.Entity, pos components.Position, health float32, org components.Organism) AgentView {
	v := AgentView{
		Entity:   e,
		ID:       org.ID,
		Species:  org.Species,
		Pos:      pos,
		Visual:   components.VisualPosition(pos),
		Behavior: components.BehaviorGrowing,
		Health:   health,
		Age:      g.ageMap.Get(e).Elapsed,
	}
	if org.Species == components.SpeciesProducer {
		return v
	}

	agent := g.agentMap.Get(e)
	v.Behavior = components.BehaviorOf(agent, g.evaderMap.Get(e))
	v.Visual = *g.visMap.Get(e)
	v.Energy = g.energyMap.Get(e).Value
	if agent.State == components.StateHunting || agent.State == components.StateAttackCooling {
		if g.world.Alive(agent.Target) {
			v.Target = g.orgMap.Get(agent.Target).ID
		}
	} else if mate, ok := agent.Mate(); ok && g.world.Alive(mate) {
		v.Target = g.orgMap.Get(mate).ID
	}
	return v
}
