package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// testWorld is a minimal ecosystem wired the way the game wires it, with
// the barrier reduced to index bookkeeping.
type testWorld struct {
	t     *testing.T
	world *ecs.World
	cmds  *Commands

	producers  *SpatialIndex
	herbivores *SpatialIndex
	predators  *SpatialIndex

	producerMap *ecs.Map5[components.Position, components.Health, components.Organism, components.Sprout, components.Producer]
	herbMap     *ecs.Map8[components.Position, components.Movement, components.Agent, components.Energy, components.Health, components.Organism, components.Evader, components.Herbivore]
	predMap     *ecs.Map7[components.Position, components.Movement, components.Agent, components.Energy, components.Health, components.Organism, components.Predator]

	posMap    *ecs.Map[components.Position]
	agentMap  *ecs.Map[components.Agent]
	moveMap   *ecs.Map[components.Movement]
	energyMap *ecs.Map[components.Energy]
	healthMap *ecs.Map[components.Health]
	orgMap    *ecs.Map[components.Organism]

	nextID uint32
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	w := ecs.NewWorld()
	return &testWorld{
		t:          t,
		world:      w,
		cmds:       NewCommands(),
		producers:  NewSpatialIndex(1000, 1000, 10),
		herbivores: NewSpatialIndex(1000, 1000, 10),
		predators:  NewSpatialIndex(1000, 1000, 10),

		producerMap: ecs.NewMap5[components.Position, components.Health, components.Organism, components.Sprout, components.Producer](w),
		herbMap:     ecs.NewMap8[components.Position, components.Movement, components.Agent, components.Energy, components.Health, components.Organism, components.Evader, components.Herbivore](w),
		predMap:     ecs.NewMap7[components.Position, components.Movement, components.Agent, components.Energy, components.Health, components.Organism, components.Predator](w),

		posMap:    ecs.NewMap[components.Position](w),
		agentMap:  ecs.NewMap[components.Agent](w),
		moveMap:   ecs.NewMap[components.Movement](w),
		energyMap: ecs.NewMap[components.Energy](w),
		healthMap: ecs.NewMap[components.Health](w),
		orgMap:    ecs.NewMap[components.Organism](w),
	}
}

func (tw *testWorld) organism(s components.Species) components.Organism {
	tw.nextID++
	return components.Organism{ID: tw.nextID, Species: s}
}

func (tw *testWorld) producer(x, y, health float32) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	hp := components.Health{Value: health}
	org := tw.organism(components.SpeciesProducer)
	sprout := components.Sprout{Timer: 1}
	e := tw.producerMap.NewEntity(&pos, &hp, &org, &sprout, &components.Producer{})
	tw.mustInsert(tw.producers, e, pos)
	return e
}

func (tw *testWorld) herbivore(x, y, speed, energy float32) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	move := components.Movement{Speed: speed}
	agent := components.Agent{}
	en := components.Energy{Value: energy}
	hp := components.Health{Value: 50}
	org := tw.organism(components.SpeciesHerbivore)
	ev := components.Evader{}
	e := tw.herbMap.NewEntity(&pos, &move, &agent, &en, &hp, &org, &ev, &components.Herbivore{})
	tw.mustInsert(tw.herbivores, e, pos)
	return e
}

func (tw *testWorld) predator(x, y, speed, energy float32) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	move := components.Movement{Speed: speed}
	agent := components.Agent{}
	en := components.Energy{Value: energy}
	hp := components.Health{Value: 100}
	org := tw.organism(components.SpeciesPredator)
	e := tw.predMap.NewEntity(&pos, &move, &agent, &en, &hp, &org, &components.Predator{})
	tw.mustInsert(tw.predators, e, pos)
	return e
}

func (tw *testWorld) mustInsert(idx *SpatialIndex, e ecs.Entity, pos components.Position) {
	tw.t.Helper()
	if err := idx.Insert(e, pos); err != nil {
		tw.t.Fatalf("insert: %v", err)
	}
}

func (tw *testWorld) indexFor(e ecs.Entity) *SpatialIndex {
	switch tw.orgMap.Get(e).Species {
	case components.SpeciesProducer:
		return tw.producers
	case components.SpeciesHerbivore:
		return tw.herbivores
	default:
		return tw.predators
	}
}

// flush applies queued despawns and returns the queued spawns unapplied.
func (tw *testWorld) flush() ([]Despawn, []Spawn) {
	tw.t.Helper()
	despawns, spawns := tw.cmds.Drain()
	for _, d := range despawns {
		if !tw.world.Alive(d.E) {
			continue
		}
		if err := tw.indexFor(d.E).Remove(d.E); err != nil {
			tw.t.Fatalf("remove: %v", err)
		}
		tw.world.RemoveEntity(d.E)
	}
	return despawns, spawns
}

// resync moves every index entry to its entity's current position.
func (tw *testWorld) resync() {
	tw.t.Helper()
	for _, idx := range []*SpatialIndex{tw.producers, tw.herbivores, tw.predators} {
		var moved []ecs.Entity
		idx.Each(func(e ecs.Entity, _ components.Position) { moved = append(moved, e) })
		for _, e := range moved {
			if err := idx.Update(e, *tw.posMap.Get(e)); err != nil {
				tw.t.Fatalf("update: %v", err)
			}
		}
	}
}
