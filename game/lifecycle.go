package game

import (
	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
)

// maxSeedAttempts bounds rejection sampling of clustered producers.
const maxSeedAttempts = 50

// seedPopulation creates the starting entities. Seeded entities get a
// random age so they do not all expire together.
func (g *Game) seedPopulation() {
	pop := g.cfg.Population
	w, h := g.cfg.Derived.WorldW32, g.cfg.Derived.WorldH32

	var noise opensimplex.Noise
	if g.cfg.Seeding.Clustered {
		noise = opensimplex.New(g.seed)
	}

	for range pop.Producers {
		x, y := g.producerSite(noise, w, h)
		e := g.SpawnProducer(x, y)
		g.ageMap.Get(e).Elapsed = g.rng.Float32() * float32(g.cfg.Producer.Lifetime) * 0.5
	}
	for range pop.Herbivores {
		e := g.SpawnHerbivore(g.rng.Float32()*w, g.rng.Float32()*h)
		g.ageMap.Get(e).Elapsed = g.rng.Float32() * float32(g.cfg.Herbivore.Lifetime) * 0.5
	}
	for range pop.Predators {
		e := g.SpawnPredator(g.rng.Float32()*w, g.rng.Float32()*h)
		g.ageMap.Get(e).Elapsed = g.rng.Float32() * float32(g.cfg.Predator.Lifetime) * 0.5
	}
}

// producerSite picks a seeding position. With noise, sites are rejection
// sampled where the noise field exceeds the threshold, which groups
// producers into meadows.
func (g *Game) producerSite(noise opensimplex.Noise, w, h float32) (float32, float32) {
	x, y := g.rng.Float32()*w, g.rng.Float32()*h
	if noise == nil {
		return x, y
	}
	scale := g.cfg.Seeding.NoiseScale
	for range maxSeedAttempts {
		if noise.Eval2(float64(x)/scale, float64(y)/scale) > g.cfg.Seeding.Threshold {
			break
		}
		x, y = g.rng.Float32()*w, g.rng.Float32()*h
	}
	return x, y
}

// SpawnProducer creates a producer at (x, y) and runs the birth hook.
func (g *Game) SpawnProducer(x, y float32) ecs.Entity {
	return g.spawn(components.SpeciesProducer, components.Position{X: x, Y: y}, [2]uint32{})
}

// SpawnHerbivore creates a herbivore at (x, y) and runs the birth hook.
func (g *Game) SpawnHerbivore(x, y float32) ecs.Entity {
	return g.spawn(components.SpeciesHerbivore, components.Position{X: x, Y: y}, [2]uint32{})
}

// SpawnPredator creates a predator at (x, y) and runs the birth hook.
func (g *Game) SpawnPredator(x, y float32) ecs.Entity {
	return g.spawn(components.SpeciesPredator, components.Position{X: x, Y: y}, [2]uint32{})
}

// spawn creates a fully formed entity of species s.
func (g *Game) spawn(s components.Species, pos components.Position, parents [2]uint32) ecs.Entity {
	g.nextID++
	org := components.Organism{ID: g.nextID, Species: s, BornTick: g.tick}

	var e ecs.Entity
	switch s {
	case components.SpeciesProducer:
		pc := &g.cfg.Producer
		e = g.producerMap.NewEntity(
			&pos,
			&components.Health{Value: float32(pc.Health)},
			&components.Age{Lifetime: float32(pc.Lifetime)},
			&org,
			&components.Sprout{Timer: g.rng.Float32() * float32(pc.ReproductionInterval)}, // desynchronized growth rolls
			&components.Producer{},
		)

	case components.SpeciesHerbivore:
		cc := g.consumerCfgs[s]
		vis := components.VisualPosition(pos)
		e = g.herbivoreMap.NewEntity(
			&pos,
			&vis,
			&components.Movement{Speed: float32(cc.Speed)},
			&components.Agent{},
			&components.Energy{Value: float32(cc.Energy)},
			&components.Health{Value: float32(cc.Health)},
			&components.Age{Lifetime: float32(cc.Lifetime)},
			&org,
			&components.Evader{},
			&components.Herbivore{},
		)

	case components.SpeciesPredator:
		cc := g.consumerCfgs[s]
		vis := components.VisualPosition(pos)
		e = g.predatorMap.NewEntity(
			&pos,
			&vis,
			&components.Movement{Speed: float32(cc.Speed)},
			&components.Agent{},
			&components.Energy{Value: float32(cc.Energy)},
			&components.Health{Value: float32(cc.Health)},
			&components.Age{Lifetime: float32(cc.Lifetime)},
			&org,
			&components.Evader{State: components.EvadeCannotFlee},
			&components.Predator{},
		)

	default:
		panic("spawn: unknown species " + s.String())
	}

	g.onBirth(e, org, pos, parents)
	return e
}

// onBirth is the only path that adds a species-tagged entity to the
// indices and the telemetry.
func (g *Game) onBirth(e ecs.Entity, org components.Organism, pos components.Position, parents [2]uint32) {
	if err := g.indices[org.Species].Insert(e, pos); err != nil {
		g.invariant(err)
		return
	}
	if org.Species == components.SpeciesProducer {
		g.growth.OnBirth(e, pos)
	}
	g.counts[org.Species]++

	g.collector.RecordBirth(org.Species)
	g.lifetimeTracker.Register(org.ID, org.Species, g.tick, parents)
	if g.onLifecycle != nil {
		g.onLifecycle(telemetry.NewBirthEvent(g.tick, org, pos, parents))
	}
}

// onDeath is the only path that removes a species-tagged entity. The
// entity is dropped from its index before the producer neighbor counts are
// corrected, then removed from the world.
func (g *Game) onDeath(d systems.Despawn) {
	e := d.E
	if !g.world.Alive(e) {
		return
	}
	org := *g.orgMap.Get(e)
	index := g.indices[org.Species]

	pos, _ := index.Pos(e)
	if err := index.Remove(e); err != nil {
		// Recovering: the entity still leaves the world.
		g.invariant(err)
		pos = *g.posMap.Get(e)
	}
	g.counts[org.Species]--
	if org.Species == components.SpeciesProducer {
		g.growth.OnDeath(e, pos)
	}

	var killerID uint32
	if d.Cause == systems.CauseKilled && g.world.Alive(d.Killer) {
		killerID = g.orgMap.Get(d.Killer).ID
		g.lifetimeTracker.RecordKill(killerID)
	}

	g.collector.RecordDeath(org.Species, d.Cause)
	if rec, ok := g.lifetimeTracker.Finish(org.ID, g.tick, g.dt, d.Cause); ok && g.outputManager != nil {
		g.finished = append(g.finished, rec)
	}
	if g.onLifecycle != nil {
		g.onLifecycle(telemetry.NewDeathEvent(g.tick, org, pos, d.Cause, killerID))
	}

	if g.selected == e {
		g.selected = ecs.Entity{}
	}
	g.world.RemoveEntity(e)
}

// flush is the barrier between phases. Deaths are applied before births so
// a freed slot never aliases a pending despawn. Offspring of a species at
// its population cap are dropped; the parents have already paid.
func (g *Game) flush() {
	if g.cmds.Len() == 0 {
		return
	}
	despawns, spawns := g.cmds.Drain()
	for _, d := range despawns {
		g.onDeath(d)
	}
	for _, s := range spawns {
		if limit := g.caps[s.Species]; limit > 0 && g.counts[s.Species] >= limit {
			g.collector.RecordSuppressedBirth()
			continue
		}
		g.spawn(s.Species, s.Pos, s.Parents)
	}
}
