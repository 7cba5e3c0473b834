package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// HuntParams are the per-pairing tunables of a Hunting system.
type HuntParams struct {
	Damage         float32 // health removed per hit
	Cooldown       float32 // seconds between hits on a surviving target
	EatingTime     float32 // seconds spent eating a kill
	Yield          float32 // energy credited when eating finishes
	AttackDistance float32 // hits land strictly inside this distance
}

// HuntStats counts what happened during one Update.
type HuntStats struct {
	Bites  int // hits that landed
	Kills  int // lethal hits credited to a hunter
	Missed int // attacks on a target that died earlier in the tick
	Meals  int // eating timers that completed
}

// Add accumulates other into s.
func (s *HuntStats) Add(other HuntStats) {
	s.Bites += other.Bites
	s.Kills += other.Kills
	s.Missed += other.Missed
	s.Meals += other.Meals
}

// huntSnapshot captures read-only state for the parallel decide step.
type huntSnapshot struct {
	E     ecs.Entity
	Pos   components.Position
	Agent components.Agent
	Move  components.Movement
}

// huntIntent is the per-entity result of the decide step.
type huntIntent struct {
	Agent  components.Agent
	Move   components.Movement
	Gain   float32 // energy to credit this tick
	Attack bool    // target is in reach; resolved sequentially
}

// Hunting drives the Idle -> Hunting -> AttackCooling|Eating -> Idle machine
// for every entity tagged H, preying on entities tagged P.
//
// Each Update runs in three steps: snapshot the hunters, decide every
// hunter's next state in parallel against the prey index, then apply the
// intents and resolve attacks sequentially in query order. A lethal hit
// schedules the prey's despawn on the command buffer; a second hunter
// striking the same prey later in the order finds it claimed and returns
// to Idle, so each kill is credited exactly once.
type Hunting[H, P any] struct {
	world  *ecs.World
	filter *ecs.Filter4[components.Position, components.Movement, components.Agent, H]

	agentMap  *ecs.Map[components.Agent]
	moveMap   *ecs.Map[components.Movement]
	energyMap *ecs.Map[components.Energy]
	healthMap *ecs.Map[components.Health]

	prey   *SpatialIndex
	params HuntParams
	pool   *Pool

	snapshots []huntSnapshot
	intents   []huntIntent
}

// NewHunting creates a hunting system for hunters H and prey P.
func NewHunting[H, P any](w *ecs.World, prey *SpatialIndex, params HuntParams, pool *Pool) *Hunting[H, P] {
	return &Hunting[H, P]{
		world:     w,
		filter:    ecs.NewFilter4[components.Position, components.Movement, components.Agent, H](w),
		agentMap:  ecs.NewMap[components.Agent](w),
		moveMap:   ecs.NewMap[components.Movement](w),
		energyMap: ecs.NewMap[components.Energy](w),
		healthMap: ecs.NewMap[components.Health](w),
		prey:      prey,
		params:    params,
		pool:      pool,
	}
}

// Update advances every hunter by dt seconds. Kills are queued on cmds.
func (s *Hunting[H, P]) Update(dt float32, cmds *Commands) HuntStats {
	s.snapshots = s.snapshots[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, move, agent, _ := query.Get()
		s.snapshots = append(s.snapshots, huntSnapshot{
			E:     query.Entity(),
			Pos:   *pos,
			Agent: *agent,
			Move:  *move,
		})
	}

	n := len(s.snapshots)
	if cap(s.intents) < n {
		s.intents = make([]huntIntent, n)
	}
	s.intents = s.intents[:n]

	s.pool.Run(n, func(start, end, _ int) {
		for i := start; i < end; i++ {
			s.intents[i] = s.decide(&s.snapshots[i], dt)
		}
	})

	return s.apply(cmds)
}

// decide computes one hunter's next state. It only reads the snapshot and
// the prey index, so it is safe to call from any worker.
func (s *Hunting[H, P]) decide(snap *huntSnapshot, dt float32) huntIntent {
	in := huntIntent{Agent: snap.Agent, Move: snap.Move}
	a := &in.Agent
	m := &in.Move

	switch a.State {
	case components.StateIdle:
		m.Stop()
		prey, ok := s.prey.Nearest(snap.Pos)
		if !ok {
			return in
		}
		a.ToHunting(prey)
		s.chase(snap.Pos, &in)

	case components.StateHunting:
		s.chase(snap.Pos, &in)

	case components.StateAttackCooling:
		m.Stop()
		a.Timer -= dt
		if a.Timer <= 0 {
			a.BackToHunting()
		}

	case components.StateEating:
		m.Stop()
		a.Timer -= dt
		if a.Timer <= 0 {
			in.Gain = a.PendingGain
			a.ToIdle()
		}
	}

	return in
}

// chase steers toward the target, or flags an attack once in reach.
// A target missing from the prey index has died: fall back to Idle.
func (s *Hunting[H, P]) chase(pos components.Position, in *huntIntent) {
	target, ok := s.prey.Pos(in.Agent.Target)
	if !ok {
		in.Agent.ToIdle()
		in.Move.Stop()
		return
	}
	reach := s.params.AttackDistance
	if pos.DistSq(target) < reach*reach {
		in.Move.Stop()
		in.Attack = true
		return
	}
	in.Move.Toward(pos, target)
}

// apply writes intents back in snapshot order and resolves attacks.
func (s *Hunting[H, P]) apply(cmds *Commands) HuntStats {
	var stats HuntStats

	for i := range s.snapshots {
		e := s.snapshots[i].E
		in := &s.intents[i]

		agent := s.agentMap.Get(e)
		move := s.moveMap.Get(e)
		*agent = in.Agent
		*move = in.Move

		if in.Gain > 0 {
			s.energyMap.Get(e).Value += in.Gain
			stats.Meals++
		}

		if !in.Attack {
			continue
		}

		target := agent.Target
		if !s.world.Alive(target) || cmds.Pending(target) {
			agent.ToIdle()
			stats.Missed++
			continue
		}

		health := s.healthMap.Get(target)
		health.Value -= s.params.Damage
		stats.Bites++

		if health.Value <= 0 && cmds.Kill(target, e) {
			agent.ToEating(s.params.EatingTime, s.params.Yield)
			stats.Kills++
		} else {
			agent.ToAttackCooling(s.params.Cooldown)
		}
	}

	return stats
}
