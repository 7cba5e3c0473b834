package systems

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// EvadeParams are the tunables of an Evasion system.
type EvadeParams struct {
	FleeRadius      float32 // threats strictly inside this distance trigger flight
	RecheckInterval float32 // seconds between proximity checks
}

// evadeSnapshot captures read-only state for the parallel check.
type evadeSnapshot struct {
	E      ecs.Entity
	Pos     components.Position
	Heading mgl32.Vec2
	Evader  components.Evader
}

// Evasion drives CanFlee <-> Fleeing for every entity tagged E, fleeing
// from entities tagged T. Proximity is only re-checked every
// RecheckInterval seconds per entity. In between, a fleeing entity keeps
// re-applying the heading chosen at its last check, overriding whatever
// hunting or reproduction wrote earlier in the tick.
type Evasion[E, T any] struct {
	filter  *ecs.Filter4[components.Position, components.Movement, components.Evader, E]
	moveMap *ecs.Map[components.Movement]
	evMap   *ecs.Map[components.Evader]

	threats *SpatialIndex
	params  EvadeParams
	pool    *Pool

	snapshots []evadeSnapshot
	results   []components.Evader
	scratch   [][]Neighbor
}

// NewEvasion creates an evasion system for evaders E and threats T.
func NewEvasion[E, T any](w *ecs.World, threats *SpatialIndex, params EvadeParams, pool *Pool) *Evasion[E, T] {
	return &Evasion[E, T]{
		filter:  ecs.NewFilter4[components.Position, components.Movement, components.Evader, E](w),
		moveMap: ecs.NewMap[components.Movement](w),
		evMap:   ecs.NewMap[components.Evader](w),
		threats: threats,
		params:  params,
		pool:    pool,
		scratch: make([][]Neighbor, pool.Workers()),
	}
}

// Update advances every evader by dt seconds and returns how many started
// fleeing.
func (s *Evasion[E, T]) Update(dt float32) int {
	s.snapshots = s.snapshots[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, move, ev, _ := query.Get()
		s.snapshots = append(s.snapshots, evadeSnapshot{E: query.Entity(), Pos: *pos, Heading: move.Dir, Evader: *ev})
	}

	n := len(s.snapshots)
	if cap(s.results) < n {
		s.results = make([]components.Evader, n)
	}
	s.results = s.results[:n]

	s.pool.Run(n, func(start, end, worker int) {
		for i := start; i < end; i++ {
			s.results[i] = s.check(&s.snapshots[i], dt, worker)
		}
	})

	started := 0
	for i := range s.snapshots {
		e := s.snapshots[i].E
		before := s.snapshots[i].Evader.State
		ev := s.evMap.Get(e)
		*ev = s.results[i]

		move := s.moveMap.Get(e)
		switch {
		case ev.State == components.EvadeFleeing:
			if before != components.EvadeFleeing {
				started++
			}
			move.Dir = ev.Away
			move.Range = 0
		case before == components.EvadeFleeing:
			move.Stop()
		}
	}
	return started
}

// check runs one evader's timer and, when due, its proximity test.
func (s *Evasion[E, T]) check(snap *evadeSnapshot, dt float32, worker int) components.Evader {
	ev := snap.Evader
	if ev.State == components.EvadeCannotFlee {
		return ev
	}

	ev.Recheck -= dt
	if ev.Recheck > 0 {
		return ev
	}
	ev.Recheck = s.params.RecheckInterval

	s.scratch[worker] = s.threats.WithinRadiusInto(s.scratch[worker][:0], snap.Pos, s.params.FleeRadius)
	if len(s.scratch[worker]) == 0 {
		ev.State = components.EvadeCanFlee
		ev.Away = mgl32.Vec2{}
		return ev
	}

	// Neighbors come back nearest first.
	threat, _ := s.threats.Pos(s.scratch[worker][0].E)
	away := snap.Pos.Vec().Sub(threat.Vec())
	if l := away.Len(); l > 0 {
		ev.Away = away.Mul(1 / l)
	} else {
		ev.Away = fallbackAway(ev.Away, snap.Heading)
	}
	ev.State = components.EvadeFleeing
	return ev
}

// fallbackAway picks a flight direction when the threat sits exactly on the
// evader: keep the last flight heading, else reverse the current heading,
// else run along +X.
func fallbackAway(prev, heading mgl32.Vec2) mgl32.Vec2 {
	if l := prev.Len(); l > 0 {
		return prev.Mul(1 / l)
	}
	if l := heading.Len(); l > 0 {
		return heading.Mul(-1 / l)
	}
	return mgl32.Vec2{1, 0}
}
