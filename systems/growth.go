package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// GrowthParams are the producer spreading tunables.
type GrowthParams struct {
	Interval     float32 // seconds between growth rolls
	RateSparse   float32 // chance per roll below CrowdingLow neighbors
	RateCrowded  float32 // chance per roll below CrowdingHigh neighbors
	CrowdingLow  int32
	CrowdingHigh int32
	Radius       float32 // neighbor radius and maximum seed offset
	Max          int     // population cap, 0 for none
}

// Growth spreads producers. Each producer rolls once per Interval; the
// chance of sprouting falls with the number of producers around it.
type Growth struct {
	filter    *ecs.Filter3[components.Position, components.Sprout, components.Producer]
	sproutMap *ecs.Map[components.Sprout]

	index  *SpatialIndex
	params GrowthParams
	rng    *rand.Rand

	width, height float32
	scratch       []Neighbor
}

// NewGrowth creates the producer growth system. rng must be owned by the
// caller's goroutine; Update draws from it sequentially.
func NewGrowth(w *ecs.World, index *SpatialIndex, params GrowthParams, width, height float32, rng *rand.Rand) *Growth {
	return &Growth{
		filter:    ecs.NewFilter3[components.Position, components.Sprout, components.Producer](w),
		sproutMap: ecs.NewMap[components.Sprout](w),
		index:     index,
		params:    params,
		rng:       rng,
		width:     width,
		height:    height,
	}
}

// Chance returns the sprouting probability for a neighbor count.
func (s *Growth) Chance(neighbors int32) float32 {
	switch {
	case neighbors < s.params.CrowdingLow:
		return s.params.RateSparse
	case neighbors < s.params.CrowdingHigh:
		return s.params.RateCrowded
	default:
		return 0
	}
}

// Update advances growth timers by dt seconds and queues new producers on
// cmds. It returns the number queued.
func (s *Growth) Update(dt float32, cmds *Commands) int {
	sprouted := 0
	query := s.filter.Query()
	for query.Next() {
		pos, sprout, _ := query.Get()
		sprout.Timer -= dt
		if sprout.Timer > 0 {
			continue
		}
		sprout.Timer += s.params.Interval

		if s.rng.Float32() >= s.Chance(sprout.Neighbors) {
			continue
		}
		if s.params.Max > 0 && s.index.Len()+sprouted >= s.params.Max {
			continue
		}
		if cmds.Pending(query.Entity()) {
			continue
		}

		r := s.params.Radius
		child := components.Position{
			X: clamp(pos.X+(s.rng.Float32()*2-1)*r, 0, s.width),
			Y: clamp(pos.Y+(s.rng.Float32()*2-1)*r, 0, s.height),
		}
		cmds.Spawn(Spawn{Species: components.SpeciesProducer, Pos: child})
		sprouted++
	}
	return sprouted
}

// OnBirth counts the producers around a new producer at pos and adds it to
// theirs. The new producer itself is skipped whether or not it is indexed
// yet.
func (s *Growth) OnBirth(e ecs.Entity, pos components.Position) {
	s.scratch = s.index.WithinRadiusInto(s.scratch[:0], pos, s.params.Radius)
	count := int32(0)
	for _, n := range s.scratch {
		if n.E == e {
			continue
		}
		s.sproutMap.Get(n.E).Neighbors++
		count++
	}
	s.sproutMap.Get(e).Neighbors = count
}

// OnDeath removes a producer that lived at pos from its neighbors' counts.
// Call it after the producer has left the index.
func (s *Growth) OnDeath(e ecs.Entity, pos components.Position) {
	s.scratch = s.index.WithinRadiusInto(s.scratch[:0], pos, s.params.Radius)
	for _, n := range s.scratch {
		if n.E == e {
			continue
		}
		if sprout := s.sproutMap.Get(n.E); sprout.Neighbors > 0 {
			sprout.Neighbors--
		}
	}
}
