package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// UpdateEnergy applies metabolic decay and reports starvation.
func UpdateEnergy(energy *components.Energy, decayRate, dt float32) bool {
	energy.Value -= decayRate * dt
	return energy.Value <= 0
}

// UpdateAge advances the age timer and reports expiry.
func UpdateAge(age *components.Age, dt float32) bool {
	age.Elapsed += dt
	return age.Expired()
}

// LifecycleStats counts despawns scheduled during one Update.
type LifecycleStats struct {
	Aged    int
	Starved int
}

// Lifecycle ages every entity and drains consumer energy, scheduling the
// despawn of whoever runs out. Ownership of those deaths belongs here;
// deaths by attack belong to the hunting systems.
type Lifecycle struct {
	ageFilter    *ecs.Filter2[components.Age, components.Organism]
	energyFilter *ecs.Filter2[components.Energy, components.Organism]
	decay        [components.NumSpecies]float32
}

// NewLifecycle creates the aging and energy system. decay holds the
// per-second energy loss of each species.
func NewLifecycle(w *ecs.World, decay [components.NumSpecies]float32) *Lifecycle {
	return &Lifecycle{
		ageFilter:    ecs.NewFilter2[components.Age, components.Organism](w),
		energyFilter: ecs.NewFilter2[components.Energy, components.Organism](w),
		decay:        decay,
	}
}

// Update advances timers by dt seconds. Despawns are queued on cmds.
func (s *Lifecycle) Update(dt float32, cmds *Commands) LifecycleStats {
	var stats LifecycleStats

	query := s.ageFilter.Query()
	for query.Next() {
		age, _ := query.Get()
		if UpdateAge(age, dt) && cmds.Despawn(query.Entity(), CauseAged) {
			stats.Aged++
		}
	}

	equery := s.energyFilter.Query()
	for equery.Next() {
		energy, org := equery.Get()
		if UpdateEnergy(energy, s.decay[org.Species], dt) && cmds.Despawn(equery.Entity(), CauseStarved) {
			stats.Starved++
		}
	}

	return stats
}
