package telemetry

import (
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
)

// LifetimeStats tracks per-organism statistics over its lifetime.
type LifetimeStats struct {
	Species   components.Species
	BirthTick int32
	Parents   [2]uint32

	Kills    int
	Children int
}

// LifetimeRecord is the flat CSV row written when an organism dies.
type LifetimeRecord struct {
	OrganismID  uint32  `csv:"id"`
	Species     string  `csv:"species"`
	BirthTick   int32   `csv:"birth_tick"`
	DeathTick   int32   `csv:"death_tick"`
	SurvivalSec float32 `csv:"survival_sec"`
	Cause       string  `csv:"cause"`
	Kills       int     `csv:"kills"`
	Children    int     `csv:"children"`
	ParentA     uint32  `csv:"parent_a"`
	ParentB     uint32  `csv:"parent_b"`
}

// LifetimeTracker manages per-organism lifetime statistics, keyed by
// Organism.ID so records survive entity recycling.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register starts tracking a newborn and credits its parents.
func (lt *LifetimeTracker) Register(id uint32, species components.Species, birthTick int32, parents [2]uint32) {
	lt.stats[id] = &LifetimeStats{
		Species:   species,
		BirthTick: birthTick,
		Parents:   parents,
	}
	for _, p := range parents {
		if s := lt.stats[p]; p != 0 && s != nil {
			s.Children++
		}
	}
}

// Get returns the lifetime stats for an organism, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// RecordKill increments the kill count of a hunter.
func (lt *LifetimeTracker) RecordKill(id uint32) {
	if s := lt.stats[id]; s != nil {
		s.Kills++
	}
}

// Finish stops tracking an organism and returns its CSV record.
// ok is false if the organism was never registered.
func (lt *LifetimeTracker) Finish(id uint32, deathTick int32, dt float32, cause systems.DeathCause) (LifetimeRecord, bool) {
	s := lt.stats[id]
	if s == nil {
		return LifetimeRecord{}, false
	}
	delete(lt.stats, id)
	return LifetimeRecord{
		OrganismID:  id,
		Species:     s.Species.String(),
		BirthTick:   s.BirthTick,
		DeathTick:   deathTick,
		SurvivalSec: float32(deathTick-s.BirthTick) * dt,
		Cause:       cause.String(),
		Kills:       s.Kills,
		Children:    s.Children,
		ParentA:     s.Parents[0],
		ParentB:     s.Parents[1],
	}, true
}

// Count returns the number of tracked organisms.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
