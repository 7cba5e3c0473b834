// Package telemetry provides ecosystem health tracking, bookmarking, and snapshots.
package telemetry

import (
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
)

// EventType identifies lifecycle events.
type EventType uint8

const (
	EventBirth EventType = iota
	EventDeath
)

func (t EventType) String() string {
	if t == EventBirth {
		return "birth"
	}
	return "death"
}

// Event is one birth or death, reported from the barrier that applied it.
type Event struct {
	Type       EventType
	Tick       int32
	OrganismID uint32
	Species    components.Species
	X, Y       float32

	// Births
	Parents [2]uint32

	// Deaths
	Cause    systems.DeathCause
	KillerID uint32 // zero unless Cause is CauseKilled
}

// NewBirthEvent creates a birth event.
func NewBirthEvent(tick int32, org components.Organism, pos components.Position, parents [2]uint32) Event {
	return Event{
		Type:       EventBirth,
		Tick:       tick,
		OrganismID: org.ID,
		Species:    org.Species,
		X:          pos.X,
		Y:          pos.Y,
		Parents:    parents,
	}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(tick int32, org components.Organism, pos components.Position, cause systems.DeathCause, killerID uint32) Event {
	return Event{
		Type:       EventDeath,
		Tick:       tick,
		OrganismID: org.ID,
		Species:    org.Species,
		X:          pos.X,
		Y:          pos.Y,
		Cause:      cause,
		KillerID:   killerID,
	}
}
