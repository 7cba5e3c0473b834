package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// DeathCause records why an entity was despawned.
type DeathCause uint8

const (
	CauseKilled DeathCause = iota
	CauseStarved
	CauseAged
)

func (c DeathCause) String() string {
	switch c {
	case CauseKilled:
		return "killed"
	case CauseStarved:
		return "starved"
	case CauseAged:
		return "aged"
	default:
		return "unknown"
	}
}

// Despawn is a deferred entity removal.
type Despawn struct {
	E      ecs.Entity
	Cause  DeathCause
	Killer ecs.Entity // set when Cause is CauseKilled
}

// Spawn is a deferred entity creation. Parents holds the organism IDs of
// the parents, zero when absent.
type Spawn struct {
	Species components.Species
	Pos     components.Position
	Parents [2]uint32
}

// Commands buffers structural changes until the next barrier.
// It is filled from the sequential apply step of a system, never from
// inside the parallel per-entity work.
type Commands struct {
	despawns []Despawn
	pending  map[ecs.Entity]struct{}
	spawns   []Spawn

	// Double buffers so a barrier can queue follow-up changes while it
	// walks the drained batch.
	spareDespawns []Despawn
	spareSpawns   []Spawn
}

// NewCommands creates an empty buffer.
func NewCommands() *Commands {
	return &Commands{pending: make(map[ecs.Entity]struct{})}
}

// Despawn schedules e for removal. It returns false if e was already
// scheduled, which makes the first caller the owner of the death: a kill is
// credited only to the hunter whose Despawn call succeeded.
func (c *Commands) Despawn(e ecs.Entity, cause DeathCause) bool {
	return c.despawn(Despawn{E: e, Cause: cause})
}

// Kill is Despawn with the killer recorded.
func (c *Commands) Kill(e, killer ecs.Entity) bool {
	return c.despawn(Despawn{E: e, Cause: CauseKilled, Killer: killer})
}

func (c *Commands) despawn(d Despawn) bool {
	if _, dup := c.pending[d.E]; dup {
		return false
	}
	c.pending[d.E] = struct{}{}
	c.despawns = append(c.despawns, d)
	return true
}

// Pending reports whether e is scheduled for removal.
func (c *Commands) Pending(e ecs.Entity) bool {
	_, ok := c.pending[e]
	return ok
}

// Spawn schedules a new entity.
func (c *Commands) Spawn(s Spawn) {
	c.spawns = append(c.spawns, s)
}

// Len returns the number of buffered changes.
func (c *Commands) Len() int {
	return len(c.despawns) + len(c.spawns)
}

// Drain returns the buffered changes in issue order and resets the buffer.
// The returned slices stay valid until the next Drain.
func (c *Commands) Drain() ([]Despawn, []Spawn) {
	despawns, spawns := c.despawns, c.spawns
	c.despawns, c.spareDespawns = c.spareDespawns[:0], despawns
	c.spawns, c.spareSpawns = c.spareSpawns[:0], spawns
	clear(c.pending)
	return despawns, spawns
}
