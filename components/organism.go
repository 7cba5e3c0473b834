package components

// Species identifies which rules and which spatial index an entity belongs to.
type Species uint8

const (
	SpeciesProducer Species = iota
	SpeciesHerbivore
	SpeciesPredator
	NumSpecies
)

func (s Species) String() string {
	switch s {
	case SpeciesProducer:
		return "producer"
	case SpeciesHerbivore:
		return "herbivore"
	case SpeciesPredator:
		return "predator"
	default:
		return "unknown"
	}
}

// Species tags. Each is attached to exactly the entities of that species.
type (
	Producer  struct{}
	Herbivore struct{}
	Predator  struct{}
)

// Organism holds identity that survives ark's entity recycling.
type Organism struct {
	ID       uint32  `inspect:"label"`
	Species  Species `inspect:"label"`
	BornTick int32   `inspect:"label"`
}

// Health decreases only under attack.
type Health struct {
	Value float32 `inspect:"bar,max:100"`
}

// Energy decays every tick and is replenished only by eating.
type Energy struct {
	Value float32 `inspect:"bar,max:200"`
}

// Age counts up to Lifetime.
type Age struct {
	Elapsed  float32 `inspect:"label,fmt:%.1fs"`
	Lifetime float32 `inspect:"label,fmt:%.0fs"`
}

// Expired reports whether the entity has reached its lifetime.
func (a Age) Expired() bool {
	return a.Elapsed >= a.Lifetime
}

// Sprout drives producer growth. Neighbors is kept current by the
// birth/death hook, not recomputed.
type Sprout struct {
	Timer     float32 `inspect:"label,fmt:%.1fs"` // seconds until the next growth roll
	Neighbors int32   `inspect:"label"`
}
