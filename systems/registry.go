package systems

// SystemInfo describes one phase of the tick for display. ID matches the
// phase name the perf collector times.
type SystemInfo struct {
	ID          string
	Name        string
	Description string
	Systems     []string // systems run in this phase, in order
}

// SystemRegistry lists the tick phases so the perf panel can label them.
type SystemRegistry struct {
	phases []SystemInfo
	byID   map[string]int
}

// NewSystemRegistry creates a registry holding every phase in tick order.
func NewSystemRegistry() *SystemRegistry {
	r := &SystemRegistry{byID: make(map[string]int)}

	r.Register(SystemInfo{ID: "lifecycle", Name: "Lifecycle",
		Description: "Ages entities, drains energy and grows producers",
		Systems:     []string{"Lifecycle", "Growth"}})
	r.Register(SystemInfo{ID: "hunting", Name: "Hunting",
		Description: "Chases, attacks and eats prey",
		Systems:     []string{"Hunting[Herbivore,Producer]", "Hunting[Predator,Herbivore]"}})
	r.Register(SystemInfo{ID: "reproduction", Name: "Reproduction",
		Description: "Pairs and mates consumers",
		Systems:     []string{"Reproduction[Herbivore]", "Reproduction[Predator]"}})
	r.Register(SystemInfo{ID: "evasion", Name: "Evasion",
		Description: "Flees from nearby predators",
		Systems:     []string{"Evasion[Herbivore,Predator]"}})
	r.Register(SystemInfo{ID: "movement", Name: "Movement",
		Description: "Integrates movement intent",
		Systems:     []string{"Movement"}})
	r.Register(SystemInfo{ID: "resync", Name: "Index Sync",
		Description: "Refreshes spatial indices and smooths rendered positions",
		Systems:     []string{"IndexSync[Herbivore]", "IndexSync[Predator]", "Movement.UpdateVisual"}})
	r.Register(SystemInfo{ID: "flush", Name: "Flush",
		Description: "Applies deferred despawns and spawns",
		Systems:     []string{"Commands"}})
	r.Register(SystemInfo{ID: "telemetry", Name: "Telemetry",
		Description: "Flushes stats windows and bookmarks"})
	return r
}

// Register adds a phase. Registering an existing ID replaces it in place.
func (r *SystemRegistry) Register(info SystemInfo) {
	if i, ok := r.byID[info.ID]; ok {
		r.phases[i] = info
		return
	}
	r.byID[info.ID] = len(r.phases)
	r.phases = append(r.phases, info)
}

// Get returns phase info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	i, ok := r.byID[id]
	if !ok {
		return SystemInfo{}, false
	}
	return r.phases[i], true
}

// GetName returns the display name for a phase ID, or the ID itself.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.Get(id); ok {
		return info.Name
	}
	return id
}

// All returns every phase in tick order.
func (r *SystemRegistry) All() []SystemInfo {
	return r.phases
}
