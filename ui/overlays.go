package ui

import (
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayTargets    OverlayID = "targets"
	OverlayFleeRadius OverlayID = "flee_radius"
	OverlayMateRadius OverlayID = "mate_radius"
	OverlayGrid       OverlayID = "grid"
	OverlayLegend     OverlayID = "legend"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID
	Name        string
	Description string
	Key         int32  // keyboard key to toggle (0 = no key)
	KeyLabel    string // key label for display (e.g., "T")
	Category    string // grouping (e.g., "behavior", "debug")
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	byID    map[OverlayID]OverlayDescriptor
	enabled map[OverlayID]bool
	order   []OverlayID // insertion order for display
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	reg.enabled[OverlayLegend] = true
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID: OverlayTargets, Name: "Targets", Description: "Lines from hunters to prey and between mates",
		Key: rl.KeyT, KeyLabel: "T", Category: "behavior",
	})
	r.Register(OverlayDescriptor{
		ID: OverlayFleeRadius, Name: "Flee Radius", Description: "Predator threat radius",
		Key: rl.KeyF, KeyLabel: "F", Category: "behavior",
	})
	r.Register(OverlayDescriptor{
		ID: OverlayMateRadius, Name: "Mate Radius", Description: "Distance at which partners start mating",
		Key: rl.KeyM, KeyLabel: "M", Category: "behavior",
	})
	r.Register(OverlayDescriptor{
		ID: OverlayGrid, Name: "Index Grid", Description: "Spatial index cells",
		Key: rl.KeyG, KeyLabel: "G", Category: "debug",
	})
	r.Register(OverlayDescriptor{
		ID: OverlayLegend, Name: "Legend", Description: "Behavior colors",
		Key: rl.KeyL, KeyLabel: "L", Category: "debug",
	})
}

// Register adds an overlay descriptor.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	if _, exists := r.byID[desc.ID]; !exists {
		r.order = append(r.order, desc.ID)
	}
	r.byID[desc.ID] = desc
}

// Toggle flips an overlay and returns its new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// IsEnabled reports whether an overlay is on.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns descriptors in a category, in registration order.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, id := range r.order {
		if d := r.byID[id]; d.Category == category {
			result = append(result, d)
		}
	}
	return result
}

// Categories returns the categories in first-seen order.
func (r *OverlayRegistry) Categories() []string {
	var cats []string
	for _, id := range r.order {
		if c := r.byID[id].Category; !slices.Contains(cats, c) {
			cats = append(cats, c)
		}
	}
	return cats
}

// HandleKeys toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) HandleKeys() {
	for _, id := range r.order {
		if d := r.byID[id]; d.Key != 0 && rl.IsKeyPressed(d.Key) {
			r.Toggle(id)
		}
	}
}
