package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsState is the viewer state the controls panel edits.
type ControlsState struct {
	Paused bool
	Speed  int // ticks per frame
}

// ControlsResult reports what the user asked for this frame.
type ControlsResult struct {
	State    ControlsState
	Step     bool // advance exactly one tick while paused
	Snapshot bool // write a snapshot now
	FitWorld bool
}

// ControlsPanel renders the raygui control panel with playback buttons,
// a speed slider and the overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
	maxSpeed int
	drawnH   int32 // height at the last Draw
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32, maxSpeed int) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
		maxSpeed: maxSpeed,
	}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Contains reports whether a screen point is over the panel, so clicks
// there are not treated as world selection.
func (c *ControlsPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x <= float32(c.x+c.width) &&
		y >= float32(c.y) && y <= float32(c.y+c.drawnH)
}

func (c *ControlsPanel) height(overlays *OverlayRegistry) int32 {
	items := int32(6)
	if overlays != nil {
		for _, cat := range overlays.Categories() {
			items += int32(len(overlays.ByCategory(cat))) + 1
		}
	}
	return items*24 + c.renderer.Theme.Padding*2
}

// Draw renders the panel and returns the edited state.
func (c *ControlsPanel) Draw(state ControlsState, overlays *OverlayRegistry) ControlsResult {
	result := ControlsResult{State: state}
	if !c.visible {
		return result
	}

	r := c.renderer
	pad := float32(r.Theme.Padding)
	x := float32(c.x) + pad
	y := float32(c.y) + pad
	w := float32(c.width) - 2*pad
	half := (w - 6) / 2

	c.drawnH = c.height(overlays)
	r.DrawPanel(c.x, c.y, c.width, c.drawnH)

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += 24

	pauseText := "Pause"
	if state.Paused {
		pauseText = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 20}, pauseText) {
		result.State.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 20}, "Step") {
		result.Step = true
	}
	y += 26

	rl.DrawText(fmt.Sprintf("Speed: %dx", state.Speed), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += 16
	speed := gui.SliderBar(rl.Rectangle{X: x + 12, Y: y, Width: w - 36, Height: 16},
		"1", fmt.Sprint(c.maxSpeed), float32(state.Speed), 1, float32(c.maxSpeed))
	result.State.Speed = int(speed + 0.5)
	y += 26

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 20}, "Snapshot") {
		result.Snapshot = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 20}, "Fit World") {
		result.FitWorld = true
	}
	y += 30

	if overlays == nil {
		return result
	}
	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), int32(x), int32(y), r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += 20
		for _, desc := range overlays.ByCategory(category) {
			mark := "[ ]"
			if overlays.IsEnabled(desc.ID) {
				mark = "[x]"
			}
			label := fmt.Sprintf("%s %s (%s)", mark, desc.Name, desc.KeyLabel)
			if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: 20}, label) {
				overlays.Toggle(desc.ID)
			}
			y += 24
		}
	}
	return result
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "behavior":
		return "Behavior"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}
