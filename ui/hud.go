package ui

import (
	"fmt"
	"strconv"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Counts    [components.NumSpecies]int
	Tick      int32
	SimTime   float32 // seconds
	Speed     int
	FPS       int32
	Paused    bool
	Anomalies int
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Producers: %d | Herbivores: %d | Predators: %d",
			data.Counts[components.SpeciesProducer],
			data.Counts[components.SpeciesHerbivore],
			data.Counts[components.SpeciesPredator]),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Time: %.0fs | Speed: %dx | FPS: %d", data.Tick, data.SimTime, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 75, 16, rl.Yellow)
	if data.Anomalies > 0 {
		rl.DrawText(fmt.Sprintf("Anomalies: %d", data.Anomalies), 100, 75, 16, rl.Red)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// DrawLegend renders the behavior color key.
func (h *HUD) DrawLegend(x, y int32) {
	r := h.renderer
	height := int32(components.BehaviorCount())*r.Theme.LineHeight + r.Theme.Padding*2 + r.Theme.LineHeight
	r.DrawPanel(x, y, 150, height)

	y = r.DrawSectionHeader(x+r.Theme.Padding, y+r.Theme.Padding, "Behavior")
	for b := components.Behavior(0); int(b) < components.BehaviorCount(); b++ {
		c := b.Color()
		y = r.DrawColorSwatch(x+r.Theme.Padding, y, b.String(), rl.Color{R: c.R, G: c.G, B: c.B, A: c.A})
	}
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	Phases   []string
	Times    map[string]time.Duration
	Total    time.Duration
	TPS      float64
	Registry *systems.SystemRegistry
}

// PerfPanel renders the system performance panel.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(data PerfPanelData) {
	x, y := p.x, p.y

	rl.DrawText("System Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s  TPS: %.0f", data.Total.Round(time.Microsecond), data.TPS), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range data.Phases {
		avg := data.Times[name]
		pct := float64(0)
		if data.Total > 0 {
			pct = float64(avg) / float64(data.Total) * 100
		}

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		displayName := name
		if data.Registry != nil {
			displayName = data.Registry.GetName(name)
		}

		rl.DrawText(
			fmt.Sprintf("%-14s %8s %5.1f%%", displayName, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 1, 32)
}
