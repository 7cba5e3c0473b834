package game

import (
	"fmt"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ecosim/camera"
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/inspector"
	"github.com/pthm-cable/ecosim/telemetry"
	"github.com/pthm-cable/ecosim/ui"
)

// Draw sizes in world units.
const (
	producerRadius = 3
	consumerRadius = 6
	maxSpeed       = 50
)

var speciesOutline = [components.NumSpecies]rl.Color{
	components.SpeciesProducer:  {R: 20, G: 90, B: 30, A: 255},
	components.SpeciesHerbivore: {R: 245, G: 245, B: 235, A: 255},
	components.SpeciesPredator:  {R: 255, G: 140, B: 0, A: 255},
}

// initViewer creates the camera and panels. The raylib window must exist.
func (g *Game) initViewer() {
	cfg := g.cfg
	g.screenWidth = cfg.Derived.ScreenW32
	g.screenHeight = cfg.Derived.ScreenH32
	g.camera = camera.New(g.screenWidth, g.screenHeight, cfg.Derived.WorldW32, cfg.Derived.WorldH32)
	g.camera.FitWorld()

	g.hud = ui.NewHUD()
	g.overlays = ui.NewOverlayRegistry()
	g.controls = ui.NewControlsPanel(10, 100, 200, maxSpeed)
	g.perfPanel = ui.NewPerfPanel(0, 0)
	g.inspector = ui.NewInspector(0, 0, 240)
	g.layoutPanels()
}

// layoutPanels anchors the right-hand panels to the screen size.
func (g *Game) layoutPanels() {
	right := int32(g.screenWidth) - 250
	g.inspector.SetPosition(right, 10)
	g.perfPanel.SetPosition(right, int32(g.screenHeight)-160)
}

// Update handles input and advances the simulation for one frame.
func (g *Game) Update() {
	if !g.headless {
		g.handleInput()
	}
	g.UpdateHeadless()
}

// Draw renders the game.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 18, G: 22, B: 16, A: 255})

	g.drawWorldBounds()
	if g.overlays.IsEnabled(ui.OverlayGrid) {
		g.drawGrid()
	}
	g.drawEntities()
	g.drawSelection()

	g.hud.Draw(ui.HUDData{
		Title:     "Ecosim",
		Counts:    g.counts,
		Tick:      g.tick,
		SimTime:   float32(g.tick) * g.dt,
		Speed:     g.stepsPerUpdate,
		FPS:       rl.GetFPS(),
		Paused:    g.paused,
		Anomalies: g.anomalies,
	})

	result := g.controls.Draw(ui.ControlsState{Paused: g.paused, Speed: g.stepsPerUpdate}, g.overlays)
	g.paused = result.State.Paused
	g.SetStepsPerUpdate(result.State.Speed)
	if result.Step && g.paused {
		g.Step()
	}
	if result.Snapshot {
		g.snapshotNow()
	}
	if result.FitWorld {
		g.camera.FitWorld()
	}

	if g.overlays.IsEnabled(ui.OverlayLegend) {
		g.hud.DrawLegend(10, int32(g.screenHeight)-200)
	}
	g.drawInspector()

	stats := g.perfCollector.Stats()
	g.perfPanel.Draw(ui.PerfPanelData{
		Phases:   telemetry.Phases,
		Times:    stats.PhaseAvg,
		Total:    stats.AvgTickDuration,
		TPS:      stats.TicksPerSecond,
		Registry: g.registry,
	})

	g.hud.DrawControls(int32(g.screenHeight), "[Space] pause  [</>] speed  [WASD] pan  [wheel] zoom  [Tab] panel  [P] snapshot  [click] select")

	rl.EndDrawing()
}

func (g *Game) drawWorldBounds() {
	x0, y0 := g.camera.WorldToScreen(0, 0)
	x1, y1 := g.camera.WorldToScreen(g.cfg.Derived.WorldW32, g.cfg.Derived.WorldH32)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 2, rl.DarkGray)
}

func (g *Game) drawGrid() {
	cell := float32(g.cfg.Physics.GridCellSize)
	minX, minY, maxX, maxY := g.camera.VisibleWorldBounds()
	gridColor := rl.Color{R: 60, G: 60, B: 60, A: 120}

	for x := float32(int(minX/cell)) * cell; x <= maxX; x += cell {
		sx, sy0 := g.camera.WorldToScreen(x, minY)
		_, sy1 := g.camera.WorldToScreen(x, maxY)
		rl.DrawLine(int32(sx), int32(sy0), int32(sx), int32(sy1), gridColor)
	}
	for y := float32(int(minY/cell)) * cell; y <= maxY; y += cell {
		sx0, sy := g.camera.WorldToScreen(minX, y)
		sx1, _ := g.camera.WorldToScreen(maxX, y)
		rl.DrawLine(int32(sx0), int32(sy), int32(sx1), int32(sy), gridColor)
	}
}

// drawEntities renders every visible entity colored by its behavior.
func (g *Game) drawEntities() {
	zoom := g.camera.Zoom
	showTargets := g.overlays.IsEnabled(ui.OverlayTargets)
	showFlee := g.overlays.IsEnabled(ui.OverlayFleeRadius)
	showMate := g.overlays.IsEnabled(ui.OverlayMateRadius)

	g.Agents(func(v AgentView) bool {
		radius := float32(consumerRadius)
		if v.Species == components.SpeciesProducer {
			radius = producerRadius
		}
		x, y := v.Visual.X, v.Visual.Y
		if !g.camera.IsVisible(x, y, radius) {
			return true
		}
		sx, sy := g.camera.WorldToScreen(x, y)
		r := max(radius*zoom, 1.5)

		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, toRL(v.Behavior.Color()))
		if v.Species != components.SpeciesProducer {
			rl.DrawCircleLines(int32(sx), int32(sy), r, speciesOutline[v.Species])
		}

		if showFlee && v.Species == components.SpeciesPredator {
			rl.DrawCircleLines(int32(sx), int32(sy), float32(g.cfg.Evasion.FleeRadius)*zoom, rl.Color{R: 80, G: 170, B: 255, A: 90})
		}
		if showMate && v.Behavior == components.BehaviorSearchingMate {
			cc := g.consumerCfgs[v.Species]
			rl.DrawCircleLines(int32(sx), int32(sy), float32(cc.Reproduction.Radius)*zoom, rl.Color{R: 240, G: 110, B: 200, A: 90})
		}
		if showTargets && v.Target != 0 {
			g.drawTargetLine(v, sx, sy)
		}
		return true
	})
}

// drawTargetLine connects an entity to its prey or mate.
func (g *Game) drawTargetLine(v AgentView, sx, sy float32) {
	agent := g.agentMap.Get(v.Entity)
	if !g.world.Alive(agent.Target) {
		return
	}
	tp := g.posMap.Get(agent.Target)
	tx, ty := g.camera.WorldToScreen(tp.X, tp.Y)
	c := toRL(v.Behavior.Color())
	c.A = 140
	rl.DrawLineV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: tx, Y: ty}, c)
}

func (g *Game) drawSelection() {
	if g.selected.IsZero() || !g.world.Alive(g.selected) {
		return
	}
	pos := g.posMap.Get(g.selected)
	sx, sy := g.camera.WorldToScreen(pos.X, pos.Y)
	rl.DrawCircleLines(int32(sx), int32(sy), consumerRadius*g.camera.Zoom+4, rl.Yellow)
}

// drawInspector shows the components of the selected entity.
func (g *Game) drawInspector() {
	if g.selected.IsZero() {
		return
	}
	v, ok := g.View(g.selected)
	if !ok {
		return
	}
	e := g.selected

	sections := []inspector.Named{
		{Name: "Organism", Value: g.orgMap.Get(e)},
		{Name: "Health", Value: g.healthMap.Get(e)},
		{Name: "Age", Value: g.ageMap.Get(e)},
	}
	if v.Species == components.SpeciesProducer {
		sections = append(sections, inspector.Named{Name: "Sprout", Value: g.sproutMap.Get(e)})
	} else {
		sections = append(sections,
			inspector.Named{Name: "Energy", Value: g.energyMap.Get(e)},
			inspector.Named{Name: "Agent", Value: g.agentMap.Get(e)},
			inspector.Named{Name: "Evader", Value: g.evaderMap.Get(e)},
		)
	}

	g.inspector.Draw(ui.InspectorData{
		Title:    fmt.Sprintf("%s #%d", v.Species, v.ID),
		Subtitle: v.Behavior.String(),
		Color:    toRL(v.Behavior.Color()),
		Sections: inspector.Inspect(sections...),
	})
}

func toRL(c color.RGBA) rl.Color {
	return rl.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
