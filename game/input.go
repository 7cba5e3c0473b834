package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// selectRadius is how far from the cursor a click may land, in screen pixels.
const selectRadius = 12

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyComma) {
		g.SetStepsPerUpdate(g.stepsPerUpdate - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		g.SetStepsPerUpdate(g.stepsPerUpdate + 1)
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.snapshotNow()
	}

	g.overlays.HandleKeys()
	g.handleCameraInput()

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		mouse := rl.GetMousePosition()
		if !g.controls.Contains(mouse.X, mouse.Y) {
			g.selected = g.entityAt(mouse.X, mouse.Y)
		}
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.camera.Resize(w, h)
	g.layoutPanels()
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Pan speed in screen pixels per frame
	panSpeed := float32(10.0)

	if rl.IsKeyDown(rl.KeyRight) || rl.IsKeyDown(rl.KeyD) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) || rl.IsKeyDown(rl.KeyA) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) || rl.IsKeyDown(rl.KeyS) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) || rl.IsKeyDown(rl.KeyW) {
		g.camera.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		mouse := rl.GetMousePosition()
		g.camera.ZoomAt(1+wheel*0.1, mouse.X, mouse.Y)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// entityAt returns the consumer or producer closest to a screen point.
func (g *Game) entityAt(sx, sy float32) ecs.Entity {
	wx, wy := g.camera.ScreenToWorld(sx, sy)
	pos := components.Position{X: wx, Y: wy}
	limit := selectRadius / g.camera.Zoom

	var best ecs.Entity
	bestD := limit * limit
	for _, index := range []int{int(components.SpeciesPredator), int(components.SpeciesHerbivore), int(components.SpeciesProducer)} {
		e, ok := g.indices[index].Nearest(pos)
		if !ok {
			continue
		}
		p, _ := g.indices[index].Pos(e)
		if d := pos.DistSq(p); d < bestD {
			best, bestD = e, d
		}
	}
	return best
}

// snapshotNow writes a snapshot to the snapshot directory, or the
// output directory when none was given.
func (g *Game) snapshotNow() {
	dir := g.snapshotDir
	if dir == "" && g.outputManager != nil {
		dir = g.outputManager.Dir()
	}
	if dir == "" {
		dir = "snapshots"
	}
	path, err := g.SaveSnapshot(dir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}
