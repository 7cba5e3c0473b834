package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

func TestIntegrate(t *testing.T) {
	tests := []struct {
		name string
		pos  components.Position
		move components.Movement
		want components.Position
	}{
		{"full step", components.Position{X: 10, Y: 10}, components.Movement{Dir: mgl32.Vec2{1, 0}, Speed: 5}, components.Position{X: 15, Y: 10}},
		{"stops on target", components.Position{}, components.Movement{Dir: mgl32.Vec2{1, 0}, Speed: 10, Range: 5}, components.Position{X: 5}},
		{"range longer than step", components.Position{}, components.Movement{Dir: mgl32.Vec2{0, 1}, Speed: 2, Range: 5}, components.Position{Y: 2}},
		{"clamped low", components.Position{X: 1, Y: 50}, components.Movement{Dir: mgl32.Vec2{-1, 0}, Speed: 10}, components.Position{X: 0, Y: 50}},
		{"clamped high", components.Position{X: 50, Y: 95}, components.Movement{Dir: mgl32.Vec2{0, 1}, Speed: 10}, components.Position{X: 50, Y: 100}},
		{"standing", components.Position{X: 3, Y: 4}, components.Movement{Speed: 10}, components.Position{X: 3, Y: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := tt.pos
			Integrate(&pos, tt.move, 1, 100, 100)
			if pos != tt.want {
				t.Errorf("got %v, want %v", pos, tt.want)
			}
		})
	}
}

func TestSmooth(t *testing.T) {
	vis := components.VisualPosition{}
	Smooth(&vis, components.Position{X: 10, Y: 20}, 5, 0.1)
	if vis.X != 5 || vis.Y != 10 {
		t.Errorf("half-way smoothing gave %+v", vis)
	}
	Smooth(&vis, components.Position{X: 10, Y: 20}, 100, 1)
	if vis.X != 10 || vis.Y != 20 {
		t.Errorf("saturated smoothing gave %+v", vis)
	}
}

func TestMovementSystemParallel(t *testing.T) {
	tw := newTestWorld(t)
	pool := NewPool(4)
	defer pool.Stop()

	n := 300
	for i := 0; i < n; i++ {
		e := tw.herbivore(float32(i), 500, 10, 50)
		tw.moveMap.Get(e).Dir = mgl32.Vec2{0, 1}
	}
	NewMovement(tw.world, 1000, 1000, 12, pool).Update(0.5)

	tw.herbivores.Each(func(e ecs.Entity, _ components.Position) {
		if got := tw.posMap.Get(e).Y; got != 505 {
			t.Errorf("entity %d at y=%v, want 505", e.ID(), got)
		}
	})
}
