package main

import (
	"testing"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/game"
)

func view(s components.Species, b components.Behavior, x, y float32) game.AgentView {
	return game.AgentView{Species: s, Behavior: b, Pos: components.Position{X: x, Y: y}}
}

func TestRasterPlacement(t *testing.T) {
	r := newRaster(10, 5, 100, 50)

	tests := []struct {
		name string
		x, y float32
		col  int
		row  int
	}{
		{"origin", 0, 0, 0, 0},
		{"center", 50, 25, 5, 2},
		{"far edge clamps", 100, 50, 9, 4},
		{"outside clamps", -5, 80, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.reset()
			r.add(view(components.SpeciesProducer, components.BehaviorGrowing, tt.x, tt.y))
			if c := r.at(tt.col, tt.row); !c.set || c.count != 1 {
				t.Errorf("cell (%d,%d) = %+v, want one producer", tt.col, tt.row, c)
			}
		})
	}
}

func TestRasterDominantSpecies(t *testing.T) {
	r := newRaster(4, 4, 40, 40)
	r.add(view(components.SpeciesProducer, components.BehaviorGrowing, 1, 1))
	r.add(view(components.SpeciesPredator, components.BehaviorHunting, 2, 2))
	r.add(view(components.SpeciesHerbivore, components.BehaviorFleeing, 3, 3))

	c := r.at(0, 0)
	if c.species != components.SpeciesPredator || c.behavior != components.BehaviorHunting {
		t.Errorf("cell = %+v, want hunting predator", c)
	}
	if c.count != 3 {
		t.Errorf("count = %d, want 3", c.count)
	}
	if glyphs[c.species] != 'X' {
		t.Errorf("glyph = %q", glyphs[c.species])
	}
}
