package main

import (
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/game"
)

// glyphs per species. Higher species win a shared cell.
var glyphs = [components.NumSpecies]rune{
	components.SpeciesProducer:  '.',
	components.SpeciesHerbivore: 'o',
	components.SpeciesPredator:  'X',
}

// cell is one terminal character of the world view.
type cell struct {
	set      bool
	species  components.Species
	behavior components.Behavior
	count    int
}

// raster maps the world onto a cols x rows character grid.
type raster struct {
	cols, rows     int
	worldW, worldH float32
	cells          []cell
}

func newRaster(cols, rows int, worldW, worldH float32) *raster {
	return &raster{
		cols:   cols,
		rows:   rows,
		worldW: worldW,
		worldH: worldH,
		cells:  make([]cell, cols*rows),
	}
}

func (r *raster) reset() {
	clear(r.cells)
}

// add records an entity. The most dangerous species in a cell is shown.
func (r *raster) add(v game.AgentView) {
	if r.cols == 0 || r.rows == 0 {
		return
	}
	x := min(max(int(v.Pos.X/r.worldW*float32(r.cols)), 0), r.cols-1)
	y := min(max(int(v.Pos.Y/r.worldH*float32(r.rows)), 0), r.rows-1)
	c := &r.cells[y*r.cols+x]
	c.count++
	if !c.set || v.Species > c.species {
		c.set = true
		c.species = v.Species
		c.behavior = v.Behavior
	}
}

func (r *raster) at(x, y int) cell {
	return r.cells[y*r.cols+x]
}
