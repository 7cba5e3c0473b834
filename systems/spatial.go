// Package systems provides ECS systems for the simulation.
package systems

import (
	"cmp"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// Neighbor holds a nearby entity with its precomputed squared distance.
type Neighbor struct {
	E      ecs.Entity
	DistSq float32
}

// indexEntry is the cached position of one entity and the cell it lives in.
type indexEntry struct {
	pos  components.Position
	cell int
}

// SpatialIndex maps entities of one species to their last synced position
// and buckets them in a uniform grid for nearest and radius queries.
//
// Queries are safe to run concurrently with each other. Insert, Remove and
// Update are not, and are only called at barriers.
type SpatialIndex struct {
	cellSize float32
	cols     int
	rows     int
	cells    [][]ecs.Entity
	entries  map[ecs.Entity]indexEntry
}

// NewSpatialIndex creates an index covering the given world size.
func NewSpatialIndex(width, height, cellSize float32) *SpatialIndex {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 4)
	}

	return &SpatialIndex{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
		entries:  make(map[ecs.Entity]indexEntry),
	}
}

// Len returns the number of indexed entities.
func (s *SpatialIndex) Len() int {
	return len(s.entries)
}

// Has reports whether e is indexed.
func (s *SpatialIndex) Has(e ecs.Entity) bool {
	_, ok := s.entries[e]
	return ok
}

// Pos returns the last synced position of e.
func (s *SpatialIndex) Pos(e ecs.Entity) (components.Position, bool) {
	entry, ok := s.entries[e]
	return entry.pos, ok
}

// Insert adds e at pos. Inserting an entity twice is an invariant violation.
func (s *SpatialIndex) Insert(e ecs.Entity, pos components.Position) error {
	if _, dup := s.entries[e]; dup {
		return &InvariantError{Op: "index insert", Entity: e, Detail: "entity already indexed"}
	}
	cell := s.cellIndex(pos.X, pos.Y)
	s.cells[cell] = append(s.cells[cell], e)
	s.entries[e] = indexEntry{pos: pos, cell: cell}
	return nil
}

// Remove drops e. Removing an absent entity is an invariant violation.
func (s *SpatialIndex) Remove(e ecs.Entity) error {
	entry, ok := s.entries[e]
	if !ok {
		return &InvariantError{Op: "index remove", Entity: e, Detail: "entity not indexed"}
	}
	s.removeFromCell(entry.cell, e)
	delete(s.entries, e)
	return nil
}

// Update refreshes the cached position of e. The grid is only touched when
// the entity crossed into another cell.
func (s *SpatialIndex) Update(e ecs.Entity, pos components.Position) error {
	entry, ok := s.entries[e]
	if !ok {
		return &InvariantError{Op: "index update", Entity: e, Detail: "entity not indexed"}
	}
	cell := s.cellIndex(pos.X, pos.Y)
	if cell != entry.cell {
		s.removeFromCell(entry.cell, e)
		s.cells[cell] = append(s.cells[cell], e)
	}
	s.entries[e] = indexEntry{pos: pos, cell: cell}
	return nil
}

// Clear removes every entity.
func (s *SpatialIndex) Clear() {
	for i := range s.cells {
		s.cells[i] = s.cells[i][:0]
	}
	clear(s.entries)
}

// Nearest returns the entity closest to pos, breaking distance ties on the
// lowest entity ID. It expands square rings of cells outward from pos and
// falls back to a full scan once the rings have visited more cells than
// there are entities.
func (s *SpatialIndex) Nearest(pos components.Position) (ecs.Entity, bool) {
	return s.nearest(pos, ecs.Entity{}, false)
}

// NearestExcluding is Nearest ignoring one entity, typically the caller itself.
func (s *SpatialIndex) NearestExcluding(pos components.Position, exclude ecs.Entity) (ecs.Entity, bool) {
	return s.nearest(pos, exclude, true)
}

func (s *SpatialIndex) nearest(pos components.Position, exclude ecs.Entity, excluding bool) (ecs.Entity, bool) {
	n := len(s.entries)
	if excluding && s.Has(exclude) {
		n--
	}
	if n <= 0 {
		return ecs.Entity{}, false
	}

	cx, cy := s.cellCoords(pos.X, pos.Y)
	maxRing := max(cx, s.cols-1-cx, cy, s.rows-1-cy)

	var best ecs.Entity
	bestD := float32(-1)
	visited := 0

	for k := 0; k <= maxRing; k++ {
		s.forRing(cx, cy, k, func(cell int) {
			visited++
			for _, e := range s.cells[cell] {
				if excluding && e == exclude {
					continue
				}
				d := pos.DistSq(s.entries[e].pos)
				if bestD < 0 || d < bestD || (d == bestD && e.ID() < best.ID()) {
					best, bestD = e, d
				}
			}
		})

		// Anything in ring k+1 or beyond is at least k cells away.
		reach := float32(k) * s.cellSize
		if bestD >= 0 && bestD < reach*reach {
			return best, true
		}
		if visited >= n {
			return s.scanNearest(pos, exclude, excluding)
		}
	}

	return best, bestD >= 0
}

// scanNearest is the sparse fallback: a linear pass over every entry.
func (s *SpatialIndex) scanNearest(pos components.Position, exclude ecs.Entity, excluding bool) (ecs.Entity, bool) {
	var best ecs.Entity
	bestD := float32(-1)
	for e, entry := range s.entries {
		if excluding && e == exclude {
			continue
		}
		d := pos.DistSq(entry.pos)
		if bestD < 0 || d < bestD || (d == bestD && e.ID() < best.ID()) {
			best, bestD = e, d
		}
	}
	return best, bestD >= 0
}

// WithinRadiusInto appends every entity strictly closer than radius to dst,
// sorted by distance then entity ID. Reuse dst across calls to avoid
// allocations.
func (s *SpatialIndex) WithinRadiusInto(dst []Neighbor, pos components.Position, radius float32) []Neighbor {
	if len(s.entries) == 0 || radius <= 0 {
		return dst
	}
	start := len(dst)
	radiusSq := radius * radius

	minCol, minRow := s.cellCoords(pos.X-radius, pos.Y-radius)
	maxCol, maxRow := s.cellCoords(pos.X+radius, pos.Y+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, e := range s.cells[row*s.cols+col] {
				d := pos.DistSq(s.entries[e].pos)
				if d < radiusSq {
					dst = append(dst, Neighbor{E: e, DistSq: d})
				}
			}
		}
	}

	slices.SortFunc(dst[start:], compareNeighbors)
	return dst
}

// WithinRadius returns the entities strictly closer than radius to pos.
func (s *SpatialIndex) WithinRadius(pos components.Position, radius float32) []ecs.Entity {
	neighbors := s.WithinRadiusInto(nil, pos, radius)
	result := make([]ecs.Entity, len(neighbors))
	for i, n := range neighbors {
		result[i] = n.E
	}
	return result
}

// Each calls fn for every indexed entity in ascending ID order.
func (s *SpatialIndex) Each(fn func(e ecs.Entity, pos components.Position)) {
	keys := make([]ecs.Entity, 0, len(s.entries))
	for e := range s.entries {
		keys = append(keys, e)
	}
	slices.SortFunc(keys, func(a, b ecs.Entity) int { return cmp.Compare(a.ID(), b.ID()) })
	for _, e := range keys {
		fn(e, s.entries[e].pos)
	}
}

func compareNeighbors(a, b Neighbor) int {
	if c := cmp.Compare(a.DistSq, b.DistSq); c != 0 {
		return c
	}
	return cmp.Compare(a.E.ID(), b.E.ID())
}

// forRing visits the cells on the border of the square of radius k around
// (cx, cy), clipped to the grid.
func (s *SpatialIndex) forRing(cx, cy, k int, fn func(cell int)) {
	if k == 0 {
		fn(cy*s.cols + cx)
		return
	}
	for col := cx - k; col <= cx+k; col++ {
		if col < 0 || col >= s.cols {
			continue
		}
		if row := cy - k; row >= 0 {
			fn(row*s.cols + col)
		}
		if row := cy + k; row < s.rows {
			fn(row*s.cols + col)
		}
	}
	for row := cy - k + 1; row <= cy+k-1; row++ {
		if row < 0 || row >= s.rows {
			continue
		}
		if col := cx - k; col >= 0 {
			fn(row*s.cols + col)
		}
		if col := cx + k; col < s.cols {
			fn(row*s.cols + col)
		}
	}
}

func (s *SpatialIndex) removeFromCell(cell int, e ecs.Entity) {
	bucket := s.cells[cell]
	for i, other := range bucket {
		if other == e {
			last := len(bucket) - 1
			bucket[i] = bucket[last]
			s.cells[cell] = bucket[:last]
			return
		}
	}
}

// cellCoords returns the grid column and row for a world position,
// clamped to the grid.
func (s *SpatialIndex) cellCoords(x, y float32) (int, int) {
	col := int(x / s.cellSize)
	row := int(y / s.cellSize)

	if x < 0 {
		col = 0
	} else if col >= s.cols {
		col = s.cols - 1
	}
	if y < 0 {
		row = 0
	} else if row >= s.rows {
		row = s.rows - 1
	}
	return col, row
}

// cellIndex returns the flat index for a world position.
func (s *SpatialIndex) cellIndex(x, y float32) int {
	col, row := s.cellCoords(x, y)
	return row*s.cols + col
}
