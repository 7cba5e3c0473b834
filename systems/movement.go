package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// Integrate advances pos along the movement intent for one tick and clamps
// the result to the world rectangle.
func Integrate(pos *components.Position, move components.Movement, dt, width, height float32) {
	step := move.Speed * dt
	if move.Range > 0 && move.Range < step {
		step = move.Range
	}
	pos.X = clamp(pos.X+move.Dir[0]*step, 0, width)
	pos.Y = clamp(pos.Y+move.Dir[1]*step, 0, height)
}

// Smooth moves the visual position a fraction of the way toward pos.
func Smooth(vis *components.VisualPosition, pos components.Position, rate, dt float32) {
	alpha := min(rate*dt, 1)
	vis.X += (pos.X - vis.X) * alpha
	vis.Y += (pos.Y - vis.Y) * alpha
}

// Movement integrates every mobile entity once per tick, after all
// behaviors have written their intent.
type Movement struct {
	filter *ecs.Filter2[components.Position, components.Movement]
	visual *ecs.Filter2[components.VisualPosition, components.Position]
	pool   *Pool

	width, height float32
	smoothing     float32

	positions []*components.Position
	moves     []*components.Movement
}

// NewMovement creates the movement system for a world of the given size.
func NewMovement(w *ecs.World, width, height, smoothing float32, pool *Pool) *Movement {
	return &Movement{
		filter:    ecs.NewFilter2[components.Position, components.Movement](w),
		visual:    ecs.NewFilter2[components.VisualPosition, components.Position](w),
		pool:      pool,
		width:     width,
		height:    height,
		smoothing: smoothing,
	}
}

// Update integrates positions. Each worker writes only the components of
// its own chunk, and no structural change happens while it runs.
func (s *Movement) Update(dt float32) {
	s.positions = s.positions[:0]
	s.moves = s.moves[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, move := query.Get()
		s.positions = append(s.positions, pos)
		s.moves = append(s.moves, move)
	}

	s.pool.Run(len(s.positions), func(start, end, _ int) {
		for i := start; i < end; i++ {
			Integrate(s.positions[i], *s.moves[i], dt, s.width, s.height)
		}
	})
}

// UpdateVisual eases every visual position toward its simulation position.
func (s *Movement) UpdateVisual(dt float32) {
	query := s.visual.Query()
	for query.Next() {
		vis, pos := query.Get()
		Smooth(vis, *pos, s.smoothing, dt)
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
