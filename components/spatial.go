package components

import "github.com/go-gl/mathgl/mgl32"

// Position is the authoritative world position used by every spatial query.
type Position struct {
	X, Y float32
}

// Vec returns the position as a vector.
func (p Position) Vec() mgl32.Vec2 {
	return mgl32.Vec2{p.X, p.Y}
}

// DistSq returns the squared Euclidean distance to q.
func (p Position) DistSq(q Position) float32 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	return dx*dx + dy*dy
}

// Midpoint returns the arithmetic midpoint of p and q.
func (p Position) Midpoint(q Position) Position {
	return Position{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// VisualPosition trails Position for smooth presentation.
// Nothing in the simulation reads it.
type VisualPosition struct {
	X, Y float32
}

// Movement is the per-tick intent written by whichever behavior owns the entity.
type Movement struct {
	Dir   mgl32.Vec2 `inspect:"skip"`           // unit vector or zero
	Speed float32    `inspect:"label,fmt:%.1f"`
	Range float32    `inspect:"label,fmt:%.1f"` // >0 caps travel this tick
}

// Stop zeroes the intent.
func (m *Movement) Stop() {
	m.Dir = mgl32.Vec2{}
	m.Range = 0
}

// Toward points the intent from `from` to `to` and caps travel at the gap,
// so the mover lands on the target instead of overshooting.
func (m *Movement) Toward(from, to Position) {
	d := to.Vec().Sub(from.Vec())
	dist := d.Len()
	if dist == 0 {
		m.Stop()
		return
	}
	m.Dir = d.Mul(1 / dist)
	m.Range = dist
}
