package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// IndexSync copies the positions of every entity tagged S into its index.
// It runs once per tick, after movement, so queries during the next tick
// see end-of-tick positions.
type IndexSync[S any] struct {
	filter *ecs.Filter2[components.Position, S]
	index  *SpatialIndex
}

// NewIndexSync creates a sync pass for one species index.
func NewIndexSync[S any](w *ecs.World, index *SpatialIndex) *IndexSync[S] {
	return &IndexSync[S]{
		filter: ecs.NewFilter2[components.Position, S](w),
		index:  index,
	}
}

// Update refreshes every indexed position. An entity with the tag but no
// index entry means the birth hook was bypassed; the first such error is
// returned after the full pass.
func (s *IndexSync[S]) Update() error {
	var first error
	query := s.filter.Query()
	for query.Next() {
		pos, _ := query.Get()
		if err := s.index.Update(query.Entity(), *pos); err != nil && first == nil {
			first = err
		}
	}
	return first
}
