package systems

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/pthm-cable/ecosim/components"
)

// MateParams are the per-species tunables of a Reproduction system.
type MateParams struct {
	Threshold    float32 // minimum energy to be proposed to
	Cost         float32 // energy each parent pays on completion
	SearchRadius float32 // maximum pairing distance
	Radius       float32 // partners start mating within this distance
	MatingTime   float32 // seconds spent mating
}

// ReproStats counts what happened during one Update.
type ReproStats struct {
	Paired    int // new pairs formed by the eligibility scan
	Completed int // pairs that finished mating
	Abandoned int // agents whose partner vanished or moved on
	Anomalies int // invariant violations recovered from
}

// Add accumulates other into s.
func (s *ReproStats) Add(other ReproStats) {
	s.Paired += other.Paired
	s.Completed += other.Completed
	s.Abandoned += other.Abandoned
	s.Anomalies += other.Anomalies
}

// Reproduction drives Idle -> SearchingMate -> Mating -> Idle for every
// entity tagged R.
//
// Each Update first pairs eligible candidates, then advances every existing
// relationship. A relationship is always symmetric: if A holds B as mate
// while B can hold a mate, B holds A. Pairs are advanced once, by their
// lower-ID member, so both sides change state in the same step.
type Reproduction[R any] struct {
	world   *ecs.World
	species components.Species
	filter  *ecs.Filter5[components.Position, components.Movement, components.Agent, components.Energy, R]

	posMap    *ecs.Map[components.Position]
	moveMap   *ecs.Map[components.Movement]
	agentMap  *ecs.Map[components.Agent]
	energyMap *ecs.Map[components.Energy]
	orgMap    *ecs.Map[components.Organism]

	index     *SpatialIndex
	params    MateParams
	onInvalid InvariantHandler

	candidates []mateCandidate
	engaged    []ecs.Entity
}

// NewReproduction creates a reproduction system for species R.
// onInvalid receives symmetry violations; nil means PanicOnInvariant.
func NewReproduction[R any](w *ecs.World, species components.Species, index *SpatialIndex, params MateParams, onInvalid InvariantHandler) *Reproduction[R] {
	if onInvalid == nil {
		onInvalid = PanicOnInvariant
	}
	return &Reproduction[R]{
		world:     w,
		species:   species,
		filter:    ecs.NewFilter5[components.Position, components.Movement, components.Agent, components.Energy, R](w),
		posMap:    ecs.NewMap[components.Position](w),
		moveMap:   ecs.NewMap[components.Movement](w),
		agentMap:  ecs.NewMap[components.Agent](w),
		energyMap: ecs.NewMap[components.Energy](w),
		orgMap:    ecs.NewMap[components.Organism](w),
		index:     index,
		params:    params,
		onInvalid: onInvalid,
	}
}

// Update pairs candidates and advances relationships by dt seconds.
// Offspring are queued on cmds.
func (s *Reproduction[R]) Update(dt float32, cmds *Commands) ReproStats {
	var stats ReproStats

	s.candidates = s.candidates[:0]
	s.engaged = s.engaged[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, _, agent, energy, _ := query.Get()
		e := query.Entity()
		switch agent.Reproduction() {
		case components.ReproIdle, components.ReproOtherCanMate:
			if energy.Value >= s.params.Threshold {
				s.candidates = append(s.candidates, mateCandidate{E: e, X: float64(pos.X), Y: float64(pos.Y)})
			}
		case components.ReproSearchingMate, components.ReproMating:
			s.engaged = append(s.engaged, e)
		}
	}

	for _, pair := range pairCandidates(s.candidates, float64(s.params.SearchRadius)) {
		s.agentMap.Get(pair[0]).ToSearchingMate(pair[1])
		s.agentMap.Get(pair[1]).ToSearchingMate(pair[0])
		s.moveMap.Get(pair[0]).Stop()
		s.moveMap.Get(pair[1]).Stop()
		s.engaged = append(s.engaged, pair[0], pair[1])
		stats.Paired++
	}

	slices.SortFunc(s.engaged, func(a, b ecs.Entity) int { return cmp.Compare(a.ID(), b.ID()) })
	for _, e := range s.engaged {
		s.advance(e, dt, cmds, &stats)
	}

	return stats
}

// advance moves one relationship forward. Only the lower-ID member of a
// healthy pair does the work.
func (s *Reproduction[R]) advance(e ecs.Entity, dt float32, cmds *Commands, stats *ReproStats) {
	agent := s.agentMap.Get(e)
	mate, ok := agent.Mate()
	if !ok {
		// Already handled as the partner of a lower-ID entity.
		return
	}

	if !s.world.Alive(mate) || !s.index.Has(mate) {
		s.abandon(e, stats)
		return
	}

	mateAgent := s.agentMap.Get(mate)
	back, engaged := mateAgent.Mate()
	switch {
	case !engaged || mateAgent.State != agent.State:
		s.abandon(e, stats)
		return
	case back != e:
		s.onInvalid(&InvariantError{
			Op:     "reproduction",
			Entity: e,
			Detail: fmt.Sprintf("mate %d is paired with %d", mate.ID(), back.ID()),
		})
		// Recovering policy: drop the malformed relationship on both sides.
		s.abandon(e, stats)
		s.abandon(mate, stats)
		stats.Anomalies++
		return
	case e.ID() > mate.ID():
		return
	}

	switch agent.State {
	case components.StateSearchingMate:
		s.search(e, mate, agent, mateAgent)
	case components.StateMating:
		s.mate(e, mate, agent, mateAgent, dt, cmds, stats)
	}
}

func (s *Reproduction[R]) search(e, mate ecs.Entity, agent, mateAgent *components.Agent) {
	pos, _ := s.index.Pos(e)
	matePos, _ := s.index.Pos(mate)
	move := s.moveMap.Get(e)
	mateMove := s.moveMap.Get(mate)

	radius := s.params.Radius
	if pos.DistSq(matePos) <= radius*radius {
		agent.ToMating(s.params.MatingTime)
		mateAgent.ToMating(s.params.MatingTime)
		move.Stop()
		mateMove.Stop()
		return
	}
	// Each side covers at most half the gap so the pair meets in the middle
	// instead of stepping past each other.
	move.Toward(pos, matePos)
	mateMove.Toward(matePos, pos)
	move.Range /= 2
	mateMove.Range /= 2
}

func (s *Reproduction[R]) mate(e, mate ecs.Entity, agent, mateAgent *components.Agent, dt float32, cmds *Commands, stats *ReproStats) {
	s.moveMap.Get(e).Stop()
	s.moveMap.Get(mate).Stop()

	agent.Timer -= dt
	mateAgent.Timer = agent.Timer
	if agent.Timer > 0 {
		return
	}

	s.energyMap.Get(e).Value -= s.params.Cost
	s.energyMap.Get(mate).Value -= s.params.Cost
	agent.ToIdle()
	mateAgent.ToIdle()

	mid := s.posMap.Get(e).Midpoint(*s.posMap.Get(mate))
	cmds.Spawn(Spawn{
		Species: s.species,
		Pos:     mid,
		Parents: [2]uint32{s.orgMap.Get(e).ID, s.orgMap.Get(mate).ID},
	})
	stats.Completed++
}

func (s *Reproduction[R]) abandon(e ecs.Entity, stats *ReproStats) {
	if !s.world.Alive(e) {
		return
	}
	s.agentMap.Get(e).ToIdle()
	s.moveMap.Get(e).Stop()
	stats.Abandoned++
}

// CheckSymmetry returns an error for the first relationship that is not
// mirrored by a living partner in a state that can hold a mate.
func (s *Reproduction[R]) CheckSymmetry() error {
	query := s.filter.Query()
	var err error
	for query.Next() {
		_, _, agent, _, _ := query.Get()
		if err != nil {
			continue
		}
		mate, ok := agent.Mate()
		if !ok || !s.world.Alive(mate) {
			continue
		}
		back, engaged := s.agentMap.Get(mate).Mate()
		if engaged && back != query.Entity() {
			err = &InvariantError{
				Op:     "reproduction symmetry",
				Entity: query.Entity(),
				Detail: fmt.Sprintf("mate %d points at %d", mate.ID(), back.ID()),
			}
		}
	}
	return err
}

// ---------- kd-tree pairing ----------

// mateCandidate is a kd-tree point carrying its entity.
type mateCandidate struct {
	E    ecs.Entity
	X, Y float64
	slot int // index into the ID-ordered candidate list
}

func (p mateCandidate) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(mateCandidate)
	if d == 0 {
		return p.X - q.X
	}
	return p.Y - q.Y
}

func (p mateCandidate) Dims() int { return 2 }

// Distance returns the squared Euclidean distance, as gonum's keepers expect.
func (p mateCandidate) Distance(c kdtree.Comparable) float64 {
	q := c.(mateCandidate)
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// mateCandidates implements kdtree.Interface.
type mateCandidates []mateCandidate

func (c mateCandidates) Index(i int) kdtree.Comparable { return c[i] }
func (c mateCandidates) Len() int                      { return len(c) }
func (c mateCandidates) Pivot(d kdtree.Dim) int {
	return candidatePlane{mateCandidates: c, Dim: d}.Pivot()
}
func (c mateCandidates) Slice(start, end int) kdtree.Interface { return c[start:end] }

// candidatePlane implements kdtree.SortSlicer along one dimension.
type candidatePlane struct {
	kdtree.Dim
	mateCandidates
}

func (p candidatePlane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.mateCandidates[i].X < p.mateCandidates[j].X
	}
	return p.mateCandidates[i].Y < p.mateCandidates[j].Y
}
func (p candidatePlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p candidatePlane) Slice(start, end int) kdtree.SortSlicer {
	p.mateCandidates = p.mateCandidates[start:end]
	return p
}
func (p candidatePlane) Swap(i, j int) {
	p.mateCandidates[i], p.mateCandidates[j] = p.mateCandidates[j], p.mateCandidates[i]
}

// pairCandidates matches candidates greedily in ascending entity-ID order,
// each with its nearest unmatched candidate within radius. A matched entity
// leaves the pool, so nobody is promised to two partners.
func pairCandidates(candidates []mateCandidate, radius float64) [][2]ecs.Entity {
	if len(candidates) < 2 {
		return nil
	}

	slices.SortFunc(candidates, func(a, b mateCandidate) int { return cmp.Compare(a.E.ID(), b.E.ID()) })
	for i := range candidates {
		candidates[i].slot = i
	}

	// kdtree.New reorders its input, so build over a copy.
	points := make(mateCandidates, len(candidates))
	copy(points, candidates)
	tree := kdtree.New(points, false)

	matched := make([]bool, len(candidates))
	radiusSq := radius * radius
	var pairs [][2]ecs.Entity

	for i, c := range candidates {
		if matched[i] {
			continue
		}
		j, ok := nearestUnmatched(tree, c, matched, radiusSq, len(candidates))
		if !ok {
			continue
		}
		matched[i], matched[j] = true, true
		pairs = append(pairs, [2]ecs.Entity{c.E, candidates[j].E})
	}
	return pairs
}

// nearestUnmatched asks the tree for the k nearest points, doubling k until
// an unmatched partner turns up or the search radius is exhausted. gonum's
// tree has no deletion, so matched points are skipped here instead.
func nearestUnmatched(tree *kdtree.Tree, q mateCandidate, matched []bool, radiusSq float64, total int) (int, bool) {
	for k := 4; ; k *= 2 {
		keeper := kdtree.NewNKeeper(k)
		tree.NearestSet(keeper, q)

		found := make([]kdtree.ComparableDist, 0, len(keeper.Heap))
		for _, cd := range keeper.Heap {
			if cd.Comparable != nil {
				found = append(found, cd)
			}
		}
		slices.SortFunc(found, func(a, b kdtree.ComparableDist) int {
			if c := cmp.Compare(a.Dist, b.Dist); c != 0 {
				return c
			}
			return cmp.Compare(a.Comparable.(mateCandidate).E.ID(), b.Comparable.(mateCandidate).E.ID())
		})

		for _, cd := range found {
			if cd.Dist > radiusSq {
				return 0, false
			}
			other := cd.Comparable.(mateCandidate)
			if other.slot == q.slot || matched[other.slot] {
				continue
			}
			return other.slot, true
		}

		// Every point seen was self or taken; look further out if the
		// keeper was full and the tree holds more.
		if len(found) < k || k >= total {
			return 0, false
		}
	}
}
