package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the simulation step. They match the system registry IDs.
const (
	PhaseLifecycle    = "lifecycle"
	PhaseHunting      = "hunting"
	PhaseReproduction = "reproduction"
	PhaseEvasion      = "evasion"
	PhaseMovement     = "movement"
	PhaseResync       = "resync"
	PhaseFlush        = "flush"
	PhaseTelemetry    = "telemetry"
)

// Phases lists every phase in tick order.
var Phases = []string{
	PhaseLifecycle, PhaseHunting, PhaseReproduction, PhaseEvasion,
	PhaseMovement, PhaseResync, PhaseFlush, PhaseTelemetry,
}

// perfSample holds timing data for a single tick, one slot per phase.
type perfSample struct {
	tick   time.Duration
	phases []time.Duration
}

// PerfCollector tracks per-phase tick timings over a rolling window.
// Phases outside the Phases list are ignored.
type PerfCollector struct {
	samples []perfSample
	next    int
	filled  int

	current    []time.Duration
	slot       map[string]int
	tickStart  time.Time
	phaseStart time.Time
	phase      int // index into Phases, -1 when idle

	lastFrame     time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	p := &PerfCollector{
		samples: make([]perfSample, windowSize),
		current: make([]time.Duration, len(Phases)),
		slot:    make(map[string]int, len(Phases)),
		phase:   -1,
	}
	for i := range p.samples {
		p.samples[i].phases = make([]time.Duration, len(Phases))
	}
	for i, name := range Phases {
		p.slot[name] = i
	}
	return p
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	clear(p.current)
	p.phase = -1
}

// StartPhase closes the running phase and starts timing the named one.
func (p *PerfCollector) StartPhase(name string) {
	now := time.Now()
	p.closePhase(now)
	if i, ok := p.slot[name]; ok {
		p.phase = i
		p.phaseStart = now
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 {
		p.current[p.phase] += now.Sub(p.phaseStart)
		p.phase = -1
	}
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)

	s := &p.samples[p.next]
	s.tick = now.Sub(p.tickStart)
	copy(s.phases, p.current)

	p.next = (p.next + 1) % len(p.samples)
	p.filled = min(p.filled+1, len(p.samples))
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDuration = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Per-phase average duration and share of the average tick
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	// Graphics mode only
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		stats.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.filled == 0 {
		return stats
	}

	var total time.Duration
	sums := make([]time.Duration, len(Phases))
	for i := 0; i < p.filled; i++ {
		s := p.samples[i]
		total += s.tick
		if i == 0 || s.tick < stats.MinTickDuration {
			stats.MinTickDuration = s.tick
		}
		stats.MaxTickDuration = max(stats.MaxTickDuration, s.tick)
		for j, d := range s.phases {
			sums[j] += d
		}
	}

	n := time.Duration(p.filled)
	stats.AvgTickDuration = total / n
	for j, name := range Phases {
		if sums[j] == 0 {
			continue
		}
		avg := sums[j] / n
		stats.PhaseAvg[name] = avg
		if stats.AvgTickDuration > 0 {
			stats.PhasePct[name] = float64(avg) / float64(stats.AvgTickDuration) * 100
		}
	}
	if stats.AvgTickDuration > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(stats.AvgTickDuration)
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd       int32   `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	FPS             float64 `csv:"fps"`
	LifecyclePct    float64 `csv:"lifecycle_pct"`
	HuntingPct      float64 `csv:"hunting_pct"`
	ReproductionPct float64 `csv:"reproduction_pct"`
	EvasionPct      float64 `csv:"evasion_pct"`
	MovementPct     float64 `csv:"movement_pct"`
	ResyncPct       float64 `csv:"resync_pct"`
	FlushPct        float64 `csv:"flush_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTickDuration.Microseconds(),
		MinTickUS:       s.MinTickDuration.Microseconds(),
		MaxTickUS:       s.MaxTickDuration.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		FPS:             s.FPS,
		LifecyclePct:    s.PhasePct[PhaseLifecycle],
		HuntingPct:      s.PhasePct[PhaseHunting],
		ReproductionPct: s.PhasePct[PhaseReproduction],
		EvasionPct:      s.PhasePct[PhaseEvasion],
		MovementPct:     s.PhasePct[PhaseMovement],
		ResyncPct:       s.PhasePct[PhaseResync],
		FlushPct:        s.PhasePct[PhaseFlush],
		TelemetryPct:    s.PhasePct[PhaseTelemetry],
	}
}
