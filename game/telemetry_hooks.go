package game

import (
	"log/slog"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	herbEnergies, predEnergies := g.sampleEnergies()
	stats := g.collector.Flush(g.tick, g.counts, herbEnergies, predEnergies)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := g.outputManager.WriteLifetimes(g.finished); err != nil {
			slog.Error("failed to write lifetimes", "error", err)
		}
		g.finished = g.finished[:0]
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// sampleEnergies collects consumer energies for the percentile stats.
func (g *Game) sampleEnergies() (herb, pred []float64) {
	herb = make([]float64, 0, g.counts[components.SpeciesHerbivore])
	pred = make([]float64, 0, g.counts[components.SpeciesPredator])

	query := g.energyFilter.Query()
	for query.Next() {
		energy, org := query.Get()
		switch org.Species {
		case components.SpeciesHerbivore:
			herb = append(herb, float64(energy.Value))
		case components.SpeciesPredator:
			pred = append(pred, float64(energy.Value))
		}
	}
	return herb, pred
}

// SaveSnapshot writes the current world state to dir in the configured
// format and returns the file path.
func (g *Game) SaveSnapshot(dir string) (string, error) {
	return telemetry.SaveSnapshot(g.CreateSnapshot(nil), dir, g.snapshotFormat)
}

// saveSnapshot writes a snapshot to the configured directory, logging failures.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(g.CreateSnapshot(bookmark), g.snapshotDir, g.snapshotFormat)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}

// CreateSnapshot builds a snapshot from the current state.
func (g *Game) CreateSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RunID:       g.runID,
		RNGSeed:     g.seed,
		WorldWidth:  g.cfg.Derived.WorldW32,
		WorldHeight: g.cfg.Derived.WorldH32,
		Tick:        g.tick,
		Bookmark:    bookmark,
		Entities:    make([]telemetry.EntityState, 0, g.counts[0]+g.counts[1]+g.counts[2]),
	}

	g.Agents(func(v AgentView) bool {
		snapshot.Entities = append(snapshot.Entities, telemetry.EntityState{
			ID:       v.ID,
			Species:  v.Species.String(),
			X:        v.Pos.X,
			Y:        v.Pos.Y,
			Behavior: v.Behavior.String(),
			Health:   v.Health,
			Energy:   v.Energy,
			Age:      v.Age,
			Target:   v.Target,
		})
		return true
	})

	return snapshot
}
