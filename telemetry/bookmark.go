package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction       BookmarkType = "extinction"
	BookmarkHerbivoreCrash   BookmarkType = "herbivore_crash"
	BookmarkPredatorRecovery BookmarkType = "predator_recovery"
	BookmarkStableEcosystem  BookmarkType = "stable_ecosystem"
)

// stableWindows is how many consecutive calm windows make an ecosystem stable.
const stableWindows = 5

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historyIdx  int
	historyFull bool

	prev        *WindowStats
	predMin     int // lowest predator count since the last recovery
	herbPeak    int // highest herbivore count since the last crash
	stableCount int // consecutive calm windows
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < stableWindows {
		historySize = stableWindows
	}
	return &BookmarkDetector{
		history: make([]WindowStats, historySize),
		predMin: -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark
	for _, check := range []func(WindowStats) *Bookmark{
		bd.checkExtinction,
		bd.checkHerbivoreCrash,
		bd.checkPredatorRecovery,
	} {
		if b := check(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	if b := bd.checkStableEcosystem(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.predMin < 0 || stats.Predators < bd.predMin {
		bd.predMin = stats.Predators
	}
	bd.herbPeak = max(bd.herbPeak, stats.Herbivores)
	last := stats
	bd.prev = &last

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % len(bd.history)
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns the last n windows in chronological order.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	size := bd.historyIdx
	if bd.historyFull {
		size = len(bd.history)
	}
	if size < n {
		return nil
	}
	out := make([]WindowStats, n)
	for i := 0; i < n; i++ {
		idx := (bd.historyIdx - n + i + len(bd.history)) % len(bd.history)
		out[i] = bd.history[idx]
	}
	return out
}

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	if bd.prev == nil {
		return nil
	}
	var lost []string
	if bd.prev.Herbivores > 0 && stats.Herbivores == 0 {
		lost = append(lost, "herbivores")
	}
	if bd.prev.Predators > 0 && stats.Predators == 0 {
		lost = append(lost, "predators")
	}
	if bd.prev.Producers > 0 && stats.Producers == 0 {
		lost = append(lost, "producers")
	}
	if len(lost) == 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Extinct: %v", lost),
	}
}

func (bd *BookmarkDetector) checkHerbivoreCrash(stats WindowStats) *Bookmark {
	if bd.herbPeak < 20 {
		return nil
	}
	drop := 1 - float64(stats.Herbivores)/float64(bd.herbPeak)
	if drop <= 0.5 {
		return nil
	}
	oldPeak := bd.herbPeak
	bd.herbPeak = stats.Herbivores
	return &Bookmark{
		Type:        BookmarkHerbivoreCrash,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Herbivores crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Herbivores),
	}
}

func (bd *BookmarkDetector) checkPredatorRecovery(stats WindowStats) *Bookmark {
	if bd.predMin <= 0 || bd.predMin > 3 {
		return nil
	}
	if stats.Predators < bd.predMin*3 || stats.Predators < 6 {
		return nil
	}
	oldMin := bd.predMin
	bd.predMin = stats.Predators
	return &Bookmark{
		Type:        BookmarkPredatorRecovery,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Predators recovered from %d to %d", oldMin, stats.Predators),
	}
}

// checkStableEcosystem fires once when both consumer populations have had a
// coefficient of variation below 0.2 for stableWindows windows in a row.
func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	if stats.Herbivores < 10 || stats.Predators < 3 {
		bd.stableCount = 0
		return nil
	}
	window := bd.recent(4)
	if window == nil {
		return nil
	}

	herbs := make([]float64, len(window))
	preds := make([]float64, len(window))
	for i, w := range window {
		herbs[i] = float64(w.Herbivores)
		preds[i] = float64(w.Predators)
	}
	if CoefficientOfVariation(herbs) < 0.2 && CoefficientOfVariation(preds) < 0.2 {
		bd.stableCount++
	} else {
		bd.stableCount = 0
	}

	if bd.stableCount != stableWindows {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStableEcosystem,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Stable with %d herbivores and %d predators", stats.Herbivores, stats.Predators),
	}
}

// CoefficientOfVariation returns the population standard deviation over the
// mean, or 0 for an empty or zero-mean sample.
func CoefficientOfVariation(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}
