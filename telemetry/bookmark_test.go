package telemetry

import "testing"

func hasBookmark(bms []Bookmark, typ BookmarkType) bool {
	for _, b := range bms {
		if b.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Extinction(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{WindowEndTick: 600, Producers: 100, Herbivores: 10, Predators: 2})

	bms := bd.Check(WindowStats{WindowEndTick: 1200, Producers: 100, Herbivores: 8, Predators: 0})
	if !hasBookmark(bms, BookmarkExtinction) {
		t.Error("expected extinction bookmark")
	}

	// Staying extinct is not a new event.
	bms = bd.Check(WindowStats{WindowEndTick: 1800, Producers: 100, Herbivores: 8, Predators: 0})
	if hasBookmark(bms, BookmarkExtinction) {
		t.Error("extinction reported twice")
	}
}

func TestBookmarkDetector_HerbivoreCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for _, n := range []int{80, 100, 90} {
		if bms := bd.Check(WindowStats{Herbivores: n, Predators: 5}); hasBookmark(bms, BookmarkHerbivoreCrash) {
			t.Fatalf("crash reported at %d", n)
		}
	}
	if bms := bd.Check(WindowStats{Herbivores: 40, Predators: 5}); !hasBookmark(bms, BookmarkHerbivoreCrash) {
		t.Error("expected herbivore_crash after dropping 60% from peak")
	}
	if bms := bd.Check(WindowStats{Herbivores: 35, Predators: 5}); hasBookmark(bms, BookmarkHerbivoreCrash) {
		t.Error("peak should reset after a crash")
	}
}

func TestBookmarkDetector_PredatorRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{Herbivores: 50, Predators: 2})
	if bms := bd.Check(WindowStats{Herbivores: 50, Predators: 4}); hasBookmark(bms, BookmarkPredatorRecovery) {
		t.Error("recovery reported below threshold")
	}
	if bms := bd.Check(WindowStats{Herbivores: 50, Predators: 7}); !hasBookmark(bms, BookmarkPredatorRecovery) {
		t.Error("expected predator_recovery from 2 to 7")
	}
}

func TestBookmarkDetector_StableEcosystem(t *testing.T) {
	bd := NewBookmarkDetector(10)
	fired := 0
	for i := 0; i < 12; i++ {
		stats := WindowStats{WindowEndTick: int32(i * 600), Herbivores: 100 + i%2, Predators: 10}
		if hasBookmark(bd.Check(stats), BookmarkStableEcosystem) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("stable_ecosystem fired %d times, want exactly once", fired)
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"constant", []float64{5, 5, 5}, 0},
		{"zero mean", []float64{0, 0}, 0},
		{"spread", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoefficientOfVariation(tt.xs)
			if d := got - tt.want; d > 1e-9 || d < -1e-9 {
				t.Errorf("CV = %v, want %v", got, tt.want)
			}
		})
	}
}
