package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/game"
	"github.com/pthm-cable/ecosim/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestWindows []telemetry.WindowStats
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0,
		bestFitness: math.Inf(1),
	}
}

// BestWindows returns the window stats of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestWindows() []telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestWindows
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// A species below minViablePop for extinctionGraceSec is functionally extinct.
const (
	minViablePop       = 3
	extinctionGraceSec = 30.0
	warmupSec          = 5.0
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int32 // ticks before functional extinction, maxTicks if it survived
	windowStats   []telemetry.WindowStats
	anomalies     int
}

type seedResult struct {
	fitness float64
	quality float64
	windows []telemetry.WindowStats
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	// Seeds run in parallel, each on a single worker.
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			r := fe.runSimulation(cfg, s)
			quality := computeQuality(r.windowStats, cfg)
			results[idx] = seedResult{
				fitness: computeFitness(r, quality),
				quality: quality,
				windows: r.windowStats,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	bestSeed := 0
	for i, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < results[bestSeed].fitness {
			bestSeed = i
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestWindows = results[bestSeed].windows
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run until functional extinction
// or maxTicks, whichever comes first. cfg is shared and only read.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) *runResult {
	result := &runResult{}

	g := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		Config:         cfg,
		Headless:       true,
		Workers:        1,
		RunID:          "tune",
		StatsWindowSec: fe.statsWindow,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	defer g.Unload()

	dt := cfg.Physics.DT
	graceTicks := int32(extinctionGraceSec / dt)
	warmupTicks := int32(warmupSec / dt)
	var herbBelow, predBelow int32

	result.survivalTicks = fe.maxTicks
	for g.Tick() < fe.maxTicks {
		g.Step()

		tick := g.Tick()
		if tick < warmupTicks {
			continue
		}

		herb := g.Count(components.SpeciesHerbivore)
		pred := g.Count(components.SpeciesPredator)
		if herb == 0 || pred == 0 {
			result.survivalTicks = tick
			break
		}

		herbBelow = belowCounter(herbBelow, herb)
		predBelow = belowCounter(predBelow, pred)
		if herbBelow >= graceTicks || predBelow >= graceTicks {
			result.survivalTicks = tick
			break
		}
	}
	result.anomalies = g.Anomalies()
	return result
}

func belowCounter(ticks int32, pop int) int32 {
	if pop < minViablePop {
		return ticks + 1
	}
	return 0
}

// computeFitness calculates the scalar fitness (lower = better).
// Survival dominates; quality adds up to 20% to separate similar runs.
// Runs that hit invariant anomalies are penalized.
func computeFitness(r *runResult, quality float64) float64 {
	fitness := -(float64(r.survivalTicks) * (1.0 + 0.2*quality))
	if r.anomalies > 0 {
		fitness *= 0.5
	}
	return fitness
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.30
	qualityWeightStability = 0.25
	qualityWeightEnergy    = 0.25
	qualityWeightHunting   = 0.20

	qualityWarmupWindows = 3 // skip first N windows
	qualityMinPop        = 3 // exclude windows where either consumer species < this

	targetRatio       = 10.0 // herbivores per predator
	targetEnergyShare = 0.5  // median energy over reproduction threshold
	targetKillRate    = 0.5  // kills per bite
)

// computeQuality scores ecosystem health in [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats, cfg *config.Config) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var ratioSum, energySum, huntSum float64
	var ratioCount, huntCount int
	herbCounts := make([]float64, 0, len(valid))
	predCounts := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.Herbivores < qualityMinPop || w.Predators < qualityMinPop {
			continue
		}
		herbCounts = append(herbCounts, float64(w.Herbivores))
		predCounts = append(predCounts, float64(w.Predators))

		logErr := math.Log(float64(w.Herbivores) / float64(w.Predators) / targetRatio)
		ratioSum += math.Exp(-logErr * logErr)
		ratioCount++

		herbH := energyHealth(w.HerbEnergyP50, cfg.Herbivore.Reproduction.Threshold)
		predH := energyHealth(w.PredEnergyP50, cfg.Predator.Reproduction.Threshold)
		energySum += (herbH + predH) / 2.0

		if w.Bites > 0 {
			krScore := math.Exp(-math.Pow((w.KillRate-targetKillRate)/0.3, 2))
			bitesPerPred := float64(w.Bites) / float64(w.Predators)
			huntSum += 0.6*krScore + 0.4*(1.0-math.Exp(-bitesPerPred/3.0))
			huntCount++
		}
	}

	if ratioCount == 0 {
		return 0
	}

	stability := 0.0
	if len(herbCounts) >= 2 {
		cvHerb := cv(herbCounts)
		cvPred := cv(predCounts)
		stability = math.Exp(-(cvHerb*cvHerb + cvPred*cvPred))
	}

	hunting := 0.0
	if huntCount > 0 {
		hunting = huntSum / float64(huntCount)
	}

	quality := qualityWeightRatio*ratioSum/float64(ratioCount) +
		qualityWeightStability*stability +
		qualityWeightEnergy*energySum/float64(ratioCount) +
		qualityWeightHunting*hunting

	return min(max(quality, 0), 1)
}

func energyHealth(p50, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return math.Exp(-math.Pow((p50/threshold-targetEnergyShare)/0.25, 2))
}

// cv computes the coefficient of variation (std/mean).
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}
