package telemetry

import (
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
)

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	births [components.NumSpecies]int
	deaths [components.NumSpecies]int
	causes [3]int // indexed by systems.DeathCause

	hunt       systems.HuntStats
	repro      systems.ReproStats
	fleeing    int
	suppressed int
	anomalies  int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordBirth records a birth event.
func (c *Collector) RecordBirth(s components.Species) {
	c.births[s]++
}

// RecordDeath records a death event and its cause.
func (c *Collector) RecordDeath(s components.Species, cause systems.DeathCause) {
	c.deaths[s]++
	if int(cause) < len(c.causes) {
		c.causes[cause]++
	}
}

// RecordHunt adds one hunting pass.
func (c *Collector) RecordHunt(stats systems.HuntStats) {
	c.hunt.Add(stats)
}

// RecordReproduction adds one reproduction pass.
func (c *Collector) RecordReproduction(stats systems.ReproStats) {
	c.repro.Add(stats)
}

// RecordFleeing adds entities that started fleeing.
func (c *Collector) RecordFleeing(n int) {
	c.fleeing += n
}

// RecordSuppressedBirth records an offspring dropped by a population cap.
func (c *Collector) RecordSuppressedBirth() {
	c.suppressed++
}

// RecordAnomaly records an invariant violation that was recovered from.
func (c *Collector) RecordAnomaly() {
	c.anomalies++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// counts holds the living population per species; herbEnergies and
// predEnergies are sampled at the window end.
func (c *Collector) Flush(currentTick int32, counts [components.NumSpecies]int, herbEnergies, predEnergies []float64) WindowStats {
	var killRate float64
	if c.hunt.Bites > 0 {
		killRate = float64(c.hunt.Kills) / float64(c.hunt.Bites)
	}

	herb := ComputeEnergyStats(herbEnergies)
	pred := ComputeEnergyStats(predEnergies)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Producers:  counts[components.SpeciesProducer],
		Herbivores: counts[components.SpeciesHerbivore],
		Predators:  counts[components.SpeciesPredator],

		ProducerBirths:  c.births[components.SpeciesProducer],
		HerbivoreBirths: c.births[components.SpeciesHerbivore],
		PredatorBirths:  c.births[components.SpeciesPredator],
		ProducerDeaths:  c.deaths[components.SpeciesProducer],
		HerbivoreDeaths: c.deaths[components.SpeciesHerbivore],
		PredatorDeaths:  c.deaths[components.SpeciesPredator],

		Killed:  c.causes[systems.CauseKilled],
		Starved: c.causes[systems.CauseStarved],
		Aged:    c.causes[systems.CauseAged],

		Bites:    c.hunt.Bites,
		Kills:    c.hunt.Kills,
		Missed:   c.hunt.Missed,
		Meals:    c.hunt.Meals,
		KillRate: killRate,

		Pairs:      c.repro.Paired,
		Matings:    c.repro.Completed,
		Abandoned:  c.repro.Abandoned,
		Suppressed: c.suppressed,
		Fleeing:    c.fleeing,
		Anomalies:  c.anomalies + c.repro.Anomalies,

		HerbEnergyMean: herb.Mean,
		HerbEnergyStd:  herb.Std,
		HerbEnergyP10:  herb.P10,
		HerbEnergyP50:  herb.P50,
		HerbEnergyP90:  herb.P90,

		PredEnergyMean: pred.Mean,
		PredEnergyStd:  pred.Std,
		PredEnergyP10:  pred.P10,
		PredEnergyP50:  pred.P50,
		PredEnergyP90:  pred.P90,
	}

	c.windowStartTick = currentTick
	c.births = [components.NumSpecies]int{}
	c.deaths = [components.NumSpecies]int{}
	c.causes = [3]int{}
	c.hunt = systems.HuntStats{}
	c.repro = systems.ReproStats{}
	c.fleeing = 0
	c.suppressed = 0
	c.anomalies = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
