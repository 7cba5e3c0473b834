package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	Producers  int `csv:"producers"`
	Herbivores int `csv:"herbivores"`
	Predators  int `csv:"predators"`

	// Lifecycle events during window
	ProducerBirths  int `csv:"producer_births"`
	HerbivoreBirths int `csv:"herbivore_births"`
	PredatorBirths  int `csv:"predator_births"`
	ProducerDeaths  int `csv:"producer_deaths"`
	HerbivoreDeaths int `csv:"herbivore_deaths"`
	PredatorDeaths  int `csv:"predator_deaths"`

	Killed  int `csv:"killed"`
	Starved int `csv:"starved"`
	Aged    int `csv:"aged"`

	// Hunting
	Bites    int     `csv:"bites"`
	Kills    int     `csv:"kills"`
	Missed   int     `csv:"missed"`
	Meals    int     `csv:"meals"`
	KillRate float64 `csv:"kill_rate"`

	// Reproduction and evasion
	Pairs      int `csv:"pairs"`
	Matings    int `csv:"matings"`
	Abandoned  int `csv:"abandoned"`
	Suppressed int `csv:"suppressed"`
	Fleeing    int `csv:"fleeing"`
	Anomalies  int `csv:"anomalies"`

	// Energy distribution (sampled at window end)
	HerbEnergyMean float64 `csv:"herb_energy_mean"`
	HerbEnergyStd  float64 `csv:"herb_energy_std"`
	HerbEnergyP10  float64 `csv:"herb_energy_p10"`
	HerbEnergyP50  float64 `csv:"herb_energy_p50"`
	HerbEnergyP90  float64 `csv:"herb_energy_p90"`

	PredEnergyMean float64 `csv:"pred_energy_mean"`
	PredEnergyStd  float64 `csv:"pred_energy_std"`
	PredEnergyP10  float64 `csv:"pred_energy_p10"`
	PredEnergyP50  float64 `csv:"pred_energy_p50"`
	PredEnergyP90  float64 `csv:"pred_energy_p90"`
}

// EnergyStats summarizes one species' energy distribution.
type EnergyStats struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeEnergyStats calculates mean, spread and empirical quantiles.
// An empty sample yields all zeros.
func ComputeEnergyStats(values []float64) EnergyStats {
	if len(values) == 0 {
		return EnergyStats{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var es EnergyStats
	if len(sorted) > 1 {
		es.Mean, es.Std = stat.MeanStdDev(sorted, nil)
	} else {
		es.Mean = sorted[0]
	}
	es.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	es.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	es.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return es
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("producers", s.Producers),
		slog.Int("herbivores", s.Herbivores),
		slog.Int("predators", s.Predators),
		slog.Int("herbivore_births", s.HerbivoreBirths),
		slog.Int("predator_births", s.PredatorBirths),
		slog.Int("killed", s.Killed),
		slog.Int("starved", s.Starved),
		slog.Int("aged", s.Aged),
		slog.Int("kills", s.Kills),
		slog.Float64("kill_rate", s.KillRate),
		slog.Int("matings", s.Matings),
		slog.Int("fleeing", s.Fleeing),
		slog.Int("anomalies", s.Anomalies),
		slog.Float64("herb_energy_p50", s.HerbEnergyP50),
		slog.Float64("pred_energy_p50", s.PredEnergyP50),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"producers", s.Producers,
		"herbivores", s.Herbivores,
		"predators", s.Predators,
		"producer_births", s.ProducerBirths,
		"herbivore_births", s.HerbivoreBirths,
		"predator_births", s.PredatorBirths,
		"killed", s.Killed,
		"starved", s.Starved,
		"aged", s.Aged,
		"bites", s.Bites,
		"kills", s.Kills,
		"missed", s.Missed,
		"kill_rate", s.KillRate,
		"pairs", s.Pairs,
		"matings", s.Matings,
		"suppressed", s.Suppressed,
		"fleeing", s.Fleeing,
		"anomalies", s.Anomalies,
		"herb_energy_mean", s.HerbEnergyMean,
		"herb_energy_p50", s.HerbEnergyP50,
		"pred_energy_mean", s.PredEnergyMean,
		"pred_energy_p50", s.PredEnergyP50,
	)
}
