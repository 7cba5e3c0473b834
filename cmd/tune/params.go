package main

import (
	"github.com/pthm-cable/ecosim/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Producers
			{Name: "producer_interval", Path: "producer.reproduction_interval", Min: 2, Max: 20, Default: 8,
				get: func(c *config.Config) float64 { return c.Producer.ReproductionInterval },
				set: func(c *config.Config, v float64) { c.Producer.ReproductionInterval = v }},
			{Name: "producer_rate_sparse", Path: "producer.rate_sparse", Min: 0.1, Max: 0.9, Default: 0.5,
				get: func(c *config.Config) float64 { return c.Producer.RateSparse },
				set: func(c *config.Config, v float64) { c.Producer.RateSparse = v }},
			{Name: "producer_yield", Path: "producer.yield", Min: 5, Max: 40, Default: 15,
				get: func(c *config.Config) float64 { return c.Producer.Yield },
				set: func(c *config.Config, v float64) { c.Producer.Yield = v }},
			// Herbivores
			{Name: "herb_decay", Path: "herbivore.decay_rate", Min: 0.3, Max: 2, Default: 1,
				get: func(c *config.Config) float64 { return c.Herbivore.DecayRate },
				set: func(c *config.Config, v float64) { c.Herbivore.DecayRate = v }},
			{Name: "herb_speed", Path: "herbivore.speed", Min: 10, Max: 40, Default: 20,
				get: func(c *config.Config) float64 { return c.Herbivore.Speed },
				set: func(c *config.Config, v float64) { c.Herbivore.Speed = v }},
			{Name: "herb_yield", Path: "herbivore.yield", Min: 20, Max: 100, Default: 50,
				get: func(c *config.Config) float64 { return c.Herbivore.Yield },
				set: func(c *config.Config, v float64) { c.Herbivore.Yield = v }},
			{Name: "herb_repro_thresh", Path: "herbivore.reproduction.threshold", Min: 60, Max: 200, Default: 120,
				get: func(c *config.Config) float64 { return c.Herbivore.Reproduction.Threshold },
				set: func(c *config.Config, v float64) { c.Herbivore.Reproduction.Threshold = v }},
			{Name: "herb_repro_cost", Path: "herbivore.reproduction.cost", Min: 20, Max: 80, Default: 50,
				get: func(c *config.Config) float64 { return c.Herbivore.Reproduction.Cost },
				set: func(c *config.Config, v float64) { c.Herbivore.Reproduction.Cost = v }},
			{Name: "herb_mating_time", Path: "herbivore.reproduction.mating_time", Min: 2, Max: 20, Default: 10,
				get: func(c *config.Config) float64 { return c.Herbivore.Reproduction.MatingTime },
				set: func(c *config.Config, v float64) { c.Herbivore.Reproduction.MatingTime = v }},
			// Predators
			{Name: "pred_decay", Path: "predator.decay_rate", Min: 0.3, Max: 2, Default: 1,
				get: func(c *config.Config) float64 { return c.Predator.DecayRate },
				set: func(c *config.Config, v float64) { c.Predator.DecayRate = v }},
			{Name: "pred_speed", Path: "predator.speed", Min: 15, Max: 50, Default: 26,
				get: func(c *config.Config) float64 { return c.Predator.Speed },
				set: func(c *config.Config, v float64) { c.Predator.Speed = v }},
			{Name: "pred_damage", Path: "predator.damage", Min: 10, Max: 50, Default: 25,
				get: func(c *config.Config) float64 { return c.Predator.Damage },
				set: func(c *config.Config, v float64) { c.Predator.Damage = v }},
			{Name: "pred_eating_time", Path: "predator.eating_time", Min: 1, Max: 8, Default: 4,
				get: func(c *config.Config) float64 { return c.Predator.EatingTime },
				set: func(c *config.Config, v float64) { c.Predator.EatingTime = v }},
			{Name: "pred_repro_thresh", Path: "predator.reproduction.threshold", Min: 100, Max: 300, Default: 180,
				get: func(c *config.Config) float64 { return c.Predator.Reproduction.Threshold },
				set: func(c *config.Config, v float64) { c.Predator.Reproduction.Threshold = v }},
			{Name: "pred_repro_cost", Path: "predator.reproduction.cost", Min: 30, Max: 120, Default: 70,
				get: func(c *config.Config) float64 { return c.Predator.Reproduction.Cost },
				set: func(c *config.Config, v float64) { c.Predator.Reproduction.Cost = v }},
			// Evasion
			{Name: "flee_radius", Path: "evasion.flee_radius", Min: 20, Max: 150, Default: 60,
				get: func(c *config.Config) float64 { return c.Evasion.FleeRadius },
				set: func(c *config.Config, v float64) { c.Evasion.FleeRadius = v }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg and refreshes its
// derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
	cfg.Recompute()
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.get(cfg)
	}
	return v
}
