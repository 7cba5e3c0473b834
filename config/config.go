// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
// It is treated as immutable once Load returns.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Population PopulationConfig `yaml:"population"`
	Producer   ProducerConfig   `yaml:"producer"`
	Herbivore  ConsumerConfig   `yaml:"herbivore"`
	Predator   ConsumerConfig   `yaml:"predator"`
	Evasion    EvasionConfig    `yaml:"evasion"`
	Seeding    SeedingConfig    `yaml:"seeding"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Debug      DebugConfig      `yaml:"debug"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the optional viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds simulation world dimensions.
// The world is a bounded rectangle [0,Width] x [0,Height]; it does not wrap.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PhysicsConfig holds the fixed timestep and spatial parameters.
type PhysicsConfig struct {
	DT              float64 `yaml:"dt"`
	GridCellSize    float64 `yaml:"grid_cell_size"`
	AttackDistance  float64 `yaml:"attack_distance"`
	VisualSmoothing float64 `yaml:"visual_smoothing"` // fraction of the gap closed per second
}

// PopulationConfig holds initial counts and hard caps.
type PopulationConfig struct {
	Producers     int `yaml:"producers"`
	Herbivores    int `yaml:"herbivores"`
	Predators     int `yaml:"predators"`
	MaxProducers  int `yaml:"max_producers"`  // 0 = unlimited
	MaxHerbivores int `yaml:"max_herbivores"` // 0 = unlimited
	MaxPredators  int `yaml:"max_predators"`  // 0 = unlimited
}

// ProducerConfig holds tunables for stationary producers (grass).
type ProducerConfig struct {
	Health               float64 `yaml:"health"`
	Lifetime             float64 `yaml:"lifetime"`              // seconds
	ReproductionInterval float64 `yaml:"reproduction_interval"` // seconds between growth rolls
	RateSparse           float64 `yaml:"rate_sparse"`           // probability with fewer than CrowdingLow neighbors
	RateCrowded          float64 `yaml:"rate_crowded"`          // probability with fewer than CrowdingHigh neighbors
	CrowdingLow          int     `yaml:"crowding_low"`
	CrowdingHigh         int     `yaml:"crowding_high"`
	CrowdingRadius       float64 `yaml:"crowding_radius"` // also the offspring scatter radius
	Yield                float64 `yaml:"yield"`           // energy gained by whoever eats one
}

// ConsumerConfig holds tunables shared by every mobile species.
type ConsumerConfig struct {
	Health         float64    `yaml:"health"`
	Lifetime       float64    `yaml:"lifetime"`
	Energy         float64    `yaml:"energy"` // initial energy
	DecayRate      float64    `yaml:"decay_rate"`
	Speed          float64    `yaml:"speed"`
	Damage         float64    `yaml:"damage"`
	AttackCooldown float64    `yaml:"attack_cooldown"`
	EatingTime     float64    `yaml:"eating_time"`
	Yield          float64    `yaml:"yield"` // energy gained by whoever eats one
	Reproduction   MateConfig `yaml:"reproduction"`
}

// MateConfig holds mate-finding parameters.
type MateConfig struct {
	Threshold    float64 `yaml:"threshold"`
	Cost         float64 `yaml:"cost"`
	SearchRadius float64 `yaml:"search_radius"`
	Radius       float64 `yaml:"radius"`
	MatingTime   float64 `yaml:"mating_time"`
}

// EvasionConfig holds herbivore flight parameters.
type EvasionConfig struct {
	FleeRadius      float64 `yaml:"flee_radius"`
	RecheckInterval float64 `yaml:"recheck_interval"`
}

// SeedingConfig controls initial placement of producers.
type SeedingConfig struct {
	Clustered  bool    `yaml:"clustered"`
	NoiseScale float64 `yaml:"noise_scale"` // world units per noise period
	Threshold  float64 `yaml:"threshold"`   // noise value in [-1,1] above which producers may seed
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	SnapshotFormat      string  `yaml:"snapshot_format"` // "json" or "msgpack"
}

// DebugConfig holds invariant handling settings.
type DebugConfig struct {
	InvariantPolicy string `yaml:"invariant_policy"` // "panic" or "recover"
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32 // Physics.DT as float32
	WorldW32  float32 // World.Width as float32
	WorldH32  float32 // World.Height as float32
	ScreenW32 float32
	ScreenH32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	cfg.computeDerived()
	return cfg, nil
}

// Clone returns a copy that can be modified without affecting c.
// Config holds no reference types, so a value copy is deep.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}

// Validate reports every setting that would make the simulation ill-defined.
func (c *Config) Validate() error {
	var errs []error
	if c.Physics.DT <= 0 {
		errs = append(errs, errors.New("physics.dt must be positive"))
	}
	if c.Physics.GridCellSize <= 0 {
		errs = append(errs, errors.New("physics.grid_cell_size must be positive"))
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, errors.New("world dimensions must be positive"))
	}
	if c.Producer.Lifetime <= 0 || c.Herbivore.Lifetime <= 0 || c.Predator.Lifetime <= 0 {
		errs = append(errs, errors.New("lifetimes must be positive"))
	}
	if c.Producer.ReproductionInterval <= 0 {
		errs = append(errs, errors.New("producer.reproduction_interval must be positive"))
	}
	for _, sp := range []struct {
		name string
		cc   ConsumerConfig
	}{{"herbivore", c.Herbivore}, {"predator", c.Predator}} {
		if sp.cc.Damage <= 0 {
			errs = append(errs, fmt.Errorf("%s.damage must be positive", sp.name))
		}
		if sp.cc.Speed < 0 || sp.cc.AttackCooldown < 0 || sp.cc.EatingTime < 0 {
			errs = append(errs, fmt.Errorf("%s speed, attack_cooldown and eating_time must not be negative", sp.name))
		}
		if sp.cc.Reproduction.Radius < 0 || sp.cc.Reproduction.SearchRadius < 0 {
			errs = append(errs, fmt.Errorf("%s.reproduction radii must not be negative", sp.name))
		}
	}
	if c.Evasion.RecheckInterval < 0 {
		errs = append(errs, errors.New("evasion.recheck_interval must not be negative"))
	}
	switch c.Debug.InvariantPolicy {
	case "", "panic", "recover":
	default:
		errs = append(errs, fmt.Errorf("debug.invariant_policy %q is not panic or recover", c.Debug.InvariantPolicy))
	}
	switch c.Telemetry.SnapshotFormat {
	case "", "json", "msgpack":
	default:
		errs = append(errs, fmt.Errorf("telemetry.snapshot_format %q is not json or msgpack", c.Telemetry.SnapshotFormat))
	}
	return errors.Join(errs...)
}

// Recompute refreshes derived values after fields were changed in code,
// as tests and the tuner do on a Clone.
func (c *Config) Recompute() {
	c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
