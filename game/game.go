// Package game wires the ECS world, the behavior systems and telemetry into
// a fixed-timestep ecosystem simulation.
package game

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	uuid "github.com/satori/go.uuid"

	"github.com/pthm-cable/ecosim/camera"
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
	"github.com/pthm-cable/ecosim/ui"
)

// Options configures a new game.
type Options struct {
	Seed           int64
	Config         *config.Config // nil uses config.Cfg()
	Headless       bool
	StepsPerUpdate int // ticks per Update call
	Workers        int // worker pool size, 0 for GOMAXPROCS

	// Telemetry
	RunID          string // generated when empty
	LogStats       bool
	StatsWindowSec float64 // 0 uses config
	StatsCallback  func(telemetry.WindowStats)
	OnLifecycle    func(telemetry.Event)
	OutputDir      string
	SnapshotDir    string
}

// Game holds the complete simulation state.
type Game struct {
	world *ecs.World
	cfg   *config.Config
	rng   *rand.Rand
	seed  int64
	runID string
	dt    float32

	// Spawn mappers, one per species archetype
	producerMap *ecs.Map6[
		components.Position,
		components.Health,
		components.Age,
		components.Organism,
		components.Sprout,
		components.Producer,
	]
	herbivoreMap *ecs.Map10[
		components.Position,
		components.VisualPosition,
		components.Movement,
		components.Agent,
		components.Energy,
		components.Health,
		components.Age,
		components.Organism,
		components.Evader,
		components.Herbivore,
	]
	predatorMap *ecs.Map10[
		components.Position,
		components.VisualPosition,
		components.Movement,
		components.Agent,
		components.Energy,
		components.Health,
		components.Age,
		components.Organism,
		components.Evader,
		components.Predator,
	]

	// Lookups
	posMap    *ecs.Map[components.Position]
	visMap    *ecs.Map[components.VisualPosition]
	agentMap  *ecs.Map[components.Agent]
	evaderMap *ecs.Map[components.Evader]
	energyMap *ecs.Map[components.Energy]
	healthMap *ecs.Map[components.Health]
	ageMap    *ecs.Map[components.Age]
	orgMap    *ecs.Map[components.Organism]
	sproutMap *ecs.Map[components.Sprout]

	viewFilter   *ecs.Filter3[components.Position, components.Health, components.Organism]
	energyFilter *ecs.Filter2[components.Energy, components.Organism]

	// One spatial index per species
	indices [components.NumSpecies]*systems.SpatialIndex

	// Systems, in tick order
	pool         *systems.Pool
	cmds         *systems.Commands
	lifecycle    *systems.Lifecycle
	growth       *systems.Growth
	herbHunt     *systems.Hunting[components.Herbivore, components.Producer]
	predHunt     *systems.Hunting[components.Predator, components.Herbivore]
	herbRepro    *systems.Reproduction[components.Herbivore]
	predRepro    *systems.Reproduction[components.Predator]
	evasion      *systems.Evasion[components.Herbivore, components.Predator]
	movement     *systems.Movement
	herbSync     *systems.IndexSync[components.Herbivore]
	predSync     *systems.IndexSync[components.Predator]
	registry     *systems.SystemRegistry
	policy       InvariantPolicy
	anomalies    int
	caps         [components.NumSpecies]int
	consumerCfgs [components.NumSpecies]*config.ConsumerConfig

	// State
	tick   int32
	nextID uint32
	counts [components.NumSpecies]int

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	lifetimeTracker  *telemetry.LifetimeTracker
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	finished         []telemetry.LifetimeRecord
	statsCallback    func(telemetry.WindowStats)
	onLifecycle      func(telemetry.Event)
	logStats         bool
	snapshotDir      string
	snapshotFormat   telemetry.Format

	// Viewer
	headless       bool
	paused         bool
	stepsPerUpdate int
	camera         *camera.Camera
	hud            *ui.HUD
	controls       *ui.ControlsPanel
	perfPanel      *ui.PerfPanel
	inspector      *ui.Inspector
	overlays       *ui.OverlayRegistry
	selected       ecs.Entity
	screenWidth    float32
	screenHeight   float32
}

// NewGameWithOptions creates a game and seeds the initial population.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	world := ecs.NewWorld()
	w, h := cfg.Derived.WorldW32, cfg.Derived.WorldH32
	cell := float32(cfg.Physics.GridCellSize)

	g := &Game{
		world:          world,
		cfg:            cfg,
		rng:            rand.New(rand.NewSource(opts.Seed)),
		seed:           opts.Seed,
		runID:          opts.RunID,
		dt:             cfg.Derived.DT32,
		headless:       opts.Headless,
		stepsPerUpdate: max(opts.StepsPerUpdate, 1),
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
		onLifecycle:    opts.OnLifecycle,
		snapshotDir:    opts.SnapshotDir,
		policy:         MustParsePolicy(cfg.Debug.InvariantPolicy),
		producerMap: ecs.NewMap6[
			components.Position,
			components.Health,
			components.Age,
			components.Organism,
			components.Sprout,
			components.Producer,
		](world),
		herbivoreMap: ecs.NewMap10[
			components.Position,
			components.VisualPosition,
			components.Movement,
			components.Agent,
			components.Energy,
			components.Health,
			components.Age,
			components.Organism,
			components.Evader,
			components.Herbivore,
		](world),
		predatorMap: ecs.NewMap10[
			components.Position,
			components.VisualPosition,
			components.Movement,
			components.Agent,
			components.Energy,
			components.Health,
			components.Age,
			components.Organism,
			components.Evader,
			components.Predator,
		](world),
		posMap:       ecs.NewMap[components.Position](world),
		visMap:       ecs.NewMap[components.VisualPosition](world),
		agentMap:     ecs.NewMap[components.Agent](world),
		evaderMap:    ecs.NewMap[components.Evader](world),
		energyMap:    ecs.NewMap[components.Energy](world),
		healthMap:    ecs.NewMap[components.Health](world),
		ageMap:       ecs.NewMap[components.Age](world),
		orgMap:       ecs.NewMap[components.Organism](world),
		sproutMap:    ecs.NewMap[components.Sprout](world),
		viewFilter:   ecs.NewFilter3[components.Position, components.Health, components.Organism](world),
		energyFilter: ecs.NewFilter2[components.Energy, components.Organism](world),
	}

	if g.runID == "" {
		if id, err := uuid.NewV4(); err == nil {
			g.runID = id.String()
		}
	}

	format, err := telemetry.ParseFormat(cfg.Telemetry.SnapshotFormat)
	if err != nil {
		slog.Error("invalid snapshot format, using json", "error", err)
		format = telemetry.FormatJSON
	}
	g.snapshotFormat = format

	for s := range g.indices {
		g.indices[s] = systems.NewSpatialIndex(w, h, cell)
	}
	g.caps = [components.NumSpecies]int{
		components.SpeciesProducer:  cfg.Population.MaxProducers,
		components.SpeciesHerbivore: cfg.Population.MaxHerbivores,
		components.SpeciesPredator:  cfg.Population.MaxPredators,
	}
	g.consumerCfgs[components.SpeciesHerbivore] = &cfg.Herbivore
	g.consumerCfgs[components.SpeciesPredator] = &cfg.Predator

	g.initSystems(opts.Workers)
	g.initTelemetry(opts)
	if !opts.Headless {
		g.initViewer()
	}

	g.seedPopulation()

	slog.Info("game created",
		"run_id", g.runID,
		"seed", g.seed,
		"producers", g.counts[components.SpeciesProducer],
		"herbivores", g.counts[components.SpeciesHerbivore],
		"predators", g.counts[components.SpeciesPredator],
	)
	return g
}

// initSystems builds every system from the config.
func (g *Game) initSystems(workers int) {
	cfg := g.cfg
	w, h := cfg.Derived.WorldW32, cfg.Derived.WorldH32
	producers := g.indices[components.SpeciesProducer]
	herbivores := g.indices[components.SpeciesHerbivore]
	predators := g.indices[components.SpeciesPredator]

	g.pool = systems.NewPool(workers)
	g.cmds = systems.NewCommands()
	g.registry = systems.NewSystemRegistry()

	g.lifecycle = systems.NewLifecycle(g.world, [components.NumSpecies]float32{
		components.SpeciesHerbivore: float32(cfg.Herbivore.DecayRate),
		components.SpeciesPredator:  float32(cfg.Predator.DecayRate),
	})
	g.growth = systems.NewGrowth(g.world, producers, systems.GrowthParams{
		Interval:     float32(cfg.Producer.ReproductionInterval),
		RateSparse:   float32(cfg.Producer.RateSparse),
		RateCrowded:  float32(cfg.Producer.RateCrowded),
		CrowdingLow:  int32(cfg.Producer.CrowdingLow),
		CrowdingHigh: int32(cfg.Producer.CrowdingHigh),
		Radius:       float32(cfg.Producer.CrowdingRadius),
		Max:          cfg.Population.MaxProducers,
	}, w, h, g.rng)

	attack := float32(cfg.Physics.AttackDistance)
	g.herbHunt = systems.NewHunting[components.Herbivore, components.Producer](
		g.world, producers, huntParams(&cfg.Herbivore, float32(cfg.Producer.Yield), attack), g.pool)
	g.predHunt = systems.NewHunting[components.Predator, components.Herbivore](
		g.world, herbivores, huntParams(&cfg.Predator, float32(cfg.Herbivore.Yield), attack), g.pool)

	g.herbRepro = systems.NewReproduction[components.Herbivore](
		g.world, components.SpeciesHerbivore, herbivores, mateParams(&cfg.Herbivore), g.logInvariant)
	g.predRepro = systems.NewReproduction[components.Predator](
		g.world, components.SpeciesPredator, predators, mateParams(&cfg.Predator), g.logInvariant)

	g.evasion = systems.NewEvasion[components.Herbivore, components.Predator](g.world, predators, systems.EvadeParams{
		FleeRadius:      float32(cfg.Evasion.FleeRadius),
		RecheckInterval: float32(cfg.Evasion.RecheckInterval),
	}, g.pool)

	g.movement = systems.NewMovement(g.world, w, h, float32(cfg.Physics.VisualSmoothing), g.pool)
	g.herbSync = systems.NewIndexSync[components.Herbivore](g.world, herbivores)
	g.predSync = systems.NewIndexSync[components.Predator](g.world, predators)
}

// huntParams builds a hunter's params; yield is what its prey is worth.
func huntParams(c *config.ConsumerConfig, yield, attack float32) systems.HuntParams {
	return systems.HuntParams{
		Damage:         float32(c.Damage),
		Cooldown:       float32(c.AttackCooldown),
		EatingTime:     float32(c.EatingTime),
		Yield:          yield,
		AttackDistance: attack,
	}
}

func mateParams(c *config.ConsumerConfig) systems.MateParams {
	return systems.MateParams{
		Threshold:    float32(c.Reproduction.Threshold),
		Cost:         float32(c.Reproduction.Cost),
		SearchRadius: float32(c.Reproduction.SearchRadius),
		Radius:       float32(c.Reproduction.Radius),
		MatingTime:   float32(c.Reproduction.MatingTime),
	}
}

// initTelemetry sets up the collectors and the optional CSV output.
func (g *Game) initTelemetry(opts Options) {
	window := opts.StatsWindowSec
	if window <= 0 {
		window = g.cfg.Telemetry.StatsWindow
	}
	g.collector = telemetry.NewCollector(window, g.dt)
	g.perfCollector = telemetry.NewPerfCollector(g.cfg.Telemetry.PerfCollectorWindow)
	g.lifetimeTracker = telemetry.NewLifetimeTracker()
	g.bookmarkDetector = telemetry.NewBookmarkDetector(10)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err, "dir", opts.OutputDir)
		return
	}
	g.outputManager = om
	if om != nil {
		if err := om.WriteConfig(g.cfg); err != nil {
			slog.Error("failed to write config snapshot", "error", err)
		}
	}
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 {
	return g.tick
}

// RunID returns the identifier of this run.
func (g *Game) RunID() string {
	return g.runID
}

// Counts returns the live population of every species.
func (g *Game) Counts() [components.NumSpecies]int {
	return g.counts
}

// Count returns the live population of one species.
func (g *Game) Count(s components.Species) int {
	return g.counts[s]
}

// Anomalies returns the number of invariant violations recovered from.
func (g *Game) Anomalies() int {
	return g.anomalies
}

// Registry returns the descriptions of the systems run each tick.
func (g *Game) Registry() *systems.SystemRegistry {
	return g.registry
}

// Perf returns the rolling phase timings.
func (g *Game) Perf() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// Paused reports whether the viewer paused the simulation.
func (g *Game) Paused() bool {
	return g.paused
}

// SetPaused pauses or resumes Update and UpdateHeadless.
func (g *Game) SetPaused(paused bool) {
	g.paused = paused
}

// StepsPerUpdate returns the ticks run per Update call.
func (g *Game) StepsPerUpdate() int {
	return g.stepsPerUpdate
}

// SetStepsPerUpdate changes the simulation speed, clamped to [1, 50].
func (g *Game) SetStepsPerUpdate(n int) {
	g.stepsPerUpdate = min(max(n, 1), 50)
}

// UpdateHeadless advances the simulation without any rendering.
func (g *Game) UpdateHeadless() {
	if g.paused {
		return
	}
	for range g.stepsPerUpdate {
		g.Step()
	}
}

// Unload flushes outstanding output and releases resources.
func (g *Game) Unload() {
	if g.pool != nil {
		g.pool.Stop()
	}
	if g.outputManager != nil {
		if err := g.outputManager.WriteLifetimes(g.finished); err != nil {
			slog.Error("failed to write lifetimes", "error", err)
		}
		g.finished = g.finished[:0]
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}
	if g.snapshotDir != "" {
		g.saveSnapshot(nil)
	}
}
