package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	uuid "github.com/satori/go.uuid"

	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	writeConfig := flag.String("write-config", "", "Write the effective config to this path and exit")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	logPerf := flag.Bool("perf", false, "Log phase timings at exit")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, one subdirectory per run")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	speed := flag.Int("speed", 1, "Simulation ticks per update call (higher = faster headless runs)")
	workers := flag.Int("workers", 0, "Worker goroutines (0 = GOMAXPROCS)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *writeConfig != "" {
		if err := cfg.WriteYAML(*writeConfig); err != nil {
			slog.Error("failed to write config", "error", err)
			os.Exit(1)
		}
		slog.Info("config written", "path", *writeConfig)
		return
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	runID := uuid.Must(uuid.NewV4()).String()
	runOutput := *outputDir
	if runOutput != "" {
		runOutput = filepath.Join(runOutput, runID)
	}

	opts := game.Options{
		Seed:           rngSeed,
		Config:         cfg,
		Headless:       *headless,
		StepsPerUpdate: *speed,
		Workers:        *workers,
		RunID:          runID,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      runOutput,
		SnapshotDir:    *snapshotDir,
	}

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		g := game.NewGameWithOptions(opts)
		defer g.Unload()

		slog.Info("starting headless simulation",
			"run_id", runID,
			"seed", rngSeed,
			"max_ticks", *maxTicks,
			"speed", *speed,
		)

		start := time.Now()
		for {
			g.UpdateHeadless()

			if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
				slog.Info("max ticks reached",
					"tick", g.Tick(),
					"elapsed", time.Since(start).String(),
					"anomalies", g.Anomalies(),
				)
				break
			}
		}
		if *logPerf {
			g.Perf().LogStats()
		}
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Ecosim")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g := game.NewGameWithOptions(opts)
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
	if *logPerf {
		g.Perf().LogStats()
	}
}
