// Command termview runs the simulation in a terminal, one character per
// patch of world.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/game"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	speed := flag.Int("speed", 1, "Simulation ticks per frame")
	logPath := flag.String("log", "", "Write logs to this file (default: discard)")
	flag.Parse()

	// The terminal belongs to tcell, so logs go to a file or nowhere.
	logOut := os.Stderr
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			log.Fatalf("failed to open log: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	level := slog.LevelError + 1
	if *logPath != "" {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	g := game.NewGameWithOptions(game.Options{
		Seed:           rngSeed,
		Config:         cfg,
		Headless:       true,
		StepsPerUpdate: *speed,
	})
	defer g.Unload()

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("failed to create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("failed to init screen: %v", err)
	}
	defer screen.Fini()

	v := &viewer{game: g, screen: screen, cfg: cfg}
	v.run(time.Duration(float64(time.Second) / float64(max(cfg.Screen.TargetFPS, 1))))
}

type viewer struct {
	game   *game.Game
	screen tcell.Screen
	cfg    *config.Config
	raster *raster
}

func (v *viewer) run(frame time.Duration) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	v.draw()
	for {
		select {
		case ev := <-events:
			if !v.handleEvent(ev) {
				return
			}
		case <-ticker.C:
			v.game.UpdateHeadless()
			v.draw()
		}
	}
}

// handleEvent returns false when the viewer should exit.
func (v *viewer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
		v.raster = nil
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case 'p', ' ':
			v.game.SetPaused(!v.game.Paused())
		case '+', '=':
			v.game.SetStepsPerUpdate(v.game.StepsPerUpdate() + 1)
		case '-':
			v.game.SetStepsPerUpdate(v.game.StepsPerUpdate() - 1)
		}
	}
	return true
}

func (v *viewer) draw() {
	cols, rows := v.screen.Size()
	rows-- // status line
	if rows <= 0 || cols <= 0 {
		return
	}
	if v.raster == nil || v.raster.cols != cols || v.raster.rows != rows {
		v.raster = newRaster(cols, rows, v.cfg.Derived.WorldW32, v.cfg.Derived.WorldH32)
	}
	r := v.raster
	r.reset()
	v.game.Agents(func(a game.AgentView) bool {
		r.add(a)
		return true
	})

	v.screen.Clear()
	for y := range rows {
		for x := range cols {
			c := r.at(x, y)
			if !c.set {
				continue
			}
			col := c.behavior.Color()
			style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(col.R), int32(col.G), int32(col.B)))
			v.screen.SetContent(x, y, glyphs[c.species], nil, style)
		}
	}

	counts := v.game.Counts()
	status := fmt.Sprintf(" tick %d  producers %d  herbivores %d  predators %d  speed %dx",
		v.game.Tick(),
		counts[components.SpeciesProducer],
		counts[components.SpeciesHerbivore],
		counts[components.SpeciesPredator],
		v.game.StepsPerUpdate(),
	)
	if v.game.Paused() {
		status += "  PAUSED"
	}
	status += "  [p]ause [+/-]speed [q]uit"
	statusStyle := tcell.StyleDefault.Reverse(true)
	for x := range cols {
		ch := ' '
		if x < len(status) {
			ch = rune(status[x])
		}
		v.screen.SetContent(x, rows, ch, nil, statusStyle)
	}
	v.screen.Show()
}
