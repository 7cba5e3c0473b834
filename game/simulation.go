package game

import (
	"github.com/pthm-cable/ecosim/telemetry"
)

// Step advances the simulation by one fixed tick.
//
// Phase order is fixed: lifecycle, hunting, reproduction, evasion,
// movement, index resync, visual smoothing. Every phase that can kill or
// create entities is followed by a flush, so later phases never see a
// pending structural change.
func (g *Game) Step() {
	dt := g.dt
	perf := g.perfCollector
	perf.StartTick()

	perf.StartPhase(telemetry.PhaseLifecycle)
	g.lifecycle.Update(dt, g.cmds)
	g.growth.Update(dt, g.cmds)
	perf.StartPhase(telemetry.PhaseFlush)
	g.flush()

	perf.StartPhase(telemetry.PhaseHunting)
	hunt := g.herbHunt.Update(dt, g.cmds)
	hunt.Add(g.predHunt.Update(dt, g.cmds))
	g.collector.RecordHunt(hunt)
	perf.StartPhase(telemetry.PhaseFlush)
	g.flush()

	perf.StartPhase(telemetry.PhaseReproduction)
	repro := g.herbRepro.Update(dt, g.cmds)
	repro.Add(g.predRepro.Update(dt, g.cmds))
	g.collector.RecordReproduction(repro)
	g.anomalies += repro.Anomalies
	perf.StartPhase(telemetry.PhaseFlush)
	g.flush()

	perf.StartPhase(telemetry.PhaseEvasion)
	g.collector.RecordFleeing(g.evasion.Update(dt))

	perf.StartPhase(telemetry.PhaseMovement)
	g.movement.Update(dt)

	perf.StartPhase(telemetry.PhaseResync)
	g.invariant(g.herbSync.Update())
	g.invariant(g.predSync.Update())
	g.movement.UpdateVisual(dt)

	g.tick++

	perf.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()
	perf.EndTick()
}
