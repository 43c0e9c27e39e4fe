package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/worms/genome"
	"github.com/pthm-cable/worms/seeding"
	"github.com/pthm-cable/worms/telemetry"
	"github.com/pthm-cable/worms/world"
)

// produce seeds the board and steps it until the tick limit or until ctx is
// cancelled. Cancellation is observed between ticks only. The channel is
// closed on every exit path so the consumer can finish.
func (g *Game) produce(ctx context.Context) {
	defer close(g.done)
	defer g.ch.Close()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err, ok := r.(error)
		var inv *world.InvariantError
		if !ok || !errors.As(err, &inv) {
			panic(r)
		}
		slog.Error("board invariant violated",
			"op", inv.Op,
			"pos", inv.Pos.String(),
			"creature", inv.CreatureID,
			"reason", inv.Reason,
			"tick", g.sim.Tick(),
		)
		g.err = err
	}()

	if err := g.fill(); err != nil {
		slog.Error("seeding failed", "error", err)
		g.err = err
		return
	}
	g.publish()

	for g.maxTicks <= 0 || g.sim.Tick() < g.maxTicks {
		if ctx.Err() != nil {
			return
		}
		if err := g.step(); err != nil {
			var enc *genome.EncodingError
			if errors.As(err, &enc) {
				slog.Error("genome decode failed", "segment", enc.Segment, "error", err, "tick", g.sim.Tick())
			} else {
				slog.Error("simulation step failed", "error", err, "tick", g.sim.Tick())
			}
			g.err = err
			return
		}
	}
	if g.maxTicks > 0 {
		slog.Info("max ticks reached", "tick", g.sim.Tick())
	}
}

// step runs one timed tick.
func (g *Game) step() error {
	g.perf.StartTick()

	g.perf.StartPhase(telemetry.PhaseSweep)
	if err := g.sim.Sweep(); err != nil {
		return err
	}

	g.perf.StartPhase(telemetry.PhaseReconcile)
	g.sim.Reconcile()

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perf.EndTick()
	g.publish()
	return nil
}

func (g *Game) publish() {
	g.tick.Store(int64(g.sim.Tick()))
	g.population.Store(int64(g.sim.Board().Len()))
}

// fill fills the board from the snapshot being resumed, or from the
// configured populations.
func (g *Game) fill() error {
	if g.restore == nil {
		return g.populate()
	}
	if err := g.restore.Restore(g.sim, g.lifetimes); err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	g.collector.StartAt(g.sim.Tick())
	slog.Info("snapshot restored",
		"tick", g.sim.Tick(),
		"creatures", g.sim.Board().Len(),
	)
	return nil
}

// populate seeds every configured population in order.
func (g *Game) populate() error {
	for i, pop := range g.cfg.Derived.Populations {
		strat, err := seeding.New(pop.Strategy, g.cfg.Board.Width, g.cfg.Board.Height, g.sim.RNG())
		if err != nil {
			return fmt.Errorf("population %d: %w", i, err)
		}
		placed, err := seeding.Populate(g.sim, pop.Kind, pop.Count, strat, pop.Overrides, seeding.DefaultMaxAttempts)
		if err != nil {
			if !errors.Is(err, seeding.ErrNoRoom) {
				return fmt.Errorf("population %d: %w", i, err)
			}
			slog.Warn("population truncated", "population", i, "placed", len(placed), "want", pop.Count)
			continue
		}
		slog.Info("population seeded",
			"population", i,
			"kind", pop.Kind.String(),
			"count", len(placed),
			"strategy", pop.Strategy.Type,
		)
	}
	return nil
}
