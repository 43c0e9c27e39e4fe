// Package game wires the simulation, its event channel, and the consumers
// of its output into a single run.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/worms/config"
	"github.com/pthm-cable/worms/events"
	"github.com/pthm-cable/worms/genome"
	"github.com/pthm-cable/worms/lineage"
	"github.com/pthm-cable/worms/observer"
	"github.com/pthm-cable/worms/render"
	"github.com/pthm-cable/worms/telemetry"
	"github.com/pthm-cable/worms/world"
)

// bookmarkHistory is the number of census windows the bookmark detector keeps.
const bookmarkHistory = 10

// Options override configured values for a single run.
type Options struct {
	Seed      int64  // 0 uses simulation.seed
	MaxTicks  int    // 0 uses simulation.max_ticks, negative runs until cancelled; absolute when resuming
	OutputDir string // overrides telemetry.output_dir when set
	LogStats  bool   // log census windows and perf via slog
	Snapshot  string // resume from this snapshot file instead of seeding
}

// Game holds one run. The simulation is owned by the producer goroutine;
// the framebuffer and drainer by the consumer.
type Game struct {
	cfg      *config.Config
	seed     int64
	maxTicks int
	logStats bool

	sim     *world.Simulation
	ch      *events.Channel
	drainer *events.Drainer
	fb      *render.Framebuffer
	buf     []events.Event

	collector *telemetry.Collector
	lifetimes *telemetry.LifetimeTracker
	bookmarks *telemetry.BookmarkDetector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	lineage   *lineage.Writer
	observer  *observer.Server
	httpSrv   *http.Server

	// Published by the producer after every tick
	tick       atomic.Int64
	population atomic.Int64

	restore *telemetry.Snapshot // replaces seeding when set

	done chan struct{}
	err  error // producer result, read after done is closed
}

// New builds a run from cfg.
func New(cfg *config.Config, opts Options) (*Game, error) {
	g := &Game{
		cfg:      cfg,
		seed:     cfg.Simulation.Seed,
		maxTicks: cfg.Simulation.MaxTicks,
		logStats: opts.LogStats,
		done:     make(chan struct{}),
	}
	if opts.Seed != 0 {
		g.seed = opts.Seed
	}
	if opts.MaxTicks != 0 {
		g.maxTicks = opts.MaxTicks
	}
	if opts.Snapshot != "" {
		snap, err := telemetry.LoadSnapshot(opts.Snapshot)
		if err != nil {
			return nil, err
		}
		if snap.Version != telemetry.SnapshotVersion {
			return nil, fmt.Errorf("game: snapshot version %d, want %d", snap.Version, telemetry.SnapshotVersion)
		}
		if snap.Width != cfg.Board.Width || snap.Height != cfg.Board.Height {
			return nil, fmt.Errorf("game: snapshot is %dx%d, board is %dx%d", snap.Width, snap.Height, cfg.Board.Width, cfg.Board.Height)
		}
		g.restore = snap
		if opts.Seed == 0 {
			g.seed = snap.RNGSeed
		}
	}

	ch, err := events.NewChannel(cfg.Channel.Capacity)
	if err != nil {
		return nil, err
	}
	g.ch = ch
	g.drainer = events.NewDrainer(ch, cfg.Derived.Drain)
	g.fb = render.NewFramebuffer(cfg.Board.Width, cfg.Board.Height)

	board, err := world.NewBoard(cfg.Board.Width, cfg.Board.Height, ch)
	if err != nil {
		return nil, err
	}
	h, err := genome.NewHandler(cfg.Derived.Segments)
	if err != nil {
		return nil, fmt.Errorf("game: genome: %w", err)
	}

	g.collector = telemetry.NewCollector(cfg.Telemetry.Window)
	g.lifetimes = telemetry.NewLifetimeTracker()
	g.bookmarks = telemetry.NewBookmarkDetector(bookmarkHistory)
	g.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	recs := world.Recorders{g.collector, g.lifetimes}

	if cfg.Lineage.Path != "" {
		w, err := lineage.Create(cfg.Lineage.Path)
		if err != nil {
			return nil, err
		}
		g.lineage = w
		recs = append(recs, lineage.NewRecorder(w))
	}

	rng := rand.New(rand.NewSource(g.seed))
	g.sim = world.NewSimulation(board, h, cfg.Derived.Params, rng, recs)

	outDir := cfg.Telemetry.OutputDir
	if opts.OutputDir != "" {
		outDir = opts.OutputDir
	}
	if g.output, err = telemetry.NewOutputManager(outDir); err != nil {
		g.closeOutputs()
		return nil, err
	}
	if err := g.output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	if cfg.Observer.Addr != "" {
		g.observer = observer.NewServer(cfg.Board.Width, cfg.Board.Height)
		if g.httpSrv, err = g.observer.ListenAndServe(cfg.Observer.Addr); err != nil {
			g.closeOutputs()
			return nil, fmt.Errorf("game: observer: %w", err)
		}
	}
	return g, nil
}

// Sim returns the simulation. It may only be used while the game is not
// running.
func (g *Game) Sim() *world.Simulation { return g.sim }

// Framebuffer returns the consumer's framebuffer.
func (g *Game) Framebuffer() *render.Framebuffer { return g.fb }

// Seed returns the seed the run was started with.
func (g *Game) Seed() int64 { return g.seed }

// Run starts the producer and consumes its events until the producer
// finishes, ctx is cancelled, or front asks to close. A nil front runs
// headless. Run returns the producer's error, if any.
func (g *Game) Run(ctx context.Context, front Frontend) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slog.Info("starting simulation",
		"seed", g.seed,
		"width", g.cfg.Board.Width,
		"height", g.cfg.Board.Height,
		"max_ticks", g.maxTicks,
		"headless", front == nil,
	)
	go g.produce(ctx)
	g.consume(ctx, cancel, front)
	<-g.done

	g.finish()
	g.closeOutputs()
	return g.err
}

// Status returns counters for display. It is safe to call from the
// consumer goroutine.
func (g *Game) Status() Status {
	st := Status{
		Tick:       int(g.tick.Load()),
		Population: int(g.population.Load()),
		Batch:      g.drainer.Batch(),
		Queued:     g.ch.Len(),
	}
	if g.observer != nil {
		st.Viewers = g.observer.Viewers()
	}
	return st
}

// finish writes end-of-run artifacts. The producer has exited.
func (g *Game) finish() {
	slog.Info("simulation finished",
		"tick", g.sim.Tick(),
		"population", g.sim.Board().Len(),
		"batch", g.drainer.Batch(),
	)
	if g.output == nil {
		return
	}
	snap := telemetry.TakeSnapshot(g.sim, g.seed, g.lifetimes, nil)
	if path, err := g.output.WriteSnapshot(snap); err != nil {
		slog.Error("failed to write final snapshot", "error", err)
	} else {
		slog.Info("final snapshot saved", "path", path)
	}
	if err := g.output.WriteImage("final", g.fb); err != nil {
		slog.Error("failed to write final image", "error", err)
	}
}

func (g *Game) closeOutputs() {
	if g.observer != nil {
		g.observer.Close()
	}
	if g.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = g.httpSrv.Shutdown(ctx)
		cancel()
	}
	if g.lineage != nil {
		if err := g.lineage.Close(); err != nil {
			slog.Error("failed to close lineage log", "error", err)
		}
	}
	if err := g.output.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
