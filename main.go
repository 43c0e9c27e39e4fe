package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/pthm-cable/worms/config"
	"github.com/pthm-cable/worms/display"
	"github.com/pthm-cable/worms/game"
)

func init() {
	// raylib calls must stay on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, snapshots and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = use config)")
	snapshot := flag.String("snapshot", "", "Resume from a snapshot file instead of seeding populations")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	g, err := game.New(cfg, game.Options{
		Seed:      *seed,
		MaxTicks:  *maxTicks,
		OutputDir: *outputDir,
		LogStats:  *logStats,
		Snapshot:  *snapshot,
	})
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}

	if err := run(g, cfg, *headless); err != nil {
		slog.Error("simulation aborted", "error", err)
		os.Exit(1)
	}
}

func run(g *game.Game, cfg *config.Config, headless bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var front game.Frontend
	if !headless {
		win := display.Open(cfg.Board.Width, cfg.Board.Height, display.Options{
			Title:     cfg.Display.Title,
			Scale:     cfg.Display.Scale,
			TargetFPS: cfg.Display.TargetFPS,
			HUD:       cfg.Display.HUD,
		})
		defer win.Close()
		front = win
	}
	return g.Run(ctx, front)
}
