package game

import (
	"log/slog"

	"github.com/pthm-cable/worms/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	tick := g.sim.Tick()
	if !g.collector.ShouldFlush(tick) {
		return
	}

	stats := g.collector.Flush(tick, g.sim.Board().Creatures())
	perfStats := g.perf.Stats()

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.output != nil {
		if err := g.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	if g.lineage != nil {
		if err := g.lineage.Flush(); err != nil {
			slog.Error("failed to flush lineage log", "error", err)
		}
	}

	// Check for bookmarks
	for _, bm := range g.bookmarks.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.output == nil {
			continue
		}
		if err := g.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		g.saveSnapshot(bm)
	}
}

// saveSnapshot writes the board state for a bookmark.
func (g *Game) saveSnapshot(bm telemetry.Bookmark) {
	snap := telemetry.TakeSnapshot(g.sim, g.seed, g.lifetimes, &bm)
	path, err := g.output.WriteSnapshot(snap)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", snap.Tick, "bookmark", string(bm.Type))
}
