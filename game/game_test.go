package game

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/worms/config"
	"github.com/pthm-cable/worms/events"
	"github.com/pthm-cable/worms/render"
)

const smallConfig = `
board: {width: 24, height: 16}
channel: {capacity: 8, batch_start: 2, batch_max: 64, batch_step: 2}
simulation: {seed: 5, max_ticks: 40}
telemetry: {window: 10, perf_window: 10}
populations:
  - kind: worm
    count: 60
    strategy: {type: random, seed: 2}
  - kind: decoy
    count: 4
    strategy: {type: horizontal}
`

func loadSmall(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(smallConfig))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

// checkFrame compares the framebuffer with the board cell by cell.
func checkFrame(t *testing.T, g *Game) {
	t.Helper()
	b := g.Sim().Board()
	want := render.NewFramebuffer(b.Width(), b.Height())
	for _, c := range b.Creatures() {
		if !c.Garbage() {
			want.Apply(events.Event{Pos: c.Pos(), Color: c.Color()})
		}
	}
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			if got, w := g.Framebuffer().At(x, y), want.At(x, y); got != w {
				t.Fatalf("pixel (%d,%d) = %v, board says %v", x, y, got, w)
			}
		}
	}
}

func TestHeadlessRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	g, err := New(loadSmall(t), Options{OutputDir: out})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if g.Sim().Tick() != 40 {
		t.Errorf("tick = %d, want 40", g.Sim().Tick())
	}
	if err := g.Sim().Board().CheckInvariants(); err != nil {
		t.Fatal(err)
	}
	checkFrame(t, g)
	if g.drainer.Batch() <= 2 {
		t.Errorf("batch = %d, expected growth on an 8-slot channel", g.drainer.Batch())
	}

	for _, name := range []string{"telemetry.csv", "perf.csv", "config.yaml", "final.png"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "snapshots", "snapshot_40.json")); err != nil {
		t.Errorf("missing final snapshot: %v", err)
	}
}

func TestSeededRunsMatch(t *testing.T) {
	var frames [2]*render.Framebuffer
	for i := range frames {
		g, err := New(loadSmall(t), Options{MaxTicks: 25})
		if err != nil {
			t.Fatal(err)
		}
		if err := g.Run(context.Background(), nil); err != nil {
			t.Fatal(err)
		}
		frames[i] = g.Framebuffer()
	}
	for i := range frames[0].Pix {
		if frames[0].Pix[i] != frames[1].Pix[i] {
			t.Fatalf("runs diverge at pixel %d", i)
		}
	}
}

// scriptedFront pauses for a few frames and then asks to close.
type scriptedFront struct {
	frames    int
	pauseFrom int
	closeAt   int
	last      Status
}

func (f *scriptedFront) Present(fb *render.Framebuffer, st Status) {
	f.frames++
	f.last = st
}

func (f *scriptedFront) Paused() bool { return f.frames >= f.pauseFrom }
func (f *scriptedFront) Closed() bool { return f.frames >= f.closeAt }

func TestFrontendCloseStopsProducer(t *testing.T) {
	cfg := loadSmall(t)
	g, err := New(cfg, Options{MaxTicks: -1})
	if err != nil {
		t.Fatal(err)
	}
	// Paused long enough for the producer to block on the full channel.
	front := &scriptedFront{pauseFrom: 5, closeAt: 50}

	done := make(chan error, 1)
	go func() { done <- g.Run(context.Background(), front) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after the frontend closed")
	}
	if front.frames < front.closeAt {
		t.Errorf("presented %d frames, want %d", front.frames, front.closeAt)
	}
	if err := g.Sim().Board().CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestCancelStopsHeadlessRun(t *testing.T) {
	g, err := New(loadSmall(t), Options{MaxTicks: -1})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := g.Run(ctx, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The last tick always completes.
	if err := g.Sim().Board().CheckInvariants(); err != nil {
		t.Fatal(err)
	}
}

func TestResumeFromSnapshot(t *testing.T) {
	out := t.TempDir()
	first, err := New(loadSmall(t), Options{MaxTicks: 20, OutputDir: out})
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(out, "snapshots", "snapshot_20.json")

	// No steps past the saved tick: the board is exactly the saved one.
	same, err := New(loadSmall(t), Options{MaxTicks: 20, Snapshot: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := same.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if same.Sim().Tick() != 20 {
		t.Errorf("resumed tick = %d, want 20", same.Sim().Tick())
	}
	want := first.Sim().Board().Creatures()
	got := same.Sim().Board().Creatures()
	if len(got) != len(want) {
		t.Fatalf("resumed %d creatures, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID() != want[i].ID() || got[i].Pos() != want[i].Pos() || got[i].State() != want[i].State() {
			t.Errorf("creature %d resumed as %d at %v", want[i].ID(), got[i].ID(), got[i].Pos())
		}
	}
	checkFrame(t, same)
	for i := range first.Framebuffer().Pix {
		if first.Framebuffer().Pix[i] != same.Framebuffer().Pix[i] {
			t.Fatalf("resumed frame differs at pixel %d", i)
		}
	}

	// Resumed runs keep going from the saved tick.
	more, err := New(loadSmall(t), Options{MaxTicks: 30, Snapshot: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := more.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if more.Sim().Tick() != 30 {
		t.Errorf("tick = %d, want 30", more.Sim().Tick())
	}
	if err := more.Sim().Board().CheckInvariants(); err != nil {
		t.Fatal(err)
	}
	checkFrame(t, more)
}

func TestResumeRejectsOtherBoardSize(t *testing.T) {
	out := t.TempDir()
	g, err := New(loadSmall(t), Options{MaxTicks: 5, OutputDir: out})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Parse([]byte(strings.Replace(smallConfig, "width: 24", "width: 30", 1)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(cfg, Options{Snapshot: filepath.Join(out, "snapshots", "snapshot_5.json")}); err == nil {
		t.Error("expected error for a snapshot of another board size")
	}
	if _, err := New(cfg, Options{Snapshot: filepath.Join(out, "missing.json")}); err == nil {
		t.Error("expected error for a missing snapshot")
	}
}
