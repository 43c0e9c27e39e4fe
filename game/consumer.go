package game

import (
	"context"
	"time"

	"github.com/pthm-cable/worms/events"
	"github.com/pthm-cable/worms/render"
)

// idleWait is how long a headless consumer sleeps on an empty channel.
const idleWait = time.Millisecond

// Status is a point-in-time summary for a HUD.
type Status struct {
	Tick       int
	Population int
	Batch      int
	Queued     int
	Viewers    int
}

// Frontend presents the framebuffer once per consumer cycle. It runs on the
// consumer goroutine.
type Frontend interface {
	// Present shows fb. It may block, e.g. for vsync.
	Present(fb *render.Framebuffer, st Status)
	// Paused stops draining. The producer blocks once the channel fills.
	Paused() bool
	// Closed reports that the user asked to quit.
	Closed() bool
}

// consume drains the channel into the framebuffer and observer until the
// producer closes it. On cancellation it discards the rest so a producer
// blocked on a full channel can finish its tick.
func (g *Game) consume(ctx context.Context, cancel context.CancelFunc, front Frontend) {
	for {
		if ctx.Err() != nil {
			g.ch.Discard()
			return
		}

		paused := front != nil && front.Paused()
		n := 0
		if !paused {
			n = g.drainOnce()
		}

		if front != nil {
			front.Present(g.fb, g.Status())
			g.perf.RecordFrame()
			if front.Closed() {
				cancel()
				continue
			}
		}

		select {
		case <-g.done:
			g.drainRest()
			return
		default:
		}

		if front == nil && n == 0 {
			select {
			case <-g.done:
			case <-time.After(idleWait):
			}
		}
	}
}

// drainOnce applies one batch and returns its size.
func (g *Game) drainOnce() int {
	var n int
	g.buf, n = g.drainer.Drain(g.buf, g.fb)
	if n == 0 {
		return 0
	}
	if g.observer != nil {
		g.observer.Broadcast(g.buf)
	}
	g.perf.RecordBatch(g.drainer.Batch())
	return n
}

// drainRest applies everything left in a closed channel.
func (g *Game) drainRest() {
	for g.drainOnce() > 0 {
	}
}

var _ events.Applier = (*render.Framebuffer)(nil)
