// Package events carries paint instructions from the simulation to whatever
// renders it, through a bounded FIFO channel with backpressure.
package events

import (
	"errors"
	"fmt"
)

// Position is a grid cell coordinate.
type Position struct {
	X, Y int
}

// Add returns p offset by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

// Clear is the colour painted on vacated cells.
var Clear = Color{}

// Event instructs the consumer to paint one cell.
type Event struct {
	Pos   Position
	Color Color
}

// Sink accepts events from the simulation. Push may block.
type Sink interface {
	Push(Event)
}

// ErrZeroCapacity is returned when a channel is created without space.
var ErrZeroCapacity = errors.New("events: channel capacity must be positive")

// Channel is a bounded FIFO of events. Push blocks while the channel is
// full; TryPop never blocks. Events are never dropped or reordered.
type Channel struct {
	ch chan Event
}

// NewChannel creates a channel holding at most capacity events.
func NewChannel(capacity int) (*Channel, error) {
	if capacity <= 0 {
		return nil, ErrZeroCapacity
	}
	return &Channel{ch: make(chan Event, capacity)}, nil
}

// Push enqueues e, blocking until a slot is free.
func (c *Channel) Push(e Event) {
	c.ch <- e
}

// TryPop dequeues one event if one is available.
func (c *Channel) TryPop() (Event, bool) {
	select {
	case e, ok := <-c.ch:
		return e, ok
	default:
		return Event{}, false
	}
}

// Len returns the number of queued events.
func (c *Channel) Len() int { return len(c.ch) }

// Cap returns the channel capacity.
func (c *Channel) Cap() int { return cap(c.ch) }

// Full reports whether the channel is at capacity.
func (c *Channel) Full() bool { return len(c.ch) == cap(c.ch) }

// Close marks the end of production. Only the producer may call it.
func (c *Channel) Close() { close(c.ch) }

// Discard drops queued events, blocking until the producer closes the
// channel. It releases a producer stuck on a full channel during shutdown.
func (c *Channel) Discard() int {
	n := 0
	for range c.ch {
		n++
	}
	return n
}

// Buffer is a Sink that keeps every event in memory.
type Buffer struct {
	Events []Event
}

// Push appends e.
func (b *Buffer) Push(e Event) { b.Events = append(b.Events, e) }

// Reset forgets recorded events.
func (b *Buffer) Reset() { b.Events = b.Events[:0] }
