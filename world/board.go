package world

import (
	"fmt"

	"github.com/pthm-cable/worms/events"
)

// InvariantError describes a board operation that would corrupt the grid.
// It is raised with panic: the caller broke a precondition it had checked.
type InvariantError struct {
	Op         string
	Pos        events.Position
	CreatureID uint64
	Reason     string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("world: %s at %v (creature %d): %s", e.Op, e.Pos, e.CreatureID, e.Reason)
}

// Board is the grid plus the registry of tracked creatures. It is the sole
// owner of creature lifetime. Every visible change is pushed to the sink
// after the grid has been updated.
type Board struct {
	width, height int
	cells         []*Creature
	creatures     []*Creature
	sink          events.Sink
}

// NewBoard creates an empty width×height board publishing into sink.
func NewBoard(width, height int, sink events.Sink) (*Board, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("world: board size %dx%d must be positive", width, height)
	}
	if sink == nil {
		return nil, fmt.Errorf("world: board needs an event sink")
	}
	return &Board{
		width:  width,
		height: height,
		cells:  make([]*Creature, width*height),
		sink:   sink,
	}, nil
}

// Width returns the number of columns.
func (b *Board) Width() int { return b.width }

// Height returns the number of rows.
func (b *Board) Height() int { return b.height }

// InBounds reports whether p lies on the board.
func (b *Board) InBounds(p events.Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.width && p.Y < b.height
}

// IsFree reports whether p lies on the board and holds no creature.
func (b *Board) IsFree(p events.Position) bool {
	return b.InBounds(p) && b.cells[b.index(p)] == nil
}

// At returns the creature at p, or nil.
func (b *Board) At(p events.Position) *Creature {
	if !b.InBounds(p) {
		return nil
	}
	return b.cells[b.index(p)]
}

// Creatures returns the registry. The slice must not be modified.
func (b *Board) Creatures() []*Creature { return b.creatures }

// Len returns the number of tracked creatures, including pending removals.
func (b *Board) Len() int { return len(b.creatures) }

// Put registers c, places it at p and paints it.
func (b *Board) Put(c *Creature, p events.Position) {
	if c.board != nil {
		panic(&InvariantError{Op: "put", Pos: p, CreatureID: c.id, Reason: "creature already placed"})
	}
	if !b.InBounds(p) {
		panic(&InvariantError{Op: "put", Pos: p, CreatureID: c.id, Reason: "off grid"})
	}
	if occ := b.cells[b.index(p)]; occ != nil {
		panic(&InvariantError{Op: "put", Pos: p, CreatureID: c.id, Reason: fmt.Sprintf("cell occupied by %d", occ.id)})
	}

	c.board = b
	c.pos = p
	b.creatures = append(b.creatures, c)
	b.cells[b.index(p)] = c
	b.sink.Push(events.Event{Pos: p, Color: c.Color()})
}

// Remove vacates the cell at p and clears it. The creature is flagged as
// garbage and stays in the registry until the next Reconcile.
func (b *Board) Remove(p events.Position) *Creature {
	c := b.At(p)
	if c == nil {
		panic(&InvariantError{Op: "remove", Pos: p, Reason: "cell empty"})
	}
	b.cells[b.index(p)] = nil
	c.garbage = true
	b.sink.Push(events.Event{Pos: p, Color: events.Clear})
	return c
}

// CheckOut vacates c's cell and clears it without touching the registry.
func (b *Board) CheckOut(c *Creature) {
	b.mustHold("check out", c)
	b.cells[b.index(c.pos)] = nil
	b.sink.Push(events.Event{Pos: c.pos, Color: events.Clear})
}

// CheckIn writes c into the cell at its stored position and paints it. It
// also serves as a repaint when c already occupies that cell.
func (b *Board) CheckIn(c *Creature) {
	if !b.InBounds(c.pos) {
		panic(&InvariantError{Op: "check in", Pos: c.pos, CreatureID: c.id, Reason: "off grid"})
	}
	if occ := b.cells[b.index(c.pos)]; occ != nil && occ != c {
		panic(&InvariantError{Op: "check in", Pos: c.pos, CreatureID: c.id, Reason: fmt.Sprintf("cell occupied by %d", occ.id)})
	}
	b.cells[b.index(c.pos)] = c
	b.sink.Push(events.Event{Pos: c.pos, Color: c.Color()})
}

// Move relocates c to the free cell dst.
func (b *Board) Move(c *Creature, dst events.Position) {
	if !b.IsFree(dst) {
		panic(&InvariantError{Op: "move", Pos: dst, CreatureID: c.id, Reason: "destination not free"})
	}
	b.CheckOut(c)
	c.pos = dst
	b.CheckIn(c)
}

// Reconcile drops garbage creatures from the registry and ages corpses.
// A corpse that has lain for carrionTicks passes is cleared and dropped.
// It must only run after a full sweep over the registry.
func (b *Board) Reconcile(carrionTicks int) []*Creature {
	var removed []*Creature
	kept := b.creatures[:0]
	for _, c := range b.creatures {
		if !c.garbage && c.died {
			c.rotting++
			if carrionTicks > 0 && c.rotting >= carrionTicks {
				b.Remove(c.pos)
			}
		}
		if c.garbage {
			c.board = nil
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(b.creatures); i++ {
		b.creatures[i] = nil
	}
	b.creatures = kept
	return removed
}

// CheckInvariants verifies that every occupied cell holds a creature whose
// position matches, and that every tracked creature not pending removal is
// reachable from its cell.
func (b *Board) CheckInvariants() error {
	inRegistry := make(map[*Creature]bool, len(b.creatures))
	for _, c := range b.creatures {
		inRegistry[c] = true
		if c.garbage {
			continue
		}
		if b.At(c.pos) != c {
			return &InvariantError{Op: "check", Pos: c.pos, CreatureID: c.id, Reason: "registered creature not at its cell"}
		}
	}
	for i, c := range b.cells {
		if c == nil {
			continue
		}
		p := events.Position{X: i % b.width, Y: i / b.width}
		if c.pos != p {
			return &InvariantError{Op: "check", Pos: p, CreatureID: c.id, Reason: fmt.Sprintf("cell holds creature positioned at %v", c.pos)}
		}
		if !inRegistry[c] {
			return &InvariantError{Op: "check", Pos: p, CreatureID: c.id, Reason: "cell holds unregistered creature"}
		}
	}
	return nil
}

func (b *Board) index(p events.Position) int { return p.Y*b.width + p.X }

func (b *Board) mustHold(op string, c *Creature) {
	if !b.InBounds(c.pos) || b.cells[b.index(c.pos)] != c {
		panic(&InvariantError{Op: op, Pos: c.pos, CreatureID: c.id, Reason: "creature not at its cell"})
	}
}
