package world

import (
	"context"
	"math/rand"

	"github.com/pthm-cable/worms/events"
	"github.com/pthm-cable/worms/genome"
)

// Recorder observes simulation events. Implementations must not mutate the
// creatures they are handed.
type Recorder interface {
	Born(tick int, child, parentA, parentB *Creature)
	Died(tick int, c *Creature)
	Ate(tick int, eater, food *Creature)
	Attacked(tick int, attacker, defender *Creature, hit bool)
	Removed(tick int, c *Creature)
}

// NopRecorder ignores every event. Embed it to implement part of Recorder.
type NopRecorder struct{}

func (NopRecorder) Born(int, *Creature, *Creature, *Creature) {}
func (NopRecorder) Died(int, *Creature) {}
func (NopRecorder) Ate(int, *Creature, *Creature) {}
func (NopRecorder) Attacked(int, *Creature, *Creature, bool) {}
func (NopRecorder) Removed(int, *Creature) {}

// Recorders fans events out to several recorders in order.
type Recorders []Recorder

func (rs Recorders) Born(tick int, child, a, b *Creature) {
	for _, r := range rs {
		r.Born(tick, child, a, b)
	}
}

func (rs Recorders) Died(tick int, c *Creature) {
	for _, r := range rs {
		r.Died(tick, c)
	}
}

func (rs Recorders) Ate(tick int, eater, food *Creature) {
	for _, r := range rs {
		r.Ate(tick, eater, food)
	}
}

func (rs Recorders) Attacked(tick int, attacker, defender *Creature, hit bool) {
	for _, r := range rs {
		r.Attacked(tick, attacker, defender, hit)
	}
}

func (rs Recorders) Removed(tick int, c *Creature) {
	for _, r := range rs {
		r.Removed(tick, c)
	}
}

// Simulation drives ticks over a board. It is owned by a single goroutine.
type Simulation struct {
	board   *Board
	handler *genome.Handler
	params  Params
	rng     *rand.Rand
	rec     Recorder

	tick   int
	nextID uint64
}

// NewSimulation creates a simulation. A nil recorder discards events.
func NewSimulation(b *Board, h *genome.Handler, p Params, rng *rand.Rand, rec Recorder) *Simulation {
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Simulation{board: b, handler: h, params: p, rng: rng, rec: rec, nextID: 1}
}

// Board returns the simulated board.
func (s *Simulation) Board() *Board { return s.board }

// Handler returns the genome handler.
func (s *Simulation) Handler() *genome.Handler { return s.handler }

// Params returns the behaviour tunables.
func (s *Simulation) Params() Params { return s.params }

// RNG returns the simulation's random source.
func (s *Simulation) RNG() *rand.Rand { return s.rng }

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int { return s.tick }

// SetTick sets the completed tick count. It is used to resume from a
// snapshot before the first step.
func (s *Simulation) SetTick(tick int) { s.tick = tick }

func (s *Simulation) allocID() uint64 {
	id := s.nextID
	s.nextID++
	return id
}

// Spawn decodes g into a new creature and places it at pos.
func (s *Simulation) Spawn(kind Kind, g genome.Genome, pos events.Position) (*Creature, error) {
	c, err := NewCreature(s.allocID(), kind, g, s.handler, s.params)
	if err != nil {
		return nil, err
	}
	s.board.Put(c, pos)
	s.rec.Born(s.tick, c, nil, nil)
	return c, nil
}

// Place registers an already built creature at pos. A zero id is replaced
// by a fresh one; explicit ids reserve themselves.
func (s *Simulation) Place(c *Creature, pos events.Position) {
	if c.id == 0 {
		c.id = s.allocID()
	} else if c.id >= s.nextID {
		s.nextID = c.id + 1
	}
	s.board.Put(c, pos)
}

func (s *Simulation) spawnChild(kind Kind, g genome.Genome, pos events.Position, a, b *Creature) (*Creature, error) {
	c, err := NewCreature(s.allocID(), kind, g, s.handler, s.params)
	if err != nil {
		return nil, err
	}
	c.parents = [2]uint64{a.id, b.id}
	s.board.Put(c, pos)
	return c, nil
}

// Sweep runs one turn for every creature registered when the sweep began.
// Creatures born during the sweep first act on the next tick.
func (s *Simulation) Sweep() error {
	n := len(s.board.creatures)
	for i := 0; i < n; i++ {
		if err := s.board.creatures[i].Turn(s); err != nil {
			return err
		}
	}
	return nil
}

// Reconcile removes creatures flagged during the sweep and ends the tick.
func (s *Simulation) Reconcile() []*Creature {
	removed := s.board.Reconcile(s.params.CarrionTicks)
	for _, c := range removed {
		s.rec.Removed(s.tick, c)
	}
	s.tick++
	return removed
}

// Step runs a full tick: sweep, then reconciliation.
func (s *Simulation) Step() error {
	if err := s.Sweep(); err != nil {
		return err
	}
	s.Reconcile()
	return nil
}

// Run steps until ctx is cancelled or maxTicks ticks have completed
// (maxTicks <= 0 runs forever). Cancellation is only observed between
// ticks. afterTick, if set, is called after each tick.
func (s *Simulation) Run(ctx context.Context, maxTicks int, afterTick func(tick int)) error {
	for maxTicks <= 0 || s.tick < maxTicks {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.Step(); err != nil {
			return err
		}
		if afterTick != nil {
			afterTick(s.tick)
		}
	}
	return nil
}
