package telemetry

import "github.com/pthm-cable/worms/world"

// LifetimeStats tracks per-creature statistics over its lifetime.
type LifetimeStats struct {
	ID        uint64    `json:"id"`
	Parents   [2]uint64 `json:"parents"`
	BirthTick int       `json:"birth_tick"`
	DeathTick int       `json:"death_tick,omitempty"`
	Age       int       `json:"age"`

	Children int `json:"children"`
	Meals    int `json:"meals"`
	Attacks  int `json:"attacks"`
	Hits     int `json:"hits"`
	Wounds   int `json:"wounds"` // hits taken
}

// LifetimeTracker manages per-creature lifetime statistics. It implements
// world.Recorder.
type LifetimeTracker struct {
	stats map[uint64]*LifetimeStats

	// Record holders among creatures that have died
	oldest   *LifetimeStats
	prolific *LifetimeStats
}

var _ world.Recorder = (*LifetimeTracker)(nil)

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint64]*LifetimeStats),
	}
}

func (lt *LifetimeTracker) Born(tick int, child, a, b *world.Creature) {
	lt.stats[child.ID()] = &LifetimeStats{ID: child.ID(), Parents: child.Parents(), BirthTick: tick}
	for _, p := range []*world.Creature{a, b} {
		if p == nil {
			continue
		}
		if s := lt.stats[p.ID()]; s != nil {
			s.Children++
		}
	}
}

func (lt *LifetimeTracker) Died(tick int, c *world.Creature) {
	s := lt.stats[c.ID()]
	if s == nil {
		return
	}
	s.DeathTick = tick
	s.Age = c.Age()
	if lt.oldest == nil || s.Age > lt.oldest.Age {
		lt.oldest = s
	}
	if lt.prolific == nil || s.Children > lt.prolific.Children {
		lt.prolific = s
	}
}

func (lt *LifetimeTracker) Ate(tick int, eater, food *world.Creature) {
	if s := lt.stats[eater.ID()]; s != nil {
		s.Meals++
	}
}

func (lt *LifetimeTracker) Attacked(tick int, attacker, defender *world.Creature, hit bool) {
	if s := lt.stats[attacker.ID()]; s != nil {
		s.Attacks++
		if hit {
			s.Hits++
		}
	}
	if s := lt.stats[defender.ID()]; s != nil && hit {
		s.Wounds++
	}
}

// Removed forgets the creature. Record holders are kept.
func (lt *LifetimeTracker) Removed(tick int, c *world.Creature) {
	delete(lt.stats, c.ID())
}

// Restore tracks a creature placed from a snapshot. A nil saved record
// starts a fresh one.
func (lt *LifetimeTracker) Restore(c *world.Creature, saved *LifetimeStats) {
	s := &LifetimeStats{ID: c.ID(), Parents: c.Parents()}
	if saved != nil {
		*s = *saved
	}
	lt.stats[c.ID()] = s
}

// Get returns the lifetime stats for a creature, or nil if not found.
func (lt *LifetimeTracker) Get(id uint64) *LifetimeStats {
	return lt.stats[id]
}

// Count returns the number of tracked creatures.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// Oldest returns the longest-lived creature that has died, or nil.
func (lt *LifetimeTracker) Oldest() *LifetimeStats { return lt.oldest }

// MostProlific returns the dead creature with the most children, or nil.
func (lt *LifetimeTracker) MostProlific() *LifetimeStats { return lt.prolific }
