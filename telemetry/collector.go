// Package telemetry provides census tracking, bookmarking, and snapshots.
package telemetry

import "github.com/pthm-cable/worms/world"

// Collector accumulates simulation events within tick windows and produces
// WindowStats. It implements world.Recorder.
type Collector struct {
	windowTicks     int
	windowStartTick int

	// Event counters for current window
	births  int
	deaths  int
	eats    int
	removed int
	attacks int
	hits    int
}

var _ world.Recorder = (*Collector)(nil)

// NewCollector creates a collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

func (c *Collector) Born(tick int, child, a, b *world.Creature) {
	if a != nil {
		c.births++
	}
}

func (c *Collector) Died(tick int, cr *world.Creature) { c.deaths++ }

func (c *Collector) Ate(tick int, eater, food *world.Creature) { c.eats++ }

func (c *Collector) Attacked(tick int, attacker, defender *world.Creature, hit bool) {
	c.attacks++
	if hit {
		c.hits++
	}
}

func (c *Collector) Removed(tick int, cr *world.Creature) { c.removed++ }

// StartAt begins the current window at tick, discarding its counters.
func (c *Collector) StartAt(tick int) {
	c.windowStartTick = tick
	c.births, c.deaths, c.eats, c.removed, c.attacks, c.hits = 0, 0, 0, 0, 0, 0
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int {
	return c.windowTicks
}

// Flush produces a WindowStats from the counters and a census of the
// registry, then resets counters for the next window.
func (c *Collector) Flush(currentTick int, creatures []*world.Creature) WindowStats {
	s := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		Births:          c.births,
		Deaths:          c.deaths,
		Eats:            c.eats,
		Removed:         c.removed,
		Attacks:         c.attacks,
		Hits:            c.hits,
	}
	if c.attacks > 0 {
		s.HitRate = float64(c.hits) / float64(c.attacks)
	}

	health := make([]float64, 0, len(creatures))
	energy := make([]float64, 0, len(creatures))
	ages := make([]float64, 0, len(creatures))
	species := make(map[[3]uint8]struct{})
	for _, cr := range creatures {
		if cr.Garbage() {
			continue
		}
		if cr.Dead() {
			s.Carrion++
			continue
		}
		if cr.Kind() == world.KindDecoy {
			s.Decoys++
			continue
		}
		s.Alive++
		t := cr.Traits()
		species[[3]uint8{t.Species.R, t.Species.G, t.Species.B}] = struct{}{}
		switch world.DominantChannel(t.Species) {
		case 0:
			s.Red++
		case 1:
			s.Green++
		default:
			s.Blue++
		}
		health = append(health, cr.Health()/t.MaxHealth)
		energy = append(energy, cr.Energy()/t.MaxEnergy)
		ages = append(ages, float64(cr.Age()))
	}
	s.Species = len(species)

	h := Summarize(health)
	s.HealthMean, s.HealthStd, s.HealthP10, s.HealthP50, s.HealthP90 = h.Mean, h.Std, h.P10, h.P50, h.P90
	e := Summarize(energy)
	s.EnergyMean, s.EnergyStd, s.EnergyP10, s.EnergyP50, s.EnergyP90 = e.Mean, e.Std, e.P10, e.P50, e.P90
	s.AgeP50 = Summarize(ages).P50

	// Reset for next window
	c.windowStartTick = currentTick
	c.births = 0
	c.deaths = 0
	c.eats = 0
	c.removed = 0
	c.attacks = 0
	c.hits = 0

	return s
}
