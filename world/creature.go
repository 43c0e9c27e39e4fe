package world

import (
	"math"

	"github.com/pthm-cable/worms/events"
	"github.com/pthm-cable/worms/genome"
)

// Creature is one organism on the board. Its back-reference to the board
// is non-owning; the board decides when the creature goes away.
type Creature struct {
	id      uint64
	kind    Kind
	genes   genome.Genome
	traits  Traits
	parents [2]uint64

	board *Board
	pos   events.Position

	health float64
	energy float64
	age    int
	fear   float64

	died    bool
	garbage bool
	rotting int
	heading int // index into moves, -1 when not wandering
	last    Action
}

// NewCreature decodes g and builds a creature at full health and energy.
func NewCreature(id uint64, kind Kind, g genome.Genome, h *genome.Handler, p Params) (*Creature, error) {
	m, err := h.Decode(g)
	if err != nil {
		return nil, err
	}
	t, err := TraitsFromMap(m, p)
	if err != nil {
		return nil, err
	}
	return NewCreatureFromTraits(id, kind, g, t), nil
}

// NewCreatureFromTraits builds a creature from already decoded traits.
func NewCreatureFromTraits(id uint64, kind Kind, g genome.Genome, t Traits) *Creature {
	return &Creature{
		id:      id,
		kind:    kind,
		genes:   g,
		traits:  t,
		health:  t.MaxHealth,
		energy:  t.MaxEnergy,
		heading: -1,
	}
}

// ID returns the creature's unique identifier.
func (c *Creature) ID() uint64 { return c.id }

// Kind returns the creature kind.
func (c *Creature) Kind() Kind { return c.kind }

// Genome returns the creature's genome. It must not be modified.
func (c *Creature) Genome() genome.Genome { return c.genes }

// Traits returns the decoded traits.
func (c *Creature) Traits() Traits { return c.traits }

// Parents returns the parent ids; zero for seeded creatures.
func (c *Creature) Parents() [2]uint64 { return c.parents }

// Pos returns the stored grid position.
func (c *Creature) Pos() events.Position { return c.pos }

// Health returns current health in [0, MaxHealth].
func (c *Creature) Health() float64 { return c.health }

// Energy returns current energy in [0, MaxEnergy].
func (c *Creature) Energy() float64 { return c.energy }

// Age returns the number of ticks survived.
func (c *Creature) Age() int { return c.age }

// Fear returns the current fear level in [0, 1].
func (c *Creature) Fear() float64 { return c.fear }

// Dead reports whether the creature has died.
func (c *Creature) Dead() bool { return c.died }

// Garbage reports whether the creature is pending removal.
func (c *Creature) Garbage() bool { return c.garbage }

// LastAction returns the action performed on the creature's last turn.
func (c *Creature) LastAction() Action { return c.last }

// SetVitals overrides health and energy, clamped to their bounds.
func (c *Creature) SetVitals(health, energy float64) {
	c.health = clamp(health, 0, c.traits.MaxHealth)
	c.energy = clamp(energy, 0, c.traits.MaxEnergy)
}

// SetAge overrides the age.
func (c *Creature) SetAge(age int) { c.age = age }

// SetParents overrides the parent ids.
func (c *Creature) SetParents(p [2]uint64) { c.parents = p }

// State is the mutable part of a creature carried by snapshots.
type State struct {
	Health  float64
	Energy  float64
	Age     int
	Fear    float64
	Dead    bool
	Rotting int // reconciliation passes spent as carrion
	Heading int // wander direction, -1 when unset
}

// State returns the creature's mutable state.
func (c *Creature) State() State {
	return State{
		Health:  c.health,
		Energy:  c.energy,
		Age:     c.age,
		Fear:    c.fear,
		Dead:    c.died,
		Rotting: c.rotting,
		Heading: c.heading,
	}
}

// SetState overrides the mutable state of a creature that is not yet on a
// board. Vitals and fear are clamped; an unknown heading is cleared.
func (c *Creature) SetState(st State) {
	c.SetVitals(st.Health, st.Energy)
	c.age = st.Age
	c.fear = clamp(st.Fear, 0, 1)
	c.died = st.Dead
	c.rotting = st.Rotting
	c.heading = st.Heading
	if c.heading < 0 || c.heading >= len(moves) {
		c.heading = -1
	}
}

// Color is the colour the creature is painted with.
func (c *Creature) Color() events.Color {
	if c.died {
		return Carrion
	}
	return c.traits.Species
}

// Alive applies the liveness policy to the current state.
func (c *Creature) Alive(p *Params) bool {
	if p.Liveness == LivenessStrict {
		return c.health > 0 && c.age < c.traits.MaxAge
	}
	return c.health > 0 || c.age < c.traits.MaxAge
}

func (c *Creature) young(p *Params) bool {
	return float64(c.age) <= float64(c.traits.MaxAge)*p.YoungAge
}

func (c *Creature) procreationAge(p *Params) bool {
	age, maxAge := float64(c.age), float64(c.traits.MaxAge)
	return age >= maxAge*p.ProcreateMin && age <= maxAge*p.ProcreateMax
}

func (c *Creature) turnEnergy(p *Params) float64 {
	return p.TurnEnergy * c.traits.MaxEnergy
}

func (c *Creature) spend(p *Params, mult float64) {
	c.energy = math.Max(c.energy-mult*c.turnEnergy(p), 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
