package world

import (
	"fmt"

	"github.com/pthm-cable/worms/events"
	"github.com/pthm-cable/worms/genome"
)

// Liveness selects the predicate deciding whether a creature is alive.
type Liveness uint8

const (
	// LivenessLenient keeps a creature alive while health > 0 or it is
	// younger than its max age.
	LivenessLenient Liveness = iota
	// LivenessStrict kills a creature as soon as health reaches 0 or it
	// reaches its max age.
	LivenessStrict
)

// ParseLiveness resolves a liveness policy by name.
func ParseLiveness(s string) (Liveness, error) {
	switch s {
	case "", "lenient":
		return LivenessLenient, nil
	case "strict":
		return LivenessStrict, nil
	}
	return 0, fmt.Errorf("world: unknown liveness policy %q", s)
}

// Faction selects how attack eligibility is decided.
type Faction uint8

const (
	// FactionDominantChannel groups species by the strongest RGB channel of
	// their colour.
	FactionDominantChannel Faction = iota
	// FactionSpecies treats every species colour as its own faction.
	FactionSpecies
)

// ParseFaction resolves a faction policy by name.
func ParseFaction(s string) (Faction, error) {
	switch s {
	case "", "dominant_channel":
		return FactionDominantChannel, nil
	case "species":
		return FactionSpecies, nil
	}
	return 0, fmt.Errorf("world: unknown faction policy %q", s)
}

// Movement selects how a moving creature picks its destination.
type Movement uint8

const (
	// MovementRandom picks a random free neighbour every move.
	MovementRandom Movement = iota
	// MovementWander keeps heading in one direction until blocked.
	MovementWander
)

// ParseMovement resolves a movement policy by name.
func ParseMovement(s string) (Movement, error) {
	switch s {
	case "", "random":
		return MovementRandom, nil
	case "wander":
		return MovementWander, nil
	}
	return 0, fmt.Errorf("world: unknown movement policy %q", s)
}

// Params holds the behaviour tunables shared by all creatures.
type Params struct {
	Liveness Liveness
	Faction  Faction
	Movement Movement

	MutationRate float64
	CarrionTicks int // reconciliation passes a corpse survives; 0 keeps it forever

	TurnEnergy      float64 // per-turn energy cost as a fraction of max energy
	Starvation      float64 // health lost per tick at zero energy, fraction of max health
	Regen           float64 // multiplicative health regeneration while fed
	FearDecay       float64
	FearGain        float64
	EatBonus        float64
	HungerThreshold float64 // wants food below this fraction of max energy

	YoungAge     float64 // fraction of max age
	ProcreateMin float64 // fraction of max age
	ProcreateMax float64 // fraction of max age
	AgeScale     float64 // max_age trait multiplier
	MinTrait     float64 // floor for numeric traits

	EatCost       float64
	ProcreateCost float64
	AttackCost    float64
	MoveCost      float64
	DefendPenalty float64 // turn costs lost by a defender that holds
}

// DefaultParams returns the tunables of the reference worm.
func DefaultParams() Params {
	return Params{
		Liveness:        LivenessLenient,
		Faction:         FactionDominantChannel,
		Movement:        MovementRandom,
		MutationRate:    genome.DefaultMutationRate,
		CarrionTicks:    200,
		TurnEnergy:      0.1,
		Starvation:      0.333,
		Regen:           1.05,
		FearDecay:       0.1,
		FearGain:        0.5,
		EatBonus:        0.05,
		HungerThreshold: 0.3,
		YoungAge:        0.13,
		ProcreateMin:    0.18,
		ProcreateMax:    0.65,
		AgeScale:        100,
		MinTrait:        0.01,
		EatCost:         1,
		ProcreateCost:   2,
		AttackCost:      1,
		MoveCost:        1,
		DefendPenalty:   3,
	}
}

// Carrion is the colour of a dead body.
var Carrion = events.Color{R: 50, G: 50, B: 50}

// DominantChannel returns 0, 1 or 2 for the strongest of R, G, B. Ties
// resolve to the earlier channel.
func DominantChannel(c events.Color) int {
	best, idx := c.R, 0
	if c.G > best {
		best, idx = c.G, 1
	}
	if c.B > best {
		idx = 2
	}
	return idx
}

// sameFaction reports whether two species colours belong to one faction.
func (f Faction) sameFaction(a, b events.Color) bool {
	if f == FactionSpecies {
		return a == b
	}
	return DominantChannel(a) == DominantChannel(b)
}
