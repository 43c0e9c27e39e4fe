package world

import (
	"fmt"
	"math"

	"github.com/pthm-cable/worms/events"
	"github.com/pthm-cable/worms/genome"
)

// Trait segment names every worm schema must define.
const (
	TraitGender         = "gender"
	TraitSpecies        = "species"
	TraitAggression     = "aggression"
	TraitMaxHealth      = "max_health"
	TraitStrength       = "strength"
	TraitTemperament    = "temperament"
	TraitMaxAge         = "max_age"
	TraitMobility       = "mobility"
	TraitMaxEnergy      = "max_energy"
	TraitEatsOwnCarrion = "eats_own_carrion"
)

// Traits are the typed values decoded from a genome.
type Traits struct {
	Gender         string
	Species        events.Color
	Aggression     float64
	MaxHealth      float64
	Strength       float64
	Temperament    float64
	MaxAge         int
	Mobility       float64
	MaxEnergy      float64
	EatsOwnCarrion bool
}

// TraitsFromMap converts decoded trait values, applying the trait floor.
func TraitsFromMap(m genome.TraitMap, p Params) (Traits, error) {
	var t Traits
	var err error

	if t.Gender, err = m.String(TraitGender); err != nil {
		return t, err
	}

	raw, err := m.Value(TraitSpecies)
	if err != nil {
		return t, err
	}
	if t.Species, err = ToColor(raw); err != nil {
		return t, &genome.EncodingError{Segment: TraitSpecies, Reason: err.Error()}
	}

	floats := []struct {
		name  string
		dst   *float64
		floor bool
	}{
		{TraitAggression, &t.Aggression, true},
		{TraitMaxHealth, &t.MaxHealth, true},
		{TraitStrength, &t.Strength, true},
		{TraitTemperament, &t.Temperament, true},
		{TraitMaxEnergy, &t.MaxEnergy, true},
		{TraitMobility, &t.Mobility, false},
	}
	for _, f := range floats {
		v, err := m.Float(f.name)
		if err != nil {
			return t, err
		}
		if f.floor {
			v = math.Max(v, p.MinTrait)
		}
		*f.dst = v
	}

	age, err := m.Float(TraitMaxAge)
	if err != nil {
		return t, err
	}
	t.MaxAge = int(math.Max(age*p.AgeScale, 1))

	if t.EatsOwnCarrion, err = m.Bool(TraitEatsOwnCarrion); err != nil {
		return t, err
	}
	return t, nil
}

// ToColor converts a choice value into a colour. It accepts events.Color and
// three-element integer or float sequences as produced by YAML.
func ToColor(v any) (events.Color, error) {
	switch c := v.(type) {
	case events.Color:
		return c, nil
	case [3]uint8:
		return events.Color{R: c[0], G: c[1], B: c[2]}, nil
	case []int:
		if len(c) == 3 {
			return colorFromInts(c[0], c[1], c[2])
		}
	case []any:
		if len(c) == 3 {
			var ch [3]int
			for i, x := range c {
				switch n := x.(type) {
				case int:
					ch[i] = n
				case float64:
					ch[i] = int(n)
				default:
					return events.Color{}, fmt.Errorf("colour channel %d is %T", i, x)
				}
			}
			return colorFromInts(ch[0], ch[1], ch[2])
		}
	}
	return events.Color{}, fmt.Errorf("cannot use %v (%T) as a colour", v, v)
}

func colorFromInts(r, g, b int) (events.Color, error) {
	for _, x := range []int{r, g, b} {
		if x < 0 || x > 255 {
			return events.Color{}, fmt.Errorf("colour channel %d out of [0,255]", x)
		}
	}
	return events.Color{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

// SpeciesColors are the reference worm species.
var SpeciesColors = []events.Color{
	{R: 244, G: 67, B: 54},
	{R: 233, G: 30, B: 99},
	{R: 156, G: 39, B: 176},
	{R: 63, G: 81, B: 181},
	{R: 33, G: 150, B: 243},
	{R: 0, G: 150, B: 136},
	{R: 205, G: 220, B: 57},
	{R: 255, G: 193, B: 7},
}

// WormSchema returns the reference trait schema.
func WormSchema() []genome.Segment {
	species := make([]any, len(SpeciesColors))
	for i, c := range SpeciesColors {
		species[i] = c
	}
	return []genome.Segment{
		{Name: TraitGender, Bits: 1, Choices: []any{"male", "female"}},
		{Name: TraitSpecies, Bits: 3, Choices: species},
		{Name: TraitAggression, Bits: 5},
		{Name: TraitMaxHealth, Bits: 5},
		{Name: TraitStrength, Bits: 5},
		{Name: TraitTemperament, Bits: 5},
		{Name: TraitMaxAge, Bits: 5},
		{Name: TraitMobility, Bits: 5},
		{Name: TraitMaxEnergy, Bits: 5},
		{Name: TraitEatsOwnCarrion, Bits: 1, Choices: []any{true, false}},
	}
}
