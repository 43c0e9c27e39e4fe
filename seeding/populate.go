package seeding

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/worms/genome"
	"github.com/pthm-cable/worms/world"
)

// DefaultMaxAttempts bounds the candidates tried per creature.
const DefaultMaxAttempts = 10000

// ErrNoRoom is returned when a strategy cannot supply a free cell.
var ErrNoRoom = errors.New("seeding: no free cell found")

// Populate spawns count creatures of kind at free positions drawn from
// strat. Genomes are generated with overrides applied.
func Populate(sim *world.Simulation, kind world.Kind, count int, strat Strategy, overrides map[string]genome.Genome, maxAttempts int) ([]*world.Creature, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	b := sim.Board()
	out := make([]*world.Creature, 0, count)
	for n := 0; n < count; n++ {
		placed := false
		for attempt := 0; attempt < maxAttempts; attempt++ {
			pos, ok := strat.Next()
			if !ok {
				return out, fmt.Errorf("%w: strategy exhausted after %d of %d %s", ErrNoRoom, n, count, kind)
			}
			if !b.IsFree(pos) {
				continue
			}
			g, err := sim.Handler().Generate(sim.RNG(), overrides)
			if err != nil {
				return out, err
			}
			c, err := sim.Spawn(kind, g, pos)
			if err != nil {
				return out, err
			}
			out = append(out, c)
			placed = true
			break
		}
		if !placed {
			return out, fmt.Errorf("%w: gave up after %d attempts for %s %d of %d", ErrNoRoom, maxAttempts, kind, n+1, count)
		}
	}
	return out, nil
}
