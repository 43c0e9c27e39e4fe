package world

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/worms/events"
	"github.com/pthm-cable/worms/genome"
)

// moves lists the Moore neighbourhood offsets.
var moves = [8]events.Position{
	{X: -1, Y: -1}, // left, up
	{X: -1, Y: 0},  // left
	{X: -1, Y: 1},  // left, down
	{X: 1, Y: -1},  // right, up
	{X: 1, Y: 0},   // right
	{X: 1, Y: 1},   // right, down
	{X: 0, Y: -1},  // up
	{X: 0, Y: 1},   // down
}

// neighbourhood is a snapshot of the eight cells around a creature.
type neighbourhood struct {
	free     []events.Position
	freeDir  []int
	taken    []*Creature
	freeBuf  [8]events.Position
	dirBuf   [8]int
	takenBuf [8]*Creature
}

func (n *neighbourhood) scan(b *Board, at events.Position) {
	n.free = n.freeBuf[:0]
	n.freeDir = n.dirBuf[:0]
	n.taken = n.takenBuf[:0]
	for i, d := range moves {
		p := at.Add(d)
		if !b.InBounds(p) {
			continue
		}
		if o := b.At(p); o != nil {
			n.taken = append(n.taken, o)
		} else {
			n.free = append(n.free, p)
			n.freeDir = append(n.freeDir, i)
		}
	}
}

func chance(rng *rand.Rand, p float64) bool {
	return rng.Float64() < p
}

// Turn runs one tick for the creature: housekeeping, then at most one action
// in priority order die, eat, procreate, attack, move.
func (c *Creature) Turn(s *Simulation) error {
	if c.died || c.garbage {
		return nil
	}
	p := &s.params
	c.last = 0

	c.age++
	c.fear = math.Max(c.fear-p.FearDecay, 0)
	if c.energy > 0 {
		c.health = math.Min(c.traits.MaxHealth, c.health*p.Regen)
	}
	if c.energy == 0 {
		c.health = math.Max(c.health-p.Starvation*c.traits.MaxHealth, 0)
	}

	if !c.Alive(p) {
		c.die(s)
		return nil
	}

	var n neighbourhood
	n.scan(c.board, c.pos)
	caps := c.kind.Info().Actions

	if caps.Has(ActEat) {
		if food := c.food(p, n.taken); len(food) > 0 && c.wantsFood(p, len(n.free)) {
			c.eat(s, food[s.rng.Intn(len(food))])
			c.spend(p, p.EatCost)
			c.last = ActEat
			return nil
		}
	}

	if caps.Has(ActProcreate) {
		if partners := c.partners(s, n.taken); len(partners) > 0 && c.wantsProcreation(s, len(n.free)) {
			if err := c.procreate(s, partners[s.rng.Intn(len(partners))], n.free); err != nil {
				return err
			}
			c.spend(p, p.ProcreateCost)
			c.last = ActProcreate
			return nil
		}
	}

	if caps.Has(ActAttack) {
		if victims := c.victims(p, n.taken); len(victims) > 0 && c.wantsAttack(s, len(n.free)) {
			c.attack(s, victims[s.rng.Intn(len(victims))])
			c.spend(p, p.AttackCost)
			c.last = ActAttack
			return nil
		}
	}

	if caps.Has(ActMove) {
		if len(n.free) > 0 && c.wantsMove(s) {
			c.move(s, &n)
			c.spend(p, p.MoveCost)
			c.last = ActMove
			return nil
		}
	}
	return nil
}

func (c *Creature) die(s *Simulation) {
	if c.died {
		return
	}
	c.died = true
	c.board.CheckIn(c)
	s.rec.Died(s.tick, c)
}

func (c *Creature) wantsFood(p *Params, free int) bool {
	return c.energy < p.HungerThreshold*c.traits.MaxEnergy || free == 0
}

func (c *Creature) food(p *Params, taken []*Creature) []*Creature {
	var out []*Creature
	for _, o := range taken {
		if o.Alive(p) && !o.died {
			continue
		}
		if !c.traits.EatsOwnCarrion && o.traits.Species == c.traits.Species {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (c *Creature) eat(s *Simulation, food *Creature) {
	c.energy = math.Min(c.traits.MaxEnergy, c.energy+food.energy+s.params.EatBonus)
	// Food that expired but has not had its turn yet dies here.
	if !food.died {
		food.died = true
		s.rec.Died(s.tick, food)
	}
	c.board.Remove(food.pos)
	s.rec.Ate(s.tick, c, food)
}

// wantsPartner is evaluated on the prospective partner.
func (c *Creature) wantsPartner(s *Simulation) bool {
	return c.procreationAge(&s.params) && chance(s.rng, c.traits.Temperament)
}

func (c *Creature) wantsProcreation(s *Simulation, free int) bool {
	p := &s.params
	return c.procreationAge(p) && free >= 2 && chance(s.rng, c.traits.Temperament) && !c.wantsFood(p, free)
}

func (c *Creature) partners(s *Simulation, taken []*Creature) []*Creature {
	p := &s.params
	var out []*Creature
	for _, o := range taken {
		if o.died || !o.Alive(p) || !o.kind.Can(ActProcreate) {
			continue
		}
		if o.traits.Species != c.traits.Species || o.traits.Gender == c.traits.Gender {
			continue
		}
		if o.wantsPartner(s) {
			out = append(out, o)
		}
	}
	return out
}

func (c *Creature) procreate(s *Simulation, partner *Creature, free []events.Position) error {
	targets := make([]events.Position, len(free))
	copy(targets, free)
	s.rng.Shuffle(len(targets), func(i, j int) { targets[i], targets[j] = targets[j], targets[i] })

	a, b, err := genome.Crossover(s.rng, c.genes, partner.genes)
	if err != nil {
		return fmt.Errorf("creature %d at %v: procreate with %d: %w", c.id, c.pos, partner.id, err)
	}
	for i, g := range []genome.Genome{a, b} {
		g = genome.Mutate(s.rng, g, s.params.MutationRate)
		child, err := s.spawnChild(c.kind, g, targets[i], c, partner)
		if err != nil {
			return fmt.Errorf("creature %d at %v: procreate with %d: %w", c.id, c.pos, partner.id, err)
		}
		s.rec.Born(s.tick, child, c, partner)
	}
	return nil
}

func (c *Creature) victims(p *Params, taken []*Creature) []*Creature {
	var out []*Creature
	for _, o := range taken {
		if o.died || !o.Alive(p) {
			continue
		}
		if p.Faction.sameFaction(o.traits.Species, c.traits.Species) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func (c *Creature) wantsAttack(s *Simulation, free int) bool {
	p := &s.params
	if c.young(p) {
		return false
	}
	if chance(s.rng, c.traits.Aggression) {
		return true
	}
	if chance(s.rng, c.fear) {
		return true
	}
	return c.wantsFood(p, free)
}

// might is strength scaled by the fraction of health left.
func (c *Creature) might() float64 {
	return c.traits.Strength * (c.health / c.traits.MaxHealth)
}

func (c *Creature) attack(s *Simulation, def *Creature) {
	p := &s.params
	offensive, defensive := c.might(), def.might()
	young := def.young(p)

	hit := offensive > defensive || young
	if hit {
		impact := offensive
		if !young {
			impact -= defensive
		}
		impact = math.Max(impact, 0)
		def.health = math.Max(def.health-def.traits.MaxHealth*impact, 0)
		def.fear = math.Min(def.fear+p.FearGain, 1)
	} else {
		def.energy = math.Max(def.energy-p.DefendPenalty*def.turnEnergy(p), 0)
	}
	s.rec.Attacked(s.tick, c, def, hit)
}

func (c *Creature) wantsMove(s *Simulation) bool {
	return chance(s.rng, c.traits.Mobility) && c.energy > 0
}

func (c *Creature) move(s *Simulation, n *neighbourhood) {
	if s.params.Movement == MovementWander && c.heading >= 0 {
		dst := c.pos.Add(moves[c.heading])
		if c.board.IsFree(dst) {
			c.board.Move(c, dst)
			return
		}
	}
	i := s.rng.Intn(len(n.free))
	c.heading = n.freeDir[i]
	c.board.Move(c, n.free[i])
}
