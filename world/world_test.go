package world

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/worms/events"
	"github.com/pthm-cable/worms/genome"
)

func newTestSim(t *testing.T, w, h int) (*Simulation, *events.Buffer) {
	t.Helper()
	rec := &events.Buffer{}
	b, err := NewBoard(w, h, rec)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	hd, err := genome.NewHandler(WormSchema())
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	p := DefaultParams()
	p.MutationRate = 0
	return NewSimulation(b, hd, p, rand.New(rand.NewSource(1)), nil), rec
}

// inertTraits never attack, move or procreate on their own.
func inertTraits() Traits {
	return Traits{
		Gender:      "male",
		Species:     SpeciesColors[0],
		MaxHealth:   1,
		Strength:    0.5,
		Temperament: 0,
		MaxAge:      100,
		MaxEnergy:   1,
	}
}

func place(t *testing.T, s *Simulation, tr Traits, pos events.Position) *Creature {
	t.Helper()
	g, err := s.handler.Generate(s.rng, nil)
	if err != nil {
		t.Fatal(err)
	}
	c := NewCreatureFromTraits(0, KindWorm, g, tr)
	s.Place(c, pos)
	return c
}

func checkBoard(t *testing.T, s *Simulation) {
	t.Helper()
	if err := s.board.CheckInvariants(); err != nil {
		t.Fatalf("board invariant: %v", err)
	}
	for _, c := range s.board.Creatures() {
		if c.health < 0 || c.health > c.traits.MaxHealth {
			t.Fatalf("creature %d health %v outside [0, %v]", c.id, c.health, c.traits.MaxHealth)
		}
		if c.energy < 0 || c.energy > c.traits.MaxEnergy {
			t.Fatalf("creature %d energy %v outside [0, %v]", c.id, c.energy, c.traits.MaxEnergy)
		}
	}
}

func TestStarvingCreatureLosesHealthAndStays(t *testing.T) {
	s, rec := newTestSim(t, 10, 10)
	tr := inertTraits()
	tr.Mobility = 1
	c := place(t, s, tr, events.Position{X: 5, Y: 5})
	c.SetVitals(1, 0)

	if err := s.Step(); err != nil {
		t.Fatal(err)
	}

	want := 1 - DefaultParams().Starvation
	if math.Abs(c.Health()-want) > 1e-9 {
		t.Errorf("health = %v, want %v", c.Health(), want)
	}
	if c.Pos() != (events.Position{X: 5, Y: 5}) {
		t.Errorf("creature moved to %v", c.Pos())
	}
	if len(rec.Events) != 1 {
		t.Errorf("got %d events, want only the placement", len(rec.Events))
	}
}

func TestIdleCreatureAgesWithoutEvents(t *testing.T) {
	s, rec := newTestSim(t, 10, 10)
	tr := inertTraits()
	tr.MaxHealth = 10
	tr.MaxEnergy = 10
	c := place(t, s, tr, events.Position{X: 5, Y: 5})

	if err := s.Step(); err != nil {
		t.Fatal(err)
	}

	if c.Age() != 1 {
		t.Errorf("age = %d, want 1", c.Age())
	}
	if c.Health() != 10 {
		t.Errorf("health = %v, want 10", c.Health())
	}
	if len(rec.Events) != 1 {
		t.Errorf("got %d events, want 1", len(rec.Events))
	}
	if c.LastAction() != 0 {
		t.Errorf("last action = %v, want idle", c.LastAction())
	}
}

func TestDeathByLivenessPolicy(t *testing.T) {
	tests := []struct {
		name     string
		liveness Liveness
		health   float64
		age      int
		wantDead bool
	}{
		{"lenient old and drained", LivenessLenient, 0, 100, true},
		{"lenient drained but young", LivenessLenient, 0, 10, false},
		{"lenient old but healthy", LivenessLenient, 1, 100, false},
		{"strict old but healthy", LivenessStrict, 1, 100, true},
		{"strict drained but young", LivenessStrict, 0, 10, true},
		{"strict healthy and young", LivenessStrict, 1, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec := newTestSim(t, 5, 5)
			s.params.Liveness = tt.liveness
			tr := inertTraits()
			tr.MaxAge = 50
			c := place(t, s, tr, events.Position{X: 2, Y: 2})
			// Zero energy keeps regeneration from reviving a drained creature.
			c.SetVitals(tt.health, 0)
			c.SetAge(tt.age)
			rec.Reset()

			if err := s.Step(); err != nil {
				t.Fatal(err)
			}
			if c.Dead() != tt.wantDead {
				t.Fatalf("Dead() = %v, want %v", c.Dead(), tt.wantDead)
			}
			if tt.wantDead {
				if len(rec.Events) != 1 || rec.Events[0].Color != Carrion {
					t.Errorf("events = %+v, want one carrion repaint", rec.Events)
				}
			}
		})
	}
}

func TestDeadCreatureTakesNoTurn(t *testing.T) {
	s, _ := newTestSim(t, 5, 5)
	tr := inertTraits()
	tr.MaxAge = 1
	c := place(t, s, tr, events.Position{X: 2, Y: 2})
	c.SetVitals(0, 0)
	c.SetAge(5)

	s.Step()
	if !c.Dead() {
		t.Fatal("creature should have died")
	}
	age := c.Age()
	s.Step()
	if c.Age() != age {
		t.Errorf("dead creature aged from %d to %d", age, c.Age())
	}
}

func TestEatCarrion(t *testing.T) {
	s, rec := newTestSim(t, 5, 5)

	eaterTraits := inertTraits()
	eater := place(t, s, eaterTraits, events.Position{X: 1, Y: 1})
	eater.SetVitals(1, 0.1)

	foodTraits := inertTraits()
	foodTraits.Species = SpeciesColors[4]
	food := place(t, s, foodTraits, events.Position{X: 2, Y: 1})
	food.SetVitals(0, 0.4)
	food.died = true
	rec.Reset()

	if err := eater.Turn(s); err != nil {
		t.Fatal(err)
	}
	if eater.LastAction() != ActEat {
		t.Fatalf("last action = %v, want eat", eater.LastAction())
	}

	p := DefaultParams()
	want := math.Min(1, 0.1+0.4+p.EatBonus) - p.EatCost*p.TurnEnergy
	if math.Abs(eater.Energy()-want) > 1e-9 {
		t.Errorf("energy = %v, want %v", eater.Energy(), want)
	}
	if !food.Garbage() {
		t.Error("food should be flagged for removal")
	}
	if !s.board.IsFree(events.Position{X: 2, Y: 1}) {
		t.Error("food cell should be free")
	}
	if len(rec.Events) != 1 || rec.Events[0].Color != events.Clear {
		t.Errorf("events = %+v, want one clear", rec.Events)
	}

	// Still tracked until reconciliation.
	if s.board.Len() != 2 {
		t.Errorf("registry has %d creatures before reconcile, want 2", s.board.Len())
	}
	removed := s.Reconcile()
	if len(removed) != 1 || removed[0] != food {
		t.Errorf("Reconcile removed %v, want the food", removed)
	}
	if s.board.Len() != 1 {
		t.Errorf("registry has %d creatures after reconcile, want 1", s.board.Len())
	}
	checkBoard(t, s)
}

func TestNoCannibalismWithoutTrait(t *testing.T) {
	s, _ := newTestSim(t, 5, 5)
	eater := place(t, s, inertTraits(), events.Position{X: 1, Y: 1})
	eater.SetVitals(1, 0.1)
	corpse := place(t, s, inertTraits(), events.Position{X: 2, Y: 1})
	corpse.died = true

	eater.Turn(s)
	if eater.LastAction() == ActEat {
		t.Error("ate own species without eats_own_carrion")
	}

	eater.traits.EatsOwnCarrion = true
	eater.Turn(s)
	if eater.LastAction() != ActEat {
		t.Errorf("last action = %v, want eat", eater.LastAction())
	}
}

func breedingPair(t *testing.T, s *Simulation) (*Creature, *Creature) {
	t.Helper()
	tr := inertTraits()
	tr.Temperament = 1
	a := place(t, s, tr, events.Position{X: 5, Y: 5})
	tr.Gender = "female"
	b := place(t, s, tr, events.Position{X: 6, Y: 5})
	a.SetAge(30)
	b.SetAge(30)
	return a, b
}

func isCrossover(child, a, b genome.Genome) bool {
	for x := 0; x < len(a); x++ {
		cand := append(append(genome.Genome{}, a[:x]...), b[x:]...)
		if cand.Equal(child) {
			return true
		}
	}
	return false
}

func TestProcreation(t *testing.T) {
	s, rec := newTestSim(t, 12, 12)
	a, b := breedingPair(t, s)
	free := map[events.Position]bool{}
	for _, d := range moves {
		if p := a.pos.Add(d); s.board.IsFree(p) {
			free[p] = true
		}
	}
	rec.Reset()

	if err := a.Turn(s); err != nil {
		t.Fatal(err)
	}
	if a.LastAction() != ActProcreate {
		t.Fatalf("last action = %v, want procreate", a.LastAction())
	}

	creatures := s.board.Creatures()
	if len(creatures) != 4 {
		t.Fatalf("registry has %d creatures, want 4", len(creatures))
	}
	children := creatures[2:]
	for _, child := range children {
		if !free[child.Pos()] {
			t.Errorf("child placed at %v, which was not a free neighbour", child.Pos())
		}
		if child.Parents() != [2]uint64{a.ID(), b.ID()} {
			t.Errorf("child parents = %v", child.Parents())
		}
		if child.Age() != 0 {
			t.Errorf("child age = %d, want 0", child.Age())
		}
	}
	ga, gb := children[0].Genome(), children[1].Genome()
	if !isCrossover(ga, a.genes, b.genes) || !isCrossover(gb, b.genes, a.genes) {
		t.Errorf("children %s, %s are not crossovers of %s and %s", ga, gb, a.genes, b.genes)
	}
	if len(rec.Events) != 2 {
		t.Errorf("got %d events, want 2 placements", len(rec.Events))
	}

	p := DefaultParams()
	if want := 1 - p.ProcreateCost*p.TurnEnergy; math.Abs(a.Energy()-want) > 1e-9 {
		t.Errorf("energy = %v, want %v", a.Energy(), want)
	}
	checkBoard(t, s)
}

func TestNoProcreationWithoutRoom(t *testing.T) {
	// A single row leaves exactly one free cell next to a.
	s, _ := newTestSim(t, 3, 1)
	tr := inertTraits()
	tr.Temperament = 1
	a := place(t, s, tr, events.Position{X: 1, Y: 0})
	tr.Gender = "female"
	b := place(t, s, tr, events.Position{X: 0, Y: 0})
	a.SetAge(30)
	b.SetAge(30)

	a.Turn(s)
	if a.LastAction() == ActProcreate {
		t.Error("procreated with fewer than two free cells")
	}
}

func TestNewbornsWaitForNextTick(t *testing.T) {
	s, _ := newTestSim(t, 12, 12)
	breedingPair(t, s)

	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	for _, c := range s.board.Creatures()[2:] {
		if c.Age() != 0 {
			t.Errorf("creature %d born this tick has age %d", c.ID(), c.Age())
		}
	}
	checkBoard(t, s)
}

func fighters(t *testing.T, s *Simulation, attStrength, defStrength float64, defAge int) (*Creature, *Creature) {
	t.Helper()
	att := inertTraits()
	att.Aggression = 1
	att.Strength = attStrength
	a := place(t, s, att, events.Position{X: 2, Y: 2})
	a.SetAge(50)

	def := inertTraits()
	def.Species = SpeciesColors[4]
	def.Strength = defStrength
	d := place(t, s, def, events.Position{X: 3, Y: 2})
	d.SetAge(defAge)
	return a, d
}

func TestAttack(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		name       string
		att, def   float64
		defAge     int
		wantHealth float64
		wantEnergy float64
		wantFear   float64
	}{
		{"stronger attacker", 1, 0.1, 50, 0.1, 1, p.FearGain},
		{"young defender", 0.3, 0.9, 5, 0.7, 1, p.FearGain},
		{"defender holds", 0.2, 0.9, 50, 1, 1 - p.DefendPenalty*p.TurnEnergy, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSim(t, 6, 6)
			a, d := fighters(t, s, tt.att, tt.def, tt.defAge)

			if err := a.Turn(s); err != nil {
				t.Fatal(err)
			}
			if a.LastAction() != ActAttack {
				t.Fatalf("last action = %v, want attack", a.LastAction())
			}
			if math.Abs(d.Health()-tt.wantHealth) > 1e-9 {
				t.Errorf("defender health = %v, want %v", d.Health(), tt.wantHealth)
			}
			if math.Abs(d.Energy()-tt.wantEnergy) > 1e-9 {
				t.Errorf("defender energy = %v, want %v", d.Energy(), tt.wantEnergy)
			}
			if math.Abs(d.Fear()-tt.wantFear) > 1e-9 {
				t.Errorf("defender fear = %v, want %v", d.Fear(), tt.wantFear)
			}
		})
	}
}

func TestYoungNeverAttack(t *testing.T) {
	s, _ := newTestSim(t, 6, 6)
	a, _ := fighters(t, s, 1, 0.1, 50)
	a.SetAge(2)
	a.Turn(s)
	if a.LastAction() == ActAttack {
		t.Error("young creature attacked")
	}
}

func TestFactionPolicy(t *testing.T) {
	// Both colours are red-dominant but differ as species.
	a, b := SpeciesColors[0], SpeciesColors[1]
	if !FactionDominantChannel.sameFaction(a, b) {
		t.Error("dominant channel should group red species")
	}
	if FactionSpecies.sameFaction(a, b) {
		t.Error("species policy should separate distinct colours")
	}
	if FactionDominantChannel.sameFaction(a, SpeciesColors[4]) {
		t.Error("red and blue should be different factions")
	}
}

func TestRandomMove(t *testing.T) {
	s, rec := newTestSim(t, 8, 8)
	tr := inertTraits()
	tr.Mobility = 1
	start := events.Position{X: 4, Y: 4}
	c := place(t, s, tr, start)
	rec.Reset()

	c.Turn(s)
	if c.LastAction() != ActMove {
		t.Fatalf("last action = %v, want move", c.LastAction())
	}
	dx, dy := c.Pos().X-start.X, c.Pos().Y-start.Y
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
		t.Errorf("moved from %v to %v", start, c.Pos())
	}
	if len(rec.Events) != 2 {
		t.Fatalf("got %d events, want clear and paint", len(rec.Events))
	}
	if rec.Events[0] != (events.Event{Pos: start, Color: events.Clear}) {
		t.Errorf("first event = %+v", rec.Events[0])
	}
	if rec.Events[1] != (events.Event{Pos: c.Pos(), Color: c.Color()}) {
		t.Errorf("second event = %+v", rec.Events[1])
	}
	checkBoard(t, s)
}

func TestWanderKeepsHeading(t *testing.T) {
	s, _ := newTestSim(t, 40, 40)
	s.params.Movement = MovementWander
	tr := inertTraits()
	tr.Mobility = 1
	tr.MaxEnergy = 100
	c := place(t, s, tr, events.Position{X: 20, Y: 20})

	prev := c.Pos()
	c.Turn(s)
	dir := events.Position{X: c.Pos().X - prev.X, Y: c.Pos().Y - prev.Y}
	for i := 0; i < 5; i++ {
		prev = c.Pos()
		c.Turn(s)
		got := events.Position{X: c.Pos().X - prev.X, Y: c.Pos().Y - prev.Y}
		if got != dir {
			t.Fatalf("step %d moved %v, want %v", i, got, dir)
		}
	}
}

func TestZeroEnergyDoesNotMove(t *testing.T) {
	s, _ := newTestSim(t, 8, 8)
	tr := inertTraits()
	tr.Mobility = 1
	c := place(t, s, tr, events.Position{X: 4, Y: 4})
	c.SetVitals(1, 0)
	c.Turn(s)
	if c.LastAction() == ActMove {
		t.Error("creature without energy moved")
	}
}

func TestDecoyIsInert(t *testing.T) {
	s, _ := newTestSim(t, 8, 8)
	tr := inertTraits()
	tr.Mobility = 1
	tr.Aggression = 1
	g, _ := s.handler.Generate(s.rng, nil)
	d := NewCreatureFromTraits(0, KindDecoy, g, tr)
	s.Place(d, events.Position{X: 3, Y: 3})
	d.SetAge(50)

	victim := inertTraits()
	victim.Species = SpeciesColors[4]
	place(t, s, victim, events.Position{X: 4, Y: 3})

	for i := 0; i < 5; i++ {
		d.Turn(s)
		if d.LastAction() != 0 {
			t.Fatalf("decoy performed %v", d.LastAction())
		}
	}
	if d.Pos() != (events.Position{X: 3, Y: 3}) {
		t.Errorf("decoy moved to %v", d.Pos())
	}
}

func TestPopulationInvariants(t *testing.T) {
	s, _ := newTestSim(t, 24, 24)
	s.params.MutationRate = 0.1
	for i := 0; i < 150; i++ {
		pos := events.Position{X: s.rng.Intn(24), Y: s.rng.Intn(24)}
		if !s.board.IsFree(pos) {
			continue
		}
		g, err := s.handler.Generate(s.rng, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.Spawn(KindWorm, g, pos); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	for tick := 0; tick < 120; tick++ {
		if err := s.Step(); err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		checkBoard(t, s)
		for _, c := range s.board.Creatures() {
			if c.Garbage() {
				t.Fatalf("tick %d: garbage creature %d survived reconciliation", tick, c.ID())
			}
		}
	}
}

func TestSeededRunsAreReproducible(t *testing.T) {
	run := func() []events.Event {
		s, rec := newTestSim(t, 16, 16)
		for i := 0; i < 40; i++ {
			g, _ := s.handler.Generate(s.rng, nil)
			pos := events.Position{X: i % 16, Y: i / 16 * 3}
			if _, err := s.Spawn(KindWorm, g, pos); err != nil {
				t.Fatal(err)
			}
		}
		for i := 0; i < 30; i++ {
			if err := s.Step(); err != nil {
				t.Fatal(err)
			}
		}
		return rec.Events
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs produced %d and %d events", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("event %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// countingRecorder counts recorder callbacks per creature.
type countingRecorder struct {
	NopRecorder
	died    map[uint64]int
	removed map[uint64]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{died: map[uint64]int{}, removed: map[uint64]int{}}
}

func (r *countingRecorder) Died(_ int, c *Creature)    { r.died[c.ID()]++ }
func (r *countingRecorder) Removed(_ int, c *Creature) { r.removed[c.ID()]++ }

func TestEatingExpiredCreatureRecordsDeath(t *testing.T) {
	s, _ := newTestSim(t, 5, 5)
	counts := newCountingRecorder()
	s.rec = counts

	eater := place(t, s, inertTraits(), events.Position{X: 1, Y: 1})
	eater.SetVitals(1, 0.1)

	foodTraits := inertTraits()
	foodTraits.Species = SpeciesColors[4]
	food := place(t, s, foodTraits, events.Position{X: 2, Y: 1})
	// Expired, but its own turn comes after the eater's.
	food.SetVitals(0, 0.4)
	food.SetAge(200)

	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if eater.LastAction() != ActEat {
		t.Fatalf("last action = %v, want eat", eater.LastAction())
	}
	if !food.Dead() || !food.Garbage() {
		t.Errorf("food dead=%v garbage=%v, want both", food.Dead(), food.Garbage())
	}
	if counts.died[food.ID()] != 1 || counts.removed[food.ID()] != 1 {
		t.Errorf("food Died calls = %d, Removed calls = %d, want 1 and 1",
			counts.died[food.ID()], counts.removed[food.ID()])
	}

	// Carrion that already died is not reported twice.
	corpse := place(t, s, foodTraits, events.Position{X: 0, Y: 1})
	corpse.SetVitals(0, 0.2)
	corpse.SetAge(200)
	corpse.Turn(s)
	eater.SetVitals(1, 0.1)
	eater.Turn(s)
	if eater.LastAction() != ActEat || counts.died[corpse.ID()] != 1 {
		t.Errorf("corpse Died calls = %d, want 1", counts.died[corpse.ID()])
	}
}
