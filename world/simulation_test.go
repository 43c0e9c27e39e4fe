package world

import (
	"context"
	"testing"

	"github.com/pthm-cable/worms/events"
)

func TestRunStopsAtMaxTicks(t *testing.T) {
	s, _ := newTestSim(t, 6, 6)
	place(t, s, inertTraits(), events.Position{X: 2, Y: 2})

	var seen []int
	if err := s.Run(context.Background(), 5, func(tick int) { seen = append(seen, tick) }); err != nil {
		t.Fatal(err)
	}
	if s.Tick() != 5 {
		t.Errorf("tick = %d, want 5", s.Tick())
	}
	for i, tick := range seen {
		if tick != i+1 {
			t.Fatalf("afterTick calls = %v", seen)
		}
	}
	if len(seen) != 5 {
		t.Errorf("afterTick called %d times, want 5", len(seen))
	}
}

func TestRunObservesCancellationBetweenTicks(t *testing.T) {
	s, _ := newTestSim(t, 6, 6)
	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Run(ctx, 0, func(tick int) {
		if tick == 3 {
			cancel()
		}
	}); err != nil {
		t.Fatal(err)
	}
	if s.Tick() != 3 {
		t.Errorf("tick = %d, want 3", s.Tick())
	}
}

func TestPlaceReservesExplicitIDs(t *testing.T) {
	s, _ := newTestSim(t, 4, 4)
	g, _ := s.handler.Generate(s.rng, nil)
	s.Place(NewCreatureFromTraits(40, KindWorm, g, inertTraits()), events.Position{X: 0, Y: 0})
	c, err := s.Spawn(KindWorm, g, events.Position{X: 1, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	if c.ID() != 41 {
		t.Errorf("next id = %d, want 41", c.ID())
	}
}
