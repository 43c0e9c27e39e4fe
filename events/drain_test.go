package events

import "testing"

type countingApplier struct {
	events []Event
}

func (c *countingApplier) Apply(e Event) { c.events = append(c.events, e) }

func TestDrainerStopsEarlyWhenEmpty(t *testing.T) {
	ch, _ := NewChannel(16)
	for i := 0; i < 3; i++ {
		ch.Push(ev(i))
	}
	d := NewDrainer(ch, DrainConfig{Start: 10, Max: 10, Step: 1})

	got := d.Take(nil)
	if len(got) != 3 {
		t.Fatalf("Take() returned %d events, want 3", len(got))
	}
	if got := d.Take(nil); len(got) != 0 {
		t.Errorf("second Take() returned %d events, want 0", len(got))
	}
}

func TestDrainerGrowsWhenFull(t *testing.T) {
	ch, _ := NewChannel(4)
	d := NewDrainer(ch, DrainConfig{Start: 1, Max: 3, Step: 1})

	fill := func() {
		for !ch.Full() {
			ch.Push(ev(0))
		}
	}

	want := []int{2, 3, 3}
	for i, w := range want {
		fill()
		d.Take(nil)
		if d.Batch() != w {
			t.Errorf("cycle %d: Batch() = %d, want %d", i, d.Batch(), w)
		}
	}
	if d.Grown() != 2 {
		t.Errorf("Grown() = %d, want 2", d.Grown())
	}
}

func TestDrainerNeverShrinks(t *testing.T) {
	ch, _ := NewChannel(2)
	d := NewDrainer(ch, DrainConfig{Start: 1, Max: 100, Step: 5})

	ch.Push(ev(0))
	ch.Push(ev(1))
	d.Take(nil)
	grown := d.Batch()

	for i := 0; i < 10; i++ {
		d.Take(nil)
		if d.Batch() != grown {
			t.Fatalf("batch changed from %d to %d on an idle channel", grown, d.Batch())
		}
	}
}

func TestDrainAppliesInOrder(t *testing.T) {
	ch, _ := NewChannel(8)
	for i := 0; i < 5; i++ {
		ch.Push(ev(i))
	}
	d := NewDrainer(ch, DefaultDrainConfig())
	a, b := &countingApplier{}, &countingApplier{}

	_, n := d.Drain(nil, a, b)
	if n != 5 {
		t.Fatalf("Drain() = %d, want 5", n)
	}
	for i := 0; i < 5; i++ {
		if a.events[i] != ev(i) || b.events[i] != ev(i) {
			t.Fatalf("event %d out of order", i)
		}
	}
}
