package events

// DrainConfig controls the consumer batch size.
type DrainConfig struct {
	Start int // events per cycle initially
	Max   int // ceiling for the batch size
	Step  int // growth applied each time the channel is seen full
}

// DefaultDrainConfig mirrors the defaults in config/defaults.yaml.
func DefaultDrainConfig() DrainConfig {
	return DrainConfig{Start: 100, Max: 8192, Step: 100}
}

// Drainer takes up to a batch of events per consumer cycle. Whenever it finds
// the channel at capacity it grows the batch by Step, up to Max. It never
// shrinks the batch.
type Drainer struct {
	ch    *Channel
	batch int
	max   int
	step  int
	grown int
}

// NewDrainer creates a drainer reading from ch.
func NewDrainer(ch *Channel, cfg DrainConfig) *Drainer {
	if cfg.Start <= 0 {
		cfg.Start = 1
	}
	if cfg.Max < cfg.Start {
		cfg.Max = cfg.Start
	}
	if cfg.Step <= 0 {
		cfg.Step = cfg.Start
	}
	return &Drainer{ch: ch, batch: cfg.Start, max: cfg.Max, step: cfg.Step}
}

// Batch returns the current per-cycle batch size.
func (d *Drainer) Batch() int { return d.batch }

// Grown returns how many times the batch size was increased.
func (d *Drainer) Grown() int { return d.grown }

// Take appends up to Batch() events to buf and returns it. It stops early
// when the channel is empty and never blocks.
func (d *Drainer) Take(buf []Event) []Event {
	if d.ch.Full() && d.batch < d.max {
		d.batch += d.step
		if d.batch > d.max {
			d.batch = d.max
		}
		d.grown++
	}

	for i := 0; i < d.batch; i++ {
		e, ok := d.ch.TryPop()
		if !ok {
			break
		}
		buf = append(buf, e)
	}
	return buf
}

// Applier consumes drained events, e.g. a framebuffer.
type Applier interface {
	Apply(Event)
}

// Drain takes one batch and applies it to every target in order.
// It returns the number of events drained.
func (d *Drainer) Drain(buf []Event, targets ...Applier) ([]Event, int) {
	buf = d.Take(buf[:0])
	for _, e := range buf {
		for _, t := range targets {
			t.Apply(e)
		}
	}
	return buf, len(buf)
}
