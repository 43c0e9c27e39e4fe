package lineage

import (
	"log/slog"

	"github.com/pthm-cable/worms/world"
)

// Recorder writes a birth record for every creature and a death record
// when it dies. It implements world.Recorder.
type Recorder struct {
	world.NopRecorder
	w *Writer

	// Write errors are logged once and then dropped.
	failed bool
}

var _ world.Recorder = (*Recorder)(nil)

// NewRecorder creates a recorder writing to w.
func NewRecorder(w *Writer) *Recorder {
	return &Recorder{w: w}
}

func (r *Recorder) Born(tick int, child, a, b *world.Creature) {
	r.write(Record{
		Type:    TypeBirth,
		Tick:    tick,
		ID:      child.ID(),
		Kind:    child.Kind().String(),
		Parents: child.Parents(),
		Genome:  child.Genome().String(),
	})
}

func (r *Recorder) Died(tick int, c *world.Creature) {
	r.write(Record{Type: TypeDeath, Tick: tick, ID: c.ID(), Age: c.Age(), Health: c.Health()})
}

func (r *Recorder) write(rec Record) {
	if r.failed {
		return
	}
	if err := r.w.Write(rec); err != nil {
		r.failed = true
		slog.Error("lineage write failed", "error", err, "id", rec.ID)
	}
}
