package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/worms/events"
	"github.com/pthm-cable/worms/genome"
	"github.com/pthm-cable/worms/world"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the board state at the end of a tick.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Width  int `json:"width"`
	Height int `json:"height"`
	Tick   int `json:"tick"`

	Creatures []CreatureState `json:"creatures"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// CreatureState holds one creature's state.
type CreatureState struct {
	ID      uint64    `json:"id"`
	Kind    string    `json:"kind"`
	X       int       `json:"x"`
	Y       int       `json:"y"`
	Genome  string    `json:"genome"`
	Parents [2]uint64 `json:"parents"`

	Health  float64 `json:"health"`
	Energy  float64 `json:"energy"`
	Age     int     `json:"age"`
	Fear    float64 `json:"fear"`
	Dead    bool    `json:"dead"`
	Rotting int     `json:"rotting,omitempty"`
	Heading int     `json:"heading"`

	Lifetime *LifetimeStats `json:"lifetime,omitempty"`
}

// TakeSnapshot captures every tracked creature not pending removal. lt and
// bm may be nil.
func TakeSnapshot(sim *world.Simulation, seed int64, lt *LifetimeTracker, bm *Bookmark) *Snapshot {
	b := sim.Board()
	snap := &Snapshot{
		Version:  SnapshotVersion,
		RNGSeed:  seed,
		Width:    b.Width(),
		Height:   b.Height(),
		Tick:     sim.Tick(),
		Bookmark: bm,
	}
	for _, c := range b.Creatures() {
		if c.Garbage() {
			continue
		}
		cs := c.State()
		st := CreatureState{
			ID:      c.ID(),
			Kind:    c.Kind().String(),
			X:       c.Pos().X,
			Y:       c.Pos().Y,
			Genome:  c.Genome().String(),
			Parents: c.Parents(),
			Health:  cs.Health,
			Energy:  cs.Energy,
			Age:     cs.Age,
			Fear:    cs.Fear,
			Dead:    cs.Dead,
			Rotting: cs.Rotting,
			Heading: cs.Heading,
		}
		if lt != nil {
			st.Lifetime = lt.Get(c.ID())
		}
		snap.Creatures = append(snap.Creatures, st)
	}
	return snap
}

// Restore places the snapshot's creatures, carrion included, on sim's
// board and resumes its tick count. The board must have the same size and
// be free at their positions. When lt is non-nil it takes over the saved
// lifetime stats.
func (s *Snapshot) Restore(sim *world.Simulation, lt *LifetimeTracker) error {
	b := sim.Board()
	if b.Width() != s.Width || b.Height() != s.Height {
		return fmt.Errorf("snapshot is %dx%d, board is %dx%d", s.Width, s.Height, b.Width(), b.Height())
	}
	for _, st := range s.Creatures {
		kind, err := world.ParseKind(st.Kind)
		if err != nil {
			return fmt.Errorf("creature %d: %w", st.ID, err)
		}
		g, err := genome.Parse(st.Genome)
		if err != nil {
			return fmt.Errorf("creature %d: %w", st.ID, err)
		}
		c, err := world.NewCreature(st.ID, kind, g, sim.Handler(), sim.Params())
		if err != nil {
			return fmt.Errorf("creature %d: %w", st.ID, err)
		}
		c.SetParents(st.Parents)
		c.SetState(world.State{
			Health:  st.Health,
			Energy:  st.Energy,
			Age:     st.Age,
			Fear:    st.Fear,
			Dead:    st.Dead,
			Rotting: st.Rotting,
			Heading: st.Heading,
		})
		pos := events.Position{X: st.X, Y: st.Y}
		if !b.IsFree(pos) {
			return fmt.Errorf("creature %d: cell %v is not free", st.ID, pos)
		}
		sim.Place(c, pos)
		if lt != nil {
			lt.Restore(c, st.Lifetime)
		}
	}
	sim.SetTick(s.Tick)
	return nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
