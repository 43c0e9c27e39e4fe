// Package seeding generates initial creature positions.
package seeding

import (
	"fmt"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/worms/events"
)

// Strategy yields candidate positions. ok is false once a finite strategy
// is exhausted. Candidates may be occupied or off the board; Populate skips
// them.
type Strategy interface {
	Next() (pos events.Position, ok bool)
}

// Horizontal walks the board row by row.
type Horizontal struct {
	W, H int
	i    int
}

func (s *Horizontal) Next() (events.Position, bool) {
	if s.i >= s.W*s.H {
		return events.Position{}, false
	}
	p := events.Position{X: s.i % s.W, Y: s.i / s.W}
	s.i++
	return p, true
}

// Vertical walks the board column by column.
type Vertical struct {
	W, H int
	i    int
}

func (s *Vertical) Next() (events.Position, bool) {
	if s.i >= s.W*s.H {
		return events.Position{}, false
	}
	p := events.Position{X: s.i / s.H, Y: s.i % s.H}
	s.i++
	return p, true
}

// Random picks uniform positions from its own random source.
type Random struct {
	W, H int
	rng  *rand.Rand
}

// NewRandom creates a random strategy seeded with seed.
func NewRandom(w, h int, seed int64) *Random {
	return &Random{W: w, H: h, rng: rand.New(rand.NewSource(seed))}
}

func (s *Random) Next() (events.Position, bool) {
	return events.Position{X: s.rng.Intn(s.W), Y: s.rng.Intn(s.H)}, true
}

// Circle picks positions uniformly inside a disc.
type Circle struct {
	Center events.Position
	Radius float64
	rng    *rand.Rand
}

// NewCircle creates a circle strategy around center.
func NewCircle(center events.Position, radius float64, rng *rand.Rand) *Circle {
	return &Circle{Center: center, Radius: radius, rng: rng}
}

func (s *Circle) Next() (events.Position, bool) {
	t := 2 * math.Pi * s.rng.Float64()
	u := s.rng.Float64() + s.rng.Float64()
	r := u
	if u > 1 {
		r = 2 - u
	}
	return events.Position{
		X: s.Center.X + int(r*math.Cos(t)*s.Radius),
		Y: s.Center.Y + int(r*math.Sin(t)*s.Radius),
	}, true
}

// noiseTries bounds the candidates drawn per Next call.
const noiseTries = 64

// Noise clusters positions where simplex noise exceeds a threshold.
type Noise struct {
	W, H      int
	Scale     float64
	Threshold float64
	noise     opensimplex.Noise
	rng       *rand.Rand
}

// NewNoise creates a noise strategy. The noise field is seeded with seed and
// candidates are drawn from rng.
func NewNoise(w, h int, scale, threshold float64, seed int64, rng *rand.Rand) *Noise {
	return &Noise{
		W:         w,
		H:         h,
		Scale:     scale,
		Threshold: threshold,
		noise:     opensimplex.NewNormalized(seed),
		rng:       rng,
	}
}

// Value returns the normalized noise at (x, y) in [0, 1).
func (s *Noise) Value(x, y int) float64 {
	return s.noise.Eval2(float64(x)*s.Scale, float64(y)*s.Scale)
}

// Next returns the first candidate above the threshold, or the densest of
// noiseTries candidates when none qualifies.
func (s *Noise) Next() (events.Position, bool) {
	var best events.Position
	bestV := -1.0
	for i := 0; i < noiseTries; i++ {
		p := events.Position{X: s.rng.Intn(s.W), Y: s.rng.Intn(s.H)}
		v := s.Value(p.X, p.Y)
		if v >= s.Threshold {
			return p, true
		}
		if v > bestV {
			best, bestV = p, v
		}
	}
	return best, true
}

// Options configures a strategy by name.
type Options struct {
	Type      string
	Seed      int64
	Radius    float64
	Point     events.Position
	Scale     float64
	Threshold float64
}

// New builds the strategy named by o.Type for a w×h board.
func New(o Options, w, h int, rng *rand.Rand) (Strategy, error) {
	switch o.Type {
	case "horizontal":
		return &Horizontal{W: w, H: h}, nil
	case "vertical":
		return &Vertical{W: w, H: h}, nil
	case "", "random":
		return NewRandom(w, h, o.Seed), nil
	case "circle":
		if o.Radius <= 0 {
			return nil, fmt.Errorf("seeding: circle radius %v must be positive", o.Radius)
		}
		return NewCircle(o.Point, o.Radius, rng), nil
	case "noise":
		if o.Scale <= 0 {
			return nil, fmt.Errorf("seeding: noise scale %v must be positive", o.Scale)
		}
		return NewNoise(w, h, o.Scale, o.Threshold, o.Seed, rng), nil
	}
	return nil, fmt.Errorf("seeding: unknown strategy %q", o.Type)
}
