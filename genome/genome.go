// Package genome encodes heritable traits as fixed-length bit vectors and
// decodes them back into trait values according to an ordered schema.
package genome

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Genome is an ordered sequence of binary digits. Every element is 0 or 1.
type Genome []uint8

// Parse reads a genome from a string of '0' and '1' characters.
func Parse(s string) (Genome, error) {
	g := make(Genome, len(s))
	for i, ch := range s {
		switch ch {
		case '0':
			g[i] = 0
		case '1':
			g[i] = 1
		default:
			return nil, fmt.Errorf("genome: invalid digit %q at %d", ch, i)
		}
	}
	return g, nil
}

// String renders the genome as a string of '0' and '1'.
func (g Genome) String() string {
	var sb strings.Builder
	sb.Grow(len(g))
	for _, b := range g {
		if b != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Clone returns an independent copy of the genome.
func (g Genome) Clone() Genome {
	out := make(Genome, len(g))
	copy(out, g)
	return out
}

// Equal reports whether two genomes hold the same bits.
func (g Genome) Equal(other Genome) bool {
	if len(g) != len(other) {
		return false
	}
	for i := range g {
		if g[i] != other[i] {
			return false
		}
	}
	return true
}

// Uint interprets the genome as an unsigned big-endian binary integer.
func (g Genome) Uint() uint64 {
	var v uint64
	for _, b := range g {
		v = v<<1 | uint64(b&1)
	}
	return v
}

// Segment describes one named, contiguous run of bits in a genome.
// At most one of Choices and Base applies; with neither set the segment
// decodes to a float in [0, 1].
type Segment struct {
	Name    string
	Bits    int
	Choices []any
	Base    float64
}

// maxSegmentBits keeps segment values representable in a uint64.
const maxSegmentBits = 63

type span struct {
	start, end int
}

// Handler encodes and decodes genomes for a fixed schema.
type Handler struct {
	segments []Segment
	spans    map[string]span
	width    int
}

// NewHandler validates the schema and precomputes segment offsets.
func NewHandler(segments []Segment) (*Handler, error) {
	h := &Handler{
		segments: make([]Segment, len(segments)),
		spans:    make(map[string]span, len(segments)),
	}
	copy(h.segments, segments)

	for _, seg := range segments {
		if seg.Name == "" {
			return nil, &EncodingError{Reason: "segment without a name"}
		}
		if _, dup := h.spans[seg.Name]; dup {
			return nil, &EncodingError{Segment: seg.Name, Reason: "duplicate segment"}
		}
		if seg.Bits <= 0 || seg.Bits > maxSegmentBits {
			return nil, &EncodingError{Segment: seg.Name, Reason: fmt.Sprintf("bit width %d out of range [1, %d]", seg.Bits, maxSegmentBits)}
		}
		if len(seg.Choices) > 0 && seg.Base != 0 {
			return nil, &EncodingError{Segment: seg.Name, Reason: "both choices and base set"}
		}
		if seg.Base < 0 {
			return nil, &EncodingError{Segment: seg.Name, Reason: fmt.Sprintf("negative base %v", seg.Base)}
		}
		h.spans[seg.Name] = span{start: h.width, end: h.width + seg.Bits}
		h.width += seg.Bits
	}
	return h, nil
}

// Width returns the total genome length the schema requires.
func (h *Handler) Width() int { return h.width }

// Segments returns a copy of the schema.
func (h *Handler) Segments() []Segment {
	out := make([]Segment, len(h.segments))
	copy(out, h.segments)
	return out
}

// Slice returns the bits of the named segment. The result aliases g.
func (h *Handler) Slice(g Genome, name string) (Genome, error) {
	if len(g) != h.width {
		return nil, lengthError(len(g), h.width)
	}
	sp, ok := h.spans[name]
	if !ok {
		return nil, &EncodingError{Segment: name, Reason: "unknown segment"}
	}
	return g[sp.start:sp.end], nil
}

// Generate produces a uniformly random genome. Segments named in overrides
// are written verbatim instead of randomised.
func (h *Handler) Generate(rng *rand.Rand, overrides map[string]Genome) (Genome, error) {
	if err := h.CheckOverrides(overrides); err != nil {
		return nil, err
	}
	g := make(Genome, h.width)
	for i := range g {
		g[i] = uint8(rng.Intn(2))
	}
	for name, bits := range overrides {
		sp := h.spans[name]
		copy(g[sp.start:sp.end], bits)
	}
	return g, nil
}

// CheckOverrides verifies that every override names a segment and matches
// its width.
func (h *Handler) CheckOverrides(overrides map[string]Genome) error {
	for name, bits := range overrides {
		sp, ok := h.spans[name]
		if !ok {
			return &EncodingError{Segment: name, Reason: "override for unknown segment"}
		}
		if len(bits) != sp.end-sp.start {
			return &EncodingError{Segment: name, Reason: fmt.Sprintf("override has %d bits, segment has %d", len(bits), sp.end-sp.start)}
		}
	}
	return nil
}

// Decode interprets every segment of g. Choice segments yield the indexed
// choice; other segments yield a float64 in [0, base].
func (h *Handler) Decode(g Genome) (TraitMap, error) {
	if len(g) != h.width {
		return nil, lengthError(len(g), h.width)
	}
	for i, b := range g {
		if b > 1 {
			return nil, &EncodingError{Reason: fmt.Sprintf("bit %d has value %d", i, b)}
		}
	}

	traits := make(TraitMap, len(h.segments))
	for _, seg := range h.segments {
		sp := h.spans[seg.Name]
		v := g[sp.start:sp.end].Uint()

		if len(seg.Choices) > 0 {
			if v >= uint64(len(seg.Choices)) {
				return nil, &EncodingError{
					Segment: seg.Name,
					Reason:  fmt.Sprintf("choice index %d out of range for %d choices", v, len(seg.Choices)),
				}
			}
			traits[seg.Name] = seg.Choices[v]
			continue
		}

		base := seg.Base
		if base == 0 {
			base = 1.0
		}
		maxV := math.Exp2(float64(seg.Bits)) - 1
		traits[seg.Name] = float64(v) / maxV * base
	}
	return traits, nil
}

func lengthError(got, want int) error {
	return &EncodingError{Reason: fmt.Sprintf("genome length %d, schema requires %d", got, want)}
}
