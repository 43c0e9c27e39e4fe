package genome

import (
	"fmt"
	"math/rand"
)

// DefaultMutationRate is the per-offspring probability of a single bit flip.
const DefaultMutationRate = 0.05

// Crossover performs single-point crossover. A split index x is drawn
// uniformly from [0, len) and the children are a[:x]+b[x:] and b[:x]+a[x:].
func Crossover(rng *rand.Rand, a, b Genome) (Genome, Genome, error) {
	if len(a) != len(b) {
		return nil, nil, &EncodingError{Reason: fmt.Sprintf("crossover of genomes with lengths %d and %d", len(a), len(b))}
	}
	n := len(a)
	childA := make(Genome, n)
	childB := make(Genome, n)
	if n == 0 {
		return childA, childB, nil
	}

	x := rng.Intn(n)
	copy(childA, a[:x])
	copy(childA[x:], b[x:])
	copy(childB, b[:x])
	copy(childB[x:], a[x:])
	return childA, childB, nil
}

// Mutate returns a copy of g in which, with probability p, exactly one
// uniformly chosen bit is flipped.
func Mutate(rng *rand.Rand, g Genome, p float64) Genome {
	out := g.Clone()
	if len(out) == 0 || rng.Float64() >= p {
		return out
	}
	i := rng.Intn(len(out))
	out[i] ^= 1
	return out
}
