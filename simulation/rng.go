package simulation

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source is the random stream a simulation draws from.
// *rand.Rand from math/rand/v2 satisfies it, and so does any rand.Source
// wrapped with rand.New, which keeps every draw reproducible from a seed.
type Source interface {
	Float64() float64
	IntN(n int) int
	Uint64() uint64
}

// NewSource returns a seeded stream
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// sampleBeta draws a rate whose mean is m and whose variance shrinks as weight grows
func sampleBeta(rng Source, m, weight float64) float64 {
	if m <= 0 || m >= 1 || weight <= 0 {
		return m
	}
	return distuv.Beta{Alpha: m * weight, Beta: (1 - m) * weight, Src: rng}.Rand()
}

// pickIndex draws an index from a categorical distribution given as weights.
// Weights need not sum to one.
func pickIndex(rng Source, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return rng.IntN(len(weights))
	}

	roll := rng.Float64() * total
	for i, w := range weights {
		if roll < w {
			return i
		}
		roll -= w
	}
	return len(weights) - 1
}
