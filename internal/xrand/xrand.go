// Package xrand is the single pluggable uniform random source the rest of
// this module draws from. Every Exponential/Uniform/discrete draw in
// coalescent, arg, and mutation goes through a Source passed in by the
// caller (never a package-level global), so fixing a seed makes every
// operation reproducible bit-for-bit, per the spec's "single pluggable
// uniform source" requirement.
package xrand

import (
	"math"
	"math/rand"
)

// Source is the minimal surface every sampling routine in this module
// needs. *rand.Rand satisfies it directly.
type Source interface {
	// Float64 returns a pseudo-random number in [0.0, 1.0).
	Float64() float64
	// Intn returns a pseudo-random number in [0, n).
	Intn(n int) int
}

// New returns a Source seeded deterministically.
func New(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// Exponential draws from an exponential distribution with the given rate
// (rate > 0). Used for coalescent/recombination waiting times and for
// mutation inter-arrival times.
func Exponential(src Source, rate float64) float64 {
	// 1-Float64() keeps the argument to Log in (0, 1], avoiding log(0).
	return -math.Log(1-src.Float64()) / rate
}

// Uniform draws a real number in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// UniformInt draws an integer in [lo, hi).
func UniformInt(src Source, lo, hi int) int {
	return lo + src.Intn(hi-lo)
}

// WeightedIndex draws an index in [0, len(weights)) with probability
// proportional to weights[i]. weights must be non-negative and sum > 0.
func WeightedIndex(src Source, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	target := src.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if target < cum {
			return i
		}
	}
	return len(weights) - 1
}
