package xrand

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestExponentialMean(t *testing.T) {
	src := New(7)
	const rate = 2.5
	const n = 200000

	var sum float64
	for i := 0; i < n; i++ {
		sum += Exponential(src, rate)
	}
	mean := sum / n
	require.InDelta(t, 1/rate, mean, 0.02)
}

func TestWeightedIndexRespectsZeroWeights(t *testing.T) {
	src := New(1)
	weights := []float64{0, 1, 0}
	for i := 0; i < 1000; i++ {
		require.Equal(t, 1, WeightedIndex(src, weights))
	}
}

func TestUniformRange(t *testing.T) {
	src := New(3)
	for i := 0; i < 1000; i++ {
		v := Uniform(src, 2, 5)
		require.True(t, v >= 2 && v < 5)
	}
	require.False(t, math.IsNaN(Uniform(src, 0, 1)))
}
