package coalescent

import (
	"github.com/samsledje/compbio/arg"
	"github.com/samsledje/compbio/internal/xrand"
)

// SampleCoalTimes draws only coalescence event times for k lineages under
// effective size n. No recombination events are produced: a positive rho is
// only added to every step's rate, and a caller passing 0 gets the pure
// Kingman coalescent.
// It returns one time per merge, in increasing order, starting from t0.
func SampleCoalTimes(rng xrand.Source, k int, n, rho, t0 float64) []float64 {
	times := make([]float64, 0, k-1)
	t := t0
	for kCur := k; kCur > 1; kCur-- {
		rate := float64(kCur) * float64(kCur-1) / 2 / n
		if rho > 0 {
			rate += rho
		}
		t += xrand.Exponential(rng, rate)
		times = append(times, t)
	}
	return times
}

// MakeARGFromTimes wires a recombination-free topology over k samples from
// a list of len(times) == k-1 coalescence times, pairing lineages uniformly
// at random at each step. This is the degenerate builder used by tests
// that want a fixed, recombination-free genealogy without driving the full
// event loop in SampleARG.
func MakeARGFromTimes(rng xrand.Source, k int, start, end float64, times []float64) (*arg.ARG, error) {
	if len(times) != k-1 {
		return nil, &arg.InvalidIntervalError{Start: start, End: end}
	}

	g, err := arg.New(start, end)
	if err != nil {
		return nil, err
	}

	live := make([]arg.NodeID, 0, k)
	for i := 0; i < k; i++ {
		id, err := g.AddSample(g.NextName())
		if err != nil {
			return nil, err
		}
		live = append(live, id)
	}

	for _, t := range times {
		i, j := pickTwoDistinct(rng, len(live))
		id, err := g.AddCoal(g.NextName(), t, live[i], live[j])
		if err != nil {
			return nil, err
		}
		live = removeLive(live, i, j)
		live = append(live, id)
	}

	if err := g.SetAncestral(); err != nil {
		return nil, err
	}
	return g, nil
}

func removeLive(s []arg.NodeID, idx ...int) []arg.NodeID {
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}
	out := make([]arg.NodeID, 0, len(s)-len(idx))
	for i, v := range s {
		if !drop[i] {
			out = append(out, v)
		}
	}
	return out
}
