// Package interval implements half-open real interval algebra: splitting a
// sorted, disjoint interval set at a position, and counting how many input
// sets overlap across a minimal partition of their union.
//
// All intervals are closed-open, [Start, End). Position comparisons are
// exact float64 equality/ordering — no epsilon tolerance, per the
// ancestral-region engine's requirement that a recombination position
// either is or isn't inside a region, with no fuzz band.
package interval

import "golang.org/x/exp/slices"

// Interval is the half-open range [Start, End).
type Interval struct {
	Start, End float64
}

// Len returns End - Start.
func (iv Interval) Len() float64 { return iv.End - iv.Start }

// Set is a sorted, pairwise-disjoint sequence of intervals. Every function
// in this package both requires and preserves that invariant.
type Set []Interval

// Len returns the total length of the set.
func (s Set) Len() float64 {
	var total float64
	for _, iv := range s {
		total += iv.Len()
	}
	return total
}

// Side selects which half of a split a caller wants.
type Side int

const (
	Left Side = iota
	Right
)

// Split partitions regions at pos: Left keeps everything strictly below
// pos (intervals straddling pos are truncated to end at pos), Right keeps
// everything at or above pos (straddling intervals are truncated to start
// at pos). regions must be sorted and disjoint; the result is too.
func Split(pos float64, side Side, regions Set) Set {
	out := make(Set, 0, len(regions))
	for _, iv := range regions {
		switch side {
		case Left:
			switch {
			case iv.End <= pos:
				out = append(out, iv)
			case iv.Start < pos && pos < iv.End:
				out = append(out, Interval{iv.Start, pos})
			}
		case Right:
			switch {
			case iv.Start >= pos:
				out = append(out, iv)
			case iv.Start < pos && pos < iv.End:
				out = append(out, Interval{pos, iv.End})
			}
		}
	}
	return out
}

// Overlap is one maximal piece of a minimal partition of the union of the
// input sets, with the number of input sets covering it.
type Overlap struct {
	Start, End float64
	Count      int
}

type endpoint struct {
	pos     float64
	opening bool
}

// CountOverlaps enumerates the minimal partition of the union of sets into
// maximal half-open pieces with constant, positive overlap count. When a
// closing and an opening endpoint coincide, the closing is processed
// first, so the emitted count reflects what's active *inside* each piece.
func CountOverlaps(sets ...Set) []Overlap {
	var endpoints []endpoint
	for _, s := range sets {
		for _, iv := range s {
			endpoints = append(endpoints, endpoint{iv.Start, true}, endpoint{iv.End, false})
		}
	}
	if len(endpoints) == 0 {
		return nil
	}

	slices.SortFunc(endpoints, func(a, b endpoint) bool {
		if a.pos != b.pos {
			return a.pos < b.pos
		}
		// closings before openings at the same coordinate
		return !a.opening && b.opening
	})

	var out []Overlap
	count := 0
	var pieceStart float64
	haveStart := false
	for i, e := range endpoints {
		if haveStart && e.pos > pieceStart && count > 0 {
			out = append(out, Overlap{pieceStart, e.pos, count})
		}
		if e.opening {
			count++
		} else {
			count--
		}
		if i+1 < len(endpoints) {
			pieceStart = e.pos
			haveStart = true
		}
	}
	return out
}
