// Package coalescent implements the coalescent-with-recombination
// simulator (C4): exponential event sampling, lineage bookkeeping, and
// the termination cleanup that orders every recomb node's parents.
package coalescent

import (
	"sort"

	"github.com/samsledje/compbio/arg"
	"github.com/samsledje/compbio/internal/interval"
	"github.com/samsledje/compbio/internal/xlog"
	"github.com/samsledje/compbio/internal/xrand"
)

// recombSide tags a lineage as one half of a recomb node's split output,
// so the coalescence that eventually consumes it can be recorded as that
// side's parent for the termination cleanup pass.
type recombSide struct {
	recomb arg.NodeID
	side   interval.Side
}

type lineage struct {
	node    arg.NodeID
	regions interval.Set
	seqlen  float64
	origin  *recombSide
}

func newLineage(node arg.NodeID, regions interval.Set, origin *recombSide) lineage {
	return lineage{node: node, regions: regions, seqlen: regions.Len(), origin: origin}
}

// SampleARG draws a coalescent-with-recombination genealogy for k samples
// over [start, end) with haploid effective size n and recombination rate
// rho (per unit length per generation), starting at time t0. The returned
// ARG is fully linked with ancestral regions populated.
func SampleARG(rng xrand.Source, k int, n, rho, start, end, t0 float64) (*arg.ARG, error) {
	g, err := arg.New(start, end)
	if err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, &arg.InvalidIntervalError{Start: start, End: end}
	}

	log := xlog.With("coalescent").With().Int("k", k).Float64("rho", rho).Logger()

	lineages := make([]lineage, 0, k)
	totalSeqlen := 0.0
	blockStarts := []float64{start}
	blockCounts := map[float64]int{start: k}

	for i := 0; i < k; i++ {
		name := g.NextName()
		id, err := g.AddSample(name)
		if err != nil {
			return nil, err
		}
		lin := newLineage(id, interval.Set{{Start: start, End: end}}, nil)
		lineages = append(lineages, lin)
		totalSeqlen += lin.seqlen
	}

	recombParents := make(map[arg.NodeID]*[2]arg.NodeID)

	t := t0
	for len(lineages) > 1 {
		kCur := float64(len(lineages))
		lambdaCoal := kCur * (kCur - 1) / 2 / n
		lambdaRec := rho * totalSeqlen
		totalRate := lambdaCoal + lambdaRec

		t += xrand.Exponential(rng, totalRate)

		if totalRate > 0 && xrand.Uniform(rng, 0, totalRate) < lambdaRec {
			if err := stepRecomb(g, rng, t, &lineages, &totalSeqlen, &blockStarts, blockCounts, recombParents); err != nil {
				return nil, err
			}
		} else {
			if err := stepCoal(g, rng, t, &lineages, &totalSeqlen, blockStarts, blockCounts, recombParents); err != nil {
				return nil, err
			}
		}
	}

	for r, pair := range recombParents {
		if err := g.SetRecombParents(r, pair[0], pair[1]); err != nil {
			return nil, err
		}
	}

	if err := g.SetAncestral(); err != nil {
		return nil, err
	}

	log.Debug().Float64("t", t).Msg("coalescent simulation complete")
	return g, nil
}

func stepCoal(g *arg.ARG, rng xrand.Source, t float64, lineages *[]lineage, totalSeqlen *float64, blockStarts []float64, blockCounts map[float64]int, recombParents map[arg.NodeID]*[2]arg.NodeID) error {
	ls := *lineages
	i, j := pickTwoDistinct(rng, len(ls))
	li, lj := ls[i], ls[j]

	name := g.NextName()
	newID, err := g.AddCoal(name, t, li.node, lj.node)
	if err != nil {
		return err
	}

	recordOrigin(recombParents, li.origin, newID)
	recordOrigin(recombParents, lj.origin, newID)

	ri := splitByBlocks(li.regions, blockStarts)
	rj := splitByBlocks(lj.regions, blockStarts)

	var onward interval.Set
	for _, ov := range interval.CountOverlaps(ri, rj) {
		key := blockKeyAt(blockStarts, ov.Start)
		if ov.Count == 2 {
			blockCounts[key]--
		}
		if blockCounts[key] > 1 {
			onward = append(onward, interval.Interval{Start: ov.Start, End: ov.End})
		}
	}

	*totalSeqlen -= li.seqlen + lj.seqlen

	next := removeIndices(ls, i, j)
	if len(onward) > 0 {
		nl := newLineage(newID, onward, nil)
		next = append(next, nl)
		*totalSeqlen += nl.seqlen
	}
	*lineages = next
	return nil
}

func stepRecomb(g *arg.ARG, rng xrand.Source, t float64, lineages *[]lineage, totalSeqlen *float64, blockStarts *[]float64, blockCounts map[float64]int, recombParents map[arg.NodeID]*[2]arg.NodeID) error {
	ls := *lineages
	seqlens := make([]float64, len(ls))
	for i, l := range ls {
		seqlens[i] = l.seqlen
	}
	idx := xrand.WeightedIndex(rng, seqlens)
	chosen := ls[idx]

	lens := make([]float64, len(chosen.regions))
	for i, iv := range chosen.regions {
		lens[i] = iv.Len()
	}
	regionIdx := xrand.WeightedIndex(rng, lens)
	region := chosen.regions[regionIdx]
	pos := xrand.Uniform(rng, region.Start, region.End)

	name := g.NextName()
	newID, err := g.AddRecomb(name, t, chosen.node)
	if err != nil {
		return err
	}
	if err := g.SetPos(newID, pos); err != nil {
		return err
	}

	preceding := blockKeyAt(*blockStarts, pos)
	*blockStarts = insertSorted(*blockStarts, pos)
	blockCounts[pos] = blockCounts[preceding]

	left := interval.Split(pos, interval.Left, chosen.regions)
	right := interval.Split(pos, interval.Right, chosen.regions)

	recombParents[newID] = &[2]arg.NodeID{}

	next := removeIndices(ls, idx)
	leftLin := newLineage(newID, left, &recombSide{newID, interval.Left})
	rightLin := newLineage(newID, right, &recombSide{newID, interval.Right})
	next = append(next, leftLin, rightLin)
	*lineages = next

	*totalSeqlen += leftLin.seqlen + rightLin.seqlen - chosen.seqlen
	if chosen.origin != nil {
		recordOrigin(recombParents, chosen.origin, newID)
	}
	return nil
}

// recordOrigin records, for the recomb node tagged by origin, that the
// coalescence newParent is the parent on origin's side. Called whenever a
// lineage carrying a recombSide tag is consumed by a later event (either
// coalescing away, or here, splitting again before its side was ever
// coalesced — in which case the new recomb node itself is recorded as the
// side's parent, and its own origin tag propagates to its two children).
func recordOrigin(recombParents map[arg.NodeID]*[2]arg.NodeID, origin *recombSide, newParent arg.NodeID) {
	if origin == nil {
		return
	}
	pair := recombParents[origin.recomb]
	if origin.side == interval.Left {
		pair[0] = newParent
	} else {
		pair[1] = newParent
	}
}

func pickTwoDistinct(rng xrand.Source, n int) (int, int) {
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return i, j
}

func removeIndices(s []lineage, idx ...int) []lineage {
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}
	out := make([]lineage, 0, len(s)-len(idx))
	for i, v := range s {
		if !drop[i] {
			out = append(out, v)
		}
	}
	return out
}

func blockIndexAt(blockStarts []float64, x float64) int {
	i := sort.Search(len(blockStarts), func(i int) bool { return blockStarts[i] > x })
	return i - 1
}

func blockKeyAt(blockStarts []float64, x float64) float64 {
	return blockStarts[blockIndexAt(blockStarts, x)]
}

func blockEndAt(blockStarts []float64, idx int, globalEnd float64) float64 {
	if idx+1 < len(blockStarts) {
		return blockStarts[idx+1]
	}
	return globalEnd
}

func splitByBlocks(s interval.Set, blockStarts []float64) interval.Set {
	if len(s) == 0 {
		return nil
	}
	globalEnd := s[len(s)-1].End
	var out interval.Set
	for _, iv := range s {
		start := iv.Start
		for start < iv.End {
			idx := blockIndexAt(blockStarts, start)
			end := blockEndAt(blockStarts, idx, globalEnd)
			if end > iv.End {
				end = iv.End
			}
			out = append(out, interval.Interval{Start: start, End: end})
			start = end
		}
	}
	return out
}

// insertSorted inserts pos into a sorted slice, preserving duplicates: per
// the spec's open question on measure-zero coincident recombination
// positions, a repeat coordinate is left as a duplicate entry rather than
// deduplicated.
func insertSorted(s []float64, pos float64) []float64 {
	i := sort.Search(len(s), func(i int) bool { return s[i] > pos })
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = pos
	return s
}
