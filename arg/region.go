package arg

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/samsledje/compbio/internal/interval"
)

// SetAncestral populates every node's ancestral interval set, bottom-up.
// Precondition: every recomb node already has its position assigned (via
// SetPos/SetRecombPos) and, for simulator-built ARGs, its parents already
// ordered [left, right] (via SetRecombParents).
//
// Blocks (maximal runs between recombination breakpoints) are recomputed
// from scratch from the ARG's current recomb positions; the live-lineage
// counter driving MRCA detection is local to this call, except that its
// final values are snapshotted onto the ARG (via BlockCounts) for callers
// verifying the "every block reaches its MRCA" invariant.
func (a *ARG) SetAncestral() error {
	blockStarts := a.blockStarts()
	k := a.sampleCount()

	counts := make(map[float64]int, len(blockStarts))
	for _, b := range blockStarts {
		counts[b] = k
	}

	order := a.buildInvertedDAG().Postorder()
	for _, idInt := range order {
		id := NodeID(idInt)
		rec := &a.nodes[id]
		if rec.removed {
			continue
		}
		switch rec.kind {
		case Sample:
			rec.ancestral = interval.Set{{Start: a.Start, End: a.End}}

		case Coal:
			if err := a.checkCoalArity(rec); err != nil {
				return err
			}
			rec.ancestral = a.coalAncestral(id, rec.children[0], rec.children[1], blockStarts, counts)

		case Recomb:
			if err := a.checkRecombArity(rec); err != nil {
				return err
			}
			rec.ancestral = a.recombAncestral(id, rec.children[0], blockStarts, counts)

		default:
			return &InvariantViolation{Msg: "node with unknown event kind cannot be finalized"}
		}
	}
	a.blockCounts = maps.Clone(counts)
	return nil
}

// BlockCounts returns a defensive copy of each recombination block's
// live-lineage counter as SetAncestral's last run left it, keyed by block
// start. A block that reached its MRCA reads 1; nil until SetAncestral has
// run. Exposed for tests verifying spec property 4 (every block's MRCA is
// eventually reached) without threading the counter through node state.
func (a *ARG) BlockCounts() map[float64]int {
	return maps.Clone(a.blockCounts)
}

func (a *ARG) checkCoalArity(rec *nodeRecord) error {
	if len(rec.children) != 2 {
		return &InvariantViolation{Msg: "coal node must have exactly 2 children"}
	}
	return nil
}

func (a *ARG) checkRecombArity(rec *nodeRecord) error {
	if len(rec.children) != 1 {
		return &InvariantViolation{Msg: "recomb node must have exactly 1 child"}
	}
	return nil
}

func (a *ARG) sampleCount() int {
	n := 0
	for i := range a.nodes {
		if !a.nodes[i].removed && a.nodes[i].kind == Sample {
			n++
		}
	}
	return n
}

// blockStarts is the sorted, deduplicated set of recombination-block
// boundaries: the ARG's own start plus every recomb node's position.
func (a *ARG) blockStarts() []float64 {
	starts := []float64{a.Start}
	for i := range a.nodes {
		rec := &a.nodes[i]
		if rec.removed || rec.kind != Recomb {
			continue
		}
		if !rec.hasPos {
			panicPrecondition("set_ancestral: recomb node %q has no position assigned", rec.name)
		}
		starts = append(starts, rec.pos)
	}
	sort.Float64s(starts)
	out := starts[:1]
	for _, s := range starts[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

// blockIndexAt returns the index into blockStarts of the block containing x.
func blockIndexAt(blockStarts []float64, x float64) int {
	i := sort.Search(len(blockStarts), func(i int) bool { return blockStarts[i] > x })
	return i - 1
}

func blockEndAt(blockStarts []float64, idx int, globalEnd float64) float64 {
	if idx+1 < len(blockStarts) {
		return blockStarts[idx+1]
	}
	return globalEnd
}

func blockKeyAt(blockStarts []float64, x float64) float64 {
	return blockStarts[blockIndexAt(blockStarts, x)]
}

// splitByBlocks chops s at every block boundary it straddles, so every
// resulting piece lies within exactly one block.
func (a *ARG) splitByBlocks(s interval.Set, blockStarts []float64) interval.Set {
	var out interval.Set
	for _, iv := range s {
		start := iv.Start
		for start < iv.End {
			idx := blockIndexAt(blockStarts, start)
			end := blockEndAt(blockStarts, idx, a.End)
			if end > iv.End {
				end = iv.End
			}
			out = append(out, interval.Interval{Start: start, End: end})
			start = end
		}
	}
	return out
}

// nodeAncestralForParent is get_ancestral(node, parent=parent): the
// ancestral regions flowing out along the edge from node to parent. For
// sample/coal it's the node's whole set; for recomb it's the set split by
// the node's position, on whichever side parent sits — unless parent
// occupies both parent slots (the self-coalescence special case), in
// which case the full, unsplit set is returned.
func (a *ARG) nodeAncestralForParent(node, parent NodeID) interval.Set {
	rec := &a.nodes[node]
	if rec.kind != Recomb {
		return rec.ancestral
	}
	if len(rec.parents) == 2 && rec.parents[0] == parent && rec.parents[1] == parent {
		return rec.ancestral
	}
	idx := indexOfNodeID(rec.parents, parent)
	if idx < 0 {
		panicPrecondition("get_ancestral: %q is not a parent of recomb node %q", mustName(a, parent), rec.name)
	}
	side := interval.Left
	if idx == 1 {
		side = interval.Right
	}
	return interval.Split(rec.pos, side, rec.ancestral)
}

func mustName(a *ARG, id NodeID) Name {
	if !a.validID(id) {
		return Name("?")
	}
	return a.nodes[id].name
}

func indexOfNodeID(s []NodeID, v NodeID) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// GetAncestral is the external get_ancestral(node, side|parent): a recomb
// node needs side or parent (parent is used when both are given); neither
// is required (and both are ignored) for sample/coal.
func (a *ARG) GetAncestral(id NodeID, side *interval.Side, parent *NodeID) (interval.Set, error) {
	if err := a.checkValid(id); err != nil {
		return nil, err
	}
	rec := &a.nodes[id]
	if rec.kind != Recomb {
		return append(interval.Set(nil), rec.ancestral...), nil
	}
	if parent != nil {
		return append(interval.Set(nil), a.nodeAncestralForParent(id, *parent)...), nil
	}
	if side == nil {
		panicPrecondition("get_ancestral on recomb node %q requires a side or parent", rec.name)
	}
	return interval.Split(rec.pos, *side, rec.ancestral), nil
}

// coalAncestral implements set_ancestral step 2: the ancestral set of a
// coalescence node with children u, v, and the block-counter bookkeeping
// that drives MRCA detection.
func (a *ARG) coalAncestral(self, u, v NodeID, blockStarts []float64, counts map[float64]int) interval.Set {
	if u == v {
		// Self-coalescence: the recomb node's two lineages meet each other
		// directly. One side contributes the full regions, the other
		// nothing; no block counter moves.
		return append(interval.Set(nil), a.nodeAncestralForParent(u, self)...)
	}

	ru := a.splitByBlocks(a.nodeAncestralForParent(u, self), blockStarts)
	rv := a.splitByBlocks(a.nodeAncestralForParent(v, self), blockStarts)

	var out interval.Set
	for _, ov := range interval.CountOverlaps(ru, rv) {
		key := blockKeyAt(blockStarts, ov.Start)
		switch ov.Count {
		case 2:
			counts[key]--
			out = append(out, interval.Interval{Start: ov.Start, End: ov.End})
		case 1:
			if counts[key] > 1 {
				out = append(out, interval.Interval{Start: ov.Start, End: ov.End})
			}
		}
	}
	return out
}

// recombAncestral implements set_ancestral step 3: a recomb node's own
// ancestral set is its child's contribution, filtered by the same
// MRCA rule coalescence uses for count == 1 pieces (no decrement — a
// recombination node, with a single child, never itself closes a block).
func (a *ARG) recombAncestral(self, child NodeID, blockStarts []float64, counts map[float64]int) interval.Set {
	pieces := a.splitByBlocks(a.nodeAncestralForParent(child, self), blockStarts)
	var out interval.Set
	for _, p := range pieces {
		key := blockKeyAt(blockStarts, p.Start)
		if counts[key] > 1 {
			out = append(out, p)
		}
	}
	return out
}
