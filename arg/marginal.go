package arg

import (
	"container/heap"

	"github.com/samsledje/compbio/internal/interval"
)

// LocalParent is the recombination-aware parent dispatch: for sample/coal
// it's the node's single parent (or none); for recomb it's parents[0] if
// pos is strictly left of the node's position, else parents[1].
func (a *ARG) LocalParent(id NodeID, pos float64) (NodeID, bool, error) {
	if err := a.checkValid(id); err != nil {
		return noParent, false, err
	}
	rec := &a.nodes[id]
	switch rec.kind {
	case Sample, Coal:
		if len(rec.parents) == 0 {
			return noParent, false, nil
		}
		return rec.parents[0], true, nil
	case Recomb:
		if len(rec.parents) != 2 {
			panicInvariant("local_parent: recomb node %q does not have exactly 2 parents", rec.name)
		}
		if pos < rec.pos {
			return rec.parents[0], true, nil
		}
		return rec.parents[1], true, nil
	default:
		return noParent, false, &InvariantViolation{Msg: "local_parent on node of unknown kind"}
	}
}

func containsPos(s interval.Set, pos float64) bool {
	for _, iv := range s {
		if iv.Start <= pos && pos < iv.End {
			return true
		}
	}
	return false
}

func (a *ARG) checkPosInRange(pos float64) {
	if !(a.Start <= pos && pos < a.End) {
		panicPrecondition("position %g outside [%g, %g)", pos, a.Start, a.End)
	}
}

// ageItem is one entry of the min-age priority queue PostorderMarginalTree
// walks; ties are broken by id for a deterministic pop order.
type ageItem struct {
	id  NodeID
	age float64
}

type ageHeap []ageItem

func (h ageHeap) Len() int { return len(h) }
func (h ageHeap) Less(i, j int) bool {
	if h[i].age != h[j].age {
		return h[i].age < h[j].age
	}
	return h[i].id < h[j].id
}
func (h ageHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *ageHeap) Push(x interface{}) { *h = append(*h, x.(ageItem)) }
func (h *ageHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// PostorderMarginalTree walks from every leaf upward via LocalParent(·,
// pos), in age order, yielding each node once. A node whose ancestral set
// doesn't cover pos is pos's block boundary from above — it and anything
// further up are excluded.
func (a *ARG) PostorderMarginalTree(pos float64) ([]NodeView, error) {
	a.checkPosInRange(pos)

	h := &ageHeap{}
	heap.Init(h)
	for i := range a.nodes {
		rec := &a.nodes[i]
		if rec.removed || len(rec.children) != 0 {
			continue
		}
		heap.Push(h, ageItem{id: NodeID(i), age: rec.age})
	}

	visited := make(map[NodeID]bool)
	var out []NodeView
	for h.Len() > 0 {
		item := heap.Pop(h).(ageItem)
		if visited[item.id] {
			continue
		}
		visited[item.id] = true

		rec := &a.nodes[item.id]
		if !containsPos(rec.ancestral, pos) {
			continue
		}
		out = append(out, a.view(item.id))

		parent, ok, err := a.LocalParent(item.id, pos)
		if err != nil {
			return nil, err
		}
		if ok && !visited[parent] {
			heap.Push(h, ageItem{id: parent, age: a.nodes[parent].age})
		}
	}
	return out, nil
}

// PreorderMarginalTree descends from root (or the ARG's root), recursing
// only into children whose LocalParent(child, pos) is the current node.
func (a *ARG) PreorderMarginalTree(pos float64, root *NodeID) ([]NodeView, error) {
	a.checkPosInRange(pos)

	rootID := noParent
	if root != nil {
		if err := a.checkValid(*root); err != nil {
			return nil, err
		}
		rootID = *root
	} else {
		id, ok := a.Root()
		if !ok {
			return nil, &UnknownNameError{Name("<root>")}
		}
		rootID = id
	}

	visited := make(map[NodeID]bool)
	var out []NodeView
	var walk func(id NodeID) error
	walk = func(id NodeID) error {
		if visited[id] {
			return nil
		}
		visited[id] = true
		out = append(out, a.view(id))
		for _, c := range a.nodes[id].children {
			if a.nodes[c].removed {
				continue
			}
			lp, ok, err := a.LocalParent(c, pos)
			if err != nil {
				return err
			}
			if ok && lp == id {
				if err := walk(c); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(rootID); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMarginalTree clones the nodes belonging to the marginal tree at pos
// into a fresh, tree-shaped ARG: each clone's parent is the clone of its
// local parent, if that parent was also yielded; the one that isn't
// becomes the clone's root.
func (a *ARG) GetMarginalTree(pos float64) (*ARG, error) {
	a.checkPosInRange(pos)

	nodes, err := a.PostorderMarginalTree(pos)
	if err != nil {
		return nil, err
	}

	clone, err := New(a.Start, a.End)
	if err != nil {
		return nil, err
	}

	idMap := make(map[NodeID]NodeID, len(nodes))
	for _, v := range nodes {
		rec := &a.nodes[v.ID]
		var nid NodeID
		var cerr error
		switch rec.kind {
		case Sample:
			nid, cerr = clone.AddSample(v.Name)
		case Coal:
			nid, cerr = clone.AddCoal(v.Name, v.Age, idMap[rec.children[0]], idMap[rec.children[1]])
		case Recomb:
			nid, cerr = clone.AddRecomb(v.Name, v.Age, idMap[rec.children[0]])
		default:
			cerr = &InvariantViolation{Msg: "clone of node with unknown event kind"}
		}
		if cerr != nil {
			return nil, cerr
		}
		idMap[v.ID] = nid
	}

	for _, v := range nodes {
		clone.nodes[idMap[v.ID]].ancestral = append(interval.Set(nil), a.nodes[v.ID].ancestral...)
	}

	return clone, nil
}

// Tree is the plain labeled tree emitted by GetTree: no recombination, no
// ancestral regions, just parent/child structure and branch lengths.
type Tree struct {
	Nodes []TreeNode
	Root  int
}

// TreeNode is one node of a Tree. Parent is -1 for the root.
type TreeNode struct {
	Name         Name
	Age          float64
	Parent       int
	BranchLength float64
	Children     []int
}

// GetTree emits a plain tree: with pos supplied it first derives the
// marginal tree at pos, otherwise it requires the ARG is already a tree
// (every node has at most one parent).
func (a *ARG) GetTree(pos *float64) (*Tree, error) {
	src := a
	if pos != nil {
		a.checkPosInRange(*pos)
		clone, err := a.GetMarginalTree(*pos)
		if err != nil {
			return nil, err
		}
		src = clone
	} else {
		for i := range a.nodes {
			if !a.nodes[i].removed && len(a.nodes[i].parents) > 1 {
				return nil, &InvariantViolation{Msg: "get_tree without pos requires the ARG already be a tree"}
			}
		}
	}
	return src.toTree()
}

func (a *ARG) toTree() (*Tree, error) {
	rootID, ok := a.Root()
	if !ok {
		return nil, &InvariantViolation{Msg: "tree has no root"}
	}

	order := a.buildInvertedDAG().Postorder()
	index := make(map[NodeID]int, len(order))
	t := &Tree{}
	for _, idInt := range order {
		id := NodeID(idInt)
		if a.nodes[id].removed {
			continue
		}
		index[id] = len(t.Nodes)
		t.Nodes = append(t.Nodes, TreeNode{Name: a.nodes[id].name, Age: a.nodes[id].age, Parent: -1})
	}

	for _, idInt := range order {
		id := NodeID(idInt)
		if a.nodes[id].removed {
			continue
		}
		idx := index[id]
		rec := &a.nodes[id]
		if len(rec.parents) == 1 {
			p := rec.parents[0]
			pIdx := index[p]
			t.Nodes[idx].Parent = pIdx
			t.Nodes[idx].BranchLength = a.nodes[p].age - rec.age
			t.Nodes[pIdx].Children = append(t.Nodes[pIdx].Children, idx)
		}
	}
	t.Root = index[rootID]

	return t, nil
}

// Block is a maximal sub-interval of [start, end) free of recombination
// breakpoints.
type Block struct{ Start, End float64 }

// IterRecombBlocks returns a closure that yields each recombination block
// overlapping [start, end), clipped to that window, in ascending order,
// then false once exhausted.
func IterRecombBlocks(a *ARG, start, end float64) func() (Block, bool) {
	bounds := append(append([]float64{}, a.blockStarts()...), a.End)
	i := 0
	return func() (Block, bool) {
		for i+1 < len(bounds) {
			bs, be := bounds[i], bounds[i+1]
			i++
			lo, hi := bs, be
			if start > lo {
				lo = start
			}
			if end < hi {
				hi = end
			}
			if lo < hi {
				return Block{Start: lo, End: hi}, true
			}
		}
		return Block{}, false
	}
}

// IterMarginalTrees returns a closure that yields one Tree per
// recombination block in [start, end), each evaluated at its block's
// midpoint, then false once exhausted.
func IterMarginalTrees(a *ARG, start, end float64) func() (*Tree, bool) {
	next := IterRecombBlocks(a, start, end)
	return func() (*Tree, bool) {
		blk, ok := next()
		if !ok {
			return nil, false
		}
		mid := (blk.Start + blk.End) / 2
		margARG, err := a.GetMarginalTree(mid)
		if err != nil {
			panicInvariant("iter_marginal_trees: block (%g, %g) midpoint %g: %v", blk.Start, blk.End, mid, err)
		}
		tree, err := margARG.toTree()
		if err != nil {
			panicInvariant("iter_marginal_trees: block (%g, %g): %v", blk.Start, blk.End, err)
		}
		return tree, true
	}
}
