package arg

import "github.com/samsledje/compbio/internal/interval"

// Prune canonicalizes a constructed ARG: edges/nodes with empty ancestral
// material are dropped, every remaining leaf must have age 0, and
// (removeSingle) degree-2 internal nodes are contracted out. The root is
// then re-derived by walking down from any parentless node through any
// chain of single-child nodes.
func (a *ARG) Prune(removeSingle bool) error {
	a.dropEmptyRecombEdges()
	a.dropEmptyAncestral()
	if err := a.assertLeavesAreAgeZero(); err != nil {
		return err
	}
	if removeSingle {
		a.contractSingleChildNodes()
	}
	a.reelectRoot()
	return nil
}

// dropEmptyRecombEdges severs a recomb node's edge to whichever parent
// sits on a side with no ancestral material — the one case where a
// node's two outgoing edges can disagree about emptiness even though its
// own (unsplit) ancestral set is non-empty.
func (a *ARG) dropEmptyRecombEdges() {
	for id := range a.nodes {
		rec := &a.nodes[id]
		if rec.removed || rec.kind != Recomb || len(rec.parents) != 2 {
			continue
		}
		left, right := rec.parents[0], rec.parents[1]
		if left != right {
			if len(interval.Split(rec.pos, interval.Left, rec.ancestral)) == 0 {
				a.severEdge(NodeID(id), left)
			}
			if len(interval.Split(rec.pos, interval.Right, rec.ancestral)) == 0 {
				a.severEdge(NodeID(id), right)
			}
		}
	}
}

// severEdge removes the child->parent edge without deleting either node.
func (a *ARG) severEdge(child, parent NodeID) {
	a.nodes[parent].children = removeAll(a.nodes[parent].children, child)
	a.nodes[child].parents = removeAll(a.nodes[child].parents, parent)
}

// dropEmptyAncestral removes every node whose ancestral set has gone
// empty, unlinking it from the rest of the graph first (an empty
// ancestral set means every outgoing edge is empty too).
func (a *ARG) dropEmptyAncestral() {
	for id := range a.nodes {
		rec := &a.nodes[id]
		if rec.removed {
			continue
		}
		if len(rec.ancestral) == 0 {
			a.removeNode(NodeID(id))
		}
	}
}

func (a *ARG) assertLeavesAreAgeZero() error {
	for id := range a.nodes {
		rec := &a.nodes[id]
		if rec.removed || len(rec.children) != 0 {
			continue
		}
		if rec.age != 0 {
			return &InvariantViolation{Msg: "leaf survived pruning with nonzero age"}
		}
	}
	return nil
}

// contractSingleChildNodes rewires every node with exactly one parent and
// one child directly to its child's parent slot and its parent's child
// slot, then removes it.
func (a *ARG) contractSingleChildNodes() {
	for {
		id, ok := a.findContractible()
		if !ok {
			return
		}
		a.contractOne(id)
	}
}

func (a *ARG) findContractible() (NodeID, bool) {
	for id := range a.nodes {
		rec := &a.nodes[id]
		if rec.removed {
			continue
		}
		if len(rec.parents) == 1 && len(rec.children) == 1 {
			return NodeID(id), true
		}
	}
	return noParent, false
}

func (a *ARG) contractOne(id NodeID) {
	rec := &a.nodes[id]
	parent := rec.parents[0]
	child := rec.children[0]

	a.nodes[parent].children = removeAll(a.nodes[parent].children, id)
	a.nodes[child].parents = removeAll(a.nodes[child].parents, id)

	a.nodes[parent].children = append(a.nodes[parent].children, child)
	a.nodes[child].parents = append(a.nodes[child].parents, parent)

	rec.removed = true
	delete(a.byName, rec.name)
	rec.parents = nil
	rec.children = nil
}

// reelectRoot walks down from the first remaining parentless node,
// dropping every single-child node it passes through, until reaching one
// with a number of children other than 1 — that node becomes root. Unlike
// contractSingleChildNodes, this runs unconditionally: a parentless node
// with exactly one child carries no branching information of its own.
func (a *ARG) reelectRoot() {
	for id := range a.nodes {
		rec := &a.nodes[id]
		if rec.removed || len(rec.parents) != 0 {
			continue
		}
		cur := NodeID(id)
		for len(a.nodes[cur].children) == 1 {
			child := a.nodes[cur].children[0]
			a.nodes[child].parents = removeAll(a.nodes[child].parents, cur)

			curRec := &a.nodes[cur]
			curRec.removed = true
			delete(a.byName, curRec.name)
			curRec.parents = nil
			curRec.children = nil

			cur = child
		}
		return
	}
}
