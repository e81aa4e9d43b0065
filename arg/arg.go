// Package arg implements the ancestral recombination graph: a labeled DAG
// of sample/coalescence/recombination nodes (C2), the ancestral-region
// engine that populates each edge's ancestral interval set (C3), the
// marginal-tree extractor (C5), and pruning/topology maintenance (C8).
package arg

import (
	"strconv"

	"github.com/samsledje/compbio/internal/dag"
	"github.com/samsledje/compbio/internal/xrand"
)

// ARG is a labeled DAG over a genomic interval [Start, End). It uniquely
// owns all of its nodes; parent/child links are non-owning indices into
// the same arena (Design Notes: arena of nodes keyed by stable integer
// identifiers, sidestepping ownership cycles without weak references).
type ARG struct {
	Start, End float64

	nodes       []nodeRecord
	byName      map[Name]NodeID
	nameCounter int64

	// blockCounts snapshots the live-lineage counter each recombination
	// block ended SetAncestral's last run at, keyed by block start. Nil
	// until SetAncestral has run once.
	blockCounts map[float64]int
}

// New creates an empty ARG over [start, end).
func New(start, end float64) (*ARG, error) {
	if !(start < end) {
		return nil, &InvalidIntervalError{start, end}
	}
	return &ARG{
		Start:  start,
		End:    end,
		byName: make(map[Name]NodeID),
	}, nil
}

func maxParents(k Kind) int {
	if k == Recomb {
		return 2
	}
	return 1
}

// NextName returns a fresh, unused auto-generated name from the ARG's
// monotonic counter — used by the simulator (C4), which names nodes by
// creation order rather than asking the caller for one.
func (a *ARG) NextName() Name {
	for {
		name := Name(strconv.FormatInt(a.nameCounter, 10))
		a.nameCounter++
		if _, exists := a.byName[name]; !exists {
			return name
		}
	}
}

func (a *ARG) checkNewName(name Name) error {
	if _, exists := a.byName[name]; exists {
		return &DuplicateNameError{name}
	}
	return nil
}

// Resolve returns the NodeID for name, or an UnknownNameError.
func (a *ARG) Resolve(name Name) (NodeID, error) {
	id, ok := a.byName[name]
	if !ok {
		return noParent, &UnknownNameError{name}
	}
	return id, nil
}

func (a *ARG) validID(id NodeID) bool {
	return id >= 0 && int(id) < len(a.nodes) && !a.nodes[id].removed
}

func (a *ARG) checkValid(id NodeID) error {
	if !a.validID(id) {
		return &UnknownNameError{Name(strconv.Itoa(int(id)))}
	}
	return nil
}

// NameOf, KindOf, AgeOf, ParentsOf, ChildrenOf, PosOf are plain field
// accessors by id; all fail with UnknownNameError if id isn't live.

func (a *ARG) NameOf(id NodeID) (Name, error) {
	if err := a.checkValid(id); err != nil {
		return "", err
	}
	return a.nodes[id].name, nil
}

func (a *ARG) KindOf(id NodeID) (Kind, error) {
	if err := a.checkValid(id); err != nil {
		return 0, err
	}
	return a.nodes[id].kind, nil
}

func (a *ARG) AgeOf(id NodeID) (float64, error) {
	if err := a.checkValid(id); err != nil {
		return 0, err
	}
	return a.nodes[id].age, nil
}

// PosOf returns a recomb node's breakpoint position and whether it has
// been assigned yet.
func (a *ARG) PosOf(id NodeID) (float64, bool, error) {
	if err := a.checkValid(id); err != nil {
		return 0, false, err
	}
	rec := &a.nodes[id]
	return rec.pos, rec.hasPos, nil
}

func (a *ARG) ParentsOf(id NodeID) ([]NodeID, error) {
	if err := a.checkValid(id); err != nil {
		return nil, err
	}
	return append([]NodeID(nil), a.nodes[id].parents...), nil
}

func (a *ARG) ChildrenOf(id NodeID) ([]NodeID, error) {
	if err := a.checkValid(id); err != nil {
		return nil, err
	}
	return append([]NodeID(nil), a.nodes[id].children...), nil
}

func (a *ARG) alloc(rec nodeRecord) NodeID {
	id := NodeID(len(a.nodes))
	a.nodes = append(a.nodes, rec)
	a.byName[rec.name] = id
	return id
}

// addParentLink registers parent as one of child's parents. Exceeding the
// child's kind's parent arity is a topology invariant violation, not a
// normal error — it means the caller built an inconsistent graph.
func (a *ARG) addParentLink(child, parent NodeID) {
	rec := &a.nodes[child]
	if len(rec.parents) >= maxParents(rec.kind) {
		panicInvariant("node %q (%s) would exceed %d parents", rec.name, rec.kind, maxParents(rec.kind))
	}
	rec.parents = append(rec.parents, parent)
}

// AddSample inserts a new leaf at age 0.
func (a *ARG) AddSample(name Name) (NodeID, error) {
	if err := a.checkNewName(name); err != nil {
		return noParent, err
	}
	return a.alloc(nodeRecord{name: name, kind: Sample}), nil
}

// AddCoal inserts a new coalescence node at the given age, merging two
// child lineages. child1 == child2 is permitted (self-coalescence of the
// two lineages produced by one recombination).
func (a *ARG) AddCoal(name Name, age float64, child1, child2 NodeID) (NodeID, error) {
	if err := a.checkNewName(name); err != nil {
		return noParent, err
	}
	if err := a.checkValid(child1); err != nil {
		return noParent, err
	}
	if err := a.checkValid(child2); err != nil {
		return noParent, err
	}
	id := a.alloc(nodeRecord{name: name, kind: Coal, age: age, children: []NodeID{child1, child2}})
	a.addParentLink(child1, id)
	a.addParentLink(child2, id)
	return id, nil
}

// AddRecomb inserts a new recombination node at the given age with a
// single child. Its position is unset (HasPos false) until SetRecombPos
// runs; its two parents are linked incrementally as the caller creates
// whatever coalesces its two output lineages, then ordered by
// SetRecombParents once both are known.
func (a *ARG) AddRecomb(name Name, age float64, child NodeID) (NodeID, error) {
	if err := a.checkNewName(name); err != nil {
		return noParent, err
	}
	if err := a.checkValid(child); err != nil {
		return noParent, err
	}
	id := a.alloc(nodeRecord{name: name, kind: Recomb, age: age, children: []NodeID{child}})
	a.addParentLink(child, id)
	return id, nil
}

// LinkParent registers parent as a parent of child directly, for client
// builders assembling an ARG node-by-node rather than through
// AddCoal/AddRecomb's child-creation path.
func (a *ARG) LinkParent(child, parent NodeID) error {
	if err := a.checkValid(child); err != nil {
		return err
	}
	if err := a.checkValid(parent); err != nil {
		return err
	}
	a.addParentLink(child, parent)
	return nil
}

// SetRecombParents fixes the final [left, right] parent order of a
// recomb node once both of its output lineages have coalesced somewhere:
// left must carry ancestral material strictly left of pos, right strictly
// right. Both must already be among r's (unordered) parents.
func (a *ARG) SetRecombParents(r, left, right NodeID) error {
	if err := a.checkValid(r); err != nil {
		return err
	}
	rec := &a.nodes[r]
	if rec.kind != Recomb {
		panicInvariant("SetRecombParents on non-recomb node %q", rec.name)
	}
	if len(rec.parents) != 2 || !hasBoth(rec.parents, left, right) {
		panicInvariant("node %q: SetRecombParents(%v, %v) doesn't match current parents %v", rec.name, left, right, rec.parents)
	}
	rec.parents = []NodeID{left, right}
	return nil
}

func hasBoth(s []NodeID, a, b NodeID) bool {
	var seenA, seenB int
	for _, v := range s {
		if v == a {
			seenA++
		}
		if v == b {
			seenB++
		}
	}
	if a == b {
		return seenA == 2
	}
	return seenA == 1 && seenB == 1
}

// SetPos assigns a recomb node's breakpoint.
func (a *ARG) SetPos(id NodeID, pos float64) error {
	if err := a.checkValid(id); err != nil {
		return err
	}
	rec := &a.nodes[id]
	if rec.kind != Recomb {
		panicInvariant("SetPos on non-recomb node %q", rec.name)
	}
	if !(a.Start < pos && pos < a.End) {
		panicPrecondition("recomb position %g outside (%g, %g)", pos, a.Start, a.End)
	}
	rec.pos = pos
	rec.hasPos = true
	return nil
}

// Remove deletes name, unlinking it from every parent and child first.
func (a *ARG) Remove(name Name) error {
	id, err := a.Resolve(name)
	if err != nil {
		return err
	}
	a.removeNode(id)
	return nil
}

func (a *ARG) removeNode(id NodeID) {
	rec := &a.nodes[id]
	for _, p := range rec.parents {
		a.nodes[p].children = removeAll(a.nodes[p].children, id)
	}
	for _, c := range rec.children {
		a.nodes[c].parents = removeAll(a.nodes[c].parents, id)
	}
	delete(a.byName, rec.name)
	rec.removed = true
	rec.parents = nil
	rec.children = nil
}

func removeAll(s []NodeID, v NodeID) []NodeID {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// Rename moves a node from oldName to newName; newName must be free.
func (a *ARG) Rename(oldName, newName Name) error {
	if _, exists := a.byName[newName]; exists {
		return &DuplicateNameError{newName}
	}
	id, err := a.Resolve(oldName)
	if err != nil {
		return err
	}
	delete(a.byName, oldName)
	a.byName[newName] = id
	a.nodes[id].name = newName
	return nil
}

// Root returns the node with no parents, scanning in id (insertion) order
// and returning the first match — the spec's resolution of the "multiple
// parentless nodes" open question (Design Notes §9(c)).
func (a *ARG) Root() (NodeID, bool) {
	for id := range a.nodes {
		rec := &a.nodes[id]
		if !rec.removed && len(rec.parents) == 0 {
			return NodeID(id), true
		}
	}
	return noParent, false
}

func (a *ARG) view(id NodeID) NodeView {
	rec := &a.nodes[id]
	return NodeView{ID: id, Name: rec.name, Kind: rec.kind, Age: rec.age}
}

// resolveRoot resolves an optional *Name into a NodeID, defaulting to the
// ARG's root.
func (a *ARG) resolveRoot(root *Name) (NodeID, error) {
	if root == nil {
		id, ok := a.Root()
		if !ok {
			return noParent, &UnknownNameError{Name("<root>")}
		}
		return id, nil
	}
	return a.Resolve(*root)
}

// buildInvertedDAG treats each node's ARG children as its dag-level
// dependencies, so dag.Postorder visits leaves before the nodes above
// them — exactly C2's postorder contract, and also the bottom-up order
// the ancestral-region engine (C3) needs.
func (a *ARG) buildInvertedDAG() *dag.DAG {
	d := dag.New(len(a.nodes))
	for id := range a.nodes {
		rec := &a.nodes[id]
		if rec.removed {
			continue
		}
		deps := make([]int, 0, len(rec.children))
		for _, c := range rec.children {
			if !a.nodes[c].removed {
				deps = append(deps, int(c))
			}
		}
		d.AddEdges(id, deps)
	}
	return d
}

// buildForwardDAG treats each node's ARG parents as its dag-level
// dependencies, so dag.Children(id) matches ARG's own notion of "children
// of id" — used for the root-down Preorder walk.
func (a *ARG) buildForwardDAG() *dag.DAG {
	d := dag.New(len(a.nodes))
	for id := range a.nodes {
		rec := &a.nodes[id]
		if rec.removed {
			continue
		}
		deps := make([]int, 0, len(rec.parents))
		for _, p := range rec.parents {
			if !a.nodes[p].removed {
				deps = append(deps, int(p))
			}
		}
		d.AddEdges(id, deps)
	}
	return d
}

// Postorder visits every live node after all of its children, exactly
// once, in insertion-order-tiebroken levels. If root is non-nil, the
// result is restricted to root's descendants (root included).
func (a *ARG) Postorder(root *Name) ([]NodeView, error) {
	order := a.buildInvertedDAG().Postorder()

	var restrict map[NodeID]bool
	if root != nil {
		rootID, err := a.Resolve(*root)
		if err != nil {
			return nil, err
		}
		restrict = make(map[NodeID]bool)
		for _, id := range a.buildForwardDAG().Preorder(int(rootID)) {
			restrict[NodeID(id)] = true
		}
	}

	out := make([]NodeView, 0, len(order))
	for _, id := range order {
		nid := NodeID(id)
		if a.nodes[nid].removed {
			continue
		}
		if restrict != nil && !restrict[nid] {
			continue
		}
		out = append(out, a.view(nid))
	}
	return out, nil
}

// Preorder walks breadth-first from root (or the ARG's root) over
// children edges, yielding each reachable node exactly once.
func (a *ARG) Preorder(root *Name) ([]NodeView, error) {
	rootID, err := a.resolveRoot(root)
	if err != nil {
		return nil, err
	}
	ids := a.buildForwardDAG().Preorder(int(rootID))
	out := make([]NodeView, 0, len(ids))
	for _, id := range ids {
		out = append(out, a.view(NodeID(id)))
	}
	return out, nil
}

// Leaves returns every childless node, optionally restricted to the
// descendants of root.
func (a *ARG) Leaves(root *Name) ([]NodeView, error) {
	var ids []NodeID
	if root == nil {
		for id := range a.nodes {
			if !a.nodes[id].removed {
				ids = append(ids, NodeID(id))
			}
		}
	} else {
		rootID, err := a.Resolve(*root)
		if err != nil {
			return nil, err
		}
		for _, id := range a.buildForwardDAG().Preorder(int(rootID)) {
			ids = append(ids, NodeID(id))
		}
	}

	var out []NodeView
	for _, id := range ids {
		if len(a.nodes[id].children) == 0 {
			out = append(out, a.view(id))
		}
	}
	return out, nil
}

// LeafNames is Leaves, projected to names.
func (a *ARG) LeafNames(root *Name) ([]Name, error) {
	views, err := a.Leaves(root)
	if err != nil {
		return nil, err
	}
	names := make([]Name, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	return names, nil
}

// SetRecombPos reassigns every recomb node's position: a uniform real in
// [start, end), or (discrete) randint(start, end-1) + 0.5. nil start/end
// default to the ARG's own bounds.
func (a *ARG) SetRecombPos(rng xrand.Source, start, end *float64, discrete bool) error {
	lo, hi := a.Start, a.End
	if start != nil {
		lo = *start
	}
	if end != nil {
		hi = *end
	}
	if !(lo < hi) {
		return &InvalidIntervalError{lo, hi}
	}
	for i := range a.nodes {
		rec := &a.nodes[i]
		if rec.removed || rec.kind != Recomb {
			continue
		}
		if discrete {
			rec.pos = float64(xrand.UniformInt(rng, int(lo), int(hi))) + 0.5
		} else {
			rec.pos = xrand.Uniform(rng, lo, hi)
		}
		rec.hasPos = true
	}
	return nil
}
