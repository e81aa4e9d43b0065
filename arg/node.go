package arg

import "github.com/samsledje/compbio/internal/interval"

// Kind tags the three event types an ARG node can represent. Represented
// as a tagged sum rather than the source's string tag (Design Notes: all
// dispatch sites become exhaustive switches and an unrecognized kind is
// caught at the type level instead of as a runtime string-compare miss).
type Kind uint8

const (
	Sample Kind = iota
	Coal
	Recomb
)

func (k Kind) String() string {
	switch k {
	case Sample:
		return "sample"
	case Coal:
		return "coal"
	case Recomb:
		return "recomb"
	default:
		return "unknown"
	}
}

// NodeID is a stable, dense arena index. It is never reused once a node is
// removed, so a stale NodeID a caller is still holding reliably fails
// lookups rather than silently aliasing a different node.
type NodeID int

const noParent = NodeID(-1)

// Name is the public, user-facing node identifier (spec: "integer or
// string"); this port represents both uniformly as strings, with
// auto-generated names formatted from the ARG's monotonic counter.
type Name string

type nodeRecord struct {
	name     Name
	kind     Kind
	age      float64
	pos      float64
	hasPos   bool
	parents  []NodeID
	children []NodeID

	ancestral interval.Set
	removed   bool
}

// NodeView is a read-only snapshot of a node's identity, handed back by
// Leaves/Postorder/Preorder so callers don't need a live ARG reference
// just to read a name, kind, or age.
type NodeView struct {
	ID   NodeID
	Name Name
	Kind Kind
	Age  float64
}
