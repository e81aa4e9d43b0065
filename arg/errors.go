package arg

import "fmt"

// Structural errors are returned normally, per the spec's error-handling
// policy: a caller asking for a name that doesn't exist, or trying to
// reuse one that does, made a recoverable mistake.

// DuplicateNameError is returned by Add/Rename when the target name is
// already in use.
type DuplicateNameError struct{ Name Name }

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("arg: name %q already in use", e.Name)
}

// UnknownNameError is returned by any lookup, Rename, or Remove given a
// name that isn't in the ARG.
type UnknownNameError struct{ Name Name }

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("arg: unknown name %q", e.Name)
}

// InvalidIntervalError is returned when an ARG's [start, end) is malformed.
type InvalidIntervalError struct{ Start, End float64 }

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("arg: invalid interval [%g, %g)", e.Start, e.End)
}

// PreconditionViolation and InvariantViolation are the spec's "fatal —
// raised to the caller" class (an API misuse, or a graph that isn't the
// shape its kind requires). PreconditionViolation is always panicked.
// InvariantViolation is panicked by the linking checks (parent arity,
// SetRecombParents, SetPos, LocalParent on a recomb node without two
// parents, IterMarginalTrees) and returned as a *InvariantViolation error
// by SetAncestral, Prune, LocalParent, GetMarginalTree and GetTree.

// PreconditionViolation reports a call made before the ARG was in the
// required state (e.g. SetAncestral before positions are assigned).
type PreconditionViolation struct{ Msg string }

func (e PreconditionViolation) Error() string { return "arg: precondition violated: " + e.Msg }

// InvariantViolation reports a graph shape that violates a structural
// invariant (wrong child/parent arity for a node's kind, a nonzero-age
// leaf surviving pruning, an unknown event kind at finalize).
type InvariantViolation struct{ Msg string }

func (e InvariantViolation) Error() string { return "arg: invariant violated: " + e.Msg }

func panicPrecondition(format string, args ...interface{}) {
	panic(PreconditionViolation{Msg: fmt.Sprintf(format, args...)})
}

func panicInvariant(format string, args ...interface{}) {
	panic(InvariantViolation{Msg: fmt.Sprintf(format, args...)})
}
