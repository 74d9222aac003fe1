package ir

// ConstantSuccessor describes branch-like ops whose successor can
// be determined statically from an operand that carries a compile-time
// constant (spec.md §4.1's inputs list "a predicate IsConstantSuccessor
// used to narrow a branch's successor set when the condition is
// provably constant", and §6 interface 1's cfg-switch-value / constant
// folding surface). Kept deliberately minimal: the three cores only need
// to narrow a branch to a single successor when one is trivially known,
// not a general constant-folding pass. No type in this module implements
// it, and IsConstantSuccessor does not consult it.
type ConstantSuccessor interface {
	// ConstantSuccessorIndex returns the statically-known successor
	// index for this op, if any.
	ConstantSuccessorIndex() (index int, ok bool)
}

// IsConstantSuccessor narrows op's successor set to a single block when
// op's Attrs carry a constant condition under the "const_successor" key
// (set by whatever front end produced the IR; this package does not
// itself constant-fold — it only recognizes an already-folded
// annotation, matching spec.md's framing of constant propagation as an
// input the cores consume, not a pass they perform).
func IsConstantSuccessor(op *Op) (target *Block, ok bool) {
	if !op.IsBranch() || len(op.Successors) == 0 {
		return nil, false
	}
	if cs, isCS := op.Attrs["const_successor"]; isCS {
		if idx, isInt := cs.(int); isInt && idx >= 0 && idx < len(op.Successors) {
			return op.Successors[idx], true
		}
	}
	if len(op.Successors) == 1 {
		return op.Successors[0], true
	}
	return nil, false
}
