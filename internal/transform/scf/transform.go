package scf

import (
	"midenc/internal/errors"
	"midenc/internal/ir"
)

// context carries the per-invocation state threaded through the
// transformation passes, corresponding to the original's
// TransformationContext.
type context struct {
	fn    *ir.Function
	iface Interface
}

// span returns a best-effort diagnostic position for region: the span
// of its entry block's terminator, or a zero position if empty.
func (tc *context) span(region *ir.Region) errors.Position {
	if entry := region.Entry(); entry != nil {
		if term := entry.Terminator(); term != nil {
			return term.Span
		}
	}
	return errors.Position{}
}

// Transform lifts region's control flow graph into structured control
// flow, applying cycle lifting and then conditional-branch lifting
// repeatedly (via a worklist of newly created sub-regions, including
// re-visits of a region that changed) until every region is settled —
// ported from transform_cfg_to_scf.
func Transform(fn *ir.Function, region *ir.Region, iface Interface) (bool, error) {
	if len(region.Blocks) <= 1 {
		return false, nil
	}
	if err := checkTransformationPreconditions(fn, region); err != nil {
		return false, err
	}

	unifyReturnLikeOps(fn, region)

	tc := &context{fn: fn, iface: iface}

	worklist := []*ir.Region{region}
	for len(worklist) > 0 {
		n := len(worklist) - 1
		current := worklist[n]
		worklist = worklist[:n]

		newLoopBodies, err := tc.transformCyclesToSCFLoops(current)
		if err != nil {
			return false, err
		}
		worklist = append(worklist, newLoopBodies...)

		newBranchBodies, err := tc.transformToStructuredCFBranches(current)
		if err != nil {
			return false, err
		}
		worklist = append(worklist, newBranchBodies...)

		// A region that produced neither new loop bodies nor new branch
		// bodies, but still has more than one block, still contains
		// branches after cycle lifting — loop lifting and branch
		// lifting run to a fixpoint within the same region before it is
		// considered settled by re-enqueuing it once, unless nothing
		// changed (both returned empty), in which case the region's
		// remaining shape is final.
		if len(newLoopBodies) == 0 && len(newBranchBodies) == 0 {
			continue
		}
		if len(current.Blocks) > 1 {
			worklist = append(worklist, current)
		}
	}

	return true, nil
}

// checkTransformationPreconditions verifies region is eligible for the
// transformation, porting all four checks of
// `check_transformation_preconditions` verbatim: every non-entry block
// has at least one predecessor; every op with successors implements the
// branch shape this transformation can rewrite (so its block arguments
// can be adjusted as blocks are dismantled and rebuilt); every such op
// is free of side effects (replacing it would not otherwise be valid);
// and no successor-argument group carries a value the op itself
// produces (this transformation cannot route an operation-produced
// value to any block argument besides the first, which would break
// multiplexer-block creation) — spec.md §4.2's preconditions.
func checkTransformationPreconditions(fn *ir.Function, region *ir.Region) error {
	preds := fn.Predecessors(region)
	entry := region.Entry()
	for _, b := range region.Blocks {
		if b.ID != entry.ID && len(preds[b.ID]) == 0 {
			return errors.MalformedIR(errors.Position{}, "cfg_to_scf: transformation does not support unreachable blocks")
		}
	}
	for _, b := range region.Blocks {
		term := b.Terminator()
		if term == nil || len(term.Successors) == 0 {
			continue
		}
		if !term.IsBranch() {
			return errors.MalformedIR(term.Span, "cfg_to_scf: terminators with successors must implement the branch-op interface")
		}
		if term.Kind.HasSideEffects {
			return errors.MalformedIR(term.Span, "cfg_to_scf: transformation does not support terminators with side effects")
		}
		for _, group := range term.SuccessorArgs {
			for _, v := range group {
				if opProducesValue(term, v) {
					return errors.MalformedIR(term.Span, "cfg_to_scf: transformation does not support operations with operation-produced successor operands")
				}
			}
		}
	}
	return nil
}

// opProducesValue reports whether v is one of op's own results, i.e.
// whether passing v along as a successor operand would require routing
// a value the branch op itself just produced rather than one it merely
// forwards.
func opProducesValue(op *ir.Op, v *ir.Value) bool {
	for _, r := range op.Results {
		if r == v {
			return true
		}
	}
	return false
}
