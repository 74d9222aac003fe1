// Package scf lifts a control-flow graph into structured control flow:
// nested do-while loops and branch-region operations, following Bahmann,
// Reismann, Jahre & Meyer's "Perfect Reconstructability of Control Flow
// from Demand Dependence Graphs" (2015). Grounded in
// original_source/hir2/src/transforms/cfg_to_scf.rs. Only single-entry
// loops are lifted: a cycle with more than one entry block (irreducible
// control flow), a loop header with more than one outside predecessor
// edge, or a loop with more than one exit target is rejected with an
// UnsupportedLowering error.
package scf

import (
	"midenc/internal/errors"
	"midenc/internal/ir"
)

// Interface is implemented by the caller of Transform: it supplies the
// structured-control-flow ops the lifted CFG is rebuilt from, and the
// few CFG-side helper ops the intermediate passes need before the final
// shape exists (spec.md §6 interface 2). Every method takes the block
// the created op must be appended to — this Go port's stand-in for the
// original's OpBuilder cursor with a pre-set insertion point.
type Interface interface {
	// CreateStructuredBranchRegionOp creates the structured op that
	// dispatches to exactly one of regions, replacing controlFlowCondOp.
	// It is not itself a terminator, so it must be inserted into block
	// immediately before any terminator block already has (callers
	// remove controlFlowCondOp from block before calling, so ordinarily
	// block has none yet). Must produce len(resultTypes) results.
	CreateStructuredBranchRegionOp(span errors.Position, block *ir.Block, controlFlowCondOp *ir.Op, resultTypes []ir.Type, regions []*ir.Region) (*ir.Op, error)

	// CreateStructuredBranchRegionTerminatorOp terminates one branch
	// region of branchRegionOp with results, appended to block (the
	// last block of that branch region). replacedControlFlowOp is the
	// CFG op this terminator substitutes for, if any.
	CreateStructuredBranchRegionTerminatorOp(span errors.Position, block *ir.Block, branchRegionOp *ir.Op, replacedControlFlowOp *ir.Op, results []*ir.Value) error

	// CreateStructuredDoWhileLoopOp creates a do-while loop over
	// loopBody, whose last block's terminator continues the loop when
	// condition is 1 and exits (producing loopValuesNextIter) when 0. It
	// is not itself a terminator, so it must be inserted into block
	// immediately before block's existing terminator (which callers
	// leave in place and later redirect to consume this op's results).
	CreateStructuredDoWhileLoopOp(span errors.Position, block *ir.Block, replacedOp *ir.Op, loopValuesInit []*ir.Value, condition *ir.Value, loopValuesNextIter []*ir.Value, loopBody *ir.Region) (*ir.Op, error)

	// GetCFGSwitchValue creates a constant, appended to block, suitable
	// as a case flag for CreateCFGSwitchOp.
	GetCFGSwitchValue(span errors.Position, block *ir.Block, value uint32) *ir.Value

	// CreateCFGSwitchOp creates an intermediate switch-like branch,
	// appended as block's terminator, used by the transformation before
	// the final structured shape exists.
	CreateCFGSwitchOp(span errors.Position, block *ir.Block, flag *ir.Value, caseValues []uint32, caseDestinations []*ir.Block, caseArguments [][]*ir.Value, defaultDest *ir.Block, defaultArgs []*ir.Value) error

	// GetUndefValue creates an undefined placeholder of ty, appended to
	// block, needed when lifting introduces a path along which a value
	// has no definition.
	GetUndefValue(span errors.Position, block *ir.Block, ty ir.Type) *ir.Value

	// CreateUnreachableTerminator creates a return-like terminator,
	// appended to block, marking region as never falling through (a
	// statically infinite loop), since structured ops are not
	// themselves terminators.
	CreateUnreachableTerminator(span errors.Position, block *ir.Block, region *ir.Region) (*ir.Op, error)
}

// CreateSingleDestinationBranch is a convenience wrapper over
// CreateCFGSwitchOp for an unconditional edge.
func CreateSingleDestinationBranch(iface Interface, span errors.Position, block *ir.Block, dummyFlag *ir.Value, dest *ir.Block, args []*ir.Value) error {
	return iface.CreateCFGSwitchOp(span, block, dummyFlag, nil, nil, nil, dest, args)
}

// CreateConditionalBranch is a convenience wrapper over
// CreateCFGSwitchOp for a two-way branch.
func CreateConditionalBranch(iface Interface, span errors.Position, block *ir.Block, condition *ir.Value, trueDest *ir.Block, trueArgs []*ir.Value, falseDest *ir.Block, falseArgs []*ir.Value) error {
	return iface.CreateCFGSwitchOp(span, block, condition, []uint32{1}, []*ir.Block{trueDest}, [][]*ir.Value{trueArgs}, falseDest, falseArgs)
}
