package pipeline

import (
	"midenc/internal/errors"
	"midenc/internal/ir"
	"midenc/internal/transform/scf"
)

// scfInterface is the pipeline's concrete implementation of scf.Interface
// (spec.md §6 interface 2), building real ops against the generic IR
// capability set. There is no concrete implementation of this trait in
// original_source/ to port from directly (midenc's actual dialects each
// supply their own); this one is grounded in the op vocabulary
// internal/ir.opkinds.go already defines for exactly this purpose
// (OpStructuredBranchRegion, OpStructuredBranchRegionTerminator,
// OpDoWhileLoop, OpCFGSwitch, OpUnreachable, OpConst).
type scfInterface struct {
	fn *ir.Function
}

func newSCFInterface(fn *ir.Function) scf.Interface {
	return &scfInterface{fn: fn}
}

// insertBeforeTerminator removes block's current terminator (if any) so
// a non-terminator structured op can be appended in its place, returning
// it so the caller can re-append it afterward.
func insertBeforeTerminator(block *ir.Block) *ir.Op {
	term := block.Terminator()
	if term == nil {
		return nil
	}
	block.Ops = block.Ops[:len(block.Ops)-1]
	return term
}

func (si *scfInterface) CreateStructuredBranchRegionOp(span errors.Position, block *ir.Block, controlFlowCondOp *ir.Op, resultTypes []ir.Type, regions []*ir.Region) (*ir.Op, error) {
	term := insertBeforeTerminator(block)
	op := si.fn.NewOp(block, ir.OpStructuredBranchRegion, nil, resultTypes, regions...)
	op.Span = span
	if term != nil {
		block.Ops = append(block.Ops, term)
	}
	return op, nil
}

func (si *scfInterface) CreateStructuredBranchRegionTerminatorOp(span errors.Position, block *ir.Block, branchRegionOp *ir.Op, replacedControlFlowOp *ir.Op, results []*ir.Value) error {
	op := si.fn.NewOp(block, ir.OpStructuredBranchRegionTerminator, results, nil)
	op.Span = span
	return nil
}

func (si *scfInterface) CreateStructuredDoWhileLoopOp(span errors.Position, block *ir.Block, replacedOp *ir.Op, loopValuesInit []*ir.Value, condition *ir.Value, loopValuesNextIter []*ir.Value, loopBody *ir.Region) (*ir.Op, error) {
	resultTypes := make([]ir.Type, len(loopValuesInit))
	for i, v := range loopValuesInit {
		resultTypes[i] = v.Type
	}
	term := insertBeforeTerminator(block)
	if term != replacedOp && term != nil {
		// replacedOp is meant to be block's own current terminator;
		// callers (cycles.go's liftCycle) only ever pass the preheader's
		// actual terminator here, so a mismatch indicates a caller bug
		// rather than a recoverable IR shape.
		return nil, errors.InterfaceCallbackFailure(span, "cfg_to_scf: replacedOp is not block's current terminator")
	}
	op := si.fn.NewOp(block, ir.OpDoWhileLoop, loopValuesInit, resultTypes, loopBody)
	op.Span = span
	op.Attrs = map[string]any{"condition": condition, "next_iter": loopValuesNextIter}
	if term != nil {
		block.Ops = append(block.Ops, term)
	}
	return op, nil
}

func (si *scfInterface) GetCFGSwitchValue(span errors.Position, block *ir.Block, value uint32) *ir.Value {
	op := si.fn.NewOp(block, ir.OpConst, nil, []ir.Type{ir.IntType{Bits: 1}})
	op.Span = span
	op.Attrs = map[string]any{"value": value}
	return op.Results[0]
}

func (si *scfInterface) CreateCFGSwitchOp(span errors.Position, block *ir.Block, flag *ir.Value, caseValues []uint32, caseDestinations []*ir.Block, caseArguments [][]*ir.Value, defaultDest *ir.Block, defaultArgs []*ir.Value) error {
	op := si.fn.NewOp(block, ir.OpCFGSwitch, []*ir.Value{flag}, nil)
	op.Span = span
	op.Attrs = map[string]any{"case_values": caseValues}
	succs := make([]*ir.Block, 0, len(caseDestinations)+1)
	succs = append(succs, caseDestinations...)
	succs = append(succs, defaultDest)
	args := make([][]*ir.Value, 0, len(caseArguments)+1)
	args = append(args, caseArguments...)
	args = append(args, defaultArgs)
	si.fn.SetSuccessors(op, succs, args)
	return nil
}

func (si *scfInterface) GetUndefValue(span errors.Position, block *ir.Block, ty ir.Type) *ir.Value {
	op := si.fn.NewOp(block, ir.OpConst, nil, []ir.Type{ty})
	op.Span = span
	op.Attrs = map[string]any{"undef": true}
	return op.Results[0]
}

func (si *scfInterface) CreateUnreachableTerminator(span errors.Position, block *ir.Block, region *ir.Region) (*ir.Op, error) {
	op := si.fn.NewOp(block, ir.OpUnreachable, nil, nil)
	op.Span = span
	return op, nil
}
