package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"midenc/internal/ir"
	"midenc/internal/pipelinecfg"
)

// buildBranchFn builds entry -cond-> (left | right) -> exit, mirroring
// internal/transform/scf's own buildDiamond shape, enough to exercise
// every Manager accessor at least once.
func buildBranchFn() *ir.Function {
	fn := ir.NewFunction("branchy")
	entry := fn.NewBlock(fn.Entry)
	left := fn.NewBlock(fn.Entry)
	right := fn.NewBlock(fn.Entry)
	exit := fn.NewBlock(fn.Entry)

	cond := fn.NewOp(entry, ir.OpConst, nil, []ir.Type{ir.IntType{Bits: 1}})
	branch := fn.NewOp(entry, ir.OpCondBr, []*ir.Value{cond.Results[0]}, nil)
	fn.SetSuccessors(branch, []*ir.Block{left, right}, [][]*ir.Value{nil, nil})

	exitArg := fn.AddBlockArg(exit, ir.FeltType{})
	leftConst := fn.NewOp(left, ir.OpConst, nil, []ir.Type{ir.FeltType{}})
	brLeft := fn.NewOp(left, ir.OpBr, nil, nil)
	fn.SetSuccessors(brLeft, []*ir.Block{exit}, [][]*ir.Value{{leftConst.Results[0]}})

	rightConst := fn.NewOp(right, ir.OpConst, nil, []ir.Type{ir.FeltType{}})
	brRight := fn.NewOp(right, ir.OpBr, nil, nil)
	fn.SetSuccessors(brRight, []*ir.Block{exit}, [][]*ir.Value{{rightConst.Results[0]}})

	fn.NewOp(exit, ir.OpReturn, []*ir.Value{exitArg}, nil)
	return fn
}

func TestManagerCachesAnalyses(t *testing.T) {
	fn := buildBranchFn()
	mgr := NewManager(fn, pipelinecfg.Default())

	dom1 := mgr.Dominance()
	dom2 := mgr.Dominance()
	require.Same(t, dom1, dom2)

	live1 := mgr.Liveness()
	live2 := mgr.Liveness()
	require.Same(t, live1, live2)

	loops1 := mgr.Loops()
	loops2 := mgr.Loops()
	require.Same(t, loops1, loops2)

	spill1 := mgr.Spill()
	spill2 := mgr.Spill()
	require.Same(t, spill1, spill2)
}

func TestManagerNestRegionIsIndependentlyScoped(t *testing.T) {
	fn := buildBranchFn()
	mgr := NewManager(fn, pipelinecfg.Default())
	mgr.Dominance()

	child := fn.NewRegion(nil)
	fn.NewBlock(child)

	nested := mgr.NestRegion(child)
	require.NotSame(t, mgr, nested)
	require.Equal(t, child, nested.Region())
	require.NotSame(t, mgr.Dominance(), nested.Dominance())
}
