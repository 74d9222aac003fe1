package spill

import (
	"testing"

	"github.com/stretchr/testify/require"

	"midenc/internal/errors"
	"midenc/internal/ir"
)

// buildOversubscribedBlock builds a single entry block that defines
// n felt constants, all defined before any is used and then consumed
// one at a time by a chain of binary adds, followed by a return of the
// final sum — forcing the working set past K when n > K.
func buildOversubscribedBlock(n int) (*ir.Function, *ir.Block, []*ir.Value) {
	fn := ir.NewFunction("oversubscribed")
	entry := fn.NewBlock(fn.Entry)

	consts := make([]*ir.Value, 0, n)
	for i := 0; i < n; i++ {
		c := fn.NewOp(entry, ir.OpConst, nil, []ir.Type{ir.FeltType{}})
		consts = append(consts, c.Results[0])
	}

	acc := consts[0]
	for _, c := range consts[1:] {
		acc = fn.NewOp(entry, ir.OpAdd, []*ir.Value{acc, c}, []ir.Type{ir.FeltType{}}).Results[0]
	}
	fn.NewOp(entry, ir.OpReturn, []*ir.Value{acc}, nil)

	return fn, entry, consts
}

func runAnalysis(fn *ir.Function) *Analysis {
	preds := fn.Predecessors(fn.Entry)
	dom := ir.Dominators(fn.Entry, preds)
	loops := ir.ComputeLoopForest(fn.Entry, dom, preds)
	liveness := ir.ComputeLiveness(fn.Entry, preds)
	return Analyze(fn, dom, loops, liveness, preds)
}

func TestNoSpillsWhenUnderCapacity(t *testing.T) {
	fn, _, _ := buildOversubscribedBlock(K - 1)
	a := runAnalysis(fn)
	require.False(t, a.HasSpills())
	require.Empty(t, a.Spills())
}

func TestSpillsWhenOverCapacity(t *testing.T) {
	fn, _, consts := buildOversubscribedBlock(K + 4)
	a := runAnalysis(fn)

	require.True(t, a.HasSpills())
	require.NotEmpty(t, a.Spills())

	// Every spilled value must show up as IsSpilled, and must also be
	// reloaded before the add that consumes it (spec.md §8
	// property 2: "a spill always precedes any reload of the same
	// value").
	for _, v := range consts {
		if a.IsSpilled(v.ID) {
			require.True(t, a.IsReloaded(v.ID), "spilled value %d must be reloaded before its use", v.ID)
		}
	}
}

func TestSpillReloadDeduplication(t *testing.T) {
	fn, _, _ := buildOversubscribedBlock(K + 4)
	a := runAnalysis(fn)

	seenSpill := map[placedKey]bool{}
	for _, sp := range a.Spills() {
		key := keyOf(sp.Place, sp.Value)
		require.False(t, seenSpill[key], "duplicate spill for the same (placement, value) pair")
		seenSpill[key] = true
	}

	seenReload := map[placedKey]bool{}
	for _, rl := range a.Reloads() {
		key := keyOf(rl.Place, rl.Value)
		require.False(t, seenReload[key], "duplicate reload for the same (placement, value) pair")
		seenReload[key] = true
	}
}

func TestStackDepthNeverExceedsK(t *testing.T) {
	fn, entry, _ := buildOversubscribedBlock(K + 8)
	a := runAnalysis(fn)

	// WExit/SExit record the resident set after each op's effects are
	// applied; their combined footprint, plus whatever the final
	// return needs, must never exceed K (spec.md §8 property 1).
	exit := a.WExit(entry.ID)
	total := 0
	for _, o := range exit {
		total += o.Size(fn)
	}
	require.LessOrEqual(t, total, K)
}

func TestNonBranchingTerminatorOnlyReloadsNeverSpills(t *testing.T) {
	fn, entry, consts := buildOversubscribedBlock(K + 4)
	a := runAnalysis(fn)

	ret := entry.Terminator()
	require.True(t, ret.IsTerminator())
	require.False(t, ret.IsBranch())

	// The return's own placement (immediately before it) must not carry
	// a spill — only reloads, per the MIN algorithm's non-branching
	// terminator special case.
	place := At(ir.Before(ret))
	for _, v := range consts {
		require.False(t, a.IsSpilledAt(v.ID, place))
	}
}

func TestSplitEdgeDedupsByCfgEdge(t *testing.T) {
	a := newAnalysis(ir.NewFunction("f"))
	e := CfgEdge{From: 1, To: 2}

	first := a.splitEdge(e)
	second := a.splitEdge(e)
	require.Equal(t, first, second, "splitEdge must dedup by edge, not create a new split each call")
	require.Len(t, a.Splits(), 1)

	other := a.splitEdge(CfgEdge{From: 1, To: 3})
	require.NotEqual(t, first, other)
	require.Len(t, a.Splits(), 2)
}

func TestSEntryAndPerSplitQueries(t *testing.T) {
	fn := ir.NewFunction("f")
	entry := fn.NewBlock(fn.Entry)
	c := fn.NewOp(entry, ir.OpConst, nil, []ir.Type{ir.FeltType{}})
	v := c.Results[0]

	a := newAnalysis(fn)
	a.sEntry[entry.ID] = []Operand{NewOperand(v.ID)}
	require.Equal(t, []Operand{NewOperand(v.ID)}, a.SEntry(entry.ID))

	split := a.splitEdge(CfgEdge{From: 0, To: entry.ID})
	require.False(t, a.IsSpilledInSplit(v.ID, split))
	require.False(t, a.IsReloadedInSplit(v.ID, split))

	a.spill(AtSplit(split), v.ID, errors.Position{})
	require.True(t, a.IsSpilledInSplit(v.ID, split))
	require.False(t, a.IsReloadedInSplit(v.ID, split))

	a.reload(AtSplit(split), v.ID, errors.Position{})
	require.True(t, a.IsReloadedInSplit(v.ID, split))
}

// TestEdgeReconciliationFillsBlockArgFromPredecessorSource is a
// regression guard for step 3 (edge reconciliation): a merge block's
// parameter is fed by a value each predecessor only produces right
// before branching, so each predecessor's own w_exit already holds it
// and reconcileEdges must not spuriously split either edge just because
// it carries a block argument.
func TestEdgeReconciliationFillsBlockArgFromPredecessorSource(t *testing.T) {
	fn := ir.NewFunction("branchy")
	entry := fn.NewBlock(fn.Entry)
	left := fn.NewBlock(fn.Entry)
	right := fn.NewBlock(fn.Entry)
	merge := fn.NewBlock(fn.Entry)

	cond := fn.NewOp(entry, ir.OpConst, nil, []ir.Type{ir.IntType{Bits: 1}})
	branch := fn.NewOp(entry, ir.OpCondBr, []*ir.Value{cond.Results[0]}, nil)
	fn.SetSuccessors(branch, []*ir.Block{left, right}, [][]*ir.Value{nil, nil})

	mergeArg := fn.AddBlockArg(merge, ir.FeltType{})
	leftVal := fn.NewOp(left, ir.OpConst, nil, []ir.Type{ir.FeltType{}})
	brLeft := fn.NewOp(left, ir.OpBr, nil, nil)
	fn.SetSuccessors(brLeft, []*ir.Block{merge}, [][]*ir.Value{{leftVal.Results[0]}})

	rightVal := fn.NewOp(right, ir.OpConst, nil, []ir.Type{ir.FeltType{}})
	brRight := fn.NewOp(right, ir.OpBr, nil, nil)
	fn.SetSuccessors(brRight, []*ir.Block{merge}, [][]*ir.Value{{rightVal.Results[0]}})

	fn.NewOp(merge, ir.OpReturn, []*ir.Value{mergeArg}, nil)

	a := runAnalysis(fn)
	require.Empty(t, a.Splits())
}
