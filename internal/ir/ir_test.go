package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeSizing(t *testing.T) {
	require.Equal(t, 1, FeltType{}.SizeInFelts())
	require.Equal(t, 1, IntType{Bits: 32}.SizeInFelts())
	require.Equal(t, 2, IntType{Bits: 64}.SizeInFelts())
	require.Equal(t, 4, IntType{Bits: 128}.SizeInFelts())
	require.Equal(t, 8, IntType{Bits: 64}.MinAlignment())
	require.Equal(t, 16, IntType{Bits: 128}.MinAlignment())

	st := StructType{Name: "pair", Fields: []Type{IntType{Bits: 64}, FeltType{}}}
	require.Equal(t, 3, st.SizeInFelts())
	require.Equal(t, 8, st.MinAlignment())
	require.False(t, st.IsZST())

	arr := ArrayType{Elem: FeltType{}, Len: 4}
	require.Equal(t, 4, arr.SizeInFelts())
	require.False(t, arr.IsZST())
	require.True(t, ArrayType{Elem: FeltType{}, Len: 0}.IsZST())

	ptr := PtrType{Pointee_: IntType{Bits: 64}}
	pointee, ok := ptr.Pointee()
	require.True(t, ok)
	require.Equal(t, IntType{Bits: 64}, pointee)
}

// buildLinearFunction builds entry -> mid -> exit, each ending in an
// unconditional branch except exit, which returns.
func buildLinearFunction() (*Function, *Block, *Block, *Block) {
	fn := NewFunction("linear")
	entry := fn.NewBlock(fn.Entry)
	mid := fn.NewBlock(fn.Entry)
	exit := fn.NewBlock(fn.Entry)

	brToMid := fn.NewOp(entry, OpBr, nil, nil)
	fn.SetSuccessors(brToMid, []*Block{mid}, [][]*Value{nil})

	brToExit := fn.NewOp(mid, OpBr, nil, nil)
	fn.SetSuccessors(brToExit, []*Block{exit}, [][]*Value{nil})

	fn.NewOp(exit, OpReturn, nil, nil)

	return fn, entry, mid, exit
}

func TestFunctionBuilderAndPredecessors(t *testing.T) {
	fn, entry, mid, exit := buildLinearFunction()

	preds := fn.Predecessors(fn.Entry)
	require.Empty(t, preds[entry.ID])
	require.Len(t, preds[mid.ID], 1)
	require.Equal(t, entry.ID, preds[mid.ID][0].From)
	require.Len(t, preds[exit.ID], 1)
	require.Equal(t, mid.ID, preds[exit.ID][0].From)
}

func TestDominatorsLinearChain(t *testing.T) {
	fn, entry, mid, exit := buildLinearFunction()
	preds := fn.Predecessors(fn.Entry)
	dom := Dominators(fn.Entry, preds)

	require.True(t, dom.Dominates(entry, entry))
	require.True(t, dom.Dominates(entry, mid))
	require.True(t, dom.Dominates(entry, exit))
	require.True(t, dom.Dominates(mid, exit))
	require.False(t, dom.Dominates(mid, entry))
	require.False(t, dom.Dominates(exit, mid))

	require.Nil(t, dom.IDom(entry))
	require.Equal(t, entry.ID, dom.IDom(mid).ID)
	require.Equal(t, mid.ID, dom.IDom(exit).ID)

	rpo := dom.RPO()
	require.Equal(t, []BlockID{entry.ID, mid.ID, exit.ID}, blockIDs(rpo))
}

// buildDiamondFunction builds: entry branches to left/right, both
// rejoin at exit.
func buildDiamondFunction() (fn *Function, entry, left, right, exit *Block) {
	fn = NewFunction("diamond")
	entry = fn.NewBlock(fn.Entry)
	left = fn.NewBlock(fn.Entry)
	right = fn.NewBlock(fn.Entry)
	exit = fn.NewBlock(fn.Entry)

	cond := fn.NewOp(entry, OpCondBr, nil, nil)
	fn.SetSuccessors(cond, []*Block{left, right}, [][]*Value{nil, nil})

	brL := fn.NewOp(left, OpBr, nil, nil)
	fn.SetSuccessors(brL, []*Block{exit}, [][]*Value{nil})

	brR := fn.NewOp(right, OpBr, nil, nil)
	fn.SetSuccessors(brR, []*Block{exit}, [][]*Value{nil})

	fn.NewOp(exit, OpReturn, nil, nil)
	return
}

func TestDominatorsDiamond(t *testing.T) {
	fn, entry, left, right, exit := buildDiamondFunction()
	preds := fn.Predecessors(fn.Entry)
	dom := Dominators(fn.Entry, preds)

	require.True(t, dom.Dominates(entry, left))
	require.True(t, dom.Dominates(entry, right))
	require.True(t, dom.Dominates(entry, exit))
	require.False(t, dom.Dominates(left, exit))
	require.False(t, dom.Dominates(right, exit))
	require.Equal(t, entry.ID, dom.IDom(exit).ID)

	df := dom.DominanceFrontier(left, preds)
	require.Len(t, df, 1)
	require.Equal(t, exit.ID, df[0].ID)
}

// buildLoopFunction builds: entry -> header -> body -> header (back
// edge), header -> exit.
func buildLoopFunction() (fn *Function, entry, header, body, exit *Block) {
	fn = NewFunction("loop")
	entry = fn.NewBlock(fn.Entry)
	header = fn.NewBlock(fn.Entry)
	body = fn.NewBlock(fn.Entry)
	exit = fn.NewBlock(fn.Entry)

	brToHeader := fn.NewOp(entry, OpBr, nil, nil)
	fn.SetSuccessors(brToHeader, []*Block{header}, [][]*Value{nil})

	condInHeader := fn.NewOp(header, OpCondBr, nil, nil)
	fn.SetSuccessors(condInHeader, []*Block{body, exit}, [][]*Value{nil, nil})

	backEdge := fn.NewOp(body, OpBr, nil, nil)
	fn.SetSuccessors(backEdge, []*Block{header}, [][]*Value{nil})

	fn.NewOp(exit, OpReturn, nil, nil)
	return
}

func TestLoopForestDetectsBackEdge(t *testing.T) {
	fn, entry, header, body, exit := buildLoopFunction()
	preds := fn.Predecessors(fn.Entry)
	dom := Dominators(fn.Entry, preds)
	lf := ComputeLoopForest(fn.Entry, dom, preds)

	require.True(t, lf.HasLoop())
	require.True(t, lf.IsHeader(header))
	require.False(t, lf.IsHeader(entry))
	require.False(t, lf.IsHeader(exit))

	loop, ok := lf.LoopOf(body)
	require.True(t, ok)
	require.Equal(t, header.ID, loop.Header.ID)
	require.True(t, loop.Body.Contains(header.ID))
	require.True(t, loop.Body.Contains(body.ID))
	require.False(t, loop.Body.Contains(exit.ID))
}

func TestReachabilityFindsUnreachableBlock(t *testing.T) {
	fn, entry, _, _, _ := buildLinearFunction()
	orphan := fn.NewBlock(fn.Entry)
	fn.NewOp(orphan, OpReturn, nil, nil)

	reach := ComputeReachability(fn.Entry)
	require.True(t, reach.IsReachable(entry))
	require.False(t, reach.IsReachable(orphan))

	unreachable := reach.UnreachableBlocks(fn.Entry)
	require.Len(t, unreachable, 1)
	require.Equal(t, orphan.ID, unreachable[0].ID)
}

func TestLivenessAcrossBlocks(t *testing.T) {
	fn := NewFunction("live")
	entry := fn.NewBlock(fn.Entry)
	exit := fn.NewBlock(fn.Entry)

	v := fn.NewOp(entry, OpConst, nil, []Type{FeltType{}})
	br := fn.NewOp(entry, OpBr, nil, nil)
	fn.SetSuccessors(br, []*Block{exit}, [][]*Value{nil})

	fn.NewOp(exit, OpAdd, []*Value{v.Results[0], v.Results[0]}, []Type{FeltType{}})
	fn.NewOp(exit, OpReturn, nil, nil)

	preds := fn.Predecessors(fn.Entry)
	liveness := ComputeLiveness(fn.Entry, preds)

	require.True(t, liveness.IsLiveOut(entry, v.Results[0].ID))
	require.True(t, liveness.IsLiveIn(exit, v.Results[0].ID))
}

func TestConstantSuccessorNarrowsSingleSuccessorBranch(t *testing.T) {
	fn, _, mid, _ := buildLinearFunction()
	br := mid.Terminator()
	target, ok := IsConstantSuccessor(br)
	require.True(t, ok)
	require.NotNil(t, target)
}

func blockIDs(blocks []*Block) []BlockID {
	ids := make([]BlockID, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}
	return ids
}
