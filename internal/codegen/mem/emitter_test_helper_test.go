package mem

import (
	"midenc/internal/errors"
	"midenc/internal/masm"
)

// testBlock is a bare-bones masm.Emitter backed by a real masm.Block, so
// that both Emit/EmitAll calls and direct CurrentBlock().Push calls
// (used by while/if control constructs) land in the same place. Tests
// inspect the flattened instruction-name sequence via ops().
type testBlock struct {
	block *masm.Block
	stack []masm.StackEntry
}

func (b *testBlock) ensureBlock() *masm.Block {
	if b.block == nil {
		b.block = masm.NewBlock()
	}
	return b.block
}

func (b *testBlock) Emit(op masm.Op, _ errors.Position) { b.ensureBlock().Push(op) }

func (b *testBlock) EmitAll(ops []masm.Op, span errors.Position) {
	for _, op := range ops {
		b.Emit(op, span)
	}
}

func (b *testBlock) RawExec(name string, span errors.Position) {
	b.Emit(masm.RawExec(name), span)
}

func (b *testBlock) Push(e masm.StackEntry) { b.stack = append(b.stack, e) }

func (b *testBlock) Pop() masm.StackEntry {
	if len(b.stack) == 0 {
		return masm.StackEntry{}
	}
	top := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return top
}

func (b *testBlock) CurrentBlock() *masm.Block { return b.ensureBlock() }

// ops flattens the recorded instruction sequence, descending into
// while/if bodies, for tests that assert on instruction shape.
func (b *testBlock) ops() []string {
	if b.block == nil {
		return nil
	}
	return flattenNames(b.block)
}

func flattenNames(block *masm.Block) []string {
	var names []string
	for _, op := range block.Ops {
		names = append(names, op.Name)
		if op.Body != nil {
			names = append(names, flattenNames(op.Body)...)
		}
		if op.Else != nil {
			names = append(names, flattenNames(op.Else)...)
		}
	}
	return names
}
