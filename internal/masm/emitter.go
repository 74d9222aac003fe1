package masm

import "midenc/internal/errors"

// StackEntry models one tracked operand-stack slot: its IR type, used by
// Emitter.Pop/Push callers to decide how many machine words an operand
// actually occupies (spec.md §6 interface 3's "abstract operand-stack
// bookkeeping, independent of the concrete instruction set").
type StackEntry struct {
	TypeName string
	Felts    int
}

// Emitter is the MASM emission surface the stack-machine memory lowerer
// depends on (spec.md §6 interface 3): appending a single instruction,
// calling a named runtime intrinsic, and tracking the abstract operand
// stack so the lowerer knows the type of the value it is about to
// load/store. Grounded in original_source/codegen/masm2/src/emit/mod.rs's
// `OpEmitter` (push/pop/emit/raw_exec/current_block).
type Emitter interface {
	Emit(op Op, span errors.Position)
	EmitAll(ops []Op, span errors.Position)
	RawExec(intrinsicName string, span errors.Position)
	Push(entry StackEntry)
	Pop() StackEntry
	CurrentBlock() *Block
}

// BlockEmitter is a straightforward Emitter backed by a single Block and
// an explicit abstract stack slice, sufficient for the cores' tests and
// for cmd/midenc's non-optimizing lowering pipeline.
type BlockEmitter struct {
	block *Block
	stack []StackEntry
}

func NewBlockEmitter(block *Block) *BlockEmitter {
	if block == nil {
		block = NewBlock()
	}
	return &BlockEmitter{block: block}
}

func (e *BlockEmitter) Emit(op Op, span errors.Position) {
	op.Span = span
	e.block.Push(op)
}

func (e *BlockEmitter) EmitAll(ops []Op, span errors.Position) {
	for _, op := range ops {
		e.Emit(op, span)
	}
}

func (e *BlockEmitter) RawExec(intrinsicName string, span errors.Position) {
	e.Emit(RawExec(intrinsicName), span)
}

func (e *BlockEmitter) Push(entry StackEntry) { e.stack = append(e.stack, entry) }

func (e *BlockEmitter) Pop() StackEntry {
	if len(e.stack) == 0 {
		return StackEntry{}
	}
	top := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return top
}

func (e *BlockEmitter) CurrentBlock() *Block { return e.block }

// WithBlock returns a new BlockEmitter sharing the same abstract stack
// but appending to a different block — used to build a loop body in
// isolation before splicing it into a While op, mirroring
// original_source/codegen/masm2/src/emit/mem.rs's
// `OpEmitter::new(self.locals, self.invoked, &mut body, self.stack)`.
func (e *BlockEmitter) WithBlock(block *Block) *BlockEmitter {
	return &BlockEmitter{block: block, stack: e.stack}
}
