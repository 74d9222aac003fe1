package mem

import (
	"midenc/internal/errors"
	"midenc/internal/ir"
	"midenc/internal/masm"
)

// Local describes a function-local stack slot, addressed via MASM's
// `locaddr` instruction rather than the heap (spec.md §3's ownership
// notes on stack-allocated locals vs. heap-allocated aggregates).
type Local struct {
	Index uint16
	Type  ir.Type
}

// LoadLocal emits the address of local and delegates to Load, mirroring
// original_source/codegen/masm2/src/emit/mem.rs's `load_local`.
func LoadLocal(e masm.Emitter, local Local, span errors.Position) error {
	e.Emit(masm.Locaddr(local.Index), span)
	e.Push(masm.StackEntry{TypeName: "ptr<" + local.Type.String() + ">", Felts: 1})
	return Load(e, local.Type, span)
}

// StoreLocal emits the address of local and delegates to Store.
func StoreLocal(e masm.Emitter, local Local, span errors.Position) error {
	e.Emit(masm.Locaddr(local.Index), span)
	e.Push(masm.StackEntry{TypeName: "ptr<" + local.Type.String() + ">", Felts: 1})
	return Store(e, local.Type, span)
}

// MemGrow emits the sequence growing the heap by the page count on top
// of the stack, returning the previous size in pages (or -1 on
// failure), delegating entirely to the runtime intrinsic.
func MemGrow(e masm.Emitter, span errors.Position) {
	e.Pop()
	e.RawExec("intrinsics::mem::memory_grow", span)
	e.Push(masm.StackEntry{TypeName: "i32", Felts: 1})
}

// MemSize emits the sequence returning the current heap size in pages.
func MemSize(e masm.Emitter, span errors.Position) {
	e.RawExec("intrinsics::mem::memory_size", span)
	e.Push(masm.StackEntry{TypeName: "u32", Felts: 1})
}
