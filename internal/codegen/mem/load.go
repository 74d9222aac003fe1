package mem

import (
	"midenc/internal/errors"
	"midenc/internal/ir"
	"midenc/internal/masm"
)

// EmitNativePtr translates a raw byte pointer on top of the abstract
// stack into a native-pointer triple (waddr, index, offset), per
// original_source/codegen/masm2/src/emit/mem.rs's `emit_native_ptr`.
func EmitNativePtr(e masm.Emitter, span errors.Position) {
	e.EmitAll([]masm.Op{
		masm.Dup(0),
		masm.U32ModImm(16),
		masm.Dup(0),
		masm.U32ModImm(4),
		masm.Swap(1),
		masm.U32DivImm(4),
		masm.MovUp(2),
		masm.U32DivImm(16),
	}, span)
}

// Load emits a sequence that loads a value of type ty from the address
// on top of the abstract stack, dispatching on felt footprint per
// spec.md §4.3's operation-contracts table.
func Load(e masm.Emitter, ty ir.Type, span errors.Position) error {
	EmitNativePtr(e, span)
	return loadTyped(e, ty, nil, span)
}

// LoadImm emits a sequence that loads a value of type ty from a
// compile-time-constant address.
func LoadImm(e masm.Emitter, ty ir.Type, addr uint32, span errors.Position) error {
	ptr := FromByteAddr(addr)
	return loadTyped(e, ty, &ptr, span)
}

func loadTyped(e masm.Emitter, ty ir.Type, ptr *NativePtr, span errors.Position) error {
	switch t := ty.(type) {
	case ir.IntType:
		switch {
		case t.Bits == 128:
			return loadQuadWord(e, ptr, span)
		case t.Bits == 64:
			return loadDoubleWord(e, ptr, span)
		case t.Bits == 32:
			return loadWord(e, ptr, span)
		default:
			if err := loadWord(e, ptr, span); err != nil {
				return err
			}
			e.Emit(masm.Op{Name: "trunc_int32", Imm: uint32(t.Bits)}, span)
			return nil
		}
	case ir.FeltType:
		return loadFelt(e, ptr, span)
	case ir.BoolType:
		if err := loadWord(e, ptr, span); err != nil {
			return err
		}
		e.Emit(masm.Op{Name: "trunc_int32", Imm: 1}, span)
		return nil
	default:
		return errors.UnsupportedLowering(span, "loads of type "+ty.String()+" are not supported")
	}
}

func loadFelt(e masm.Emitter, ptr *NativePtr, span errors.Position) error {
	if ptr == nil {
		e.RawExec("intrinsics::mem::load_felt", span)
		return nil
	}
	if !ptr.IsElementAligned() {
		return errors.MalformedIR(span, "felt values must be naturally aligned")
	}
	switch ptr.Index {
	case 0:
		e.Emit(masm.MemLoadImm(ptr.WAddr), span)
	case 1:
		e.EmitAll([]masm.Op{masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.Drop(), masm.Swap(1), masm.Drop()}, span)
	case 2:
		e.EmitAll([]masm.Op{masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.MovDn(2), masm.Drop(), masm.Drop()}, span)
	case 3:
		e.EmitAll([]masm.Op{masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.MovDn(3), masm.Drop(), masm.Drop(), masm.Drop()}, span)
	}
	return nil
}

func loadWord(e masm.Emitter, ptr *NativePtr, span errors.Position) error {
	if ptr == nil {
		e.RawExec("intrinsics::mem::load_sw", span)
		return nil
	}
	aligned := ptr.IsElementAligned()
	rshift := uint32(32 - ptr.Offset)
	switch {
	case ptr.Index == 0 && aligned:
		e.Emit(masm.MemLoadImm(ptr.WAddr), span)
	case ptr.Index == 0:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.Drop(),
			masm.U32ShrImm(rshift), masm.Swap(1), masm.U32ShlImm(uint32(ptr.Offset)), masm.U32Or(),
		}, span)
	case ptr.Index == 1 && aligned:
		e.EmitAll([]masm.Op{masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.Drop(), masm.Swap(1), masm.Drop()}, span)
	case ptr.Index == 1:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.MovUp(2), masm.Drop(),
			masm.U32ShrImm(rshift), masm.Swap(1), masm.U32ShlImm(uint32(ptr.Offset)), masm.U32Or(),
		}, span)
	case ptr.Index == 2 && aligned:
		e.EmitAll([]masm.Op{masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.MovDn(2), masm.Drop(), masm.Drop()}, span)
	case ptr.Index == 2:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.MovUp(3), masm.MovUp(3), masm.Drop(), masm.Drop(),
			masm.U32ShrImm(rshift), masm.U32ShlImm(uint32(ptr.Offset)), masm.U32Or(),
		}, span)
	case ptr.Index == 3 && aligned:
		e.EmitAll([]masm.Op{masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.MovDn(3), masm.Drop(), masm.Drop(), masm.Drop()}, span)
	default: // index == 3, unaligned: spans into the next word
		e.EmitAll([]masm.Op{
			masm.MemLoadImm(ptr.WAddr + 1), masm.U32ShrImm(rshift),
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.MovDn(3), masm.Drop(), masm.Drop(), masm.Drop(),
			masm.U32ShlImm(uint32(ptr.Offset)), masm.U32Or(),
		}, span)
	}
	return nil
}

func loadDoubleWord(e masm.Emitter, ptr *NativePtr, span errors.Position) error {
	if ptr == nil {
		e.RawExec("intrinsics::mem::load_dw", span)
		return nil
	}
	aligned := ptr.IsElementAligned()
	switch {
	case ptr.Index == 0 && aligned:
		e.EmitAll([]masm.Op{masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.MovDn(4), masm.MovDn(4), masm.Drop(), masm.Drop()}, span)
	case ptr.Index == 0:
		// Unaligned double-word load spans three elements; realign via
		// the runtime intrinsic, matching original_source's
		// `realign_double_word`, which itself just calls
		// `intrinsics::mem::realign_dw`.
		e.EmitAll([]masm.Op{masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.MovUp(4), masm.Drop(), masm.Swap(2)}, span)
		e.RawExec("intrinsics::mem::realign_dw", span)
	case ptr.Index == 1 && aligned:
		e.EmitAll([]masm.Op{masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.MovUp(3), masm.Drop()}, span)
	case ptr.Index == 1:
		e.EmitAll([]masm.Op{masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.Swap(2)}, span)
		e.RawExec("intrinsics::mem::realign_dw", span)
	case ptr.Index == 2 && aligned:
		e.EmitAll([]masm.Op{masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.Drop()}, span)
	case ptr.Index == 2:
		// Spans two quad-words: the high element lives at waddr+1.
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr + 1), masm.MovDn(4), masm.Drop(), masm.Drop(), masm.Drop(),
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.Drop(), masm.Swap(2),
		}, span)
		e.RawExec("intrinsics::mem::realign_dw", span)
	case ptr.Index == 3 && aligned:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr + 1), masm.MovUp(4), masm.Drop(), masm.MovUp(3), masm.Drop(),
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.Drop(), masm.Drop(),
		}, span)
	default: // index == 3, unaligned: also spans two quad-words
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr + 1), masm.MovUp(4), masm.Drop(),
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.Drop(), masm.Drop(), masm.Swap(2),
		}, span)
		e.RawExec("intrinsics::mem::realign_dw", span)
	}
	return nil
}

func loadQuadWord(e masm.Emitter, ptr *NativePtr, span errors.Position) error {
	if ptr == nil {
		e.RawExec("intrinsics::mem::load_qw", span)
		return nil
	}
	if !ptr.IsElementAligned() {
		// Open-question resolution: unaligned quad-word accesses
		// delegate to the runtime realignment intrinsic rather than
		// being lowered inline, matching the original implementation's
		// current state (see SPEC_FULL.md's Open Question 3).
		e.EmitAll([]masm.Op{
			masm.PushU32(uint32(ptr.Offset)), masm.PushU32(uint32(ptr.Index)), masm.PushU32(ptr.WAddr),
		}, span)
		e.RawExec("intrinsics::mem::load_qw", span)
		return nil
	}
	e.Emit(masm.MemLoadWImm(ptr.WAddr), span)
	return nil
}
