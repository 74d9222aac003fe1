package mem

import (
	"midenc/internal/errors"
	"midenc/internal/ir"
	"midenc/internal/masm"
)

// Store emits a sequence that stores a value of type ty, assumed
// already on the abstract stack below the destination address, per
// spec.md §4.3's operation-contracts table.
func Store(e masm.Emitter, ty ir.Type, span errors.Position) error {
	EmitNativePtr(e, span)
	return storeTyped(e, ty, nil, span)
}

// StoreImm emits a sequence that stores a value of type ty to a
// compile-time-constant address.
func StoreImm(e masm.Emitter, ty ir.Type, addr uint32, span errors.Position) error {
	ptr := FromByteAddr(addr)
	return storeTyped(e, ty, &ptr, span)
}

func storeTyped(e masm.Emitter, ty ir.Type, ptr *NativePtr, span errors.Position) error {
	if ty.IsZST() {
		return errors.MalformedIR(span, "cannot store a zero-sized type in memory")
	}
	switch t := ty.(type) {
	case ir.IntType:
		switch {
		case t.Bits == 128:
			return storeQuadWord(e, ptr, span)
		case t.Bits == 64:
			return storeDoubleWord(e, ptr, span)
		case t.Bits == 32:
			return storeWord(e, ptr, span)
		default:
			return storeSmall(e, t.Bits, ptr, span)
		}
	case ir.FeltType:
		return storeFelt(e, ptr, span)
	case ir.BoolType:
		return storeSmall(e, 1, ptr, span)
	default:
		return errors.UnsupportedLowering(span, "stores of type "+ty.String()+" are not supported")
	}
}

func storeFelt(e masm.Emitter, ptr *NativePtr, span errors.Position) error {
	if ptr == nil {
		e.RawExec("intrinsics::mem::store_felt", span)
		return nil
	}
	if !ptr.IsElementAligned() {
		return errors.MalformedIR(span, "felt values must be naturally aligned")
	}
	switch ptr.Index {
	case 0:
		e.Emit(masm.MemStoreImm(ptr.WAddr), span)
	case 1:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.MovUp(4), masm.Swap(3), masm.Drop(),
			masm.MemStoreWImm(ptr.WAddr), masm.DropN(4),
		}, span)
	case 2:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.MovUp(4), masm.Swap(2), masm.Drop(),
			masm.MemStoreWImm(ptr.WAddr), masm.DropN(4),
		}, span)
	case 3:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.MovUp(3),
			masm.MemStoreWImm(ptr.WAddr), masm.DropN(4),
		}, span)
	}
	return nil
}

func storeWord(e masm.Emitter, ptr *NativePtr, span errors.Position) error {
	if ptr == nil {
		e.RawExec("intrinsics::mem::store_sw", span)
		return nil
	}
	aligned := ptr.IsElementAligned()
	rshift := uint32(32 - ptr.Offset)
	maskHi := ^uint32(0) << rshift
	maskLo := ^uint32(0) >> uint32(ptr.Offset)
	switch {
	case ptr.Index == 0 && aligned:
		e.Emit(masm.MemStoreImm(ptr.WAddr), span)
	case ptr.Index == 0:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr),
			masm.MovUp(2), masm.PushU32(maskLo), masm.U32And(),
			masm.MovUp(3), masm.PushU32(maskHi), masm.U32And(),
			masm.Dup(4), masm.U32ShrImm(uint32(ptr.Offset)), masm.U32Or(),
			masm.Swap(1), masm.MovUp(4), masm.U32ShlImm(rshift), masm.U32Or(),
			masm.MovUp(3), masm.MovUp(3), masm.MemStoreWImm(ptr.WAddr), masm.DropN(4),
		}, span)
	case ptr.Index == 1 && aligned:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.MovUp(4), masm.Swap(3), masm.Drop(),
			masm.MemStoreWImm(ptr.WAddr), masm.DropN(4),
		}, span)
	case ptr.Index == 1:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr),
			masm.Swap(1), masm.PushU32(maskLo), masm.U32And(),
			masm.MovUp(2), masm.PushU32(maskHi), masm.U32And(),
			masm.Dup(4), masm.U32ShrImm(uint32(ptr.Offset)), masm.U32Or(),
			masm.Swap(1), masm.MovUp(4), masm.U32ShlImm(rshift), masm.U32Or(),
			masm.MovUp(3), masm.Swap(3), masm.MemStoreWImm(ptr.WAddr), masm.DropN(4),
		}, span)
	case ptr.Index == 2 && aligned:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.MovUp(4), masm.Swap(2), masm.Drop(),
			masm.MemStoreWImm(ptr.WAddr), masm.DropN(4),
		}, span)
	case ptr.Index == 2:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr),
			masm.PushU32(maskLo), masm.U32And(),
			masm.Swap(1), masm.PushU32(maskHi), masm.U32And(),
			masm.Dup(4), masm.U32ShrImm(uint32(ptr.Offset)), masm.U32Or(),
			masm.Swap(1), masm.MovUp(4), masm.U32ShlImm(rshift), masm.U32Or(),
			masm.MemStoreWImm(ptr.WAddr), masm.DropN(4),
		}, span)
	case ptr.Index == 3 && aligned:
		e.EmitAll([]masm.Op{
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.Drop(), masm.MovUp(3),
			masm.MemStoreWImm(ptr.WAddr), masm.DropN(4),
		}, span)
	default: // index == 3, unaligned: spans into the next word
		e.EmitAll([]masm.Op{
			masm.MemLoadImm(ptr.WAddr + 1), masm.PushU32(maskLo), masm.U32And(),
			masm.Dup(1), masm.U32ShlImm(rshift), masm.U32Or(),
			masm.MemStoreImm(ptr.WAddr + 1),
			masm.PadW(), masm.MemLoadWImm(ptr.WAddr), masm.PushU32(maskHi), masm.U32And(),
			masm.MovUp(4), masm.U32ShrImm(uint32(ptr.Offset)), masm.U32Or(),
			masm.MemStoreWImm(ptr.WAddr), masm.DropN(4),
		}, span)
	}
	return nil
}

func storeDoubleWord(e masm.Emitter, ptr *NativePtr, span errors.Position) error {
	if ptr == nil {
		e.RawExec("intrinsics::mem::store_dw", span)
		return nil
	}
	if ptr.Index == 0 && ptr.IsElementAligned() {
		e.EmitAll([]masm.Op{
			masm.Swap(1), masm.PadW(), masm.MemLoadWImm(ptr.WAddr),
			masm.Swap(2), masm.Drop(), masm.Swap(2), masm.Drop(),
			masm.MemStoreWImm(ptr.WAddr), masm.DropN(4),
		}, span)
		return nil
	}
	// Unaligned and off-index-0 double-word stores delegate to the
	// runtime intrinsic, matching original_source's fallback path.
	e.EmitAll([]masm.Op{masm.PushU32(uint32(ptr.Offset)), masm.PushU32(uint32(ptr.Index)), masm.PushU32(ptr.WAddr)}, span)
	e.RawExec("intrinsics::mem::store_dw", span)
	return nil
}

func storeQuadWord(e masm.Emitter, ptr *NativePtr, span errors.Position) error {
	if ptr == nil {
		e.RawExec("intrinsics::mem::store_qw", span)
		return nil
	}
	if ptr.Index != 0 || !ptr.IsElementAligned() {
		e.EmitAll([]masm.Op{masm.PushU32(uint32(ptr.Offset)), masm.PushU32(uint32(ptr.Index)), masm.PushU32(ptr.WAddr)}, span)
		e.RawExec("intrinsics::mem::store_qw", span)
		return nil
	}
	e.EmitAll([]masm.Op{
		masm.Swap(3), masm.MovUp(2), masm.Swap(1), masm.MemStoreWImm(ptr.WAddr), masm.DropN(4),
	}, span)
	return nil
}

func storeSmall(e masm.Emitter, bits int, ptr *NativePtr, span errors.Position) error {
	if bits == 32 {
		return storeWord(e, ptr, span)
	}
	mask := ^uint32(0) << uint32(bits)
	if ptr == nil {
		e.EmitAll([]masm.Op{masm.Dup(2), masm.Dup(2), masm.Dup(2)}, span)
		if err := loadWord(e, ptr, span); err != nil {
			return err
		}
		e.EmitAll([]masm.Op{masm.PushU32(mask), masm.U32And(), masm.MovUp(5), masm.U32Or(), masm.MovDn(4)}, span)
		return storeWord(e, ptr, span)
	}
	if err := loadWord(e, ptr, span); err != nil {
		return err
	}
	e.EmitAll([]masm.Op{masm.PushU32(mask), masm.U32And(), masm.MovUp(4), masm.U32Or()}, span)
	return storeWord(e, ptr, span)
}
