package mem

import (
	"midenc/internal/errors"
	"midenc/internal/ir"
	"midenc/internal/masm"
)

// Memcpy emits a sequence copying count*sizeof(ty) bytes from src to
// dst, both native-pointer-space addresses already on the abstract
// stack in (count, dst, src) order from the bottom, per
// original_source/codegen/masm2/src/emit/mem.rs's `memcpy`. When the
// pointee's byte size is word-sized or a multiple of it, this emits a
// fast path through the `std::mem::memcopy` runtime intrinsic;
// otherwise it falls back to an explicit overflow-trapping copy loop.
func Memcpy(e masm.Emitter, ty ir.Type, span errors.Position) error {
	size := uint32(ty.SizeInBytes())
	switch {
	case size == 16:
		e.Emit(masm.MovUp(2), span)
		e.RawExec("std::mem::memcopy", span)
		return nil
	case size%16 == 0:
		factor := size / 16
		e.EmitAll([]masm.Op{
			masm.MovUp(2), masm.PushU32(factor), masm.U32OverflowingMadd(), masm.Assertz(),
		}, span)
		e.RawExec("std::mem::memcopy", span)
		return nil
	default:
		return emitByteWiseCopyLoop(e, size, span)
	}
}

// emitByteWiseCopyLoop builds an explicit while-loop that copies count
// elements of byte size `size` one at a time, trapping on address
// overflow via Assertz, mirroring memcpy's general-case body in
// original_source/codegen/masm2/src/emit/mem.rs (the path exercised
// when the pointee size isn't a multiple of the word size).
func emitByteWiseCopyLoop(e masm.Emitter, size uint32, span errors.Position) error {
	body := masm.NewBlock()
	be := masm.NewBlockEmitter(body)

	// [i, dst, src, count] -> compute src + i*size, trap on overflow
	be.EmitAll([]masm.Op{
		masm.Dup(2), masm.Dup(1),
		masm.PushU32(size), masm.U32OverflowingMadd(), masm.Assertz(),
	}, span)
	// compute dst + i*size, trap on overflow
	be.EmitAll([]masm.Op{
		masm.Dup(2), masm.Dup(2),
		masm.PushU32(size), masm.U32OverflowingMadd(), masm.Assertz(),
	}, span)

	// load the element from the computed src address, store at dst
	be.RawExec("intrinsics::mem::load_sw", span)
	be.RawExec("intrinsics::mem::store_sw", span)

	be.EmitAll([]masm.Op{
		masm.U32WrappingAddImm(1), masm.Dup(0), masm.Dup(3), masm.U32Gte(),
	}, span)

	e.EmitAll([]masm.Op{masm.PushU32(0), masm.Dup(2), masm.PushFeltZero(), masm.Gte()}, span)
	e.CurrentBlock().Push(masm.While(body))
	e.EmitAll([]masm.Op{masm.DropN(4)}, span)
	return nil
}

// Memset emits a sequence writing `value` to `count` consecutive
// elements starting at dst, trapping on address overflow, per
// original_source/codegen/masm2/src/emit/mem.rs's `memset`.
func Memset(e masm.Emitter, ty ir.Type, span errors.Position) error {
	size := uint32(ty.SizeInBytes())
	body := masm.NewBlock()
	be := masm.NewBlockEmitter(body)

	// [i, dst, count, value..] -> aligned_dst = dst + i*size, trap on overflow
	be.EmitAll([]masm.Op{
		masm.Dup(1), masm.Dup(1),
		masm.PushU32(size), masm.U32OverflowingMadd(), masm.Assertz(),
	}, span)

	be.Push(masm.StackEntry{TypeName: ty.String(), Felts: ty.SizeInFelts()})
	if err := Store(be, ty, span); err != nil {
		return err
	}

	be.EmitAll([]masm.Op{
		masm.U32WrappingAddImm(1), masm.Dup(0), masm.Dup(3), masm.U32Gte(),
	}, span)

	e.EmitAll([]masm.Op{masm.PushU32(0), masm.Dup(2), masm.PushFeltZero(), masm.Gte()}, span)
	e.CurrentBlock().Push(masm.While(body))
	e.EmitAll([]masm.Op{masm.DropN(4)}, span)
	return nil
}
