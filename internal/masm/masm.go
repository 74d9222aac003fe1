// Package masm models the small slice of Miden Assembly vocabulary the
// memory-lowering core needs to emit: stack-shuffle ops, word-aligned
// memory ops, felt/u32 arithmetic used for overflow-trapped address
// computation, and the handful of control ops (`While`, `If`) the
// generated memcpy/memset loops require. It is grounded in
// original_source/codegen/masm2/src/emit/mem.rs's `masm::Instruction`
// vocabulary, rendered as a Go tagged struct instead of a Rust enum
// since the cores only ever construct and print instructions, never
// pattern-match exhaustively over the full opcode set.
package masm

import "midenc/internal/errors"

// Op is a single MASM operation: a name plus up to one immediate
// operand. Most instructions carry no immediate; MemLoadImm/MemStoreImm
// and friends carry a word address, and shift/mod/div ops carry a small
// constant.
type Op struct {
	Name string
	Imm  uint32
	// Body holds the nested block for control constructs (While, If).
	Body *Block
	Else *Block
	Span errors.Position
}

// Block is a sequence of operations, the unit `current_block` appends
// to and the unit nested inside While/If bodies.
type Block struct {
	Ops []Op
}

func NewBlock() *Block { return &Block{} }

func (b *Block) Push(op Op) { b.Ops = append(b.Ops, op) }

// Common stack-shuffle instructions, named identically to their Miden
// Assembly mnemonics.
func Dup(n int) Op       { return Op{Name: "dup", Imm: uint32(n)} }
func Drop() Op           { return Op{Name: "drop"} }
func DropN(n int) Op     { return Op{Name: "dropw", Imm: uint32(n)} }
func Swap(n int) Op      { return Op{Name: "swap", Imm: uint32(n)} }
func MovUp(n int) Op     { return Op{Name: "movup", Imm: uint32(n)} }
func MovDn(n int) Op     { return Op{Name: "movdn", Imm: uint32(n)} }
func PadW() Op           { return Op{Name: "padw"} }
func PushU32(v uint32) Op { return Op{Name: "push.u32", Imm: v} }
func PushFeltZero() Op   { return Op{Name: "push.felt.0"} }

// Memory ops. *Imm variants carry a word address immediate; the
// non-immediate forms expect the address on the stack.
func MemLoadImm(waddr uint32) Op  { return Op{Name: "mem_load", Imm: waddr} }
func MemLoadWImm(waddr uint32) Op { return Op{Name: "mem_loadw", Imm: waddr} }
func MemStoreImm(waddr uint32) Op { return Op{Name: "mem_store", Imm: waddr} }
func MemStoreWImm(waddr uint32) Op { return Op{Name: "mem_storew", Imm: waddr} }
func Locaddr(index uint16) Op     { return Op{Name: "locaddr", Imm: uint32(index)} }

// Arithmetic used for address computation and overflow trapping.
func U32ModImm(n uint32) Op          { return Op{Name: "u32mod", Imm: n} }
func U32DivImm(n uint32) Op          { return Op{Name: "u32div", Imm: n} }
func U32ShlImm(n uint32) Op          { return Op{Name: "u32shl", Imm: n} }
func U32ShrImm(n uint32) Op          { return Op{Name: "u32shr", Imm: n} }
func U32Or() Op                      { return Op{Name: "u32or"} }
func U32And() Op                     { return Op{Name: "u32and"} }
func U32Gte() Op                     { return Op{Name: "u32gte"} }
func U32WrappingAddImm(n uint32) Op  { return Op{Name: "u32wrapping_add", Imm: n} }
func U32OverflowingMadd() Op         { return Op{Name: "u32overflowing_madd"} }
func Assertz() Op                    { return Op{Name: "assertz"} }
func Gte() Op                        { return Op{Name: "gte"} }

// RawExec emits a call to a named runtime intrinsic (e.g.
// "intrinsics::mem::load_felt", "std::mem::memcopy").
func RawExec(name string) Op { return Op{Name: "exec." + name} }

// While wraps body as a MASM `while.true ... end` construct.
func While(body *Block) Op { return Op{Name: "while", Body: body} }

// If wraps thenBody/elseBody as an `if.true ... else ... end` construct.
func If(thenBody, elseBody *Block) Op { return Op{Name: "if", Body: thenBody, Else: elseBody} }
