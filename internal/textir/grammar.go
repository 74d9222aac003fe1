package textir

import "github.com/alecthomas/participle/v2/lexer"

// File is the top-level parse of a textual IR module: a flat sequence
// of function declarations, matching grammar.Program's struct-tag
// style (internal/ir has no notion of a module grouping functions, so
// this stays a plain slice rather than a richer container type).
type File struct {
	Funcs []*FuncDecl `@@*`
}

// FuncDecl is one function's worth of blocks, named with the
// SSA-value-sigil convention ("@name") this format borrows from
// LLVM-style textual IRs.
type FuncDecl struct {
	Pos    lexer.Position
	Name   string       `"func" "@" @Ident "{"`
	Blocks []*BlockDecl  `@@+ "}"`
}

// BlockDecl is one basic block: a label, an optional parenthesized
// block-argument list (the textual stand-in for phi nodes, matching
// internal/ir.Function.AddBlockArg's model), and its operations in
// order.
type BlockDecl struct {
	Label string     `@Ident`
	Args  []*ArgDecl `("(" (@@ ("," @@)*)? ")")? ":"`
	Ops   []*OpDecl  `@@*`
}

// ArgDecl is one "%name: type" block argument.
type ArgDecl struct {
	Name string `"%" @Ident`
	Type string `":" @Ident`
}

// OpDecl is one operation line: an optional "%r0, %r1 = " result
// binding, the opcode name, either an integer immediate (for `const`)
// or a comma-separated argument list mixing value operands and
// successor references, and an optional ": type, type" result-type
// annotation.
type OpDecl struct {
	Pos         lexer.Position
	Results     []string  `(("%" @Ident) ("," "%" @Ident)* "=")?`
	Name        string    `@Ident`
	Immediate   *int64    `(  @Integer`
	Args        []*OpArg  `  | (@@ ("," @@)*)? )`
	ResultTypes []string  `(":" @Ident ("," @Ident)*)?`
}

// OpArg is one element of an op's argument list: either a "%value"
// operand reference or a successor block reference, disambiguated
// structurally the same way grammar.Type distinguishes a RefType from
// a plain name.
type OpArg struct {
	Value string   `  "%" @Ident`
	Succ  *SuccRef `| @@`
}

// SuccRef is a branch successor: a block label and the block-argument
// values passed to it, e.g. "bb1(%s, %t)".
type SuccRef struct {
	Block string   `@Ident`
	Args  []string `("(" ("%" @Ident ("," "%" @Ident)*)? ")")?`
}
