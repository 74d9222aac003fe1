package textir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"midenc/internal/ir"
)

const diamondSrc = `
func @diamond {
bb0(%c: i1):
  cond_br %c, bb1, bb2
bb1:
  %l = const 1 : felt
  br bb3(%l)
bb2:
  %r = const 2 : felt
  br bb3(%r)
bb3(%x: felt):
  return %x
}
`

func TestParseAndBuildDiamondProducesExpectedShape(t *testing.T) {
	file, err := ParseString("diamond.ir", diamondSrc)
	require.NoError(t, err)
	require.Len(t, file.Funcs, 1)

	fns, err := Build(file)
	require.NoError(t, err)
	require.Len(t, fns, 1)

	fn := fns[0]
	require.Equal(t, "diamond", fn.Name)
	require.Len(t, fn.Entry.Blocks, 4)

	entry := fn.Entry.Blocks[0]
	require.Len(t, entry.Args, 1)
	require.Equal(t, ir.IntType{Bits: 1}, entry.Args[0].Type)

	term := entry.Terminator()
	require.Equal(t, ir.OpCondBr, term.Kind)
	require.Len(t, term.Successors, 2)

	exit := fn.Entry.Blocks[3]
	require.Len(t, exit.Args, 1)
	require.Equal(t, "return", exit.Terminator().Kind.Name)
}

func TestBuiltFunctionRoundTripsThroughPrint(t *testing.T) {
	file, err := ParseString("diamond.ir", diamondSrc)
	require.NoError(t, err)
	fns, err := Build(file)
	require.NoError(t, err)

	dump := ir.Print(fns[0])
	require.Contains(t, dump, "fn diamond()")
	require.Contains(t, dump, "cond_br")
	require.Contains(t, dump, "return")
}

func TestParseRejectsUndefinedSuccessor(t *testing.T) {
	src := "func @f {\nbb0:\n  br bb9\n}\n"
	file, err := ParseString("bad.ir", src)
	require.NoError(t, err)

	_, err = Build(file)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined successor block")
}

func TestParseRejectsUndefinedValue(t *testing.T) {
	src := "func @f {\nbb0:\n  %y = add %missing, %missing\n  return %y\n}\n"
	file, err := ParseString("bad.ir", src)
	require.NoError(t, err)

	_, err = Build(file)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined value")
}

func TestReportParseErrorOnMalformedSyntax(t *testing.T) {
	_, err := ParseString("bad.ir", "func @f {\nbb0\n")
	require.Error(t, err)
	// Smoke test: ReportParseError must not panic on a real participle.Error.
	ReportParseError("func @f {\nbb0\n", err)
}
