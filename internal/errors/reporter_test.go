package errors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatErrorIncludesCodeAndLocation(t *testing.T) {
	src := "op1 = add %a, %b\nop2 = spill op1\nop3 = br op2\n"
	reporter := NewErrorReporter("module.ir", src)

	err := MalformedIR(Position{Filename: "module.ir", Line: 2, Column: 6}, "value op1 is not live at this point")
	out := reporter.FormatError(err)

	require.Contains(t, out, CodeMalformedIR)
	require.Contains(t, out, "module.ir:2:6")
	require.Contains(t, out, "value op1 is not live at this point")
}

func TestFormatErrorWithSuggestionsAndNotes(t *testing.T) {
	src := "a\nb\nc\n"
	reporter := NewErrorReporter("m.ir", src)

	err := UnsupportedLowering(Position{Filename: "m.ir", Line: 1, Column: 1}, "unsupported pointee type")
	err.Notes = []string{"only scalar types ≤ 128 bits are lowered"}
	err.HelpText = "split the aggregate into scalar fields"
	err.Suggestions = []Suggestion{{Message: "use store_struct instead"}}

	out := reporter.FormatError(err)
	require.Contains(t, out, "note:")
	require.Contains(t, out, "help:")
	require.Contains(t, out, "use store_struct instead")
}
