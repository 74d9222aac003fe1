package repl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartParsesAndLowersOneFunction(t *testing.T) {
	input := strings.NewReader(
		"func @f {\n" +
			"bb0:\n" +
			"  %c = const 1 : felt\n" +
			"  return %c\n" +
			"}\n" +
			".\n",
	)
	var out strings.Builder
	Start(input, &out)

	require.Contains(t, out.String(), "func @f")
}

func TestStartReportsSyntaxErrorsWithoutPanicking(t *testing.T) {
	input := strings.NewReader("func @f {\nbb0\n.\n")
	var out strings.Builder
	require.NotPanics(t, func() {
		Start(input, &out)
	})
}
