package textir

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

var fileParser = participle.MustBuild[File](
	participle.Lexer(TextIRLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(3),
)

// ParseString parses source (named filename for diagnostics) into a
// File of function declarations, mirroring grammar.ParseFile's
// ParseString call but taking already-read source so callers (the
// REPL, the LSP-shaped server) that don't have a path on disk can use
// it directly.
func ParseString(filename, source string) (*File, error) {
	return fileParser.ParseString(filename, source)
}

// ParseFile reads path and parses it, matching grammar.ParseFile's
// read-then-parse shape.
func ParseFile(path string) (*File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseString(path, string(source))
}

// ReportParseError prints a friendly caret-style parse error message
// for err against src, the same rendering grammar.reportParseError and
// kanso-cli's reportParseError both use.
func ReportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("Syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("-> %s\n", pe.Message())
}
