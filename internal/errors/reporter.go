// Package errors renders diagnostics for the three backend cores in the
// same rustc-like style as kanso/internal/errors, re-pointed at IR
// positions instead of AST positions. The error kinds named here
// correspond to spec.md §7's table: malformed IR, unsupported
// lowering shape, and interface-callback failure (runtime overflow traps
// are a target-program fault, not a host diagnostic, and are not
// represented here).
package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of a diagnostic.
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// Error codes for the kinds of failure the cores can produce (spec.md §7).
const (
	CodeMalformedIR         = "E-IR001"
	CodeUnsupportedLowering = "E-IR002"
	CodeInterfaceCallback   = "E-IR003"
)

// CompilerError is a structured diagnostic with suggestions and context.
type CompilerError struct {
	Level       ErrorLevel
	Code        string
	Message     string
	Position    Position
	Length      int
	Suggestions []Suggestion
	Notes       []string
	HelpText    string
}

// Error implements the error interface so a CompilerError can be
// returned directly from the cores' fallible operations (spec.md §7),
// rather than only ever being collected into a diagnostic list.
func (e CompilerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: [%s] %s", e.Level, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Level, e.Message)
}

// Suggestion represents a suggested fix.
type Suggestion struct {
	Message     string
	Replacement string
	Position    Position
	Length      int
}

// MalformedIR builds a diagnostic for a spill-analysis or CFG-to-SCF
// precondition violation.
func MalformedIR(pos Position, message string) CompilerError {
	return CompilerError{Level: Error, Code: CodeMalformedIR, Message: message, Position: pos}
}

// UnsupportedLowering builds a diagnostic for an unimplemented memory
// lowering case.
func UnsupportedLowering(pos Position, message string) CompilerError {
	return CompilerError{Level: Error, Code: CodeUnsupportedLowering, Message: message, Position: pos}
}

// InterfaceCallbackFailure builds a diagnostic for a CFG-to-SCF interface
// callback that returned an error.
func InterfaceCallbackFailure(pos Position, message string) CompilerError {
	return CompilerError{Level: Error, Code: CodeInterfaceCallback, Message: message, Position: pos}
}

// ErrorReporter formats diagnostics against the source text they refer to.
type ErrorReporter struct {
	filename string
	source   string
	lines    []string
}

// NewErrorReporter creates a reporter for a file's source (or textual IR
// dump) so diagnostics can show context lines.
func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{
		filename: filename,
		source:   source,
		lines:    strings.Split(source, "\n"),
	}
}

// FormatError formats a diagnostic with Rust-like styling and suggestions.
func (er *ErrorReporter) FormatError(err CompilerError) string {
	var result strings.Builder

	levelColor := er.getLevelColor(err.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if err.Code != "" {
		result.WriteString(fmt.Sprintf("%s[%s]: %s\n",
			levelColor(string(err.Level)), err.Code, err.Message))
	} else {
		result.WriteString(fmt.Sprintf("%s: %s\n",
			levelColor(string(err.Level)), err.Message))
	}

	lineNumberWidth := er.getLineNumberWidth(err.Position.Line)
	indent := strings.Repeat(" ", lineNumberWidth)

	result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n",
		indent, dim("-->"), er.filename, err.Position.Line, err.Position.Column))

	result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	if err.Position.Line > 1 && err.Position.Line-1 < len(er.lines) {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", lineNumberWidth, err.Position.Line-1)),
			dim("│"),
			er.lines[err.Position.Line-2]))
	}

	if err.Position.Line <= len(er.lines) && err.Position.Line > 0 {
		lineContent := er.lines[err.Position.Line-1]
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", lineNumberWidth, err.Position.Line)),
			dim("│"),
			lineContent))

		marker := er.createMarker(err.Position.Column, err.Length, err.Level)
		result.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), marker))
	}

	if err.Position.Line < len(er.lines) {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", lineNumberWidth, err.Position.Line+1)),
			dim("│"),
			er.lines[err.Position.Line]))
	}

	if len(err.Suggestions) > 0 {
		result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))
		for i, suggestion := range err.Suggestions {
			suggestionColor := color.New(color.FgCyan).SprintFunc()

			if i == 0 {
				result.WriteString(fmt.Sprintf("%s %s %s: %s\n",
					indent, suggestionColor("help"), suggestionColor("try"), suggestion.Message))
			} else {
				result.WriteString(fmt.Sprintf("%s %s %s\n",
					indent, suggestionColor("    "), suggestion.Message))
			}

			if suggestion.Replacement != "" {
				result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))
				replacement := strings.ReplaceAll(suggestion.Replacement, "\n", fmt.Sprintf("\n%s %s ", indent, dim("│")))
				result.WriteString(fmt.Sprintf("%s %s %s\n",
					indent, suggestionColor("│"), suggestionColor(replacement)))
			}
		}
	}

	for _, note := range err.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n",
			indent, dim("│"), noteColor("note:"), note))
	}

	if err.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n",
			indent, dim("│"), helpColor("help:"), err.HelpText))
	}

	result.WriteString("\n")
	return result.String()
}

func (er *ErrorReporter) getLevelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func (er *ErrorReporter) createMarker(column, length int, level ErrorLevel) string {
	if length <= 0 {
		length = 1
	}

	spaces := strings.Repeat(" ", max(0, column-1))

	var markerChar string
	var markerColor func(...interface{}) string

	switch level {
	case Error:
		markerChar = "^"
		markerColor = color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		markerChar = "^"
		markerColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	default:
		markerChar = "^"
		markerColor = color.New(color.FgRed, color.Bold).SprintFunc()
	}

	marker := strings.Repeat(markerChar, length)
	return spaces + markerColor(marker)
}

func (er *ErrorReporter) getLineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3
	}
	return width
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
