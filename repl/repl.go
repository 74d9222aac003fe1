// SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"midenc/internal/pipeline"
	"midenc/internal/pipelinecfg"
	"midenc/internal/textir"
)

const PROMPT = ">> "

// terminator ends one textual-IR submission: a lone "." on its own
// line, since (unlike the teacher's single-expression-per-line
// language) a function declaration spans multiple lines and bufio's
// line-at-a-time Scan can't tell where one ends on its own.
const terminator = "."

// Start rebuilds the teacher's REPL loop (which read one line at a
// time into kanso-lang/lexer and kanso-lang/parser, both of which no
// longer exist under that module path) around this module's own
// pipeline: it accumulates lines into a buffer until the terminator,
// parses the buffer as textual IR, and runs every function it
// declares through the pipeline, printing the lowered MASM for each.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	cfg := pipelinecfg.Default()
	p := pipeline.New(cfg)

	var buf strings.Builder
	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == terminator {
			evalAndPrint(out, p, buf.String())
			buf.Reset()
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
}

func evalAndPrint(out io.Writer, p *pipeline.Pipeline, source string) {
	if strings.TrimSpace(source) == "" {
		return
	}

	file, err := textir.ParseString("<repl>", source)
	if err != nil {
		textir.ReportParseError(source, err)
		return
	}

	fns, err := textir.Build(file)
	if err != nil {
		fmt.Fprintf(out, "build error: %s\n", err)
		return
	}

	for _, fn := range fns {
		result, err := p.Run(fn)
		if err != nil {
			fmt.Fprintf(out, "pipeline error: %s\n", err)
			continue
		}
		fmt.Fprintf(out, "# func @%s\n%s\n", fn.Name, result.Print())
	}
}
