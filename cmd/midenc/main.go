// SPDX-License-Identifier: Apache-2.0
package main

import (
	stderrors "errors"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"midenc/internal/errors"
	"midenc/internal/log"
	"midenc/internal/pipeline"
	"midenc/internal/pipelinecfg"
	"midenc/internal/textir"
)

func main() {
	cfg := pipelinecfg.Default()
	fs := flag.NewFlagSet("midenc", flag.ExitOnError)
	cfg.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) < 1 {
		fmt.Println("Usage: midenc [flags] <file.ir>")
		os.Exit(1)
	}
	path := args[0]

	if cfg.EmitTrace {
		log.Configure(1)
	} else {
		log.Configure(0)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %s\n", err)
		os.Exit(1)
	}

	file, err := textir.ParseString(path, string(source))
	if err != nil {
		textir.ReportParseError(string(source), err)
		os.Exit(1)
	}

	fns, err := textir.Build(file)
	if err != nil {
		color.Red("build error: %s", err)
		os.Exit(1)
	}

	p := pipeline.New(cfg)
	reporter := errors.NewErrorReporter(path, string(source))

	failed := false
	for _, fn := range fns {
		result, err := p.Run(fn)
		if err != nil {
			reportCompilerError(reporter, path, err)
			failed = true
			continue
		}
		fmt.Printf("# func @%s\n%s\n", fn.Name, result.Print())
	}
	if failed {
		os.Exit(1)
	}

	color.Green("successfully compiled %s", path)
}

// reportCompilerError renders err with the same rustc-like diagnostic
// internal/errors.ErrorReporter produces when the pipeline failure
// wraps a CompilerError, falling back to a plain colored line for
// anything else (an I/O error, ...).
func reportCompilerError(reporter *errors.ErrorReporter, path string, err error) {
	var ce errors.CompilerError
	if stderrors.As(err, &ce) {
		fmt.Println(reporter.FormatError(ce))
		return
	}
	color.Red("%s: %s", path, err)
}
