// Package log gives each pipeline core a named logger, following the
// commonlog setup in kanso's LSP server entry point (cmd/kanso-lsp/main.go):
// a single process-wide Configure call, then GetLogger per component.
package log

import "github.com/tliron/commonlog"

// Names of the loggers used by the three cores and the pipeline driver.
const (
	Spill    = "midenc.spill"
	SCF      = "midenc.scf"
	MemLower = "midenc.memlower"
	Pipeline = "midenc.pipeline"
)

// Configure sets the process-wide log verbosity. 0 disables debug tracing;
// 1 enables it, matching commonlog.Configure(1, nil) in the teacher's LSP
// entry point.
func Configure(verbosity int) {
	commonlog.Configure(verbosity, nil)
}

// Get returns the named logger, creating it if this is the first use.
func Get(name string) commonlog.Logger {
	return commonlog.GetLogger(name)
}
