// Package pipelinecfg holds the pipeline's tunable knobs, parsed the way
// kanso/cmd/kanso-cli parses its own arguments: plain flag.FlagSet, no
// configuration file format or third-party flags library, since the
// teacher never reaches for one either.
package pipelinecfg

import "flag"

// Config is the small set of parameters the pipeline driver carries: K
// is the stack-machine's operand-window size (spec.md §3's K, default 16
// felts), LoopBias is a loop-header max-pressure bias, and EmitTrace
// turns on the pipeline's debug-level trace lines (internal/log). The
// spill analysis uses its own fixed spill.K and applies no loop bias: K
// appears only in trace output, and no core reads LoopBias.
type Config struct {
	K         int
	LoopBias  float64
	EmitTrace bool
}

// Default returns the pipeline's out-of-the-box configuration: a
// 16-operand stack window and the original's 1.0 loop-pressure bias
// (hir2/src/dataflow/analyses/spills.rs never scales the raw loop
// pressure, so 1.0 reproduces that behavior while still being a named,
// overridable knob here).
func Default() Config {
	return Config{K: 16, LoopBias: 1.0, EmitTrace: false}
}

// RegisterFlags binds fs's flags to cfg's fields, for callers (cmd/midenc,
// cmd/midenc-pipelined) that want to expose the knobs on their own
// command line instead of accepting the defaults outright.
func (cfg *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&cfg.K, "k", cfg.K, "operand stack window size")
	fs.Float64Var(&cfg.LoopBias, "loop-bias", cfg.LoopBias, "loop-header max-pressure bias")
	fs.BoolVar(&cfg.EmitTrace, "trace", cfg.EmitTrace, "emit debug-level pipeline tracing")
}
