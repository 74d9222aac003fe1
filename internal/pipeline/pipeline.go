package pipeline

import (
	"fmt"

	"midenc/internal/ir"
	"midenc/internal/log"
	"midenc/internal/masm"
	"midenc/internal/pipelinecfg"
	"midenc/internal/transform/scf"
)

// Pipeline runs the three backend cores over a function in the fixed
// order spec.md's GLOSSARY establishes, grounded in
// original_source/hir2's own top-level `run_pipeline` driver (which
// likewise lifts structured control flow before running any dataflow
// analysis over it): CFG-to-SCF lifting, then spill/reload analysis,
// then stack-machine memory lowering of the placements the analysis
// produced.
type Pipeline struct {
	cfg pipelinecfg.Config
}

// New creates a Pipeline from cfg.
func New(cfg pipelinecfg.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Result bundles the pipeline's per-function output: the Manager used
// to run its analyses (kept around so a caller can re-query Dominance,
// Liveness, Loops, Spill after the fact), and the lowered MASM block
// emitted for its placed spills and reloads.
type Result struct {
	Manager *Manager
	MASM    *masm.Block
	Changed bool
}

// Run lifts fn's entry region to structured control flow, computes its
// spill/reload plan, and lowers that plan to MASM. Errors from any
// stage are wrapped with the function's name so a caller reporting
// across many functions can tell them apart.
func (p *Pipeline) Run(fn *ir.Function) (*Result, error) {
	logger := log.Get(log.Pipeline)
	if p.cfg.EmitTrace {
		logger.Debugf("pipeline: starting %s (k=%d)", fn.Name, p.cfg.K)
	}

	changed, err := scf.Transform(fn, fn.Entry, newSCFInterface(fn))
	if err != nil {
		return nil, fmt.Errorf("pipeline: cfg-to-scf lifting of %q: %w", fn.Name, err)
	}

	mgr := NewManager(fn, p.cfg)
	analysis := mgr.Spill()
	if p.cfg.EmitTrace {
		logger.Debugf("pipeline: %s has %d spills, %d reloads", fn.Name, len(analysis.Spills()), len(analysis.Reloads()))
	}

	block := masm.NewBlock()
	if errs := LowerSpills(fn, analysis, block); len(errs) > 0 {
		return nil, fmt.Errorf("pipeline: memory lowering of %q: %w", fn.Name, errs[0])
	}

	return &Result{Manager: mgr, MASM: block, Changed: changed}, nil
}

// Print renders r's lowered MASM block in the textual form
// internal/masm.Print defines.
func (r *Result) Print() string {
	return masm.Print(r.MASM)
}
