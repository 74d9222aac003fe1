// Package pipeline orchestrates the three backend cores over a function,
// in the order spec.md's GLOSSARY fixes: CFG-to-SCF lifting runs first
// (so the spill analysis only ever sees reducible, structured loops),
// then spill/reload analysis, then stack-machine memory lowering of the
// spills and reloads it placed. It is grounded in
// original_source/hir2's `PassManager`/`AnalysisManager` pairing (spec.md
// §6 interface 4), rendered without a generic pass-registration
// machinery since this module only ever runs these three fixed passes.
package pipeline

import (
	"midenc/internal/analysis/spill"
	"midenc/internal/ir"
	"midenc/internal/pipelinecfg"
)

// Manager is the analysis-manager interface of spec.md §6 item 4,
// scoped to one region: get_analysis<A>() -> &A becomes one typed
// accessor per analysis kind (dominance, liveness, loop forest, spill),
// each computed lazily and cached; nest(op) becomes NestRegion, handed
// the child region of a region-owning op.
type Manager struct {
	fn     *ir.Function
	region *ir.Region
	cfg    pipelinecfg.Config
	parent *Manager

	preds    map[ir.BlockID][]ir.Edge
	dom      *ir.DomTree
	liveness *ir.Liveness
	loops    *ir.LoopForest
	reach    *ir.Reachability
	spillRes *spill.Analysis
}

// NewManager creates the manager for fn's top-level region.
func NewManager(fn *ir.Function, cfg pipelinecfg.Config) *Manager {
	return newManagerFor(fn, fn.Entry, cfg, nil)
}

func newManagerFor(fn *ir.Function, region *ir.Region, cfg pipelinecfg.Config, parent *Manager) *Manager {
	return &Manager{fn: fn, region: region, cfg: cfg, parent: parent}
}

// Region returns the region this manager is scoped to.
func (m *Manager) Region() *ir.Region { return m.region }

// NestRegion yields a child-scoped manager over one of op's regions,
// corresponding to the original's `nest(op)` — analyses computed in the
// parent manager (dominance, liveness, ...) are never reused across the
// nesting boundary, since a region-owning op's nested region has its own
// independent block graph.
func (m *Manager) NestRegion(region *ir.Region) *Manager {
	return newManagerFor(m.fn, region, m.cfg, m)
}

func (m *Manager) Predecessors() map[ir.BlockID][]ir.Edge {
	if m.preds == nil {
		m.preds = m.fn.Predecessors(m.region)
	}
	return m.preds
}

func (m *Manager) Dominance() *ir.DomTree {
	if m.dom == nil {
		m.dom = ir.Dominators(m.region, m.Predecessors())
	}
	return m.dom
}

func (m *Manager) Liveness() *ir.Liveness {
	if m.liveness == nil {
		m.liveness = ir.ComputeLiveness(m.region, m.Predecessors())
	}
	return m.liveness
}

func (m *Manager) Loops() *ir.LoopForest {
	if m.loops == nil {
		m.loops = ir.ComputeLoopForest(m.region, m.Dominance(), m.Predecessors())
	}
	return m.loops
}

func (m *Manager) Reachability() *ir.Reachability {
	if m.reach == nil {
		m.reach = ir.ComputeReachability(m.region)
	}
	return m.reach
}

// Spill runs (and caches) the spill/reload analysis over this manager's
// region, depending on Dominance/Loops/Liveness exactly as spec.md §4.1
// lists them among spill's external collaborators.
func (m *Manager) Spill() *spill.Analysis {
	if m.spillRes == nil {
		m.spillRes = spill.Analyze(m.fn, m.Dominance(), m.Loops(), m.Liveness(), m.Predecessors())
	}
	return m.spillRes
}
