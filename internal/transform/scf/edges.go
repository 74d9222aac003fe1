package scf

import "midenc/internal/ir"

// CycleEdges classifies the edges around a detected cycle (loop): those
// entering it from outside, those leaving it, and the back edges that
// close it — ported from calculate_cycle_edges in
// original_source/hir2/src/transforms/cfg_to_scf.rs.
type CycleEdges struct {
	EntryEdges []ir.Edge
	ExitEdges  []ir.Edge
	BackEdges  []ir.Edge
}

// calculateCycleEdges classifies every edge touching the blocks in
// cycle: predecessors from outside are entry edges, successors leaving
// to outside are exit edges, and successors landing back on one of the
// cycle's entry blocks are back edges.
func calculateCycleEdges(blockByID map[ir.BlockID]*ir.Block, cycle map[ir.BlockID]bool, preds map[ir.BlockID][]ir.Edge) CycleEdges {
	var result CycleEdges
	entryBlocks := map[ir.BlockID]bool{}

	for id := range cycle {
		for _, e := range preds[id] {
			if cycle[e.From] {
				continue
			}
			result.EntryEdges = append(result.EntryEdges, e)
			entryBlocks[id] = true
		}

		b := blockByID[id]
		term := b.Terminator()
		for si, succ := range term.Successors {
			if cycle[succ.ID] {
				continue
			}
			result.ExitEdges = append(result.ExitEdges, ir.Edge{From: id, SuccIndex: si})
		}
	}

	for id := range cycle {
		b := blockByID[id]
		term := b.Terminator()
		for si, succ := range term.Successors {
			if !entryBlocks[succ.ID] {
				continue
			}
			result.BackEdges = append(result.BackEdges, ir.Edge{From: id, SuccIndex: si})
		}
	}

	return result
}

// isRegionExitBlock reports whether b has no successors (a return-like
// terminator), i.e. is one of the region's exit blocks.
func isRegionExitBlock(b *ir.Block) bool {
	term := b.Terminator()
	return term == nil || len(term.Successors) == 0
}
