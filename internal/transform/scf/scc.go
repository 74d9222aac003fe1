package scf

import "midenc/internal/ir"

// tarjanSCCs computes the strongly connected components of region's
// block graph, in reverse-topological order, using Tarjan's algorithm —
// the SCC-iteration step cycle lifting needs to find every top-level
// loop (spec.md §5's "detect cycles via an algorithm for iterating over
// SCCs").
func tarjanSCCs(region *ir.Region) [][]ir.BlockID {
	inRegion := make(map[ir.BlockID]bool, len(region.Blocks))
	for _, b := range region.Blocks {
		inRegion[b.ID] = true
	}

	idx := map[ir.BlockID]int{}
	low := map[ir.BlockID]int{}
	onStack := map[ir.BlockID]bool{}
	var stack []ir.BlockID
	counter := 0
	var sccs [][]ir.BlockID

	var strongconnect func(b *ir.Block)
	strongconnect = func(b *ir.Block) {
		idx[b.ID] = counter
		low[b.ID] = counter
		counter++
		stack = append(stack, b.ID)
		onStack[b.ID] = true

		term := b.Terminator()
		if term != nil {
			for _, succ := range term.Successors {
				// A loop latch's exit edge may target a block outside
				// this region (the carved-out loop body's successors
				// live in the enclosing region); cycle detection is
				// only meaningful within region's own blocks.
				if !inRegion[succ.ID] {
					continue
				}
				if _, visited := idx[succ.ID]; !visited {
					strongconnect(succ)
					if low[succ.ID] < low[b.ID] {
						low[b.ID] = low[succ.ID]
					}
				} else if onStack[succ.ID] {
					if idx[succ.ID] < low[b.ID] {
						low[b.ID] = idx[succ.ID]
					}
				}
			}
		}

		if low[b.ID] == idx[b.ID] {
			var scc []ir.BlockID
			for {
				n := len(stack) - 1
				top := stack[n]
				stack = stack[:n]
				onStack[top] = false
				scc = append(scc, top)
				if top == b.ID {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, b := range region.Blocks {
		if _, visited := idx[b.ID]; !visited {
			strongconnect(b)
		}
	}

	return sccs
}

// isCycle reports whether scc is a genuine loop: more than one block,
// or a single block with a self-edge.
func isCycle(scc []ir.BlockID, blockByID map[ir.BlockID]*ir.Block) bool {
	if len(scc) > 1 {
		return true
	}
	b := blockByID[scc[0]]
	term := b.Terminator()
	if term == nil {
		return false
	}
	for _, succ := range term.Successors {
		if succ.ID == b.ID {
			return true
		}
	}
	return false
}
