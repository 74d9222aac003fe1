package scf

import "midenc/internal/ir"

// transformToStructuredCFBranches finds the first block in region whose
// terminator branches to more than one successor, partitions the
// blocks dominated by each outgoing edge into its own branch region,
// and replaces the branch with a structured branch-region op — ported
// from transform_to_structured_cf_branches. Returns the bodies of any
// newly created branch regions for recursive processing.
func (tc *context) transformToStructuredCFBranches(region *ir.Region) ([]*ir.Region, error) {
	preds := tc.fn.Predecessors(region)
	dom := ir.Dominators(region, preds)
	rpo := dom.RPO()

	for _, b := range rpo {
		term := b.Terminator()
		if term == nil || !term.IsBranch() || len(term.Successors) < 2 {
			continue
		}
		return tc.liftBranch(region, b, term)
	}
	return nil, nil
}

// liftBranch partitions region's blocks reachable from branchBlock's
// successors into one sub-region per successor edge (stopping at the
// first block reachable from more than one edge, the merge point T),
// builds a structured branch-region op replacing the branch, and
// splices T's own operations back into branchBlock as the fallthrough.
func (tc *context) liftBranch(region *ir.Region, branchBlock *ir.Block, term *ir.Op) ([]*ir.Region, error) {
	owner := map[ir.BlockID]int{}
	var mergeID ir.BlockID
	hasMerge := false

	blockByID := make(map[ir.BlockID]*ir.Block, len(region.Blocks))
	inRegion := make(map[ir.BlockID]bool, len(region.Blocks))
	for _, b := range region.Blocks {
		blockByID[b.ID] = b
		inRegion[b.ID] = true
	}

	for edgeIdx, succ := range term.Successors {
		if succ.ID == branchBlock.ID {
			continue
		}
		if o, seen := owner[succ.ID]; seen && o != edgeIdx {
			mergeID = succ.ID
			hasMerge = true
			continue
		}
		var stack []*ir.Block
		if _, seen := owner[succ.ID]; !seen {
			owner[succ.ID] = edgeIdx
			stack = append(stack, succ)
		}
		for len(stack) > 0 {
			b := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			bt := b.Terminator()
			if bt == nil {
				continue
			}
			for _, s := range bt.Successors {
				if !inRegion[s.ID] {
					continue
				}
				if o, seen := owner[s.ID]; seen {
					if o != edgeIdx && !hasMerge {
						mergeID = s.ID
						hasMerge = true
					}
					continue
				}
				owner[s.ID] = edgeIdx
				stack = append(stack, s)
			}
		}
	}

	span := tc.span(region)
	regions := make([]*ir.Region, len(term.Successors))
	var bodies []*ir.Region
	var mergeArgsPerEdge [][]*ir.Value

	for edgeIdx := range term.Successors {
		succ := term.Successors[edgeIdx]
		body := tc.fn.NewRegion(nil)
		var blocks []*ir.Block
		if succ.ID != mergeID {
			blocks = append(blocks, succ)
		} else {
			// The successor itself is the merge block on this edge: this
			// branch region is empty and needs its own dedicated block
			// to host the terminator (it cannot reuse branchBlock, which
			// is still being dismantled).
			blocks = append(blocks, tc.fn.NewBlock(body))
		}
		for _, b := range region.Blocks {
			if b.ID == succ.ID {
				continue
			}
			if o, ok := owner[b.ID]; ok && o == edgeIdx && b.ID != mergeID {
				blocks = append(blocks, b)
			}
		}
		body.Blocks = blocks
		for _, b := range blocks {
			b.Parent = body
		}

		var mergeArgs []*ir.Value
		if succ.ID == mergeID {
			// Arguments come directly from the branch op's own
			// successor-argument group for this edge.
			mergeArgs = term.SuccessorArgs[edgeIdx]
		} else if hasMerge && len(blocks) > 0 {
			last := blocks[len(blocks)-1]
			if bt := last.Terminator(); bt != nil {
				for si, s := range bt.Successors {
					if s.ID == mergeID {
						mergeArgs = bt.SuccessorArgs[si]
					}
				}
			}
		}
		mergeArgsPerEdge = append(mergeArgsPerEdge, mergeArgs)

		regions[edgeIdx] = body
		bodies = append(bodies, body)
	}

	var resultTypes []ir.Type
	if hasMerge {
		merge := blockByID[mergeID]
		resultTypes = make([]ir.Type, len(merge.Args))
		for i, a := range merge.Args {
			resultTypes[i] = a.Type
		}
	}

	// branchBlock's old branching terminator is being replaced; drop it
	// before the interface appends the new structured op in its place.
	branchBlock.Ops = branchBlock.Ops[:len(branchBlock.Ops)-1]

	branchOp, err := tc.iface.CreateStructuredBranchRegionOp(span, branchBlock, term, resultTypes, regions)
	if err != nil {
		return nil, err
	}

	// Each branch region's terminator references the now-existing
	// branchOp, per the interface's create-op-then-terminate ordering,
	// and replaces that region's own last block's old terminator (its
	// real edge into mergeID, or — for the dedicated empty-block case —
	// nothing at all).
	for edgeIdx := range regions {
		body := regions[edgeIdx]
		last := body.Blocks[len(body.Blocks)-1]
		if oldTerm := last.Terminator(); oldTerm != nil {
			last.Ops = last.Ops[:len(last.Ops)-1]
		}
		if err := tc.iface.CreateStructuredBranchRegionTerminatorOp(span, last, branchOp, term, mergeArgsPerEdge[edgeIdx]); err != nil {
			return nil, err
		}
	}

	// Remove the lifted blocks from the parent region; if there is a
	// merge point, splice that block's own ops in as the fallthrough
	// after the new structured op.
	lifted := map[ir.BlockID]bool{}
	for _, body := range bodies {
		for _, b := range body.Blocks {
			lifted[b.ID] = true
		}
	}
	remaining := region.Blocks[:0:0]
	for _, b := range region.Blocks {
		if !lifted[b.ID] && b.ID != mergeID {
			remaining = append(remaining, b)
		}
	}
	region.Blocks = remaining

	if hasMerge {
		merge := blockByID[mergeID]
		// Bind the merge block's former parameters to the branch op's
		// results, then append its operations directly onto
		// branchBlock (it is now unreachable as an independent block).
		for i, arg := range merge.Args {
			for _, use := range arg.Uses {
				if use.Index >= 0 && use.Index < len(use.Op.Operands) {
					use.Op.Operands[use.Index] = branchOp.Results[i]
				}
			}
		}
		branchBlock.Ops = append(branchBlock.Ops, merge.Ops...)
		for _, op := range merge.Ops {
			op.Parent = branchBlock
		}
	} else {
		// No branch arm reconverges (every arm returns or loops on its
		// own), so branchOp — not itself a terminator — leaves
		// branchBlock without one; mark it unreachable after the
		// structured op, mirroring the original's handling of a
		// statically infinite construct falling through nowhere.
		if _, err := tc.iface.CreateUnreachableTerminator(span, branchBlock, region); err != nil {
			return nil, err
		}
	}

	return bodies, nil
}
