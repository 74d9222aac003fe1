package ir

import "midenc/internal/adt"

// Loop is a natural loop: a header block plus the set of blocks that can
// reach the header without leaving the loop (spec.md §3's Loop
// information contract, "a loop forest identifying loop headers and loop
// membership").
type Loop struct {
	Header *Block
	Body   *adt.SmallSet[BlockID]
	Parent *Loop
}

// LoopForest answers loop-membership queries for a region, computed by
// detecting back edges (an edge p -> h where h dominates p, the standard
// natural-loop definition) and growing each loop's body backward through
// the CFG until the header is reached.
type LoopForest struct {
	headers map[BlockID]*Loop
	loopOf  map[BlockID]*Loop
}

// ComputeLoopForest builds the loop forest for region given its
// dominator tree and predecessor map.
func ComputeLoopForest(region *Region, dom *DomTree, preds map[BlockID][]Edge) *LoopForest {
	blockByID := make(map[BlockID]*Block, len(region.Blocks))
	for _, b := range region.Blocks {
		blockByID[b.ID] = b
	}

	lf := &LoopForest{headers: map[BlockID]*Loop{}, loopOf: map[BlockID]*Loop{}}

	// A back edge is (pred -> header) where header dominates pred.
	for _, b := range region.Blocks {
		term := b.Terminator()
		if term == nil {
			continue
		}
		for _, succ := range term.Successors {
			if dom.Dominates(succ, b) {
				loop := lf.headers[succ.ID]
				if loop == nil {
					loop = &Loop{Header: succ, Body: adt.NewSmallSet[BlockID](4)}
					loop.Body.Insert(succ.ID)
					lf.headers[succ.ID] = loop
				}
				growLoopBody(loop, b, preds, blockByID)
			}
		}
	}

	for id, loop := range lf.headers {
		for _, m := range loop.Body.Items() {
			if existing, ok := lf.loopOf[m]; !ok || loop.Body.Len() < existing.Body.Len() {
				lf.loopOf[m] = loop
			}
		}
		_ = id
	}
	return lf
}

// growLoopBody walks predecessors backward from the latch block, adding
// every block reachable without passing through the header again, which
// is the standard natural-loop body construction.
func growLoopBody(loop *Loop, latch *Block, preds map[BlockID][]Edge, blockByID map[BlockID]*Block) {
	if !loop.Body.Insert(latch.ID) {
		return
	}
	worklist := []*Block{latch}
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, e := range preds[b.ID] {
			if loop.Body.Insert(e.From) {
				worklist = append(worklist, blockByID[e.From])
			}
		}
	}
}

// IsHeader reports whether b heads a loop.
func (lf *LoopForest) IsHeader(b *Block) bool {
	_, ok := lf.headers[b.ID]
	return ok
}

// LoopOf returns the innermost loop containing b, if any.
func (lf *LoopForest) LoopOf(b *Block) (*Loop, bool) {
	l, ok := lf.loopOf[b.ID]
	return l, ok
}

// HasLoop reports whether the region (or the region graph reachable from
// a region-branch op) contains at least one loop — the predicate spec.md
// §4.1's inputs list as "a predicate has_loop on region-branch
// operations".
func (lf *LoopForest) HasLoop() bool { return len(lf.headers) > 0 }
