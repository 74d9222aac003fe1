package ir

// LoopExitDistance is the sentinel next-use distance the spill analysis
// uses to mark a value whose next use lies outside the current loop body
// (spec.md §4.1's liveness contract distinguishes "next use inside the
// loop" from "next use after the loop exits" so the MIN algorithm can
// prefer keeping loop-invariant-hot values resident across the back
// edge). It must compare greater than any finite in-loop distance.
const LoopExitDistance = 1 << 30

// Liveness answers per-block live-in/live-out and next-use-distance
// queries, computed with the standard iterative backward dataflow over a
// region's blocks, grounded in the same worklist shape
// fkuehnel-golang-cfg/go-code/regalloc.go uses for its own liveness pass.
type Liveness struct {
	region *Region
	preds  map[BlockID][]Edge

	liveIn  map[BlockID]*valueSet
	liveOut map[BlockID]*valueSet

	// useDistance[block] gives, for every value live at the start of
	// block, the number of operations from the start of block to its
	// first use reached by walking forward (used to approximate
	// next-use distance from an arbitrary program point).
	useDistance map[BlockID]map[ValueID]int

	// usePositions[block][value] lists every operand-list position
	// (0-indexed by block.Ops) at which value is used, in increasing
	// order — needed to answer IsLiveBefore/IsLiveAfter/NextUseAfter
	// precisely rather than only from the start of the block.
	usePositions map[BlockID]map[ValueID][]int

	opPos map[OpID]int
}

type valueSet struct{ m map[ValueID]*Value }

func newValueSet() *valueSet { return &valueSet{m: map[ValueID]*Value{}} }
func (s *valueSet) add(v *Value) bool {
	if _, ok := s.m[v.ID]; ok {
		return false
	}
	s.m[v.ID] = v
	return true
}
func (s *valueSet) has(v ValueID) bool { _, ok := s.m[v]; return ok }
func (s *valueSet) clone() *valueSet {
	n := newValueSet()
	for k, v := range s.m {
		n.m[k] = v
	}
	return n
}
func (s *valueSet) equal(o *valueSet) bool {
	if len(s.m) != len(o.m) {
		return false
	}
	for k := range s.m {
		if _, ok := o.m[k]; !ok {
			return false
		}
	}
	return true
}

// blockUsesAndDefs returns the values used by block's operations
// (operands and terminator successor-args), in program order, and the
// values the block itself defines (results + block args), used to kill liveness
// propagation at the definition point.
func blockUsesAndDefs(b *Block) (uses []*Value, defs map[ValueID]bool) {
	defs = map[ValueID]bool{}
	for _, a := range b.Args {
		defs[a.ID] = true
	}
	for _, op := range b.Ops {
		for _, v := range op.Operands {
			uses = append(uses, v)
		}
		for _, group := range op.SuccessorArgs {
			uses = append(uses, group...)
		}
		for _, r := range op.Results {
			defs[r.ID] = true
		}
	}
	return uses, defs
}

// ComputeLiveness runs the fixed-point liveness computation for region.
func ComputeLiveness(region *Region, preds map[BlockID][]Edge) *Liveness {
	l := &Liveness{
		region:       region,
		preds:        preds,
		liveIn:       map[BlockID]*valueSet{},
		liveOut:      map[BlockID]*valueSet{},
		useDistance:  map[BlockID]map[ValueID]int{},
		usePositions: map[BlockID]map[ValueID][]int{},
		opPos:        map[OpID]int{},
	}

	succOf := make(map[BlockID][]*Block, len(region.Blocks))
	for _, b := range region.Blocks {
		if t := b.Terminator(); t != nil {
			succOf[b.ID] = t.Successors
		}
	}

	for _, b := range region.Blocks {
		l.liveIn[b.ID] = newValueSet()
		l.liveOut[b.ID] = newValueSet()
	}

	changed := true
	for changed {
		changed = false
		for i := len(region.Blocks) - 1; i >= 0; i-- {
			b := region.Blocks[i]
			out := newValueSet()
			for _, s := range succOf[b.ID] {
				for k, v := range l.liveIn[s.ID].m {
					_ = k
					out.add(v)
				}
			}
			uses, defs := blockUsesAndDefs(b)
			in := out.clone()
			for _, v := range uses {
				in.add(v)
			}
			for id := range defs {
				delete(in.m, id)
			}
			if !in.equal(l.liveIn[b.ID]) {
				l.liveIn[b.ID] = in
				changed = true
			}
			if !out.equal(l.liveOut[b.ID]) {
				l.liveOut[b.ID] = out
				changed = true
			}
		}
	}

	for _, b := range region.Blocks {
		for pos, op := range b.Ops {
			l.opPos[op.ID] = pos
		}
		positions := map[ValueID][]int{}
		for pos, op := range b.Ops {
			for _, v := range op.Operands {
				positions[v.ID] = append(positions[v.ID], pos)
			}
			for _, group := range op.SuccessorArgs {
				for _, v := range group {
					positions[v.ID] = append(positions[v.ID], pos)
				}
			}
		}
		l.usePositions[b.ID] = positions

		dist := map[ValueID]int{}
		for id, ps := range positions {
			dist[id] = ps[0]
		}
		l.useDistance[b.ID] = dist
	}

	return l
}

// OpPosition returns op's index within its parent block's operation
// list.
func (l *Liveness) OpPosition(op *Op) int { return l.opPos[op.ID] }

// IsLiveBefore reports whether v is live immediately before op executes:
// either it has a use at or after op's position in the same block, or it
// flows into the block from a successor (live-out) with no in-block use
// recorded at all (meaning its only uses are further down the CFG).
func (l *Liveness) IsLiveBefore(v ValueID, op *Op) bool {
	b := op.Parent
	pos := l.opPos[op.ID]
	positions := l.usePositions[b.ID][v]
	for _, p := range positions {
		if p >= pos {
			return true
		}
	}
	if len(positions) == 0 && l.liveOut[b.ID].has(v) {
		return true
	}
	return false
}

// IsLiveAfter reports whether v is live immediately after op executes:
// used strictly later in the block, or live-out with no remaining
// in-block use after pos.
func (l *Liveness) IsLiveAfter(v ValueID, op *Op) bool {
	b := op.Parent
	pos := l.opPos[op.ID]
	positions := l.usePositions[b.ID][v]
	for _, p := range positions {
		if p > pos {
			return true
		}
	}
	if l.liveOut[b.ID].has(v) {
		// Only live-after if there is no later use to fully satisfy
		// (live-out is always later than any in-block position).
		return true
	}
	return false
}

// NextUseAfter returns the distance, in operations, from op to v's next
// use strictly after op, or LoopExitDistance if the next use is outside
// this block (including the case where v is live-out with no further
// in-block use).
func (l *Liveness) NextUseAfter(v ValueID, op *Op) int {
	b := op.Parent
	pos := l.opPos[op.ID]
	best := -1
	for _, p := range l.usePositions[b.ID][v] {
		if p > pos && (best == -1 || p < best) {
			best = p
		}
	}
	if best != -1 {
		return best - pos
	}
	return LoopExitDistance
}

func (l *Liveness) LiveIn(b *Block) []*Value  { return l.valuesOf(l.liveIn[b.ID]) }
func (l *Liveness) LiveOut(b *Block) []*Value { return l.valuesOf(l.liveOut[b.ID]) }

func (l *Liveness) valuesOf(s *valueSet) []*Value {
	if s == nil {
		return nil
	}
	out := make([]*Value, 0, len(s.m))
	for _, v := range s.m {
		out = append(out, v)
	}
	return out
}

func (l *Liveness) IsLiveIn(b *Block, v ValueID) bool  { return l.liveIn[b.ID].has(v) }
func (l *Liveness) IsLiveOut(b *Block, v ValueID) bool { return l.liveOut[b.ID].has(v) }

// NextUseDistance estimates the distance, in operations, from pp to v's
// next use within pp's block, or LoopExitDistance if the nearest use
// lies in a successor block (the cross-block case is resolved by the
// spill analysis itself, which walks the CFG in dominator-tree order and
// recomputes this per block; a value live-out with no further in-block
// use is reported at LoopExitDistance so it is treated as "used later,
// outside this block" by the MIN tiebreak in spec.md §4.1 step 3).
func (l *Liveness) NextUseDistance(b *Block, v ValueID, fromPos int) int {
	dist, ok := l.useDistance[b.ID][v]
	if ok && dist >= fromPos {
		return dist - fromPos
	}
	if l.liveOut[b.ID].has(v) {
		return LoopExitDistance
	}
	return LoopExitDistance
}
