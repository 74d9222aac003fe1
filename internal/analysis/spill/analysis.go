package spill

import (
	"fmt"
	"sort"

	"midenc/internal/adt"
	"midenc/internal/errors"
	"midenc/internal/ir"
	"midenc/internal/log"
)

// Analysis is the computed spill/reload plan for a function, and the
// query surface spec.md §4.1's contract table describes.
type Analysis struct {
	fn *ir.Function

	splits  []SplitInfo
	spilled map[ir.ValueID]bool
	spills  []SpillInfo
	reloads []ReloadInfo

	placedSpills  map[placedKey]SpillID
	placedReloads map[placedKey]ReloadID

	wEntry map[ir.BlockID][]Operand
	wExit  map[ir.BlockID][]Operand
	sEntry map[ir.BlockID][]Operand
	sExit  map[ir.BlockID][]Operand
}

func newAnalysis(fn *ir.Function) *Analysis {
	return &Analysis{
		fn:            fn,
		spilled:       map[ir.ValueID]bool{},
		placedSpills:  map[placedKey]SpillID{},
		placedReloads: map[placedKey]ReloadID{},
		wEntry:        map[ir.BlockID][]Operand{},
		wExit:         map[ir.BlockID][]Operand{},
		sEntry:        map[ir.BlockID][]Operand{},
		sExit:         map[ir.BlockID][]Operand{},
	}
}

// Queries

func (a *Analysis) HasSpills() bool { return len(a.spills) > 0 }

func (a *Analysis) Splits() []SplitInfo { return a.splits }

func (a *Analysis) GetSplit(id SplitID) SplitInfo { return a.splits[id] }

func (a *Analysis) Spilled() []ir.ValueID {
	out := make([]ir.ValueID, 0, len(a.spilled))
	for v := range a.spilled {
		out = append(out, v)
	}
	return out
}

func (a *Analysis) IsSpilled(v ir.ValueID) bool { return a.spilled[v] }

func (a *Analysis) IsSpilledAt(v ir.ValueID, place Placement) bool {
	_, ok := a.placedSpills[keyOf(place, v)]
	return ok
}

// IsSpilledInSplit reports whether v is spilled in the (not yet
// necessarily materialized) split block identified by split.
func (a *Analysis) IsSpilledInSplit(v ir.ValueID, split SplitID) bool {
	_, ok := a.placedSpills[keyOf(AtSplit(split), v)]
	return ok
}

func (a *Analysis) Spills() []SpillInfo { return a.spills }

func (a *Analysis) IsReloaded(v ir.ValueID) bool {
	for _, r := range a.reloads {
		if r.Value == v {
			return true
		}
	}
	return false
}

func (a *Analysis) IsReloadedAt(v ir.ValueID, place Placement) bool {
	_, ok := a.placedReloads[keyOf(place, v)]
	return ok
}

// IsReloadedInSplit reports whether v is reloaded in the split block
// identified by split.
func (a *Analysis) IsReloadedInSplit(v ir.ValueID, split SplitID) bool {
	_, ok := a.placedReloads[keyOf(AtSplit(split), v)]
	return ok
}

func (a *Analysis) Reloads() []ReloadInfo { return a.reloads }

func (a *Analysis) WEntry(b ir.BlockID) []Operand { return a.wEntry[b] }
func (a *Analysis) WExit(b ir.BlockID) []Operand  { return a.wExit[b] }
func (a *Analysis) SEntry(b ir.BlockID) []Operand { return a.sEntry[b] }
func (a *Analysis) SExit(b ir.BlockID) []Operand  { return a.sExit[b] }

func (a *Analysis) SetMaterializedSplit(id SplitID, b ir.BlockID) {
	a.splits[id].Materialized = &b
}

func (a *Analysis) SetMaterializedSpill(id SpillID, op ir.OpID) { a.spills[id].Inst = &op }
func (a *Analysis) SetMaterializedReload(id ReloadID, op ir.OpID) { a.reloads[id].Inst = &op }

// spill/reload record a new entry, deduplicating by (placement, value).
func (a *Analysis) spill(place Placement, value ir.ValueID, span errors.Position) SpillID {
	key := keyOf(place, value)
	if id, ok := a.placedSpills[key]; ok {
		return id
	}
	id := SpillID(len(a.spills))
	a.spills = append(a.spills, SpillInfo{ID: id, Place: place, Value: value, Span: span})
	a.placedSpills[key] = id
	a.spilled[value] = true
	return id
}

func (a *Analysis) reload(place Placement, value ir.ValueID, span errors.Position) ReloadID {
	key := keyOf(place, value)
	if id, ok := a.placedReloads[key]; ok {
		return id
	}
	id := ReloadID(len(a.reloads))
	a.reloads = append(a.reloads, ReloadInfo{ID: id, Place: place, Value: value, Span: span})
	a.placedReloads[key] = id
	return id
}

// splitEdge returns (creating if necessary) the SplitID for the given
// CfgEdge, called by reconcileEdges whenever an edge needs spills or
// reloads of its own, distinct from either endpoint block's own MIN step.
func (a *Analysis) splitEdge(edge CfgEdge) SplitID {
	for _, s := range a.splits {
		if s.Edge == edge {
			return s.ID
		}
	}
	id := SplitID(len(a.splits))
	a.splits = append(a.splits, SplitInfo{ID: id, Edge: edge})
	return id
}

// Analyze computes the spill/reload plan for fn's entry region: a
// dominator-tree-order walk (spec.md §4.1's visitation order) that
// threads the W (working set) / S (spilled set) state through each
// block, applying the MIN algorithm to every operation, then
// reconciling every control-flow edge (step 3) so that the W/S state
// assumed on entry to a block is made accurate regardless of which
// predecessor edge was actually taken to reach it — ported from
// original_source/hir2/src/dataflow/analyses/spills.rs's `analyze`
// driver, `compute_w_entry`/`compute_s_entry`, and
// `compute_control_flow_edge_spills_and_reloads`.
func Analyze(fn *ir.Function, dom *ir.DomTree, loops *ir.LoopForest, liveness *ir.Liveness, preds map[ir.BlockID][]ir.Edge) *Analysis {
	logger := log.Get(log.Spill)
	a := newAnalysis(fn)

	rpo := dom.RPO()
	blockByID := make(map[ir.BlockID]*ir.Block, len(rpo))
	for _, b := range rpo {
		blockByID[b.ID] = b
	}

	for _, b := range rpo {
		var w *operandSet
		if loops.IsHeader(b) {
			loop, _ := loops.LoopOf(b)
			w = a.computeWEntryLoop(b, MaxLoopPressure(fn, loop, liveness, blockByID), liveness)
		} else {
			w = a.computeWEntryNormal(b, preds, blockByID, liveness)
		}
		s := a.computeSEntry(b, preds, w)
		a.wEntry[b.ID] = w.snapshot()
		a.sEntry[b.ID] = s.snapshot()

		for _, op := range b.Ops {
			a.min(op, w, s, liveness)
		}

		a.wExit[b.ID] = w.snapshot()
		a.sExit[b.ID] = s.snapshot()
	}

	a.reconcileEdges(rpo, preds, blockByID, liveness)

	logger.Debugf("spill analysis: %d spills, %d reloads, %d splits across %d blocks", len(a.spills), len(a.reloads), len(a.splits), len(rpo))
	return a
}

// computeWEntryNormal computes W^entry(B) for a non-loop-header block:
// block arguments are always resident; any operand present (and still
// live-out) in every predecessor's W^exit is promoted unconditionally;
// remaining candidates are admitted greedily, nearest-next-use first
// (ties broken toward the smaller operand), until K is exhausted —
// ported from `compute_w_entry_normal`. The original additionally
// special-cases region-branch op entry blocks (a second, structured
// source of predecessors); this module's region graph is a plain CFG so
// only the unstructured-predecessor case applies, consistent with
// `internal/analysis/spill`'s documented `CfgEdge` scope reduction.
func (a *Analysis) computeWEntryNormal(b *ir.Block, preds map[ir.BlockID][]ir.Edge, blockByID map[ir.BlockID]*ir.Block, liveness *ir.Liveness) *operandSet {
	take := newOperandSet()
	for _, arg := range b.Args {
		take.insert(NewOperand(arg.ID))
	}
	if sizeOf(take, a.fn) > K {
		panic(fmt.Sprintf("spill: unhandled spills implied by function/block parameter list for block %d", b.ID))
	}

	freq := map[Operand]int{}
	cand := newOperandSet()
	edges := preds[b.ID]
	for _, e := range edges {
		predBlock := blockByID[e.From]
		for _, o := range a.wExit[e.From] {
			if liveness.IsLiveOut(predBlock, o.Value) {
				freq[o]++
				cand.insert(o)
			}
		}
	}
	numPreds := len(edges)
	for o, count := range freq {
		if count == numPreds {
			cand.remove(o)
			take.insert(o)
		}
	}

	taken := sizeOf(take, a.fn)
	if taken > K {
		panic(fmt.Sprintf("spill: implicit operand stack overflow along incoming control flow edges of block %d", b.ID))
	}

	candidates := cand.items()
	a.sortByEntryDistanceThenSize(candidates, b, liveness)

	available := K - taken
	for _, c := range candidates {
		if available <= 0 {
			break
		}
		size := c.Size(a.fn)
		if size > available {
			break
		}
		take.insert(c)
		available -= size
	}
	return take
}

// computeWEntryLoop computes W^entry(B) for a loop header block:
// candidates used within the loop body are always kept; if there is
// slack left after those (judged against maxPressureInLoop, the peak
// operand-stack depth anywhere in the loop body from
// MaxLoopPressure/MaxBlockPressure), values merely live through the
// loop are admitted too, nearest-next-use first, to avoid spilling them
// needlessly around the back edge — ported from
// `compute_w_entry_loop_impl`.
func (a *Analysis) computeWEntryLoop(b *ir.Block, maxPressureInLoop int, liveness *ir.Liveness) *operandSet {
	alive := newOperandSet()
	for _, arg := range b.Args {
		alive.insert(NewOperand(arg.ID))
	}
	for _, v := range liveness.LiveIn(b) {
		alive.insert(NewOperand(v.ID))
	}

	cand := newOperandSet()
	for _, o := range alive.items() {
		if liveness.NextUseDistance(b, o.Value, 0) < ir.LoopExitDistance {
			cand.insert(o)
		}
	}
	liveThrough := alive.difference(cand)

	if sizeOf(cand, a.fn) < K {
		if maxPressureInLoop <= K {
			freeInLoop := K - maxPressureInLoop
			lt := liveThrough.items()
			a.sortByEntryDistanceThenSize(lt, b, liveness)
			for _, o := range lt {
				if freeInLoop <= 0 {
					break
				}
				size := o.Size(a.fn)
				if size > freeInLoop {
					break
				}
				if cand.insert(o) {
					freeInLoop -= size
				}
			}
		}
		return cand
	}

	take := newOperandSet()
	for _, arg := range b.Args {
		take.insert(NewOperand(arg.ID))
	}
	remaining := filterOperands(cand.items(), func(o Operand) bool {
		return !isBlockArg(b, o.Value)
	})
	a.sortByEntryDistanceThenSize(remaining, b, liveness)
	taken := sizeOf(take, a.fn)
	for _, o := range remaining {
		size := o.Size(a.fn)
		if taken+size > K {
			break
		}
		take.insert(o)
		taken += size
	}
	return take
}

// computeSEntry computes S^entry(B): the union of every predecessor's
// S^exit, intersected with the just-computed W^entry(B), since a value
// can only be considered spilled-on-entry if it is also resident —
// ported from `compute_s_entry`'s unstructured-predecessor case.
func (a *Analysis) computeSEntry(b *ir.Block, preds map[ir.BlockID][]ir.Edge, wEntry *operandSet) *operandSet {
	s := newOperandSet()
	for _, e := range preds[b.ID] {
		for _, o := range a.sExit[e.From] {
			s.insert(o)
		}
	}
	return s.intersect(wEntry)
}

// reconcileEdges is spec.md §4.1 step 3 ("edge reconciliation"): for
// every control-flow edge, positionally match the successor's block
// parameters against the predecessor's successor-argument group, and
// compute whatever spills/reloads are needed so that the W/S state
// assumed on entry to the successor holds regardless of which
// predecessor edge was actually taken. An edge that needs either is
// materialized as a new SplitInfo (deduplicated globally by CfgEdge, via
// splitEdge) so a later lowering pass has somewhere to place the
// instructions — ported from
// `compute_control_flow_edge_spills_and_reloads`. Only local
// (intra-region) edges are handled, consistent with `CfgEdge`'s
// documented scope reduction; this module's driver runs every block to
// a fixed W/S state before reconciling edges, so (unlike the original,
// which defers an edge whose predecessor has not yet been visited) no
// deferred-edge bookkeeping is needed here.
func (a *Analysis) reconcileEdges(blocks []*ir.Block, preds map[ir.BlockID][]ir.Edge, blockByID map[ir.BlockID]*ir.Block, liveness *ir.Liveness) {
	for _, b := range blocks {
		wEntryB := toOperandSet(a.wEntry[b.ID])
		sEntryB := toOperandSet(a.sEntry[b.ID])

		for _, e := range preds[b.ID] {
			predBlock := blockByID[e.From]
			wExitP := toOperandSet(a.wExit[e.From])
			sExitP := toOperandSet(a.sExit[e.From])

			toReload := wEntryB.difference(wExitP)
			toSpill := sEntryB.difference(sExitP).intersect(wExitP)

			// Values resident at P's exit but not assumed resident on
			// entry to B (typically a loop header whose W^entry excludes
			// values merely live-through the loop) must still be spilled
			// along this edge if they remain live at the start of B.
			mustSpill := wExitP.difference(wEntryB).difference(sExitP)
			for _, o := range mustSpill.items() {
				if liveness.IsLiveIn(b, o.Value) {
					toSpill.insert(o)
				}
			}

			// Block parameters are never themselves present in W^exit(P)
			// (they only come into scope in B); replace each with its
			// source value from this edge's successor-argument group,
			// reloading the source if it isn't already resident at P's
			// exit.
			var group []*ir.Value
			if term := predBlock.Terminator(); term != nil && e.SuccIndex < len(term.SuccessorArgs) {
				group = term.SuccessorArgs[e.SuccIndex]
			}
			for i, arg := range b.Args {
				toReload.remove(NewOperand(arg.ID))
				if i < len(group) {
					src := NewOperand(group[i].ID)
					if !wExitP.contains(src) {
						toReload.insert(src)
					}
				}
			}

			if len(toReload.items()) == 0 && len(toSpill.items()) == 0 {
				continue
			}

			splitID := a.splitEdge(CfgEdge{From: e.From, To: b.ID})
			place := AtSplit(splitID)
			span := errors.Position{}
			if term := predBlock.Terminator(); term != nil {
				span = term.Span
			}

			for _, o := range toSpill.items() {
				a.spill(place, o.Value, span)
			}
			for _, o := range toReload.items() {
				a.reload(place, o.Value, span)
			}
		}
	}
}

func isBlockArg(b *ir.Block, v ir.ValueID) bool {
	for _, arg := range b.Args {
		if arg.ID == v {
			return true
		}
	}
	return false
}

func sizeOf(set *operandSet, fn *ir.Function) int {
	sum := 0
	for _, o := range set.items() {
		sum += o.Size(fn)
	}
	return sum
}

// sortByEntryDistanceThenSize orders ops ascending by their next-use
// distance from the start of b (nearest use first), breaking ties
// toward the smaller operand — the admission order step 1 uses to
// decide which candidates are worth keeping resident.
func (a *Analysis) sortByEntryDistanceThenSize(ops []Operand, b *ir.Block, liveness *ir.Liveness) {
	sort.Slice(ops, func(i, j int) bool {
		di := liveness.NextUseDistance(b, ops[i].Value, 0)
		dj := liveness.NextUseDistance(b, ops[j].Value, 0)
		if di != dj {
			return di < dj
		}
		return ops[i].Size(a.fn) < ops[j].Size(a.fn)
	})
}

// operandSet is a small ordered set of Operands, backed by
// internal/adt's SmallSet keyed on the comparable Operand struct.
type operandSet struct{ set *adt.SmallSet[Operand] }

func newOperandSet() *operandSet { return &operandSet{set: adt.NewSmallSet[Operand](8)} }

func toOperandSet(items []Operand) *operandSet {
	s := newOperandSet()
	for _, o := range items {
		s.insert(o)
	}
	return s
}

func (s *operandSet) insert(o Operand) bool { return s.set.Insert(o) }
func (s *operandSet) remove(o Operand)      { s.set.Remove(o) }
func (s *operandSet) contains(o Operand) bool { return s.set.Contains(o) }
func (s *operandSet) items() []Operand       { return s.set.Items() }
func (s *operandSet) snapshot() []Operand {
	items := append([]Operand(nil), s.set.Items()...)
	sort.Slice(items, func(i, j int) bool { return items[i].Value < items[j].Value })
	return items
}

func (s *operandSet) retain(pred func(Operand) bool) {
	for _, o := range s.items() {
		if !pred(o) {
			s.remove(o)
		}
	}
}

func (s *operandSet) intersect(other *operandSet) *operandSet {
	out := newOperandSet()
	for _, o := range s.items() {
		if other.contains(o) {
			out.insert(o)
		}
	}
	return out
}

func (s *operandSet) difference(other *operandSet) *operandSet {
	out := newOperandSet()
	for _, o := range s.items() {
		if !other.contains(o) {
			out.insert(o)
		}
	}
	return out
}
