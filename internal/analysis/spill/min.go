package spill

import (
	"sort"

	"midenc/internal/ir"
)

// min applies the Braun-Hack MIN step to a single operation, threading
// the working set w and spilled set s through it, ported step-for-step
// from original_source/hir2/src/dataflow/analyses/spills.rs's `min`.
func (a *Analysis) min(op *ir.Op, w, s *operandSet, liveness *ir.Liveness) {
	place := At(ir.Before(op))
	span := op.Span

	operands := op.Operands

	// A non-branching terminator (return, unreachable) has no effect on
	// W/S beyond ensuring its operands (the "results" from the operand
	// stack's perspective) are resident; nothing is spilled since
	// everything else is dead after it.
	if op.IsTerminator() && !op.IsBranch() {
		w.retain(func(o Operand) bool { return liveness.IsLiveBefore(o.Value, op) })
		for _, v := range operands {
			reload := NewOperand(v.ID)
			if w.insert(reload) {
				a.reload(place, reload.Value, span)
			}
		}
		return
	}

	// Remove the first occurrence of any operand already resident in W;
	// what remains must be reloaded before I runs.
	toReload := make([]Operand, 0, len(operands))
	for _, v := range operands {
		toReload = append(toReload, NewOperand(v.ID))
	}
	for _, resident := range w.items() {
		for i, o := range toReload {
			if o == resident {
				toReload = append(toReload[:i], toReload[i+1:]...)
				break
			}
		}
	}

	wUsed := 0
	for _, o := range w.items() {
		wUsed += o.Size(a.fn)
	}

	inNeeded := 0
	for _, o := range toReload {
		inNeeded += o.Size(a.fn)
	}

	outNeeded := 0
	for _, r := range op.Results {
		outNeeded += r.Type.SizeInFelts()
	}

	inConsumed := 0
	for _, v := range operands {
		if !liveness.IsLiveAfter(v.ID, op) {
			inConsumed += v.Type.SizeInFelts()
		}
	}

	toSpill := newOperandSet()

	// First pass: make room for I's operands.
	maxUsageIn := wUsed + inNeeded
	if maxUsageIn > K {
		mustSpill := maxUsageIn - K
		candidates := filterOperands(w.items(), func(o Operand) bool {
			return !operandsContain(operands, o.Value)
		})
		a.sortByDistanceThenSize(candidates, op, liveness)
		for mustSpill > 0 {
			if len(candidates) == 0 {
				panic("spill: unable to free sufficient operand-stack capacity for operands of " + op.Kind.Name)
			}
			candidate := candidates[len(candidates)-1]
			candidates = candidates[:len(candidates)-1]
			mustSpill -= candidate.Size(a.fn)
			toSpill.insert(candidate)
		}
	}

	// Second pass: make room for I's results.
	spilled := 0
	for _, o := range toSpill.items() {
		spilled += o.Size(a.fn)
	}
	maxUsageOut := saturatingSub(maxUsageIn+outNeeded, inConsumed+spilled)
	if maxUsageOut > K {
		mustSpill := maxUsageOut - K
		candidates := filterOperands(w.items(), func(o Operand) bool {
			if !operandsContain(operands, o.Value) {
				return !toSpill.contains(o)
			}
			return liveness.IsLiveAfter(o.Value, op)
		})
		a.sortByDistanceThenSize(candidates, op, liveness)
		for mustSpill > 0 {
			if len(candidates) == 0 {
				panic("spill: unable to free sufficient operand-stack capacity for results of " + op.Kind.Name)
			}
			candidate := candidates[len(candidates)-1]
			candidates = candidates[:len(candidates)-1]
			numUses := 0
			for _, v := range operands {
				if v.ID == candidate.Value {
					numUses++
				}
			}
			if numUses < 1 {
				numUses = 1
			}
			freed := candidate.Size(a.fn) * numUses
			mustSpill -= freed
			toSpill.insert(candidate)
		}
	}

	// Emit spills before reloads, so reloaded values have room.
	for _, spillOperand := range toSpill.items() {
		if s.insert(spillOperand) {
			a.spill(place, spillOperand.Value, span)
		}
		w.remove(spillOperand)
	}

	for _, reload := range toReload {
		if w.insert(reload) {
			s.insert(reload)
			a.reload(place, reload.Value, span)
		}
	}

	// Apply I's effects to W for the next instruction.
	if op.IsBranch() {
		a.updateWAfterBranch(op, w, liveness)
	} else {
		w.retain(func(o Operand) bool { return liveness.IsLiveAfter(o.Value, op) })
		for _, r := range op.Results {
			w.insert(NewOperand(r.ID))
		}
	}
}

// updateWAfterBranch retains, from W, values still needed by the
// selected successor's argument group (narrowed to a single successor
// when the branch target is statically known via constant-successor
// narrowing, the minimal substitute for the original's full constant-
// propagation lattice lookup), or still live after the branch.
func (a *Analysis) updateWAfterBranch(op *ir.Op, w *operandSet, liveness *ir.Liveness) {
	if succBlock, ok := ir.IsConstantSuccessor(op); ok {
		idx := -1
		for i, s := range op.Successors {
			if s.ID == succBlock.ID {
				idx = i
				break
			}
		}
		if idx >= 0 && idx < len(op.SuccessorArgs) {
			group := op.SuccessorArgs[idx]
			w.retain(func(o Operand) bool {
				return valuesContain(group, o.Value) || liveness.IsLiveAfter(o.Value, op)
			})
			return
		}
	}

	var liveGroups [][]*ir.Value
	for i := range op.Successors {
		if i < len(op.SuccessorArgs) {
			liveGroups = append(liveGroups, op.SuccessorArgs[i])
		}
	}
	w.retain(func(o Operand) bool {
		for _, group := range liveGroups {
			if valuesContain(group, o.Value) {
				return true
			}
		}
		return liveness.IsLiveAfter(o.Value, op)
	})
}

func operandsContain(operands []*ir.Value, v ir.ValueID) bool {
	for _, o := range operands {
		if o.ID == v {
			return true
		}
	}
	return false
}

func valuesContain(vs []*ir.Value, v ir.ValueID) bool {
	for _, o := range vs {
		if o.ID == v {
			return true
		}
	}
	return false
}

func filterOperands(in []Operand, keep func(Operand) bool) []Operand {
	out := make([]Operand, 0, len(in))
	for _, o := range in {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// sortByDistanceThenSize orders candidates so that the one with the
// greatest next-use distance (least useful to keep resident) sorts
// last, breaking ties by preferring to spill the larger value first —
// both ends then pop off the tail as the best spill candidate.
func (a *Analysis) sortByDistanceThenSize(ops []Operand, op *ir.Op, liveness *ir.Liveness) {
	sort.Slice(ops, func(i, j int) bool {
		di := liveness.NextUseAfter(ops[i].Value, op)
		dj := liveness.NextUseAfter(ops[j].Value, op)
		if di != dj {
			return di < dj
		}
		return ops[i].Size(a.fn) < ops[j].Size(a.fn)
	})
}

func saturatingSub(a, b int) int {
	if b >= a {
		return 0
	}
	return a - b
}
