// Package spill implements the Braun-Hack "MIN" spill/reload analysis:
// given a function whose operand stack has a bounded depth K, compute
// the minimal set of spill-to-memory / reload-from-memory operations
// needed so that no program point ever requires more than K live values
// resident on the stack at once. Grounded in
// original_source/hir2/src/dataflow/analyses/spills.rs, cross-checked
// against original_source/hir-analysis/src/analyses/spills.rs.
package spill

import (
	"midenc/internal/errors"
	"midenc/internal/ir"
)

// K is the maximum number of felt-sized operand-stack slots available
// without spilling (spec.md's GLOSSARY "K=16").
const K = 16

type (
	SplitID  uint32
	SpillID  uint32
	ReloadID uint32
)

// CfgEdge identifies a control-flow edge that may need to be split to
// host a spill or reload that applies only along that edge. Limited to
// local (intra-region) edges; the original's `CfgEdge::Regional` variant
// (an edge between a region-branch op and one of its region successors)
// is not modeled, since this module's generic IR does not carry the
// `RegionBranchPoint` plumbing the original's region-branch interface
// exposes — region-branch edge splitting is listed in DESIGN.md as a
// deliberate scope reduction.
type CfgEdge struct {
	From ir.BlockID
	To   ir.BlockID
}

// SplitInfo records that edge must be split, and which block
// materializes the split once lowering runs.
type SplitInfo struct {
	ID           SplitID
	Edge         CfgEdge
	Materialized *ir.BlockID
}

// PlacementKind discriminates Placement's two forms.
type PlacementKind uint8

const (
	PlacementAt PlacementKind = iota
	PlacementSplit
)

// Placement is a program location for a spill or reload: either a
// concrete ProgramPoint, or a pseudo-location at the (not yet
// materialized) block that will split a CfgEdge.
type Placement struct {
	Kind  PlacementKind
	At    ir.ProgramPoint
	Split SplitID
}

func At(pp ir.ProgramPoint) Placement   { return Placement{Kind: PlacementAt, At: pp} }
func AtSplit(id SplitID) Placement      { return Placement{Kind: PlacementSplit, Split: id} }

// SpillInfo records a computed spill: where it goes, which value it
// spills, and (once lowering materializes it) the op that performs it.
type SpillInfo struct {
	ID    SpillID
	Place Placement
	Value ir.ValueID
	Span  errors.Position
	Inst  *ir.OpID
}

// ReloadInfo records a computed reload.
type ReloadInfo struct {
	ID    ReloadID
	Place Placement
	Value ir.ValueID
	Span  errors.Position
	Inst  *ir.OpID
}

// Operand is a value together with an alias index; Size gives its stack
// footprint. Every Operand in this package is built by NewOperand, so
// Alias is always zero and a reloaded value is the same Operand as its
// original occurrence.
type Operand struct {
	Value ir.ValueID
	Alias uint16
}

func NewOperand(v ir.ValueID) Operand { return Operand{Value: v} }

func (o Operand) Size(fn *ir.Function) int {
	return fn.Value(o.Value).Type.SizeInFelts()
}

// placedKey dedups spills/reloads by (placement, value) per spec.md §8
// property 3 ("a given (placement, value) pair is never spilled or
// reloaded more than once").
type placedKey struct {
	kind  PlacementKind
	op    ir.OpID
	block ir.BlockID
	ppKnd ir.PPKind
	split SplitID
	value ir.ValueID
}

func keyOf(place Placement, value ir.ValueID) placedKey {
	k := placedKey{kind: place.Kind, value: value}
	if place.Kind == PlacementAt {
		k.op = place.At.Op
		k.block = place.At.Block
		k.ppKnd = place.At.Kind
	} else {
		k.split = place.Split
	}
	return k
}
