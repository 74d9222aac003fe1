package ir

// A minimal op vocabulary shared by the three cores' tests and examples.
// Real dialects define their own OpKind values; these cover the generic
// shapes (plain arithmetic, unconditional/conditional branch,
// return-like terminators, region-branch/loop constructs, load/store)
// that the spill, CFG-to-SCF, and memory-lowering cores all dispatch on
// structurally rather than by exact opcode name.
var (
	OpAdd    = &OpKind{Name: "add"}
	OpSub    = &OpKind{Name: "sub"}
	OpLoad   = &OpKind{Name: "load", HasSideEffects: true}
	OpStore  = &OpKind{Name: "store", HasSideEffects: true}
	OpConst  = &OpKind{Name: "const"}

	OpBr = &OpKind{
		Name:         "br",
		IsTerminator: true,
		IsBranch:     true,
	}
	OpCondBr = &OpKind{
		Name:         "cond_br",
		IsTerminator: true,
		IsBranch:     true,
	}
	OpReturn = &OpKind{
		Name:         "return",
		IsTerminator: true,
		IsReturnLike: true,
	}
	OpUnreachable = &OpKind{
		Name:         "unreachable",
		IsTerminator: true,
		IsReturnLike: true,
	}

	// OpIf and OpLoop are region-branch constructs: their Regions hold
	// nested control flow, and their Successors/terminator-of-block
	// relationship is defined through the CFG-to-SCF lifting, not
	// through direct block successors (spec.md §4.2's "structured"
	// output shape).
	OpIf = &OpKind{
		Name:           "scf_if",
		IsRegionBranch: true,
	}
	OpDoWhileLoop = &OpKind{
		Name:                "scf_do_while",
		IsRegionBranch:      true,
		IsLoopLike:          true,
		IsIsolatedFromAbove: false,
	}

	// OpStructuredBranchRegion and OpStructuredBranchRegionTerminator
	// correspond to spec.md §6 interface 2's
	// create_structured_branch_region_op /
	// create_structured_branch_region_terminator_op.
	OpStructuredBranchRegion = &OpKind{
		Name:           "structured_branch_region",
		IsRegionBranch: true,
	}
	OpStructuredBranchRegionTerminator = &OpKind{
		Name:         "structured_branch_region_yield",
		IsTerminator: true,
		IsReturnLike: true,
	}

	OpCFGSwitch = &OpKind{
		Name:         "cfg_switch",
		IsTerminator: true,
		IsBranch:     true,
	}
)
