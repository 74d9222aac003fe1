package scf

import "midenc/internal/ir"

// returnLikeKey groups return-like terminators that can share a single
// combined exit block: same opcode, same operand arity and types
// (spec.md's simplification of the original's full structural-
// equivalence hash — sufficient here because the cores only dispatch on
// opcode/type shape, never on attribute payload equality).
type returnLikeKey struct {
	kind  *ir.OpKind
	types string
}

func keyForReturnLike(op *ir.Op) returnLikeKey {
	sig := make([]byte, 0, len(op.Operands))
	for _, v := range op.Operands {
		sig = append(sig, []byte(v.Type.String())...)
		sig = append(sig, ';')
	}
	return returnLikeKey{kind: op.Kind, types: string(sig)}
}

// unifyReturnLikeOps rewrites region so that every return-like
// terminator sharing a returnLikeKey funnels through one combined exit
// block, per the original's "turn all occurrences of return-like
// operations into branches to a single exit block" preprocessing step.
// Blocks that are already the sole occurrence of their key are left
// untouched.
func unifyReturnLikeOps(fn *ir.Function, region *ir.Region) {
	groups := map[returnLikeKey][]*ir.Block{}
	for _, b := range region.Blocks {
		term := b.Terminator()
		if term != nil && term.IsReturnLike() {
			k := keyForReturnLike(term)
			groups[k] = append(groups[k], b)
		}
	}

	for _, blocks := range groups {
		if len(blocks) < 2 {
			continue
		}
		sample := blocks[0].Terminator()

		exit := fn.NewBlock(region)
		args := make([]*ir.Value, len(sample.Operands))
		for i, v := range sample.Operands {
			args[i] = fn.AddBlockArg(exit, v.Type)
		}
		fn.NewOp(exit, sample.Kind, args, nil)

		for _, b := range blocks {
			term := b.Terminator()
			operands := term.Operands
			b.Ops = b.Ops[:len(b.Ops)-1]
			br := fn.NewOp(b, ir.OpBr, nil, nil)
			fn.SetSuccessors(br, []*ir.Block{exit}, [][]*ir.Value{operands})
		}
	}
}
