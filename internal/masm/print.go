package masm

import "fmt"

// Print renders block as textual MASM, in the same simple
// block-per-line style as internal/ir.Print — enough to eyeball the
// lowering output from cmd/midenc and cmd/midenc-pipelined without a
// full miden-assembly printer.
func Print(block *Block) string {
	return printBlock(block, 1)
}

func printBlock(block *Block, depth int) string {
	s := ""
	for _, op := range block.Ops {
		s += indent(depth) + printOp(op) + "\n"
		if op.Body != nil {
			s += printBlock(op.Body, depth+1)
			if op.Else != nil {
				s += indent(depth) + "else\n"
				s += printBlock(op.Else, depth+1)
			}
			s += indent(depth) + "end\n"
		}
	}
	return s
}

func printOp(op Op) string {
	if op.Name == "while" || op.Name == "if" {
		return op.Name + ".true"
	}
	if op.Imm != 0 || hasImmZero(op.Name) {
		return fmt.Sprintf("%s.%d", op.Name, op.Imm)
	}
	return op.Name
}

// hasImmZero names the instructions whose immediate is meaningful even
// when it happens to be zero (locaddr.0, dup.0, mem_load.0 are all valid
// distinct instructions from their bare form).
func hasImmZero(name string) bool {
	switch name {
	case "dup", "swap", "movup", "movdn", "mem_load", "mem_loadw", "mem_store", "mem_storew", "locaddr":
		return true
	default:
		return false
	}
}

func indent(depth int) string {
	s := ""
	for i := 0; i < depth; i++ {
		s += "  "
	}
	return s
}
