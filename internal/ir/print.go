package ir

import "fmt"

// Print renders fn as a readable textual listing, used by tests and by
// the internal/textir round-trip to eyeball lowering/lifting output
// without a full MASM emitter.
func Print(fn *Function) string {
	s := "fn " + fn.Name + "() {\n"
	s += printRegion(fn.Entry, 1)
	s += "}\n"
	return s
}

func printRegion(r *Region, depth int) string {
	ind := indent(depth)
	s := ""
	for _, b := range r.Blocks {
		s += fmt.Sprintf("%sblock%d(%s):\n", ind, b.ID, printArgs(b.Args))
		for _, op := range b.Ops {
			s += indent(depth+1) + printOp(op, depth+1)
		}
	}
	return s
}

func printOp(op *Op, depth int) string {
	line := fmt.Sprintf("%s = %s(%s)", printResults(op.Results), op.Kind.Name, printValues(op.Operands))
	if len(op.Successors) > 0 {
		line += " -> ["
		for i, s := range op.Successors {
			if i > 0 {
				line += ", "
			}
			line += fmt.Sprintf("block%d", s.ID)
		}
		line += "]"
	}
	line += "\n"
	for _, region := range op.Regions {
		line += printRegion(region, depth+1)
	}
	return line
}

func printResults(vs []*Value) string {
	s := ""
	for i, v := range vs {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%%%d", v.ID)
	}
	return s
}

func printValues(vs []*Value) string {
	s := ""
	for i, v := range vs {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%%%d", v.ID)
	}
	return s
}

func printArgs(vs []*Value) string { return printValues(vs) }

func indent(depth int) string {
	s := ""
	for i := 0; i < depth; i++ {
		s += "  "
	}
	return s
}
