package textir

import (
	"fmt"

	"midenc/internal/errors"
	"midenc/internal/ir"
)

// opKinds maps the opcode names this surface syntax can spell to the
// generic vocabulary internal/ir.opkinds.go defines. Only the kinds a
// real author (or the REPL) would write by hand are listed here: the
// structured-control-flow kinds (scf_if, scf_do_while, ...) are
// produced by internal/transform/scf, never parsed from text.
var opKinds = map[string]*ir.OpKind{
	"add":         ir.OpAdd,
	"sub":         ir.OpSub,
	"load":        ir.OpLoad,
	"store":       ir.OpStore,
	"const":       ir.OpConst,
	"br":          ir.OpBr,
	"cond_br":     ir.OpCondBr,
	"return":      ir.OpReturn,
	"unreachable": ir.OpUnreachable,
}

func resolveOpKind(name string) (*ir.OpKind, error) {
	kind, ok := opKinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown opcode %q", name)
	}
	return kind, nil
}

func resolveType(name string) (ir.Type, error) {
	switch name {
	case "felt":
		return ir.FeltType{}, nil
	case "bool":
		return ir.BoolType{}, nil
	case "i1":
		return ir.IntType{Bits: 1}, nil
	case "i32":
		return ir.IntType{Bits: 32}, nil
	case "i64":
		return ir.IntType{Bits: 64}, nil
	case "i128":
		return ir.IntType{Bits: 128}, nil
	default:
		return nil, fmt.Errorf("unknown type %q", name)
	}
}

func resolveTypes(names []string) ([]ir.Type, error) {
	if len(names) == 0 {
		return nil, nil
	}
	types := make([]ir.Type, len(names))
	for i, n := range names {
		ty, err := resolveType(n)
		if err != nil {
			return nil, err
		}
		types[i] = ty
	}
	return types, nil
}

// Build lowers file's parsed functions into internal/ir.Function
// values, one per FuncDecl, resolving %value names and block labels
// independently within each function.
func Build(file *File) ([]*ir.Function, error) {
	fns := make([]*ir.Function, 0, len(file.Funcs))
	for _, fd := range file.Funcs {
		fn, err := buildFunc(fd)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

func buildFunc(fd *FuncDecl) (*ir.Function, error) {
	fn := ir.NewFunction(fd.Name)

	blocks := make(map[string]*ir.Block, len(fd.Blocks))
	values := make(map[string]*ir.Value)

	// Pass 1: create every block and its declared arguments up front
	// so a branch can reference a successor block declared later in
	// the text (the normal case for back edges and forward branches
	// alike).
	for _, bd := range fd.Blocks {
		if _, dup := blocks[bd.Label]; dup {
			return nil, fmt.Errorf("func @%s: block %q declared twice", fd.Name, bd.Label)
		}
		block := fn.NewBlock(fn.Entry)
		blocks[bd.Label] = block
		for _, ad := range bd.Args {
			ty, err := resolveType(ad.Type)
			if err != nil {
				return nil, fmt.Errorf("func @%s, block %s: %w", fd.Name, bd.Label, err)
			}
			values["%"+ad.Name] = fn.AddBlockArg(block, ty)
		}
	}

	// Pass 2: populate each block's operations in program order. A
	// value operand must already be in scope by the point it's used —
	// this format has no forward references to op results, matching
	// def-before-use SSA text discipline.
	for _, bd := range fd.Blocks {
		block := blocks[bd.Label]
		for _, od := range bd.Ops {
			if err := buildOp(fn, block, od, blocks, values); err != nil {
				return nil, fmt.Errorf("func @%s, block %s: %w", fd.Name, bd.Label, err)
			}
		}
	}

	return fn, nil
}

func buildOp(fn *ir.Function, block *ir.Block, od *OpDecl, blocks map[string]*ir.Block, values map[string]*ir.Value) error {
	kind, err := resolveOpKind(od.Name)
	if err != nil {
		return err
	}
	resultTypes, err := resolveTypes(od.ResultTypes)
	if err != nil {
		return err
	}

	var operands []*ir.Value
	var succBlocks []*ir.Block
	var succArgs [][]*ir.Value
	for _, a := range od.Args {
		if a.Succ != nil {
			sb, ok := blocks[a.Succ.Block]
			if !ok {
				return fmt.Errorf("op %q: undefined successor block %q", od.Name, a.Succ.Block)
			}
			args := make([]*ir.Value, len(a.Succ.Args))
			for i, name := range a.Succ.Args {
				v, ok := values["%"+name]
				if !ok {
					return fmt.Errorf("op %q: undefined value %%%s", od.Name, name)
				}
				args[i] = v
			}
			succBlocks = append(succBlocks, sb)
			succArgs = append(succArgs, args)
			continue
		}
		v, ok := values["%"+a.Value]
		if !ok {
			return fmt.Errorf("op %q: undefined value %%%s", od.Name, a.Value)
		}
		operands = append(operands, v)
	}

	op := fn.NewOp(block, kind, operands, resultTypes)
	op.Span = errors.Position{Filename: od.Pos.Filename, Line: od.Pos.Line, Column: od.Pos.Column}

	if od.Immediate != nil {
		op.Attrs = map[string]any{"value": *od.Immediate}
	}
	if len(succBlocks) > 0 {
		fn.SetSuccessors(op, succBlocks, succArgs)
	}

	if len(od.Results) != len(op.Results) {
		return fmt.Errorf("op %q binds %d result name(s) but produces %d", od.Name, len(od.Results), len(op.Results))
	}
	for i, name := range od.Results {
		values["%"+name] = op.Results[i]
	}

	return nil
}
