package ir

// Function is the root container: a name, a top-level region, and the
// side tables (spec.md §9 "Ownership graphs") that let analyses look up
// Op/Block/Region/Value by ID without holding cyclic references.
type Function struct {
	Name  string
	Entry *Region

	nextValue  ValueID
	nextOp     OpID
	nextBlock  BlockID
	nextRegion RegionID

	values  map[ValueID]*Value
	ops     map[OpID]*Op
	blocks  map[BlockID]*Block
	regions map[RegionID]*Region
}

// NewFunction creates an empty function with a single top-level region.
func NewFunction(name string) *Function {
	f := &Function{
		Name:    name,
		values:  make(map[ValueID]*Value),
		ops:     make(map[OpID]*Op),
		blocks:  make(map[BlockID]*Block),
		regions: make(map[RegionID]*Region),
	}
	f.Entry = f.NewRegion(nil)
	return f
}

func (f *Function) Value(id ValueID) *Value   { return f.values[id] }
func (f *Function) Op(id OpID) *Op            { return f.ops[id] }
func (f *Function) Block(id BlockID) *Block   { return f.blocks[id] }
func (f *Function) Region(id RegionID) *Region { return f.regions[id] }

// NewRegion allocates a region owned by parent (nil for the top-level
// region).
func (f *Function) NewRegion(parent *Op) *Region {
	r := &Region{ID: f.nextRegion, Parent: parent}
	f.regions[r.ID] = r
	f.nextRegion++
	return r
}

// NewBlock appends a new, empty block to region.
func (f *Function) NewBlock(region *Region) *Block {
	b := &Block{ID: f.nextBlock, Parent: region}
	f.blocks[b.ID] = b
	f.nextBlock++
	region.Blocks = append(region.Blocks, b)
	return b
}

// AddBlockArg appends a new block-argument value of type ty to b.
func (f *Function) AddBlockArg(b *Block, ty Type) *Value {
	v := &Value{ID: f.nextValue, Type: ty, DefBlock: b, DefArgNo: len(b.Args)}
	f.values[v.ID] = v
	f.nextValue++
	b.Args = append(b.Args, v)
	return v
}

// NewOp appends a new operation to the end of block, recording uses for
// every operand, and allocating one result value per entry in
// resultTypes.
func (f *Function) NewOp(block *Block, kind *OpKind, operands []*Value, resultTypes []Type, regions ...*Region) *Op {
	op := &Op{ID: f.nextOp, Kind: kind, Operands: operands, Regions: regions, Parent: block}
	f.ops[op.ID] = op
	f.nextOp++
	for i, v := range operands {
		v.addUse(op, i)
	}
	for i, ty := range resultTypes {
		res := &Value{ID: f.nextValue, Type: ty, DefOp: op, DefResultNo: i}
		f.values[res.ID] = res
		f.nextValue++
		op.Results = append(op.Results, res)
	}
	block.Ops = append(block.Ops, op)
	return op
}

// SetSuccessors records op's successor blocks and, for each, the
// successor-argument group passed to that block's parameters (spec.md
// §3's Operation row: "further groups = per-successor arguments").
func (f *Function) SetSuccessors(op *Op, succs []*Block, args [][]*Value) {
	op.Successors = succs
	op.SuccessorArgs = args
	for si, group := range args {
		for i, v := range group {
			v.addUse(op, 1000*(si+1)+i)
		}
	}
}

// Predecessors returns, for every block in region, the set of (block,
// successor-index) edges that target it — computed on demand by walking
// every block's terminator, rather than maintained incrementally, since
// CFG-to-SCF mutates the block graph in place (spec.md §3 Lifecycle).
func (f *Function) Predecessors(region *Region) map[BlockID][]Edge {
	preds := make(map[BlockID][]Edge, len(region.Blocks))
	for _, b := range region.Blocks {
		preds[b.ID] = nil
	}
	for _, b := range region.Blocks {
		term := b.Terminator()
		if term == nil {
			continue
		}
		for si, succ := range term.Successors {
			preds[succ.ID] = append(preds[succ.ID], Edge{From: b.ID, SuccIndex: si})
		}
	}
	return preds
}
