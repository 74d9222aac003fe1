package ir

// DomTree is a region's dominator tree, computed with the iterative
// Cooper-Harvey-Kennedy algorithm, grounded in
// fkuehnel-golang-cfg/go-code/dom.go's postorder/intersect helpers (in
// turn lifted from the Go compiler's own SSA package) — a stdlib-only
// package, since the IR capability set is
// exactly the thing spec.md §1 treats as an external, unspecified
// collaborator (see DESIGN.md).
type DomTree struct {
	region *Region
	rpo    []*Block
	idom   map[BlockID]*Block
}

// Dominators computes the dominator tree of region, rooted at its entry
// block. Unreachable blocks are omitted, matching spec.md §4.2's
// precondition that a lifted region has no unreachable blocks except
// possibly before that check runs.
func Dominators(region *Region, preds map[BlockID][]Edge) *DomTree {
	entry := region.Entry()
	if entry == nil {
		return &DomTree{region: region, idom: map[BlockID]*Block{}}
	}

	postorder := computePostorder(region, entry)
	postnum := make(map[BlockID]int, len(postorder))
	for i, b := range postorder {
		postnum[b.ID] = i
	}

	idom := make(map[BlockID]*Block, len(postorder))
	idom[entry.ID] = entry

	blockByID := make(map[BlockID]*Block, len(region.Blocks))
	for _, b := range region.Blocks {
		blockByID[b.ID] = b
	}

	changed := true
	for changed {
		changed = false
		for i := len(postorder) - 2; i >= 0; i-- {
			b := postorder[i]
			var newIdom *Block
			for _, e := range preds[b.ID] {
				p := blockByID[e.From]
				if idom[p.ID] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, postnum, idom)
			}
			if newIdom != nil && idom[b.ID] != newIdom {
				idom[b.ID] = newIdom
				changed = true
			}
		}
	}

	rpo := make([]*Block, len(postorder))
	for i, b := range postorder {
		rpo[len(postorder)-1-i] = b
	}

	return &DomTree{region: region, rpo: rpo, idom: idom}
}

func computePostorder(region *Region, entry *Block) []*Block {
	succFn := func(b *Block) []*Block {
		term := b.Terminator()
		if term == nil {
			return nil
		}
		return term.Successors
	}

	seen := make(map[BlockID]bool, len(region.Blocks))
	order := make([]*Block, 0, len(region.Blocks))

	type frame struct {
		b   *Block
		idx int
	}
	stack := []frame{{b: entry}}
	seen[entry.ID] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		succs := succFn(top.b)
		if top.idx < len(succs) {
			next := succs[top.idx]
			top.idx++
			if !seen[next.ID] {
				seen[next.ID] = true
				stack = append(stack, frame{b: next})
			}
			continue
		}
		order = append(order, top.b)
		stack = stack[:len(stack)-1]
	}
	return order
}

func intersect(b, c *Block, postnum map[BlockID]int, idom map[BlockID]*Block) *Block {
	for b != c {
		for postnum[b.ID] < postnum[c.ID] {
			b = idom[b.ID]
		}
		for postnum[c.ID] < postnum[b.ID] {
			c = idom[c.ID]
		}
	}
	return b
}

// RPO returns the blocks of the dominated region in reverse postorder of
// the dominator tree, the order spec.md §4.1 step-by-step visitation and
// §5's "Ordering guarantees" require.
func (t *DomTree) RPO() []*Block { return t.rpo }

// IDom returns b's immediate dominator, or nil for the entry block / an
// unreachable block.
func (t *DomTree) IDom(b *Block) *Block {
	if idom, ok := t.idom[b.ID]; ok && idom.ID != b.ID {
		return idom
	}
	return nil
}

// Dominates reports whether a dominates b (reflexively: a dominates
// itself).
func (t *DomTree) Dominates(a, b *Block) bool {
	if a.ID == b.ID {
		return true
	}
	cur, ok := t.idom[b.ID]
	if !ok {
		return false
	}
	for {
		if cur.ID == a.ID {
			return true
		}
		parent, ok := t.idom[cur.ID]
		if !ok || parent.ID == cur.ID {
			// reached the entry block (its own idom) without matching a
			return a.ID == cur.ID
		}
		cur = parent
	}
}

// DominanceFrontier computes the dominance frontier of b within the
// region: blocks that b does not strictly dominate, but that have a
// predecessor dominated by b.
func (t *DomTree) DominanceFrontier(b *Block, preds map[BlockID][]Edge) []*Block {
	blockByID := make(map[BlockID]*Block, len(t.region.Blocks))
	for _, bb := range t.region.Blocks {
		blockByID[bb.ID] = bb
	}
	var out []*Block
	seen := map[BlockID]bool{}
	for _, node := range t.region.Blocks {
		for _, e := range preds[node.ID] {
			p := blockByID[e.From]
			if t.Dominates(b, p) && !(t.Dominates(b, node) && b.ID != node.ID) {
				if !seen[node.ID] {
					seen[node.ID] = true
					out = append(out, node)
				}
			}
		}
	}
	return out
}
