package quill

// Entry is one flattened pre-order record of the node tree. Size is the exact
// number of descendant entries, so entries[i+1 : i+1+Size] is the subtree
// and i += Size skips it.
type Entry struct {
	Node  *Node
	Depth int
	Size  int
}

// StructTable is the pre-order array view of a node tree used for every
// traversal. It goes stale on any topology change and must be rebuilt before
// the next walk.
type StructTable struct {
	entries []Entry
	stale   bool
}

// NewStructTable builds a table for the tree rooted at root.
func NewStructTable(root *Node) *StructTable {
	t := &StructTable{}
	t.Rebuild(root)
	return t
}

// Rebuild flattens the tree rooted at root. It also records, for every mask
// node, the end of the sibling range it masks.
func (t *StructTable) Rebuild(root *Node) {
	clear(t.entries)
	t.entries = t.entries[:0]
	if root != nil {
		t.walk(root, 0)
	}
	t.stale = false
}

func (t *StructTable) walk(n *Node, depth int) int {
	idx := len(t.entries)
	t.entries = append(t.entries, Entry{Node: n, Depth: depth})
	n.structIndex = idx
	n.depth = depth
	n.maskedBy = nil
	n.maskEnd = -1

	size := 0
	for _, c := range n.children {
		size += 1 + t.walk(c, depth+1)
	}
	t.entries[idx].Size = size

	var mask *Node
	for _, c := range n.children {
		switch {
		case c.Style.MaskMode != MaskNone:
			if mask != nil {
				mask.maskEnd = c.structIndex
			}
			mask = c
		case c.Style.BreakMask:
			if mask != nil {
				mask.maskEnd = c.structIndex
			}
			mask = nil
		case mask != nil:
			c.maskedBy = mask
		}
	}
	if mask != nil {
		mask.maskEnd = idx + size + 1
	}
	return size
}

// Stale reports whether a topology change happened since the last rebuild.
func (t *StructTable) Stale() bool {
	return t.stale
}

// MarkStale forces a rebuild before the next traversal.
func (t *StructTable) MarkStale() {
	t.stale = true
}

// Len returns the number of entries.
func (t *StructTable) Len() int {
	return len(t.entries)
}

// Entries returns the pre-order entries. The slice must not be mutated.
// Panics if the table is stale.
func (t *StructTable) Entries() []Entry {
	t.checkFresh()
	return t.entries
}

// At returns entry i.
func (t *StructTable) At(i int) Entry {
	t.checkFresh()
	return t.entries[i]
}

// IndexOf returns the entry index of n, or -1 if n is not in the table.
func (t *StructTable) IndexOf(n *Node) int {
	t.checkFresh()
	i := n.structIndex
	if i < 0 || i >= len(t.entries) || t.entries[i].Node != n {
		return -1
	}
	return i
}

// Range returns the half-open entry range [start, end) of the subtree at i.
func (t *StructTable) Range(i int) (start, end int) {
	t.checkFresh()
	return i, i + t.entries[i].Size + 1
}

func (t *StructTable) checkFresh() {
	if t.stale {
		panic("quill: traversal of a stale struct table")
	}
}
