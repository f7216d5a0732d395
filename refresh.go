package quill

// RefreshLevel is the invalidation severity requested for a node. Levels are
// totally ordered; a node's effective level for a frame is the maximum of
// everything requested since the last frame.
type RefreshLevel uint8

const (
	LevelNone    RefreshLevel = iota
	LevelReflow                // position/size only: world caches dropped, raster kept
	LevelOpacity               // opacity or blend: recomposition above the node
	LevelMask                  // mask mode or mask range changed
	LevelEffect                // blur/adjust/tint/group shadow changed
	LevelRepaint               // own paint changed: raster and texture regenerated
)

var levelNames = [...]string{"none", "reflow", "opacity", "mask", "effect", "repaint"}

func (l RefreshLevel) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// RequestUpdate raises node's refresh level and schedules a frame. It is the
// entry point for the interaction and history layers.
func (s *Scene) RequestUpdate(n *Node, level RefreshLevel) {
	if n == nil || n.disposed {
		return
	}
	n.markDirty(level)
}

// markDirty sets n.refreshLevel = max(current, level), applies the level's
// own invalidations and walks the ancestors with the weaker child-changed
// marker, which only drops their merged, masked and effect textures.
func (n *Node) markDirty(level RefreshLevel) {
	if level == LevelNone {
		return
	}
	if level > n.refreshLevel {
		n.refreshLevel = level
	}

	switch level {
	case LevelReflow:
		invalidateWorld(n, true, true)
		n.bboxValid = false
		if n.Style.MaskMode != MaskNone {
			n.masked.valid = false
		}
	case LevelOpacity:
		invalidateWorld(n, false, true)
	case LevelMask:
		n.masked.valid = false
	case LevelEffect:
		n.bboxValid = false
		n.effected.valid = false
	case LevelRepaint:
		for _, c := range n.caches {
			c.available = false
		}
		n.bboxValid = false
		n.merged.valid = false
		n.masked.valid = false
		n.effected.valid = false
	}

	for p := n.Parent; p != nil; p = p.Parent {
		p.childChanged = true
		p.bboxValid = false
		p.merged.valid = false
		p.effected.valid = false
		if p.Style.MaskMode != MaskNone {
			p.masked.valid = false
		}
	}
	// Content inside a masked range feeds the mask's combined texture.
	for p := n; p != nil; p = p.Parent {
		if p.maskedBy != nil {
			p.maskedBy.masked.valid = false
		}
	}

	if n.scene != nil {
		n.scene.requestFrame()
	}
}

// markStructStale flags the owning scene's struct table for rebuild.
func (n *Node) markStructStale() {
	if n.scene != nil {
		n.scene.table.stale = true
	}
}

// topologyChanged is called after children were added, removed or reordered.
// The node's own derived textures cover its children, and every sibling mask
// may now govern a different range.
func (n *Node) topologyChanged() {
	n.markStructStale()
	n.merged.valid = false
	n.effected.valid = false
	for _, c := range n.children {
		if c.Style.MaskMode != MaskNone {
			c.masked.valid = false
		}
	}
	n.markDirty(LevelReflow)
}

// resetLevels clears every node's level and child marker after a frame.
func resetLevels(t *StructTable) {
	for i := range t.entries {
		n := t.entries[i].Node
		n.refreshLevel = LevelNone
		n.childChanged = false
	}
}
