package quill

import "math"

// nodeIDCounter is a plain counter; the scene graph is mutated from one goroutine.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// ShapeData is the payload of shape and shape-group nodes.
type ShapeData struct {
	Paths []Path
}

// TextData is the payload of text nodes.
type TextData struct {
	Runs []GlyphRun
}

// BitmapData is the payload of bitmap nodes.
type BitmapData struct {
	Src string
}

// Node is one drawable entity in the document tree. A single struct carries
// every kind; Kind selects which payload is meaningful.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Kind NodeKind

	// Hierarchy
	Parent   *Node
	children []*Node
	scene    *Scene

	// Geometry from the layout resolver, in parent space (Matrix) and
	// local space (Rect, bbox).
	Matrix    Affine
	Rect      Rect
	bbox      Rect
	bboxSet   bool
	bboxCache Rect
	bboxValid bool

	Style Style

	// Kind payloads
	Shape  ShapeData
	Text   TextData
	Bitmap BitmapData

	// Invalidation
	refreshLevel RefreshLevel
	childChanged bool

	// Struct table bookkeeping
	structIndex int
	depth       int
	maskEnd     int   // mask nodes: exclusive end of the masked sibling range
	maskedBy    *Node // set on siblings inside a mask's range

	// Cached world state
	world             Affine
	worldAlpha        float64
	worldMatrixValid  bool
	worldOpacityValid bool

	// Caches
	caches   map[float64]*rasterCache
	merged   textureSlot
	masked   textureSlot
	effected textureSlot
	imgRefs  []string
	imgState ImageState

	disposed bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.Matrix = Identity
	n.Style = DefaultStyle()
	n.refreshLevel = LevelRepaint
	n.structIndex = -1
}

// NewGroup creates a group node with no paint of its own.
func NewGroup(name string) *Node {
	n := &Node{Name: name, Kind: KindGroup}
	nodeDefaults(n)
	return n
}

// NewArtboard creates an artboard with the given frame and background color.
func NewArtboard(name string, rect Rect, background Color) *Node {
	n := &Node{Name: name, Kind: KindArtboard, Rect: rect}
	nodeDefaults(n)
	if background.A > 0 {
		n.Style.Fills = []Fill{SolidFill(background)}
	}
	return n
}

// NewShape creates a shape node from already-combined paths.
func NewShape(name string, rect Rect, paths ...Path) *Node {
	n := &Node{Name: name, Kind: KindShape, Rect: rect, Shape: ShapeData{Paths: paths}}
	nodeDefaults(n)
	return n
}

// NewRect creates a rectangle shape filled with c.
func NewRect(name string, rect Rect, c Color) *Node {
	n := NewShape(name, rect, RectPath(rect))
	n.Style.Fills = []Fill{SolidFill(c)}
	return n
}

// NewShapeGroup creates a shape group. Its children are the boolean operands;
// paths holds their combined result.
func NewShapeGroup(name string, rect Rect, paths ...Path) *Node {
	n := &Node{Name: name, Kind: KindShapeGroup, Rect: rect, Shape: ShapeData{Paths: paths}}
	nodeDefaults(n)
	return n
}

// NewText creates a text node from laid-out glyph runs.
func NewText(name string, rect Rect, runs ...GlyphRun) *Node {
	n := &Node{Name: name, Kind: KindText, Rect: rect, Text: TextData{Runs: runs}}
	nodeDefaults(n)
	return n
}

// NewBitmap creates an image-backed node displaying src inside rect.
func NewBitmap(name string, rect Rect, src string) *Node {
	n := &Node{Name: name, Kind: KindBitmap, Rect: rect, Bitmap: BitmapData{Src: src}}
	nodeDefaults(n)
	return n
}

// --- Geometry and style setters ---

// SetMatrix sets the node's local transform.
func (n *Node) SetMatrix(m Affine) {
	if n.Matrix == m {
		return
	}
	n.Matrix = m
	n.markDirty(LevelReflow)
}

// SetPlacement sets the node's local transform from placement parameters.
func (n *Node) SetPlacement(p Placement) {
	n.SetMatrix(p.Matrix())
}

// SetPosition replaces the translation part of the local transform.
func (n *Node) SetPosition(x, y float64) {
	m := n.Matrix
	m[4], m[5] = x, y
	n.SetMatrix(m)
}

// SetRect sets the pre-effect content rect.
func (n *Node) SetRect(r Rect) {
	n.Rect = r
	n.markDirty(LevelRepaint)
}

// SetBBox overrides the painted extent reported by the layout resolver.
// A zero rect restores the derived extent.
func (n *Node) SetBBox(r Rect) {
	n.bbox = r
	n.bboxSet = !r.Empty()
	n.markDirty(LevelRepaint)
}

// SetStyle replaces the whole computed style.
func (n *Node) SetStyle(s Style) {
	structural := s.MaskMode != n.Style.MaskMode || s.BreakMask != n.Style.BreakMask
	n.Style = s
	if structural {
		n.markStructStale()
	}
	n.markDirty(LevelRepaint)
}

// SetOpacity sets the node opacity. Only composition above the node is
// affected; its own raster is kept.
func (n *Node) SetOpacity(o float64) {
	o = clamp01(o)
	if n.Style.Opacity == o {
		return
	}
	n.Style.Opacity = o
	n.markDirty(LevelOpacity)
}

// SetBlendMode sets how the node composites onto what is beneath it.
func (n *Node) SetBlendMode(b BlendMode) {
	if n.Style.Blend == b {
		return
	}
	n.Style.Blend = b
	n.markDirty(LevelOpacity)
}

// SetVisible shows or hides the node.
func (n *Node) SetVisible(v bool) {
	if n.Style.Visible == v {
		return
	}
	n.Style.Visible = v
	n.markDirty(LevelReflow)
}

// SetMaskMode turns the node into a mask for its following siblings, or back
// into a plain node with MaskNone.
func (n *Node) SetMaskMode(m MaskMode) {
	if n.Style.MaskMode == m {
		return
	}
	n.Style.MaskMode = m
	n.markStructStale()
	n.markDirty(LevelMask)
}

// SetBreakMask ends a preceding mask's range at this node.
func (n *Node) SetBreakMask(b bool) {
	if n.Style.BreakMask == b {
		return
	}
	n.Style.BreakMask = b
	n.markStructStale()
	n.markDirty(LevelMask)
}

// SetFills replaces the fill list.
func (n *Node) SetFills(fills ...Fill) {
	n.Style.Fills = fills
	n.markDirty(LevelRepaint)
}

// SetStrokes replaces the stroke list.
func (n *Node) SetStrokes(strokes ...Stroke) {
	n.Style.Strokes = strokes
	n.markDirty(LevelRepaint)
}

// SetShadows replaces the drop shadow list. Containers render drop shadows
// through the effect pipeline; leaves paint them into their own raster.
func (n *Node) SetShadows(shadows ...Shadow) {
	n.Style.Shadows = shadows
	if n.Kind.isContainer() {
		n.markDirty(LevelEffect)
		return
	}
	n.markDirty(LevelRepaint)
}

// SetInnerShadows replaces the inner shadow list.
func (n *Node) SetInnerShadows(shadows ...Shadow) {
	n.Style.InnerShadows = shadows
	n.markDirty(LevelRepaint)
}

// SetBlur sets the blur effect. Changing the blur margin forces a repaint
// because the raster extent grows with it.
func (n *Node) SetBlur(b Blur) {
	before := n.Style.Blur.outset()
	n.Style.Blur = b
	if b.outset() != before {
		n.markDirty(LevelRepaint)
		return
	}
	n.markDirty(LevelEffect)
}

// SetColorAdjust sets or clears (nil) the color adjustment effect.
func (n *Node) SetColorAdjust(a *ColorAdjust) {
	n.Style.Adjust = a
	n.markDirty(LevelEffect)
}

// SetTint sets or clears (nil) the tint effect.
func (n *Node) SetTint(c *Color) {
	n.Style.Tint = c
	n.markDirty(LevelEffect)
}

// SetPaths replaces the shape geometry.
func (n *Node) SetPaths(paths ...Path) {
	n.Shape.Paths = paths
	n.markDirty(LevelRepaint)
}

// SetRuns replaces the text glyph runs.
func (n *Node) SetRuns(runs ...GlyphRun) {
	n.Text.Runs = runs
	n.markDirty(LevelRepaint)
}

// SetSrc changes the image source of a bitmap node. A load still in flight
// for the previous source is ignored when it completes.
func (n *Node) SetSrc(src string) {
	if n.Bitmap.Src == src {
		return
	}
	n.Bitmap.Src = src
	n.imgState = ImageIdle
	n.markDirty(LevelRepaint)
}

// RefreshLevel returns the pending invalidation level of the node.
func (n *Node) RefreshLevel() RefreshLevel {
	return n.refreshLevel
}

// ImageState returns the load state of a bitmap node's source.
func (n *Node) ImageState() ImageState {
	return n.imgState
}

// StructIndex returns the node's index in the last rebuilt struct table, or
// -1 if it has not been indexed.
func (n *Node) StructIndex() int {
	return n.structIndex
}

// --- Bounds ---

// ownBox is the extent of the node's own paint: content rect grown by its
// stroke, shadow and blur margins.
func (n *Node) ownBox() Rect {
	if n.Rect.Empty() {
		return Rect{}
	}
	m := n.Style.strokeOutset()
	if !n.Kind.isContainer() {
		m += n.Style.shadowOutset()
	}
	m += n.Style.Blur.outset()
	return roundOut(n.Rect.Outset(m, m, m, m))
}

// BBox returns the painted extent in local coordinates. Container kinds
// include their visible children.
func (n *Node) BBox() Rect {
	if n.bboxSet {
		return n.bbox
	}
	if n.bboxValid {
		return n.bboxCache
	}
	r := n.ownBox()
	if n.Kind.isContainer() {
		var kids Rect
		for _, c := range n.children {
			if !c.Style.Visible {
				continue
			}
			kids = kids.Union(c.Matrix.ApplyRect(c.BBox()))
		}
		if !kids.Empty() {
			m := n.Style.shadowOutset() + n.Style.Blur.outset()
			r = r.Union(roundOut(kids.Outset(m, m, m, m)))
		}
	}
	n.bboxCache = r
	n.bboxValid = true
	return r
}

// roundOut snaps a rect outward to whole units.
func roundOut(r Rect) Rect {
	x0, y0 := math.Floor(r.X), math.Floor(r.Y)
	x1, y1 := math.Ceil(r.X+r.Width), math.Ceil(r.Y+r.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	n.AddChildAt(child, len(n.children))
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) {
	if child == nil {
		panic("quill: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("quill: adding child would create a cycle")
	}
	if child.Parent != nil {
		old := child.Parent
		old.removeChildByPtr(child)
		old.topologyChanged()
		if old == n && index > len(n.children) {
			index = len(n.children)
		}
	}
	if index < 0 || index > len(n.children) {
		panic("quill: child index out of range")
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	if child.scene != n.scene {
		detachScene(child)
	}
	setScene(child, n.scene)
	invalidateWorld(child, true, true)
	n.topologyChanged()
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("quill: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	invalidateWorld(child, true, true)
	detachScene(child)
	n.topologyChanged()
}

// RemoveChildAt removes and returns the child at the given index.
func (n *Node) RemoveChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		panic("quill: child index out of range")
	}
	child := n.children[index]
	n.RemoveChild(child)
	return child
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// RemoveChildren detaches all children from this node.
// Children are NOT disposed.
func (n *Node) RemoveChildren() {
	for _, child := range n.children {
		child.Parent = nil
		invalidateWorld(child, true, true)
		detachScene(child)
	}
	clear(n.children)
	n.children = n.children[:0]
	n.topologyChanged()
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// FindNode returns the first node named name in a depth-first search of the
// subtree, including n itself, or nil.
func (n *Node) FindNode(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.FindNode(name); found != nil {
			return found
		}
	}
	return nil
}

// SetChildIndex moves child to a new index among its siblings, changing its
// stacking order.
func (n *Node) SetChildIndex(child *Node, index int) {
	if child.Parent != n {
		panic("quill: child's parent is not this node")
	}
	nc := len(n.children)
	if index < 0 || index >= nc {
		panic("quill: child index out of range")
	}
	oldIndex := -1
	for i, c := range n.children {
		if c == child {
			oldIndex = i
			break
		}
	}
	if oldIndex == index {
		return
	}
	if oldIndex < index {
		copy(n.children[oldIndex:], n.children[oldIndex+1:index+1])
	} else {
		copy(n.children[index+1:], n.children[index:oldIndex])
	}
	n.children[index] = child
	n.topologyChanged()
}

// --- Disposal ---

// Dispose removes this node from its parent, releases its caches and
// recursively disposes all descendants.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	if n.scene != nil {
		n.scene.releaseNode(n)
	}
	n.disposed = true
	n.ID = 0
	n.children = nil
	n.Parent = nil
	n.scene = nil
	n.maskedBy = nil
	n.Shape.Paths = nil
	n.Text.Runs = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// detachScene releases every texture a subtree holds on its scene and leaves
// it unattached. The subtree is rasterized again if it is added back.
func detachScene(n *Node) {
	for _, c := range n.children {
		detachScene(c)
	}
	if n.scene != nil {
		n.scene.releaseNode(n)
	}
	n.scene = nil
	n.maskedBy = nil
	n.maskEnd = -1
}

// setScene attaches a subtree to a scene.
func setScene(n *Node, s *Scene) {
	n.scene = s
	for _, c := range n.children {
		setScene(c, s)
	}
}
