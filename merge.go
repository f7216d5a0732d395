package quill

import (
	"cmp"
	"fmt"
	"slices"
)

// needsMerge reports whether a container must be flattened into one texture
// before it is displayed: fractional opacity over more than one visible
// node, a group effect, or a mask.
func (n *Node) needsMerge() bool {
	if !n.Kind.isContainer() || !n.Style.Visible {
		return false
	}
	if n.Style.MaskMode != MaskNone || n.Style.hasEffects(n.Kind) {
		return true
	}
	return n.Style.Opacity > 0 && n.Style.Opacity < 1 && visibleCount(n, 2) > 1
}

// hidesMaskRange reports whether n is a mask that takes its whole range out
// of the frame: a hidden mask, or one whose opacity leaves nothing to show.
func (n *Node) hidesMaskRange() bool {
	return n.Style.MaskMode != MaskNone && (!n.Style.Visible || n.Style.Opacity <= 0)
}

// visibleCount counts visible nodes in n's subtree, stopping at limit.
func visibleCount(n *Node, limit int) int {
	if !n.Style.Visible {
		return 0
	}
	count := 0
	if n.hasOwnContent() {
		count++
	}
	for _, c := range n.children {
		if count >= limit {
			break
		}
		count += visibleCount(c, limit-count)
	}
	return count
}

// mergeJob is one entry of the merge list.
type mergeJob struct {
	index int
	node  *Node
	key   float64 // depth; mask combination sorts half a level shallower
	mask  bool
}

// buildMergeList collects the nodes needing merge, mask or effect work,
// deepest first and in document order within a depth. Derived textures a
// visited node no longer uses are released on the way.
func (s *Scene) buildMergeList(entries []Entry) []mergeJob {
	jobs := s.mergeJobs[:0]
	for i := 0; i < len(entries); i++ {
		e := entries[i]
		n := e.Node
		if n.hidesMaskRange() {
			i = max(n.maskEnd, i+e.Size+1) - 1
			continue
		}
		if !n.Style.Visible {
			i += e.Size
			continue
		}
		s.dropUnusedSlots(n)
		if n.needsMerge() || n.Style.hasEffects(n.Kind) {
			jobs = append(jobs, mergeJob{index: i, node: n, key: float64(e.Depth)})
		}
		if n.Style.MaskMode != MaskNone && n.maskEnd > i+e.Size+1 {
			jobs = append(jobs, mergeJob{index: i, node: n, key: float64(e.Depth) - 0.5, mask: true})
		}
		if n.Kind == KindShapeGroup {
			i += e.Size
		}
	}
	slices.SortStableFunc(jobs, func(a, b mergeJob) int {
		if c := cmp.Compare(b.key, a.key); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})
	s.mergeJobs = jobs
	return jobs
}

// dropUnusedSlots releases the merged, effect and mask textures that n kept
// from a frame where it still needed them.
func (s *Scene) dropUnusedSlots(n *Node) {
	if n.merged.tex != nil && !n.needsMerge() {
		s.releaseSlot(&n.merged)
	}
	if n.effected.tex != nil && !n.Style.hasEffects(n.Kind) {
		s.releaseSlot(&n.effected)
	}
	if n.masked.tex != nil && n.Style.MaskMode == MaskNone {
		s.releaseSlot(&n.masked)
	}
}

// runMergeList performs every job whose texture is not valid. Failures are
// reported and leave the node drawn unmerged.
func (s *Scene) runMergeList(jobs []mergeJob, bucket float64) {
	for _, j := range jobs {
		n := j.node
		nb := n.rasterBucket(bucket)
		var err error
		switch {
		case j.mask:
			if !n.masked.current(nb) {
				err = s.combineMask(j.index, nb)
			}
		default:
			if n.needsMerge() && !n.merged.current(nb) {
				err = s.mergeSubtree(j.index, nb)
			}
			if err == nil && n.Style.hasEffects(n.Kind) && !n.effected.current(nb) {
				in := n.merged
				if !n.needsMerge() {
					in = s.cacheAt(n, nb).slot()
				}
				if in.valid {
					err = s.applyEffects(n, in)
				}
			}
		}
		if err != nil {
			s.diag.report(Diagnostic{Kind: DiagDevice, Node: n, Err: err})
		}
	}
}

// mergeSubtree flattens the subtree at index i into the node's merged
// texture, in the node's local space at the frame scale. The root is drawn
// at opacity 1; its real opacity is applied once when the texture is shown.
func (s *Scene) mergeSubtree(i int, bucket float64) error {
	n := s.table.entries[i].Node
	bbox := n.BBox()
	if bbox.Empty() {
		s.releaseSlot(&n.merged)
		return nil
	}
	scale, ok := fitScale(bbox, bucket, s.device.MaxTextureSize())
	if !ok {
		w, h := texSize(bbox, scale)
		s.diag.report(Diagnostic{Kind: DiagCapacity, Node: n,
			Err: fmt.Errorf("%w: merge %dx%d", ErrTextureTooLarge, w, h)})
		return nil
	}
	w, h := texSize(bbox, scale)
	if err := s.prepareSlot(&n.merged, w, h); err != nil {
		return err
	}
	toTex := texSpace(bbox, scale)
	start, end := s.table.Range(i)
	s.compositeRange(n.merged.tex, start, end, toTex.Mul(n.Matrix.Invert()), 1, i, Rect{})
	n.merged.setSpace(bbox, scale)
	n.merged.bucket = bucket
	n.merged.valid = true
	s.stats.Merged++
	return nil
}

// combineMask renders the sibling range governed by the mask at index i
// through the mask's coverage. The result lives in the mask's local space.
func (s *Scene) combineMask(i int, bucket float64) error {
	e := s.table.entries[i]
	m := e.Node
	bbox := m.BBox()
	if bbox.Empty() {
		s.releaseSlot(&m.masked)
		return nil
	}
	scale, ok := fitScale(bbox, bucket, s.device.MaxTextureSize())
	if !ok {
		s.diag.report(Diagnostic{Kind: DiagCapacity, Node: m, Err: fmt.Errorf("%w: mask", ErrTextureTooLarge)})
		return nil
	}
	w, h := texSize(bbox, scale)
	toTex := texSpace(bbox, scale)
	dev := s.device

	chain := s.newEffectChain(w, h)
	defer chain.finish()

	// Mask source in the combined texture's pixel space.
	source, err := chain.alloc()
	if err != nil {
		return err
	}
	if m.Style.MaskMode == MaskOutline {
		if err := s.outlineSource(m, source, bbox, scale); err != nil {
			return err
		}
	} else if slot := s.displaySlot(m, bucket); slot.valid {
		dev.Draw(source, slot.tex, DrawOptions{Matrix: slot.drawMatrix(toTex), Alpha: 1})
		s.stats.Draws++
	}

	content, err := chain.alloc()
	if err != nil {
		return err
	}
	start := i + e.Size + 1
	s.compositeRange(content, start, m.maskEnd, toTex.Mul(m.Matrix.Invert()), 1, -1, Rect{})

	if err := s.prepareSlot(&m.masked, w, h); err != nil {
		return err
	}
	if m.Style.MaskMode.showsContent() {
		dev.Draw(m.masked.tex, source, DrawOptions{Matrix: Identity, Alpha: 1})
		s.stats.Draws++
		clipped, err := chain.pass(Pass{Program: ProgramMask, Src: content, Aux: source, Mask: m.Style.MaskMode})
		if err != nil {
			return err
		}
		dev.Draw(m.masked.tex, clipped, DrawOptions{Matrix: Identity, Alpha: 1})
		s.stats.Draws++
	} else {
		if err := dev.RunPass(m.masked.tex, Pass{Program: ProgramMask, Src: content, Aux: source, Mask: m.Style.MaskMode}); err != nil {
			return err
		}
		s.stats.EffectPasses++
	}
	m.masked.setSpace(bbox, scale)
	m.masked.bucket = bucket
	m.masked.valid = true
	s.stats.Merged++
	return nil
}

// outlineSource renders the mask node's geometry as opaque coverage.
func (s *Scene) outlineSource(m *Node, dst Texture, bbox Rect, scale float64) error {
	paths := m.Shape.Paths
	if m.Kind != KindShape && m.Kind != KindShapeGroup {
		paths = []Path{RectPath(m.Rect)}
	}
	w, h := dst.Size()
	cov, err := fillCoverage(paths, texSpace(bbox, scale), w, h, m.Style.FillRule)
	if err != nil {
		return err
	}
	img := newWhiteImage(cov)
	tex, err := s.device.Upload(img)
	if err != nil {
		return err
	}
	s.stats.Uploaded++
	s.device.Draw(dst, tex, DrawOptions{Matrix: Identity, Alpha: 1})
	s.stats.Draws++
	s.device.Release(tex)
	return nil
}

// displaySlot returns the texture that stands for n's whole subtree: its
// effect output, merged texture or own raster at bucket, in that preference.
func (s *Scene) displaySlot(n *Node, bucket float64) textureSlot {
	switch {
	case n.effected.valid:
		return n.effected
	case n.merged.valid:
		return n.merged
	}
	if c := n.caches[bucket]; c != nil {
		return c.slot()
	}
	return textureSlot{}
}

// frameState is one open container during a composite walk.
type frameState struct {
	matrix Affine
	alpha  float64
	end    int
}

// compositeRange draws entries [start, end) onto dst. base maps the parent
// space of the range to dst pixels. The entry at root is the merge root
// being flattened: it is drawn at opacity 1 and never through its own
// merged texture. Subtrees whose bounds miss a non-empty cull rect (in dst
// pixels) are skipped.
func (s *Scene) compositeRange(dst Texture, start, end int, base Affine, alpha float64, root int, cull Rect) {
	entries := s.table.entries
	bucket := s.bucket
	stack := s.walkStack[:0]
	defer func() { s.walkStack = stack[:0] }()

	for i := start; i < end; {
		for len(stack) > 0 && stack[len(stack)-1].end <= i {
			stack = stack[:len(stack)-1]
		}
		parentM, parentA := base, alpha
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			parentM, parentA = top.matrix, top.alpha
		}

		e := entries[i]
		n := e.Node
		skip := i + e.Size + 1
		if i != root && n.hidesMaskRange() {
			i = max(n.maskEnd, skip)
			continue
		}
		if !n.Style.Visible || (n.Style.Opacity <= 0 && i != root) {
			i = skip
			continue
		}
		m := parentM.Mul(n.Matrix)
		a := parentA * n.Style.Opacity
		blend := n.Style.Blend
		if i == root {
			a = parentA
			blend = BlendNormal
		}

		if n.Style.MaskMode != MaskNone && i != root {
			if n.masked.valid && n.maskEnd > skip {
				if cull.Empty() || m.ApplyRect(n.masked.bbox).Intersects(cull) {
					s.drawSlot(dst, &n.masked, m, a, BlendNormal)
				}
				i = n.maskEnd
				continue
			}
			if !n.Style.MaskMode.showsContent() {
				i = skip
				continue
			}
		}

		if !cull.Empty() && !m.ApplyRect(n.BBox()).Intersects(cull) {
			s.stats.Skipped++
			i = skip
			continue
		}

		if i != root {
			if n.effected.valid {
				s.drawSlot(dst, &n.effected, m, a, blend)
				i = skip
				continue
			}
			if n.merged.valid {
				s.drawSlot(dst, &n.merged, m, a, blend)
				i = skip
				continue
			}
		} else if n.effected.valid && !n.Kind.isContainer() {
			s.drawSlot(dst, &n.effected, m, a, blend)
			i = skip
			continue
		}

		if c := n.caches[n.rasterBucket(bucket)]; c != nil {
			if slot := c.slot(); slot.valid {
				s.drawSlot(dst, &slot, m, a, blend)
			}
		}
		if n.Kind == KindShapeGroup || e.Size == 0 {
			i = skip
			continue
		}
		stack = append(stack, frameState{matrix: m, alpha: a, end: skip})
		i++
	}
}

func (s *Scene) drawSlot(dst Texture, t *textureSlot, toDst Affine, alpha float64, blend BlendMode) {
	if alpha <= 0 {
		return
	}
	s.device.Draw(dst, t.tex, DrawOptions{Matrix: t.drawMatrix(toDst), Alpha: alpha, Blend: blend})
	s.stats.Draws++
}
