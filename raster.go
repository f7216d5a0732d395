package quill

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/f64"
)

// rasterizer paints one node's own content into a premultiplied bitmap that
// covers bbox at scale.
type rasterizer struct {
	scene   *Scene
	node    *Node
	bbox    Rect
	scale   float64
	w, h    int
	toPix   Affine
	toLocal Affine
	dst     *image.RGBA
	painted bool
}

func newRasterizer(s *Scene, n *Node, bbox Rect, scale float64) *rasterizer {
	w, h := texSize(bbox, scale)
	return &rasterizer{
		scene:   s,
		node:    n,
		bbox:    bbox,
		scale:   scale,
		w:       w,
		h:       h,
		toPix:   texSpace(bbox, scale),
		toLocal: localSpace(bbox, scale),
		dst:     image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

// imageSources lists every image a node's own paint depends on.
func (n *Node) imageSources() []string {
	var srcs []string
	if n.Kind == KindBitmap && n.Bitmap.Src != "" {
		srcs = append(srcs, n.Bitmap.Src)
	}
	for _, f := range n.Style.Fills {
		if f.Enabled && f.Kind == PaintPattern && f.Pattern.Src != "" {
			srcs = append(srcs, f.Pattern.Src)
		}
	}
	for _, st := range n.Style.Strokes {
		if st.Enabled && st.Paint.Kind == PaintPattern && st.Paint.Pattern.Src != "" {
			srcs = append(srcs, st.Paint.Pattern.Src)
		}
	}
	return srcs
}

// imageOnly reports whether a bitmap node can display its decoded image
// directly: no paint, shadows or blur of its own.
func (n *Node) imageOnly() bool {
	if n.Kind != KindBitmap || n.Style.hasPaint() || n.Style.anyShadow() {
		return false
	}
	return n.Style.Blur.Kind == BlurNone || n.Style.Blur.Radius <= 0
}

// hasOwnContent reports whether the node paints anything itself.
func (n *Node) hasOwnContent() bool {
	switch n.Kind {
	case KindGroup:
		return false
	case KindArtboard:
		return n.Style.hasPaint()
	case KindText:
		return len(n.Text.Runs) > 0
	case KindBitmap:
		return n.Bitmap.Src != "" || n.Style.hasPaint()
	default:
		return len(n.Shape.Paths) > 0 && (n.Style.hasPaint() || n.Style.anyShadow())
	}
}

// needsRaster reports whether n's cache at bucket must be regenerated.
func (n *Node) needsRaster(c *rasterCache) bool {
	return n.refreshLevel >= LevelRepaint || !c.available || c.bbox != n.ownBox()
}

// rasterPass regenerates the raster caches of visible nodes that need it.
// Nodes outside view are skipped unless they feed a merge or mask texture,
// which always covers the whole subtree.
func (s *Scene) rasterPass(entries []Entry, bucket float64, view Rect) {
	forceUntil := -1
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
		if i >= forceUntil {
			if n.needsMerge() || n.Style.MaskMode != MaskNone {
				end := i + e.Size + 1
				if n.Style.MaskMode != MaskNone && n.maskEnd > end {
					end = n.maskEnd
				}
				forceUntil = end
			} else if !view.Empty() && !n.worldMatrix().ApplyRect(n.BBox()).Intersects(view) {
				i += e.Size
				continue
			}
		}

		c := s.cacheAt(n, n.rasterBucket(bucket))
		if n.needsRaster(c) {
			s.rasterize(n, c)
		}
		if n.Kind == KindShapeGroup {
			i += e.Size
		}
	}
}

// rasterize regenerates c from n's own paint.
func (s *Scene) rasterize(n *Node, c *rasterCache) {
	s.images.acquire(n, n.imageSources())
	box := n.ownBox()
	c.bbox = box
	c.available = true
	c.empty = true
	if c.texture != nil && c.shared == "" {
		s.device.Release(c.texture)
	}
	c.texture = nil
	c.shared = ""

	if box.Empty() || !n.hasOwnContent() {
		return
	}
	if n.imageOnly() {
		s.rasterImage(n, c)
		return
	}

	scale, ok := fitScale(box, c.bucket, s.device.MaxTextureSize())
	if !ok {
		w, h := texSize(box, scale)
		s.diag.report(Diagnostic{Kind: DiagCapacity, Node: n,
			Err: fmt.Errorf("%w: %dx%d at scale %g", ErrTextureTooLarge, w, h, scale)})
		return
	}
	r := newRasterizer(s, n, box, scale)
	r.paint()
	s.stats.Rasterized++
	c.scale = scale
	c.toLocal = r.toLocal
	if !r.painted {
		return
	}
	tex, err := s.device.Upload(r.dst)
	if err != nil {
		s.diag.report(Diagnostic{Kind: DiagDevice, Node: n, Err: err})
		return
	}
	s.stats.Uploaded++
	c.texture = tex
	c.empty = false
}

// rasterImage is the image fast path: the decoded image is uploaded once and
// shared by every node showing the same source.
func (s *Scene) rasterImage(n *Node, c *rasterCache) {
	src := n.Bitmap.Src
	e := s.images.lookup(n, src)
	if e == nil {
		return
	}
	switch e.state {
	case ImageLoading:
		n.imgState = ImageLoading
		return
	case ImageError:
		n.imgState = ImageError
		s.diag.report(Diagnostic{Kind: DiagImage, Node: n, Src: src, Err: e.err})
		return
	}
	n.imgState = ImageLoaded
	tex, err := s.images.texture(e)
	if err != nil {
		s.diag.report(Diagnostic{Kind: DiagDevice, Node: n, Src: src, Err: err})
		return
	}
	iw, ih := tex.Size()
	r := n.Rect
	c.scale = c.bucket
	c.toLocal = Translate(r.X, r.Y).Mul(Scale(r.Width/float64(iw), r.Height/float64(ih)))
	c.texture = tex
	c.shared = src
	c.empty = false
}

// paint runs the per-kind strategy.
func (r *rasterizer) paint() {
	n := r.node
	switch n.Kind {
	case KindArtboard:
		r.paintShape([]Path{RectPath(n.Rect)}, nil)
	case KindShape, KindShapeGroup:
		r.paintShape(n.Shape.Paths, nil)
	case KindText:
		r.paintText()
	case KindBitmap:
		r.paintBitmap()
	}
}

// paintShape draws drop shadows, fills, inner shadows and strokes in that
// order. under, if set, paints content beneath the fills.
func (r *rasterizer) paintShape(paths []Path, under func(*image.RGBA)) {
	st := &r.node.Style
	fill, err := fillCoverage(paths, r.toPix, r.w, r.h, st.FillRule)
	if err != nil {
		r.scene.diag.report(Diagnostic{Kind: DiagDevice, Node: r.node, Err: fmt.Errorf("quill: fill coverage: %w", err)})
		return
	}

	content := image.NewRGBA(image.Rect(0, 0, r.w, r.h))
	if under != nil {
		under(content)
	}
	for _, f := range st.Fills {
		if f.Enabled {
			r.fillPaint(content, fill, f.Paint)
		}
	}
	for _, sh := range st.InnerShadows {
		if !sh.Enabled {
			continue
		}
		var choke *coverage
		if sh.Spread > 0 {
			choke, _ = strokeCoverage(paths, r.toPix, r.w, r.h, Stroke{Enabled: true, Width: sh.Spread, Position: StrokeInside}, r.scale, fill)
		}
		innerShadow(content, fill, sh, r.scale, choke)
	}
	for _, s := range st.Strokes {
		if !s.Enabled || s.Width <= 0 {
			continue
		}
		cov, err := strokeCoverage(paths, r.toPix, r.w, r.h, s, r.scale, fill)
		if err != nil {
			r.scene.diag.report(Diagnostic{Kind: DiagDevice, Node: r.node, Err: fmt.Errorf("quill: stroke coverage: %w", err)})
			continue
		}
		r.fillPaint(content, cov, s.Paint)
	}

	if st.anyShadow() && !r.node.Kind.isContainer() {
		sil := coverageOf(content)
		for _, sh := range st.Shadows {
			if !sh.Enabled {
				continue
			}
			var spread *coverage
			if sh.Spread > 0 {
				spread, _ = strokeCoverage(paths, r.toPix, r.w, r.h, Stroke{Enabled: true, Width: sh.Spread, Position: StrokeOutside}, r.scale, fill)
			}
			dropShadow(r.dst, sil, sh, r.scale, spread)
		}
	}
	drawOver(r.dst, content)
	r.painted = !coverageOf(r.dst).empty()
}

// fillPaint composites one paint source under cov.
func (r *rasterizer) fillPaint(dst *image.RGBA, cov *coverage, p Paint) {
	switch p.Kind {
	case PaintSolid:
		fillSolid(dst, cov, p.Color)
	case PaintLinear, PaintRadial, PaintConic:
		paintOver(dst, cov, gradientSource(p, r.node.Rect), r.toLocal, 1)
	case PaintPattern:
		img := r.patternImage(p.Pattern.Src)
		if img == nil {
			return
		}
		paintOver(dst, cov, patternSource(p.Pattern, r.node.Rect, img), r.toLocal, 1)
	}
}

// patternImage returns the decoded pixels of src, or nil while it loads.
func (r *rasterizer) patternImage(src string) *image.RGBA {
	s := r.scene
	e := s.images.lookup(r.node, src)
	if e == nil {
		return nil
	}
	switch e.state {
	case ImageLoaded:
		return e.pixels
	case ImageError:
		s.diag.report(Diagnostic{Kind: DiagImage, Node: r.node, Src: src, Err: e.err})
	}
	return nil
}

// paintText fills every glyph run with its color.
func (r *rasterizer) paintText() {
	s := r.scene
	var buf sfnt.Buffer
	for _, run := range r.node.Text.Runs {
		f := run.Font
		if f == nil && run.FontSrc != "" {
			var state ImageState
			f, state = s.fonts.lookup(r.node, run.FontSrc)
			if state == ImageError {
				s.diag.report(Diagnostic{Kind: DiagFont, Node: r.node, Src: run.FontSrc, Err: s.fonts.entries[run.FontSrc].err})
			}
		}
		if f == nil || run.Size <= 0 {
			continue
		}
		paths, err := glyphPaths(f, run, &buf)
		if err != nil {
			s.diag.report(Diagnostic{Kind: DiagFont, Node: r.node, Src: run.FontSrc, Err: fmt.Errorf("%w: %w", ErrFontLoad, err)})
		}
		if len(paths) == 0 {
			continue
		}
		cov, err := fillCoverage(paths, r.toPix, r.w, r.h, FillNonZero)
		if err != nil {
			continue
		}
		fillSolid(r.dst, cov, run.Color)
	}
	r.painted = !coverageOf(r.dst).empty()
}

// paintBitmap draws the image into the node rect beneath the node's own
// paint.
func (r *rasterizer) paintBitmap() {
	n := r.node
	s := r.scene
	var img *image.RGBA
	if src := n.Bitmap.Src; src != "" {
		e := s.images.lookup(n, src)
		switch {
		case e == nil:
		case e.state == ImageLoaded:
			n.imgState = ImageLoaded
			img = e.pixels
		case e.state == ImageError:
			n.imgState = ImageError
			s.diag.report(Diagnostic{Kind: DiagImage, Node: n, Src: src, Err: e.err})
		default:
			n.imgState = ImageLoading
		}
	}
	under := func(dst *image.RGBA) {
		if img == nil {
			return
		}
		iw, ih := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
		m := r.toPix.Mul(Translate(n.Rect.X, n.Rect.Y)).Mul(Scale(n.Rect.Width/iw, n.Rect.Height/ih))
		aff := f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
		draw.BiLinear.Transform(dst, aff, img, img.Bounds(), draw.Over, nil)
	}
	r.paintShape([]Path{RectPath(n.Rect)}, under)
}
