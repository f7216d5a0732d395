package quill

import (
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Glyph is one positioned glyph of a run. X and Y are the pen origin on the
// baseline in local coordinates.
type Glyph struct {
	Index sfnt.GlyphIndex
	X, Y  float64
}

// GlyphRun is a laid-out span of glyphs sharing one font, size and color.
// Font may be supplied directly; otherwise FontSrc is fetched through the
// scene's resource loader.
type GlyphRun struct {
	Font    *sfnt.Font
	FontSrc string
	Size    float64
	Color   Color
	Glyphs  []Glyph
}

// glyphPaths converts the outlines of a run into paths in local space. The
// returned error is from the font tables; a partial result is kept.
func glyphPaths(f *sfnt.Font, run GlyphRun, buf *sfnt.Buffer) ([]Path, error) {
	ppem := fixed.Int26_6(run.Size*64 + 0.5)
	paths := make([]Path, 0, len(run.Glyphs))
	var firstErr error
	for _, g := range run.Glyphs {
		segs, err := f.LoadGlyph(buf, g.Index, ppem, nil)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		var p Path
		pt := func(q fixed.Point26_6) (float64, float64) {
			return g.X + float64(q.X)/64, g.Y + float64(q.Y)/64
		}
		for _, s := range segs {
			switch s.Op {
			case sfnt.SegmentOpMoveTo:
				if len(p) > 0 {
					p = p.Close()
				}
				x, y := pt(s.Args[0])
				p = p.MoveTo(x, y)
			case sfnt.SegmentOpLineTo:
				x, y := pt(s.Args[0])
				p = p.LineTo(x, y)
			case sfnt.SegmentOpQuadTo:
				cx, cy := pt(s.Args[0])
				x, y := pt(s.Args[1])
				p = p.QuadTo(cx, cy, x, y)
			case sfnt.SegmentOpCubeTo:
				c1x, c1y := pt(s.Args[0])
				c2x, c2y := pt(s.Args[1])
				x, y := pt(s.Args[2])
				p = p.CubicTo(c1x, c1y, c2x, c2y, x, y)
			}
		}
		if len(p) > 0 {
			paths = append(paths, p.Close())
		}
	}
	return paths, firstErr
}

// GlyphsOf lays s out on a single line with the font's advances and
// kerning, starting at the baseline origin (x, y). It is a convenience for
// callers without a shaping engine.
func GlyphsOf(f *sfnt.Font, s string, size, x, y float64) ([]Glyph, error) {
	var buf sfnt.Buffer
	ppem := fixed.Int26_6(size*64 + 0.5)
	glyphs := make([]Glyph, 0, len(s))
	pen := x
	prev := sfnt.GlyphIndex(0)
	for i, r := range s {
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			if k, err := f.Kern(&buf, prev, idx, ppem, 0); err == nil {
				pen += float64(k) / 64
			}
		}
		glyphs = append(glyphs, Glyph{Index: idx, X: pen, Y: y})
		adv, err := f.GlyphAdvance(&buf, idx, ppem, 0)
		if err != nil {
			return nil, err
		}
		pen += float64(adv) / 64
		prev = idx
	}
	return glyphs, nil
}
