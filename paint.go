package quill

import (
	"image"
	"math"

	"github.com/gogpu/gg"
)

// coverage is an 8-bit alpha mask with the size of a raster bitmap.
type coverage struct {
	w, h int
	a    []uint8
}

func newCoverage(w, h int) *coverage {
	return &coverage{w: w, h: h, a: make([]uint8, w*h)}
}

// coverageOf extracts the alpha channel of a premultiplied image.
func coverageOf(img *image.RGBA) *coverage {
	b := img.Bounds()
	c := newCoverage(b.Dx(), b.Dy())
	for y := 0; y < c.h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < c.w; x++ {
			c.a[y*c.w+x] = row[x*4+3]
		}
	}
	return c
}

func (c *coverage) empty() bool {
	for _, v := range c.a {
		if v != 0 {
			return false
		}
	}
	return true
}

// intersect keeps coverage only where o also covers.
func (c *coverage) intersect(o *coverage) {
	for i, v := range c.a {
		c.a[i] = uint8((uint32(v)*uint32(o.a[i]) + 127) / 255)
	}
}

// subtract removes o's coverage.
func (c *coverage) subtract(o *coverage) {
	for i, v := range c.a {
		c.a[i] = uint8((uint32(v)*uint32(255-o.a[i]) + 127) / 255)
	}
}

// union merges o into c.
func (c *coverage) union(o *coverage) {
	for i, v := range c.a {
		c.a[i] = max(v, o.a[i])
	}
}

func (c *coverage) invert() {
	for i, v := range c.a {
		c.a[i] = 255 - v
	}
}

// shifted returns a copy moved by (dx, dy) whole pixels. Pixels moved in
// from outside take the value fill.
func (c *coverage) shifted(dx, dy int, fill uint8) *coverage {
	out := newCoverage(c.w, c.h)
	for y := 0; y < c.h; y++ {
		sy := y - dy
		for x := 0; x < c.w; x++ {
			sx := x - dx
			if sx < 0 || sy < 0 || sx >= c.w || sy >= c.h {
				out.a[y*c.w+x] = fill
				continue
			}
			out.a[y*c.w+x] = c.a[sy*c.w+sx]
		}
	}
	return out
}

// tracePaths replays paths into dc, transforming points by m.
func tracePaths(dc *gg.Context, paths []Path, m Affine) {
	for _, p := range paths {
		for _, seg := range p {
			switch seg.Verb {
			case VerbMove:
				x, y := m.Apply(seg.Pts[0].X, seg.Pts[0].Y)
				dc.MoveTo(x, y)
			case VerbLine:
				x, y := m.Apply(seg.Pts[0].X, seg.Pts[0].Y)
				dc.LineTo(x, y)
			case VerbQuad:
				cx, cy := m.Apply(seg.Pts[0].X, seg.Pts[0].Y)
				x, y := m.Apply(seg.Pts[1].X, seg.Pts[1].Y)
				dc.QuadraticTo(cx, cy, x, y)
			case VerbCubic:
				c1x, c1y := m.Apply(seg.Pts[0].X, seg.Pts[0].Y)
				c2x, c2y := m.Apply(seg.Pts[1].X, seg.Pts[1].Y)
				x, y := m.Apply(seg.Pts[2].X, seg.Pts[2].Y)
				dc.CubicTo(c1x, c1y, c2x, c2y, x, y)
			case VerbClose:
				dc.ClosePath()
			}
		}
	}
}

// fillCoverage rasterizes the interior of paths with anti-aliasing.
func fillCoverage(paths []Path, m Affine, w, h int, rule FillRule) (*coverage, error) {
	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.SetRGBA(1, 1, 1, 1)
	if rule == FillEvenOdd {
		dc.SetFillRule(gg.FillRuleEvenOdd)
	} else {
		dc.SetFillRule(gg.FillRuleNonZero)
	}
	tracePaths(dc, paths, m)
	if err := dc.Fill(); err != nil {
		return nil, err
	}
	return coverageOf(dc.Image().(*image.RGBA)), nil
}

// strokeCoverage rasterizes the outline of paths. Inside and outside
// strokes are drawn at twice the width and clipped against fill.
func strokeCoverage(paths []Path, m Affine, w, h int, st Stroke, scale float64, fill *coverage) (*coverage, error) {
	width := st.Width * scale
	if st.Position != StrokeCenter {
		width *= 2
	}
	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.SetRGBA(1, 1, 1, 1)
	dc.SetLineWidth(width)
	switch st.Cap {
	case CapRound:
		dc.SetLineCap(gg.LineCapRound)
	case CapSquare:
		dc.SetLineCap(gg.LineCapSquare)
	default:
		dc.SetLineCap(gg.LineCapButt)
	}
	switch st.Join {
	case JoinRound:
		dc.SetLineJoin(gg.LineJoinRound)
	case JoinBevel:
		dc.SetLineJoin(gg.LineJoinBevel)
	default:
		dc.SetLineJoin(gg.LineJoinMiter)
	}
	if st.MiterLimit > 0 {
		dc.SetMiterLimit(st.MiterLimit)
	}
	if len(st.Dash) > 0 {
		dash := make([]float64, len(st.Dash))
		for i, d := range st.Dash {
			dash[i] = d * scale
		}
		dc.SetDash(dash...)
	}
	tracePaths(dc, paths, m)
	if err := dc.Stroke(); err != nil {
		return nil, err
	}
	cov := coverageOf(dc.Image().(*image.RGBA))
	switch st.Position {
	case StrokeInside:
		cov.intersect(fill)
	case StrokeOutside:
		cov.subtract(fill)
	}
	return cov, nil
}

// paintSource returns the straight color of a paint at a local point.
type paintSource func(lx, ly float64) Color

func toGG(c Color) gg.RGBA {
	return gg.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func fromGG(c gg.RGBA) Color {
	return Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// gradientSource builds a gradient brush over rect. Handles are fractions of
// rect; radial gradients reach from Start to End, conic gradients start at
// the angle from Start towards End.
func gradientSource(p Paint, rect Rect) paintSource {
	sx, sy := rect.X+p.Start.X*rect.Width, rect.Y+p.Start.Y*rect.Height
	ex, ey := rect.X+p.End.X*rect.Width, rect.Y+p.End.Y*rect.Height
	switch p.Kind {
	case PaintRadial:
		g := gg.NewRadialGradientBrush(sx, sy, 0, math.Hypot(ex-sx, ey-sy))
		for _, st := range p.Stops {
			g.AddColorStop(st.Offset, toGG(st.Color))
		}
		return func(lx, ly float64) Color { return fromGG(g.ColorAt(lx, ly)) }
	case PaintConic:
		g := gg.NewSweepGradientBrush(sx, sy, math.Atan2(ey-sy, ex-sx))
		for _, st := range p.Stops {
			g.AddColorStop(st.Offset, toGG(st.Color))
		}
		return func(lx, ly float64) Color { return fromGG(g.ColorAt(lx, ly)) }
	default:
		g := gg.NewLinearGradientBrush(sx, sy, ex, ey)
		for _, st := range p.Stops {
			g.AddColorStop(st.Offset, toGG(st.Color))
		}
		return func(lx, ly float64) Color { return fromGG(g.ColorAt(lx, ly)) }
	}
}

// patternSource lays img out inside rect according to the pattern mode.
func patternSource(pt Pattern, rect Rect, img *image.RGBA) paintSource {
	iw, ih := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	if iw == 0 || ih == 0 || rect.Empty() {
		return func(float64, float64) Color { return Color{} }
	}
	ox, oy := rect.X, rect.Y
	sx, sy := rect.Width/iw, rect.Height/ih
	tile := false
	switch pt.Mode {
	case PatternFill:
		k := math.Max(sx, sy)
		sx, sy = k, k
		ox += (rect.Width - iw*k) / 2
		oy += (rect.Height - ih*k) / 2
	case PatternFit:
		k := math.Min(sx, sy)
		sx, sy = k, k
		ox += (rect.Width - iw*k) / 2
		oy += (rect.Height - ih*k) / 2
	case PatternTile:
		k := pt.Scale
		if k <= 0 {
			k = 1
		}
		sx, sy = k, k
		tile = true
	}
	return func(lx, ly float64) Color {
		u := (lx - ox) / sx
		v := (ly - oy) / sy
		if tile {
			u = math.Mod(u, iw)
			if u < 0 {
				u += iw
			}
			v = math.Mod(v, ih)
			if v < 0 {
				v += ih
			}
		} else if u < 0 || v < 0 || u >= iw || v >= ih {
			return Color{}
		}
		r, g, b, a := sampleBilinear(img, u, v)
		return unpremultiply(r, g, b, a)
	}
}

// sampleBilinear reads premultiplied color at continuous pixel position
// (x, y), where pixel centers sit at half-integers. Edges clamp.
func sampleBilinear(img *image.RGBA, x, y float64) (r, g, b, a float64) {
	bw, bh := img.Bounds().Dx(), img.Bounds().Dy()
	fx, fy := x-0.5, y-0.5
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := fx-float64(x0), fy-float64(y0)
	for j := 0; j < 2; j++ {
		wy := ty
		if j == 0 {
			wy = 1 - ty
		}
		if wy == 0 {
			continue
		}
		py := min(max(y0+j, 0), bh-1)
		for i := 0; i < 2; i++ {
			wx := tx
			if i == 0 {
				wx = 1 - tx
			}
			w := wx * wy
			if w == 0 {
				continue
			}
			px := min(max(x0+i, 0), bw-1)
			o := py*img.Stride + px*4
			r += w * float64(img.Pix[o])
			g += w * float64(img.Pix[o+1])
			b += w * float64(img.Pix[o+2])
			a += w * float64(img.Pix[o+3])
		}
	}
	return r / 255, g / 255, b / 255, a / 255
}

func unpremultiply(r, g, b, a float64) Color {
	if a <= 0 {
		return Color{}
	}
	return Color{R: clamp01(r / a), G: clamp01(g / a), B: clamp01(b / a), A: clamp01(a)}
}

// paintOver composites src under cov onto dst with source-over. toLocal maps
// pixel centers back to local coordinates for the paint lookup.
func paintOver(dst *image.RGBA, cov *coverage, src paintSource, toLocal Affine, alpha float64) {
	for y := 0; y < cov.h; y++ {
		for x := 0; x < cov.w; x++ {
			k := cov.a[y*cov.w+x]
			if k == 0 {
				continue
			}
			lx, ly := toLocal.Apply(float64(x)+0.5, float64(y)+0.5)
			c := src(lx, ly)
			blendPixel(dst, x, y, c, float64(k)/255*alpha)
		}
	}
}

// fillSolid is paintOver for a constant color.
func fillSolid(dst *image.RGBA, cov *coverage, c Color) {
	for y := 0; y < cov.h; y++ {
		for x := 0; x < cov.w; x++ {
			if k := cov.a[y*cov.w+x]; k != 0 {
				blendPixel(dst, x, y, c, float64(k)/255)
			}
		}
	}
}

// blendPixel draws straight color c with extra alpha k over a premultiplied
// pixel.
func blendPixel(dst *image.RGBA, x, y int, c Color, k float64) {
	sa := clamp01(c.A) * k
	if sa <= 0 {
		return
	}
	o := y*dst.Stride + x*4
	inv := 1 - sa
	dst.Pix[o] = unit8(clamp01(c.R)*sa + float64(dst.Pix[o])/255*inv)
	dst.Pix[o+1] = unit8(clamp01(c.G)*sa + float64(dst.Pix[o+1])/255*inv)
	dst.Pix[o+2] = unit8(clamp01(c.B)*sa + float64(dst.Pix[o+2])/255*inv)
	dst.Pix[o+3] = unit8(sa + float64(dst.Pix[o+3])/255*inv)
}

// drawOver composites premultiplied src over dst pixel by pixel.
func drawOver(dst, src *image.RGBA) {
	for i := 0; i+3 < len(src.Pix) && i+3 < len(dst.Pix); i += 4 {
		sa := src.Pix[i+3]
		if sa == 0 {
			continue
		}
		inv := 255 - uint32(sa)
		for k := 0; k < 4; k++ {
			dst.Pix[i+k] = uint8(min(uint32(src.Pix[i+k])+(uint32(dst.Pix[i+k])*inv+127)/255, 255))
		}
	}
}

func unit8(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

// newWhiteImage turns coverage into premultiplied opaque white.
func newWhiteImage(cov *coverage) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cov.w, cov.h))
	for i, v := range cov.a {
		o := i * 4
		img.Pix[o] = v
		img.Pix[o+1] = v
		img.Pix[o+2] = v
		img.Pix[o+3] = v
	}
	return img
}
