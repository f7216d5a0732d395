package quill

import "math"

// Verb is a path segment operation.
type Verb uint8

const (
	VerbMove Verb = iota
	VerbLine
	VerbQuad
	VerbCubic
	VerbClose
)

// Segment is one path operation. Move and Line use Pts[0], Quad uses
// Pts[0:2] and Cubic uses Pts[0:3]. Close uses none.
type Segment struct {
	Verb Verb
	Pts  [3]Vec2
}

// Path is a flattened point list in node-local coordinates, as produced by
// the geometry layer after boolean operations.
type Path []Segment

// MoveTo appends a move segment.
func (p Path) MoveTo(x, y float64) Path {
	return append(p, Segment{Verb: VerbMove, Pts: [3]Vec2{{x, y}}})
}

// LineTo appends a line segment.
func (p Path) LineTo(x, y float64) Path {
	return append(p, Segment{Verb: VerbLine, Pts: [3]Vec2{{x, y}}})
}

// QuadTo appends a quadratic bezier segment.
func (p Path) QuadTo(cx, cy, x, y float64) Path {
	return append(p, Segment{Verb: VerbQuad, Pts: [3]Vec2{{cx, cy}, {x, y}}})
}

// CubicTo appends a cubic bezier segment.
func (p Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) Path {
	return append(p, Segment{Verb: VerbCubic, Pts: [3]Vec2{{c1x, c1y}, {c2x, c2y}, {x, y}}})
}

// Close appends a close segment.
func (p Path) Close() Path {
	return append(p, Segment{Verb: VerbClose})
}

// RectPath returns a closed rectangle path.
func RectPath(r Rect) Path {
	return Path{}.
		MoveTo(r.X, r.Y).
		LineTo(r.X+r.Width, r.Y).
		LineTo(r.X+r.Width, r.Y+r.Height).
		LineTo(r.X, r.Y+r.Height).
		Close()
}

// kappa is the cubic control distance for a quarter circle.
const kappa = 0.5522847498307936

// EllipsePath returns a closed ellipse inscribed in r.
func EllipsePath(r Rect) Path {
	rx, ry := r.Width/2, r.Height/2
	cx, cy := r.X+rx, r.Y+ry
	ox, oy := rx*kappa, ry*kappa
	return Path{}.
		MoveTo(cx+rx, cy).
		CubicTo(cx+rx, cy+oy, cx+ox, cy+ry, cx, cy+ry).
		CubicTo(cx-ox, cy+ry, cx-rx, cy+oy, cx-rx, cy).
		CubicTo(cx-rx, cy-oy, cx-ox, cy-ry, cx, cy-ry).
		CubicTo(cx+ox, cy-ry, cx+rx, cy-oy, cx+rx, cy).
		Close()
}

// PolygonPath returns a path through pts, closed when closed is true.
func PolygonPath(pts []Vec2, closed bool) Path {
	if len(pts) == 0 {
		return nil
	}
	p := make(Path, 0, len(pts)+1)
	p = p.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p = p.LineTo(pt.X, pt.Y)
	}
	if closed {
		p = p.Close()
	}
	return p
}

// Bounds returns the bounds of the path's control points.
func (p Path) Bounds() Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range p {
		n := 0
		switch s.Verb {
		case VerbMove, VerbLine:
			n = 1
		case VerbQuad:
			n = 2
		case VerbCubic:
			n = 3
		}
		for i := 0; i < n; i++ {
			minX = math.Min(minX, s.Pts[i].X)
			minY = math.Min(minY, s.Pts[i].Y)
			maxX = math.Max(maxX, s.Pts[i].X)
			maxY = math.Max(maxY, s.Pts[i].Y)
		}
	}
	if minX > maxX {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
