package quill

import "math"

// --- Hit testing ---

// curveSteps is the number of line segments a curve is flattened into.
const curveSteps = 8

// HitTest finds the topmost visible node whose own content covers the
// logical screen point (sx, sy). Containers are hit through their
// descendants; an artboard is hit by its background. Masked content is only
// hit where the mask covers it. Returns nil if nothing is hit.
func (s *Scene) HitTest(sx, sy float64) *Node {
	if s.table.stale {
		s.table.Rebuild(s.root)
	}
	wx, wy := s.viewport.ScreenToWorld(sx, sy)
	s.hitBuf = s.collectHittable(s.hitBuf[:0])

	// Reverse painter order: topmost first.
	for i := len(s.hitBuf) - 1; i >= 0; i-- {
		n := s.hitBuf[i]
		if nodeContainsWorld(n, wx, wy) && !clippedAt(n, wx, wy) {
			return n
		}
	}
	return nil
}

// collectHittable walks the struct table in painter order, appending nodes
// with their own content. Hidden and fully transparent subtrees are skipped;
// shape group operands are covered by the group itself.
func (s *Scene) collectHittable(buf []*Node) []*Node {
	entries := s.table.entries
	for i := 0; i < len(entries); i++ {
		e := entries[i]
		n := e.Node
		if n.hidesMaskRange() {
			i = max(n.maskEnd, i+e.Size+1) - 1
			continue
		}
		if !n.Style.Visible || n.Style.Opacity <= 0 {
			i += e.Size
			continue
		}
		// Pure masks are not drawn themselves.
		shown := n.Style.MaskMode == MaskNone || n.Style.MaskMode.showsContent()
		if shown && n.hasOwnContent() {
			buf = append(buf, n)
		}
		if n.Kind == KindShapeGroup {
			i += e.Size
		}
	}
	return buf
}

// clippedAt reports whether a mask on n or any ancestor hides the point.
// Shape masks clip to their geometry, other masks to their bounds.
func clippedAt(n *Node, wx, wy float64) bool {
	for ; n != nil; n = n.Parent {
		m := n.maskedBy
		if m == nil {
			continue
		}
		if m.Kind == KindShape || m.Kind == KindShapeGroup {
			if !nodeContainsWorld(m, wx, wy) {
				return true
			}
			continue
		}
		lx, ly := m.WorldToLocal(wx, wy)
		if !m.BBox().Contains(lx, ly) {
			return true
		}
	}
	return false
}

// nodeContainsWorld tests a world point against the node's geometry.
func nodeContainsWorld(n *Node, wx, wy float64) bool {
	lx, ly := n.WorldToLocal(wx, wy)
	return nodeContainsLocal(n, lx, ly)
}

// nodeContainsLocal tests a local point against the node's paths and stroke
// band, or its rect for kinds without geometry.
func nodeContainsLocal(n *Node, lx, ly float64) bool {
	switch n.Kind {
	case KindShape, KindShapeGroup:
		paths := n.Shape.Paths
		if len(paths) == 0 {
			return false
		}
		if pathsContain(paths, lx, ly, n.Style.FillRule) {
			return true
		}
		if w := n.Style.strokeOutset(); w > 0 {
			return nearPaths(paths, lx, ly, w)
		}
		return false
	default:
		return n.Rect.Contains(lx, ly)
	}
}

// flatten calls edge for every line segment of the flattened paths. Open
// subpaths are closed back to their start when closeOpen is set.
func flatten(paths []Path, closeOpen bool, edge func(x0, y0, x1, y1 float64)) {
	for _, p := range paths {
		var startX, startY, curX, curY float64
		closeSub := func() {
			if curX != startX || curY != startY {
				edge(curX, curY, startX, startY)
			}
			curX, curY = startX, startY
		}
		for _, seg := range p {
			switch seg.Verb {
			case VerbMove:
				if closeOpen {
					closeSub()
				}
				startX, startY = seg.Pts[0].X, seg.Pts[0].Y
				curX, curY = startX, startY
			case VerbLine:
				edge(curX, curY, seg.Pts[0].X, seg.Pts[0].Y)
				curX, curY = seg.Pts[0].X, seg.Pts[0].Y
			case VerbQuad:
				px, py := curX, curY
				for k := 1; k <= curveSteps; k++ {
					t := float64(k) / curveSteps
					u := 1 - t
					nx := u*u*px + 2*u*t*seg.Pts[0].X + t*t*seg.Pts[1].X
					ny := u*u*py + 2*u*t*seg.Pts[0].Y + t*t*seg.Pts[1].Y
					edge(curX, curY, nx, ny)
					curX, curY = nx, ny
				}
			case VerbCubic:
				px, py := curX, curY
				for k := 1; k <= curveSteps; k++ {
					t := float64(k) / curveSteps
					u := 1 - t
					nx := u*u*u*px + 3*u*u*t*seg.Pts[0].X + 3*u*t*t*seg.Pts[1].X + t*t*t*seg.Pts[2].X
					ny := u*u*u*py + 3*u*u*t*seg.Pts[0].Y + 3*u*t*t*seg.Pts[1].Y + t*t*t*seg.Pts[2].Y
					edge(curX, curY, nx, ny)
					curX, curY = nx, ny
				}
			case VerbClose:
				closeSub()
			}
		}
		if closeOpen {
			closeSub()
		}
	}
}

// pathsContain reports whether (x, y) is inside paths under the fill rule.
func pathsContain(paths []Path, x, y float64, rule FillRule) bool {
	winding := 0
	flatten(paths, true, func(x0, y0, x1, y1 float64) {
		if y0 <= y {
			if y1 > y && cross(x0, y0, x1, y1, x, y) > 0 {
				winding++
			}
		} else if y1 <= y && cross(x0, y0, x1, y1, x, y) < 0 {
			winding--
		}
	})
	if rule == FillEvenOdd {
		return winding%2 != 0
	}
	return winding != 0
}

// nearPaths reports whether (x, y) lies within dist of any path edge.
func nearPaths(paths []Path, x, y, dist float64) bool {
	hit := false
	d2 := dist * dist
	flatten(paths, false, func(x0, y0, x1, y1 float64) {
		if hit {
			return
		}
		dx, dy := x1-x0, y1-y0
		t := 0.0
		if l := dx*dx + dy*dy; l > 0 {
			t = math.Max(0, math.Min(1, ((x-x0)*dx+(y-y0)*dy)/l))
		}
		ex, ey := x0+t*dx-x, y0+t*dy-y
		hit = ex*ex+ey*ey <= d2
	})
	return hit
}

// cross is the z component of (b-a) x (p-a).
func cross(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (px-ax)*(by-ay)
}
