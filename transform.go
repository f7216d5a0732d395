package quill

import "math"

// Affine is a 2D affine matrix [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Affine [6]float64

// Identity is the identity affine matrix.
var Identity = Affine{1, 0, 0, 1, 0, 0}

// Translate returns a translation matrix.
func Translate(x, y float64) Affine {
	return Affine{1, 0, 0, 1, x, y}
}

// Scale returns a scaling matrix.
func Scale(sx, sy float64) Affine {
	return Affine{sx, 0, 0, sy, 0, 0}
}

// Placement describes a node's local transform the way a layout pass reports
// it. Composition order:
//
//	Translate(-PivotX, -PivotY) -> Scale -> Skew -> Rotate -> Translate(X, Y)
type Placement struct {
	X, Y         float64
	ScaleX       float64
	ScaleY       float64
	Rotation     float64
	SkewX, SkewY float64
	PivotX       float64
	PivotY       float64
}

// Matrix computes the affine matrix for the placement. Zero scales are
// treated as 1.
func (p Placement) Matrix() Affine {
	sx, sy := p.ScaleX, p.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}

	sin, cos := math.Sincos(p.Rotation)

	var tanSkewX, tanSkewY float64
	if p.SkewX != 0 {
		tanSkewX = math.Tan(p.SkewX)
	}
	if p.SkewY != 0 {
		tanSkewY = math.Tan(p.SkewY)
	}

	a := sx
	b := tanSkewY * sx
	c := tanSkewX * sy
	d := sy

	preTx := -p.PivotX*sx - tanSkewX*p.PivotY*sy
	preTy := -tanSkewY*p.PivotX*sx - p.PivotY*sy

	ra := cos*a - sin*b
	rb := sin*a + cos*b
	rc := cos*c - sin*d
	rd := sin*c + cos*d
	rtx := cos*preTx - sin*preTy
	rty := sin*preTx + cos*preTy

	return Affine{ra, rb, rc, rd, rtx + p.X, rty + p.Y}
}

// Mul returns m * o (o applied first).
func (m Affine) Mul(o Affine) Affine {
	return Affine{
		m[0]*o[0] + m[2]*o[1],
		m[1]*o[0] + m[3]*o[1],
		m[0]*o[2] + m[2]*o[3],
		m[1]*o[2] + m[3]*o[3],
		m[0]*o[4] + m[2]*o[5] + m[4],
		m[1]*o[4] + m[3]*o[5] + m[5],
	}
}

// Invert computes the inverse matrix.
// Returns the identity matrix if the matrix is singular.
func (m Affine) Invert() Affine {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return Identity
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Affine{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// Apply transforms a point.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ApplyRect returns the axis-aligned bounds of r after transformation.
func (m Affine) ApplyRect(r Rect) Rect {
	if r.Empty() {
		return Rect{}
	}
	x0, y0 := m.Apply(r.X, r.Y)
	x1, y1 := m.Apply(r.X+r.Width, r.Y)
	x2, y2 := m.Apply(r.X, r.Y+r.Height)
	x3, y3 := m.Apply(r.X+r.Width, r.Y+r.Height)
	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// ScaleFactor returns the geometric mean of the axis scales.
func (m Affine) ScaleFactor() float64 {
	sx := math.Hypot(m[0], m[1])
	sy := math.Hypot(m[2], m[3])
	return math.Sqrt(sx * sy)
}

// worldMatrix returns the node's cached world matrix, recomputing it from the
// parent chain when the cache is invalid.
func (n *Node) worldMatrix() Affine {
	if n.worldMatrixValid {
		return n.world
	}
	if n.Parent == nil {
		n.world = n.Matrix
	} else {
		n.world = n.Parent.worldMatrix().Mul(n.Matrix)
	}
	n.worldMatrixValid = true
	return n.world
}

// worldOpacity returns the node's cached product of opacities up to the root.
func (n *Node) worldOpacity() float64 {
	if n.worldOpacityValid {
		return n.worldAlpha
	}
	if n.Parent == nil {
		n.worldAlpha = n.Style.Opacity
	} else {
		n.worldAlpha = n.Parent.worldOpacity() * n.Style.Opacity
	}
	n.worldOpacityValid = true
	return n.worldAlpha
}

// invalidateWorld clears the cached world matrix and opacity of n and all
// descendants.
func invalidateWorld(n *Node, matrix, opacity bool) {
	if matrix {
		n.worldMatrixValid = false
	}
	if opacity {
		n.worldOpacityValid = false
	}
	for _, child := range n.children {
		invalidateWorld(child, matrix, opacity)
	}
}

// WorldToLocal converts a world-space point to this node's local space.
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	return n.worldMatrix().Invert().Apply(wx, wy)
}

// LocalToWorld converts a local-space point to world space.
func (n *Node) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return n.worldMatrix().Apply(lx, ly)
}
