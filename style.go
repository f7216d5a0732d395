package quill

import "math"

// PaintKind selects the source of a fill or stroke.
type PaintKind uint8

const (
	PaintSolid PaintKind = iota
	PaintLinear
	PaintRadial
	PaintConic
	PaintPattern
)

// GradientStop is a color at an offset in [0, 1] along a gradient.
type GradientStop struct {
	Offset float64
	Color  Color
}

// PatternMode controls how a pattern image is laid out inside the node rect.
type PatternMode uint8

const (
	PatternFill    PatternMode = iota // cover the rect, keep aspect, crop
	PatternFit                        // contain inside the rect, keep aspect
	PatternStretch                    // stretch to the rect
	PatternTile                       // repeat at Scale from the rect origin
)

// Pattern is an image paint source.
type Pattern struct {
	Src   string
	Mode  PatternMode
	Scale float64 // tile scale, 0 means 1
}

// Paint describes what color a fill or stroke puts under its coverage.
// Gradient handles are fractions of the node rect: (0,0) is the top-left
// corner and (1,1) the bottom-right.
type Paint struct {
	Kind    PaintKind
	Color   Color
	Stops   []GradientStop
	Start   Vec2
	End     Vec2
	Pattern Pattern
}

// Fill is one entry in a node's fill list.
type Fill struct {
	Enabled bool
	Paint
}

// SolidFill returns an enabled solid color fill.
func SolidFill(c Color) Fill {
	return Fill{Enabled: true, Paint: Paint{Kind: PaintSolid, Color: c}}
}

// LinearFill returns an enabled linear gradient fill.
func LinearFill(start, end Vec2, stops ...GradientStop) Fill {
	return Fill{Enabled: true, Paint: Paint{Kind: PaintLinear, Start: start, End: end, Stops: stops}}
}

// PatternFillOf returns an enabled image pattern fill.
func PatternFillOf(src string, mode PatternMode) Fill {
	return Fill{Enabled: true, Paint: Paint{Kind: PaintPattern, Pattern: Pattern{Src: src, Mode: mode}}}
}

// StrokePosition places the stroke relative to the path.
type StrokePosition uint8

const (
	StrokeCenter StrokePosition = iota
	StrokeInside
	StrokeOutside
)

// LineCap is the shape of open path ends.
type LineCap uint8

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// LineJoin is the shape of path corners.
type LineJoin uint8

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// Stroke is one entry in a node's stroke list.
type Stroke struct {
	Enabled    bool
	Paint      Paint
	Width      float64
	Position   StrokePosition
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
	Dash       []float64
}

// SolidStroke returns an enabled center stroke of the given color and width.
func SolidStroke(c Color, width float64) Stroke {
	return Stroke{Enabled: true, Paint: Paint{Kind: PaintSolid, Color: c}, Width: width}
}

// outset returns how far the stroke paints beyond the path.
func (s Stroke) outset() float64 {
	if !s.Enabled || s.Width <= 0 {
		return 0
	}
	switch s.Position {
	case StrokeInside:
		return 0
	case StrokeOutside:
		return s.Width
	default:
		return s.Width / 2
	}
}

// Shadow is a drop or inner shadow.
type Shadow struct {
	Enabled bool
	Color   Color
	X, Y    float64
	Blur    float64
	Spread  float64
}

func (s Shadow) outset() float64 {
	if !s.Enabled {
		return 0
	}
	return math.Max(math.Abs(s.X), math.Abs(s.Y)) + s.Blur + math.Max(s.Spread, 0)
}

// BlurKind selects the blur effect.
type BlurKind uint8

const (
	BlurNone BlurKind = iota
	BlurGaussian
	BlurMotion
	BlurRadial
)

// Blur is a post-raster blur effect. Radius is the gaussian standard
// deviation, the motion distance, or the radial strength in [0, 1].
// Angle is the motion direction in radians. Center is the radial center as a
// fraction of the node rect.
type Blur struct {
	Kind   BlurKind
	Radius float64
	Angle  float64
	Center Vec2
}

func (b Blur) outset() float64 {
	switch b.Kind {
	case BlurGaussian:
		return math.Ceil(b.Radius * 3)
	case BlurMotion:
		return math.Ceil(b.Radius / 2)
	default:
		return 0
	}
}

// ColorAdjust is a hue/saturation/brightness/contrast adjustment. Hue is in
// radians, Saturation and Contrast are multipliers (1 is unchanged) and
// Brightness is an additive offset.
type ColorAdjust struct {
	Hue        float64
	Saturation float64
	Brightness float64
	Contrast   float64
}

// FillRule determines which areas are inside a path.
type FillRule uint8

const (
	FillNonZero FillRule = iota
	FillEvenOdd
)

// Style is the computed paint style of a node as supplied by the layout and
// style resolver.
type Style struct {
	Visible   bool
	Opacity   float64
	Blend     BlendMode
	MaskMode  MaskMode
	BreakMask bool

	Fills        []Fill
	Strokes      []Stroke
	Shadows      []Shadow
	InnerShadows []Shadow
	FillRule     FillRule

	Blur   Blur
	Adjust *ColorAdjust
	Tint   *Color
}

// DefaultStyle returns a visible, fully opaque style with no paint.
func DefaultStyle() Style {
	return Style{Visible: true, Opacity: 1}
}

// hasEffects reports whether the style needs the effect pipeline.
func (s *Style) hasEffects(kind NodeKind) bool {
	if s.Blur.Kind != BlurNone && s.Blur.Radius > 0 {
		return true
	}
	if s.Adjust != nil || s.Tint != nil {
		return true
	}
	return kind.isContainer() && s.anyShadow()
}

func (s *Style) anyShadow() bool {
	for _, sh := range s.Shadows {
		if sh.Enabled {
			return true
		}
	}
	return false
}

func (s *Style) hasPaint() bool {
	for _, f := range s.Fills {
		if f.Enabled {
			return true
		}
	}
	for _, st := range s.Strokes {
		if st.Enabled && st.Width > 0 {
			return true
		}
	}
	for _, sh := range s.InnerShadows {
		if sh.Enabled {
			return true
		}
	}
	return false
}

func (s *Style) strokeOutset() float64 {
	var m float64
	for _, st := range s.Strokes {
		m = math.Max(m, st.outset())
	}
	return m
}

func (s *Style) shadowOutset() float64 {
	var m float64
	for _, sh := range s.Shadows {
		m = math.Max(m, sh.outset())
	}
	return m
}
