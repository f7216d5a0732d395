package quill

import (
	"errors"
	"image/color"
	"math"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs when paint is written into a raster bitmap.
type Color struct {
	R, G, B, A float64
}

var (
	ColorWhite       = Color{1, 1, 1, 1}
	ColorBlack       = Color{0, 0, 0, 1}
	ColorTransparent = Color{}
)

// RGBA returns the color as a premultiplied color.RGBA.
func (c Color) RGBA() color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(clamp01(c.R)*a*255 + 0.5),
		G: uint8(clamp01(c.G)*a*255 + 0.5),
		B: uint8(clamp01(c.B)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

// WithAlpha returns a copy of c with its alpha multiplied by a.
func (c Color) WithAlpha(a float64) Color {
	c.A *= a
	return c
}

// Vec2 is a 2D vector used for positions, offsets and directions.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Union returns the smallest Rect containing both r and other. An empty
// operand is ignored.
func (r Rect) Union(other Rect) Rect {
	if r.Empty() {
		return other
	}
	if other.Empty() {
		return r
	}
	minX := math.Min(r.X, other.X)
	minY := math.Min(r.Y, other.Y)
	maxX := math.Max(r.X+r.Width, other.X+other.Width)
	maxY := math.Max(r.Y+r.Height, other.Y+other.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Outset grows the rectangle by the given margins.
func (r Rect) Outset(left, top, right, bottom float64) Rect {
	return Rect{X: r.X - left, Y: r.Y - top, Width: r.Width + left + right, Height: r.Height + top + bottom}
}

// BlendMode selects how a node's texture is combined with what is beneath it.
// The separable and non-separable modes follow the W3C compositing formulas.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity
)

var blendNames = [...]string{
	"normal", "multiply", "screen", "overlay", "darken", "lighten",
	"color-dodge", "color-burn", "hard-light", "soft-light", "difference",
	"exclusion", "hue", "saturation", "color", "luminosity",
}

func (b BlendMode) String() string {
	if int(b) < len(blendNames) {
		return blendNames[b]
	}
	return "unknown"
}

// Separable reports whether the mode operates on each channel independently.
func (b BlendMode) Separable() bool {
	return b < BlendHue
}

// MaskMode controls whether a node acts as a mask for its following siblings
// and how its pixels are turned into mask coverage.
type MaskMode uint8

const (
	MaskNone      MaskMode = iota
	MaskOutline            // coverage of the mask shape's geometry
	MaskAlpha              // alpha of the mask's rendered content
	MaskGray               // luminance times alpha of the mask's content
	MaskAlphaWith          // as MaskAlpha, mask content stays visible
	MaskGrayWith           // as MaskGray, mask content stays visible
)

// showsContent reports whether the mask node itself is drawn beneath the
// masked content.
func (m MaskMode) showsContent() bool {
	return m == MaskAlphaWith || m == MaskGrayWith
}

// NodeKind is the closed set of drawable node kinds.
type NodeKind uint8

const (
	KindGroup      NodeKind = iota // container, no own paint
	KindArtboard                   // container with a background fill
	KindShape                      // filled/stroked path list
	KindShapeGroup                 // boolean-combined paths; children are operands
	KindText                       // laid-out glyph runs
	KindBitmap                     // image-backed node
)

// isContainer reports whether the kind composites its children. Shape group
// children are boolean operands and are never drawn on their own.
func (k NodeKind) isContainer() bool {
	return k == KindGroup || k == KindArtboard
}

var (
	// ErrTextureTooLarge is reported when content exceeds the device maximum
	// texture size even at scale 1.
	ErrTextureTooLarge = errors.New("quill: content exceeds maximum texture size")
	// ErrImageDecode is reported when an image source cannot be decoded.
	ErrImageDecode = errors.New("quill: image decode failed")
	// ErrFontLoad is reported when a font source cannot be loaded.
	ErrFontLoad = errors.New("quill: font load failed")
	// ErrDeviceClosed is returned by devices after Close.
	ErrDeviceClosed = errors.New("quill: device closed")
	// ErrShaderCompile is returned when a device program fails to build.
	ErrShaderCompile = errors.New("quill: shader compile failed")
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// roundHalfUp rounds to the nearest integer with halves going up.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
