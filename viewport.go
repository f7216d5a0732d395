package quill

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// panAnim holds active pan tweens for X and Y.
type panAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Viewport is the zoom/pan state of the editor canvas.
type Viewport struct {
	// X and Y are the world-space point shown at the viewport center.
	X, Y float64
	// Zoom is the scale factor (1.0 = actual size).
	Zoom float64
	// Width and Height are the viewport size in logical pixels.
	Width, Height float64
	// PixelRatio is device pixels per logical pixel.
	PixelRatio float64
	// MinZoom and MaxZoom clamp Zoom when positive.
	MinZoom, MaxZoom float64

	pan  *panAnim
	zoom *gween.Tween

	matrix    Affine
	invMatrix Affine
	dirty     bool
	onChange  func()
}

// NewViewport creates a viewport of the given logical size centered on the
// world origin.
func NewViewport(width, height, pixelRatio float64) *Viewport {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	return &Viewport{
		Zoom:       1,
		Width:      width,
		Height:     height,
		PixelRatio: pixelRatio,
		MinZoom:    1.0 / 64,
		MaxZoom:    256,
		dirty:      true,
	}
}

func (v *Viewport) changed() {
	v.dirty = true
	if v.onChange != nil {
		v.onChange()
	}
}

// SetSize changes the logical size of the viewport.
func (v *Viewport) SetSize(width, height float64) {
	if v.Width == width && v.Height == height {
		return
	}
	v.Width, v.Height = width, height
	v.changed()
}

// SetZoom sets the zoom factor immediately.
func (v *Viewport) SetZoom(z float64) {
	z = v.clampZoom(z)
	if z == v.Zoom {
		return
	}
	v.Zoom = z
	v.changed()
}

// CenterOn moves the viewport center to a world position immediately.
func (v *Viewport) CenterOn(x, y float64) {
	if v.X == x && v.Y == y {
		return
	}
	v.X, v.Y = x, y
	v.changed()
}

// PanBy scrolls by a screen-space delta in logical pixels.
func (v *Viewport) PanBy(dx, dy float64) {
	v.CenterOn(v.X-dx/v.Zoom, v.Y-dy/v.Zoom)
}

// ZoomAt multiplies the zoom by factor keeping the world point under the
// logical screen position (sx, sy) fixed.
func (v *Viewport) ZoomAt(sx, sy, factor float64) {
	wx, wy := v.ScreenToWorld(sx, sy)
	z := v.clampZoom(v.Zoom * factor)
	if z == v.Zoom {
		return
	}
	v.Zoom = z
	v.X = wx - (sx-v.Width/2)/z
	v.Y = wy - (sy-v.Height/2)/z
	v.changed()
}

// PanTo animates the center to a world position over duration seconds.
func (v *Viewport) PanTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.InOutCubic
	}
	v.pan = &panAnim{
		tweenX: gween.New(float32(v.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(v.Y), float32(y), duration, easeFn),
	}
	v.changed()
}

// ZoomTo animates the zoom factor over duration seconds.
func (v *Viewport) ZoomTo(z float64, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.InOutCubic
	}
	v.zoom = gween.New(float32(v.Zoom), float32(v.clampZoom(z)), duration, easeFn)
	v.changed()
}

// Animating reports whether a pan or zoom tween is running.
func (v *Viewport) Animating() bool {
	return v.pan != nil || v.zoom != nil
}

// Update advances running tweens by dt seconds and reports whether the view
// changed.
func (v *Viewport) Update(dt float32) bool {
	prevX, prevY, prevZoom := v.X, v.Y, v.Zoom

	if v.pan != nil {
		if !v.pan.doneX {
			val, done := v.pan.tweenX.Update(dt)
			v.X = float64(val)
			v.pan.doneX = done
		}
		if !v.pan.doneY {
			val, done := v.pan.tweenY.Update(dt)
			v.Y = float64(val)
			v.pan.doneY = done
		}
		if v.pan.doneX && v.pan.doneY {
			v.pan = nil
		}
	}
	if v.zoom != nil {
		val, done := v.zoom.Update(dt)
		v.Zoom = v.clampZoom(float64(val))
		if done {
			v.zoom = nil
		}
	}

	if v.X != prevX || v.Y != prevY || v.Zoom != prevZoom {
		v.changed()
		return true
	}
	return false
}

func (v *Viewport) clampZoom(z float64) float64 {
	if v.MinZoom > 0 {
		z = math.Max(z, v.MinZoom)
	}
	if v.MaxZoom > 0 {
		z = math.Min(z, v.MaxZoom)
	}
	return z
}

// Matrix maps world coordinates to device pixels:
//
//	Scale(pixelRatio) * Translate(w/2, h/2) * Scale(zoom) * Translate(-X, -Y)
func (v *Viewport) Matrix() Affine {
	if !v.dirty {
		return v.matrix
	}
	v.dirty = false
	k := v.Zoom * v.PixelRatio
	v.matrix = Affine{k, 0, 0, k,
		v.PixelRatio*v.Width/2 - k*v.X,
		v.PixelRatio*v.Height/2 - k*v.Y}
	v.invMatrix = v.matrix.Invert()
	return v.matrix
}

// WorldToScreen converts world coordinates to logical screen coordinates.
func (v *Viewport) WorldToScreen(wx, wy float64) (sx, sy float64) {
	px, py := v.Matrix().Apply(wx, wy)
	return px / v.PixelRatio, py / v.PixelRatio
}

// ScreenToWorld converts logical screen coordinates to world coordinates.
func (v *Viewport) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	v.Matrix()
	return v.invMatrix.Apply(sx*v.PixelRatio, sy*v.PixelRatio)
}

// DeviceSize returns the viewport size in device pixels.
func (v *Viewport) DeviceSize() (w, h int) {
	return int(math.Ceil(v.Width * v.PixelRatio)), int(math.Ceil(v.Height * v.PixelRatio))
}

// VisibleRect returns the world-space area shown by the viewport.
func (v *Viewport) VisibleRect() Rect {
	v.Matrix()
	return v.invMatrix.ApplyRect(Rect{Width: v.Width * v.PixelRatio, Height: v.Height * v.PixelRatio})
}

// ScaleBucket returns the raster scale bucket for the current zoom: the
// device scale rounded up to a power of two.
func (v *Viewport) ScaleBucket() float64 {
	return scaleBucket(v.Zoom * v.PixelRatio)
}
