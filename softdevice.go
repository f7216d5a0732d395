package quill

import (
	"fmt"
	"image"
	"math"
)

// DefaultMaxTextureSize is the texture limit used when none is configured.
const DefaultMaxTextureSize = 4096

// SoftDevice is a CPU implementation of Device. It renders exactly what the
// GPU device renders, minus filtering precision, and is used for headless
// snapshots and tests.
type SoftDevice struct {
	max     int
	live    int
	uploads int
	draws   int
	closed  bool
}

type softTexture struct {
	img      *image.RGBA
	released bool
}

func (t *softTexture) Size() (int, int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// NewSoftDevice creates a software device. maxTextureSize <= 0 selects
// DefaultMaxTextureSize.
func NewSoftDevice(maxTextureSize int) *SoftDevice {
	if maxTextureSize <= 0 {
		maxTextureSize = DefaultMaxTextureSize
	}
	return &SoftDevice{max: maxTextureSize}
}

// MaxTextureSize implements Device.
func (d *SoftDevice) MaxTextureSize() int { return d.max }

// LiveTextures returns the number of textures allocated and not released.
func (d *SoftDevice) LiveTextures() int { return d.live }

// Uploads returns the number of Upload calls so far.
func (d *SoftDevice) Uploads() int { return d.uploads }

// Draws returns the number of Draw calls so far.
func (d *SoftDevice) Draws() int { return d.draws }

// Close marks the device closed; later allocations fail.
func (d *SoftDevice) Close() {
	d.closed = true
}

func (d *SoftDevice) check(w, h int) error {
	if d.closed {
		return ErrDeviceClosed
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("quill: invalid texture size %dx%d", w, h)
	}
	if w > d.max || h > d.max {
		return fmt.Errorf("%w: %dx%d > %d", ErrTextureTooLarge, w, h, d.max)
	}
	return nil
}

// NewTexture implements Device.
func (d *SoftDevice) NewTexture(w, h int) (Texture, error) {
	if err := d.check(w, h); err != nil {
		return nil, err
	}
	d.live++
	return &softTexture{img: image.NewRGBA(image.Rect(0, 0, w, h))}, nil
}

// Upload implements Device.
func (d *SoftDevice) Upload(img *image.RGBA) (Texture, error) {
	b := img.Bounds()
	if err := d.check(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()*4], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	d.live++
	d.uploads++
	return &softTexture{img: dst}, nil
}

// Release implements Device.
func (d *SoftDevice) Release(t Texture) {
	st, ok := t.(*softTexture)
	if !ok || st == nil || st.released {
		return
	}
	st.released = true
	d.live--
}

// Clear implements Device.
func (d *SoftDevice) Clear(t Texture) {
	clear(t.(*softTexture).img.Pix)
}

// ReadPixels implements Device.
func (d *SoftDevice) ReadPixels(t Texture) (*image.RGBA, error) {
	if d.closed {
		return nil, ErrDeviceClosed
	}
	src := t.(*softTexture).img
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out, nil
}

func pixel(img *image.RGBA, x, y int) [4]float64 {
	o := y*img.Stride + x*4
	return [4]float64{float64(img.Pix[o]) / 255, float64(img.Pix[o+1]) / 255, float64(img.Pix[o+2]) / 255, float64(img.Pix[o+3]) / 255}
}

func setPixel(img *image.RGBA, x, y int, c [4]float64) {
	o := y*img.Stride + x*4
	a := clamp01(c[3])
	img.Pix[o] = unit8(math.Min(c[0], a))
	img.Pix[o+1] = unit8(math.Min(c[1], a))
	img.Pix[o+2] = unit8(math.Min(c[2], a))
	img.Pix[o+3] = unit8(a)
}

// sampleZero samples bilinearly inside the texture and returns transparent
// outside it.
func sampleZero(img *image.RGBA, x, y float64) [4]float64 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if x < 0 || y < 0 || x >= float64(w) || y >= float64(h) {
		return [4]float64{}
	}
	r, g, b, a := sampleBilinear(img, x, y)
	return [4]float64{r, g, b, a}
}

// Draw implements Device. Destination pixels whose centers map inside the
// source are blended; source sampling is bilinear with edge clamp.
func (d *SoftDevice) Draw(dst, src Texture, op DrawOptions) {
	di := dst.(*softTexture).img
	si := src.(*softTexture).img
	if op.Alpha <= 0 {
		return
	}
	d.draws++
	sw, sh := si.Bounds().Dx(), si.Bounds().Dy()
	bounds := op.Matrix.ApplyRect(Rect{Width: float64(sw), Height: float64(sh)})
	x0 := max(int(math.Floor(bounds.X)), 0)
	y0 := max(int(math.Floor(bounds.Y)), 0)
	x1 := min(int(math.Ceil(bounds.X+bounds.Width)), di.Bounds().Dx())
	y1 := min(int(math.Ceil(bounds.Y+bounds.Height)), di.Bounds().Dy())
	inv := op.Matrix.Invert()
	alpha := clamp01(op.Alpha)
	blend := blendFunc(op.Blend)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			u, v := inv.Apply(float64(x)+0.5, float64(y)+0.5)
			if u < 0 || v < 0 || u >= float64(sw) || v >= float64(sh) {
				continue
			}
			r, g, b, a := sampleBilinear(si, u, v)
			if a <= 0 {
				continue
			}
			sa := unit8(a * alpha)
			if sa == 0 {
				continue
			}
			o := y*di.Stride + x*4
			p := di.Pix[o : o+4 : o+4]
			p[0], p[1], p[2], p[3] = blend(
				min(unit8(r*alpha), sa), min(unit8(g*alpha), sa), min(unit8(b*alpha), sa), sa,
				p[0], p[1], p[2], p[3])
		}
	}
}

// RunPass implements Device.
func (d *SoftDevice) RunPass(dst Texture, p Pass) error {
	if d.closed {
		return ErrDeviceClosed
	}
	di := dst.(*softTexture).img
	si := p.Src.(*softTexture).img
	if di.Bounds() != si.Bounds() {
		return fmt.Errorf("quill: %s pass size mismatch", p.Program)
	}
	w, h := di.Bounds().Dx(), di.Bounds().Dy()
	out := image.NewRGBA(di.Bounds())

	switch p.Program {
	case ProgramBlurH, ProgramBlurV:
		r := int(math.Min(math.Round(p.Radius), maxBlurRadius))
		boxBlur(out, si, r, p.Program == ProgramBlurH)

	case ProgramMotionBlur:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var acc [4]float64
				for k := 0; k < motionTaps; k++ {
					t := (float64(k)+0.5)/motionTaps - 0.5
					c := sampleZero(si, float64(x)+0.5+p.Dir.X*t, float64(y)+0.5+p.Dir.Y*t)
					for i := range acc {
						acc[i] += c[i]
					}
				}
				for i := range acc {
					acc[i] /= motionTaps
				}
				setPixel(out, x, y, acc)
			}
		}

	case ProgramRadialBlur:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				px, py := float64(x)+0.5, float64(y)+0.5
				var acc [4]float64
				for k := 0; k < radialTaps; k++ {
					f := 1 - p.Ratio*float64(k)/radialTaps
					c := sampleZero(si, p.Center.X+(px-p.Center.X)*f, p.Center.Y+(py-p.Center.Y)*f)
					for i := range acc {
						acc[i] += c[i]
					}
				}
				for i := range acc {
					acc[i] /= radialTaps
				}
				setPixel(out, x, y, acc)
			}
		}

	case ProgramShadow:
		c := p.Color
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				a := pixel(si, x, y)[3] * c.A
				setPixel(out, x, y, [4]float64{c.R * a, c.G * a, c.B * a, a})
			}
		}

	case ProgramTint:
		c := p.Color
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				s := pixel(si, x, y)
				setPixel(out, x, y, [4]float64{s[0] * c.R * c.A, s[1] * c.G * c.A, s[2] * c.B * c.A, s[3] * c.A})
			}
		}

	case ProgramColorMatrix:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				s := pixel(si, x, y)
				c := p.Matrix.Apply(unpremultiply(s[0], s[1], s[2], s[3]))
				setPixel(out, x, y, [4]float64{c.R * c.A, c.G * c.A, c.B * c.A, c.A})
			}
		}

	case ProgramMask:
		if p.Aux == nil {
			return fmt.Errorf("quill: mask pass without mask texture")
		}
		ai := p.Aux.(*softTexture).img
		if ai.Bounds() != si.Bounds() {
			return fmt.Errorf("quill: mask pass size mismatch")
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				s := pixel(si, x, y)
				k := maskFactor(p.Mask, pixel(ai, x, y))
				setPixel(out, x, y, [4]float64{s[0] * k, s[1] * k, s[2] * k, s[3] * k})
			}
		}

	default:
		return fmt.Errorf("quill: unknown program %d", p.Program)
	}
	copy(di.Pix, out.Pix)
	return nil
}

// maskFactor is the per-pixel multiplier a mask texel applies: coverage for
// outline and alpha masks, luminance times alpha for gray masks.
func maskFactor(mode MaskMode, m [4]float64) float64 {
	switch mode {
	case MaskGray, MaskGrayWith:
		// Premultiplied luminance equals straight luminance times alpha.
		return clamp01(0.2126*m[0] + 0.7152*m[1] + 0.0722*m[2])
	default:
		return m[3]
	}
}

// boxBlur averages 2r+1 texels along one axis. Texels outside the texture
// are transparent.
func boxBlur(dst, src *image.RGBA, r int, horizontal bool) {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	n := float64(2*r + 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float64
			for k := -r; k <= r; k++ {
				sx, sy := x, y
				if horizontal {
					sx += k
				} else {
					sy += k
				}
				if sx < 0 || sy < 0 || sx >= w || sy >= h {
					continue
				}
				c := pixel(src, sx, sy)
				for i := range acc {
					acc[i] += c[i]
				}
			}
			for i := range acc {
				acc[i] /= n
			}
			setPixel(dst, x, y, acc)
		}
	}
}
