// Package ebitengpu implements quill.Device on Ebitengine, with Kage shaders
// for the effect programs and the non-normal blend modes.
package ebitengpu

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/quill"
)

// texture is an ebiten image owned by the device, or a wrapped external
// target such as the screen.
type texture struct {
	img      *ebiten.Image
	external bool
	released bool
}

func (t *texture) Size() (int, int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns the ebiten image behind a texture created by a Device.
func Image(t quill.Texture) *ebiten.Image {
	if tt, ok := t.(*texture); ok {
		return tt.img
	}
	return nil
}

// Device is a GPU quill.Device. It must be used from the ebiten game loop;
// ReadPixels in particular only works while the loop runs.
type Device struct {
	max     int
	pool    texturePool
	shaders map[quill.Program]*ebiten.Shader
	blend   *ebiten.Shader
	closed  bool

	live    int
	uploads int
	draws   int

	imgOp    ebiten.DrawImageOptions
	shaderOp ebiten.DrawRectShaderOptions
	matrix   [20]float32
}

// NewDevice compiles every program. maxTextureSize <= 0 selects
// quill.DefaultMaxTextureSize.
func NewDevice(maxTextureSize int) (*Device, error) {
	if maxTextureSize <= 0 {
		maxTextureSize = quill.DefaultMaxTextureSize
	}
	d := &Device{max: maxTextureSize, shaders: make(map[quill.Program]*ebiten.Shader)}
	sources := map[quill.Program]string{
		quill.ProgramBlurH:       blurShaderSrc,
		quill.ProgramBlurV:       blurShaderSrc,
		quill.ProgramMotionBlur:  motionBlurShaderSrc,
		quill.ProgramRadialBlur:  radialBlurShaderSrc,
		quill.ProgramShadow:      shadowShaderSrc,
		quill.ProgramTint:        tintShaderSrc,
		quill.ProgramColorMatrix: colorMatrixShaderSrc,
		quill.ProgramMask:        maskShaderSrc,
	}
	compiled := make(map[string]*ebiten.Shader)
	for p, src := range sources {
		if s := compiled[src]; s != nil {
			d.shaders[p] = s
			continue
		}
		s, err := ebiten.NewShader([]byte(src))
		if err != nil {
			d.disposeShaders()
			return nil, fmt.Errorf("%w: %s: %w", quill.ErrShaderCompile, p, err)
		}
		compiled[src] = s
		d.shaders[p] = s
	}
	s, err := ebiten.NewShader([]byte(blendShaderSrc))
	if err != nil {
		d.disposeShaders()
		return nil, fmt.Errorf("%w: blend: %w", quill.ErrShaderCompile, err)
	}
	d.blend = s
	return d, nil
}

func (d *Device) disposeShaders() {
	seen := make(map[*ebiten.Shader]bool)
	for _, s := range d.shaders {
		if !seen[s] {
			s.Deallocate()
			seen[s] = true
		}
	}
	if d.blend != nil {
		d.blend.Deallocate()
	}
}

// Wrap exposes an externally owned image, typically the screen, as a render
// target. Releasing it is a no-op.
func (d *Device) Wrap(img *ebiten.Image) quill.Texture {
	return &texture{img: img, external: true}
}

// MaxTextureSize implements quill.Device.
func (d *Device) MaxTextureSize() int { return d.max }

// LiveTextures returns the number of textures allocated and not released.
func (d *Device) LiveTextures() int { return d.live }

// Uploads returns the number of Upload calls so far.
func (d *Device) Uploads() int { return d.uploads }

// Draws returns the number of Draw calls so far.
func (d *Device) Draws() int { return d.draws }

// Close frees pooled images and shaders. Later allocations fail.
func (d *Device) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.pool.drain()
	d.disposeShaders()
}

func (d *Device) check(w, h int) error {
	if d.closed {
		return quill.ErrDeviceClosed
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("quill: invalid texture size %dx%d", w, h)
	}
	if w > d.max || h > d.max {
		return fmt.Errorf("%w: %dx%d > %d", quill.ErrTextureTooLarge, w, h, d.max)
	}
	return nil
}

// NewTexture implements quill.Device.
func (d *Device) NewTexture(w, h int) (quill.Texture, error) {
	if err := d.check(w, h); err != nil {
		return nil, err
	}
	d.live++
	return &texture{img: d.pool.acquire(w, h)}, nil
}

// Upload implements quill.Device.
func (d *Device) Upload(src *image.RGBA) (quill.Texture, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if err := d.check(w, h); err != nil {
		return nil, err
	}
	pix := src.Pix
	if src.Stride != 4*w || b.Min != (image.Point{}) {
		pix = make([]byte, 4*w*h)
		for y := 0; y < h; y++ {
			copy(pix[y*4*w:(y+1)*4*w], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	}
	img := d.pool.acquire(w, h)
	img.WritePixels(pix[:4*w*h])
	d.live++
	d.uploads++
	return &texture{img: img}, nil
}

// Release implements quill.Device.
func (d *Device) Release(t quill.Texture) {
	tt, ok := t.(*texture)
	if !ok || tt == nil || tt.released || tt.external {
		return
	}
	tt.released = true
	d.live--
	if d.closed {
		tt.img.Deallocate()
		return
	}
	d.pool.release(tt.img)
}

// Clear implements quill.Device.
func (d *Device) Clear(t quill.Texture) {
	t.(*texture).img.Clear()
}

// ReadPixels implements quill.Device.
func (d *Device) ReadPixels(t quill.Texture) (*image.RGBA, error) {
	if d.closed {
		return nil, quill.ErrDeviceClosed
	}
	img := t.(*texture).img
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	img.ReadPixels(out.Pix)
	return out, nil
}

// geoM converts a quill affine to an ebiten GeoM.
func geoM(m quill.Affine) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(0, 1, m[2])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 0, m[1])
	g.SetElement(1, 1, m[3])
	g.SetElement(1, 2, m[5])
	return g
}

// Draw implements quill.Device. Normal blending uses the fixed-function
// source-over; every other mode renders the source into a destination-sized
// layer and resolves it against a copy of the backdrop with the blend shader.
func (d *Device) Draw(dst, src quill.Texture, op quill.DrawOptions) {
	if op.Alpha <= 0 {
		return
	}
	di := dst.(*texture).img
	si := src.(*texture).img
	d.draws++

	o := &d.imgOp
	o.GeoM = geoM(op.Matrix)
	o.ColorScale.Reset()
	a := float32(min(op.Alpha, 1))
	o.ColorScale.Scale(a, a, a, a)
	o.Filter = ebiten.FilterLinear
	o.Blend = ebiten.BlendSourceOver

	if op.Blend == quill.BlendNormal {
		di.DrawImage(si, o)
		return
	}

	b := di.Bounds()
	w, h := b.Dx(), b.Dy()
	layer := d.pool.acquire(w, h)
	layer.DrawImage(si, o)

	backdrop := d.pool.acquire(w, h)
	var cp ebiten.DrawImageOptions
	cp.GeoM.Translate(float64(-b.Min.X), float64(-b.Min.Y))
	cp.Blend = ebiten.BlendCopy
	backdrop.DrawImage(di, &cp)

	so := &d.shaderOp
	so.GeoM.Reset()
	so.GeoM.Translate(float64(b.Min.X), float64(b.Min.Y))
	so.Images = [4]*ebiten.Image{backdrop, layer}
	so.Uniforms = map[string]any{"Mode": float32(op.Blend)}
	so.Blend = ebiten.BlendCopy
	di.DrawRectShader(w, h, d.blend, so)
	so.Images = [4]*ebiten.Image{}

	d.pool.release(layer)
	d.pool.release(backdrop)
}

// RunPass implements quill.Device.
func (d *Device) RunPass(dst quill.Texture, p quill.Pass) error {
	if d.closed {
		return quill.ErrDeviceClosed
	}
	shader := d.shaders[p.Program]
	if shader == nil {
		return fmt.Errorf("quill: unknown program %d", p.Program)
	}
	di := dst.(*texture).img
	si := p.Src.(*texture).img
	if di.Bounds().Size() != si.Bounds().Size() {
		return fmt.Errorf("quill: %s pass size mismatch", p.Program)
	}

	so := &d.shaderOp
	so.GeoM.Reset()
	so.Blend = ebiten.BlendCopy
	so.Images = [4]*ebiten.Image{si}
	defer func() { so.Images = [4]*ebiten.Image{} }()

	switch p.Program {
	case quill.ProgramBlurH, quill.ProgramBlurV:
		dir := []float32{1, 0}
		if p.Program == quill.ProgramBlurV {
			dir = []float32{0, 1}
		}
		so.Uniforms = map[string]any{"Dir": dir, "Radius": float32(min(max(p.Radius, 0), 64))}
	case quill.ProgramMotionBlur:
		so.Uniforms = map[string]any{"Dir": []float32{float32(p.Dir.X), float32(p.Dir.Y)}}
	case quill.ProgramRadialBlur:
		so.Uniforms = map[string]any{
			"Center": []float32{float32(p.Center.X), float32(p.Center.Y)},
			"Ratio":  float32(p.Ratio),
		}
	case quill.ProgramShadow, quill.ProgramTint:
		c := p.Color
		so.Uniforms = map[string]any{"Color": []float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}}
	case quill.ProgramColorMatrix:
		for i, v := range p.Matrix {
			d.matrix[i] = float32(v)
		}
		so.Uniforms = map[string]any{"Matrix": d.matrix[:]}
	case quill.ProgramMask:
		if p.Aux == nil {
			return fmt.Errorf("quill: mask pass without mask texture")
		}
		ai := p.Aux.(*texture).img
		if ai.Bounds().Size() != si.Bounds().Size() {
			return fmt.Errorf("quill: mask pass size mismatch")
		}
		so.Images[1] = ai
		var gray float32
		if p.Mask == quill.MaskGray || p.Mask == quill.MaskGrayWith {
			gray = 1
		}
		so.Uniforms = map[string]any{"Gray": gray}
	}

	b := si.Bounds()
	di.DrawRectShader(b.Dx(), b.Dy(), shader, so)
	return nil
}

var _ quill.Device = (*Device)(nil)
