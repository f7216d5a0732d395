package quill

import "image"

// Texture is a device-resident premultiplied RGBA surface.
type Texture interface {
	Size() (w, h int)
}

// DrawOptions places a source texture onto a destination. Matrix maps source
// pixel coordinates to destination pixel coordinates.
type DrawOptions struct {
	Matrix Affine
	Alpha  float64
	Blend  BlendMode
}

// Device is the GPU abstraction the compositor draws through. Textures are
// sampled with edge clamping and linear filtering; all colors are
// premultiplied.
type Device interface {
	// MaxTextureSize is the largest width or height a texture may have.
	MaxTextureSize() int
	// NewTexture allocates a cleared texture.
	NewTexture(w, h int) (Texture, error)
	// Upload creates a texture from a premultiplied bitmap.
	Upload(img *image.RGBA) (Texture, error)
	// Release frees a texture. Releasing nil is a no-op.
	Release(t Texture)
	// Clear resets a texture to transparent.
	Clear(t Texture)
	// Draw composites src onto dst.
	Draw(dst, src Texture, op DrawOptions)
	// RunPass replaces dst with the output of one effect program applied to
	// p.Src. dst and p.Src have the same size.
	RunPass(dst Texture, p Pass) error
	// ReadPixels copies a texture back to a premultiplied bitmap.
	ReadPixels(t Texture) (*image.RGBA, error)
}

// Program identifies an effect shader.
type Program uint8

const (
	ProgramBlurH Program = iota
	ProgramBlurV
	ProgramMotionBlur
	ProgramRadialBlur
	ProgramShadow
	ProgramTint
	ProgramColorMatrix
	ProgramMask
	programCount
)

var programNames = [...]string{"blur-h", "blur-v", "motion-blur", "radial-blur", "shadow", "tint", "color-matrix", "mask"}

func (p Program) String() string {
	if int(p) < len(programNames) {
		return programNames[p]
	}
	return "unknown"
}

// Pass is one effect program invocation. Which fields are read depends on
// Program:
//
//	BlurH, BlurV   Radius (box half-width in pixels)
//	MotionBlur     Dir (full displacement in pixels)
//	RadialBlur     Center (pixels), Ratio
//	Shadow, Tint   Color
//	ColorMatrix    Matrix
//	Mask           Aux (mask texture), Mask
type Pass struct {
	Program Program
	Src     Texture
	Aux     Texture
	Radius  float64
	Dir     Vec2
	Center  Vec2
	Ratio   float64
	Color   Color
	Matrix  ColorMatrix
	Mask    MaskMode
}

// maxBlurRadius bounds the per-pass box half-width.
const maxBlurRadius = 64

// motionTaps and radialTaps are the sample counts of the directional passes.
const (
	motionTaps = 16
	radialTaps = 16
)
