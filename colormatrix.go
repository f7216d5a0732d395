package quill

import "math"

// ColorMatrix is a 4x5 color transform in row-major order:
// [R_r, R_g, R_b, R_a, R_offset, G_r, ...]. It operates on straight
// (un-premultiplied) color.
type ColorMatrix [20]float64

// IdentityColorMatrix leaves colors unchanged.
var IdentityColorMatrix = ColorMatrix{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// BrightnessMatrix adjusts brightness by the given offset [-1, 1].
func BrightnessMatrix(b float64) ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, b,
		0, 1, 0, 0, b,
		0, 0, 1, 0, b,
		0, 0, 0, 1, 0,
	}
}

// ContrastMatrix adjusts contrast. c=1 is normal, 0=gray, >1 is higher.
func ContrastMatrix(c float64) ColorMatrix {
	t := (1.0 - c) / 2.0
	return ColorMatrix{
		c, 0, 0, 0, t,
		0, c, 0, 0, t,
		0, 0, c, 0, t,
		0, 0, 0, 1, 0,
	}
}

// SaturationMatrix adjusts saturation. s=1 is normal, 0=grayscale.
func SaturationMatrix(s float64) ColorMatrix {
	sr := (1 - s) * 0.299
	sg := (1 - s) * 0.587
	sb := (1 - s) * 0.114
	return ColorMatrix{
		sr + s, sg, sb, 0, 0,
		sr, sg + s, sb, 0, 0,
		sr, sg, sb + s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// HueRotateMatrix rotates hue by the given angle in radians.
func HueRotateMatrix(angle float64) ColorMatrix {
	sin, cos := math.Sincos(angle)
	return ColorMatrix{
		0.213 + cos*0.787 - sin*0.213, 0.715 - cos*0.715 - sin*0.715, 0.072 - cos*0.072 + sin*0.928, 0, 0,
		0.213 - cos*0.213 + sin*0.143, 0.715 + cos*0.285 + sin*0.140, 0.072 - cos*0.072 - sin*0.283, 0, 0,
		0.213 - cos*0.213 - sin*0.787, 0.715 - cos*0.715 + sin*0.715, 0.072 + cos*0.928 + sin*0.072, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Concat returns the matrix that applies m first, then o.
func (m ColorMatrix) Concat(o ColorMatrix) ColorMatrix {
	var r ColorMatrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			var v float64
			for k := 0; k < 4; k++ {
				v += o[row*5+k] * m[k*5+col]
			}
			if col == 4 {
				v += o[row*5+4]
			}
			r[row*5+col] = v
		}
	}
	return r
}

// Apply transforms a straight color and clamps the result.
func (m ColorMatrix) Apply(c Color) Color {
	return Color{
		R: clamp01(m[0]*c.R + m[1]*c.G + m[2]*c.B + m[3]*c.A + m[4]),
		G: clamp01(m[5]*c.R + m[6]*c.G + m[7]*c.B + m[8]*c.A + m[9]),
		B: clamp01(m[10]*c.R + m[11]*c.G + m[12]*c.B + m[13]*c.A + m[14]),
		A: clamp01(m[15]*c.R + m[16]*c.G + m[17]*c.B + m[18]*c.A + m[19]),
	}
}

// Matrix builds the combined adjustment: hue, saturation, contrast, then
// brightness.
func (a ColorAdjust) Matrix() ColorMatrix {
	m := IdentityColorMatrix
	if a.Hue != 0 {
		m = m.Concat(HueRotateMatrix(a.Hue))
	}
	if a.Saturation != 1 {
		m = m.Concat(SaturationMatrix(a.Saturation))
	}
	if a.Contrast != 1 {
		m = m.Concat(ContrastMatrix(a.Contrast))
	}
	if a.Brightness != 0 {
		m = m.Concat(BrightnessMatrix(a.Brightness))
	}
	return m
}
