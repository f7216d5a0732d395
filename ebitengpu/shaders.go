package ebitengpu

// Kage sources for the effect programs and the blend compositor. All use
// pixel units; colors in and out are premultiplied. imageSrcNAt returns
// transparent outside the source region, which gives every pass the same
// zero-padded edge behavior.

const blurShaderSrc = `//kage:unit pixels
package main

var Dir vec2
var Radius float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	acc := vec4(0)
	for i := 0; i < 129; i++ {
		k := float(i - 64)
		if abs(k) <= Radius {
			acc += imageSrc0At(src + Dir*k)
		}
	}
	return acc / (2*Radius + 1)
}
`

const motionBlurShaderSrc = `//kage:unit pixels
package main

var Dir vec2

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	acc := vec4(0)
	for i := 0; i < 16; i++ {
		t := (float(i)+0.5)/16 - 0.5
		acc += imageSrc0At(src + Dir*t)
	}
	return acc / 16
}
`

const radialBlurShaderSrc = `//kage:unit pixels
package main

var Center vec2
var Ratio float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	p := src - origin
	acc := vec4(0)
	for i := 0; i < 16; i++ {
		f := 1 - Ratio*float(i)/16
		acc += imageSrc0At(origin + Center + (p-Center)*f)
	}
	return acc / 16
}
`

const shadowShaderSrc = `//kage:unit pixels
package main

var Color vec4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	a := imageSrc0At(src).a * Color.a
	return vec4(Color.rgb*a, a)
}
`

const tintShaderSrc = `//kage:unit pixels
package main

var Color vec4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	return vec4(c.rgb*Color.rgb*Color.a, c.a*Color.a)
}
`

const colorMatrixShaderSrc = `//kage:unit pixels
package main

var Matrix [20]float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		c.rgb /= c.a
	}
	r := Matrix[0]*c.r + Matrix[1]*c.g + Matrix[2]*c.b + Matrix[3]*c.a + Matrix[4]
	g := Matrix[5]*c.r + Matrix[6]*c.g + Matrix[7]*c.b + Matrix[8]*c.a + Matrix[9]
	b := Matrix[10]*c.r + Matrix[11]*c.g + Matrix[12]*c.b + Matrix[13]*c.a + Matrix[14]
	a := Matrix[15]*c.r + Matrix[16]*c.g + Matrix[17]*c.b + Matrix[18]*c.a + Matrix[19]
	r = clamp(r, 0, 1)
	g = clamp(g, 0, 1)
	b = clamp(b, 0, 1)
	a = clamp(a, 0, 1)
	return vec4(r*a, g*a, b*a, a)
}
`

// Gray is 1 for the luminance mask modes.
const maskShaderSrc = `//kage:unit pixels
package main

var Gray float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	m := imageSrc1At(src - imageSrc0Origin() + imageSrc1Origin())
	k := m.a
	if Gray > 0 {
		k = clamp(0.2126*m.r+0.7152*m.g+0.0722*m.b, 0, 1)
	}
	return c * k
}
`

// blendShaderSrc composites a layer (image 1) over a backdrop (image 0),
// both in destination space, with one of the W3C blend modes. Mode values
// follow quill.BlendMode.
const blendShaderSrc = `//kage:unit pixels
package main

var Mode float

func hardLight(cb, cs float) float {
	if cs <= 0.5 {
		return cb * 2 * cs
	}
	s := 2*cs - 1
	return cb + s - cb*s
}

func softLight(cb, cs float) float {
	if cs <= 0.5 {
		return cb - (1-2*cs)*cb*(1-cb)
	}
	d := sqrt(cb)
	if cb <= 0.25 {
		d = ((16*cb-12)*cb + 4) * cb
	}
	return cb + (2*cs-1)*(d-cb)
}

func dodge(cb, cs float) float {
	if cb == 0 {
		return 0
	}
	if cs >= 1 {
		return 1
	}
	return min(1, cb/(1-cs))
}

func burn(cb, cs float) float {
	if cb >= 1 {
		return 1
	}
	if cs <= 0 {
		return 0
	}
	return 1 - min(1, (1-cb)/cs)
}

func separable(m, cb, cs float) float {
	if m == 1 {
		return cb * cs
	}
	if m == 2 {
		return cb + cs - cb*cs
	}
	if m == 3 {
		return hardLight(cs, cb)
	}
	if m == 4 {
		return min(cb, cs)
	}
	if m == 5 {
		return max(cb, cs)
	}
	if m == 6 {
		return dodge(cb, cs)
	}
	if m == 7 {
		return burn(cb, cs)
	}
	if m == 8 {
		return hardLight(cb, cs)
	}
	if m == 9 {
		return softLight(cb, cs)
	}
	if m == 10 {
		return abs(cb - cs)
	}
	if m == 11 {
		return cb + cs - 2*cb*cs
	}
	return cs
}

func lum(c vec3) float {
	return 0.3*c.r + 0.59*c.g + 0.11*c.b
}

func clipColor(c vec3) vec3 {
	l := lum(c)
	n := min(c.r, min(c.g, c.b))
	x := max(c.r, max(c.g, c.b))
	if n < 0 {
		c = l + (c-l)*l/(l-n)
	}
	if x > 1 {
		c = l + (c-l)*(1-l)/(x-l)
	}
	return c
}

func setLum(c vec3, l float) vec3 {
	return clipColor(c + (l - lum(c)))
}

func sat(c vec3) float {
	return max(c.r, max(c.g, c.b)) - min(c.r, min(c.g, c.b))
}

func setSat(c vec3, s float) vec3 {
	lo := min(c.r, min(c.g, c.b))
	hi := max(c.r, max(c.g, c.b))
	if hi <= lo {
		return vec3(0)
	}
	return (c - lo) * s / (hi - lo)
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	b := imageSrc0At(src)
	s := imageSrc1At(src - imageSrc0Origin() + imageSrc1Origin())
	if s.a <= 0 {
		return b
	}
	if b.a <= 0 {
		return s + b*(1-s.a)
	}
	cs := s.rgb / s.a
	cb := b.rgb / b.a
	r := vec3(0)
	if Mode == 12 {
		r = setLum(setSat(cs, sat(cb)), lum(cb))
	} else if Mode == 13 {
		r = setLum(setSat(cb, sat(cs)), lum(cb))
	} else if Mode == 14 {
		r = setLum(cs, lum(cb))
	} else if Mode == 15 {
		r = setLum(cb, lum(cs))
	} else {
		r = vec3(separable(Mode, cb.r, cs.r), separable(Mode, cb.g, cs.g), separable(Mode, cb.b, cs.b))
	}
	r = clamp(r, 0, 1)
	out := s.rgb*(1-b.a) + b.rgb*(1-s.a) + s.a*b.a*r
	return vec4(out, s.a+b.a*(1-s.a))
}
`
