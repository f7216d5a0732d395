package quill

import (
	"math"
)

// effectChain runs effect programs over same-sized textures. Intermediates
// it allocates are released by finish, except the one handed to the caller.
type effectChain struct {
	s     *Scene
	w, h  int
	temps []Texture
}

func (s *Scene) newEffectChain(w, h int) *effectChain {
	return &effectChain{s: s, w: w, h: h}
}

func (c *effectChain) alloc() (Texture, error) {
	t, err := c.s.device.NewTexture(c.w, c.h)
	if err != nil {
		return nil, err
	}
	c.temps = append(c.temps, t)
	return t, nil
}

// keep removes t from the chain's release list.
func (c *effectChain) keep(t Texture) Texture {
	for i, tmp := range c.temps {
		if tmp == t {
			c.temps = append(c.temps[:i], c.temps[i+1:]...)
			break
		}
	}
	return t
}

// finish releases every intermediate still owned by the chain.
func (c *effectChain) finish() {
	for _, t := range c.temps {
		c.s.device.Release(t)
	}
	c.temps = nil
}

func (c *effectChain) pass(p Pass) (Texture, error) {
	dst, err := c.alloc()
	if err != nil {
		return nil, err
	}
	if err := c.s.device.RunPass(dst, p); err != nil {
		return nil, err
	}
	c.s.stats.EffectPasses++
	return dst, nil
}

// boxBlurRadius converts a gaussian sigma in pixels into the half-width of
// one of three successive box blurs and the number of H+V rounds needed when
// the radius exceeds the per-pass limit.
func boxBlurRadius(sigma float64) (radius, rounds int) {
	if sigma <= 0 {
		return 0, 0
	}
	d := int(math.Floor(sigma*3*math.Sqrt(2*math.Pi)/4 + 0.5))
	r := d / 2
	if r < 1 {
		return 0, 0
	}
	rounds = 3
	if r > maxBlurRadius {
		ratio := float64(r) / maxBlurRadius
		rounds = int(math.Ceil(3 * ratio * ratio))
		r = maxBlurRadius
	}
	return r, rounds
}

// gaussian blurs src with separable box passes.
func (c *effectChain) gaussian(src Texture, sigma float64) (Texture, error) {
	r, rounds := boxBlurRadius(sigma)
	if r == 0 {
		return src, nil
	}
	cur := src
	for i := 0; i < rounds; i++ {
		h, err := c.pass(Pass{Program: ProgramBlurH, Src: cur, Radius: float64(r)})
		if err != nil {
			return nil, err
		}
		v, err := c.pass(Pass{Program: ProgramBlurV, Src: h, Radius: float64(r)})
		if err != nil {
			return nil, err
		}
		c.drop(h)
		if cur != src {
			c.drop(cur)
		}
		cur = v
	}
	return cur, nil
}

// drop releases an intermediate early.
func (c *effectChain) drop(t Texture) {
	c.keep(t)
	c.s.device.Release(t)
}

// motion blurs along dir (pixels) with three directional passes.
func (c *effectChain) motion(src Texture, dir Vec2) (Texture, error) {
	if math.Hypot(dir.X, dir.Y) < 1 {
		return src, nil
	}
	step := Vec2{X: dir.X / 3, Y: dir.Y / 3}
	cur := src
	for i := 0; i < 3; i++ {
		out, err := c.pass(Pass{Program: ProgramMotionBlur, Src: cur, Dir: step})
		if err != nil {
			return nil, err
		}
		if cur != src {
			c.drop(cur)
		}
		cur = out
	}
	return cur, nil
}

// groupShadows draws each enabled shadow of style beneath src.
func (c *effectChain) groupShadows(src Texture, shadows []Shadow, scale float64) (Texture, error) {
	out, err := c.alloc()
	if err != nil {
		return nil, err
	}
	dev := c.s.device
	for _, sh := range shadows {
		if !sh.Enabled {
			continue
		}
		tinted, err := c.pass(Pass{Program: ProgramShadow, Src: src, Color: sh.Color})
		if err != nil {
			return nil, err
		}
		blurred, err := c.gaussian(tinted, shadowSigma(sh.Blur, scale))
		if err != nil {
			return nil, err
		}
		dev.Draw(out, blurred, DrawOptions{Matrix: Translate(sh.X*scale, sh.Y*scale), Alpha: 1})
		c.s.stats.Draws++
		if blurred != tinted {
			c.drop(blurred)
		}
		c.drop(tinted)
	}
	dev.Draw(out, src, DrawOptions{Matrix: Identity, Alpha: 1})
	c.s.stats.Draws++
	return out, nil
}

// applyEffects runs n's effect stack over in and stores the result in
// n.effected: group shadows, blur, color adjustment, then tint.
func (s *Scene) applyEffects(n *Node, in textureSlot) error {
	w, h := in.tex.Size()
	c := s.newEffectChain(w, h)
	defer c.finish()

	st := &n.Style
	cur := in.tex
	var err error
	if n.Kind.isContainer() && st.anyShadow() {
		if cur, err = c.groupShadows(cur, st.Shadows, in.scale); err != nil {
			return err
		}
	}

	if st.Blur.Radius > 0 {
		switch st.Blur.Kind {
		case BlurGaussian:
			cur, err = c.gaussian(cur, st.Blur.Radius*in.scale)
		case BlurMotion:
			sin, cos := math.Sincos(st.Blur.Angle)
			d := st.Blur.Radius * in.scale
			cur, err = c.motion(cur, Vec2{X: cos * d, Y: sin * d})
		case BlurRadial:
			toPix := in.toLocal.Invert()
			cx, cy := toPix.Apply(n.Rect.X+st.Blur.Center.X*n.Rect.Width, n.Rect.Y+st.Blur.Center.Y*n.Rect.Height)
			cur, err = c.pass(Pass{Program: ProgramRadialBlur, Src: cur, Center: Vec2{X: cx, Y: cy}, Ratio: clamp01(st.Blur.Radius)})
		}
		if err != nil {
			return err
		}
	}

	if st.Adjust != nil {
		if cur, err = c.pass(Pass{Program: ProgramColorMatrix, Src: cur, Matrix: st.Adjust.Matrix()}); err != nil {
			return err
		}
	}
	if st.Tint != nil {
		if cur, err = c.pass(Pass{Program: ProgramTint, Src: cur, Color: *st.Tint}); err != nil {
			return err
		}
	}

	if cur == in.tex {
		// Nothing ran; show the input directly.
		out, err := c.alloc()
		if err != nil {
			return err
		}
		s.device.Draw(out, cur, DrawOptions{Matrix: Identity, Alpha: 1})
		cur = out
	}
	s.releaseSlot(&n.effected)
	n.effected = textureSlot{tex: c.keep(cur), bbox: in.bbox, scale: in.scale, toLocal: in.toLocal, bucket: in.bucket, valid: true}
	return nil
}
