package quill

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// blurCoverage applies a gaussian blur with the given sigma in pixels.
func blurCoverage(c *coverage, sigma float64) *coverage {
	if sigma <= 0 {
		return c
	}
	img := image.NewNRGBA(image.Rect(0, 0, c.w, c.h))
	for i, v := range c.a {
		o := i * 4
		img.Pix[o] = 255
		img.Pix[o+1] = 255
		img.Pix[o+2] = 255
		img.Pix[o+3] = v
	}
	blurred := imaging.Blur(img, sigma)
	out := newCoverage(c.w, c.h)
	for i := range out.a {
		out.a[i] = blurred.Pix[i*4+3]
	}
	return out
}

// shadowSigma converts a design blur radius to a gaussian sigma in pixels.
func shadowSigma(blur, scale float64) float64 {
	return blur * scale / 2
}

// dropShadow paints sh beneath the silhouette sil onto dst.
func dropShadow(dst *image.RGBA, sil *coverage, sh Shadow, scale float64, spread *coverage) {
	base := sil
	if spread != nil {
		base = newCoverage(sil.w, sil.h)
		copy(base.a, sil.a)
		base.union(spread)
	}
	dx := int(math.Round(sh.X * scale))
	dy := int(math.Round(sh.Y * scale))
	cov := blurCoverage(base.shifted(dx, dy, 0), shadowSigma(sh.Blur, scale))
	fillSolid(dst, cov, sh.Color)
}

// innerShadow paints sh inside the fill coverage: the inverted silhouette is
// offset, blurred and clipped back to the fill.
func innerShadow(dst *image.RGBA, fill *coverage, sh Shadow, scale float64, choke *coverage) {
	inv := newCoverage(fill.w, fill.h)
	copy(inv.a, fill.a)
	if choke != nil {
		inv.subtract(choke)
	}
	inv.invert()
	dx := int(math.Round(sh.X * scale))
	dy := int(math.Round(sh.Y * scale))
	cov := blurCoverage(inv.shifted(dx, dy, 255), shadowSigma(sh.Blur, scale))
	cov.intersect(fill)
	fillSolid(dst, cov, sh.Color)
}
