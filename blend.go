package quill

import "github.com/gogpu/gg/scene"

// byteBlend composites one premultiplied 8-bit source pixel over a
// premultiplied backdrop pixel.
type byteBlend = func(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte)

// ggBlendModes maps each BlendMode to the gg scene mode with the same
// formula.
var ggBlendModes = [...]scene.BlendMode{
	BlendNormal:     scene.BlendNormal,
	BlendMultiply:   scene.BlendMultiply,
	BlendScreen:     scene.BlendScreen,
	BlendOverlay:    scene.BlendOverlay,
	BlendDarken:     scene.BlendDarken,
	BlendLighten:    scene.BlendLighten,
	BlendColorDodge: scene.BlendColorDodge,
	BlendColorBurn:  scene.BlendColorBurn,
	BlendHardLight:  scene.BlendHardLight,
	BlendSoftLight:  scene.BlendSoftLight,
	BlendDifference: scene.BlendDifference,
	BlendExclusion:  scene.BlendExclusion,
	BlendHue:        scene.BlendHue,
	BlendSaturation: scene.BlendSaturation,
	BlendColor:      scene.BlendColor,
	BlendLuminosity: scene.BlendLuminosity,
}

var blendFuncs = func() (fns [len(ggBlendModes)]byteBlend) {
	for m, gm := range ggBlendModes {
		fns[m] = gm.GetBlendFunc()
	}
	return fns
}()

// blendFunc returns the pixel compositor for mode:
//
//	co = cs(1-ab) + cb(1-as) + as*ab*B(Cb, Cs)
//	ao = as + ab(1-as)
//
// Unknown modes composite as normal.
func blendFunc(mode BlendMode) byteBlend {
	if int(mode) >= len(blendFuncs) {
		mode = BlendNormal
	}
	return blendFuncs[mode]
}
