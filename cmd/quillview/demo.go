package main

import (
	"math"

	"golang.org/x/image/font/sfnt"

	"github.com/phanxgames/quill"
)

func rgb(r, g, b uint8) quill.Color {
	return quill.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: 1}
}

func starPath(cx, cy, outer, inner float64, points int) quill.Path {
	pts := make([]quill.Vec2, 0, points*2)
	for i := 0; i < points*2; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := float64(i)*math.Pi/float64(points) - math.Pi/2
		pts = append(pts, quill.Vec2{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	return quill.PolygonPath(pts, true)
}

func ellipse(name string, r quill.Rect, c quill.Color) *quill.Node {
	n := quill.NewShape(name, r, quill.EllipsePath(r))
	n.SetFills(quill.SolidFill(c))
	return n
}

// buildDemo populates root with one artboard exercising every node kind and
// compositing feature. imageSrc may be empty.
func buildDemo(root *quill.Node, font *sfnt.Font, imageSrc string) {
	board := quill.NewArtboard("Board", quill.Rect{Width: 960, Height: 640}, quill.ColorWhite)
	board.SetPosition(-480, -320)
	board.SetShadows(quill.Shadow{Enabled: true, Color: quill.ColorBlack.WithAlpha(0.25), Y: 4, Blur: 12})
	root.AddChild(board)

	// Card with gradient, stroke and drop shadow.
	card := quill.NewRect("Card", quill.Rect{X: 40, Y: 40, Width: 260, Height: 160}, rgb(66, 133, 244))
	card.SetFills(quill.LinearFill(quill.Vec2{}, quill.Vec2{X: 1, Y: 1},
		quill.GradientStop{Offset: 0, Color: rgb(66, 133, 244)},
		quill.GradientStop{Offset: 1, Color: rgb(156, 39, 176)}))
	card.SetStrokes(quill.Stroke{Enabled: true, Paint: quill.Paint{Kind: quill.PaintSolid, Color: rgb(20, 20, 60)},
		Width: 4, Position: quill.StrokeInside})
	card.SetShadows(quill.Shadow{Enabled: true, Color: quill.ColorBlack.WithAlpha(0.4), X: 6, Y: 8, Blur: 10})
	card.SetInnerShadows(quill.Shadow{Enabled: true, Color: quill.ColorWhite.WithAlpha(0.5), Y: 3, Blur: 4})
	board.AddChild(card)

	// Half-transparent group: the overlap stays at the group's opacity.
	pair := quill.NewGroup("Overlap")
	pair.AddChild(ellipse("Left", quill.Rect{X: 340, Y: 40, Width: 160, Height: 160}, rgb(244, 67, 54)))
	pair.AddChild(ellipse("Right", quill.Rect{X: 420, Y: 40, Width: 160, Height: 160}, rgb(255, 193, 7)))
	pair.SetOpacity(0.5)
	board.AddChild(pair)

	// Alpha mask clipping a dashed rectangle.
	masked := quill.NewGroup("Masked")
	mask := ellipse("Mask", quill.Rect{X: 640, Y: 40, Width: 260, Height: 160}, quill.ColorBlack)
	mask.SetMaskMode(quill.MaskAlpha)
	masked.AddChild(mask)
	stripes := quill.NewRect("Stripes", quill.Rect{X: 620, Y: 20, Width: 300, Height: 200}, rgb(0, 150, 136))
	stripes.SetStrokes(quill.Stroke{Enabled: true, Paint: quill.Paint{Kind: quill.PaintSolid, Color: rgb(0, 77, 64)},
		Width: 12, Dash: []float64{16, 16}})
	masked.AddChild(stripes)
	board.AddChild(masked)

	// Gaussian blurred star and a motion blurred copy.
	star := quill.NewShape("Star", quill.Rect{X: 40, Y: 260, Width: 200, Height: 200}, starPath(140, 360, 100, 45, 5))
	star.SetFills(quill.SolidFill(rgb(255, 152, 0)))
	star.SetBlur(quill.Blur{Kind: quill.BlurGaussian, Radius: 4})
	board.AddChild(star)
	streak := quill.NewShape("Streak", quill.Rect{X: 280, Y: 260, Width: 200, Height: 200}, starPath(380, 360, 100, 45, 5))
	streak.SetFills(quill.SolidFill(rgb(3, 169, 244)))
	streak.SetBlur(quill.Blur{Kind: quill.BlurMotion, Radius: 40, Angle: math.Pi / 6})
	board.AddChild(streak)

	// Multiply blend over the card, then a desaturated group with a group shadow.
	shade := quill.NewRect("Shade", quill.Rect{X: 200, Y: 120, Width: 160, Height: 120}, rgb(255, 235, 59))
	shade.SetBlendMode(quill.BlendMultiply)
	board.AddChild(shade)

	muted := quill.NewGroup("Muted")
	muted.AddChild(quill.NewRect("A", quill.Rect{X: 540, Y: 280, Width: 100, Height: 100}, rgb(233, 30, 99)))
	muted.AddChild(quill.NewRect("B", quill.Rect{X: 600, Y: 340, Width: 100, Height: 100}, rgb(76, 175, 80)))
	muted.SetColorAdjust(&quill.ColorAdjust{Saturation: 0.3, Contrast: 1.1})
	muted.SetShadows(quill.Shadow{Enabled: true, Color: quill.ColorBlack.WithAlpha(0.5), X: 4, Y: 4, Blur: 6})
	board.AddChild(muted)

	if font != nil {
		if glyphs, err := quill.GlyphsOf(font, "quill renders this", 36, 0, 36); err == nil {
			text := quill.NewText("Title", quill.Rect{Width: 400, Height: 48},
				quill.GlyphRun{Font: font, Size: 36, Color: rgb(33, 33, 33), Glyphs: glyphs})
			text.SetPosition(40, 520)
			board.AddChild(text)
		}
	}

	if imageSrc != "" {
		photo := quill.NewBitmap("Photo", quill.Rect{X: 740, Y: 460, Width: 180, Height: 140}, imageSrc)
		board.AddChild(photo)
	}
}
