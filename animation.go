package quill

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 values of a Node simultaneously. Values are
// written through the node's setters, so each step requests only the refresh
// level the property needs: a fade never re-rasterizes, a color tween does.
// Create one via the convenience constructors and call Update(dt) each frame.
// If the target node is disposed, the group stops immediately.
//
// There is no global animation manager; callers drive Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	values [4]float64
	count  int
	apply  func(v []float64)
	target *Node
	Done   bool
}

func newTweenGroup(n *Node, duration float32, fn ease.TweenFunc, apply func([]float64), from, to []float64) *TweenGroup {
	if fn == nil {
		fn = ease.Linear
	}
	g := &TweenGroup{count: len(from), target: n, apply: apply}
	for i := range from {
		g.tweens[i] = gween.New(float32(from[i]), float32(to[i]), duration, fn)
		g.values[i] = from[i]
	}
	return g
}

// Update advances all tweens by dt seconds and applies the values to the
// target. If the target node has been disposed, Done is set and nothing is
// written.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target == nil || g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		g.values[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.apply(g.values[:g.count])
}

// TweenPosition moves the node's translation to (toX, toY).
func TweenPosition(n *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(n, duration, fn,
		func(v []float64) { n.SetPosition(v[0], v[1]) },
		[]float64{n.Matrix[4], n.Matrix[5]}, []float64{toX, toY})
}

// TweenOpacity fades the node to the target opacity.
func TweenOpacity(n *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(n, duration, fn,
		func(v []float64) { n.SetOpacity(v[0]) },
		[]float64{n.Style.Opacity}, []float64{to})
}

// TweenBlur animates a gaussian blur radius. The node keeps its raster while
// the blur outset is unchanged.
func TweenBlur(n *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := 0.0
	if n.Style.Blur.Kind == BlurGaussian {
		from = n.Style.Blur.Radius
	}
	return newTweenGroup(n, duration, fn,
		func(v []float64) { n.SetBlur(Blur{Kind: BlurGaussian, Radius: v[0]}) },
		[]float64{from}, []float64{to})
}

// TweenTint animates the node's tint color. A node without a tint starts
// from white.
func TweenTint(n *Node, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := ColorWhite
	if n.Style.Tint != nil {
		from = *n.Style.Tint
	}
	return newTweenGroup(n, duration, fn,
		func(v []float64) { n.SetTint(&Color{v[0], v[1], v[2], v[3]}) },
		[]float64{from.R, from.G, from.B, from.A}, []float64{to.R, to.G, to.B, to.A})
}

// TweenFillColor animates the first fill of the node to a solid color. The
// node is repainted on every step.
func TweenFillColor(n *Node, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := ColorTransparent
	if len(n.Style.Fills) > 0 && n.Style.Fills[0].Kind == PaintSolid {
		from = n.Style.Fills[0].Color
	}
	return newTweenGroup(n, duration, fn,
		func(v []float64) {
			fills := append([]Fill(nil), n.Style.Fills...)
			c := SolidFill(Color{v[0], v[1], v[2], v[3]})
			if len(fills) == 0 {
				fills = append(fills, c)
			} else {
				fills[0] = c
			}
			n.SetFills(fills...)
		},
		[]float64{from.R, from.G, from.B, from.A}, []float64{to.R, to.G, to.B, to.A})
}
