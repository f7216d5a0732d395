package quill

import "testing"

func TestNeedsMerge(t *testing.T) {
	pair := func(opacity float64) *Node {
		g := NewGroup("g")
		g.AddChild(NewRect("a", Rect{Width: 10, Height: 10}, red))
		g.AddChild(NewRect("b", Rect{Width: 10, Height: 10}, blue))
		g.Style.Opacity = opacity
		return g
	}
	single := NewGroup("single")
	single.AddChild(NewRect("a", Rect{Width: 10, Height: 10}, red))
	single.Style.Opacity = 0.5

	hiddenPair := pair(0.5)
	hiddenPair.ChildAt(1).Style.Visible = false

	adjusted := pair(1)
	adjusted.Style.Adjust = &ColorAdjust{Saturation: 0, Contrast: 1}

	masking := pair(1)
	masking.Style.MaskMode = MaskAlpha

	shape := NewRect("shape", Rect{Width: 10, Height: 10}, red)
	shape.Style.Opacity = 0.5

	tests := []struct {
		name string
		node *Node
		want bool
	}{
		{"opaque pair", pair(1), false},
		{"translucent pair", pair(0.5), true},
		{"transparent pair", pair(0), false},
		{"translucent single", single, false},
		{"one visible of two", hiddenPair, false},
		{"group effect", adjusted, true},
		{"mask group", masking, true},
		{"leaf", shape, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.needsMerge(); got != tt.want {
				t.Errorf("needsMerge = %v, want %v", got, tt.want)
			}
		})
	}
}

func jobNames(jobs []mergeJob) []string {
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.node.Name
		if j.mask {
			names[i] += "/mask"
		}
	}
	return names
}

func TestBuildMergeListDeepestFirst(t *testing.T) {
	s := NewScene(SceneOptions{Width: 100, Height: 100})

	// root > outer(0.5)[ g[ m(mask), x(blur) ], inner(0.5)[a, b], y ]
	outer := NewGroup("outer")
	outer.SetOpacity(0.5)
	g := NewGroup("g")
	m := NewRect("m", Rect{Width: 10, Height: 10}, ColorWhite)
	m.SetMaskMode(MaskAlpha)
	x := NewRect("x", Rect{Width: 10, Height: 10}, red)
	x.SetBlur(Blur{Kind: BlurGaussian, Radius: 2})
	g.AddChild(m)
	g.AddChild(x)
	inner := NewGroup("inner")
	inner.SetOpacity(0.5)
	inner.AddChild(NewRect("a", Rect{Width: 10, Height: 10}, red))
	inner.AddChild(NewRect("b", Rect{Width: 10, Height: 10}, blue))
	outer.AddChild(g)
	outer.AddChild(inner)
	outer.AddChild(NewRect("y", Rect{Width: 10, Height: 10}, green))
	s.Root().AddChild(outer)

	jobs := s.buildMergeList(s.Table().entries)
	got := jobNames(jobs)
	want := []string{"x", "m/mask", "inner", "outer"}
	if len(got) != len(want) {
		t.Fatalf("jobs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("jobs = %v, want %v", got, want)
		}
	}
	for i := 1; i < len(jobs); i++ {
		if jobs[i].key > jobs[i-1].key {
			t.Errorf("job %d key %v after %v", i, jobs[i].key, jobs[i-1].key)
		}
	}
}

func TestBuildMergeListSkips(t *testing.T) {
	s := NewScene(SceneOptions{Width: 100, Height: 100})

	// Hidden subtrees contribute no jobs.
	hidden := NewGroup("hidden")
	hidden.SetOpacity(0.5)
	hidden.AddChild(NewRect("a", Rect{Width: 10, Height: 10}, red))
	hidden.AddChild(NewRect("b", Rect{Width: 10, Height: 10}, blue))
	hidden.SetVisible(false)
	s.Root().AddChild(hidden)

	// Shape group operands are never visited.
	sg := NewShapeGroup("union", Rect{Width: 10, Height: 10}, RectPath(Rect{Width: 10, Height: 10}))
	op := NewRect("operand", Rect{Width: 10, Height: 10}, red)
	op.SetBlur(Blur{Kind: BlurGaussian, Radius: 2})
	sg.AddChild(op)
	s.Root().AddChild(sg)

	// A trailing mask masks nothing.
	tail := NewRect("tail", Rect{Width: 10, Height: 10}, ColorWhite)
	tail.SetMaskMode(MaskAlpha)
	s.Root().AddChild(NewRect("before", Rect{Width: 10, Height: 10}, red))
	s.Root().AddChild(tail)

	if jobs := s.buildMergeList(s.Table().entries); len(jobs) != 0 {
		t.Errorf("jobs = %v, want none", jobNames(jobs))
	}
}

// translucentPair returns a 0.5-opacity group holding a red rect at 0..50
// and a blue rect at 25..75.
func translucentPair() (g, a, b *Node) {
	g = NewGroup("g")
	a = NewRect("a", Rect{Width: 50, Height: 50}, red)
	b = NewRect("b", Rect{X: 25, Y: 25, Width: 50, Height: 50}, blue)
	g.AddChild(a)
	g.AddChild(b)
	g.SetOpacity(0.5)
	return g, a, b
}

func TestMergedGroupFollowsChildList(t *testing.T) {
	s, dev, target := newTestScene(t, 100, 100, SceneOptions{})
	g, a, b := translucentPair()
	s.Root().AddChild(g)
	renderFrame(t, s, target)
	assertAlpha(t, dev, target, 5, 5, 0.5)

	c := NewRect("c", Rect{X: 70, Y: 70, Width: 30, Height: 30}, green)
	g.AddChild(c)
	if st := renderFrame(t, s, target); st.Merged != 1 {
		t.Errorf("add: merged = %d, want 1", st.Merged)
	}
	assertAlpha(t, dev, target, 85, 85, 0.5)
	assertPixel(t, dev, target, 72, 72, [4]float64{0, 0.5, 0, 0.5})

	g.SetChildIndex(c, 1)
	renderFrame(t, s, target)
	assertPixel(t, dev, target, 72, 72, [4]float64{0, 0, 0.5, 0.5})

	g.RemoveChild(a)
	renderFrame(t, s, target)
	assertAlpha(t, dev, target, 5, 5, 0)

	g.RemoveChildren()
	renderFrame(t, s, target)
	assertAlpha(t, dev, target, 50, 50, 0)
	assertAlpha(t, dev, target, 85, 85, 0)
	if b.scene != nil {
		t.Error("removed child still attached to the scene")
	}
}

func TestEffectGroupFollowsChildList(t *testing.T) {
	s, dev, target := newTestScene(t, 100, 100, SceneOptions{})
	g := NewGroup("tinted")
	g.AddChild(NewRect("a", Rect{Width: 40, Height: 40}, ColorWhite))
	g.SetTint(&Color{1, 0, 0, 1})
	s.Root().AddChild(g)
	renderFrame(t, s, target)
	assertPixel(t, dev, target, 20, 20, [4]float64{1, 0, 0, 1})

	g.AddChild(NewRect("b", Rect{X: 60, Y: 60, Width: 40, Height: 40}, ColorWhite))
	renderFrame(t, s, target)
	assertPixel(t, dev, target, 75, 75, [4]float64{1, 0, 0, 1})

	g.RemoveChildAt(0)
	renderFrame(t, s, target)
	assertPixel(t, dev, target, 20, 20, [4]float64{})
	assertPixel(t, dev, target, 75, 75, [4]float64{1, 0, 0, 1})
}

func TestMergedTextureReleasedWhenUnneeded(t *testing.T) {
	s, dev, target := newTestScene(t, 100, 100, SceneOptions{})
	g, _, _ := translucentPair()
	s.Root().AddChild(g)
	renderFrame(t, s, target)
	if g.merged.tex == nil {
		t.Fatal("expected a merged texture")
	}

	g.SetOpacity(1)
	renderFrame(t, s, target)
	if g.merged.tex != nil || g.merged.valid {
		t.Error("merged texture kept after the group stopped needing it")
	}
	// Two rasters and the target.
	if dev.LiveTextures() != 3 {
		t.Errorf("live textures = %d, want 3", dev.LiveTextures())
	}
	assertPixel(t, dev, target, 5, 5, [4]float64{1, 0, 0, 1})
	assertPixel(t, dev, target, 40, 40, [4]float64{0, 0, 1, 1})
}
