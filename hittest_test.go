package quill

import "testing"

func hitName(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.Name
}

func TestHitTestTopmostWins(t *testing.T) {
	s, _, _ := newTestScene(t, 100, 100, SceneOptions{})
	bottom := NewRect("bottom", Rect{Width: 60, Height: 60}, red)
	top := NewRect("top", Rect{X: 40, Y: 40, Width: 60, Height: 60}, blue)
	s.Root().AddChild(bottom)
	s.Root().AddChild(top)

	tests := []struct {
		x, y float64
		want string
	}{
		{10, 10, "bottom"},
		{50, 50, "top"},
		{90, 90, "top"},
		{90, 10, "<nil>"},
	}
	for _, tt := range tests {
		if got := hitName(s.HitTest(tt.x, tt.y)); got != tt.want {
			t.Errorf("HitTest(%v, %v) = %s, want %s", tt.x, tt.y, got, tt.want)
		}
	}

	top.SetVisible(false)
	if got := hitName(s.HitTest(50, 50)); got != "bottom" {
		t.Errorf("hidden top: got %s, want bottom", got)
	}
	top.SetVisible(true)
	top.SetOpacity(0)
	if got := hitName(s.HitTest(50, 50)); got != "bottom" {
		t.Errorf("transparent top: got %s, want bottom", got)
	}
}

func TestHitTestFillRule(t *testing.T) {
	s, _, _ := newTestScene(t, 40, 40, SceneOptions{})
	ring := NewShape("ring", Rect{Width: 40, Height: 40},
		RectPath(Rect{Width: 40, Height: 40}),
		RectPath(Rect{X: 10, Y: 10, Width: 20, Height: 20}))
	ring.SetFills(SolidFill(red))
	s.Root().AddChild(ring)

	if got := hitName(s.HitTest(20, 20)); got != "ring" {
		t.Errorf("nonzero center = %s, want ring", got)
	}
	ring.Style.FillRule = FillEvenOdd
	if got := hitName(s.HitTest(20, 20)); got != "<nil>" {
		t.Errorf("evenodd hole = %s, want nil", got)
	}
	if got := hitName(s.HitTest(5, 20)); got != "ring" {
		t.Errorf("evenodd band = %s, want ring", got)
	}
}

func TestHitTestCurvesAndStrokes(t *testing.T) {
	s, _, _ := newTestScene(t, 100, 100, SceneOptions{})
	r := Rect{Width: 40, Height: 40}
	e := NewShape("ellipse", r, EllipsePath(r))
	e.SetFills(SolidFill(green))
	s.Root().AddChild(e)

	line := NewShape("line", Rect{X: 0, Y: 80, Width: 100, Height: 1}, PolygonPath([]Vec2{{0, 80}, {100, 80}}, false))
	line.SetStrokes(SolidStroke(ColorBlack, 6))
	s.Root().AddChild(line)

	tests := []struct {
		x, y float64
		want string
	}{
		{20, 20, "ellipse"},
		{2, 2, "<nil>"},
		{50, 82, "line"},
		{50, 78, "line"},
		{50, 86, "<nil>"},
		{50, 60, "<nil>"},
	}
	for _, tt := range tests {
		if got := hitName(s.HitTest(tt.x, tt.y)); got != tt.want {
			t.Errorf("HitTest(%v, %v) = %s, want %s", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestHitTestTransforms(t *testing.T) {
	s, _, _ := newTestScene(t, 100, 100, SceneOptions{})
	g := NewGroup("g")
	g.SetPosition(20, 20)
	child := NewRect("child", Rect{Width: 10, Height: 10}, red)
	g.AddChild(child)
	s.Root().AddChild(g)

	if got := hitName(s.HitTest(25, 25)); got != "child" {
		t.Errorf("translated child = %s, want child", got)
	}
	if got := hitName(s.HitTest(15, 15)); got != "<nil>" {
		t.Errorf("outside child = %s, want nil", got)
	}

	// Zoom 2 about the view center: screen (60, 60) is world (55, 55).
	s.Viewport().SetZoom(2)
	g.SetPosition(50, 50)
	if got := hitName(s.HitTest(60, 60)); got != "child" {
		t.Errorf("zoomed = %s, want child", got)
	}
	if got := hitName(s.HitTest(75, 75)); got != "<nil>" {
		t.Errorf("zoomed outside = %s, want nil", got)
	}
}

func TestHitTestRespectsMask(t *testing.T) {
	s, _, _ := newTestScene(t, 100, 100, SceneOptions{})
	g := NewGroup("g")
	mask := NewRect("mask", Rect{Width: 50, Height: 100}, ColorWhite)
	mask.SetMaskMode(MaskAlpha)
	content := NewRect("content", Rect{Width: 100, Height: 100}, red)
	g.AddChild(mask)
	g.AddChild(content)
	s.Root().AddChild(g)

	if got := hitName(s.HitTest(25, 50)); got != "content" {
		t.Errorf("inside mask = %s, want content", got)
	}
	if got := hitName(s.HitTest(75, 50)); got != "<nil>" {
		t.Errorf("outside mask = %s, want nil", got)
	}

	content.SetBreakMask(true)
	if got := hitName(s.HitTest(75, 50)); got != "content" {
		t.Errorf("after break = %s, want content", got)
	}
}

func TestHitTestHiddenMaskHidesRange(t *testing.T) {
	s, _, _ := newTestScene(t, 100, 100, SceneOptions{})
	g := NewGroup("g")
	mask := NewRect("mask", Rect{Width: 50, Height: 100}, ColorWhite)
	mask.SetMaskMode(MaskAlpha)
	g.AddChild(mask)
	g.AddChild(NewRect("content", Rect{Width: 100, Height: 100}, red))
	s.Root().AddChild(NewRect("below", Rect{Width: 100, Height: 100}, blue))
	s.Root().AddChild(g)

	mask.SetOpacity(0)
	if got := hitName(s.HitTest(25, 50)); got != "below" {
		t.Errorf("transparent mask = %s, want below", got)
	}
	mask.SetOpacity(1)
	mask.SetVisible(false)
	if got := hitName(s.HitTest(25, 50)); got != "below" {
		t.Errorf("hidden mask = %s, want below", got)
	}
	mask.SetVisible(true)
	if got := hitName(s.HitTest(25, 50)); got != "content" {
		t.Errorf("visible mask = %s, want content", got)
	}
}

func TestHitTestMaskWithIsHittable(t *testing.T) {
	s, _, _ := newTestScene(t, 100, 100, SceneOptions{})
	mask := NewRect("mask", Rect{Width: 100, Height: 100}, ColorWhite)
	mask.SetMaskMode(MaskAlphaWith)
	s.Root().AddChild(mask)
	if got := hitName(s.HitTest(50, 50)); got != "mask" {
		t.Errorf("visible mask = %s, want mask", got)
	}
	mask.SetMaskMode(MaskAlpha)
	if got := hitName(s.HitTest(50, 50)); got != "<nil>" {
		t.Errorf("pure mask = %s, want nil", got)
	}
}
