package quill

import "testing"

// setupBenchScene creates a 1280x720 scene with n rect nodes laid out in
// rows of 32, each with a solid fill and a stroke.
func setupBenchScene(b *testing.B, n int, opts SceneOptions) (*Scene, Texture) {
	b.Helper()
	dev := NewSoftDevice(0)
	opts.Device = dev
	opts.Width, opts.Height = 1280, 720
	s := NewScene(opts)
	s.Viewport().CenterOn(640, 360)
	for i := 0; i < n; i++ {
		r := NewRect("r", Rect{Width: 32, Height: 32}, Color{R: float64(i%7) / 7, G: 0.5, B: 0.5, A: 1})
		r.SetStrokes(SolidStroke(ColorBlack, 2))
		r.SetPosition(float64(i%32)*40, float64(i/32)*40)
		s.Root().AddChild(r)
	}
	target, err := dev.NewTexture(1280, 720)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() {
		dev.Release(target)
		s.Close()
	})
	// Warm up: first frame rasterizes everything.
	if _, err := s.RenderFrame(target); err != nil {
		b.Fatal(err)
	}
	return s, target
}

// --- Frame Benchmarks ---

func BenchmarkRenderFrame_500Nodes_Static(b *testing.B) {
	s, target := setupBenchScene(b, 500, SceneOptions{})

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.RenderFrame(target)
	}
}

func BenchmarkRenderFrame_500Nodes_Moving(b *testing.B) {
	s, target := setupBenchScene(b, 500, SceneOptions{})
	children := s.Root().Children()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		// Reflow only: every raster is reused.
		for j, c := range children {
			c.SetPosition(float64(j%32)*40+float64(i%2), float64(j/32)*40)
		}
		s.RenderFrame(target)
	}
}

func BenchmarkRenderFrame_500Nodes_OpacityVarying(b *testing.B) {
	s, target := setupBenchScene(b, 500, SceneOptions{})
	children := s.Root().Children()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for j, c := range children {
			c.SetOpacity(0.5 + 0.5*float64((i+j)%2))
		}
		s.RenderFrame(target)
	}
}

func BenchmarkRenderFrame_100Nodes_Repaint(b *testing.B) {
	s, target := setupBenchScene(b, 100, SceneOptions{})
	children := s.Root().Children()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c := Color{R: float64(i%2) * 0.5, G: 0.5, B: 0.5, A: 1}
		for _, n := range children {
			n.SetFills(SolidFill(c))
		}
		s.RenderFrame(target)
	}
}

func BenchmarkRenderFrame_GroupMerge(b *testing.B) {
	s, target := setupBenchScene(b, 0, SceneOptions{})
	g := NewGroup("g")
	for i := 0; i < 64; i++ {
		r := NewRect("r", Rect{Width: 40, Height: 40}, Color{R: 1, A: 1})
		r.SetPosition(float64(i%8)*30, float64(i/8)*30)
		g.AddChild(r)
	}
	g.SetOpacity(0.5)
	s.Root().AddChild(g)
	s.RenderFrame(target)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		// Invalidate the merged texture without touching any raster.
		g.ChildAt(i % 64).SetPosition(float64(i%8)*30, float64((i/8)%8)*30+float64(i%2))
		s.RenderFrame(target)
	}
}

func BenchmarkRenderFrame_TiledPan(b *testing.B) {
	s, target := setupBenchScene(b, 500, SceneOptions{Tiles: NewTileManager(256)})

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		dx := 8.0
		if (i/32)%2 == 1 {
			dx = -8
		}
		s.Viewport().PanBy(dx, 0)
		s.RenderFrame(target)
	}
}

// --- Traversal Benchmarks ---

func BenchmarkStructRebuild_10000(b *testing.B) {
	root := NewGroup("root")
	for i := 0; i < 100; i++ {
		g := NewGroup("g")
		for j := 0; j < 100; j++ {
			g.AddChild(NewRect("r", Rect{Width: 1, Height: 1}, ColorBlack))
		}
		root.AddChild(g)
	}
	var t StructTable

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		t.Rebuild(root)
	}
}

func BenchmarkRefreshPropagation_Depth64(b *testing.B) {
	s := NewScene(SceneOptions{Width: 100, Height: 100})
	parent := s.Root()
	for i := 0; i < 64; i++ {
		g := NewGroup("g")
		parent.AddChild(g)
		parent = g
	}
	leaf := NewRect("leaf", Rect{Width: 1, Height: 1}, ColorBlack)
	parent.AddChild(leaf)
	s.Table()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		leaf.SetOpacity(0.5 + 0.5*float64(i%2))
		resetLevels(&s.table)
	}
}

func BenchmarkHitTest_1000Nodes(b *testing.B) {
	s, _ := setupBenchScene(b, 1000, SceneOptions{})

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.HitTest(float64(i%1280), float64(i%720))
	}
}
