package quill

import (
	"math"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

func testFont(t *testing.T) *sfnt.Font {
	t.Helper()
	f, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("parse font: %v", err)
	}
	return f
}

func TestGlyphsOf(t *testing.T) {
	f := testFont(t)
	glyphs, err := GlyphsOf(f, "HIH", 20, 5, 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(glyphs) != 3 {
		t.Fatalf("glyphs = %d, want 3", len(glyphs))
	}
	if glyphs[0].X != 5 {
		t.Errorf("first pen x = %v, want 5", glyphs[0].X)
	}
	for i, g := range glyphs {
		if g.Y != 30 {
			t.Errorf("glyph %d y = %v, want baseline 30", i, g.Y)
		}
		if g.Index == 0 {
			t.Errorf("glyph %d maps to .notdef", i)
		}
		if i > 0 && g.X <= glyphs[i-1].X {
			t.Errorf("glyph %d does not advance: %v <= %v", i, g.X, glyphs[i-1].X)
		}
	}
	if glyphs[0].Index != glyphs[2].Index {
		t.Error("repeated rune should map to the same glyph")
	}

	empty, err := GlyphsOf(f, "", 20, 0, 0)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty string: %v, %v", empty, err)
	}
}

func TestGlyphPathsSitOnBaseline(t *testing.T) {
	f := testFont(t)
	glyphs, err := GlyphsOf(f, "H", 40, 10, 50)
	if err != nil {
		t.Fatal(err)
	}
	var buf sfnt.Buffer
	paths, err := glyphPaths(f, GlyphRun{Size: 40, Glyphs: glyphs}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths = %d, want 1", len(paths))
	}
	b := paths[0].Bounds()
	if math.Abs(b.Y+b.Height-50) > 1 {
		t.Errorf("glyph bottom = %v, want the baseline 50", b.Y+b.Height)
	}
	if b.Y < 15 || b.Y > 30 {
		t.Errorf("glyph top = %v, want a cap height below the em", b.Y)
	}
	if b.X < 10 || b.Width <= 0 {
		t.Errorf("bounds = %+v", b)
	}
	if last := paths[0][len(paths[0])-1]; last.Verb != VerbClose {
		t.Error("glyph contours should be closed")
	}
}

func TestTextRendersInRunColor(t *testing.T) {
	f := testFont(t)
	glyphs, err := GlyphsOf(f, "HI", 40, 4, 44)
	if err != nil {
		t.Fatal(err)
	}
	s, dev, target := newTestScene(t, 100, 60, SceneOptions{})
	n := NewText("t", Rect{Width: 100, Height: 50}, GlyphRun{Font: f, Size: 40, Color: blue, Glyphs: glyphs})
	s.Root().AddChild(n)
	if st := renderFrame(t, s, target); st.Rasterized != 1 {
		t.Errorf("rasterized = %d, want 1", st.Rasterized)
	}

	img, err := dev.ReadPixels(target)
	if err != nil {
		t.Fatal(err)
	}
	var opaque int
	for y := 0; y < 60; y++ {
		for x := 0; x < 100; x++ {
			p := pixel(img, x, y)
			if p[3] == 0 {
				continue
			}
			if p[0] != 0 || p[1] != 0 {
				t.Fatalf("pixel (%d, %d) = %v, want blue only", x, y, p)
			}
			if y > 46 {
				t.Fatalf("ink below the baseline at (%d, %d)", x, y)
			}
			if p[3] == 1 {
				opaque++
			}
		}
	}
	if opaque < 100 {
		t.Errorf("opaque text pixels = %d, want solid stems", opaque)
	}
}

func TestTextWithoutFontIsEmpty(t *testing.T) {
	s, dev, target := newTestScene(t, 40, 40, SceneOptions{})
	n := NewText("t", Rect{Width: 40, Height: 40}, GlyphRun{Size: 20, Color: ColorBlack, Glyphs: []Glyph{{Index: 5}}})
	s.Root().AddChild(n)
	if st := renderFrame(t, s, target); st.Rasterized != 1 {
		t.Errorf("rasterized = %d, want 1", st.Rasterized)
	}
	img, _ := dev.ReadPixels(target)
	if !coverageOf(img).empty() {
		t.Error("text without a font should render nothing")
	}
}
