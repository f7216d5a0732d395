package quill

import (
	"math"
	"testing"
)

func assertColorNear(t *testing.T, label string, got, want Color) {
	t.Helper()
	if math.Abs(got.R-want.R) > 1e-6 || math.Abs(got.G-want.G) > 1e-6 ||
		math.Abs(got.B-want.B) > 1e-6 || math.Abs(got.A-want.A) > 1e-6 {
		t.Errorf("%s = %+v, want %+v", label, got, want)
	}
}

func TestIdentityColorMatrix(t *testing.T) {
	c := Color{0.2, 0.4, 0.6, 0.8}
	assertColorNear(t, "identity", IdentityColorMatrix.Apply(c), c)
	assertColorNear(t, "hue 0", HueRotateMatrix(0).Apply(c), c)
	assertColorNear(t, "saturation 1", SaturationMatrix(1).Apply(c), c)
	assertColorNear(t, "contrast 1", ContrastMatrix(1).Apply(c), c)
}

func TestSaturationMatrixGrays(t *testing.T) {
	got := SaturationMatrix(0).Apply(red)
	assertColorNear(t, "gray red", got, Color{0.299, 0.299, 0.299, 1})
}

func TestColorMatrixConcatOrder(t *testing.T) {
	c := Color{0.5, 0.5, 0.5, 1}
	// Brightness first: 0.5 -> 0.6, then contrast 2: 2*0.6 - 0.5 = 0.7.
	m := BrightnessMatrix(0.1).Concat(ContrastMatrix(2))
	assertColorNear(t, "brightness then contrast", m.Apply(c), Color{0.7, 0.7, 0.7, 1})
	// Contrast leaves mid gray alone, then brightness adds.
	m = ContrastMatrix(2).Concat(BrightnessMatrix(0.1))
	assertColorNear(t, "contrast then brightness", m.Apply(c), Color{0.6, 0.6, 0.6, 1})
}

func TestApplyClamps(t *testing.T) {
	got := BrightnessMatrix(1).Apply(Color{0.5, 0, 0, 1})
	assertColorNear(t, "clamped", got, Color{1, 1, 1, 1})
}

func TestColorAdjustMatrix(t *testing.T) {
	tests := []struct {
		name string
		adj  ColorAdjust
		in   Color
		want Color
	}{
		{"neutral", ColorAdjust{Saturation: 1, Contrast: 1}, Color{0.3, 0.6, 0.9, 1}, Color{0.3, 0.6, 0.9, 1}},
		{"desaturate", ColorAdjust{Saturation: 0, Contrast: 1}, red, Color{0.299, 0.299, 0.299, 1}},
		{"brightness", ColorAdjust{Saturation: 1, Contrast: 1, Brightness: 0.25}, Color{0.5, 0.5, 0.5, 1}, Color{0.75, 0.75, 0.75, 1}},
		{"contrast zero", ColorAdjust{Saturation: 1}, Color{0.9, 0.1, 0.3, 1}, Color{0.5, 0.5, 0.5, 1}},
		{"saturation before brightness", ColorAdjust{Saturation: 0, Contrast: 1, Brightness: 0.1}, red, Color{0.399, 0.399, 0.399, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertColorNear(t, tt.name, tt.adj.Matrix().Apply(tt.in), tt.want)
		})
	}
}

func TestHueRotationKeepsGray(t *testing.T) {
	gray := Color{0.4, 0.4, 0.4, 1}
	for _, a := range []float64{math.Pi / 3, math.Pi, 2} {
		got := HueRotateMatrix(a).Apply(gray)
		if math.Abs(got.R-0.4) > 1e-3 || math.Abs(got.G-0.4) > 1e-3 || math.Abs(got.B-0.4) > 1e-3 {
			t.Errorf("hue %v moved gray to %+v", a, got)
		}
	}
}
