package quill

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func solidRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func readPixel(t *testing.T, dev *SoftDevice, tex Texture, x, y int) [4]float64 {
	t.Helper()
	img, err := dev.ReadPixels(tex)
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	return pixel(img, x, y)
}

func TestSoftDeviceTextureErrors(t *testing.T) {
	dev := NewSoftDevice(64)
	if dev.MaxTextureSize() != 64 {
		t.Errorf("MaxTextureSize = %d, want 64", dev.MaxTextureSize())
	}
	tests := []struct {
		name string
		w, h int
		is   error
	}{
		{"zero", 0, 10, nil},
		{"negative", 10, -1, nil},
		{"too wide", 65, 1, ErrTextureTooLarge},
		{"too tall", 1, 100, ErrTextureTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dev.NewTexture(tt.w, tt.h)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("err = %v, want %v", err, tt.is)
			}
		})
	}
	if dev.LiveTextures() != 0 {
		t.Errorf("failed allocations counted: live = %d", dev.LiveTextures())
	}
}

func TestSoftDeviceClosed(t *testing.T) {
	dev := NewSoftDevice(0)
	tex, err := dev.NewTexture(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	dev.Close()
	if _, err := dev.NewTexture(2, 2); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("NewTexture err = %v", err)
	}
	if _, err := dev.Upload(solidRGBA(2, 2, color.RGBA{A: 255})); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("Upload err = %v", err)
	}
	if _, err := dev.ReadPixels(tex); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("ReadPixels err = %v", err)
	}
	if err := dev.RunPass(tex, Pass{Program: ProgramTint, Src: tex}); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("RunPass err = %v", err)
	}
}

func TestSoftDeviceRelease(t *testing.T) {
	dev := NewSoftDevice(0)
	a, _ := dev.NewTexture(4, 4)
	b, _ := dev.Upload(solidRGBA(3, 3, color.RGBA{R: 255, A: 255}))
	if dev.LiveTextures() != 2 || dev.Uploads() != 1 {
		t.Fatalf("live=%d uploads=%d", dev.LiveTextures(), dev.Uploads())
	}
	dev.Release(a)
	dev.Release(a)
	dev.Release(nil)
	if dev.LiveTextures() != 1 {
		t.Errorf("live = %d after double release, want 1", dev.LiveTextures())
	}
	dev.Release(b)
	if dev.LiveTextures() != 0 {
		t.Errorf("live = %d, want 0", dev.LiveTextures())
	}
}

func TestSoftDeviceUploadSubImage(t *testing.T) {
	dev := NewSoftDevice(0)
	src := solidRGBA(8, 8, color.RGBA{A: 255})
	src.SetRGBA(5, 6, color.RGBA{G: 255, A: 255})
	sub := src.SubImage(image.Rect(4, 4, 8, 8)).(*image.RGBA)
	tex, err := dev.Upload(sub)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := tex.Size(); w != 4 || h != 4 {
		t.Fatalf("size = %dx%d, want 4x4", w, h)
	}
	if got := readPixel(t, dev, tex, 1, 2); got != [4]float64{0, 1, 0, 1} {
		t.Errorf("pixel = %v, want green", got)
	}
}

func TestSoftDeviceDraw(t *testing.T) {
	dev := NewSoftDevice(0)
	dst, _ := dev.NewTexture(8, 8)
	src, _ := dev.Upload(solidRGBA(4, 4, color.RGBA{R: 255, A: 255}))

	dev.Draw(dst, src, DrawOptions{Matrix: Translate(4, 4), Alpha: 0.5})
	if dev.Draws() != 1 {
		t.Errorf("Draws = %d, want 1", dev.Draws())
	}
	got := readPixel(t, dev, dst, 5, 5)
	if got[0] < 0.49 || got[0] > 0.51 || got[3] < 0.49 || got[3] > 0.51 {
		t.Errorf("pixel = %v, want half red", got)
	}
	if got := readPixel(t, dev, dst, 1, 1); got[3] != 0 {
		t.Errorf("pixel outside the draw = %v", got)
	}

	dev.Draw(dst, src, DrawOptions{Matrix: Identity, Alpha: 0})
	if dev.Draws() != 1 {
		t.Error("zero alpha draws should be skipped")
	}

	dev.Clear(dst)
	dev.Draw(dst, src, DrawOptions{Matrix: Scale(2, 2), Alpha: 1})
	for _, p := range [][2]int{{0, 0}, {7, 7}, {3, 4}} {
		if got := readPixel(t, dev, dst, p[0], p[1]); got != [4]float64{1, 0, 0, 1} {
			t.Errorf("scaled pixel %v = %v", p, got)
		}
	}
}

func TestSoftDeviceRunPass(t *testing.T) {
	dev := NewSoftDevice(0)
	src, _ := dev.Upload(solidRGBA(4, 4, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
	dst, _ := dev.NewTexture(4, 4)
	small, _ := dev.NewTexture(2, 2)

	if err := dev.RunPass(small, Pass{Program: ProgramTint, Src: src}); err == nil {
		t.Error("size mismatch should fail")
	}
	if err := dev.RunPass(dst, Pass{Program: ProgramMask, Src: src}); err == nil {
		t.Error("mask pass without a mask texture should fail")
	}
	if err := dev.RunPass(dst, Pass{Program: programCount, Src: src}); err == nil {
		t.Error("unknown program should fail")
	}

	if err := dev.RunPass(dst, Pass{Program: ProgramTint, Src: src, Color: Color{0, 1, 0, 0.5}}); err != nil {
		t.Fatal(err)
	}
	got := readPixel(t, dev, dst, 2, 2)
	if got[0] != 0 || got[1] < 0.49 || got[1] > 0.51 || got[3] < 0.49 || got[3] > 0.51 {
		t.Errorf("tinted = %v, want half green", got)
	}

	if err := dev.RunPass(dst, Pass{Program: ProgramColorMatrix, Src: src, Matrix: BrightnessMatrix(-1)}); err != nil {
		t.Fatal(err)
	}
	if got := readPixel(t, dev, dst, 0, 0); got != [4]float64{0, 0, 0, 1} {
		t.Errorf("darkened = %v, want opaque black", got)
	}

	if err := dev.RunPass(dst, Pass{Program: ProgramShadow, Src: src, Color: ColorBlack}); err != nil {
		t.Fatal(err)
	}
	if got := readPixel(t, dev, dst, 3, 3); got != [4]float64{0, 0, 0, 1} {
		t.Errorf("shadow = %v, want opaque black", got)
	}
}

func TestSoftDeviceBlurKeepsInterior(t *testing.T) {
	dev := NewSoftDevice(0)
	img := image.NewRGBA(image.Rect(0, 0, 9, 1))
	img.Pix[4*4+3] = 255
	img.Pix[4*4] = 255
	src, _ := dev.Upload(img)
	dst, _ := dev.NewTexture(9, 1)
	if err := dev.RunPass(dst, Pass{Program: ProgramBlurH, Src: src, Radius: 1}); err != nil {
		t.Fatal(err)
	}
	for x, want := range []float64{0, 0, 0, 1.0 / 3, 1.0 / 3, 1.0 / 3, 0, 0, 0} {
		if got := readPixel(t, dev, dst, x, 0)[3]; got < want-0.01 || got > want+0.01 {
			t.Errorf("alpha at %d = %.3f, want %.3f", x, got, want)
		}
	}
	// Vertical blur of a one-row texture spreads into transparent neighbors.
	if err := dev.RunPass(dst, Pass{Program: ProgramBlurV, Src: src, Radius: 1}); err != nil {
		t.Fatal(err)
	}
	if got := readPixel(t, dev, dst, 4, 0)[3]; got < 0.32 || got > 0.35 {
		t.Errorf("vertical alpha = %.3f, want 1/3", got)
	}
}
