package quill

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"after-load", "after-load"},
		{"frame.01", "frame.01"},
		{"has spaces", "has_spaces"},
		{"path/to/thing", "path_to_thing"},
		{"back\\slash", "back_slash"},
		{"special!@#$%", "special_____"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
		{"MixedCase123", "MixedCase123"},
	}
	for _, tt := range tests {
		got := sanitizeLabel(tt.in)
		if got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSaveSnapshotBeforeFrame(t *testing.T) {
	s := NewScene(SceneOptions{Width: 10, Height: 10})
	if _, err := s.SaveSnapshot(t.TempDir(), "x"); err == nil {
		t.Error("SaveSnapshot before the first frame should fail")
	}
}

func TestSaveSnapshotWritesPNG(t *testing.T) {
	s, _, target := newTestScene(t, 16, 8, SceneOptions{})
	s.Root().AddChild(NewRect("r", Rect{Width: 8, Height: 8}, Color{0, 0, 1, 0.5}))
	renderFrame(t, s, target)

	dir := filepath.Join(t.TempDir(), "shots")
	path, err := s.SaveSnapshot(dir, "after load")
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasSuffix(path, "_after_load.png") {
		t.Errorf("path = %q", path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("bounds = %v, want 16x8", b)
	}
	r, g, b, a := img.At(4, 4).RGBA()
	if r != 0 || g != 0 || a>>8 < 126 || a>>8 > 129 || b>>8 < 126 || b>>8 > 129 {
		t.Errorf("pixel = %d %d %d %d, want half-transparent blue", r>>8, g>>8, b>>8, a>>8)
	}
}
