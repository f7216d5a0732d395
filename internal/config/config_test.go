package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phanxgames/quill"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Render.PixelRatio != 1 {
		t.Errorf("expected pixel ratio 1, got %g", cfg.Render.PixelRatio)
	}
	if cfg.Render.CacheScales != quill.DefaultCacheScales {
		t.Errorf("expected %d cache scales, got %d", quill.DefaultCacheScales, cfg.Render.CacheScales)
	}
	if !cfg.Tiles.Enabled || cfg.Tiles.Unit != quill.DefaultTileUnit {
		t.Errorf("expected tiles enabled at %d, got %v at %d", quill.DefaultTileUnit, cfg.Tiles.Enabled, cfg.Tiles.Unit)
	}
	if cfg.Viewer.Width != 1280 || cfg.Viewer.Height != 800 {
		t.Errorf("expected 1280x800, got %dx%d", cfg.Viewer.Width, cfg.Viewer.Height)
	}
	if cfg.Viewer.ZoomDuration != 250*time.Millisecond {
		t.Errorf("expected zoom duration 250ms, got %v", cfg.Viewer.ZoomDuration)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quill.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
render:
  pixel_ratio: 2
  max_texture_size: 2048
tiles:
  enabled: false
viewer:
  width: 1920
  zoom_duration: 100ms
logging:
  level: debug
  log_file: quill.log
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Render.PixelRatio != 2 {
		t.Errorf("expected pixel ratio 2, got %g", cfg.Render.PixelRatio)
	}
	if cfg.Render.MaxTextureSize != 2048 {
		t.Errorf("expected max texture 2048, got %d", cfg.Render.MaxTextureSize)
	}
	if cfg.Tiles.Enabled {
		t.Error("expected tiles disabled")
	}
	if cfg.Viewer.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Viewer.Width)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Viewer.Height != 800 {
		t.Errorf("expected default height 800, got %d", cfg.Viewer.Height)
	}
	if cfg.Viewer.ZoomDuration != 100*time.Millisecond {
		t.Errorf("expected zoom duration 100ms, got %v", cfg.Viewer.ZoomDuration)
	}
	if cfg.Logging.LogFile != "quill.log" {
		t.Errorf("expected log file quill.log, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "render:\n  pixel_ration: 2\n"},
		{"bad ratio", "render:\n  pixel_ratio: 0\n"},
		{"no cache scales", "render:\n  cache_scales: 0\n"},
		{"tiny tiles", "tiles:\n  unit: 8\n"},
		{"malformed", "render: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFile(writeConfig(t, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadPriority(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := writeConfig(t, "viewer:\n  width: 1024\n  height: 768\n")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", path, "-height", "600", "-debug", "-no-tiles"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Viewer.Width != 1024 {
		t.Errorf("file width not applied: %d", cfg.Viewer.Width)
	}
	if cfg.Viewer.Height != 600 {
		t.Errorf("flag height not applied: %d", cfg.Viewer.Height)
	}
	if cfg.Logging.Level != "debug" || !cfg.Render.Debug {
		t.Error("expected -debug to enable debug logging and frame stats")
	}
	if cfg.Tiles.Enabled {
		t.Error("expected -no-tiles to disable tiles")
	}
}

func TestScriptAndStatsFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse([]string{"-script", "tour.json", "-stats", "-snapshot", "out"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Viewer.Script != "tour.json" || !cfg.Viewer.ShowStats || cfg.Viewer.SnapshotDir != "out" {
		t.Errorf("viewer = %+v", cfg.Viewer)
	}
}

func TestLoadWithoutFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Viewer.Width != Default().Viewer.Width {
		t.Errorf("expected defaults, got width %d", cfg.Viewer.Width)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Viewer.Title = "round trip"
	cfg.Tiles.Unit = 256
	path := filepath.Join(t.TempDir(), "nested", "quill.yaml")
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Viewer.Title != "round trip" || got.Tiles.Unit != 256 {
		t.Errorf("saved values lost: %+v", got.Viewer)
	}
}

func TestSceneOptions(t *testing.T) {
	cfg := Default()
	cfg.Render.PixelRatio = 2
	opts := cfg.SceneOptions()
	if opts.Width != 1280 || opts.Height != 800 || opts.PixelRatio != 2 {
		t.Errorf("viewport options = %gx%g @%g", opts.Width, opts.Height, opts.PixelRatio)
	}
	if !opts.Tiles.Enabled() {
		t.Error("expected an enabled tile manager")
	}
	if opts.Loader == nil {
		t.Error("expected a file loader")
	}

	cfg.Tiles.Enabled = false
	if cfg.SceneOptions().Tiles.Enabled() {
		t.Error("expected the null tile manager when tiles are disabled")
	}
}
