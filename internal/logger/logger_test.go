package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// readEntries decodes the JSON lines written to path.
func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogLevels(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		level string
		want  []string
	}{
		{"error", []string{"error"}},
		{"warn", []string{"warn", "error"}},
		{"info", []string{"info", "warn", "error"}},
		{"debug", []string{"debug", "info", "warn", "error"}},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(dir, tt.level+".log")
			cfg := FileConfig{Path: path, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1}
			if err := InitWithFileConfig(tt.level, cfg, false); err != nil {
				t.Fatalf("init: %v", err)
			}
			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			entries := readEntries(t, path)
			if len(entries) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tt.want))
			}
			for i, e := range entries {
				if e["level"] != tt.want[i] {
					t.Errorf("entry %d level = %v, want %s", i, e["level"], tt.want[i])
				}
			}
		})
	}
}

func TestNamedComponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "named.log")
	if err := InitWithFileConfig("info", FileConfig{Path: path}, false); err != nil {
		t.Fatalf("init: %v", err)
	}
	Named("scene").Info("frame")
	Sync()

	entries := readEntries(t, path)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0]["logger"] != "scene" {
		t.Errorf("logger = %v, want scene", entries[0]["logger"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"warn", "warn"},
		{"error", "error"},
		{"info", "info"},
		{"verbose", "info"},
		{"", "info"},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in).String(); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/quill.log")
	if cfg.Path != "/tmp/quill.log" {
		t.Errorf("Path = %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 50 || cfg.MaxBackups != 3 || cfg.MaxAgeDays != 7 {
		t.Errorf("rotation = %d MB / %d backups / %d days, want 50/3/7", cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}
