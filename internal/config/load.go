package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags. f may be
// nil when no flags were registered.
func Load(f *Flags) (*Config, error) {
	cfg := Default()

	var configPath string
	if f != nil {
		configPath = f.ConfigPath()
	}
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	if f != nil {
		f.apply(cfg)
	}
	return cfg, nil
}

// LoadFile loads defaults overridden by the YAML file at path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./quill.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Quill")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Quill")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "quill")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "quill")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
// Unknown keys are rejected so typos do not pass silently.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate reports settings no scene can run with.
func (c *Config) Validate() error {
	switch {
	case c.Render.PixelRatio <= 0:
		return fmt.Errorf("render.pixel_ratio must be positive, got %g", c.Render.PixelRatio)
	case c.Render.CacheScales < 1:
		return fmt.Errorf("render.cache_scales must be at least 1, got %d", c.Render.CacheScales)
	case c.Render.MaxTextureSize < 0:
		return fmt.Errorf("render.max_texture_size must not be negative, got %d", c.Render.MaxTextureSize)
	case c.Tiles.Enabled && c.Tiles.Unit < 16:
		return fmt.Errorf("tiles.unit must be at least 16, got %d", c.Tiles.Unit)
	case c.Viewer.Width <= 0 || c.Viewer.Height <= 0:
		return fmt.Errorf("viewer size must be positive, got %dx%d", c.Viewer.Width, c.Viewer.Height)
	}
	return nil
}
