// Package config handles viewer configuration loading and management.
package config

import (
	"time"

	"github.com/phanxgames/quill"
)

// Config holds all viewer settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Tiles   TilesConfig   `yaml:"tiles"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds compositor settings.
type RenderConfig struct {
	PixelRatio     float64 `yaml:"pixel_ratio"`
	CacheScales    int     `yaml:"cache_scales"`
	MaxTextureSize int     `yaml:"max_texture_size"` // 0 = device limit
	Debug          bool    `yaml:"debug"`
}

// TilesConfig holds viewport virtualization settings.
type TilesConfig struct {
	Enabled bool `yaml:"enabled"`
	Unit    int  `yaml:"unit"`
}

// ViewerConfig holds window and asset settings.
type ViewerConfig struct {
	Title         string        `yaml:"title"`
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	AssetRoot     string        `yaml:"asset_root"`
	LoaderWorkers int           `yaml:"loader_workers"`
	ZoomDuration  time.Duration `yaml:"zoom_duration"`
	SnapshotDir   string        `yaml:"snapshot_dir"`
	Script        string        `yaml:"script"` // JSON viewer script run headless
	ShowStats     bool          `yaml:"show_stats"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			PixelRatio:  1,
			CacheScales: quill.DefaultCacheScales,
		},
		Tiles: TilesConfig{
			Enabled: true,
			Unit:    quill.DefaultTileUnit,
		},
		Viewer: ViewerConfig{
			Title:         "quill",
			Width:         1280,
			Height:        800,
			AssetRoot:     ".",
			LoaderWorkers: 4,
			ZoomDuration:  250 * time.Millisecond,
			SnapshotDir:   "snapshots",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SceneOptions maps the configuration onto scene options. Device and Logger
// are left for the caller.
func (c *Config) SceneOptions() quill.SceneOptions {
	tiles := quill.NewNullTileManager()
	if c.Tiles.Enabled {
		tiles = quill.NewTileManager(c.Tiles.Unit)
	}
	return quill.SceneOptions{
		Loader:      quill.NewFileLoader(c.Viewer.AssetRoot, c.Viewer.LoaderWorkers),
		Tiles:       tiles,
		Width:       float64(c.Viewer.Width),
		Height:      float64(c.Viewer.Height),
		PixelRatio:  c.Render.PixelRatio,
		CacheScales: c.Render.CacheScales,
		Debug:       c.Render.Debug,
	}
}
