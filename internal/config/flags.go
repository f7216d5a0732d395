package config

import "flag"

// Flags are the command-line overrides of a Config.
type Flags struct {
	config     *string
	debug      *bool
	width      *int
	height     *int
	maxTexture *int
	noTiles    *bool
	assets     *string
	snapshot   *string
	script     *string
	stats      *bool
}

// RegisterFlags defines the config flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:     fs.String("config", "", "Path to config file"),
		debug:      fs.Bool("debug", false, "Enable debug logging and frame stats"),
		width:      fs.Int("width", 0, "Viewport width"),
		height:     fs.Int("height", 0, "Viewport height"),
		maxTexture: fs.Int("max-texture", 0, "Clamp the device texture size"),
		noTiles:    fs.Bool("no-tiles", false, "Composite directly without tiles"),
		assets:     fs.String("assets", "", "Root directory for image and font sources"),
		snapshot:   fs.String("snapshot", "", "Render one frame headless and write it as PNG to this directory"),
		script:     fs.String("script", "", "Run a JSON viewer script headless, writing its snapshots"),
		stats:      fs.Bool("stats", false, "Show the frame stats overlay"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	return *f.config
}

// SnapshotDir returns the -snapshot directory; empty means interactive.
func (f *Flags) SnapshotDir() string {
	return *f.snapshot
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if *f.debug {
		cfg.Logging.Level = "debug"
		cfg.Render.Debug = true
	}
	if *f.width > 0 {
		cfg.Viewer.Width = *f.width
	}
	if *f.height > 0 {
		cfg.Viewer.Height = *f.height
	}
	if *f.maxTexture > 0 {
		cfg.Render.MaxTextureSize = *f.maxTexture
	}
	if *f.noTiles {
		cfg.Tiles.Enabled = false
	}
	if *f.assets != "" {
		cfg.Viewer.AssetRoot = *f.assets
	}
	if *f.snapshot != "" {
		cfg.Viewer.SnapshotDir = *f.snapshot
	}
	if *f.script != "" {
		cfg.Viewer.Script = *f.script
	}
	if *f.stats {
		cfg.Viewer.ShowStats = true
	}
}
