package quill

import (
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
)

// SceneOptions configures a Scene. Zero values select defaults.
type SceneOptions struct {
	// Device composites textures. Defaults to a SoftDevice.
	Device Device
	// Loader fetches images and fonts. Without one every source fails.
	Loader ResourceLoader
	// Tiles virtualizes the page into tiles when enabled.
	Tiles *TileManager
	// Logger receives diagnostics and debug stats. Defaults to a no-op logger.
	Logger *zap.Logger
	// Diagnostics is called once per reported node problem.
	Diagnostics func(Diagnostic)
	// Width and Height are the viewport size in logical pixels.
	Width, Height float64
	// PixelRatio is device pixels per logical pixel.
	PixelRatio float64
	// CacheScales is how many scale buckets each node keeps rasterized.
	CacheScales int
	// Debug logs per-frame stats at debug level.
	Debug bool
}

// FrameStats counts the work done by one frame.
type FrameStats struct {
	Rasterized   int
	Uploaded     int
	Merged       int
	EffectPasses int
	Draws        int
	TilesDrawn   int
	Skipped      int
	Duration     time.Duration
}

// FrameInfo is passed to the frame-ready callback.
type FrameInfo struct {
	Frame uint64
	Stats FrameStats
}

// Scene owns a node tree and renders it through a Device. All methods must
// be called from one goroutine, except that loader completions may arrive on
// any goroutine.
type Scene struct {
	root     *Node
	table    StructTable
	device   Device
	loader   ResourceLoader
	tiles    *TileManager
	viewport *Viewport
	log      *zap.Logger
	diag     *diagnostics
	images   *imageRegistry
	fonts    *fontRegistry
	queue    loadQueue
	debug    bool

	cacheScales int

	frame          uint64
	bucket         float64
	lastBucket     float64
	contentVersion uint64
	needsFrame     bool
	stats          FrameStats
	lastStats      FrameStats
	lastTarget     Texture

	mergeJobs []mergeJob
	walkStack []frameState
	hitBuf    []*Node
	script    *ScriptRunner

	onFrameReady   func(FrameInfo)
	onFrameRequest func()
}

// NewScene creates a scene with an empty root group.
func NewScene(opts SceneOptions) *Scene {
	if opts.Device == nil {
		opts.Device = NewSoftDevice(0)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.CacheScales <= 0 {
		opts.CacheScales = DefaultCacheScales
	}
	s := &Scene{
		device:      opts.Device,
		loader:      opts.Loader,
		tiles:       opts.Tiles,
		viewport:    NewViewport(opts.Width, opts.Height, opts.PixelRatio),
		log:         opts.Logger,
		debug:       opts.Debug,
		cacheScales: opts.CacheScales,
		needsFrame:  true,
	}
	s.diag = newDiagnostics(opts.Logger, opts.Diagnostics)
	s.images = newImageRegistry(s)
	s.fonts = newFontRegistry(s)
	s.queue.wake = s.loadArrived
	s.viewport.onChange = s.wake

	s.root = NewGroup("root")
	setScene(s.root, s)
	s.table.Rebuild(s.root)
	return s
}

// Root returns the root group.
func (s *Scene) Root() *Node {
	return s.root
}

// Viewport returns the scene's viewport.
func (s *Scene) Viewport() *Viewport {
	return s.viewport
}

// Device returns the scene's device.
func (s *Scene) Device() Device {
	return s.device
}

// Table returns the struct table, rebuilding it first if it is stale.
func (s *Scene) Table() *StructTable {
	if s.table.stale {
		s.table.Rebuild(s.root)
	}
	return &s.table
}

// SetOnFrameReady registers a callback invoked once per completed frame.
func (s *Scene) SetOnFrameReady(fn func(FrameInfo)) {
	s.onFrameReady = fn
}

// SetOnFrameRequest registers a callback invoked when a new frame is needed.
// It may be called from a loader goroutine and must be registered before any
// load starts.
func (s *Scene) SetOnFrameRequest(fn func()) {
	s.onFrameRequest = fn
}

// NeedsFrame reports whether anything changed since the last frame.
func (s *Scene) NeedsFrame() bool {
	return s.needsFrame || s.queue.pending() || s.viewport.Animating()
}

// Stats returns the counters of the last completed frame.
func (s *Scene) Stats() FrameStats {
	return s.lastStats
}

// Frame returns the number of completed frames.
func (s *Scene) Frame() uint64 {
	return s.frame
}

// requestFrame records a content change and schedules a frame.
func (s *Scene) requestFrame() {
	s.contentVersion++
	s.wake()
}

// wake schedules a frame without a content change.
func (s *Scene) wake() {
	if s.needsFrame {
		return
	}
	s.needsFrame = true
	if s.onFrameRequest != nil {
		s.onFrameRequest()
	}
}

func (s *Scene) loadArrived() {
	if s.onFrameRequest != nil {
		s.onFrameRequest()
	}
}

// Update advances the attached script by one step and viewport animations
// by dt seconds.
func (s *Scene) Update(dt float32) {
	if s.script != nil {
		s.script.step(s)
	}
	s.viewport.Update(dt)
}

// RenderFrame renders the scene into dst, which should have the viewport's
// device size. Node-level problems are reported through diagnostics and
// never fail the frame.
func (s *Scene) RenderFrame(dst Texture) (FrameStats, error) {
	if dst == nil {
		return FrameStats{}, errors.New("quill: nil render target")
	}
	start := time.Now()
	s.stats = FrameStats{}

	s.drainLoads()
	if s.table.stale {
		s.table.Rebuild(s.root)
		s.debugCheckTable()
	}
	entries := s.table.entries

	bucket := s.viewport.ScaleBucket()
	s.bucket = bucket
	if bucket != s.lastBucket {
		s.invalidateDerived()
		s.lastBucket = bucket
	}

	var tiles []*Tile
	view := s.viewport.VisibleRect()
	if s.tiles.Enabled() {
		tiles = s.activeTiles(view, bucket)
		view = Rect{}
		for _, t := range tiles {
			view = view.Union(Rect{X: t.X, Y: t.Y, Width: t.Size, Height: t.Size})
		}
	}

	s.rasterPass(entries, bucket, view)
	s.runMergeList(s.buildMergeList(entries), bucket)

	s.device.Clear(dst)
	if s.tiles.Enabled() {
		s.drawTiles(dst, tiles)
	} else {
		w, h := dst.Size()
		cull := Rect{Width: float64(w), Height: float64(h)}
		s.compositeRange(dst, 0, len(entries), s.viewport.Matrix(), 1, -1, cull)
	}

	resetLevels(&s.table)
	s.frame++
	s.needsFrame = false
	s.lastTarget = dst
	s.stats.Duration = time.Since(start)
	s.lastStats = s.stats
	s.debugLog(s.stats)
	if s.onFrameReady != nil {
		s.onFrameReady(FrameInfo{Frame: s.frame, Stats: s.stats})
	}
	return s.stats, nil
}

// invalidateDerived drops every merged, masked and effect texture; they are
// regenerated at the new scale.
func (s *Scene) invalidateDerived() {
	for _, e := range s.table.entries {
		e.Node.merged.valid = false
		e.Node.masked.valid = false
		e.Node.effected.valid = false
	}
}

// activeTiles returns the tiles covering view at bucket.
func (s *Scene) activeTiles(view Rect, bucket float64) []*Tile {
	size := s.tiles.TileSize(bucket)
	if size <= 0 || view.Empty() {
		return nil
	}
	x := math.Floor(view.X/size) * size
	y := math.Floor(view.Y/size) * size
	nw := int(math.Ceil((view.X + view.Width - x) / size))
	nh := int(math.Ceil((view.Y + view.Height - y) / size))
	return s.tiles.ActiveTiles(s.root, bucket, x, y, nw, nh)
}

// drawTiles redraws tiles whose content is out of date and composites all
// of them onto dst.
func (s *Scene) drawTiles(dst Texture, tiles []*Tile) {
	unit := s.tiles.Unit
	view := s.viewport.Matrix()
	entries := s.table.entries
	for _, t := range tiles {
		if t.tex == nil {
			tex, err := s.device.NewTexture(unit, unit)
			if err != nil {
				s.diag.report(Diagnostic{Kind: DiagDevice, Node: s.root, Err: err})
				continue
			}
			t.tex = tex
		}
		k := float64(unit) / t.Size
		if !t.drawn || t.version != s.contentVersion {
			s.device.Clear(t.tex)
			toTile := Scale(k, k).Mul(Translate(-t.X, -t.Y))
			s.compositeRange(t.tex, 0, len(entries), toTile, 1, -1, Rect{Width: float64(unit), Height: float64(unit)})
			t.version = s.contentVersion
			t.drawn = true
		}
		s.device.Draw(dst, t.tex, DrawOptions{Matrix: view.Mul(Translate(t.X, t.Y)).Mul(Scale(1/k, 1/k)), Alpha: 1})
		s.stats.Draws++
		s.stats.TilesDrawn++
	}
}

// Close releases every texture the scene owns. The scene must not be used
// afterwards.
func (s *Scene) Close() {
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			walk(c)
		}
		s.releaseNode(n)
	}
	walk(s.root)
	for src, e := range s.images.entries {
		if e.tex != nil {
			s.device.Release(e.tex)
		}
		delete(s.images.entries, src)
	}
	s.tiles.Release(s.device)
}
