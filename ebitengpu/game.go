package ebitengpu

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/phanxgames/quill"
)

// RunConfig configures Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// ZoomDuration is the length in seconds of animated zoom steps.
	ZoomDuration float32
	// OnUpdate runs once per tick before the scene is updated.
	OnUpdate func() error
	// OnPick receives the node under a left click, or nil on a miss.
	OnPick func(*quill.Node)
	// ShowStats draws an FPS and frame stats overlay; F3 toggles it.
	ShowStats bool
	Logger    *zap.Logger
}

// Game adapts a quill.Scene to ebiten.Game. Frames are rendered into an
// offscreen target only when the scene needs one; every Draw blits the
// latest frame to the screen.
type Game struct {
	Scene  *quill.Scene
	Device *Device
	cfg    RunConfig

	frame      quill.Texture
	frameDirty bool
	overlay    *statsOverlay
	dragging   bool
	lastX      int
	lastY      int
}

// NewGame wires scene and device into a game. The scene must have been
// created with device.
func NewGame(scene *quill.Scene, device *Device, cfg RunConfig) *Game {
	if cfg.ZoomDuration <= 0 {
		cfg.ZoomDuration = 0.25
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Game{Scene: scene, Device: device, cfg: cfg, overlay: newStatsOverlay()}
}

// Run opens a window and runs scene until it is closed.
func Run(scene *quill.Scene, device *Device, cfg RunConfig) error {
	g := NewGame(scene, device, cfg)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	// Redraws are driven by the scene; the screen keeps the last blit.
	ebiten.SetScreenClearedEveryFrame(false)
	return ebiten.RunGame(g)
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.cfg.OnUpdate != nil {
		if err := g.cfg.OnUpdate(); err != nil {
			return err
		}
	}
	dt := 1 / float64(ebiten.TPS())
	g.navigate()
	g.pick()
	g.Scene.Update(float32(dt))

	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.cfg.ShowStats = !g.cfg.ShowStats
	}
	if g.cfg.ShowStats {
		g.overlay.update(dt, g.Scene.Stats(), g.Scene.Frame())
	}
	return nil
}

// pick hit tests a plain left click. Space+left is a pan and never picks.
func (g *Game) pick() {
	if g.cfg.OnPick == nil || ebiten.IsKeyPressed(ebiten.KeySpace) {
		return
	}
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	v := g.Scene.Viewport()
	mx, my := ebiten.CursorPosition()
	g.cfg.OnPick(g.Scene.HitTest(float64(mx)/v.PixelRatio, float64(my)/v.PixelRatio))
}

// navigate maps wheel, drag and keys onto the viewport: the wheel zooms at
// the cursor, middle drag or space+left drag pans, 0 resets and +/- step.
func (g *Game) navigate() {
	v := g.Scene.Viewport()
	mx, my := ebiten.CursorPosition()
	sx, sy := float64(mx)/v.PixelRatio, float64(my)/v.PixelRatio

	if _, wy := ebiten.Wheel(); wy != 0 {
		v.ZoomAt(sx, sy, math.Pow(1.1, wy))
	}

	pan := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle) ||
		(ebiten.IsKeyPressed(ebiten.KeySpace) && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
	if pan {
		if g.dragging {
			v.PanBy(float64(mx-g.lastX)/v.PixelRatio, float64(my-g.lastY)/v.PixelRatio)
		}
		g.lastX, g.lastY = mx, my
	}
	g.dragging = pan

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit0):
		v.ZoomTo(1, g.cfg.ZoomDuration, nil)
		v.PanTo(0, 0, g.cfg.ZoomDuration, nil)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		v.ZoomTo(v.Zoom*2, g.cfg.ZoomDuration, nil)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		v.ZoomTo(v.Zoom/2, g.cfg.ZoomDuration, nil)
	}
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	w, h := g.Scene.Viewport().DeviceSize()
	if w <= 0 || h <= 0 {
		return
	}
	if g.frame != nil {
		if fw, fh := g.frame.Size(); fw != w || fh != h {
			g.Device.Release(g.frame)
			g.frame = nil
		}
	}
	if g.frame == nil {
		tex, err := g.Device.NewTexture(w, h)
		if err != nil {
			g.cfg.Logger.Error("frame target", zap.Int("width", w), zap.Int("height", h), zap.Error(err))
			return
		}
		g.frame = tex
		g.frameDirty = true
	}
	if g.frameDirty || g.Scene.NeedsFrame() {
		if _, err := g.Scene.RenderFrame(g.frame); err != nil {
			g.cfg.Logger.Error("render frame", zap.Error(err))
			return
		}
		g.frameDirty = false
	}
	screen.Clear()
	screen.DrawImage(Image(g.frame), nil)
	if g.cfg.ShowStats {
		g.overlay.draw(screen)
	}
}

// Layout implements ebiten.Game. The viewport follows the window in logical
// pixels and the screen is sized in device pixels.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	v := g.Scene.Viewport()
	v.SetSize(float64(outsideWidth), float64(outsideHeight))
	return v.DeviceSize()
}

// Close releases the frame target.
func (g *Game) Close() {
	if g.frame != nil {
		g.Device.Release(g.frame)
		g.frame = nil
	}
}
