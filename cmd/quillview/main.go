// Command quillview renders a demo document interactively or headless.
//
//	quillview                      open a window; wheel zooms, middle drag pans, click picks, S saves a snapshot
//	quillview -snapshot out/       render one frame with the software device and write a PNG
//	quillview -script tour.json    run a viewer script headless, writing its snapshots
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"

	"github.com/phanxgames/quill"
	"github.com/phanxgames/quill/ebitengpu"
	"github.com/phanxgames/quill/internal/config"
	"github.com/phanxgames/quill/internal/logger"
)

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	image := flag.String("image", "", "Image source for the demo bitmap, relative to the asset root")
	flag.Parse()

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quillview: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "quillview: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	font, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		logger.Fatal("parse built-in font", zap.Error(err))
	}

	if cfg.Viewer.Script != "" {
		if err := runScript(cfg, font, *image); err != nil {
			logger.Fatal("script", zap.Error(err))
		}
		return
	}
	if dir := flags.SnapshotDir(); dir != "" {
		if err := snapshot(cfg, font, *image, dir); err != nil {
			logger.Fatal("snapshot", zap.Error(err))
		}
		return
	}
	if err := run(cfg, font, *image); err != nil {
		logger.Fatal("viewer", zap.Error(err))
	}
}

func sceneOptions(cfg *config.Config, device quill.Device) quill.SceneOptions {
	opts := cfg.SceneOptions()
	opts.Device = device
	opts.Logger = logger.Named("scene")
	return opts
}

// snapshot renders headless until pending images arrive, then writes the
// frame.
func snapshot(cfg *config.Config, font *sfnt.Font, image, dir string) error {
	device := quill.NewSoftDevice(cfg.Render.MaxTextureSize)
	defer device.Close()

	scene := quill.NewScene(sceneOptions(cfg, device))
	defer scene.Close()
	wake := make(chan struct{}, 1)
	scene.SetOnFrameRequest(func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	buildDemo(scene.Root(), font, image)

	w, h := scene.Viewport().DeviceSize()
	target, err := device.NewTexture(w, h)
	if err != nil {
		return fmt.Errorf("frame target: %w", err)
	}
	defer device.Release(target)

	deadline := time.After(10 * time.Second)
	for {
		stats, err := scene.RenderFrame(target)
		if err != nil {
			return err
		}
		logger.Info("frame rendered",
			zap.Int("rasterized", stats.Rasterized),
			zap.Int("draws", stats.Draws),
			zap.Duration("duration", stats.Duration))
		if !loading(scene.Root()) && !scene.NeedsFrame() {
			break
		}
		select {
		case <-wake:
		case <-deadline:
			logger.Warn("resources still loading, writing partial frame")
			goto save
		}
	}
save:
	path, err := scene.SaveSnapshot(dir, "quillview")
	if err != nil {
		return err
	}
	logger.Info("snapshot written", zap.String("path", path))
	return nil
}

// runScript drives a viewer script with the software device until it ends.
func runScript(cfg *config.Config, font *sfnt.Font, image string) error {
	data, err := os.ReadFile(cfg.Viewer.Script)
	if err != nil {
		return err
	}
	runner, err := quill.LoadScript(data)
	if err != nil {
		return err
	}
	runner.SetSnapshotDir(cfg.Viewer.SnapshotDir)

	device := quill.NewSoftDevice(cfg.Render.MaxTextureSize)
	defer device.Close()
	scene := quill.NewScene(sceneOptions(cfg, device))
	defer scene.Close()
	buildDemo(scene.Root(), font, image)

	w, h := scene.Viewport().DeviceSize()
	target, err := device.NewTexture(w, h)
	if err != nil {
		return fmt.Errorf("frame target: %w", err)
	}
	defer device.Release(target)

	scene.SetScriptRunner(runner)
	const dt = float32(1) / 60
	for !runner.Done() {
		scene.Update(dt)
		if _, err := scene.RenderFrame(target); err != nil {
			return err
		}
	}
	logger.Info("script finished",
		zap.Uint64("frames", scene.Frame()),
		zap.Strings("snapshots", runner.Snapshots()),
		zap.Strings("picks", runner.Picks()))
	return runner.Err()
}

// loading reports whether any node below n waits for an image.
func loading(n *quill.Node) bool {
	if n.ImageState() == quill.ImageLoading {
		return true
	}
	for _, c := range n.Children() {
		if loading(c) {
			return true
		}
	}
	return false
}

func run(cfg *config.Config, font *sfnt.Font, image string) error {
	device, err := ebitengpu.NewDevice(cfg.Render.MaxTextureSize)
	if err != nil {
		return err
	}
	defer device.Close()

	scene := quill.NewScene(sceneOptions(cfg, device))
	defer scene.Close()
	scene.SetOnFrameReady(func(info quill.FrameInfo) {
		ebiten.SetWindowTitle(fmt.Sprintf("%s  frame %d  %.1f ms",
			cfg.Viewer.Title, info.Frame, float64(info.Stats.Duration.Microseconds())/1000))
	})
	buildDemo(scene.Root(), font, image)

	return ebitengpu.Run(scene, device, ebitengpu.RunConfig{
		Title:        cfg.Viewer.Title,
		Width:        cfg.Viewer.Width,
		Height:       cfg.Viewer.Height,
		ZoomDuration: float32(cfg.Viewer.ZoomDuration.Seconds()),
		ShowStats:    cfg.Viewer.ShowStats,
		Logger:       logger.Named("viewer"),
		OnPick: func(n *quill.Node) {
			if n == nil {
				logger.Info("picked nothing")
				return
			}
			logger.Info("picked", zap.String("node", n.Name), zap.Uint32("id", n.ID))
		},
		OnUpdate: func() error {
			if inpututil.IsKeyJustPressed(ebiten.KeyS) {
				path, err := scene.SaveSnapshot(cfg.Viewer.SnapshotDir, "view")
				if err != nil {
					logger.Error("save snapshot", zap.Error(err))
					return nil
				}
				logger.Info("snapshot saved", zap.String("path", path))
			}
			return nil
		},
	})
}
