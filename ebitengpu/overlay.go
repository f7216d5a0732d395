package ebitengpu

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/quill"
)

// statsRefresh is how often the overlay text is redrawn, in seconds.
const statsRefresh = 0.5

// statsOverlay shows FPS, TPS and the last frame's stats in the top-left
// corner of the window.
type statsOverlay struct {
	img     *ebiten.Image
	elapsed float64
}

func newStatsOverlay() *statsOverlay {
	// Enough for five lines of ebitenutil's debug font.
	return &statsOverlay{img: ebiten.NewImage(200, 84), elapsed: statsRefresh}
}

// update redraws the text at most every statsRefresh seconds.
func (o *statsOverlay) update(dt float64, st quill.FrameStats, frame uint64) {
	o.elapsed += dt
	if o.elapsed < statsRefresh {
		return
	}
	o.elapsed = 0

	o.img.Clear()
	// Semi-transparent background for readability
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, formatStats(ebiten.ActualFPS(), ebiten.ActualTPS(), st, frame))
}

func (o *statsOverlay) draw(screen *ebiten.Image) {
	screen.DrawImage(o.img, nil)
}

func formatStats(fps, tps float64, st quill.FrameStats, frame uint64) string {
	return fmt.Sprintf("FPS: %.1f  TPS: %.1f\nframe %d  %s\nraster %d  upload %d\nmerge %d  passes %d\ndraws %d  tiles %d",
		fps, tps, frame, st.Duration.Round(10*time.Microsecond),
		st.Rasterized, st.Uploaded, st.Merged, st.EffectPasses, st.Draws, st.TilesDrawn)
}
