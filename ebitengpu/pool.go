package ebitengpu

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// maxPooledPerSize bounds how many idle images of one size are kept.
const maxPooledPerSize = 4

// texturePool reuses offscreen images by exact size. Effect passes require
// source and destination of identical size, so images are never rounded up.
type texturePool struct {
	buckets map[uint64][]*ebiten.Image
	idle    int
}

func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// acquire returns a cleared image of exactly w x h pixels.
func (p *texturePool) acquire(w, h int) *ebiten.Image {
	key := poolKey(w, h)
	if stack := p.buckets[key]; len(stack) > 0 {
		img := stack[len(stack)-1]
		p.buckets[key] = stack[:len(stack)-1]
		p.idle--
		img.Clear()
		return img
	}
	return ebiten.NewImageWithOptions(image.Rect(0, 0, w, h), &ebiten.NewImageOptions{Unmanaged: true})
}

// release returns img for reuse. It is cleared on the next acquire.
func (p *texturePool) release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	key := poolKey(b.Dx(), b.Dy())
	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	if len(p.buckets[key]) >= maxPooledPerSize {
		img.Deallocate()
		return
	}
	p.buckets[key] = append(p.buckets[key], img)
	p.idle++
}

// drain deallocates every idle image.
func (p *texturePool) drain() {
	for key, stack := range p.buckets {
		for _, img := range stack {
			img.Deallocate()
		}
		delete(p.buckets, key)
	}
	p.idle = 0
}
