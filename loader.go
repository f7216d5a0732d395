package quill

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/font/sfnt"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"go.uber.org/zap"
)

// ResourceLoader fetches image and font sources. Implementations may call
// done from any goroutine, at most once per request.
type ResourceLoader interface {
	LoadImage(src string, done func(image.Image, error))
	LoadFont(src string, done func(*sfnt.Font, error))
}

// FileLoader loads sources from the local file system relative to Root,
// decoding on background goroutines. PNG, JPEG, GIF, BMP, TIFF and WebP
// images are supported; EXIF orientation is applied.
type FileLoader struct {
	Root string
	sem  chan struct{}
}

// NewFileLoader creates a loader rooted at root running at most workers
// decodes at once. workers <= 0 selects 4.
func NewFileLoader(root string, workers int) *FileLoader {
	if workers <= 0 {
		workers = 4
	}
	return &FileLoader{Root: root, sem: make(chan struct{}, workers)}
}

func (l *FileLoader) path(src string) string {
	if filepath.IsAbs(src) || l.Root == "" {
		return src
	}
	return filepath.Join(l.Root, src)
}

// LoadImage decodes src in the background.
func (l *FileLoader) LoadImage(src string, done func(image.Image, error)) {
	go func() {
		l.sem <- struct{}{}
		defer func() { <-l.sem }()
		img, err := imaging.Open(l.path(src), imaging.AutoOrientation(true))
		if err != nil {
			done(nil, fmt.Errorf("%w: %s: %w", ErrImageDecode, src, err))
			return
		}
		done(img, nil)
	}()
}

// LoadFont parses an OpenType or TrueType font in the background.
func (l *FileLoader) LoadFont(src string, done func(*sfnt.Font, error)) {
	go func() {
		l.sem <- struct{}{}
		defer func() { <-l.sem }()
		data, err := os.ReadFile(l.path(src))
		if err != nil {
			done(nil, fmt.Errorf("%w: %s: %w", ErrFontLoad, src, err))
			return
		}
		f, err := sfnt.Parse(data)
		if err != nil {
			done(nil, fmt.Errorf("%w: %s: %w", ErrFontLoad, src, err))
			return
		}
		done(f, nil)
	}()
}

// loadResult is a completed fetch waiting for the frame thread.
type loadResult struct {
	src   string
	image *imageEntry
	font  *fontEntry
	img   image.Image
	face  *sfnt.Font
	err   error
}

// loadQueue hands loader completions to the frame thread.
type loadQueue struct {
	mu    sync.Mutex
	items []loadResult
	wake  func()
}

func (q *loadQueue) push(r loadResult) {
	q.mu.Lock()
	q.items = append(q.items, r)
	wake := q.wake
	q.mu.Unlock()
	if wake != nil {
		wake()
	}
}

// take removes and returns all queued results.
func (q *loadQueue) take() []loadResult {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *loadQueue) pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) > 0
}

// imageEntry is one image source shared by every node that references it.
type imageEntry struct {
	src     string
	state   ImageState
	err     error
	pixels  *image.RGBA // premultiplied, clamped to the device limit
	tex     Texture     // fast-path upload, created on first use
	refs    int
	waiters []*Node
}

// imageRegistry deduplicates image fetches by source and reference counts
// the decoded pixels and shared textures.
type imageRegistry struct {
	scene   *Scene
	entries map[string]*imageEntry
}

func newImageRegistry(s *Scene) *imageRegistry {
	return &imageRegistry{scene: s, entries: make(map[string]*imageEntry)}
}

// acquire makes n reference exactly srcs. New references are taken before
// old ones are dropped so a source kept across the change is never freed.
func (r *imageRegistry) acquire(n *Node, srcs []string) {
	if slices.Equal(n.imgRefs, srcs) {
		return
	}
	for _, src := range srcs {
		if slices.Contains(n.imgRefs, src) {
			continue
		}
		r.ref(src)
	}
	for _, src := range n.imgRefs {
		if !slices.Contains(srcs, src) {
			r.release(src)
		}
	}
	n.imgRefs = slices.Clone(srcs)
}

func (r *imageRegistry) ref(src string) *imageEntry {
	e := r.entries[src]
	if e == nil {
		e = &imageEntry{src: src}
		r.entries[src] = e
	}
	e.refs++
	return e
}

// release drops one reference. The last release frees the entry; a load
// still in flight for it is ignored when it completes.
func (r *imageRegistry) release(src string) {
	e := r.entries[src]
	if e == nil {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	if e.tex != nil {
		r.scene.device.Release(e.tex)
	}
	delete(r.entries, src)
}

// dropNode releases every reference held by a disposed node.
func (r *imageRegistry) dropNode(n *Node) {
	for _, src := range n.imgRefs {
		if e := r.entries[src]; e != nil {
			e.waiters = slices.DeleteFunc(e.waiters, func(w *Node) bool { return w == n })
		}
		r.release(src)
	}
	n.imgRefs = nil
}

// lookup returns the entry for src, starting the fetch on first use and
// registering n to be repainted when it completes.
func (r *imageRegistry) lookup(n *Node, src string) *imageEntry {
	e := r.entries[src]
	if e == nil {
		return nil
	}
	switch e.state {
	case ImageIdle:
		e.state = ImageLoading
		e.waiters = append(e.waiters, n)
		r.fetch(e)
	case ImageLoading:
		if !slices.Contains(e.waiters, n) {
			e.waiters = append(e.waiters, n)
		}
	}
	return e
}

func (r *imageRegistry) fetch(e *imageEntry) {
	s := r.scene
	if s.loader == nil {
		s.queue.push(loadResult{src: e.src, image: e, err: fmt.Errorf("%w: %s: no resource loader", ErrImageDecode, e.src)})
		return
	}
	s.log.Debug("image load", zap.String("src", e.src))
	s.loader.LoadImage(e.src, func(img image.Image, err error) {
		s.queue.push(loadResult{src: e.src, image: e, img: img, err: err})
	})
}

// complete applies a finished image load on the frame thread.
func (r *imageRegistry) complete(res loadResult) {
	s := r.scene
	e := res.image
	if r.entries[res.src] != e {
		s.log.Debug("stale image load ignored", zap.String("src", res.src))
		return
	}
	if res.err == nil && res.img == nil {
		res.err = fmt.Errorf("%w: %s: empty image", ErrImageDecode, res.src)
	}
	if res.err != nil {
		e.state = ImageError
		e.err = res.err
	} else {
		e.state = ImageLoaded
		e.pixels = clampImage(res.img, s.device.MaxTextureSize())
	}
	waiters := e.waiters
	e.waiters = nil
	for _, n := range waiters {
		if n.disposed || !slices.Contains(n.imgRefs, res.src) {
			continue
		}
		s.RequestUpdate(n, LevelRepaint)
	}
}

// texture returns the shared upload of a loaded entry.
func (r *imageRegistry) texture(e *imageEntry) (Texture, error) {
	if e.tex != nil {
		return e.tex, nil
	}
	tex, err := r.scene.device.Upload(e.pixels)
	if err != nil {
		return nil, err
	}
	e.tex = tex
	r.scene.stats.Uploaded++
	return tex, nil
}

// clampImage converts img to premultiplied RGBA, scaling it down by aspect
// when either side exceeds limit.
func clampImage(img image.Image, limit int) *image.RGBA {
	b := img.Bounds()
	if limit > 0 && (b.Dx() > limit || b.Dy() > limit) {
		img = imaging.Fit(img, limit, limit, imaging.Linear)
		b = img.Bounds()
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if nrgba, ok := img.(*image.NRGBA); ok {
		premultiplyInto(dst, nrgba)
		return dst
	}
	nrgba := imaging.Clone(img)
	premultiplyInto(dst, nrgba)
	return dst
}

func premultiplyInto(dst *image.RGBA, src *image.NRGBA) {
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := dst.PixOffset(0, y)
		for x := 0; x < b.Dx(); x++ {
			a := uint32(src.Pix[si+3])
			dst.Pix[di] = uint8((uint32(src.Pix[si])*a + 127) / 255)
			dst.Pix[di+1] = uint8((uint32(src.Pix[si+1])*a + 127) / 255)
			dst.Pix[di+2] = uint8((uint32(src.Pix[si+2])*a + 127) / 255)
			dst.Pix[di+3] = uint8(a)
			si += 4
			di += 4
		}
	}
}

// fontEntry is one font source. Fonts are small and kept for the scene's
// lifetime.
type fontEntry struct {
	src     string
	state   ImageState
	font    *sfnt.Font
	err     error
	waiters []*Node
}

// fontRegistry deduplicates font fetches by source.
type fontRegistry struct {
	scene   *Scene
	entries map[string]*fontEntry
}

func newFontRegistry(s *Scene) *fontRegistry {
	return &fontRegistry{scene: s, entries: make(map[string]*fontEntry)}
}

// lookup returns the font for src, or nil while it is loading or failed.
func (r *fontRegistry) lookup(n *Node, src string) (*sfnt.Font, ImageState) {
	s := r.scene
	e := r.entries[src]
	if e == nil {
		e = &fontEntry{src: src, state: ImageLoading}
		r.entries[src] = e
		e.waiters = append(e.waiters, n)
		if s.loader == nil {
			s.queue.push(loadResult{src: src, font: e, err: fmt.Errorf("%w: %s: no resource loader", ErrFontLoad, src)})
		} else {
			s.log.Debug("font load", zap.String("src", src))
			s.loader.LoadFont(src, func(f *sfnt.Font, err error) {
				s.queue.push(loadResult{src: src, font: e, face: f, err: err})
			})
		}
		return nil, ImageLoading
	}
	if e.state == ImageLoading && !slices.Contains(e.waiters, n) {
		e.waiters = append(e.waiters, n)
	}
	return e.font, e.state
}

func (r *fontRegistry) complete(res loadResult) {
	e := res.font
	if r.entries[res.src] != e {
		return
	}
	if res.err == nil && res.face == nil {
		res.err = fmt.Errorf("%w: %s: empty font", ErrFontLoad, res.src)
	}
	if res.err != nil {
		e.state = ImageError
		e.err = res.err
	} else {
		e.state = ImageLoaded
		e.font = res.face
	}
	waiters := e.waiters
	e.waiters = nil
	for _, n := range waiters {
		if !n.disposed {
			r.scene.RequestUpdate(n, LevelRepaint)
		}
	}
}

func (r *fontRegistry) dropNode(n *Node) {
	for _, e := range r.entries {
		e.waiters = slices.DeleteFunc(e.waiters, func(w *Node) bool { return w == n })
	}
}

// drainLoads applies every completed load. It runs at the start of a frame.
func (s *Scene) drainLoads() {
	for _, res := range s.queue.take() {
		switch {
		case res.image != nil:
			s.images.complete(res)
		case res.font != nil:
			s.fonts.complete(res)
		}
	}
}
