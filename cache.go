package quill

import "math"

// ImageState is the load state of a bitmap node's image source.
type ImageState uint8

const (
	ImageIdle ImageState = iota
	ImageLoading
	ImageLoaded
	ImageError
)

var imageStateNames = [...]string{"idle", "loading", "loaded", "error"}

func (s ImageState) String() string {
	if int(s) < len(imageStateNames) {
		return imageStateNames[s]
	}
	return "unknown"
}

// DefaultCacheScales is how many scale buckets a node keeps rasterized.
const DefaultCacheScales = 2

// Scale bucket bounds.
const (
	minScaleBucket = 1.0 / 64
	maxScaleBucket = 64
)

// scaleBucket snaps a raw device scale to the next power of two, so zooming
// within one octave reuses the same rasters.
func scaleBucket(s float64) float64 {
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return 1
	}
	b := math.Exp2(math.Ceil(math.Log2(s) - 1e-9))
	return math.Min(math.Max(b, minScaleBucket), maxScaleBucket)
}

// rasterBucket returns the bucket n is rasterized at when the view is at
// viewBucket: the node's own world scale counts, so a node placed at 4x is
// not drawn from a quarter-resolution raster.
func (n *Node) rasterBucket(viewBucket float64) float64 {
	return scaleBucket(viewBucket * n.worldMatrix().ScaleFactor())
}

// rasterCache is a node's own paint at one scale bucket, uploaded as a
// texture. The texture covers bbox at scale pixels per unit;
// scale may be below the bucket when the device capacity forced halving.
// Image fast-path caches borrow the registry texture and map it onto the
// node rect through toLocal instead.
type rasterCache struct {
	bucket    float64
	scale     float64
	bbox      Rect
	toLocal   Affine
	texture   Texture
	shared    string // image source whose registry texture is borrowed
	available bool
	empty     bool
	lastUsed  uint64
}

// slot returns the cache as a drawable texture slot.
func (c *rasterCache) slot() textureSlot {
	if c == nil || !c.available || c.empty || c.texture == nil {
		return textureSlot{}
	}
	return textureSlot{tex: c.texture, bbox: c.bbox, scale: c.scale, toLocal: c.toLocal, bucket: c.bucket, valid: true}
}

// textureSlot is a derived texture of a node (merged subtree, mask result or
// effect output) in the node's local space. toLocal maps texture pixels to
// local coordinates; for regular slots the texture covers bbox at scale.
type textureSlot struct {
	tex     Texture
	bbox    Rect
	scale   float64
	toLocal Affine
	bucket  float64 // bucket the slot was produced for
	valid   bool
}

// current reports whether the slot is valid and was produced for bucket.
func (t *textureSlot) current(bucket float64) bool {
	return t.valid && t.bucket == bucket
}

// setSpace records that the slot covers bbox at scale.
func (t *textureSlot) setSpace(bbox Rect, scale float64) {
	t.bbox = bbox
	t.scale = scale
	t.toLocal = localSpace(bbox, scale)
}

// drawMatrix maps the slot's texture pixels through toDst, which maps the
// node's local space to the destination.
func (t *textureSlot) drawMatrix(toDst Affine) Affine {
	return toDst.Mul(t.toLocal)
}

// localSpace maps texture pixels of a bbox rendered at scale back to local
// coordinates.
func localSpace(bbox Rect, scale float64) Affine {
	return Translate(bbox.X, bbox.Y).Mul(Scale(1/scale, 1/scale))
}

// texSpace maps local coordinates inside bbox to texture pixels at scale.
func texSpace(bbox Rect, scale float64) Affine {
	return Scale(scale, scale).Mul(Translate(-bbox.X, -bbox.Y))
}

// texSize returns the pixel size of bbox at scale.
func texSize(bbox Rect, scale float64) (w, h int) {
	return int(math.Ceil(bbox.Width*scale - 1e-9)), int(math.Ceil(bbox.Height*scale - 1e-9))
}

// fitScale halves scale until bbox fits inside limit pixels on both axes.
// Halving stops at 1; ok is false when bbox does not fit even then.
func fitScale(bbox Rect, scale float64, limit int) (float64, bool) {
	for {
		w, h := texSize(bbox, scale)
		if w <= limit && h <= limit {
			return scale, true
		}
		if scale <= 1 {
			return scale, false
		}
		scale = math.Max(scale/2, 1)
	}
}

// cacheAt returns n's raster cache for bucket, creating an empty one.
func (s *Scene) cacheAt(n *Node, bucket float64) *rasterCache {
	if n.caches == nil {
		n.caches = make(map[float64]*rasterCache, 1)
	}
	c := n.caches[bucket]
	if c == nil {
		c = &rasterCache{bucket: bucket}
		n.caches[bucket] = c
	}
	c.lastUsed = s.frame
	if len(n.caches) > s.cacheScales {
		s.evictScales(n, bucket)
	}
	return c
}

// evictScales drops the least recently used caches of n beyond the
// configured number of buckets. The current bucket is always kept.
func (s *Scene) evictScales(n *Node, keep float64) {
	for len(n.caches) > s.cacheScales {
		var victim *rasterCache
		for b, c := range n.caches {
			if b == keep {
				continue
			}
			if victim == nil || c.lastUsed < victim.lastUsed ||
				(c.lastUsed == victim.lastUsed && math.Abs(c.bucket-keep) > math.Abs(victim.bucket-keep)) {
				victim = c
			}
		}
		if victim == nil {
			return
		}
		s.releaseCache(victim)
		delete(n.caches, victim.bucket)
	}
}

// releaseCache frees a raster cache's texture. Borrowed image textures are
// owned by the image registry and only dropped here.
func (s *Scene) releaseCache(c *rasterCache) {
	if c.texture != nil && c.shared == "" {
		s.device.Release(c.texture)
	}
	c.texture = nil
	c.shared = ""
	c.available = false
}

// releaseSlot frees a derived texture.
func (s *Scene) releaseSlot(t *textureSlot) {
	if t.tex != nil {
		s.device.Release(t.tex)
	}
	*t = textureSlot{}
}

// prepareSlot makes t hold a cleared w x h texture, reusing the current one
// when the size matches.
func (s *Scene) prepareSlot(t *textureSlot, w, h int) error {
	if t.tex != nil {
		if tw, th := t.tex.Size(); tw == w && th == h {
			s.device.Clear(t.tex)
			return nil
		}
		s.device.Release(t.tex)
		t.tex = nil
	}
	tex, err := s.device.NewTexture(w, h)
	if err != nil {
		t.valid = false
		return err
	}
	t.tex = tex
	return nil
}

// releaseNode frees everything a node owns: raster caches, derived
// textures and image references.
func (s *Scene) releaseNode(n *Node) {
	for b, c := range n.caches {
		s.releaseCache(c)
		delete(n.caches, b)
	}
	s.releaseSlot(&n.merged)
	s.releaseSlot(&n.masked)
	s.releaseSlot(&n.effected)
	s.images.dropNode(n)
	s.fonts.dropNode(n)
	s.diag.forget(n)
	if s.tiles.Enabled() {
		s.tiles.ReleasePage(n, s.device)
	}
}
