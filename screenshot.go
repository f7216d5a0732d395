package quill

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Snapshot reads back the last rendered frame as a straight-alpha image.
func (s *Scene) Snapshot() (*image.NRGBA, error) {
	if s.lastTarget == nil {
		return nil, errors.New("quill: no frame rendered yet")
	}
	pix, err := s.device.ReadPixels(s.lastTarget)
	if err != nil {
		return nil, fmt.Errorf("read pixels: %w", err)
	}
	return toNRGBA(pix), nil
}

// SaveSnapshot writes the last rendered frame to dir as a timestamped PNG and
// returns the file path.
func (s *Scene) SaveSnapshot(dir, label string) (string, error) {
	img, err := s.Snapshot()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	stamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
	if err := writePNG(path, img); err != nil {
		return "", err
	}
	s.log.Info("snapshot saved", zap.String("path", path), zap.Uint64("frame", s.frame))
	return path, nil
}

// toNRGBA converts premultiplied RGBA to straight alpha.
func toNRGBA(src *image.RGBA) *image.NRGBA {
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		so := src.PixOffset(b.Min.X, b.Min.Y+y)
		do := y * img.Stride
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, a := src.Pix[so], src.Pix[so+1], src.Pix[so+2], src.Pix[so+3]
			if a > 0 && a < 255 {
				r = uint8(min(int(r)*255/int(a), 255))
				g = uint8(min(int(g)*255/int(a), 255))
				bl = uint8(min(int(bl)*255/int(a), 255))
			}
			img.Pix[do], img.Pix[do+1], img.Pix[do+2], img.Pix[do+3] = r, g, bl, a
			so += 4
			do += 4
		}
	}
	return img
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
