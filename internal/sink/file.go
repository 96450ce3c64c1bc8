package sink

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/e7canasta/posture-sensor/internal/types"
)

// FileSink atomically rewrites a single preview file with the latest
// surface. The file is the display: external viewers poll it, nothing is
// accumulated.
type FileSink struct {
	path    string
	format  string
	quality int

	presented uint64
}

// NewFileSink creates a file preview sink. Format is derived from the path
// extension: .jpg/.jpeg, .png or .webp.
func NewFileSink(path string, quality int) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("preview path is required")
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch format {
	case "jpg", "jpeg", "png", "webp":
	default:
		return nil, fmt.Errorf("unsupported preview format %q (want jpg, png or webp)", format)
	}

	return &FileSink{path: path, format: format, quality: quality}, nil
}

// Present encodes the surface and atomically replaces the preview file.
func (s *FileSink) Present(ctx context.Context, img image.Image, meta types.FrameMeta) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".preview-*")
	if err != nil {
		return fmt.Errorf("failed to create preview temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := s.encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finish preview write: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to publish preview: %w", err)
	}

	atomic.AddUint64(&s.presented, 1)
	return nil
}

func (s *FileSink) encode(f *os.File, img image.Image) error {
	switch s.format {
	case "jpg", "jpeg":
		return imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(s.quality))
	case "png":
		return imaging.Encode(f, img, imaging.PNG)
	case "webp":
		return webp.Encode(f, img, &webp.Options{Quality: float32(s.quality)})
	default:
		return fmt.Errorf("unsupported format %q", s.format)
	}
}

// Presented returns the number of surfaces written.
func (s *FileSink) Presented() uint64 {
	return atomic.LoadUint64(&s.presented)
}

// Close is a no-op for the file sink; the last preview stays in place.
func (s *FileSink) Close() error {
	return nil
}
