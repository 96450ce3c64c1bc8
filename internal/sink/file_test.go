package sink

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/e7canasta/posture-sensor/internal/types"
)

func testSurface() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), A: 255})
		}
	}
	return img
}

// TestFileSink_PresentReplaces validates that Present overwrites the
// preview file in place: the sink is a display, not a recording.
func TestFileSink_PresentReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.png")
	s, err := NewFileSink(path, 85)
	if err != nil {
		t.Fatalf("NewFileSink() failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.Present(context.Background(), testSurface(), types.FrameMeta{Seq: uint64(i)}); err != nil {
			t.Fatalf("Present(%d) failed: %v", i, err)
		}
	}

	if got := s.Presented(); got != 3 {
		t.Errorf("Presented() = %d, want 3", got)
	}

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("preview not readable: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Errorf("preview bounds = %v", b)
	}

	// Only the one preview file should exist, no temp leftovers.
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*"))
	if len(matches) != 1 {
		t.Errorf("preview dir contains %v, want only the preview", matches)
	}
}

// TestNewFileSink_FormatFromExtension validates format detection and the
// rejection of unsupported extensions.
func TestNewFileSink_FormatFromExtension(t *testing.T) {
	dir := t.TempDir()

	for _, ext := range []string{"jpg", "jpeg", "png", "webp"} {
		if _, err := NewFileSink(filepath.Join(dir, "p."+ext), 85); err != nil {
			t.Errorf("NewFileSink(.%s) failed: %v", ext, err)
		}
	}

	if _, err := NewFileSink(filepath.Join(dir, "p.gif"), 85); err == nil {
		t.Error("NewFileSink(.gif) succeeded, want error")
	}
	if _, err := NewFileSink("", 85); err == nil {
		t.Error("NewFileSink(\"\") succeeded, want error")
	}
}

// TestFileSink_CancelledContext validates that a cancelled tick does not
// touch the preview file.
func TestFileSink_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.jpg")
	s, _ := NewFileSink(path, 85)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Present(ctx, testSurface(), types.FrameMeta{}); err == nil {
		t.Error("Present() with cancelled context returned nil")
	}
}
