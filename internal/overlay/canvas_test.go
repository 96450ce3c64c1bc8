package overlay

import (
	"image/color"
	"testing"

	"github.com/e7canasta/posture-sensor/internal/types"
)

var testColor = color.NRGBA{R: 1, G: 2, B: 3, A: 255}

// TestCanvas_ResizeMatchesFrame validates per-tick resizing: the canvas
// always matches the current frame dimensions, including after a change.
func TestCanvas_ResizeMatchesFrame(t *testing.T) {
	c := NewCanvas()

	c.Resize(640, 480)
	if w, h := c.Size(); w != 640 || h != 480 {
		t.Fatalf("Size() = %dx%d, want 640x480", w, h)
	}

	// Device rotation: dimensions swap.
	c.Resize(480, 640)
	if w, h := c.Size(); w != 480 || h != 640 {
		t.Fatalf("Size() after rotation = %dx%d, want 480x640", w, h)
	}
}

// TestCanvas_ClearWipesEverything validates the full wipe at the start of
// each tick's draw phase.
func TestCanvas_ClearWipesEverything(t *testing.T) {
	c := NewCanvas()
	c.Resize(64, 64)
	c.FillCircle(32, 32, 5, testColor)

	c.Clear()

	img := c.Image()
	for i, px := range img.Pix {
		if px != 0 {
			t.Fatalf("pixel byte %d not cleared", i)
		}
	}
}

// TestCanvas_MirrorTransform validates the horizontal mirror: a point at
// x draws at width-1-x, and only while the transform is active.
func TestCanvas_MirrorTransform(t *testing.T) {
	c := NewCanvas()
	c.Resize(100, 20)

	c.SetMirror(true)
	c.FillCircle(10, 10, 1, testColor)

	if got := c.Image().NRGBAAt(89, 10); got != testColor {
		t.Errorf("mirrored draw missing at (89,10): got %v", got)
	}
	if got := c.Image().NRGBAAt(10, 10); got == testColor {
		t.Error("mirrored draw also landed at unmirrored position")
	}
}

// TestCanvas_MirrorDoesNotCompound validates the tick discipline: enabling
// and disabling the transform each tick leaves later ticks unmirrored.
func TestCanvas_MirrorDoesNotCompound(t *testing.T) {
	c := NewCanvas()
	c.Resize(100, 20)

	// Tick 1: mirror on, draw, mirror off.
	c.SetMirror(true)
	c.Clear()
	c.FillCircle(10, 10, 1, testColor)
	c.SetMirror(false)

	// Tick 2: no mirror requested.
	c.Clear()
	c.FillCircle(10, 10, 1, testColor)

	if got := c.Image().NRGBAAt(10, 10); got != testColor {
		t.Error("unmirrored draw missing after a mirrored tick")
	}
	if got := c.Image().NRGBAAt(89, 10); got == testColor {
		t.Error("mirror transform leaked into the next tick")
	}
}

// TestCanvas_DrawsClipToBounds validates that out-of-bounds drawing is
// clipped, not panicking, for keypoints near frame edges.
func TestCanvas_DrawsClipToBounds(t *testing.T) {
	c := NewCanvas()
	c.Resize(32, 32)

	c.FillCircle(0, 0, 5, testColor)
	c.FillCircle(31, 31, 5, testColor)
	c.Line(-10, -10, 50, 50, 2, testColor)
}

// TestFrameImage_RGBConversion validates the RGB24→NRGBA conversion used
// for compositing.
func TestFrameImage_RGBConversion(t *testing.T) {
	frame := types.Frame{
		Width:  2,
		Height: 1,
		Data:   []byte{10, 20, 30, 40, 50, 60},
	}

	img := FrameImage(frame)
	want0 := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
	want1 := color.NRGBA{R: 40, G: 50, B: 60, A: 255}
	if got := img.NRGBAAt(0, 0); got != want0 {
		t.Errorf("pixel (0,0) = %v, want %v", got, want0)
	}
	if got := img.NRGBAAt(1, 0); got != want1 {
		t.Errorf("pixel (1,0) = %v, want %v", got, want1)
	}
}

// TestComposite_MirroredFrame validates that compositing flips the video
// when the canvas is mirrored, so overlay and video agree.
func TestComposite_MirroredFrame(t *testing.T) {
	// Left pixel red, right pixel blue.
	frame := types.Frame{
		Width:  2,
		Height: 1,
		Data:   []byte{255, 0, 0, 0, 0, 255},
	}

	c := NewCanvas()
	c.Resize(2, 1)
	c.SetMirror(true)

	out := Composite(c, frame)
	if got := out.NRGBAAt(0, 0); got.B != 255 {
		t.Errorf("mirrored composite: pixel (0,0) = %v, want blue", got)
	}
	if got := out.NRGBAAt(1, 0); got.R != 255 {
		t.Errorf("mirrored composite: pixel (1,0) = %v, want red", got)
	}
}

// TestRenderBanner validates the banner surface renders at the requested
// size with visible text pixels.
func TestRenderBanner(t *testing.T) {
	img := RenderBanner(320, 240, "No camera device found.", "Send SIGHUP to retry.")

	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Fatalf("banner bounds = %v", b)
	}

	var textPixels int
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			px := img.NRGBAAt(x, y)
			if px != bannerBackground && px.A != 0 {
				textPixels++
			}
		}
	}
	if textPixels == 0 {
		t.Error("banner has no text pixels")
	}
}
