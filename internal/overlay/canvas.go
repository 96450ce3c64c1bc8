// Package overlay renders pose keypoints and skeleton edges over video
// frames. The canvas is the loop's only cross-tick state: it is resized to
// the frame's dimensions and wiped every tick, and its mirror transform is
// scoped to a single tick so it never compounds.
package overlay

import (
	"image"
	"image/color"
	"math"
)

// Canvas is a transparent drawing surface positioned over the video frame.
//
// Not safe for concurrent use: the frame loop owns it exclusively and ticks
// never overlap.
type Canvas struct {
	img    *image.NRGBA
	mirror bool
}

// NewCanvas creates an empty canvas. It has no dimensions until the first
// Resize.
func NewCanvas() *Canvas {
	return &Canvas{img: image.NewNRGBA(image.Rect(0, 0, 0, 0))}
}

// Resize matches the canvas to the frame's pixel dimensions. Called every
// tick; reallocates only when the dimensions actually changed (e.g. device
// rotation or source reconfiguration).
func (c *Canvas) Resize(width, height int) {
	b := c.img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return
	}
	c.img = image.NewNRGBA(image.Rect(0, 0, width, height))
}

// SetMirror enables or disables the horizontal mirror transform. The loop
// enables it at the start of a tick and disables it at the end, so the
// transform never carries over between ticks.
func (c *Canvas) SetMirror(on bool) {
	c.mirror = on
}

// Mirrored reports whether the mirror transform is currently applied.
func (c *Canvas) Mirrored() bool {
	return c.mirror
}

// Clear wipes the entire canvas to transparent.
func (c *Canvas) Clear() {
	for i := range c.img.Pix {
		c.img.Pix[i] = 0
	}
}

// Size returns the current canvas dimensions.
func (c *Canvas) Size() (width, height int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image exposes the backing image for compositing.
func (c *Canvas) Image() *image.NRGBA {
	return c.img
}

// tx maps an x coordinate through the active transform.
func (c *Canvas) tx(x float64) float64 {
	if !c.mirror {
		return x
	}
	return float64(c.img.Bounds().Dx()-1) - x
}

// FillCircle draws a filled circle centred at (cx, cy) in frame
// coordinates, honouring the mirror transform.
func (c *Canvas) FillCircle(cx, cy float64, radius int, col color.NRGBA) {
	x0 := int(c.tx(cx) + 0.5)
	y0 := int(cy + 0.5)

	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				c.setPix(x0+dx, y0+dy, col)
			}
		}
	}
}

// Line draws a straight line of the given width between two points in
// frame coordinates, honouring the mirror transform.
func (c *Canvas) Line(x1, y1, x2, y2 float64, width int, col color.NRGBA) {
	ax, ay := c.tx(x1), y1
	bx, by := c.tx(x2), y2

	dx := bx - ax
	dy := by - ay
	length := math.Hypot(dx, dy)
	if length == 0 {
		c.stamp(int(ax+0.5), int(ay+0.5), width, col)
		return
	}

	steps := int(length) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.stamp(int(ax+dx*t+0.5), int(ay+dy*t+0.5), width, col)
	}
}

// stamp paints a width×width block centred on (x, y).
func (c *Canvas) stamp(x, y, width int, col color.NRGBA) {
	half := width / 2
	for dy := -half; dy < width-half; dy++ {
		for dx := -half; dx < width-half; dx++ {
			c.setPix(x+dx, y+dy, col)
		}
	}
}

func (c *Canvas) setPix(x, y int, col color.NRGBA) {
	if !(image.Point{x, y}).In(c.img.Bounds()) {
		return
	}
	c.img.SetNRGBA(x, y, col)
}
