package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	bannerBackground = color.NRGBA{R: 0, G: 0, B: 0, A: 230}
	bannerText       = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	bannerAccent     = color.NRGBA{R: 255, G: 80, B: 80, A: 255}
)

// RenderBanner produces the error banner surface shown instead of the
// video preview: the failure message plus the retry hint. Dimensions match
// the configured capture resolution so the preview file keeps its size.
func RenderBanner(width, height int, message, retryHint string) *image.NRGBA {
	if width < 64 {
		width = 64
	}
	if height < 48 {
		height = 48
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bannerBackground), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawCentered(img, face, message, height/2-face.Height, bannerAccent)
	if retryHint != "" {
		drawCentered(img, face, retryHint, height/2+face.Height, bannerText)
	}
	return img
}

func drawCentered(img *image.NRGBA, face *basicfont.Face, text string, y int, col color.NRGBA) {
	width := img.Bounds().Dx()
	textWidth := font.MeasureString(face, text).Ceil()
	x := (width - textWidth) / 2
	if x < 4 {
		x = 4
	}

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
