package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/e7canasta/posture-sensor/internal/alignment"
	"github.com/e7canasta/posture-sensor/internal/types"
)

const (
	// ConfidenceThreshold is the minimum detection score for a keypoint to
	// be rendered, as a dot or as an edge endpoint. The comparison is
	// strict: exactly 0.5 is not drawn. Keypoints below the threshold stay
	// in the pose; they are only invisible.
	ConfidenceThreshold = 0.5

	// KeypointRadius is the dot radius in pixels.
	KeypointRadius = 5

	// EdgeWidth is the skeleton line width in pixels.
	EdgeWidth = 2
)

var (
	// ColorAligned marks poses whose alignment verdict is true.
	ColorAligned = color.NRGBA{R: 0, G: 255, B: 0, A: 255}

	// ColorMisaligned marks poses whose alignment verdict is false.
	ColorMisaligned = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
)

// RenderPose draws one pose's keypoints and skeleton edges onto the canvas
// in the color chosen by its alignment verdict. Poses are independent:
// each carries its own verdict and color.
func RenderPose(c *Canvas, pose types.Pose) {
	col := ColorMisaligned
	if alignment.Evaluate(pose) {
		col = ColorAligned
	}

	for _, kp := range pose.Keypoints {
		if kp.Confidence > ConfidenceThreshold {
			c.FillCircle(kp.X, kp.Y, KeypointRadius, col)
		}
	}

	for _, edge := range Skeleton {
		a, okA := pose.Find(edge.A)
		b, okB := pose.Find(edge.B)
		if !okA || !okB {
			continue
		}
		if a.Confidence <= ConfidenceThreshold || b.Confidence <= ConfidenceThreshold {
			continue
		}
		c.Line(a.X, a.Y, b.X, b.Y, EdgeWidth, col)
	}
}

// FrameImage converts a raw RGB24 frame into an NRGBA image.
func FrameImage(frame types.Frame) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		src := y * frame.Width * 3
		dst := y * img.Stride
		for x := 0; x < frame.Width; x++ {
			img.Pix[dst] = frame.Data[src]
			img.Pix[dst+1] = frame.Data[src+1]
			img.Pix[dst+2] = frame.Data[src+2]
			img.Pix[dst+3] = 0xff
			src += 3
			dst += 4
		}
	}
	return img
}

// Composite lays the canvas over the video frame and returns the combined
// preview image. When the canvas is mirrored the frame is flipped
// horizontally first, so the overlay lands on the image the user sees.
func Composite(c *Canvas, frame types.Frame) *image.NRGBA {
	base := FrameImage(frame)
	if c.Mirrored() {
		base = imaging.FlipH(base)
	}
	draw.Draw(base, base.Bounds(), c.Image(), image.Point{}, draw.Over)
	return base
}
