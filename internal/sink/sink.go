// Package sink delivers the composited preview surface (video + overlay,
// or the error banner) to the user. Only pixels leave the pipeline: pose
// data is never recorded or exported.
package sink

import (
	"context"
	"image"

	"github.com/e7canasta/posture-sensor/internal/types"
)

// PreviewSink presents the latest rendered surface.
//
// Present replaces the previous surface; sinks keep no history. Called once
// per rendered tick, always from the frame loop goroutine.
type PreviewSink interface {
	Present(ctx context.Context, img image.Image, meta types.FrameMeta) error
	Close() error
}
