// Package estimator defines the boundary to the external pose-estimation
// model. The model is a black box: it receives a video frame and returns
// zero or more poses, each an ordered set of named keypoints with
// confidence scores. Nothing in this package interprets the poses.
package estimator

import (
	"context"
	"errors"
	"time"

	"github.com/e7canasta/posture-sensor/internal/types"
)

// ErrModelLoad indicates the pose model could not be loaded. It is its own
// error class because the user-facing banner distinguishes model-loading
// failures from camera failures.
var ErrModelLoad = errors.New("failed to load pose model")

// ErrWorker indicates the pose worker failed after a successful load: it
// exited, stopped answering, or reported an inference error. Kept distinct
// from the capture taxonomy so the banner does not blame the camera.
var ErrWorker = errors.New("pose worker failure")

// Estimator runs pose estimation on video frames.
//
// Estimate is synchronous from the caller's point of view: the frame loop
// awaits each call before drawing, and never issues overlapping calls.
// Implementations may assume sequential use.
type Estimator interface {
	// Load prepares the model. Must be called before Estimate.
	Load(ctx context.Context) error

	// Estimate runs inference on one frame and returns the detected poses.
	// Poses are freshly allocated per call; the caller owns them.
	Estimate(ctx context.Context, frame types.Frame) ([]types.Pose, error)

	// Close releases the model and any worker process.
	Close() error
}

// Metrics contains health metrics for an estimator.
type Metrics struct {
	Estimates    uint64
	Errors       uint64
	AvgLatencyMS float64
	LastSeenAt   time.Time
}
