package capture

import (
	"context"

	"github.com/e7canasta/posture-sensor/internal/types"
)

// StreamProvider defines the contract for video stream acquisition.
//
// Implementations must guarantee:
//   - Start() returns quickly; frames arrive asynchronously on Frames()
//   - Frames() channel stays open until Stop()
//   - Stop() is idempotent
//   - Stats() is safe to call from any goroutine
//
// Acquisition failures surfaced by Start() must be classified against the
// capture error taxonomy (ClassifyCaptureError) so the caller can show the
// matching banner message.
type StreamProvider interface {
	// Start initializes the stream. Frames begin arriving on Frames()
	// once the underlying pipeline is live.
	Start(ctx context.Context) error

	// Frames returns the channel of captured frames. Frames are dropped,
	// never queued, when the consumer falls behind.
	Frames() <-chan types.Frame

	// Stop gracefully shuts down the stream and closes Frames().
	// Idempotent.
	Stop() error

	// Stats returns a snapshot of stream statistics.
	Stats() types.StreamStats
}
