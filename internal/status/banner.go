// Package status owns the user-facing error banner: a fixed message per
// failure condition and a manual retry latch. Errors are terminal for the
// current run; nothing here retries automatically.
package status

import (
	"errors"
	"sync"
	"time"

	"github.com/e7canasta/posture-sensor/internal/capture"
	"github.com/e7canasta/posture-sensor/internal/estimator"
)

// Fixed banner messages, mapped 1:1 from the failure taxonomy.
const (
	MsgPermissionDenied = "Camera access denied. Enable camera access and retry."
	MsgPermissionQuery  = "Unable to check camera permissions."
	MsgNoDevice         = "No camera device found."
	MsgAborted          = "Camera acquisition was aborted."
	MsgDeviceUnreadable = "Camera is in use or cannot be read."
	MsgConstraints      = "Camera does not support the requested capture settings."
	MsgSecurity         = "Camera access is blocked by security policy."
	MsgCameraGeneric    = "Unable to access the camera."
	MsgModelLoad        = "Failed to load the pose model."
	MsgEstimation       = "Pose estimation stopped working."

	// RetryHint accompanies every banner; retry is the only recovery path.
	RetryHint = "Send SIGHUP to postured to retry."
)

// MessageFor maps a failure onto its fixed banner message. Unclassified
// errors get the generic camera message.
func MessageFor(err error) string {
	switch {
	case errors.Is(err, capture.ErrPermissionDenied):
		return MsgPermissionDenied
	case errors.Is(err, capture.ErrPermissionQuery):
		return MsgPermissionQuery
	case errors.Is(err, capture.ErrNoDevice):
		return MsgNoDevice
	case errors.Is(err, capture.ErrAborted):
		return MsgAborted
	case errors.Is(err, capture.ErrDeviceUnreadable):
		return MsgDeviceUnreadable
	case errors.Is(err, capture.ErrConstraints):
		return MsgConstraints
	case errors.Is(err, capture.ErrSecurity):
		return MsgSecurity
	case errors.Is(err, estimator.ErrModelLoad):
		return MsgModelLoad
	case errors.Is(err, estimator.ErrWorker):
		return MsgEstimation
	default:
		return MsgCameraGeneric
	}
}

// Banner is the error surface state. While active, the pipeline is halted
// and the preview shows the message instead of video.
type Banner struct {
	mu      sync.RWMutex
	active  bool
	message string
	cause   error
	shownAt time.Time
}

// NewBanner creates an inactive banner.
func NewBanner() *Banner {
	return &Banner{}
}

// Show activates the banner for the given failure.
func (b *Banner) Show(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = true
	b.message = MessageFor(err)
	b.cause = err
	b.shownAt = time.Now()
}

// Clear deactivates the banner. Called by the retry path before the
// initialization sequence re-runs.
func (b *Banner) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = false
	b.message = ""
	b.cause = nil
}

// Active reports whether an error banner is currently shown.
func (b *Banner) Active() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

// Message returns the displayed message, or "" when inactive.
func (b *Banner) Message() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.message
}

// Cause returns the underlying failure, or nil when inactive.
func (b *Banner) Cause() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cause
}
