package capture

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors for camera acquisition failures. Each maps 1:1 to a fixed
// user-facing banner message (see internal/status). Anything that cannot be
// classified falls back to ErrCamera.
var (
	// ErrPermissionDenied indicates camera access was explicitly refused.
	ErrPermissionDenied = errors.New("camera permission denied")

	// ErrPermissionQuery indicates the permission check itself failed,
	// before any grant/deny decision could be made.
	ErrPermissionQuery = errors.New("camera permission check failed")

	// ErrNoDevice indicates no camera device is present.
	ErrNoDevice = errors.New("no camera device found")

	// ErrAborted indicates acquisition was aborted before completing.
	ErrAborted = errors.New("camera acquisition aborted")

	// ErrDeviceUnreadable indicates the device exists but cannot deliver
	// frames (busy, hardware fault, driver I/O error).
	ErrDeviceUnreadable = errors.New("camera device unreadable")

	// ErrConstraints indicates the requested capture settings (resolution,
	// framerate, format) cannot be satisfied by the device.
	ErrConstraints = errors.New("camera constraints unsatisfiable")

	// ErrSecurity indicates a security policy rejected camera access
	// (sandbox, MAC policy, locked-down device).
	ErrSecurity = errors.New("camera blocked by security policy")

	// ErrCamera is the generic fallback for unclassified capture failures.
	ErrCamera = errors.New("camera error")
)

// ClassifyCaptureError maps an arbitrary acquisition error onto the capture
// error taxonomy. Already-classified errors pass through unchanged; context
// cancellation maps to ErrAborted; everything else is classified by message
// keywords, defaulting to ErrCamera.
//
// Keyword matching mirrors how pipeline errors surface from GStreamer and
// the V4L2 driver, where no structured error codes are available.
func ClassifyCaptureError(err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		ErrPermissionDenied, ErrNoDevice, ErrAborted,
		ErrDeviceUnreadable, ErrConstraints, ErrSecurity, ErrCamera,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrAborted
	}

	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "permission denied", "not allowed", "access denied", "operation not permitted"):
		return ErrPermissionDenied
	case containsAny(msg, "no such device", "no such file", "not found", "no cameras", "device removed"):
		return ErrNoDevice
	case containsAny(msg, "security", "policy", "sandbox", "sealed"):
		return ErrSecurity
	case containsAny(msg, "caps", "negotiat", "unsupported format", "invalid resolution", "framerate"):
		return ErrConstraints
	case containsAny(msg, "device busy", "resource busy", "in use", "i/o error", "input/output error", "could not read"):
		return ErrDeviceUnreadable
	case containsAny(msg, "abort", "cancelled", "canceled", "interrupted"):
		return ErrAborted
	default:
		return ErrCamera
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
