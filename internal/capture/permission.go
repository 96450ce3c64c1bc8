package capture

import (
	"context"
	"fmt"
	"os"
)

// PermissionState is the outcome of a camera permission query.
type PermissionState int

const (
	// StateGranted means camera access is already allowed.
	StateGranted PermissionState = iota
	// StateAsk means access has not been decided yet; a probe acquisition
	// is required to settle it.
	StateAsk
	// StateDenied means camera access was explicitly refused.
	StateDenied
)

// String returns a human-readable string representation of the state.
func (s PermissionState) String() string {
	switch s {
	case StateGranted:
		return "granted"
	case StateAsk:
		return "ask"
	case StateDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// PermissionChecker queries the current camera permission state.
//
// Modeled as an injected capability so tests can substitute fakes returning
// each state and each failure mode deterministically.
type PermissionChecker interface {
	// Query returns the current permission state. A non-nil error means the
	// check itself failed; callers must not interpret it as a denial.
	Query(ctx context.Context) (PermissionState, error)
}

// DevicePermissions checks camera access against a V4L2 device node.
//
// Mapping:
//   - device openable for reading  → granted
//   - device exists, open refused  → denied
//   - device node absent           → ask (presence is settled by the probe
//     acquisition; absence here is not a capture error yet)
//   - stat/open fails structurally → error (permission check failure)
type DevicePermissions struct {
	Device string
}

// Query implements PermissionChecker.
func (d *DevicePermissions) Query(ctx context.Context) (PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return StateAsk, err
	}
	if d.Device == "" {
		return StateAsk, fmt.Errorf("no device path configured")
	}

	f, err := os.OpenFile(d.Device, os.O_RDONLY, 0)
	if err == nil {
		f.Close()
		return StateGranted, nil
	}

	switch {
	case os.IsPermission(err):
		return StateDenied, nil
	case os.IsNotExist(err):
		return StateAsk, nil
	default:
		return StateAsk, fmt.Errorf("failed to probe %s: %w", d.Device, err)
	}
}
