package capture

import (
	"context"
	"fmt"
	"log/slog"
)

// ProbeFunc performs a short-lived trial acquisition whose only purpose is
// settling an undecided permission state. The stream it opens is stopped
// immediately; no frames from it are consumed.
type ProbeFunc func(ctx context.Context) error

// Gate obtains consent to use the camera before the pipeline acquires the
// real capture stream.
//
// Outcomes of Ensure:
//   - permission granted       → nil, proceed directly
//   - permission undecided     → run the probe, then proceed on success
//   - permission denied        → ErrPermissionDenied (no automatic retry;
//     recovery is user-initiated via the retry path)
//   - permission check failed  → ErrPermissionQuery
type Gate struct {
	perms PermissionChecker
	probe ProbeFunc
}

// NewGate creates a permission gate. probe may be nil if the platform needs
// no trial acquisition to settle an "ask" state.
func NewGate(perms PermissionChecker, probe ProbeFunc) *Gate {
	return &Gate{perms: perms, probe: probe}
}

// Ensure resolves camera permission. It returns nil when the pipeline may
// acquire the real capture stream.
func (g *Gate) Ensure(ctx context.Context) error {
	state, err := g.perms.Query(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionQuery, err)
	}

	slog.Info("camera permission state", "state", state.String())

	switch state {
	case StateGranted:
		return nil

	case StateAsk:
		if g.probe == nil {
			return nil
		}
		// The probe stream exists only to trigger the access decision;
		// it is torn down inside the probe before Ensure returns.
		if err := g.probe(ctx); err != nil {
			return ClassifyCaptureError(err)
		}
		slog.Info("camera probe acquisition succeeded")
		return nil

	case StateDenied:
		return ErrPermissionDenied

	default:
		return fmt.Errorf("%w: unknown permission state %d", ErrPermissionQuery, state)
	}
}

// ProbeProvider adapts a StreamProvider factory into a ProbeFunc: the stream
// is started and stopped immediately without consuming frames.
func ProbeProvider(newProvider func() (StreamProvider, error)) ProbeFunc {
	return func(ctx context.Context) error {
		provider, err := newProvider()
		if err != nil {
			return err
		}
		if err := provider.Start(ctx); err != nil {
			provider.Stop()
			return err
		}
		return provider.Stop()
	}
}
