package capture

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// TestClassifyCaptureError_Taxonomy validates the keyword classification of
// raw acquisition errors onto the six named conditions plus the generic
// fallback.
func TestClassifyCaptureError_Taxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"permission denied", errors.New("v4l2src: permission denied opening /dev/video0"), ErrPermissionDenied},
		{"not allowed", errors.New("operation not permitted"), ErrPermissionDenied},
		{"no device", errors.New("no such device"), ErrNoDevice},
		{"device path missing", errors.New("open /dev/video0: no such file or directory"), ErrNoDevice},
		{"aborted", errors.New("acquisition aborted by caller"), ErrAborted},
		{"unreadable busy", errors.New("device busy"), ErrDeviceUnreadable},
		{"unreadable io", errors.New("read: input/output error"), ErrDeviceUnreadable},
		{"constraints", errors.New("streaming stopped, reason not-negotiated"), ErrConstraints},
		{"constraints caps", errors.New("failed to set caps on capsfilter"), ErrConstraints},
		{"constraints negotiation", errors.New("format negotiation failed"), ErrConstraints},
		{"security", errors.New("camera blocked by security policy"), ErrSecurity},
		{"generic fallback", errors.New("something exploded"), ErrCamera},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCaptureError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("ClassifyCaptureError(%q) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// TestClassifyCaptureError_PassThrough validates that already-classified
// errors keep their class (and wrapped detail) instead of being re-matched
// on keywords.
func TestClassifyCaptureError_PassThrough(t *testing.T) {
	wrapped := fmt.Errorf("%w: extra detail mentioning permission", ErrConstraints)
	if got := ClassifyCaptureError(wrapped); !errors.Is(got, ErrConstraints) {
		t.Errorf("classified error re-mapped to %v", got)
	}
}

// TestClassifyCaptureError_ContextCancel validates cancellation maps to the
// aborted condition.
func TestClassifyCaptureError_ContextCancel(t *testing.T) {
	if got := ClassifyCaptureError(context.Canceled); !errors.Is(got, ErrAborted) {
		t.Errorf("ClassifyCaptureError(context.Canceled) = %v, want ErrAborted", got)
	}
}

// TestClassifyCaptureError_Nil validates the nil pass-through.
func TestClassifyCaptureError_Nil(t *testing.T) {
	if got := ClassifyCaptureError(nil); got != nil {
		t.Errorf("ClassifyCaptureError(nil) = %v, want nil", got)
	}
}

// TestCaptureErrors_Distinct validates that every condition in the taxonomy
// is a distinct sentinel: no message can satisfy two conditions at once via
// errors.Is.
func TestCaptureErrors_Distinct(t *testing.T) {
	sentinels := []error{
		ErrPermissionDenied, ErrPermissionQuery, ErrNoDevice, ErrAborted,
		ErrDeviceUnreadable, ErrConstraints, ErrSecurity, ErrCamera,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v matches %v", a, b)
			}
		}
	}
}
