package capture

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/e7canasta/posture-sensor/internal/types"
)

// generateFrameTimes produces synthetic frame timestamps at targetFPS with
// the given fractional jitter.
func generateFrameTimes(n int, targetFPS, jitter float64) []time.Time {
	rng := rand.New(rand.NewSource(42))
	interval := time.Duration(float64(time.Second) / targetFPS)

	times := make([]time.Time, 0, n)
	ts := time.Now()
	for i := 0; i < n; i++ {
		times = append(times, ts)
		noise := time.Duration((rng.Float64()*2 - 1) * jitter * float64(interval))
		ts = ts.Add(interval + noise)
	}
	return times
}

// TestCalculateFPSStats_Stability validates the stability criteria.
//
// Property: FPS stddev < 15% of mean AND jitter < 20% of expected interval
// → IsStable = true; high jitter → IsStable = false.
func TestCalculateFPSStats_Stability(t *testing.T) {
	t.Run("stable stream", func(t *testing.T) {
		times := generateFrameTimes(60, 30.0, 0.03)
		stats := CalculateFPSStats(times, 2*time.Second)

		if !stats.IsStable {
			t.Errorf("expected stable stream, got IsStable=false (stddev %.2f%% of mean, jitter %.2f%%)",
				stats.FPSStdDev/stats.FPSMean*100,
				stats.JitterMean*stats.FPSMean*100,
			)
		}
	})

	t.Run("unstable stream", func(t *testing.T) {
		times := generateFrameTimes(60, 30.0, 0.60)
		stats := CalculateFPSStats(times, 2*time.Second)

		if stats.IsStable {
			t.Error("expected unstable stream (60% jitter), got IsStable=true")
		}
	})
}

// TestCalculateFPSStats_EdgeCases validates that degenerate inputs return
// sensible defaults instead of panicking.
func TestCalculateFPSStats_EdgeCases(t *testing.T) {
	tests := []struct {
		name       string
		frameTimes []time.Time
		duration   time.Duration
	}{
		{"no frames", nil, 5 * time.Second},
		{"single frame", []time.Time{time.Now()}, 5 * time.Second},
		{"zero duration", []time.Time{time.Now(), time.Now()}, 0},
		{"identical timestamps", func() []time.Time {
			ts := time.Now()
			return []time.Time{ts, ts, ts}
		}(), time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := CalculateFPSStats(tt.frameTimes, tt.duration)
			if stats == nil {
				t.Fatal("CalculateFPSStats returned nil")
			}
			if stats.IsStable {
				t.Error("degenerate input reported as stable")
			}
		})
	}
}

// TestCalculateFPSStats_MeanFPS validates the overall rate computation.
func TestCalculateFPSStats_MeanFPS(t *testing.T) {
	times := generateFrameTimes(30, 30.0, 0)
	stats := CalculateFPSStats(times, time.Second)

	if stats.FPSMean < 29 || stats.FPSMean > 31 {
		t.Errorf("FPSMean = %.2f, want ~30", stats.FPSMean)
	}
	if stats.FramesReceived != 30 {
		t.Errorf("FramesReceived = %d, want 30", stats.FramesReceived)
	}
}

// TestWarmup_ConsumesFrames validates the warm-up pass over a live mock
// stream: frames are consumed and stats are produced.
func TestWarmup_ConsumesFrames(t *testing.T) {
	stream := NewMockStream(32, 24, 60)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := stream.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer stream.Stop()

	stats, err := Warmup(ctx, stream.Frames(), 300*time.Millisecond)
	if err != nil {
		t.Fatalf("Warmup() failed: %v", err)
	}
	if stats.FramesReceived < 2 {
		t.Errorf("FramesReceived = %d, want >= 2", stats.FramesReceived)
	}
}

// TestWarmup_NotEnoughFrames validates the error path when the stream
// yields too few frames.
func TestWarmup_NotEnoughFrames(t *testing.T) {
	silent := make(chan types.Frame)

	_, err := Warmup(context.Background(), silent, 50*time.Millisecond)
	if err == nil {
		t.Error("Warmup() on a silent stream returned nil error")
	}
}

// TestWarmup_Cancelled validates that context cancellation aborts warm-up.
func TestWarmup_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Warmup(ctx, make(chan types.Frame), time.Second)
	if err == nil {
		t.Error("Warmup() with cancelled context returned nil error")
	}
}
