package capture

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/e7canasta/posture-sensor/internal/types"
)

const (
	// fpsStabilityThreshold is the maximum allowed FPS standard deviation
	// as a fraction of mean FPS.
	fpsStabilityThreshold = 0.15

	// jitterStabilityThreshold is the maximum allowed mean jitter as a
	// fraction of the expected inter-frame interval.
	jitterStabilityThreshold = 0.20
)

// WarmupStats contains statistics collected during the stream warm-up phase.
type WarmupStats struct {
	FramesReceived int
	Duration       time.Duration
	FPSMean        float64
	FPSStdDev      float64
	FPSMin         float64
	FPSMax         float64
	JitterMean     float64
	JitterMax      float64
	IsStable       bool
}

// Warmup consumes frames for the given duration and measures capture FPS
// stability before the processing loop starts. Frames consumed here are
// discarded; no estimation or rendering happens during warm-up.
func Warmup(ctx context.Context, frames <-chan types.Frame, duration time.Duration) (*WarmupStats, error) {
	deadline := time.After(duration)
	start := time.Now()
	var frameTimes []time.Time

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			if len(frameTimes) < 2 {
				return nil, fmt.Errorf("not enough frames during warm-up: got %d, need >= 2", len(frameTimes))
			}
			return CalculateFPSStats(frameTimes, time.Since(start)), nil
		case _, ok := <-frames:
			if !ok {
				return nil, fmt.Errorf("stream closed during warm-up")
			}
			frameTimes = append(frameTimes, time.Now())
		}
	}
}

// CalculateFPSStats calculates FPS statistics from frame timestamps.
//
// Stability criteria:
//   - FPS stddev < 15% of mean FPS
//   - mean jitter < 20% of the expected inter-frame interval
func CalculateFPSStats(frameTimes []time.Time, totalDuration time.Duration) *WarmupStats {
	n := len(frameTimes)
	if n == 0 || totalDuration <= 0 {
		return &WarmupStats{Duration: totalDuration}
	}

	fpsMean := float64(n) / totalDuration.Seconds()

	instantaneous := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		interval := frameTimes[i].Sub(frameTimes[i-1]).Seconds()
		if interval > 0 {
			instantaneous = append(instantaneous, 1.0/interval)
		}
	}

	if len(instantaneous) == 0 {
		return &WarmupStats{
			FramesReceived: n,
			Duration:       totalDuration,
			FPSMean:        fpsMean,
		}
	}

	fpsMin, fpsMax := instantaneous[0], instantaneous[0]
	var sumSquares float64
	for _, fps := range instantaneous {
		if fps < fpsMin {
			fpsMin = fps
		}
		if fps > fpsMax {
			fpsMax = fps
		}
		diff := fps - fpsMean
		sumSquares += diff * diff
	}
	fpsStdDev := math.Sqrt(sumSquares / float64(len(instantaneous)))

	expectedInterval := 1.0 / fpsMean
	var jitterSum, jitterMax float64
	for i := 1; i < n; i++ {
		jitter := math.Abs(frameTimes[i].Sub(frameTimes[i-1]).Seconds() - expectedInterval)
		jitterSum += jitter
		if jitter > jitterMax {
			jitterMax = jitter
		}
	}
	jitterMean := jitterSum / float64(n-1)

	return &WarmupStats{
		FramesReceived: n,
		Duration:       totalDuration,
		FPSMean:        fpsMean,
		FPSStdDev:      fpsStdDev,
		FPSMin:         fpsMin,
		FPSMax:         fpsMax,
		JitterMean:     jitterMean,
		JitterMax:      jitterMax,
		IsStable: fpsStdDev < fpsMean*fpsStabilityThreshold &&
			jitterMean < expectedInterval*jitterStabilityThreshold,
	}
}
