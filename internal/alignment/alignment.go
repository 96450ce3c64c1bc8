// Package alignment evaluates the per-pose posture verdict.
//
// The verdict is a stateless predicate over four keypoints (both shoulders,
// both hips): true iff both pairs are roughly level vertically. It is
// recomputed from scratch for every pose in every frame, never cached.
package alignment

import (
	"math"

	"github.com/e7canasta/posture-sensor/internal/types"
)

// MaxLevelDeltaPx is the maximum vertical pixel difference allowed between
// the two shoulders and between the two hips for a pose to count as aligned.
// The comparison is strict: a delta of exactly MaxLevelDeltaPx fails.
const MaxLevelDeltaPx = 20.0

// required are the keypoints the verdict depends on. If any is missing
// from the pose the verdict is false (fail-closed).
var required = [4]string{
	types.KeypointLeftShoulder,
	types.KeypointRightShoulder,
	types.KeypointLeftHip,
	types.KeypointRightHip,
}

// Evaluate computes the alignment verdict for a single pose.
func Evaluate(pose types.Pose) bool {
	var pts [4]types.Keypoint
	for i, name := range required {
		kp, ok := pose.Find(name)
		if !ok {
			return false
		}
		pts[i] = kp
	}

	shoulderDelta := math.Abs(pts[0].Y - pts[1].Y)
	hipDelta := math.Abs(pts[2].Y - pts[3].Y)

	return shoulderDelta < MaxLevelDeltaPx && hipDelta < MaxLevelDeltaPx
}
