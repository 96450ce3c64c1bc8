package overlay

import "github.com/e7canasta/posture-sensor/internal/types"

// Edge is a pair of named keypoints connected by a skeleton line.
type Edge struct {
	A, B string
}

// Skeleton is the static set of connections drawn between keypoints,
// following the COCO-17 convention. It is configuration, not mutable data:
// an edge is rendered only when both endpoints are present in a pose with
// confidence above the rendering threshold.
var Skeleton = []Edge{
	{types.KeypointLeftAnkle, types.KeypointLeftKnee},
	{types.KeypointLeftKnee, types.KeypointLeftHip},
	{types.KeypointRightAnkle, types.KeypointRightKnee},
	{types.KeypointRightKnee, types.KeypointRightHip},
	{types.KeypointLeftHip, types.KeypointRightHip},
	{types.KeypointLeftShoulder, types.KeypointLeftHip},
	{types.KeypointRightShoulder, types.KeypointRightHip},
	{types.KeypointLeftShoulder, types.KeypointRightShoulder},
	{types.KeypointLeftShoulder, types.KeypointLeftElbow},
	{types.KeypointLeftElbow, types.KeypointLeftWrist},
	{types.KeypointRightShoulder, types.KeypointRightElbow},
	{types.KeypointRightElbow, types.KeypointRightWrist},
	{types.KeypointNose, types.KeypointLeftEye},
	{types.KeypointNose, types.KeypointRightEye},
	{types.KeypointLeftEye, types.KeypointRightEye},
	{types.KeypointLeftEye, types.KeypointLeftEar},
	{types.KeypointRightEye, types.KeypointRightEar},
	{types.KeypointLeftEar, types.KeypointLeftShoulder},
	{types.KeypointRightEar, types.KeypointRightShoulder},
}
