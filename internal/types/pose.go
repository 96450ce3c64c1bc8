package types

// Keypoint names follow the COCO-17 convention emitted by the pose worker.
const (
	KeypointNose          = "nose"
	KeypointLeftEye       = "left_eye"
	KeypointRightEye      = "right_eye"
	KeypointLeftEar       = "left_ear"
	KeypointRightEar      = "right_ear"
	KeypointLeftShoulder  = "left_shoulder"
	KeypointRightShoulder = "right_shoulder"
	KeypointLeftElbow     = "left_elbow"
	KeypointRightElbow    = "right_elbow"
	KeypointLeftWrist     = "left_wrist"
	KeypointRightWrist    = "right_wrist"
	KeypointLeftHip       = "left_hip"
	KeypointRightHip      = "right_hip"
	KeypointLeftKnee      = "left_knee"
	KeypointRightKnee     = "right_knee"
	KeypointLeftAnkle     = "left_ankle"
	KeypointRightAnkle    = "right_ankle"
)

// Keypoint represents a single named pose keypoint in pixel coordinates.
// Confidence is the detector's score in [0, 1].
type Keypoint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Pose is the ordered set of keypoints for one detected person in one frame.
// Poses are produced fresh every frame and carry no identity across frames.
type Pose struct {
	Keypoints []Keypoint `json:"keypoints"`
}

// Find returns the keypoint with the given name, or false if the pose
// does not contain it. Low-confidence keypoints are still returned; the
// confidence filter belongs to the renderer, not the data model.
func (p *Pose) Find(name string) (Keypoint, bool) {
	for _, kp := range p.Keypoints {
		if kp.Name == name {
			return kp, true
		}
	}
	return Keypoint{}, false
}
