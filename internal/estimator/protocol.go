package estimator

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/e7canasta/posture-sensor/internal/types"
)

// Wire protocol to the Python pose worker.
//
// Requests (Go → worker stdin): uint32 big-endian length prefix followed by
// a msgpack-encoded estimateRequest. Binary framing keeps raw RGB frames
// off base64.
//
// Responses (worker stdout → Go): one JSON object per line.

// maxRequestSize caps a single request frame (a 1080p RGB frame is ~6 MB).
const maxRequestSize = 32 << 20

type estimateRequest struct {
	Seq       uint64 `msgpack:"seq"`
	Width     int    `msgpack:"width"`
	Height    int    `msgpack:"height"`
	FrameData []byte `msgpack:"frame_data"`
	TraceID   string `msgpack:"trace_id"`
}

type wireKeypoint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

type wirePose struct {
	Keypoints []wireKeypoint `json:"keypoints"`
}

type estimateResponse struct {
	Event string     `json:"event,omitempty"` // "ready" during startup
	Error string     `json:"error,omitempty"`
	Seq   uint64     `json:"seq"`
	Poses []wirePose `json:"poses"`
	Timing struct {
		TotalMS     float64 `json:"total_ms"`
		InferenceMS float64 `json:"inference_ms"`
	} `json:"timing"`
}

// writeRequest frames and writes one estimate request.
func writeRequest(w io.Writer, frame types.Frame) error {
	payload, err := msgpack.Marshal(estimateRequest{
		Seq:       frame.Seq,
		Width:     frame.Width,
		Height:    frame.Height,
		FrameData: frame.Data,
		TraceID:   frame.TraceID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	if len(payload) > maxRequestSize {
		return fmt.Errorf("request too large: %d bytes", len(payload))
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}
	return nil
}

// parseResponse decodes one stdout line from the worker.
func parseResponse(line []byte) (*estimateResponse, error) {
	var resp estimateResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse worker response: %w", err)
	}
	return &resp, nil
}

// toPoses converts wire poses to the domain model. Keypoints keep their
// order; low-confidence keypoints stay in the collection (the renderer
// applies the confidence threshold, not the decoder).
func toPoses(wire []wirePose) []types.Pose {
	poses := make([]types.Pose, 0, len(wire))
	for _, wp := range wire {
		pose := types.Pose{Keypoints: make([]types.Keypoint, 0, len(wp.Keypoints))}
		for _, kp := range wp.Keypoints {
			pose.Keypoints = append(pose.Keypoints, types.Keypoint{
				Name:       kp.Name,
				X:          kp.X,
				Y:          kp.Y,
				Confidence: kp.Confidence,
			})
		}
		poses = append(poses, pose)
	}
	return poses
}
