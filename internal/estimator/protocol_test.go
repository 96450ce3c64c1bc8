package estimator

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/e7canasta/posture-sensor/internal/types"
)

// TestWriteRequest_Framing validates the length-prefixed msgpack framing
// the Python worker reads from stdin.
func TestWriteRequest_Framing(t *testing.T) {
	frame := types.Frame{
		Seq:     42,
		Width:   4,
		Height:  2,
		Data:    bytes.Repeat([]byte{0x10, 0x20, 0x30}, 8),
		TraceID: "trace-1",
	}

	var buf bytes.Buffer
	if err := writeRequest(&buf, frame); err != nil {
		t.Fatalf("writeRequest() failed: %v", err)
	}

	raw := buf.Bytes()
	if len(raw) < 4 {
		t.Fatalf("frame too short: %d bytes", len(raw))
	}

	prefix := binary.BigEndian.Uint32(raw[:4])
	payload := raw[4:]
	if int(prefix) != len(payload) {
		t.Fatalf("length prefix = %d, payload = %d bytes", prefix, len(payload))
	}

	var req estimateRequest
	if err := msgpack.Unmarshal(payload, &req); err != nil {
		t.Fatalf("payload is not valid msgpack: %v", err)
	}
	if req.Seq != 42 || req.Width != 4 || req.Height != 2 {
		t.Errorf("decoded request = %+v, want seq=42 4x2", req)
	}
	if !bytes.Equal(req.FrameData, frame.Data) {
		t.Error("frame data corrupted in transit")
	}
}

// TestParseResponse_Poses validates decoding of a worker result line and
// the conversion to domain poses.
func TestParseResponse_Poses(t *testing.T) {
	line := []byte(`{"seq":7,"poses":[{"keypoints":[` +
		`{"name":"left_shoulder","x":100,"y":105.5,"confidence":0.92},` +
		`{"name":"right_shoulder","x":210,"y":108,"confidence":0.4}]}],` +
		`"timing":{"total_ms":41.2,"inference_ms":38.9}}`)

	resp, err := parseResponse(line)
	if err != nil {
		t.Fatalf("parseResponse() failed: %v", err)
	}
	if resp.Seq != 7 {
		t.Errorf("Seq = %d, want 7", resp.Seq)
	}

	poses := toPoses(resp.Poses)
	if len(poses) != 1 {
		t.Fatalf("got %d poses, want 1", len(poses))
	}

	kp, ok := poses[0].Find(types.KeypointLeftShoulder)
	if !ok {
		t.Fatal("left_shoulder missing from decoded pose")
	}
	if kp.Y != 105.5 || kp.Confidence != 0.92 {
		t.Errorf("left_shoulder = %+v", kp)
	}

	// Low-confidence keypoints stay in the collection; filtering is the
	// renderer's job.
	if _, ok := poses[0].Find(types.KeypointRightShoulder); !ok {
		t.Error("low-confidence keypoint dropped by decoder")
	}
}

// TestParseResponse_ReadyAndError validates the startup and error lines.
func TestParseResponse_ReadyAndError(t *testing.T) {
	ready, err := parseResponse([]byte(`{"event":"ready"}`))
	if err != nil || ready.Event != "ready" {
		t.Errorf("ready line: resp=%+v err=%v", ready, err)
	}

	fail, err := parseResponse([]byte(`{"error":"model file not found"}`))
	if err != nil || fail.Error != "model file not found" {
		t.Errorf("error line: resp=%+v err=%v", fail, err)
	}

	if _, err := parseResponse([]byte("not json")); err == nil {
		t.Error("malformed line parsed without error")
	}
}

// TestToPoses_Empty validates that no detections decode to an empty slice,
// not nil dereferences downstream.
func TestToPoses_Empty(t *testing.T) {
	if poses := toPoses(nil); len(poses) != 0 {
		t.Errorf("toPoses(nil) = %v", poses)
	}
}
