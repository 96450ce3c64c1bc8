package types

import "time"

// Frame represents a single video frame
type Frame struct {
	// Seq is the monotonic sequence number
	Seq uint64
	// Timestamp is when the frame was captured/decoded
	Timestamp time.Time
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Data contains the frame data (RGB24 format by default)
	Data []byte
	// SourceStream identifies the stream (e.g., "camera", "mock")
	SourceStream string
	// TraceID is a unique identifier for tracing a frame across the pipeline
	TraceID string
}

// Complete reports whether the frame carries enough data to present.
// A frame whose buffer is smaller than its declared dimensions is treated
// as not yet ready and the processing tick that received it is skipped.
func (f *Frame) Complete() bool {
	if f.Width <= 0 || f.Height <= 0 {
		return false
	}
	return len(f.Data) >= f.Width*f.Height*3
}

// Meta returns the frame metadata without the raw data.
func (f *Frame) Meta() FrameMeta {
	return FrameMeta{
		Seq:          f.Seq,
		Timestamp:    f.Timestamp,
		Width:        f.Width,
		Height:       f.Height,
		SourceStream: f.SourceStream,
		TraceID:      f.TraceID,
	}
}

// FrameMeta contains frame metadata without the raw data
type FrameMeta struct {
	Seq          uint64
	Timestamp    time.Time
	Width        int
	Height       int
	SourceStream string
	TraceID      string
}

// StreamStats contains stream statistics
type StreamStats struct {
	FrameCount   uint64
	FPSTarget    int
	FPSReal      float64
	LatencyMS    int64
	SourceStream string
	Resolution   string
	BytesRead    uint64
	IsConnected  bool
	Errors       uint64
}
