package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/e7canasta/posture-sensor/internal/types"
)

// MockStream generates synthetic RGB frames for testing and for running the
// pipeline without a camera.
type MockStream struct {
	width  int
	height int
	fps    int
	source string

	framesCh chan types.Frame
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu            sync.RWMutex
	seq           uint64
	framesEmitted uint64
	isRunning     bool
	startTime     time.Time
}

// NewMockStream creates a new mock stream provider.
func NewMockStream(width, height, fps int) *MockStream {
	return &MockStream{
		width:    width,
		height:   height,
		fps:      fps,
		source:   "mock",
		framesCh: make(chan types.Frame, 10),
		stopCh:   make(chan struct{}),
	}
}

// Start begins generating frames.
func (m *MockStream) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return fmt.Errorf("stream already running")
	}
	if m.fps <= 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: invalid fps %d", ErrConstraints, m.fps)
	}
	m.isRunning = true
	m.startTime = time.Now()
	m.mu.Unlock()

	slog.Info("mock stream starting",
		"width", m.width,
		"height", m.height,
		"fps", m.fps,
	)

	m.wg.Add(1)
	go m.generateFrames(ctx)

	return nil
}

// Frames returns the frames channel.
func (m *MockStream) Frames() <-chan types.Frame {
	return m.framesCh
}

// Stop stops the stream. Idempotent.
func (m *MockStream) Stop() error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.isRunning = false
	m.mu.Unlock()

	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
		close(m.framesCh)
	})

	slog.Info("mock stream stopped", "frames_emitted", m.framesEmitted)
	return nil
}

// Stats returns stream statistics.
func (m *MockStream) Stats() types.StreamStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var fpsReal float64
	if m.isRunning && m.framesEmitted > 0 {
		elapsed := time.Since(m.startTime).Seconds()
		if elapsed > 0 {
			fpsReal = float64(m.framesEmitted) / elapsed
		}
	}

	return types.StreamStats{
		FrameCount:   m.framesEmitted,
		FPSTarget:    m.fps,
		FPSReal:      fpsReal,
		SourceStream: m.source,
		Resolution:   fmt.Sprintf("%dx%d", m.width, m.height),
		IsConnected:  m.isRunning,
	}
}

func (m *MockStream) generateFrames(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(m.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			frame := m.createFrame()
			select {
			case m.framesCh <- frame:
				m.mu.Lock()
				m.framesEmitted++
				m.mu.Unlock()
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			}
		}
	}
}

// createFrame creates a synthetic RGB24 frame with a seq-derived fill so
// consecutive frames are distinguishable in previews.
func (m *MockStream) createFrame() types.Frame {
	m.mu.Lock()
	seq := m.seq
	m.seq++
	m.mu.Unlock()

	data := make([]byte, m.width*m.height*3)
	shade := byte(32 + seq%32)
	for i := 0; i < len(data); i += 3 {
		data[i] = shade
		data[i+1] = shade
		data[i+2] = shade + 16
	}

	return types.Frame{
		Seq:          seq,
		Timestamp:    time.Now(),
		Width:        m.width,
		Height:       m.height,
		Data:         data,
		SourceStream: m.source,
		TraceID:      uuid.New().String(),
	}
}
