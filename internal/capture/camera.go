package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/posture-sensor/internal/types"
)

// CameraStream implements StreamProvider over a local V4L2 device using a
// GStreamer pipeline: v4l2src → videoconvert → videoscale → videorate →
// capsfilter(RGB) → appsink.
//
// Capture failures are terminal for the current run: there is no automatic
// reconnect. The first pipeline error is classified against the capture
// taxonomy and surfaced on Err(); recovery happens only through the
// user-initiated retry path, which builds a fresh CameraStream.
type CameraStream struct {
	device    string
	width     int
	height    int
	targetFPS int

	pipeline *gst.Pipeline
	appsink  *app.Sink

	frames chan types.Frame
	mu     sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	frameCount  uint64
	bytesRead   uint64
	started     time.Time
	lastFrameAt atomic.Int64 // unix nanos
	connected   atomic.Bool

	errMu    sync.Mutex
	fatalErr error
}

// CameraConfig contains camera stream configuration.
type CameraConfig struct {
	Device string // e.g. /dev/video0
	Width  int
	Height int
	FPS    int
}

// NewCameraStream creates a camera stream for a V4L2 device.
func NewCameraStream(cfg CameraConfig) (*CameraStream, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("%w: device path is required", ErrNoDevice)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid resolution %dx%d", ErrConstraints, cfg.Width, cfg.Height)
	}
	if cfg.FPS <= 0 || cfg.FPS > 60 {
		return nil, fmt.Errorf("%w: invalid fps %d", ErrConstraints, cfg.FPS)
	}

	return &CameraStream{
		device:    cfg.Device,
		width:     cfg.Width,
		height:    cfg.Height,
		targetFPS: cfg.FPS,
		frames:    make(chan types.Frame, 10),
	}, nil
}

// Start initializes GStreamer and starts the capture pipeline.
func (s *CameraStream) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return fmt.Errorf("stream already started")
	}

	gst.Init(nil)

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = time.Now()

	if err := s.buildPipeline(); err != nil {
		s.cancel()
		s.cancel = nil
		return ClassifyCaptureError(err)
	}

	if err := s.pipeline.SetState(gst.StatePlaying); err != nil {
		s.pipeline.SetState(gst.StateNull)
		s.cancel()
		s.cancel = nil
		return ClassifyCaptureError(fmt.Errorf("failed to start pipeline: %w", err))
	}

	s.wg.Add(1)
	go s.watchBus()

	slog.Info("camera stream starting",
		"device", s.device,
		"resolution", fmt.Sprintf("%dx%d", s.width, s.height),
		"target_fps", s.targetFPS,
	)

	return nil
}

// buildPipeline assembles the GStreamer elements and links them.
func (s *CameraStream) buildPipeline() error {
	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	s.pipeline = pipeline

	v4l2src, err := gst.NewElement("v4l2src")
	if err != nil {
		return fmt.Errorf("failed to create v4l2src: %w", err)
	}
	v4l2src.SetProperty("device", s.device)

	videoconvert, _ := gst.NewElement("videoconvert")
	videoscale, _ := gst.NewElement("videoscale")

	videorate, _ := gst.NewElement("videorate")
	videorate.SetProperty("drop-only", true)
	videorate.SetProperty("skip-to-first", true)

	capsfilter, _ := gst.NewElement("capsfilter")
	caps := gst.NewCapsFromString(fmt.Sprintf(
		"video/x-raw,format=RGB,width=%d,height=%d,framerate=%d/1",
		s.width, s.height, s.targetFPS,
	))
	capsfilter.SetProperty("caps", caps)

	appsink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("failed to create appsink: %w", err)
	}
	s.appsink = appsink
	appsink.SetProperty("sync", false)
	appsink.SetProperty("max-buffers", 1)
	appsink.SetProperty("drop", true)

	appsink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return s.onNewSample(sink)
		},
	})

	pipeline.AddMany(v4l2src, videoconvert, videoscale, videorate, capsfilter, appsink.Element)
	gst.ElementLinkMany(v4l2src, videoconvert, videoscale, videorate, capsfilter, appsink.Element)

	return nil
}

// watchBus polls the pipeline bus until shutdown or a fatal pipeline error.
func (s *CameraStream) watchBus() {
	defer s.wg.Done()
	defer close(s.frames)

	bus := s.pipeline.GetPipelineBus()
	for {
		select {
		case <-s.ctx.Done():
			s.pipeline.SetState(gst.StateNull)
			s.connected.Store(false)
			return
		default:
		}

		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			slog.Info("camera stream end of stream")
			s.setFatal(fmt.Errorf("%w: end of stream", ErrDeviceUnreadable))
			s.pipeline.SetState(gst.StateNull)
			s.connected.Store(false)
			return

		case gst.MessageError:
			gerr := msg.ParseError()
			slog.Error("camera pipeline error",
				"error", gerr.Error(),
				"debug", gerr.DebugString(),
			)
			s.setFatal(ClassifyCaptureError(fmt.Errorf("pipeline error: %w", gerr)))
			s.pipeline.SetState(gst.StateNull)
			s.connected.Store(false)
			return

		case gst.MessageStateChanged:
			if msg.Source() == s.pipeline.GetName() {
				_, next := msg.ParseStateChanged()
				if next == gst.StatePlaying {
					s.connected.Store(true)
					slog.Info("camera stream live", "device", s.device)
				}
			}
		}
	}
}

// onNewSample copies one appsink sample into a Frame and forwards it
// non-blocking; a full channel drops the frame.
func (s *CameraStream) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowEOS
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowError
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	defer buffer.Unmap()

	if len(data) == 0 {
		return gst.FlowOK
	}

	frameData := make([]byte, len(data))
	copy(frameData, data)

	frame := types.Frame{
		Data:         frameData,
		Width:        s.width,
		Height:       s.height,
		Timestamp:    time.Now(),
		Seq:          atomic.AddUint64(&s.frameCount, 1),
		SourceStream: "camera",
		TraceID:      uuid.New().String(),
	}

	s.lastFrameAt.Store(time.Now().UnixNano())
	atomic.AddUint64(&s.bytesRead, uint64(len(data)))

	select {
	case s.frames <- frame:
	default:
		slog.Debug("dropping frame, channel full", "seq", frame.Seq)
	}

	return gst.FlowOK
}

// Frames returns the frames channel.
func (s *CameraStream) Frames() <-chan types.Frame {
	return s.frames
}

// Err returns the fatal pipeline error that stopped the stream, if any.
func (s *CameraStream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.fatalErr
}

func (s *CameraStream) setFatal(err error) {
	s.errMu.Lock()
	if s.fatalErr == nil {
		s.fatalErr = err
	}
	s.errMu.Unlock()
}

// Stop shuts down the pipeline. Idempotent.
func (s *CameraStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	s.cancel = nil
	s.wg.Wait()

	slog.Info("camera stream stopped",
		"frames", atomic.LoadUint64(&s.frameCount),
		"uptime", time.Since(s.started),
	)
	return nil
}

// Stats returns a snapshot of stream statistics.
func (s *CameraStream) Stats() types.StreamStats {
	frameCount := atomic.LoadUint64(&s.frameCount)

	var fpsReal float64
	elapsed := time.Since(s.started).Seconds()
	if elapsed > 0 {
		fpsReal = float64(frameCount) / elapsed
	}

	var latencyMS int64
	if last := s.lastFrameAt.Load(); last > 0 {
		latencyMS = time.Since(time.Unix(0, last)).Milliseconds()
	}

	return types.StreamStats{
		FrameCount:   frameCount,
		FPSTarget:    s.targetFPS,
		FPSReal:      fpsReal,
		LatencyMS:    latencyMS,
		SourceStream: "camera",
		Resolution:   fmt.Sprintf("%dx%d", s.width, s.height),
		BytesRead:    atomic.LoadUint64(&s.bytesRead),
		IsConnected:  s.connected.Load(),
	}
}
