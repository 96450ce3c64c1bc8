package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/e7canasta/posture-sensor/internal/capture"
	"github.com/e7canasta/posture-sensor/internal/config"
	"github.com/e7canasta/posture-sensor/internal/estimator"
	"github.com/e7canasta/posture-sensor/internal/loop"
	"github.com/e7canasta/posture-sensor/internal/overlay"
	"github.com/e7canasta/posture-sensor/internal/sink"
	"github.com/e7canasta/posture-sensor/internal/status"
	"github.com/e7canasta/posture-sensor/internal/types"
)

// Deps supplies the component factories a Sensor builds its pipeline from.
// Production wiring comes from DefaultDeps; tests substitute fakes.
type Deps struct {
	Permissions func(cfg *config.Config) capture.PermissionChecker
	Stream      func(cfg *config.Config) (capture.StreamProvider, error)
	Estimator   func(cfg *config.Config) (estimator.Estimator, error)
	Sink        func(cfg *config.Config) (sink.PreviewSink, error)
}

// DefaultDeps returns the production component factories: device-node
// permission checks, GStreamer capture (or mock frames), the Python pose
// worker, and the file preview sink.
func DefaultDeps() Deps {
	return Deps{
		Permissions: func(cfg *config.Config) capture.PermissionChecker {
			return &capture.DevicePermissions{Device: cfg.Camera.Device}
		},
		Stream: func(cfg *config.Config) (capture.StreamProvider, error) {
			if cfg.Camera.Mock {
				return capture.NewMockStream(cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS), nil
			}
			return capture.NewCameraStream(capture.CameraConfig{
				Device: cfg.Camera.Device,
				Width:  cfg.Camera.Width,
				Height: cfg.Camera.Height,
				FPS:    cfg.Camera.FPS,
			})
		},
		Estimator: func(cfg *config.Config) (estimator.Estimator, error) {
			return estimator.NewPythonEstimator(estimator.PythonConfig{
				Command:   cfg.Estimator.Command,
				ModelPath: cfg.Estimator.ModelPath,
			})
		},
		Sink: func(cfg *config.Config) (sink.PreviewSink, error) {
			return sink.NewFileSink(cfg.Preview.Path, cfg.Preview.Quality)
		},
	}
}

// Sensor is the main service orchestrator. It runs capture sessions: each
// session resolves camera permission, starts the stream, loads the pose
// model and drives the frame loop. A failed session halts on the error
// banner until Retry restarts the whole init sequence from scratch.
type Sensor struct {
	cfg  *config.Config
	deps Deps

	banner  *status.Banner
	preview sink.PreviewSink
	retryCh chan struct{}

	started   time.Time
	mu        sync.RWMutex
	isRunning bool
	loopStats func() loop.Stats
}

// New creates a Sensor from an already validated configuration.
func New(cfg *config.Config, deps Deps) *Sensor {
	return &Sensor{
		cfg:     cfg,
		deps:    deps,
		banner:  status.NewBanner(),
		retryCh: make(chan struct{}, 1),
	}
}

// NewFromFile creates a Sensor with production wiring from a YAML config.
func NewFromFile(configPath string) (*Sensor, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("configuration loaded",
		"instance_id", cfg.InstanceID,
		"device", cfg.Camera.Device,
		"preview", cfg.Preview.Path,
	)

	return New(cfg, DefaultDeps()), nil
}

// Run starts the sensor and blocks until the context is cancelled. Session
// failures do not end Run: the error banner is presented and the sensor
// waits for Retry.
func (s *Sensor) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("service is already running")
	}
	s.isRunning = true
	s.started = time.Now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	slog.Info("posture sensor starting", "instance_id", s.cfg.InstanceID)

	// The preview surface outlives sessions: the banner must remain
	// visible while a failed session awaits retry.
	preview, err := s.deps.Sink(s.cfg)
	if err != nil {
		return fmt.Errorf("failed to create preview sink: %w", err)
	}
	s.mu.Lock()
	s.preview = preview
	s.mu.Unlock()
	defer preview.Close()

	for {
		err := s.runSession(ctx)
		if ctx.Err() != nil {
			slog.Info("posture sensor run loop exiting")
			return nil
		}
		if err == nil {
			return nil
		}

		s.banner.Show(err)
		slog.Error("session failed, awaiting retry",
			"error", err,
			"banner", s.banner.Message(),
		)
		s.presentBanner(ctx)

		select {
		case <-ctx.Done():
			slog.Info("posture sensor run loop exiting")
			return nil
		case <-s.retryCh:
			s.banner.Clear()
			slog.Info("retry requested, restarting session")
		}
	}
}

// runSession executes one full init sequence and drives the frame loop
// until the session context ends or a component fails. Every session
// builds fresh components; nothing survives a failure except the preview
// sink and the configuration.
func (s *Sensor) runSession(ctx context.Context) error {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 1. Permission gate. The probe stream exists only to settle an "ask"
	// state and is torn down before the gate returns.
	gate := capture.NewGate(
		s.deps.Permissions(s.cfg),
		capture.ProbeProvider(func() (capture.StreamProvider, error) {
			return s.deps.Stream(s.cfg)
		}),
	)
	if err := gate.Ensure(sessionCtx); err != nil {
		return err
	}

	// 2. Capture stream.
	stream, err := s.deps.Stream(s.cfg)
	if err != nil {
		return capture.ClassifyCaptureError(err)
	}
	if err := stream.Start(sessionCtx); err != nil {
		return capture.ClassifyCaptureError(err)
	}

	var pumpWG sync.WaitGroup
	defer func() {
		cancel()
		if err := stream.Stop(); err != nil {
			slog.Error("failed to stop stream", "error", err)
		}
		pumpWG.Wait()
	}()

	// 3. Warm-up: measure capture FPS stability before inference starts.
	// A failed warm-up is logged, not fatal.
	warmupDuration := time.Duration(s.cfg.Camera.WarmupDurationS) * time.Second
	if stats, err := capture.Warmup(sessionCtx, stream.Frames(), warmupDuration); err != nil {
		if sessionCtx.Err() != nil {
			return nil
		}
		slog.Warn("stream warm-up failed, continuing without FPS stats", "error", err)
	} else {
		slog.Info("stream warm-up complete",
			"frames", stats.FramesReceived,
			"fps_mean", fmt.Sprintf("%.2f", stats.FPSMean),
			"fps_stddev", fmt.Sprintf("%.2f", stats.FPSStdDev),
			"jitter_ms", fmt.Sprintf("%.1f", stats.JitterMean*1000),
			"stable", stats.IsStable,
		)
	}

	// 4. Pose model.
	est, err := s.deps.Estimator(s.cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", estimator.ErrModelLoad, err)
	}
	if err := est.Load(sessionCtx); err != nil {
		return err
	}
	defer est.Close()

	// 5. Frame pump: latest frame wins, the loop never consumes a backlog.
	mailbox := capture.NewMailbox()
	failureCh := make(chan error, 2)
	pumpWG.Add(1)
	go func() {
		defer pumpWG.Done()
		for frame := range stream.Frames() {
			mailbox.Put(frame)
		}
		if sessionCtx.Err() != nil {
			return
		}
		// Frame channel closed mid-session: the stream died.
		if fatal, ok := stream.(interface{ Err() error }); ok && fatal.Err() != nil {
			failureCh <- fatal.Err()
			return
		}
		failureCh <- capture.ErrDeviceUnreadable
	}()

	// 6. Frame loop.
	frameLoop, err := loop.New(loop.Config{
		Mailbox:      mailbox,
		Estimator:    est,
		Sink:         s.preview,
		Mirror:       s.cfg.Overlay.Mirrored(),
		TickInterval: time.Duration(s.cfg.Overlay.TickIntervalMs) * time.Millisecond,
		OnFailure:    func(err error) { failureCh <- err },
	})
	if err != nil {
		return fmt.Errorf("failed to create frame loop: %w", err)
	}
	go frameLoop.Run(sessionCtx)
	// Cancel before waiting: a tick may be blocked inside Estimate on a
	// hung worker, and Stop cannot return until that tick unwinds.
	defer func() {
		cancel()
		frameLoop.Stop()
	}()

	s.mu.Lock()
	s.loopStats = frameLoop.Stats
	s.mu.Unlock()

	pumpWG.Add(1)
	go func() {
		defer pumpWG.Done()
		s.logStats(sessionCtx, frameLoop, mailbox, stream)
	}()

	slog.Info("posture sensor session running",
		"mirror", s.cfg.Overlay.Mirrored(),
		"tick_interval_ms", s.cfg.Overlay.TickIntervalMs,
	)

	select {
	case <-sessionCtx.Done():
		return nil
	case err := <-failureCh:
		return err
	}
}

// logStats periodically reports pipeline counters for the session.
func (s *Sensor) logStats(ctx context.Context, l *loop.Loop, mb *capture.Mailbox, stream capture.StreamProvider) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := l.Stats()
			streamStats := stream.Stats()
			slog.Info("pipeline stats",
				"ticks", stats.Ticks,
				"rendered", stats.Rendered,
				"skipped", stats.Skipped,
				"frames_received", mb.Received(),
				"frames_dropped", mb.Drops(),
				"stream_fps", fmt.Sprintf("%.2f", streamStats.FPSReal),
			)
		}
	}
}

// presentBanner draws the failure banner onto the preview surface so the
// error remains visible while the sensor awaits retry.
func (s *Sensor) presentBanner(ctx context.Context) {
	img := overlay.RenderBanner(
		s.cfg.Camera.Width,
		s.cfg.Camera.Height,
		s.banner.Message(),
		status.RetryHint,
	)

	meta := types.FrameMeta{
		Timestamp: time.Now(),
		Width:     s.cfg.Camera.Width,
		Height:    s.cfg.Camera.Height,
	}
	if err := s.preview.Present(ctx, img, meta); err != nil && ctx.Err() == nil {
		slog.Error("failed to present error banner", "error", err)
	}
}

// Retry requests a restart of the full init sequence. Safe to call at any
// time; a retry while a session is healthy or already pending is a no-op.
func (s *Sensor) Retry() {
	if !s.banner.Active() {
		slog.Info("retry ignored, no active failure")
		return
	}
	select {
	case s.retryCh <- struct{}{}:
		slog.Info("retry accepted", "cause", s.banner.Cause())
	default:
	}
}

// Banner exposes the failure banner state.
func (s *Sensor) Banner() *status.Banner {
	return s.banner
}

// GetStatus returns the current status of the service
func (s *Sensor) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := map[string]interface{}{
		"instance_id": s.cfg.InstanceID,
		"uptime_s":    time.Since(s.started).Seconds(),
		"running":     s.isRunning,
		"banner":      s.banner.Active(),
		"banner_text": s.banner.Message(),
	}
	if s.loopStats != nil {
		stats := s.loopStats()
		st["ticks"] = stats.Ticks
		st["rendered"] = stats.Rendered
		st["skipped"] = stats.Skipped
	}
	return st
}

// ShutdownTimeout returns the configured graceful shutdown timeout.
func (s *Sensor) ShutdownTimeout() time.Duration {
	return time.Duration(s.cfg.ShutdownTimeoutS) * time.Second
}
