// Package loop runs the per-frame processing cycle: take the freshest
// captured frame, run pose estimation on it, draw the alignment overlay,
// and present the composite. One iteration is a tick; ticks never overlap
// because the next one is scheduled only after the current draw completes.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/e7canasta/posture-sensor/internal/capture"
	"github.com/e7canasta/posture-sensor/internal/estimator"
	"github.com/e7canasta/posture-sensor/internal/overlay"
	"github.com/e7canasta/posture-sensor/internal/sink"
)

// Stats is a snapshot of loop counters.
type Stats struct {
	Ticks    uint64 // tick attempts
	Skipped  uint64 // ticks skipped for lack of a ready frame
	Rendered uint64 // ticks that drew and presented a surface
}

// Config assembles a frame loop.
type Config struct {
	Mailbox   *capture.Mailbox
	Estimator estimator.Estimator
	Sink      sink.PreviewSink

	// Mirror draws the overlay (and preview) horizontally flipped, the
	// way a user expects to see themselves.
	Mirror bool

	// TickInterval is the tick cadence, normally 1/fps of the capture
	// stream.
	TickInterval time.Duration

	// OnFailure receives the error that stopped the loop. Tick failures
	// are contained and routed here, the same path initialization
	// failures take; the loop never dies silently.
	OnFailure func(error)
}

// Loop owns the overlay canvas and the tick cycle. The canvas and its
// transform state are mutated only by the loop goroutine; ticks are
// strictly sequential, so no locking is needed around drawing.
type Loop struct {
	mailbox *capture.Mailbox
	est     estimator.Estimator
	sink    sink.PreviewSink
	canvas  *overlay.Canvas
	mirror  bool

	interval  time.Duration
	onFailure func(error)

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	ticks    uint64
	skipped  uint64
	rendered uint64
}

// New creates a frame loop.
func New(cfg Config) (*Loop, error) {
	if cfg.Mailbox == nil || cfg.Estimator == nil || cfg.Sink == nil {
		return nil, fmt.Errorf("mailbox, estimator and sink are required")
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("invalid tick interval %v", cfg.TickInterval)
	}

	return &Loop{
		mailbox:   cfg.Mailbox,
		est:       cfg.Estimator,
		sink:      cfg.Sink,
		canvas:    overlay.NewCanvas(),
		mirror:    cfg.Mirror,
		interval:  cfg.TickInterval,
		onFailure: cfg.OnFailure,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Run executes ticks until the context is cancelled, Stop is called, or a
// tick fails. A failing tick is reported through OnFailure before Run
// returns; cancellation and Stop are clean exits.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	slog.Info("frame loop starting", "tick_interval", l.interval, "mirror", l.mirror)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		// Stop signal is checked at the top of every tick.
		select {
		case <-ctx.Done():
			slog.Info("frame loop stopped", "reason", "context cancelled")
			return
		case <-l.stopCh:
			slog.Info("frame loop stopped", "reason", "stop requested")
			return
		case <-ticker.C:
		}

		if err := l.tick(ctx); err != nil {
			if ctx.Err() != nil {
				slog.Info("frame loop stopped", "reason", "context cancelled")
				return
			}
			slog.Error("frame loop halted by tick failure", "error", err)
			if l.onFailure != nil {
				l.onFailure(err)
			}
			return
		}
	}
}

// tick runs one capture→estimate→draw→present iteration. Panics inside
// the tick body are contained and converted to ordinary tick failures.
func (l *Loop) tick(ctx context.Context) (err error) {
	atomic.AddUint64(&l.ticks, 1)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panicked: %v", r)
		}
		// The mirror transform never outlives a tick.
		l.canvas.SetMirror(false)
	}()

	// A tick without a presentable frame is skipped entirely: no drawing,
	// no state change; the next tick is scheduled regardless.
	frame, ok := l.mailbox.TryTake()
	if !ok || !frame.Complete() {
		atomic.AddUint64(&l.skipped, 1)
		return nil
	}

	// Overlay dimensions track the frame every tick; they may change, e.g.
	// on device rotation.
	l.canvas.Resize(frame.Width, frame.Height)
	l.canvas.SetMirror(l.mirror)

	// The estimator is awaited before anything is drawn; the next tick
	// cannot begin until this one's draw completes.
	poses, err := l.est.Estimate(ctx, frame)
	if err != nil {
		return fmt.Errorf("pose estimation failed: %w", err)
	}

	l.canvas.Clear()
	for _, pose := range poses {
		overlay.RenderPose(l.canvas, pose)
	}

	surface := overlay.Composite(l.canvas, frame)

	if err := l.sink.Present(ctx, surface, frame.Meta()); err != nil {
		return fmt.Errorf("failed to present preview: %w", err)
	}

	atomic.AddUint64(&l.rendered, 1)
	return nil
}

// Stop requests a clean exit and waits for the loop goroutine to finish.
// Idempotent. Must only be called after Run has been started.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
	<-l.done
}

// Stats returns a snapshot of loop counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Ticks:    atomic.LoadUint64(&l.ticks),
		Skipped:  atomic.LoadUint64(&l.skipped),
		Rendered: atomic.LoadUint64(&l.rendered),
	}
}
