package estimator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/e7canasta/posture-sensor/internal/types"
)

const (
	// loadTimeout bounds how long we wait for the worker's ready line.
	// Model load (ONNX session init) dominates this.
	loadTimeout = 30 * time.Second

	// writeTimeout bounds a single request write so a hung worker cannot
	// block the frame loop forever on stdin.
	writeTimeout = 2 * time.Second

	// stopTimeout bounds graceful shutdown before the process is killed.
	stopTimeout = 2 * time.Second
)

// PythonEstimator wraps a Python pose-estimation worker process.
//
// Frames go to the worker's stdin as length-prefixed msgpack requests;
// pose results come back as JSON lines on stdout; stderr is relayed into
// the structured log. The worker prints a {"event":"ready"} line once the
// model is loaded; anything else during startup is a load failure.
type PythonEstimator struct {
	command   []string
	modelPath string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	results chan *estimateResponse

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isActive  atomic.Bool
	closeOnce sync.Once

	estimateCount  uint64
	errorCount     uint64
	totalLatencyUS uint64
	lastSeenAt     atomic.Value // time.Time
}

// PythonConfig configures the Python worker subprocess.
type PythonConfig struct {
	// Command is the worker invocation, e.g.
	// ["python3", "workers/pose_worker.py"].
	Command []string
	// ModelPath is passed to the worker via --model.
	ModelPath string
}

// NewPythonEstimator creates an estimator backed by a Python worker.
func NewPythonEstimator(cfg PythonConfig) (*PythonEstimator, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("worker command is required")
	}
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path is required")
	}
	return &PythonEstimator{
		command:   cfg.Command,
		modelPath: cfg.ModelPath,
		results:   make(chan *estimateResponse, 10),
	}, nil
}

// Load spawns the worker process and waits for the model-ready line.
func (e *PythonEstimator) Load(ctx context.Context) error {
	if e.isActive.Load() {
		return fmt.Errorf("estimator already loaded")
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())

	args := append(e.command[1:], "--model", e.modelPath)
	e.cmd = exec.Command(e.command[0], args...)

	var err error
	if e.stdin, err = e.cmd.StdinPipe(); err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrModelLoad, err)
	}
	if e.stdout, err = e.cmd.StdoutPipe(); err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", ErrModelLoad, err)
	}
	if e.stderr, err = e.cmd.StderrPipe(); err != nil {
		return fmt.Errorf("%w: stderr pipe: %v", ErrModelLoad, err)
	}

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	slog.Info("pose worker starting",
		"command", strings.Join(e.command, " "),
		"model", e.modelPath,
		"pid", e.cmd.Process.Pid,
	)

	e.wg.Add(2)
	go e.logStderr()
	go e.waitProcess()

	reader := bufio.NewReaderSize(e.stdout, 1<<20)

	// First stdout line must be the ready event.
	if err := e.awaitReady(ctx, reader); err != nil {
		e.closeOnce.Do(e.teardown)
		return err
	}

	e.wg.Add(1)
	go e.readResults(reader)

	e.isActive.Store(true)
	slog.Info("pose model loaded", "model", e.modelPath)
	return nil
}

// awaitReady reads the worker's startup line with a timeout.
func (e *PythonEstimator) awaitReady(ctx context.Context, reader *bufio.Reader) error {
	type lineResult struct {
		line []byte
		err  error
	}
	lineCh := make(chan lineResult, 1)

	go func() {
		line, err := reader.ReadBytes('\n')
		lineCh <- lineResult{line, err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrModelLoad, ctx.Err())
	case <-time.After(loadTimeout):
		return fmt.Errorf("%w: worker did not become ready within %s", ErrModelLoad, loadTimeout)
	case res := <-lineCh:
		if res.err != nil {
			return fmt.Errorf("%w: worker exited during load: %v", ErrModelLoad, res.err)
		}
		resp, err := parseResponse(res.line)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrModelLoad, err)
		}
		if resp.Error != "" {
			return fmt.Errorf("%w: %s", ErrModelLoad, resp.Error)
		}
		if resp.Event != "ready" {
			return fmt.Errorf("%w: unexpected startup message", ErrModelLoad)
		}
		return nil
	}
}

// Estimate sends one frame to the worker and waits for its pose result.
// Calls are sequential: the frame loop never overlaps estimations.
func (e *PythonEstimator) Estimate(ctx context.Context, frame types.Frame) ([]types.Pose, error) {
	if !e.isActive.Load() {
		return nil, fmt.Errorf("estimator not loaded")
	}

	start := time.Now()

	if err := e.writeWithTimeout(frame); err != nil {
		atomic.AddUint64(&e.errorCount, 1)
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-e.ctx.Done():
			return nil, fmt.Errorf("%w: estimator stopped", ErrWorker)
		case resp, ok := <-e.results:
			if !ok {
				return nil, fmt.Errorf("%w: process exited", ErrWorker)
			}
			if resp.Error != "" {
				atomic.AddUint64(&e.errorCount, 1)
				return nil, fmt.Errorf("%w: %s", ErrWorker, resp.Error)
			}
			if resp.Seq != frame.Seq {
				// Stale result from a frame abandoned by a previous run.
				slog.Debug("discarding stale pose result", "got_seq", resp.Seq, "want_seq", frame.Seq)
				continue
			}

			atomic.AddUint64(&e.estimateCount, 1)
			atomic.AddUint64(&e.totalLatencyUS, uint64(time.Since(start).Microseconds()))
			e.lastSeenAt.Store(time.Now())

			return toPoses(resp.Poses), nil
		}
	}
}

// writeWithTimeout writes a request, bounding the write so a hung worker
// cannot stall the tick indefinitely.
func (e *PythonEstimator) writeWithTimeout(frame types.Frame) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- writeRequest(e.stdin, frame)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%w: failed to send frame: %v", ErrWorker, err)
		}
		return nil
	case <-time.After(writeTimeout):
		return fmt.Errorf("%w: timed out sending frame after %s", ErrWorker, writeTimeout)
	}
}

// readResults pumps worker stdout lines into the results channel.
func (e *PythonEstimator) readResults(reader *bufio.Reader) {
	defer e.wg.Done()
	defer close(e.results)

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if e.ctx.Err() == nil {
				slog.Error("pose worker stdout closed", "error", err)
			}
			return
		}

		resp, err := parseResponse(line)
		if err != nil {
			slog.Error("skipping malformed worker response", "error", err)
			continue
		}

		select {
		case e.results <- resp:
		case <-e.ctx.Done():
			return
		}
	}
}

// logStderr relays worker stderr into slog, mapping Python log levels.
func (e *PythonEstimator) logStderr() {
	defer e.wg.Done()

	scanner := bufio.NewScanner(e.stderr)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "[ERROR]") || strings.Contains(line, "[CRITICAL]"):
			slog.Error("pose worker", "stderr", line)
		case strings.Contains(line, "[WARNING]") || strings.Contains(line, "[WARN]"):
			slog.Warn("pose worker", "stderr", line)
		default:
			slog.Debug("pose worker", "stderr", line)
		}
	}
}

// waitProcess reaps the worker process to prevent zombies.
func (e *PythonEstimator) waitProcess() {
	defer e.wg.Done()

	err := e.cmd.Wait()
	if err != nil && e.ctx.Err() == nil {
		slog.Error("pose worker exited unexpectedly", "error", err)
	}
}

// Close shuts down the worker. Idempotent.
func (e *PythonEstimator) Close() error {
	if e.cancel == nil {
		return nil
	}
	e.isActive.Store(false)
	e.closeOnce.Do(e.teardown)
	return nil
}

func (e *PythonEstimator) teardown() {
	e.cancel()
	if e.stdin != nil {
		e.stdin.Close() // signals the worker to exit
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		slog.Warn("pose worker did not exit, killing", "timeout", stopTimeout)
		if e.cmd != nil && e.cmd.Process != nil {
			e.cmd.Process.Kill()
		}
		<-done
	}
}

// Metrics returns current estimator health metrics.
func (e *PythonEstimator) Metrics() Metrics {
	estimates := atomic.LoadUint64(&e.estimateCount)

	var avgLatency float64
	if estimates > 0 {
		avgLatency = float64(atomic.LoadUint64(&e.totalLatencyUS)) / float64(estimates) / 1000.0
	}

	m := Metrics{
		Estimates:    estimates,
		Errors:       atomic.LoadUint64(&e.errorCount),
		AvgLatencyMS: avgLatency,
	}
	if ts, ok := e.lastSeenAt.Load().(time.Time); ok {
		m.LastSeenAt = ts
	}
	return m
}
