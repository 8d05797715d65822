package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Supervisor owns the lifecycle of the companion backend process: it
// allocates the backend's port, locates and spawns the executable, verifies
// it stayed up, exposes its address to the UI layer, and tears it down on
// application exit.
//
// The supervisor is constructed once at startup and passed by shared
// reference to every callback site. All handle access is serialized through a
// single mutex; the lock is held only to read or replace the handle, never
// across spawn, wait, or probe I/O.
type Supervisor struct {
	config *Config

	mu        sync.Mutex
	handle    *BackendHandle
	launching bool

	// Last-known identifiers, retained read-only after termination
	lastPort uint16
	lastPID  int

	locator    *Locator
	logger     *slog.Logger
	metrics    MetricsCollector
	events     EventPublisher
	httpClient *http.Client
	tracer     trace.Tracer
}

// New creates a supervisor for the given configuration.
func New(config *Config, opts ...Option) (*Supervisor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Supervisor{
		config:  config,
		logger:  slog.Default(),
		metrics: NewNoopMetricsCollector(),
		events:  &NoopEventPublisher{},
		tracer:  otel.Tracer("whodb-desktop/supervisor"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: config.ProbeTimeout}
	}

	if s.locator == nil {
		locator, err := NewLocator(config)
		if err != nil {
			return nil, err
		}
		s.locator = locator
	}

	return s, nil
}

// Start performs the one-shot launch sequence: allocate an ephemeral port,
// locate the backend binary, spawn it with the port injected, and verify it
// survived the grace period. On success the handle is installed and the
// backend's address becomes visible to accessors.
//
// Start is invoked once from the shell's setup hook. If a backend is already
// managed or another Start is mid-launch, Start is a no-op. A failure leaves the supervisor in degraded
// mode: accessors fall back to the well-known default port, so an externally
// managed backend may still answer. Callers log the error and continue.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.handle != nil || s.launching {
		s.mu.Unlock()
		return nil
	}
	s.launching = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.launching = false
		s.mu.Unlock()
	}()

	launchID := uuid.New().String()
	ctx, span := s.tracer.Start(ctx, "backend.launch",
		trace.WithAttributes(attribute.String("launch.id", launchID)))
	defer span.End()

	start := time.Now()
	handle, err := s.launch(ctx, launchID)
	s.metrics.LaunchDuration(time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "launch failed")
		s.metrics.BackendUp(false)
		s.publishEvent(ctx, EventCrashed, "backend launch failed", map[string]string{
			"launch_id": launchID,
			"error":     err.Error(),
		})
		return err
	}

	s.mu.Lock()
	s.handle = handle
	s.lastPort = handle.Port
	s.lastPID = handle.PID
	s.mu.Unlock()

	go s.observeExit(handle)

	span.SetAttributes(
		attribute.Int("backend.port", int(handle.Port)),
		attribute.Int("backend.pid", handle.PID),
	)
	s.metrics.BackendUp(true)
	s.publishEvent(ctx, EventStarting, "backend process launched", map[string]string{
		"launch_id": launchID,
		"port":      fmt.Sprintf("%d", handle.Port),
		"pid":       fmt.Sprintf("%d", handle.PID),
	})

	return nil
}

// observeExit waits for the child to be reaped and, if the exit was not
// driven by Stop, clears the handle so accessors stop reporting a dead
// process. Exactly one of observeExit and Stop retires a given handle: both
// compare-and-clear under the lock, so the loser sees a mismatch and leaves
// the event publishing to the winner.
func (s *Supervisor) observeExit(handle *BackendHandle) {
	<-handle.done

	s.mu.Lock()
	crashed := s.handle == handle
	if crashed {
		s.handle = nil
	}
	s.mu.Unlock()

	if !crashed {
		return
	}

	_, code := handle.Exited()
	s.metrics.BackendUp(false)
	s.publishEvent(context.Background(), EventCrashed, "backend process exited unexpectedly", map[string]string{
		"pid":       fmt.Sprintf("%d", handle.PID),
		"exit_code": fmt.Sprintf("%d", code),
	})

	s.logger.Error("backend process exited unexpectedly",
		"pid", handle.PID,
		"exit_code", code)
}

// launch runs the allocate → locate → spawn → verify pipeline.
func (s *Supervisor) launch(ctx context.Context, launchID string) (*BackendHandle, error) {
	port, err := AllocatePort()
	if err != nil {
		return nil, err
	}

	path, err := s.locator.Locate()
	if err != nil {
		return nil, err
	}

	s.logger.Info("launching backend",
		"launch_id", launchID,
		"path", path,
		"port", port)

	return s.launchProcess(ctx, path, port)
}

// Stop terminates the managed backend, if any. It is idempotent and safe to
// invoke redundantly: the handle is taken exactly once under the lock, and
// redundant calls find nothing to do.
//
// Termination is best-effort with no escalation: one kill signal, one
// blocking wait. A kill rejected by the OS is logged only; shutdown must
// never block or fail the shell's own exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	handle := s.handle
	s.handle = nil
	s.mu.Unlock()

	if handle == nil {
		return
	}

	start := time.Now()
	if exited, _ := handle.Exited(); !exited {
		if err := handle.cmd.Process.Kill(); err != nil {
			s.logger.Error("failed to kill backend process",
				"pid", handle.PID,
				"error", err)
		}
	}

	// Wait for the monitor goroutine to reap the child so no zombie is left
	// behind. The kill above makes this prompt.
	<-handle.done

	s.metrics.StopDuration(time.Since(start))
	s.metrics.BackendUp(false)
	s.publishEvent(context.Background(), EventStopped, "backend process stopped", map[string]string{
		"pid": fmt.Sprintf("%d", handle.PID),
	})

	s.logger.Info("backend process stopped",
		"pid", handle.PID,
		"stop_duration", time.Since(start))
}

// currentHandle returns the handle of a live child, or nil. A handle whose
// done channel has closed counts as absent even before observeExit clears
// it, so accessors never report a dead process as running.
func (s *Supervisor) currentHandle() *BackendHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil
	}
	if exited, _ := s.handle.Exited(); exited {
		return nil
	}
	return s.handle
}

// CurrentPort returns the managed backend's port. The second return is false
// before launch and after termination, whether the child was stopped or died
// on its own.
func (s *Supervisor) CurrentPort() (uint16, bool) {
	handle := s.currentHandle()
	if handle == nil {
		return 0, false
	}
	return handle.Port, true
}

// CurrentPID returns the managed backend's process ID, if one is running.
func (s *Supervisor) CurrentPID() (int, bool) {
	handle := s.currentHandle()
	if handle == nil {
		return 0, false
	}
	return handle.PID, true
}

// LastKnown returns the most recent port and PID observed for a managed
// backend, retained after termination for diagnostics. Both are zero when
// no launch ever succeeded.
func (s *Supervisor) LastKnown() (port uint16, pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPort, s.lastPID
}

// EffectivePort returns the managed backend's port, or the well-known
// default port in degraded mode, when nothing is managed.
func (s *Supervisor) EffectivePort() uint16 {
	port, ok := s.CurrentPort()
	if !ok {
		return s.config.DefaultPort
	}
	return port
}

// BackendURL constructs the loopback URL of the backend from the
// effective port.
func (s *Supervisor) BackendURL() string {
	return fmt.Sprintf("http://localhost:%d", s.EffectivePort())
}

func (s *Supervisor) publishEvent(ctx context.Context, eventType, message string, metadata map[string]string) {
	if err := s.events.PublishLifecycleEvent(ctx, eventType, message, metadata); err != nil {
		s.logger.Warn("failed to publish lifecycle event",
			"event_type", eventType,
			"error", err)
	}
}
