package supervisor

import (
	"context"
	"log/slog"
)

// Lifecycle event types published through the EventPublisher.
const (
	// EventStarting - backend process launched, not yet verified ready
	EventStarting = "starting"
	// EventReady - backend answered the readiness probe
	EventReady = "ready"
	// EventStopped - backend terminated by the shell
	EventStopped = "stopped"
	// EventCrashed - backend failed to launch or died unexpectedly
	EventCrashed = "crashed"
	// EventUnhealthy - readiness probe budget exhausted
	EventUnhealthy = "unhealthy"
)

// EventPublisher receives backend lifecycle transitions. The shell's window
// layer can subscribe to surface "backend unavailable" states; diagnostics
// tooling can forward them elsewhere.
type EventPublisher interface {
	// PublishLifecycleEvent reports a lifecycle transition.
	//
	// Parameters:
	//   ctx: Context for the operation
	//   eventType: Type of event (starting, ready, stopped, crashed, unhealthy)
	//   message: Human-readable description of the event
	//   metadata: Additional context (launch_id, port, pid, error, ...)
	//
	// Returns error if the event could not be delivered.
	PublishLifecycleEvent(ctx context.Context, eventType, message string, metadata map[string]string) error
}

// NoopEventPublisher is a no-op implementation for callers that do not
// observe lifecycle events.
type NoopEventPublisher struct{}

// PublishLifecycleEvent does nothing.
func (n *NoopEventPublisher) PublishLifecycleEvent(ctx context.Context, eventType, message string, metadata map[string]string) error {
	return nil
}

// LogEventPublisher writes lifecycle events to a structured logger.
type LogEventPublisher struct {
	Logger *slog.Logger
}

// PublishLifecycleEvent logs the event at info level.
func (l *LogEventPublisher) PublishLifecycleEvent(ctx context.Context, eventType, message string, metadata map[string]string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	args := []any{"event_type", eventType}
	for k, v := range metadata {
		args = append(args, k, v)
	}
	logger.InfoContext(ctx, message, args...)
	return nil
}
