package supervisor

import (
	"log/slog"
	"net/http"
)

// Option configures the Supervisor
type Option func(*Supervisor)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// WithMetricsCollector sets the metrics collector
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(s *Supervisor) {
		s.metrics = mc
	}
}

// WithEventPublisher sets the lifecycle event publisher
func WithEventPublisher(ep EventPublisher) Option {
	return func(s *Supervisor) {
		s.events = ep
	}
}

// WithHTTPClient sets the client used by the readiness probe
func WithHTTPClient(client *http.Client) Option {
	return func(s *Supervisor) {
		s.httpClient = client
	}
}

// WithLocator sets a pre-built binary locator
func WithLocator(locator *Locator) Option {
	return func(s *Supervisor) {
		s.locator = locator
	}
}
