package supervisor

import (
	"time"
)

// MetricsCollector defines the interface for collecting supervisor metrics
type MetricsCollector interface {
	// LaunchDuration records the duration of a launch attempt and its outcome
	LaunchDuration(duration time.Duration, err error)

	// ReadinessProbe records the total duration of a readiness probe run
	// and its outcome
	ReadinessProbe(duration time.Duration, err error)

	// StopDuration records the duration of backend termination
	StopDuration(duration time.Duration)

	// BackendUp records whether a managed backend is currently running
	BackendUp(up bool)
}

// noopMetricsCollector is a no-op implementation of MetricsCollector
type noopMetricsCollector struct{}

func (n *noopMetricsCollector) LaunchDuration(duration time.Duration, err error) {}
func (n *noopMetricsCollector) ReadinessProbe(duration time.Duration, err error) {}
func (n *noopMetricsCollector) StopDuration(duration time.Duration)              {}
func (n *noopMetricsCollector) BackendUp(up bool)                                {}

// NewNoopMetricsCollector creates a no-op metrics collector
func NewNoopMetricsCollector() MetricsCollector {
	return &noopMetricsCollector{}
}
