package supervisor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsCollector implements MetricsCollector using Prometheus metrics
type PrometheusMetricsCollector struct {
	launchDuration *prometheus.HistogramVec
	probeDuration  *prometheus.HistogramVec
	stopDuration   prometheus.Histogram
	backendUp      prometheus.Gauge

	registry *prometheus.Registry
}

// NewPrometheusMetricsCollector creates a new Prometheus metrics collector
// backed by its own private registry.
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	if namespace == "" {
		namespace = "supervisor"
	}

	pmc := &PrometheusMetricsCollector{
		registry: prometheus.NewRegistry(),
	}

	pmc.launchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_launch_duration_seconds",
			Help:      "Duration of backend launch attempts",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	pmc.probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_readiness_probe_duration_seconds",
			Help:      "Total duration of readiness probe runs",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"result"},
	)

	pmc.stopDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_stop_duration_seconds",
			Help:      "Duration of backend termination",
			Buckets:   prometheus.DefBuckets,
		},
	)

	pmc.backendUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_up",
			Help:      "Whether a managed backend process is currently running",
		},
	)

	pmc.registry.MustRegister(
		pmc.launchDuration,
		pmc.probeDuration,
		pmc.stopDuration,
		pmc.backendUp,
	)

	return pmc
}

// Registry returns the private registry for exposition via promhttp.
func (pmc *PrometheusMetricsCollector) Registry() *prometheus.Registry {
	return pmc.registry
}

// LaunchDuration records the duration of a launch attempt and its outcome
func (pmc *PrometheusMetricsCollector) LaunchDuration(duration time.Duration, err error) {
	pmc.launchDuration.WithLabelValues(resultLabel(err)).Observe(duration.Seconds())
}

// ReadinessProbe records the total duration of a readiness probe run
func (pmc *PrometheusMetricsCollector) ReadinessProbe(duration time.Duration, err error) {
	pmc.probeDuration.WithLabelValues(resultLabel(err)).Observe(duration.Seconds())
}

// StopDuration records the duration of backend termination
func (pmc *PrometheusMetricsCollector) StopDuration(duration time.Duration) {
	pmc.stopDuration.Observe(duration.Seconds())
}

// BackendUp records whether a managed backend is currently running
func (pmc *PrometheusMetricsCollector) BackendUp(up bool) {
	if up {
		pmc.backendUp.Set(1)
	} else {
		pmc.backendUp.Set(0)
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
