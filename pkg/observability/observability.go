// Package observability wires the supervisor's diagnostics onto an optional
// local HTTP listener: Prometheus metrics exposition, liveness and readiness
// endpoints, and OpenTelemetry tracing setup.
//
// Everything here is off by default. A desktop install runs with no extra
// listener; developers diagnosing launch problems enable it with a flag.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds observability configuration.
type Config struct {
	// ServiceName identifies the service in traces
	ServiceName string

	// ServiceVersion is the build version reported in traces
	ServiceVersion string

	// DiagnosticsPort is the port for the local metrics and health listener.
	// Set to 0 to disable the listener.
	DiagnosticsPort int

	// EnableTracing enables OpenTelemetry tracing with a stdout exporter
	EnableTracing bool
}

// DefaultConfig returns the observability defaults: everything disabled.
func DefaultConfig(serviceName, serviceVersion string) *Config {
	return &Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
	}
}

// BackendURLFunc resolves the backend's current base URL. The readiness
// check calls it per probe so the endpoint follows the managed port.
type BackendURLFunc func() string

// Manager owns the diagnostics listener and the tracer provider.
type Manager struct {
	config         *Config
	registry       *prometheus.Registry
	backendURL     BackendURLFunc
	logger         *slog.Logger
	tracerProvider *sdktrace.TracerProvider
	server         *http.Server
	shutdownOnce   sync.Once
}

// NewManager creates a manager. The registry may be nil when no Prometheus
// collector is in use; the /metrics endpoint then serves an empty exposition.
func NewManager(config *Config, registry *prometheus.Registry, backendURL BackendURLFunc, logger *slog.Logger) *Manager {
	if config == nil {
		config = DefaultConfig("whodb-desktop", "dev")
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if backendURL == nil {
		backendURL = func() string { return "" }
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		config:     config,
		registry:   registry,
		backendURL: backendURL,
		logger:     logger,
	}
}

// Initialize starts the enabled components.
func (m *Manager) Initialize(ctx context.Context) error {
	m.logger.Info("initializing observability",
		"service_name", m.config.ServiceName,
		"diagnostics_port", m.config.DiagnosticsPort,
		"enable_tracing", m.config.EnableTracing)

	if m.config.EnableTracing {
		if err := m.initializeTracing(ctx); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if m.config.DiagnosticsPort > 0 {
		if err := m.startDiagnosticsServer(); err != nil {
			return fmt.Errorf("failed to start diagnostics server: %w", err)
		}
		m.logger.Info("diagnostics server started",
			"port", m.config.DiagnosticsPort,
			"metrics", fmt.Sprintf("http://localhost:%d/metrics", m.config.DiagnosticsPort))
	}

	return nil
}

// initializeTracing sets up the tracer provider with a stdout exporter and
// registers it globally so the supervisor's spans are exported.
func (m *Manager) initializeTracing(ctx context.Context) error {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(m.config.ServiceName),
			semconv.ServiceVersion(m.config.ServiceVersion),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	m.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(m.tracerProvider)

	return nil
}

// GetTracer returns a tracer for the given name.
func (m *Manager) GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// healthHandler builds the liveness and readiness checks. Liveness guards
// against goroutine leaks in the shell itself; readiness reflects whether
// the backend currently answers HTTP requests.
func (m *Manager) healthHandler() healthcheck.Handler {
	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(500))
	health.AddReadinessCheck("backend-http", m.backendCheck())
	return health
}

// backendCheck probes the backend's current URL, re-resolved on every call
// so the check tracks port changes across relaunches.
func (m *Manager) backendCheck() healthcheck.Check {
	client := &http.Client{Timeout: 2 * time.Second}
	return func() error {
		url := m.backendURL()
		if url == "" {
			return fmt.Errorf("no backend URL")
		}

		resp, err := client.Get(url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("backend returned status %d", resp.StatusCode)
		}
		return nil
	}
}

// startDiagnosticsServer starts the local HTTP listener.
func (m *Manager) startDiagnosticsServer() error {
	health := m.healthHandler()

	mux := http.NewServeMux()
	mux.HandleFunc("/live", health.LiveEndpoint)
	mux.HandleFunc("/ready", health.ReadyEndpoint)
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	m.server = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", m.config.DiagnosticsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("diagnostics server error", "error", err)
		}
	}()

	return nil
}

// Shutdown stops the listener and flushes pending trace spans. Safe to call
// more than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	m.shutdownOnce.Do(func() {
		if m.server != nil {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := m.server.Shutdown(shutdownCtx); err != nil {
				m.logger.Error("failed to shutdown diagnostics server", "error", err)
				shutdownErr = fmt.Errorf("diagnostics server shutdown: %w", err)
			}
		}

		if m.tracerProvider != nil {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := m.tracerProvider.Shutdown(shutdownCtx); err != nil {
				m.logger.Error("failed to shutdown tracer provider", "error", err)
				if shutdownErr == nil {
					shutdownErr = fmt.Errorf("tracer provider shutdown: %w", err)
				}
			}
		}
	})

	return shutdownErr
}
