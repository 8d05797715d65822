// whodb-desktop is the desktop shell's launcher process. It supervises the
// companion backend (spawn, readiness gate, teardown) and exposes its address
// to the window layer. Run with -diagnostics-port to inspect metrics and
// health locally while debugging a broken install.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clidey/whodb-desktop/pkg/observability"
	"github.com/clidey/whodb-desktop/pkg/shell"
	"github.com/clidey/whodb-desktop/pkg/supervisor"
)

// version is injected at build time via -ldflags.
var version = "dev"

var (
	configPath      = flag.String("config", "", "Path to supervisor YAML config (defaults apply when empty)")
	development     = flag.Bool("dev", false, "Probe development binary locations first")
	captureOutput   = flag.Bool("capture-output", false, "Pipe backend stdout/stderr into the structured log")
	diagnosticsPort = flag.Int("diagnostics-port", 0, "Local port for /metrics, /live and /ready (0 disables)")
	enableTracing   = flag.Bool("trace", false, "Export launch traces to stdout")
	logLevel        = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal error",
			"error", err,
			"suggestion", supervisor.GetSuggestion(err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	if *development {
		config.Development = true
	}
	if *captureOutput {
		config.CaptureOutput = true
	}

	logger.Info("starting whodb desktop shell",
		"version", version,
		"binary_name", config.BinaryName,
		"development", config.Development)

	metrics := supervisor.NewPrometheusMetricsCollector("whodb_desktop")

	sup, err := supervisor.New(config,
		supervisor.WithLogger(logger),
		supervisor.WithMetricsCollector(metrics),
		supervisor.WithEventPublisher(&supervisor.LogEventPublisher{Logger: logger}),
	)
	if err != nil {
		return err
	}

	obs := observability.NewManager(
		&observability.Config{
			ServiceName:     "whodb-desktop",
			ServiceVersion:  version,
			DiagnosticsPort: *diagnosticsPort,
			EnableTracing:   *enableTracing,
		},
		metrics.Registry(),
		sup.BackendURL,
		logger,
	)

	ctx := context.Background()
	if err := obs.Initialize(ctx); err != nil {
		return err
	}

	app := shell.NewApp(sup, shell.WithLogger(logger))
	app.Startup(ctx)

	// Gate on readiness so the window never shows a dead page. Degraded mode
	// is tolerated the same way as launch failure: log and keep running.
	readyCtx, cancel := context.WithTimeout(ctx,
		time.Duration(config.ProbeAttempts)*config.ProbeInterval+config.ProbeTimeout)
	err = app.WaitForBackendReady(readyCtx)
	cancel()
	if err != nil {
		logger.Error("backend not ready, continuing in degraded mode",
			"error", err,
			"suggestion", supervisor.GetSuggestion(err))
	} else {
		logger.Info("backend ready", "url", app.GetBackendURL())
	}

	runWindow(ctx, app, logger)

	app.Shutdown(ctx)
	if err := obs.Shutdown(ctx); err != nil {
		logger.Error("observability shutdown error", "error", err)
	}

	logger.Info("whodb desktop shell stopped")
	return nil
}

// runWindow hands control to the window layer. The headless build blocks
// until an interrupt, standing in for the framework's event loop; the window
// framework's run call replaces this in packaged builds.
func runWindow(ctx context.Context, app *shell.App, logger *slog.Logger) {
	logger.Info("backend available", "url", app.GetBackendURL())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("shutdown signal received", "signal", sig.String())
}

func loadConfig() (*supervisor.Config, error) {
	if *configPath == "" {
		return supervisor.DefaultConfig(), nil
	}
	config, err := supervisor.LoadConfig(*configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return config, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
