// Package shell binds the backend supervisor to the desktop window layer.
//
// The window framework (webview host, menu bar, dialogs) calls the App's
// lifecycle hooks and invokes its accessor methods from the frontend. The
// App itself stays framework-agnostic: it knows nothing about windows beyond
// the geometry snapshot it persists between runs.
package shell

import (
	"context"
	"log/slog"

	"github.com/clidey/whodb-desktop/pkg/supervisor"
)

// App is the binding surface exposed to the desktop frontend. One instance
// is created at startup and registered with the window framework; its
// exported methods become invokable commands in the webview.
type App struct {
	supervisor *supervisor.Supervisor
	settings   *SettingsStore
	logger     *slog.Logger
}

// AppOption configures the App.
type AppOption func(*App)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithSettingsStore sets the window settings store.
func WithSettingsStore(store *SettingsStore) AppOption {
	return func(a *App) {
		a.settings = store
	}
}

// NewApp creates the binding surface around a constructed supervisor.
func NewApp(sup *supervisor.Supervisor, opts ...AppOption) *App {
	a := &App{
		supervisor: sup,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.settings == nil {
		a.settings = NewSettingsStore("")
	}
	return a
}

// Startup is the window framework's setup hook. It launches the backend and
// tolerates launch failure: the window still opens, accessors fall back to
// the well-known port, and an externally started backend keeps the app
// usable. The UI surfaces the degraded state through WaitForBackendReady.
func (a *App) Startup(ctx context.Context) {
	if err := a.supervisor.Start(ctx); err != nil {
		a.logger.Error("backend launch failed, continuing in degraded mode",
			"error", err,
			"suggestion", supervisor.GetSuggestion(err))
	}
}

// Shutdown is the window framework's teardown hook, invoked when the last
// window is destroyed. It terminates the managed backend so no orphan
// keeps the port bound.
func (a *App) Shutdown(ctx context.Context) {
	a.supervisor.Stop()
}

// GetBackendPort returns the port the frontend should talk to. In degraded
// mode this is the well-known default port.
func (a *App) GetBackendPort() uint16 {
	return a.supervisor.EffectivePort()
}

// GetBackendURL returns the backend's base URL for the frontend's API client.
func (a *App) GetBackendURL() string {
	return a.supervisor.BackendURL()
}

// WaitForBackendReady blocks until the backend answers HTTP requests or the
// probe budget runs out. The frontend awaits this before first paint so the
// initial GraphQL queries never race the backend's listener.
func (a *App) WaitForBackendReady(ctx context.Context) error {
	return a.supervisor.WaitForReady(ctx)
}

// GetBackendStats returns a resource snapshot of the managed backend for the
// diagnostics panel.
func (a *App) GetBackendStats() (*supervisor.BackendStats, error) {
	return a.supervisor.Stats()
}

// SaveWindowState persists the window geometry reported by the frontend.
func (a *App) SaveWindowState(settings WindowSettings) error {
	return a.settings.Save(settings)
}

// RestoreWindowState returns the persisted window geometry. The boolean is
// false on first run, when no state has been saved yet.
func (a *App) RestoreWindowState() (WindowSettings, bool) {
	return a.settings.Load()
}
