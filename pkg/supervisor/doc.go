// Package supervisor manages the companion backend process of the desktop
// shell: it allocates an ephemeral port, locates the backend executable
// across development and packaged layouts, spawns it with the port and origin
// allow-list injected, verifies it came up, and guarantees termination when
// the application exits.
//
// # Quick Start
//
// Construct the supervisor once at application setup and share it with every
// callback site:
//
//	sup, err := supervisor.New(supervisor.DefaultConfig(),
//	    supervisor.WithLogger(logger),
//	    supervisor.WithMetricsCollector(supervisor.NewPrometheusMetricsCollector("whodb_desktop")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := sup.Start(ctx); err != nil {
//	    // Non-fatal: the shell continues in degraded mode and assumes an
//	    // externally managed backend on the default port.
//	    logger.Error("backend launch failed", "error", err)
//	}
//	defer sup.Stop()
//
// # Liveness
//
// Two independent checks guard the launch. The immediate check waits a short
// grace period after spawn and fails the launch with IMMEDIATE_EXIT if the
// child already exited. The readiness probe, driven on demand through
// WaitForReady, polls the backend's root URL at a fixed interval for a
// bounded number of attempts and fails with BACKEND_TIMEOUT when the budget
// is exhausted; the UI layer uses it to gate first paint.
//
// # Spawned-process protocol
//
// The backend is launched with:
//
//	PORT=<decimal port>            bind address selection
//	WHODB_ALLOWED_ORIGINS=<list>   comma-separated origin allow-list
//	WHODB_DESKTOP=true             desktop-mode marker
//
// and is expected to answer a plain GET on its root path with a success
// status once ready.
//
// # Errors
//
// All failures are typed SupervisorError values carrying a stable ErrorCode,
// context for diagnosis (BINARY_NOT_FOUND enumerates every path searched),
// and an actionable suggestion. Every error is recoverable at the
// application level; launch failure never crashes the shell.
package supervisor
