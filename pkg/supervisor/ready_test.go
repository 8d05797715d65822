package supervisor

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probeConfig(attempts int) *Config {
	cfg := DefaultConfig()
	cfg.GracePeriod = 20 * time.Millisecond
	cfg.ProbeInterval = 10 * time.Millisecond
	cfg.ProbeAttempts = attempts
	cfg.ProbeTimeout = 500 * time.Millisecond
	return cfg
}

func probeSupervisor(t *testing.T, cfg *Config) *Supervisor {
	t.Helper()
	s, err := New(cfg, WithLocator(testLocator(cfg, t.TempDir(), "linux")))
	require.NoError(t, err)
	return s
}

func TestWaitForURL_SucceedsAfterRetries(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := probeSupervisor(t, probeConfig(10))
	err := s.waitForURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(3), requests.Load())
}

func TestWaitForURL_BudgetExhausted(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := probeSupervisor(t, probeConfig(3))
	err := s.waitForURL(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsErrorCode(err, ErrorCodeBackendTimeout))

	// The budget is exact: attempts means attempts, not attempts plus one.
	assert.Equal(t, int64(3), requests.Load())

	var supErr *SupervisorError
	require.ErrorAs(t, err, &supErr)
	assert.Equal(t, 3, supErr.Context["attempts"])
	assert.Equal(t, srv.URL, supErr.Context["url"])
}

func TestWaitForURL_ConnectionRefused(t *testing.T) {
	// Grab a URL that is guaranteed to refuse connections.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := probeSupervisor(t, probeConfig(2))
	err := s.waitForURL(context.Background(), url)
	require.Error(t, err)
	assert.True(t, IsErrorCode(err, ErrorCodeBackendTimeout))
}

func TestWaitForURL_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := probeConfig(1000)
	s := probeSupervisor(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := s.waitForURL(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitForURL_MalformedURL(t *testing.T) {
	s := probeSupervisor(t, probeConfig(3))

	start := time.Now()
	err := s.waitForURL(context.Background(), "://missing-scheme")
	require.Error(t, err)

	// A URL that cannot form a request is reported as such, not disguised
	// as probe budget exhaustion, and no retry budget is burned on it.
	assert.False(t, IsErrorCode(err, ErrorCodeBackendTimeout))
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitForReady_DegradedModeProbesDefaultPort(t *testing.T) {
	// Without a managed backend WaitForReady probes the well-known port, so
	// an externally started backend still satisfies the UI's readiness gate.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := probeConfig(3)
	cfg.DefaultPort = serverPort(t, srv)
	s := probeSupervisor(t, cfg)

	require.NoError(t, s.WaitForReady(context.Background()))
}

func serverPort(t *testing.T, srv *httptest.Server) uint16 {
	t.Helper()
	addr := srv.Listener.Addr().(*net.TCPAddr)
	return uint16(addr.Port)
}
