package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WaitForReady polls the backend's root URL until it answers with a success
// status or the attempt budget is exhausted. It drives the asynchronous
// readiness probe the UI layer uses to gate first paint.
//
// Individual request failures (connection refused, per-request timeout,
// non-2xx status) mean "not ready yet" and the loop continues. Budget
// exhaustion yields a BACKEND_TIMEOUT error; context cancellation returns
// the context's error instead. The probe holds no supervisor lock while
// waiting on the network.
func (s *Supervisor) WaitForReady(ctx context.Context) error {
	return s.waitForURL(ctx, s.BackendURL())
}

// waitForURL is the probe loop against an explicit URL.
func (s *Supervisor) waitForURL(ctx context.Context, url string) error {
	attempts := s.config.ProbeAttempts

	// attempts-1 retries after the first try gives exactly the attempt budget
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(s.config.ProbeInterval),
			uint64(attempts-1)),
		ctx)

	// A request that cannot even be built is a caller bug, not a slow
	// backend; report it directly instead of burning the attempt budget.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	var lastErr error
	probe := func() error {
		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
		return lastErr
	}

	start := time.Now()
	err = backoff.Retry(probe, policy)
	s.metrics.ReadinessProbe(time.Since(start), err)

	if err == nil {
		s.publishEvent(ctx, EventReady, "backend is accepting requests", map[string]string{
			"url": url,
		})
		s.logger.Info("backend ready", "url", url, "waited", time.Since(start))
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.publishEvent(ctx, EventUnhealthy, "backend readiness probe exhausted", map[string]string{
		"url": url,
	})
	return ErrBackendTimeout(url, attempts, lastErr)
}
