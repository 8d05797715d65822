package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// BackendHandle represents the running (or absent) companion process.
//
// The handle is installed in the supervisor only after the immediate liveness
// check passes; a child that dies within the grace period never becomes a
// handle. Port and PID stay readable after termination for diagnostics, via
// the supervisor's last-known fields.
type BackendHandle struct {
	// Port is the TCP port the backend was told to bind
	Port uint16

	// PID is the OS process identifier
	PID int

	cmd *exec.Cmd

	// done is closed by the monitor goroutine once the child is reaped
	done chan struct{}

	// waitErr is the result of Wait; valid only after done is closed
	waitErr error
}

// Done returns a channel closed when the child has exited and been reaped.
func (h *BackendHandle) Done() <-chan struct{} {
	return h.done
}

// Exited reports whether the child has exited, without blocking.
// The exit code is valid only when exited is true; -1 means the exit
// status could not be determined.
func (h *BackendHandle) Exited() (exited bool, code int) {
	select {
	case <-h.done:
		if h.cmd.ProcessState != nil {
			return true, h.cmd.ProcessState.ExitCode()
		}
		return true, -1
	default:
		return false, 0
	}
}

// launchProcess spawns the backend at path, injecting the allocated port and
// the origin allow-list, then applies the immediate liveness check: if the
// child exits within the grace period the launch is treated as failed even
// though the spawn itself succeeded.
func (s *Supervisor) launchProcess(ctx context.Context, path string, port uint16) (*BackendHandle, error) {
	cmd := exec.Command(path)

	env := os.Environ()
	env = append(env,
		fmt.Sprintf("PORT=%d", port),
		fmt.Sprintf("WHODB_ALLOWED_ORIGINS=%s", strings.Join(s.config.AllowedOrigins, ",")),
		"WHODB_DESKTOP=true",
	)
	cmd.Env = env

	var drainers sync.WaitGroup
	if s.config.CaptureOutput {
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, ErrSpawnFailed(path, err)
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return nil, ErrSpawnFailed(path, err)
		}
		drainers.Add(2)
		go s.drainOutput(&drainers, stdout, "stdout")
		go s.drainOutput(&drainers, stderr, "stderr")
	} else {
		// Operators watch backend logs on the shell's own streams
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, ErrSpawnFailed(path, err)
	}

	handle := &BackendHandle{
		Port: port,
		PID:  cmd.Process.Pid,
		cmd:  cmd,
		done: make(chan struct{}),
	}

	// Reap the child exactly once. Drainers must finish before Wait so the
	// pipes are fully consumed.
	go func() {
		drainers.Wait()
		handle.waitErr = cmd.Wait()
		close(handle.done)
	}()

	s.logger.Info("backend process started",
		"path", path,
		"pid", handle.PID,
		"port", port)

	// Grace period: give the child a moment to crash on startup before we
	// declare the launch good.
	select {
	case <-time.After(s.config.GracePeriod):
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-handle.done
		return nil, ctx.Err()
	}

	if exited, code := handle.Exited(); exited {
		return nil, ErrImmediateExit(path, code)
	}

	return handle, nil
}

// drainOutput forwards one child stream into the structured logger, line by
// line, so a chatty backend can never block on a full pipe buffer.
func (s *Supervisor) drainOutput(wg *sync.WaitGroup, r io.Reader, stream string) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.logger.Log(context.Background(), slog.LevelInfo, "backend output",
			"stream", stream,
			"line", scanner.Text())
	}
}
