package supervisor

import (
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// BackendStats is a point-in-time resource snapshot of the running backend,
// for the shell's diagnostics panel.
type BackendStats struct {
	PID        int
	Port       uint16
	CPUPercent float64
	RSSBytes   uint64
	Uptime     time.Duration
}

// Stats returns resource usage of the managed backend process.
// Returns a NO_BACKEND error when no child is running.
func (s *Supervisor) Stats() (*BackendStats, error) {
	handle := s.currentHandle()
	if handle == nil {
		return nil, ErrNoBackend()
	}

	proc, err := process.NewProcess(int32(handle.PID))
	if err != nil {
		return nil, ErrNoBackend().WithCause(err).
			WithContext("pid", handle.PID)
	}

	stats := &BackendStats{
		PID:  handle.PID,
		Port: handle.Port,
	}

	if cpu, err := proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}

	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		stats.RSSBytes = mem.RSS
	}

	if created, err := proc.CreateTime(); err == nil {
		stats.Uptime = time.Since(time.UnixMilli(created))
	}

	return stats, nil
}
