// Package procstat samples resource usage of the running client for the
// debug overlay footer.
package procstat

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// Sample is one reading of the client's own process.
type Sample struct {
	RSS        uint64  // bytes
	CPUPercent float64 // since process start
	Threads    int32
	Goroutines int
}

// String renders the sample compactly, e.g. "rss 14.2MB  cpu 1.3%  thr 9  gr 12".
func (s Sample) String() string {
	return fmt.Sprintf("rss %s  cpu %.1f%%  thr %d  gr %d",
		formatBytes(s.RSS), s.CPUPercent, s.Threads, s.Goroutines)
}

// Sampler reads the stats of one process.
type Sampler struct {
	proc *process.Process
}

// Self returns a sampler for the current process.
func Self() (*Sampler, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("procstat: %w", err)
	}
	return &Sampler{proc: p}, nil
}

// Read takes a sample. Fields that cannot be read on this platform are
// left zero; an error is returned only when nothing could be read.
func (s *Sampler) Read() (Sample, error) {
	out := Sample{Goroutines: runtime.NumGoroutine()}
	var failed int

	if mem, err := s.proc.MemoryInfo(); err == nil {
		out.RSS = mem.RSS
	} else {
		failed++
	}
	if cpu, err := s.proc.CPUPercent(); err == nil {
		out.CPUPercent = cpu
	} else {
		failed++
	}
	if n, err := s.proc.NumThreads(); err == nil {
		out.Threads = n
	} else {
		failed++
	}

	if failed == 3 {
		return out, fmt.Errorf("procstat: no readable stats for pid %d", s.proc.Pid)
	}
	return out, nil
}

func formatBytes(n uint64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fGB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
