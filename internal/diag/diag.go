// Package diag samples the viewer's own process so the status bar can
// show what the tool itself costs on the machine it monitors from.
package diag

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats is one sample of the viewer process.
type Stats struct {
	CPUPercent float64
	RSSBytes   uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("cpu %.1f%%  rss %s", s.CPUPercent, formatBytes(s.RSSBytes))
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// Sampler reads CPU and memory usage of the current process.
type Sampler struct {
	proc *process.Process
}

func NewSampler() (*Sampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open own process: %w", err)
	}
	return &Sampler{proc: proc}, nil
}

// Sample returns current usage. CPU percent is measured since the
// previous call, so the first sample reads as zero.
func (s *Sampler) Sample() (Stats, error) {
	cpu, err := s.proc.Percent(0)
	if err != nil {
		return Stats{}, err
	}
	mem, err := s.proc.MemoryInfo()
	if err != nil {
		return Stats{}, err
	}
	return Stats{CPUPercent: cpu, RSSBytes: mem.RSS}, nil
}
