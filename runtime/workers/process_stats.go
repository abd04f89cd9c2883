package workers

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

type ProcessSnapshot struct {
	RSSBytes   uint64    `json:"rssBytes"`
	CPUPercent float64   `json:"cpuPercent"`
	Goroutines int       `json:"goroutines"`
	SampledAt  time.Time `json:"sampledAt"`
}

// ProcessStats samples the relay's own memory and CPU usage at a fixed
// interval. The debug server reads the latest sample.
type ProcessStats struct {
	log      *slog.Logger
	interval time.Duration
	latest   atomic.Pointer[ProcessSnapshot]
	count    func() int
}

// NewProcessStats takes the goroutine counter as a function so tests can stub it.
func NewProcessStats(log *slog.Logger, interval time.Duration, goroutines func() int) *ProcessStats {
	return &ProcessStats{log: log, interval: interval, count: goroutines}
}

func (w *ProcessStats) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sample(p)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *ProcessStats) sample(p *process.Process) {
	mem, err := p.MemoryInfo()
	if err != nil {
		w.log.Error("Failed to collect memory stats", "err", err)
		return
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		w.log.Error("Failed to collect cpu stats", "err", err)
		return
	}
	w.latest.Store(&ProcessSnapshot{
		RSSBytes:   mem.RSS,
		CPUPercent: cpu,
		Goroutines: w.count(),
		SampledAt:  time.Now().UTC(),
	})
}

// Latest returns nil before the first sample.
func (w *ProcessStats) Latest() *ProcessSnapshot {
	return w.latest.Load()
}
