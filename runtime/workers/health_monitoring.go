//go:generate go run go.uber.org/mock/mockgen -source=health_monitoring.go -destination=../../mocks/mock_health_monitoring.go -package=mocks
package workers

import (
	"context"
	"log/slog"
	"time"
)

// StatusSetter publishes the serving status, the gRPC health server implements it.
type StatusSetter interface {
	SetServing(serving bool)
}

// Probe reports an error when a dependency is unusable.
type Probe struct {
	Name  string
	Check func() error
}

// HealthMonitoringWorker runs the probes at a fixed interval and flips the
// serving status when the outcome changes.
type HealthMonitoringWorker struct {
	log      *slog.Logger
	status   StatusSetter
	probes   []Probe
	interval time.Duration
	serving  *bool
}

func NewHealthMonitoringWorker(log *slog.Logger, status StatusSetter, interval time.Duration, probes ...Probe) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{log: log, status: status, probes: probes, interval: interval}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.check()
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
		}
	}
}

func (w *HealthMonitoringWorker) check() {
	serving := true
	for _, probe := range w.probes {
		if err := probe.Check(); err != nil {
			w.log.Warn("Health probe failed", "probe", probe.Name, "error", err)
			serving = false
		}
	}
	if w.serving != nil && *w.serving == serving {
		return
	}
	w.serving = &serving
	w.log.Info("Serving status changed", "serving", serving)
	w.status.SetServing(serving)
}
