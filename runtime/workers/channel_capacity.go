package workers

import (
	"context"
	"log/slog"
	"reflect"
	"sync/atomic"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

type ChannelUsage struct {
	Name     string `json:"name"`
	Length   int    `json:"length"`
	Capacity int    `json:"capacity"`
}

// ChannelCapacityWorker periodically samples the length and capacity of the
// given channels and warns when one fills past the threshold.
// Reading len(channel) and cap(channel) is non-blocking, so sampling does not
// interfere with producers or consumers.
type ChannelCapacityWorker struct {
	log       *slog.Logger
	channels  []NamedChannel
	interval  time.Duration
	threshold float64
	latest    atomic.Pointer[[]ChannelUsage]
}

// NewChannelCapacityWorker warns once a channel is more than threshold full (0..1).
func NewChannelCapacityWorker(log *slog.Logger, interval time.Duration, threshold float64,
	channels ...NamedChannel) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:       log,
		channels:  channels,
		interval:  interval,
		threshold: threshold,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.sample()
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel sampling")
			return nil
		case <-ticker.C:
		}
	}
}

func (w *ChannelCapacityWorker) sample() {
	usages := make([]ChannelUsage, 0, len(w.channels))
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		usage := ChannelUsage{Name: nc.Name, Length: v.Len(), Capacity: v.Cap()}
		if usage.Capacity > 0 && float64(usage.Length)/float64(usage.Capacity) > w.threshold {
			w.log.Warn("Channel close to saturation", "name", usage.Name,
				"length", usage.Length, "capacity", usage.Capacity)
		}
		usages = append(usages, usage)
	}
	w.latest.Store(&usages)
}

// Latest returns the last sample, nil before the first tick.
func (w *ChannelCapacityWorker) Latest() []ChannelUsage {
	if usages := w.latest.Load(); usages != nil {
		return *usages
	}
	return nil
}
