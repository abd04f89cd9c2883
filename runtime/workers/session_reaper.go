//go:generate go run go.uber.org/mock/mockgen -source=session_reaper.go -destination=../../mocks/mock_session_reaper.go -package=mocks
package workers

import (
	"context"
	"log/slog"
	"time"
)

// ExpiringStore drops the entries idle since before now.
type ExpiringStore interface {
	PurgeExpired(now time.Time) int
}

// SessionReaper periodically purges abandoned bot conversations.
type SessionReaper struct {
	log      *slog.Logger
	store    ExpiringStore
	interval time.Duration
}

func NewSessionReaper(log *slog.Logger, store ExpiringStore, interval time.Duration) *SessionReaper {
	return &SessionReaper{log: log, store: store, interval: interval}
}

func (w *SessionReaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if purged := w.store.PurgeExpired(now); purged > 0 {
				w.log.Debug("Expired bot sessions purged", "count", purged)
			}
		}
	}
}
