package workers

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const defaultRestartInterval = 200 * time.Millisecond

// Supervisor keeps the relay's background workers alive: the event fanout,
// the bot session reaper and the monitoring samplers. A worker that panics or
// fails is restarted after restartInterval. One returning nil is done for good.
type Supervisor struct {
	mu              sync.Mutex
	Cancel          context.CancelFunc
	wg              *sync.WaitGroup
	log             *slog.Logger
	workers         []contract.Worker
	restartInterval time.Duration
}

// NewSupervisor falls back to 200ms between restarts when restartInterval is not positive.
func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = defaultRestartInterval
	}
	return &Supervisor{wg: &sync.WaitGroup{}, log: log, restartInterval: restartInterval}
}

// Run starts every added worker and blocks until all of them returned,
// which happens once ctx is canceled or Stop is called.
func (s *Supervisor) Run(ctx context.Context) {
	relayCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.Cancel = cancel
	pending := s.workers
	s.mu.Unlock()
	defer cancel()

	s.log.Info("Relay workers starting", "count", len(pending))
	for _, worker := range pending {
		s.Start(relayCtx, worker)
	}
	s.wg.Wait()
	s.log.Info("Relay workers stopped")
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker...)
	return s
}

// Start runs worker in its own goroutine until ctx is done. A panic is
// turned into ErrWorkerPanic and handled like any other failure.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	name := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for restarts := 0; ; restarts++ {
			if ctx.Err() != nil {
				s.log.Info("Relay worker stopping", "worker", name)
				return
			}

			err := runGuarded(ctx, worker)
			switch {
			case err == nil:
				s.log.Info("Relay worker done", "worker", name)
				return
			case ctx.Err() != nil:
				s.log.Info("Relay worker stopped on shutdown", "worker", name)
				return
			}

			s.log.Warn("Relay worker failed", "worker", name, "restarts", restarts, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartInterval):
			}
		}
	}()
}

func runGuarded(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

// Stop cancels the workers. Run returns once every one of them has exited.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Cancel != nil {
		s.Cancel()
	}
}
