package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs deferred tasks. Tasks sharing a key run one after the
// other in submission order, each no sooner than its own delay. Pending
// tasks are dropped by Stop, Wait blocks until every started task returns.
type Scheduler struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	tails  map[string]chan struct{} // map key -> completion of the last submitted task
	log    *slog.Logger
}

func NewScheduler(log *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel, tails: make(map[string]chan struct{}), log: log}
}

// Schedule returns false once the scheduler is stopped.
// No lock of the caller is held while the task is pending.
func (s *Scheduler) Schedule(key string, delay time.Duration, task func(ctx context.Context)) bool {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	previous := s.tails[key]
	done := make(chan struct{})
	s.tails[key] = done
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.complete(key, done)

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			return
		}
		if previous != nil {
			select {
			case <-previous:
			case <-s.ctx.Done():
				return
			}
		}
		s.run(key, task)
	}()
	return true
}

func (s *Scheduler) run(key string, task func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Scheduled task panicked", "key", key, "panic", r)
		}
	}()
	task(s.ctx)
}

func (s *Scheduler) complete(key string, done chan struct{}) {
	s.mu.Lock()
	if s.tails[key] == done {
		delete(s.tails, key)
	}
	s.mu.Unlock()
	close(done)
}

// Wait blocks until every task scheduled so far has run or been dropped.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Stop drops pending tasks and waits for running ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}
