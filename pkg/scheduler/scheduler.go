// Package scheduler runs ingestion on a fixed interval, complementing the
// externally invoked cron endpoint for deployments without an outside
// trigger.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
)

// Runner executes one ingestion run
type Runner interface {
	Run(ctx context.Context) (added int, err error)
}

// Scheduler drives periodic ingestion runs
type Scheduler struct {
	runner   Runner
	interval time.Duration
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// New creates a scheduler. A zero interval disables it entirely.
func New(runner Runner, interval time.Duration) *Scheduler {
	return &Scheduler{runner: runner, interval: interval}
}

// Start begins the periodic worker. The first run fires immediately.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		lgr.Printf("[INFO] periodic ingestion disabled")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.worker(ctx)

	lgr.Printf("[INFO] scheduler started with ingestion interval %v", s.interval)
}

// Stop gracefully stops the scheduler, waiting for an in-flight run
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	lgr.Printf("[INFO] stopping scheduler...")
	s.cancel()
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// worker runs ingestion on every tick until the context is canceled
func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// run immediately on start
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	added, err := s.runner.Run(ctx)
	if err != nil {
		lgr.Printf("[ERROR] scheduled ingestion failed: %v", err)
		return
	}
	if added > 0 {
		lgr.Printf("[INFO] scheduled ingestion added %d posts", added)
	}
}
