package cart

import (
	"context"
	"time"

	"go.uber.org/multierr"
)

const shutdownFlushTimeout = 5 * time.Second

func (s *Service) markPending(owner string) {
	s.pendingMu.Lock()
	s.pending[owner] = struct{}{}
	n := len(s.pending)
	s.pendingMu.Unlock()
	s.metrics.SetPending(n)
}

func (s *Service) takePending() []string {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	owners := make([]string, 0, len(s.pending))
	for owner := range s.pending {
		owners = append(owners, owner)
	}
	s.pending = make(map[string]struct{})
	return owners
}

// Pending returns how many owners have unsaved changes queued.
func (s *Service) Pending() int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return len(s.pending)
}

// Run drives the flusher until ctx is cancelled, then drains pending writes.
// Async mode queues every mutation here; sync mode only queues writes that
// failed. Each tick also evicts idle aggregates.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
			defer cancel()
			if err := s.Flush(drainCtx); err != nil {
				s.logg.Error(ctx, "cart.flush.shutdown_failed", err)
				return err
			}
			return nil
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.flush.retry_scheduled")
			}
			s.evictIdle(ctx, s.now())
		}
	}
}

// Flush writes the current state of every dirty owner. Each owner is written
// while its lock is held, so the snapshot is the latest in-memory state and
// writes for one owner never overlap. Failed owners stay pending.
func (s *Service) Flush(ctx context.Context) error {
	owners := s.takePending()
	if len(owners) == 0 {
		return nil
	}
	started := time.Now()
	defer func() { s.metrics.ObserveFlush(time.Since(started)) }()

	var errs error
	for _, owner := range owners {
		if err := s.flushOwner(ctx, owner); err != nil {
			errs = multierr.Append(errs, err)
			s.markPending(owner)
		}
	}
	s.metrics.SetPending(s.Pending())
	return errs
}

func (s *Service) flushOwner(ctx context.Context, owner string) error {
	e := s.lookup(owner)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted || !e.dirty || e.cart == nil {
		return nil
	}
	if err := s.repo.Save(ctx, owner, e.cart); err != nil {
		s.metrics.IncPersistFailure(s.mode())
		s.logg.Error(s.logg.WithCartOwner(ctx, owner), "cart.persist.failed", err)
		return err
	}
	e.dirty = false
	return nil
}
