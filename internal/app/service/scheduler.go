package service

import (
	"context"
	"errors"
	"time"

	"token_screener/internal/app/port"
)

// Scheduler runs a refresh on start and then on a fixed interval.
type Scheduler struct {
	refresher port.Refresher
	interval  time.Duration
	logger    port.Logger
}

// NewScheduler creates a Scheduler. A non-positive interval disables periodic refreshes.
func NewScheduler(r port.Refresher, interval time.Duration, l port.Logger) *Scheduler {
	return &Scheduler{
		refresher: r,
		interval:  interval,
		logger:    l.With("component", "Scheduler"),
	}
}

// Run blocks until ctx is done. Failed cycles are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.runOnce(ctx)

	if s.interval <= 0 {
		s.logger.Info("Periodic refresh disabled")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Scheduler started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.refresher.Refresh(ctx, false); err != nil {
		if errors.Is(err, ErrNoRecords) {
			s.logger.Warn("Scheduled refresh produced no records")
			return
		}
		s.logger.Error("Scheduled refresh failed", "error", err)
	}
}
