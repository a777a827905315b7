package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Requester asks the companion for fresh weather.
type Requester interface {
	RequestRefresh(ctx context.Context) error
}

// Scheduler periodically issues refresh requests the way the watch does,
// skipping requests that fall inside the cooldown of the previous one.
type Scheduler struct {
	scheduler *gocron.Scheduler
	requester Requester
	interval  time.Duration
	cooldown  time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	last time.Time
}

// New creates a new Scheduler.
func New(requester Requester, interval, cooldown time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		requester: requester,
		interval:  interval,
		cooldown:  cooldown,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Trigger(ctx)
	})
	if err != nil {
		return err
	}

	s.logger.Info("refresh schedule started", "interval", interval, "cooldown", s.cooldown)
	s.scheduler.StartAsync()
	return nil
}

// Trigger sends a refresh request unless one was sent within the cooldown.
// It reports whether a request was sent.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	s.mu.Lock()
	now := s.now()
	since := now.Sub(s.last)
	cooling := !s.last.IsZero() && since < s.cooldown
	s.mu.Unlock()

	if cooling {
		s.logger.Debug("refresh request skipped, cooling down", "since_last", since)
		return false
	}

	if err := s.requester.RequestRefresh(ctx); err != nil {
		s.logger.Warn("refresh request failed", "error", err)
		return false
	}
	s.markSent(now)
	s.logger.Info("refresh requested")
	return true
}

// Force sends a refresh request regardless of the cooldown.
func (s *Scheduler) Force(ctx context.Context) error {
	now := s.now()
	if err := s.requester.RequestRefresh(ctx); err != nil {
		return err
	}
	s.markSent(now)
	return nil
}

// markSent starts the cooldown. Only delivered requests count.
func (s *Scheduler) markSent(at time.Time) {
	s.mu.Lock()
	s.last = at
	s.mu.Unlock()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
