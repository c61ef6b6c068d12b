// Package scheduler fires the daily menu post and retries failed
// attempts after a short delay.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"cantinabot/pkg/config"
	"cantinabot/pkg/logger"
	"cantinabot/pkg/menu"
)

// Poster publishes the scheduled menu for a day.
type Poster interface {
	AutoPost(ctx context.Context, day time.Time) error
}

// Scheduler runs the daily post on weekdays at the configured local
// time. A failed attempt is retried until the day's menu goes out or
// the weekday ends.
type Scheduler struct {
	log        *logger.Logger
	poster     Poster
	loc        *time.Location
	postTime   config.Clock
	retryDelay time.Duration

	cron *cron.Cron

	mu    sync.Mutex
	retry *time.Timer

	ctx    context.Context
	cancel context.CancelFunc

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a Scheduler. The configuration must have been validated.
func New(log *logger.Logger, poster Poster, cfg *config.Config) *Scheduler {
	postTime, _ := config.ParseClock(cfg.Schedule.PostTime)
	loc := cfg.Location()
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		log:        log,
		poster:     poster,
		loc:        loc,
		postTime:   postTime,
		retryDelay: cfg.RetryDelay(),
		cron:       cron.New(cron.WithLocation(loc)),
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
	}
}

// Start schedules the daily post and starts the cron loop.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("%d %d * * MON-FRI", s.postTime.Minute, s.postTime.Hour)
	if _, err := s.cron.AddFunc(spec, s.attempt); err != nil {
		return fmt.Errorf("scheduling daily post: %w", err)
	}

	s.cron.Start()
	s.log.Info("Scheduler started",
		zap.String("spec", spec),
		zap.String("timezone", s.loc.String()))
	return nil
}

// Stop stops the cron loop and any pending retry.
func (s *Scheduler) Stop() error {
	s.cancel()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	s.mu.Lock()
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	s.mu.Unlock()

	s.log.Info("Scheduler stopped")
	return nil
}

// attempt runs one auto-post attempt for today. Failures schedule a
// retry; a retry that has drifted into the weekend is dropped.
func (s *Scheduler) attempt() {
	now := s.now().In(s.loc)
	today := menu.Day(now)

	if menu.IsWeekend(today) {
		s.clearRetry()
		s.log.Debug("Skipping scheduled post on a weekend")
		return
	}

	if err := s.poster.AutoPost(s.ctx, today); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.log.Warn("Scheduled post failed, retry scheduled",
			zap.Duration("delay", s.retryDelay),
			zap.Error(err))
		s.scheduleRetry()
		return
	}

	s.clearRetry()
}

func (s *Scheduler) scheduleRetry() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retry != nil {
		s.retry.Stop()
	}
	s.retry = time.AfterFunc(s.retryDelay, s.attempt)
}

func (s *Scheduler) clearRetry() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
}
