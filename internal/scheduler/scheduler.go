package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/common"
)

// Task is one suite run triggered by the schedule
type Task func(ctx context.Context)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks a five-field cron expression or descriptor ("@hourly", "@every 30m")
func ValidateSchedule(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// Service runs a task on a cron schedule, skipping ticks while a run is in progress
type Service struct {
	cron         *cron.Cron
	logger       arbor.ILogger
	mu           sync.Mutex // Protects isProcessing
	isProcessing bool
}

// NewService creates a new scheduler service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(cron.WithParser(parser)),
		logger: logger,
	}
}

// Run schedules task and blocks until ctx is cancelled and any in-flight run has finished
func (s *Service) Run(ctx context.Context, schedule string, task Task) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.execute(ctx, task) }); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	if entries := s.cron.Entries(); len(entries) > 0 {
		s.logger.Info().
			Str("schedule", schedule).
			Str("next_run", entries[0].Next.Format("2006-01-02 15:04:05")).
			Msg("Scheduler started")
	}

	<-ctx.Done()

	s.logger.Info().Msg("Scheduler stopping, waiting for running suite")
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// execute runs task unless a previous run is still going
func (s *Service) execute(ctx context.Context, task Task) {
	s.mu.Lock()
	if s.isProcessing {
		s.logger.Warn().Msg("Previous suite run still in progress, skipping this cycle")
		s.mu.Unlock()
		return
	}
	s.isProcessing = true
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", common.GetStackTrace()).
				Msg("Recovered from panic in scheduled run")
		}
		s.mu.Lock()
		s.isProcessing = false
		s.mu.Unlock()
	}()

	if ctx.Err() != nil {
		return
	}
	task(ctx)
}
