// Package scheduler runs the ingestion jobs on their cron schedules.
// Jobs never overlap: a mutex serializes execution, so a slow items run
// simply delays the next roster tick instead of racing it.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/bpdaum/wipesontrash-sub000/internal/config"
	"github.com/bpdaum/wipesontrash-sub000/internal/job"
)

// Scheduler owns the cron instance driving the four ingestion jobs
type Scheduler struct {
	cfg    *config.Config
	runner *job.Runner
	cron   *cron.Cron

	mu sync.Mutex // serializes job runs across schedules
}

// NewScheduler creates a scheduler around an existing job runner
func NewScheduler(cfg *config.Config, runner *job.Runner) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		cron:   cron.New(),
	}
}

// Start registers the cron entries and starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	entries := []struct {
		name string
		spec string
	}{
		{job.JobRoster, s.cfg.RosterCron},
		{job.JobItems, s.cfg.ItemsCron},
		{job.JobLogs, s.cfg.LogsCron},
		{job.JobGuide, s.cfg.GuideCron},
	}

	for _, e := range entries {
		name, spec := e.name, e.spec
		if _, err := s.cron.AddFunc(spec, func() {
			s.runJob(ctx, name)
		}); err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", name, err)
		}
		log.Info().Str("job", name).Str("schedule", spec).Msg("Job scheduled")
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron scheduler; a job already running finishes first
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	log.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) runJob(ctx context.Context, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if err := s.runner.Run(ctx, name); err != nil {
		log.Error().Err(err).Str("job", name).Msg("Scheduled job failed")
	}
}
