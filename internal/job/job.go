// Package job holds the four ingestion jobs: roster, items, logs, guide.
// Each job is a sequential fetch → map → upsert pass; failures inside a
// unit degrade to partial data and a log line, never a crash.
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bpdaum/wipesontrash-sub000/internal/blizzard"
	"github.com/bpdaum/wipesontrash-sub000/internal/cache"
	"github.com/bpdaum/wipesontrash-sub000/internal/config"
	"github.com/bpdaum/wipesontrash-sub000/internal/guide"
	"github.com/bpdaum/wipesontrash-sub000/internal/metrics"
	"github.com/bpdaum/wipesontrash-sub000/internal/reconcile"
	"github.com/bpdaum/wipesontrash-sub000/internal/repository"
	"github.com/bpdaum/wipesontrash-sub000/internal/warcraftlogs"
)

// Job names accepted by Run
const (
	JobRoster = "roster"
	JobItems  = "items"
	JobLogs   = "logs"
	JobGuide  = "guide"
	JobAll    = "all"
)

// Runner wires the clients, repositories, and resolver behind the jobs
type Runner struct {
	cfg      *config.Config
	db       *repository.Database
	game     *blizzard.Client
	logs     *warcraftlogs.Client
	guide    *guide.Scraper
	resolver *reconcile.Resolver
	cache    *cache.RedisCache
}

// NewRunner creates a job runner. cache may be nil.
func NewRunner(
	cfg *config.Config,
	db *repository.Database,
	game *blizzard.Client,
	logs *warcraftlogs.Client,
	scraper *guide.Scraper,
	redisCache *cache.RedisCache,
) *Runner {
	return &Runner{
		cfg:      cfg,
		db:       db,
		game:     game,
		logs:     logs,
		guide:    scraper,
		resolver: reconcile.NewResolver(db.Items, db.Suggestions, game),
		cache:    redisCache,
	}
}

// Run executes one named job (or all of them in dependency order),
// recording outcome metrics
func (r *Runner) Run(ctx context.Context, name string) error {
	if name == JobAll {
		for _, job := range []string{JobItems, JobRoster, JobLogs, JobGuide} {
			if err := r.Run(ctx, job); err != nil {
				log.Error().Err(err).Str("job", job).Msg("Job failed, continuing with the rest")
			}
		}
		return nil
	}

	start := time.Now()
	log.Info().Str("job", name).Msg("Job starting")

	var err error
	switch name {
	case JobRoster:
		err = r.SyncRoster(ctx)
	case JobItems:
		err = r.SyncItems(ctx)
	case JobLogs:
		err = r.SyncLogs(ctx)
	case JobGuide:
		err = r.SyncGuide(ctx)
	default:
		return fmt.Errorf("unknown job %q", name)
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.RecordJob(name, status, time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("job %s failed: %w", name, err)
	}

	log.Info().
		Str("job", name).
		Dur("duration", time.Since(start)).
		Msg("Job complete")
	return nil
}
