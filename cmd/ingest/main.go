// Command ingest runs a single ingestion job and exits. Useful for
// backfills and for cron environments that prefer one-shot processes
// over the long-running worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bpdaum/wipesontrash-sub000/internal/auth"
	"github.com/bpdaum/wipesontrash-sub000/internal/blizzard"
	"github.com/bpdaum/wipesontrash-sub000/internal/cache"
	"github.com/bpdaum/wipesontrash-sub000/internal/config"
	"github.com/bpdaum/wipesontrash-sub000/internal/fetch"
	"github.com/bpdaum/wipesontrash-sub000/internal/guide"
	"github.com/bpdaum/wipesontrash-sub000/internal/job"
	"github.com/bpdaum/wipesontrash-sub000/internal/repository"
	"github.com/bpdaum/wipesontrash-sub000/internal/warcraftlogs"
)

func main() {
	root := &cobra.Command{
		Use:   "ingest [roster|items|logs|guide|all]",
		Short: "Run one guild data ingestion job and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runJob(args[0])
		},
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runJob(name string) error {
	setupLogger()

	cfg := config.MustLoad()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, cancelling job...")
		cancel()
	}()

	db, err := repository.NewDatabase(ctx, cfg.DatabaseDSN())
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	redisCache, err := cache.NewRedisCache(ctx, cache.Config{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.CacheTTL,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, running without cache")
	} else {
		defer redisCache.Close()
	}

	policy := fetch.DefaultPolicy()
	policy.MinInterval = cfg.APIPacing
	fetcher := fetch.New(cfg.APITimeout, policy)

	game := blizzard.NewClient(
		fetcher,
		auth.NewBlizzard(cfg.BlizzardClientID, cfg.BlizzardClientSecret),
		blizzard.DefaultBaseURL(cfg.Region), cfg.Region, cfg.Locale)
	logs := warcraftlogs.NewClient(
		fetcher,
		auth.NewWarcraftLogs(cfg.WCLClientID, cfg.WCLClientSecret),
		warcraftlogs.DefaultEndpoint)
	scraper := guide.NewScraper(fetcher, cfg.GuideBaseURL)

	runner := job.NewRunner(cfg, db, game, logs, scraper, redisCache)
	return runner.Run(ctx, name)
}

func setupLogger() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	})

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
}
