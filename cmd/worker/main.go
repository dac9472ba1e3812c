package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bpdaum/wipesontrash-sub000/internal/auth"
	"github.com/bpdaum/wipesontrash-sub000/internal/blizzard"
	"github.com/bpdaum/wipesontrash-sub000/internal/cache"
	"github.com/bpdaum/wipesontrash-sub000/internal/config"
	"github.com/bpdaum/wipesontrash-sub000/internal/fetch"
	"github.com/bpdaum/wipesontrash-sub000/internal/guide"
	"github.com/bpdaum/wipesontrash-sub000/internal/job"
	"github.com/bpdaum/wipesontrash-sub000/internal/metrics"
	"github.com/bpdaum/wipesontrash-sub000/internal/repository"
	"github.com/bpdaum/wipesontrash-sub000/internal/scheduler"
	"github.com/bpdaum/wipesontrash-sub000/internal/warcraftlogs"
)

func main() {
	setupLogger()

	log.Info().Msg("Starting guild data ingestion worker")

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("region", cfg.Region).
		Str("guild", cfg.GuildName).
		Str("realm", cfg.GuildRealm).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	db, err := repository.NewDatabase(ctx, cfg.DatabaseDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure schema")
	}

	redisCache, err := cache.NewRedisCache(ctx, cache.Config{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.CacheTTL,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
	} else {
		defer redisCache.Close()
		log.Info().Msg("Redis cache connected")
	}

	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort)
	}

	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	policy := fetch.DefaultPolicy()
	policy.MinInterval = cfg.APIPacing
	fetcher := fetch.New(cfg.APITimeout, policy)

	blizzardTokens := auth.NewBlizzard(cfg.BlizzardClientID, cfg.BlizzardClientSecret)
	wclTokens := auth.NewWarcraftLogs(cfg.WCLClientID, cfg.WCLClientSecret)

	game := blizzard.NewClient(fetcher, blizzardTokens,
		blizzard.DefaultBaseURL(cfg.Region), cfg.Region, cfg.Locale)
	logs := warcraftlogs.NewClient(fetcher, wclTokens, warcraftlogs.DefaultEndpoint)
	scraper := guide.NewScraper(fetcher, cfg.GuideBaseURL)

	runner := job.NewRunner(cfg, db, game, logs, scraper, redisCache)
	sched := scheduler.NewScheduler(cfg, runner)

	if cfg.EnableScheduler {
		log.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	if cfg.InitialSyncEnabled {
		log.Info().Msg("Running initial data sync...")
		if err := runner.Run(ctx, job.JobAll); err != nil {
			log.Error().Err(err).Msg("Initial sync failed, continuing anyway...")
		} else {
			log.Info().Msg("Initial sync completed successfully")
		}
	}

	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port int) {
	http.Handle("/metrics", promhttp.Handler())

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%d", port)
	log.Info().Int("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
