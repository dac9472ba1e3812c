package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("repository: not found")

// Database holds the connection pool and provides access to repositories.
// One pool per process; scripts are expected not to run concurrently
// against the same database.
type Database struct {
	Pool *pgxpool.Pool

	// Repositories
	Slots       *SlotRepository
	Sources     *SourceRepository
	Items       *ItemRepository
	Characters  *CharacterRepository
	BiS         *BiSRepository
	Suggestions *SuggestionRepository
	Reports     *ReportRepository
}

// NewDatabase creates a new connection pool and initializes repositories
func NewDatabase(ctx context.Context, dsn string) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to database")

	db := &Database{Pool: pool}
	db.Slots = &SlotRepository{db: db}
	db.Sources = &SourceRepository{db: db}
	db.Items = &ItemRepository{db: db}
	db.Characters = &CharacterRepository{db: db}
	db.BiS = &BiSRepository{db: db}
	db.Suggestions = &SuggestionRepository{db: db}
	db.Reports = &ReportRepository{db: db}

	return db, nil
}

// Close closes the connection pool
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Info().Msg("Database connection pool closed")
	}
}

// Health checks if the database is reachable
func (db *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
