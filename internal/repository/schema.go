package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schemaStatements create the shared relational schema. Every statement is
// idempotent so any job can run first on a fresh database.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS equipment_slots (
		code TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		sort_order INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS sources (
		id BIGSERIAL PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (kind, name)
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		quality TEXT,
		icon TEXT,
		slot_code TEXT NOT NULL REFERENCES equipment_slots (code),
		source_id BIGINT REFERENCES sources (id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_name_lower ON items (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS characters (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		realm TEXT NOT NULL,
		class TEXT NOT NULL,
		spec TEXT,
		role TEXT,
		status TEXT,
		status_override TEXT,
		spec_override TEXT,
		gear_score DOUBLE PRECISION,
		attendance_pct DOUBLE PRECISION,
		avg_percentile DOUBLE PRECISION,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (name, realm)
	)`,
	`CREATE TABLE IF NOT EXISTS bis_selections (
		id BIGSERIAL PRIMARY KEY,
		character_id BIGINT NOT NULL REFERENCES characters (id),
		slot_code TEXT NOT NULL REFERENCES equipment_slots (code),
		item_id BIGINT REFERENCES items (id),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (character_id, slot_code)
	)`,
	`CREATE TABLE IF NOT EXISTS bis_suggestions (
		id BIGSERIAL PRIMARY KEY,
		class TEXT NOT NULL,
		spec TEXT NOT NULL,
		slot_code TEXT NOT NULL,
		item_name TEXT NOT NULL,
		item_id BIGINT REFERENCES items (id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (class, spec, slot_code, item_name)
	)`,
	`CREATE TABLE IF NOT EXISTS reports (
		code TEXT PRIMARY KEY,
		title TEXT,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		zone TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS report_attendance (
		id BIGSERIAL PRIMARY KEY,
		report_code TEXT NOT NULL REFERENCES reports (code) ON DELETE CASCADE,
		character_id BIGINT NOT NULL REFERENCES characters (id),
		UNIQUE (report_code, character_id)
	)`,
	`CREATE TABLE IF NOT EXISTS encounter_performance (
		id BIGSERIAL PRIMARY KEY,
		report_code TEXT NOT NULL REFERENCES reports (code) ON DELETE CASCADE,
		character_id BIGINT NOT NULL REFERENCES characters (id),
		encounter_id BIGINT NOT NULL,
		metric TEXT NOT NULL,
		spec TEXT,
		percentile DOUBLE PRECISION NOT NULL,
		UNIQUE (report_code, character_id, encounter_id, metric)
	)`,
}

// EnsureSchema creates all tables and indices idempotently
func (db *Database) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	log.Debug().Msg("Schema ensured")
	return nil
}
