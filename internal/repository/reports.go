package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bpdaum/wipesontrash-sub000/internal/models"
)

// ReportRepository handles combat-log reports, attendance, and performance
type ReportRepository struct {
	db *Database
}

// Exists reports whether a report code is already stored
func (r *ReportRepository) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reports WHERE code = $1)`, code).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check report %s: %w", code, err)
	}
	return exists, nil
}

// GetByCode retrieves one report
func (r *ReportRepository) GetByCode(ctx context.Context, code string) (*models.Report, error) {
	query := `SELECT code, title, start_time, end_time, zone, created_at FROM reports WHERE code = $1`

	var rep models.Report
	err := r.db.Pool.QueryRow(ctx, query, code).
		Scan(&rep.Code, &rep.Title, &rep.StartTime, &rep.EndTime, &rep.Zone, &rep.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &rep, nil
}

// Save writes one report with its attendance and performance rows in a
// single transaction. A failure rolls the whole report back; the caller
// logs it and moves on to the next report.
func (r *ReportRepository) Save(ctx context.Context, report *models.Report, attendees []int64, perfs []models.EncounterPerformance) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO reports (code, title, start_time, end_time, zone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			title = EXCLUDED.title,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			zone = EXCLUDED.zone
	`, report.Code, report.Title, report.StartTime, report.EndTime, report.Zone)
	if err != nil {
		return fmt.Errorf("failed to upsert report %s: %w", report.Code, err)
	}

	for _, characterID := range attendees {
		_, err = tx.Exec(ctx, `
			INSERT INTO report_attendance (report_code, character_id)
			VALUES ($1, $2)
			ON CONFLICT (report_code, character_id) DO NOTHING
		`, report.Code, characterID)
		if err != nil {
			return fmt.Errorf("failed to record attendance for character %d: %w", characterID, err)
		}
	}

	for _, p := range perfs {
		_, err = tx.Exec(ctx, `
			INSERT INTO encounter_performance (report_code, character_id, encounter_id, metric, spec, percentile)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (report_code, character_id, encounter_id, metric) DO UPDATE SET
				spec = EXCLUDED.spec,
				percentile = EXCLUDED.percentile
		`, report.Code, p.CharacterID, p.EncounterID, p.Metric, p.Spec, p.Percentile)
		if err != nil {
			return fmt.Errorf("failed to record performance for character %d: %w", p.CharacterID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit report %s: %w", report.Code, err)
	}
	return nil
}

// Count returns the total number of stored reports
func (r *ReportRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

// CountAttendance returns how many stored reports a character appears in
func (r *ReportRepository) CountAttendance(ctx context.Context, characterID int64) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM report_attendance WHERE character_id = $1`, characterID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attendance for character %d: %w", characterID, err)
	}
	return count, nil
}

// Percentiles lists a character's rank percentiles for one metric
func (r *ReportRepository) Percentiles(ctx context.Context, characterID int64, metric string) ([]float64, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT percentile FROM encounter_performance
		WHERE character_id = $1 AND metric = $2
	`, characterID, metric)
	if err != nil {
		return nil, fmt.Errorf("failed to list percentiles for character %d: %w", characterID, err)
	}
	defer rows.Close()

	var percentiles []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan percentile: %w", err)
		}
		percentiles = append(percentiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating percentiles: %w", err)
	}
	return percentiles, nil
}
