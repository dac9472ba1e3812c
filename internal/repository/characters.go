package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/bpdaum/wipesontrash-sub000/internal/models"
)

// CharacterRepository handles character database operations
type CharacterRepository struct {
	db *Database
}

const characterColumns = `id, name, realm, class, spec, role, status,
	status_override, spec_override, gear_score, attendance_pct,
	avg_percentile, active, created_at, updated_at`

func scanCharacter(row pgx.Row) (*models.Character, error) {
	var c models.Character
	err := row.Scan(
		&c.ID, &c.Name, &c.Realm, &c.Class, &c.Spec, &c.Role, &c.Status,
		&c.StatusOverride, &c.SpecOverride, &c.GearScore, &c.AttendancePct,
		&c.AvgPercentile, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan character: %w", err)
	}
	return &c, nil
}

// Upsert inserts or updates a character's computed fields and re-activates
// it. The override columns are user-owned and never touched here.
func (r *CharacterRepository) Upsert(ctx context.Context, c *models.Character) error {
	query := `
		INSERT INTO characters (id, name, realm, class, spec, role, status, gear_score, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			realm = EXCLUDED.realm,
			class = EXCLUDED.class,
			spec = EXCLUDED.spec,
			role = EXCLUDED.role,
			status = EXCLUDED.status,
			gear_score = COALESCE(EXCLUDED.gear_score, characters.gear_score),
			active = TRUE,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		c.ID, c.Name, c.Realm, c.Class, c.Spec, c.Role, c.Status, c.GearScore,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert character %d: %w", c.ID, err)
	}
	c.Active = true
	return nil
}

// GetByID retrieves a character by its external id
func (r *CharacterRepository) GetByID(ctx context.Context, id int64) (*models.Character, error) {
	query := fmt.Sprintf(`SELECT %s FROM characters WHERE id = $1`, characterColumns)
	return scanCharacter(r.db.Pool.QueryRow(ctx, query, id))
}

// GetByNameRealm retrieves a character by its unique (name, realm) pair,
// case-insensitively
func (r *CharacterRepository) GetByNameRealm(ctx context.Context, name, realm string) (*models.Character, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM characters WHERE LOWER(name) = LOWER($1) AND LOWER(realm) = LOWER($2)`,
		characterColumns,
	)
	return scanCharacter(r.db.Pool.QueryRow(ctx, query, name, realm))
}

// ListActive retrieves all active characters
func (r *CharacterRepository) ListActive(ctx context.Context) ([]*models.Character, error) {
	query := fmt.Sprintf(`SELECT %s FROM characters WHERE active ORDER BY name`, characterColumns)

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	var characters []*models.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating characters: %w", err)
	}
	return characters, nil
}

// ListActiveIDs returns the ids of currently active characters
func (r *CharacterRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id FROM characters WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active character ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan character id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating character ids: %w", err)
	}
	return ids, nil
}

// DeactivateAbsent soft-deletes active characters whose ids are not in the
// freshly fetched roster. Child rows (attendance, performance, BiS
// selections) stay untouched.
func (r *CharacterRepository) DeactivateAbsent(ctx context.Context, presentIDs []int64) (int64, error) {
	query := `
		UPDATE characters
		SET active = FALSE, updated_at = NOW()
		WHERE active AND NOT (id = ANY($1))
	`

	tag, err := r.db.Pool.Exec(ctx, query, presentIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate absent characters: %w", err)
	}

	if n := tag.RowsAffected(); n > 0 {
		log.Info().Int64("count", n).Msg("Characters marked inactive")
		return n, nil
	}
	return 0, nil
}

// SetAggregates writes the recomputed attendance and percentile aggregates
func (r *CharacterRepository) SetAggregates(ctx context.Context, id int64, attendancePct, avgPercentile float64, parses int) error {
	query := `
		UPDATE characters
		SET attendance_pct = $2,
		    avg_percentile = CASE WHEN $4 > 0 THEN $3 ELSE avg_percentile END,
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, id, attendancePct, avgPercentile, parses); err != nil {
		return fmt.Errorf("failed to set aggregates for character %d: %w", id, err)
	}
	return nil
}
