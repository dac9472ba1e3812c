package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bpdaum/wipesontrash-sub000/internal/models"
)

// SuggestionRepository handles scraped best-in-slot suggestions
type SuggestionRepository struct {
	db *Database
}

const suggestionColumns = `id, class, spec, slot_code, item_name, item_id, created_at, updated_at`

func scanSuggestion(row pgx.Row) (*models.Suggestion, error) {
	var s models.Suggestion
	err := row.Scan(
		&s.ID, &s.Class, &s.Spec, &s.SlotCode, &s.ItemName,
		&s.ItemID, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan suggestion: %w", err)
	}
	return &s, nil
}

// ReplaceForSpec replaces one class/spec's suggestion rows with a freshly
// scraped set, in a single transaction. Item ids already resolved for an
// identical (slot, item name) row are pre-read and carried over so
// reconciliation does not start from scratch every scrape.
func (r *SuggestionRepository) ReplaceForSpec(ctx context.Context, class, spec string, rows []*models.Suggestion) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	resolved := make(map[string]int64)
	existing, err := tx.Query(ctx, `
		SELECT slot_code, item_name, item_id
		FROM bis_suggestions
		WHERE class = $1 AND spec = $2 AND item_id IS NOT NULL
	`, class, spec)
	if err != nil {
		return fmt.Errorf("failed to pre-read resolved suggestions: %w", err)
	}
	for existing.Next() {
		var slot, name string
		var itemID int64
		if err := existing.Scan(&slot, &name, &itemID); err != nil {
			existing.Close()
			return fmt.Errorf("failed to scan resolved suggestion: %w", err)
		}
		resolved[suggestionKey(slot, name)] = itemID
	}
	if err := existing.Err(); err != nil {
		return fmt.Errorf("error iterating resolved suggestions: %w", err)
	}
	existing.Close()

	if _, err := tx.Exec(ctx, `DELETE FROM bis_suggestions WHERE class = $1 AND spec = $2`, class, spec); err != nil {
		return fmt.Errorf("failed to clear suggestions for %s/%s: %w", class, spec, err)
	}

	insert := `
		INSERT INTO bis_suggestions (class, spec, slot_code, item_name, item_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (class, spec, slot_code, item_name) DO NOTHING
		RETURNING id
	`
	for _, s := range rows {
		if !s.ItemID.Valid {
			if id, ok := resolved[suggestionKey(s.SlotCode, s.ItemName)]; ok {
				s.ItemID.Int64 = id
				s.ItemID.Valid = true
			}
		}

		err := tx.QueryRow(ctx, insert, class, spec, s.SlotCode, s.ItemName, s.ItemID).Scan(&s.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			continue // duplicate row within the scrape
		}
		if err != nil {
			return fmt.Errorf("failed to insert suggestion %s/%s: %w", s.SlotCode, s.ItemName, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit suggestions for %s/%s: %w", class, spec, err)
	}
	return nil
}

// ListUnresolved lists one class/spec's suggestions with no resolved item yet
func (r *SuggestionRepository) ListUnresolved(ctx context.Context, class, spec string) ([]*models.Suggestion, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bis_suggestions
		WHERE class = $1 AND spec = $2 AND item_id IS NULL
		ORDER BY slot_code
	`, suggestionColumns)

	rows, err := r.db.Pool.Query(ctx, query, class, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to list unresolved suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []*models.Suggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestions: %w", err)
	}
	return suggestions, nil
}

// ListBySpec lists all of one class/spec's suggestions
func (r *SuggestionRepository) ListBySpec(ctx context.Context, class, spec string) ([]*models.Suggestion, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bis_suggestions
		WHERE class = $1 AND spec = $2
		ORDER BY slot_code, item_name
	`, suggestionColumns)

	rows, err := r.db.Pool.Query(ctx, query, class, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []*models.Suggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestions: %w", err)
	}
	return suggestions, nil
}

// SetItemID writes a resolved item id back onto a suggestion so later runs
// short-circuit on the id lookup
func (r *SuggestionRepository) SetItemID(ctx context.Context, id, itemID int64) error {
	query := `UPDATE bis_suggestions SET item_id = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id, itemID)
	if err != nil {
		return fmt.Errorf("failed to set item id on suggestion %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("suggestion not found: id=%d: %w", id, ErrNotFound)
	}
	return nil
}

func suggestionKey(slot, name string) string {
	return slot + "|" + strings.ToLower(name)
}
