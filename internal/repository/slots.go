package repository

import (
	"context"
	"fmt"

	"github.com/bpdaum/wipesontrash-sub000/internal/models"
)

// SlotRepository handles equipment slot reference data
type SlotRepository struct {
	db *Database
}

// Seed inserts the canonical slot table; existing rows keep their codes and
// get display metadata refreshed
func (r *SlotRepository) Seed(ctx context.Context) error {
	query := `
		INSERT INTO equipment_slots (code, display_name, sort_order)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			sort_order = EXCLUDED.sort_order
	`

	for _, slot := range models.CanonicalSlots {
		if _, err := r.db.Pool.Exec(ctx, query, slot.Code, slot.DisplayName, slot.SortOrder); err != nil {
			return fmt.Errorf("failed to seed slot %s: %w", slot.Code, err)
		}
	}
	return nil
}

// Codes returns the set of known slot codes
func (r *SlotRepository) Codes(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT code FROM equipment_slots`)
	if err != nil {
		return nil, fmt.Errorf("failed to list slot codes: %w", err)
	}
	defer rows.Close()

	codes := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan slot code: %w", err)
		}
		codes[code] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slot codes: %w", err)
	}
	return codes, nil
}
