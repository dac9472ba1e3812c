package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bpdaum/wipesontrash-sub000/internal/models"
)

// BiSRepository handles best-in-slot selections. Rows are written by the
// front end; ingestion only enforces the (character, slot) uniqueness.
type BiSRepository struct {
	db *Database
}

// Set upserts a character's selection for one slot. A second write for the
// same (character, slot) replaces the item instead of adding a row.
func (r *BiSRepository) Set(ctx context.Context, sel *models.BiSSelection) error {
	query := `
		INSERT INTO bis_selections (character_id, slot_code, item_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (character_id, slot_code) DO UPDATE SET
			item_id = EXCLUDED.item_id,
			updated_at = NOW()
		RETURNING id, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query, sel.CharacterID, sel.SlotCode, sel.ItemID).
		Scan(&sel.ID, &sel.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to set bis selection: %w", err)
	}
	return nil
}

// Get retrieves a character's selection for one slot
func (r *BiSRepository) Get(ctx context.Context, characterID int64, slotCode string) (*models.BiSSelection, error) {
	query := `
		SELECT id, character_id, slot_code, item_id, updated_at
		FROM bis_selections
		WHERE character_id = $1 AND slot_code = $2
	`

	var sel models.BiSSelection
	err := r.db.Pool.QueryRow(ctx, query, characterID, slotCode).
		Scan(&sel.ID, &sel.CharacterID, &sel.SlotCode, &sel.ItemID, &sel.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bis selection: %w", err)
	}
	return &sel, nil
}

// ListByCharacter retrieves all of a character's selections
func (r *BiSRepository) ListByCharacter(ctx context.Context, characterID int64) ([]*models.BiSSelection, error) {
	query := `
		SELECT id, character_id, slot_code, item_id, updated_at
		FROM bis_selections
		WHERE character_id = $1
		ORDER BY slot_code
	`

	rows, err := r.db.Pool.Query(ctx, query, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bis selections: %w", err)
	}
	defer rows.Close()

	var sels []*models.BiSSelection
	for rows.Next() {
		var sel models.BiSSelection
		if err := rows.Scan(&sel.ID, &sel.CharacterID, &sel.SlotCode, &sel.ItemID, &sel.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bis selection: %w", err)
		}
		sels = append(sels, &sel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bis selections: %w", err)
	}
	return sels, nil
}
