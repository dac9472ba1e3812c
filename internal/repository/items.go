package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bpdaum/wipesontrash-sub000/internal/models"
)

// ItemRepository handles item database operations
type ItemRepository struct {
	db *Database
}

const itemColumns = `id, name, quality, icon, slot_code, source_id, created_at, updated_at`

func scanItem(row pgx.Row) (*models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID, &item.Name, &item.Quality, &item.Icon,
		&item.SlotCode, &item.SourceID, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	return &item, nil
}

// Upsert inserts or updates an item keyed by its external id. The icon is
// only filled while NULL so a later run never flips an already-resolved
// icon, and running twice with identical upstream data changes nothing.
func (r *ItemRepository) Upsert(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (id, name, quality, icon, slot_code, source_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			quality = EXCLUDED.quality,
			icon = COALESCE(items.icon, EXCLUDED.icon),
			slot_code = EXCLUDED.slot_code,
			source_id = COALESCE(EXCLUDED.source_id, items.source_id),
			updated_at = NOW()
		RETURNING created_at, updated_at, icon
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		item.ID, item.Name, item.Quality, item.Icon, item.SlotCode, item.SourceID,
	).Scan(&item.CreatedAt, &item.UpdatedAt, &item.Icon)

	if err != nil {
		return fmt.Errorf("failed to upsert item %d: %w", item.ID, err)
	}
	return nil
}

// GetByID retrieves an item by its external id
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM items WHERE id = $1`, itemColumns)
	return scanItem(r.db.Pool.QueryRow(ctx, query, id))
}

// GetByName retrieves an item by case-insensitive exact name match
func (r *ItemRepository) GetByName(ctx context.Context, name string) (*models.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM items WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1`, itemColumns)
	return scanItem(r.db.Pool.QueryRow(ctx, query, name))
}

// SetIcon backfills an item's icon, only while it is still NULL
func (r *ItemRepository) SetIcon(ctx context.Context, id int64, icon string) error {
	query := `UPDATE items SET icon = $2, updated_at = NOW() WHERE id = $1 AND icon IS NULL`

	if _, err := r.db.Pool.Exec(ctx, query, id, icon); err != nil {
		return fmt.Errorf("failed to set icon for item %d: %w", id, err)
	}
	return nil
}

// ListMissingIcon lists ids of items with no icon yet
func (r *ItemRepository) ListMissingIcon(ctx context.Context, limit int) ([]int64, error) {
	query := `SELECT id FROM items WHERE icon IS NULL ORDER BY id LIMIT $1`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list items missing icons: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item ids: %w", err)
	}
	return ids, nil
}

// Count returns the total number of items
func (r *ItemRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}
