package repository

import (
	"context"
	"fmt"

	"github.com/bpdaum/wipesontrash-sub000/internal/models"
)

// SourceRepository handles content source reference data
type SourceRepository struct {
	db *Database
}

// Upsert inserts a source or returns the existing row's id
func (r *SourceRepository) Upsert(ctx context.Context, source *models.Source) error {
	query := `
		INSERT INTO sources (kind, name)
		VALUES ($1, $2)
		ON CONFLICT (kind, name) DO UPDATE SET
			name = EXCLUDED.name
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, source.Kind, source.Name).
		Scan(&source.ID, &source.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert source %s/%s: %w", source.Kind, source.Name, err)
	}
	return nil
}

// EnsureSystem upserts the fixed "system" source and returns its id
func (r *SourceRepository) EnsureSystem(ctx context.Context) (int64, error) {
	source := &models.Source{Kind: models.SourceKindSystem, Name: "system"}
	if err := r.Upsert(ctx, source); err != nil {
		return 0, err
	}
	return source.ID, nil
}
