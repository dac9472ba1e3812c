package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bpdaum/wipesontrash-sub000/internal/fetch"
	"github.com/bpdaum/wipesontrash-sub000/internal/guide"
	"github.com/bpdaum/wipesontrash-sub000/internal/metrics"
	"github.com/bpdaum/wipesontrash-sub000/internal/models"
	"github.com/bpdaum/wipesontrash-sub000/internal/reconcile"
)

// SyncGuide scrapes the gear-guide BiS page for every class/spec, replaces
// that spec's suggestion rows (carrying over already-resolved item ids),
// then reconciles the still-unresolved names against the items table
func (r *Runner) SyncGuide(ctx context.Context) error {
	if err := r.db.EnsureSchema(ctx); err != nil {
		return err
	}

	classes, err := r.game.PlayableClasses(ctx)
	if err != nil {
		return fmt.Errorf("class index fetch failed: %w", err)
	}

	scraped := 0
	for _, class := range classes {
		for _, spec := range class.Specs {
			rows, err := r.guide.FetchBiS(ctx, class.Name, spec.Name)
			switch {
			case errors.Is(err, fetch.ErrNotFound), errors.Is(err, guide.ErrNoTable):
				log.Warn().
					Str("class", class.Name).
					Str("spec", spec.Name).
					Msg("No usable guide page, skipping spec")
				continue
			case err != nil:
				log.Error().Err(err).
					Str("class", class.Name).
					Str("spec", spec.Name).
					Msg("Guide fetch failed, skipping spec")
				continue
			}

			suggestions := make([]*models.Suggestion, 0, len(rows))
			for _, row := range rows {
				s := &models.Suggestion{
					Class:    class.Name,
					Spec:     spec.Name,
					SlotCode: row.SlotCode,
					ItemName: row.ItemName,
				}
				if row.ItemID != 0 {
					s.ItemID = sql.NullInt64{Int64: row.ItemID, Valid: true}
				}
				suggestions = append(suggestions, s)
			}

			if err := r.db.Suggestions.ReplaceForSpec(ctx, class.Name, spec.Name, suggestions); err != nil {
				metrics.BatchesRolledBack.Inc()
				log.Error().Err(err).
					Str("class", class.Name).
					Str("spec", spec.Name).
					Msg("Suggestion batch failed, continuing")
				continue
			}
			scraped += len(suggestions)
			metrics.RecordUpserts("bis_suggestions", len(suggestions))

			r.resolveSpec(ctx, class.Name, spec.Name)
		}
	}

	log.Info().Int("count", scraped).Msg("Suggestions scraped")
	return nil
}

// resolveSpec reconciles a spec's unresolved suggestions; the resolver
// writes resolved ids back onto the rows
func (r *Runner) resolveSpec(ctx context.Context, class, spec string) {
	unresolved, err := r.db.Suggestions.ListUnresolved(ctx, class, spec)
	if err != nil {
		log.Warn().Err(err).Str("class", class).Str("spec", spec).Msg("Failed to list unresolved suggestions")
		return
	}

	resolved := 0
	for _, s := range unresolved {
		if _, err := r.resolver.ResolveSuggestion(ctx, s); err != nil {
			if !errors.Is(err, reconcile.ErrUnresolved) {
				log.Warn().Err(err).Str("item", s.ItemName).Msg("Suggestion resolution errored")
			}
			continue
		}
		resolved++
	}

	if len(unresolved) > 0 {
		log.Info().
			Str("class", class).
			Str("spec", spec).
			Int("resolved", resolved).
			Int("unresolved", len(unresolved)-resolved).
			Msg("Suggestions reconciled")
	}
}
