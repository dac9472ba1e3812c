package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/bpdaum/wipesontrash-sub000/internal/blizzard"
	"github.com/bpdaum/wipesontrash-sub000/internal/fetch"
	"github.com/bpdaum/wipesontrash-sub000/internal/metrics"
	"github.com/bpdaum/wipesontrash-sub000/internal/models"
)

// SyncRoster refreshes the character table from the live guild roster:
// members present upstream are upserted (and re-activated), members gone
// from the roster are soft-deleted, and per-member profile detail fills in
// spec and gear score where available.
func (r *Runner) SyncRoster(ctx context.Context) error {
	if err := r.db.EnsureSchema(ctx); err != nil {
		return err
	}

	members, err := r.game.GuildRoster(ctx, r.cfg.RealmSlug(), r.cfg.GuildSlug())
	if err != nil {
		return fmt.Errorf("roster fetch failed: %w", err)
	}
	log.Info().Int("count", len(members)).Msg("Roster fetched")

	storedActive, err := r.db.Characters.ListActiveIDs(ctx)
	if err != nil {
		return err
	}

	fetchedIDs := lo.Map(members, func(m blizzard.RosterMember, _ int) int64 { return m.ID })
	kept, added, removed := DiffRoster(storedActive, fetchedIDs)
	log.Info().
		Int("unchanged", len(kept)).
		Int("new", len(added)).
		Int("absent", len(removed)).
		Msg("Roster diff computed")

	classNames := map[int]string{}
	if classes, err := r.game.PlayableClasses(ctx); err != nil {
		log.Warn().Err(err).Msg("Class index fetch failed, class names fall back to profile data")
	} else {
		for _, cl := range classes {
			classNames[cl.ID] = cl.Name
		}
	}

	saved := 0
	for _, m := range members {
		c := &models.Character{
			ID:    m.ID,
			Name:  m.Name,
			Realm: r.cfg.GuildRealm,
			Class: classNames[m.ClassID],
			Status: sql.NullString{
				String: models.StatusForRank(m.Rank),
				Valid:  true,
			},
		}

		// profile summary adds class name, active spec, and gear score;
		// a missing profile (unlogged alt, transferred character) only
		// means those fields stay as they were
		summary, err := r.game.CharacterSummary(ctx, m.RealmSlug, strings.ToLower(m.Name))
		switch {
		case err == nil:
			c.Class = summary.Class
			if summary.ActiveSpec != "" {
				c.Spec = sql.NullString{String: summary.ActiveSpec, Valid: true}
				c.Role = sql.NullString{String: models.RoleForSpec(summary.ActiveSpec), Valid: true}
			}
			if summary.EquippedItemLevel > 0 {
				c.GearScore = sql.NullFloat64{Float64: summary.EquippedItemLevel, Valid: true}
			}
		case errors.Is(err, fetch.ErrNotFound):
			log.Warn().Str("character", m.Name).Msg("Character profile not found, keeping roster data only")
		default:
			log.Warn().Err(err).Str("character", m.Name).Msg("Character profile fetch failed, keeping roster data only")
		}

		if err := r.db.Characters.Upsert(ctx, c); err != nil {
			log.Error().Err(err).Int64("character_id", m.ID).Msg("Failed to save character")
			continue
		}
		saved++
	}
	metrics.RecordUpserts("characters", saved)
	log.Info().Int("count", saved).Msg("Characters saved")

	if _, err := r.db.Characters.DeactivateAbsent(ctx, fetchedIDs); err != nil {
		return err
	}
	return nil
}

// DiffRoster splits the stored active set against the freshly fetched set:
// ids in both are updated in place, fetched-only ids are inserts, and
// stored-only ids get soft-deleted
func DiffRoster(stored, fetched []int64) (kept, added, removed []int64) {
	kept = lo.Intersect(stored, fetched)
	added, removed = lo.Difference(fetched, stored)
	return kept, added, removed
}
