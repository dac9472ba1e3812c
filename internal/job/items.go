package job

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bpdaum/wipesontrash-sub000/internal/blizzard"
	"github.com/bpdaum/wipesontrash-sub000/internal/cache"
	"github.com/bpdaum/wipesontrash-sub000/internal/metrics"
	"github.com/bpdaum/wipesontrash-sub000/internal/models"
)

// iconBackfillLimit bounds the per-run media fetches so one run cannot
// spend its whole budget on icons
const iconBackfillLimit = 200

// SyncItems seeds the static reference data, syncs journal instances into
// sources, walks encounter loot tables into the items table, and backfills
// missing icons
func (r *Runner) SyncItems(ctx context.Context) error {
	if err := r.db.EnsureSchema(ctx); err != nil {
		return err
	}

	if err := r.db.Slots.Seed(ctx); err != nil {
		return err
	}
	if _, err := r.db.Sources.EnsureSystem(ctx); err != nil {
		return err
	}

	slotCodes, err := r.db.Slots.Codes(ctx)
	if err != nil {
		return err
	}

	instances, err := r.game.JournalInstances(ctx)
	if err != nil {
		return fmt.Errorf("instance index fetch failed: %w", err)
	}
	log.Info().Int("count", len(instances)).Msg("Journal instances fetched")

	savedItems := 0
	for _, ref := range instances {
		inst, err := r.game.JournalInstance(ctx, ref.ID)
		if err != nil {
			log.Warn().Err(err).Int64("instance_id", ref.ID).Msg("Instance detail fetch failed, skipping")
			continue
		}

		source := &models.Source{Kind: sourceKind(inst.Category), Name: inst.Name}
		if err := r.db.Sources.Upsert(ctx, source); err != nil {
			log.Error().Err(err).Str("instance", inst.Name).Msg("Failed to save source")
			continue
		}

		for _, encRef := range inst.Encounters {
			enc, err := r.game.JournalEncounter(ctx, encRef.ID)
			if err != nil {
				log.Warn().Err(err).Int64("encounter_id", encRef.ID).Msg("Encounter fetch failed, skipping")
				continue
			}

			for _, itemRef := range enc.Items {
				if err := r.syncItem(ctx, itemRef, source.ID, slotCodes); err != nil {
					log.Warn().Err(err).Int64("item_id", itemRef.ID).Msg("Item skipped")
					continue
				}
				savedItems++
			}
		}
	}
	metrics.RecordUpserts("items", savedItems)
	log.Info().Int("count", savedItems).Msg("Items saved")

	return r.backfillIcons(ctx)
}

// syncItem fetches one item's detail (through the cache when available)
// and upserts it. Items whose slot the static table does not know are
// skipped loudly rather than inserted with a dangling slot reference.
func (r *Runner) syncItem(ctx context.Context, ref blizzard.ItemRef, sourceID int64, slotCodes map[string]bool) error {
	detail, err := r.cachedItemDetail(ctx, ref.ID)
	if err != nil {
		return fmt.Errorf("detail fetch failed: %w", err)
	}

	slotCode, ok := models.SlotForInventoryType(detail.InventoryType)
	if !ok {
		return fmt.Errorf("untracked inventory type %q", detail.InventoryType)
	}
	if !slotCodes[slotCode] {
		log.Warn().
			Int64("item_id", detail.ID).
			Str("slot_code", slotCode).
			Msg("Slot code missing from equipment_slots, skipping item")
		return fmt.Errorf("unknown slot code %q", slotCode)
	}

	item := &models.Item{
		ID:       detail.ID,
		Name:     detail.Name,
		SlotCode: slotCode,
		SourceID: sql.NullInt64{Int64: sourceID, Valid: true},
	}
	if detail.Quality != "" {
		item.Quality = sql.NullString{String: detail.Quality, Valid: true}
	}

	return r.db.Items.Upsert(ctx, item)
}

// cachedItemDetail reads an item detail through Redis when configured
func (r *Runner) cachedItemDetail(ctx context.Context, id int64) (*blizzard.ItemDetail, error) {
	key := cache.ItemKey(id)

	var cached blizzard.ItemDetail
	if ok, err := r.cache.Get(ctx, key, &cached); err != nil {
		log.Warn().Err(err).Int64("item_id", id).Msg("Cache read failed")
	} else if ok {
		return &cached, nil
	}

	detail, err := r.game.ItemDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, key, detail)
	return detail, nil
}

// backfillIcons fills icons for items that still have none
func (r *Runner) backfillIcons(ctx context.Context) error {
	ids, err := r.db.Items.ListMissingIcon(ctx, iconBackfillLimit)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	filled := 0
	for _, id := range ids {
		icon, err := r.game.ItemIcon(ctx, id)
		if err != nil {
			log.Debug().Err(err).Int64("item_id", id).Msg("Icon fetch failed")
			continue
		}
		if err := r.db.Items.SetIcon(ctx, id, icon); err != nil {
			log.Warn().Err(err).Int64("item_id", id).Msg("Failed to store icon")
			continue
		}
		filled++
	}
	log.Info().Int("count", filled).Msg("Icons backfilled")
	return nil
}

func sourceKind(category string) string {
	if category == "RAID" {
		return models.SourceKindRaid
	}
	return models.SourceKindDungeon
}
