// Package reconcile resolves externally scraped item names against the
// canonical items table. The fallback ordering is fixed: known id, then
// exact name in the database, then a live search — and the resolved id is
// written back so the next run short-circuits on the id lookup.
package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/rs/zerolog/log"

	"github.com/bpdaum/wipesontrash-sub000/internal/blizzard"
	"github.com/bpdaum/wipesontrash-sub000/internal/metrics"
	"github.com/bpdaum/wipesontrash-sub000/internal/models"
	"github.com/bpdaum/wipesontrash-sub000/internal/repository"
)

// ErrUnresolved is returned when no fallback step produced a match; the
// caller skips the unit.
var ErrUnresolved = errors.New("reconcile: item unresolved")

// ItemStore is the slice of the items repository the resolver needs
type ItemStore interface {
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	GetByName(ctx context.Context, name string) (*models.Item, error)
	Upsert(ctx context.Context, item *models.Item) error
	SetIcon(ctx context.Context, id int64, icon string) error
}

// SuggestionStore is the slice of the suggestions repository used for the
// id write-back
type SuggestionStore interface {
	SetItemID(ctx context.Context, id, itemID int64) error
}

// ItemSource is the slice of the game API used for backfill and live search
type ItemSource interface {
	ItemDetail(ctx context.Context, id int64) (*blizzard.ItemDetail, error)
	ItemIcon(ctx context.Context, id int64) (string, error)
	SearchItems(ctx context.Context, name string, pageSize int) ([]blizzard.ItemSummary, error)
}

// Resolver performs entity reconciliation for items
type Resolver struct {
	items       ItemStore
	suggestions SuggestionStore
	api         ItemSource
	searchPage  int
}

// NewResolver creates a resolver
func NewResolver(items ItemStore, suggestions SuggestionStore, api ItemSource) *Resolver {
	return &Resolver{
		items:       items,
		suggestions: suggestions,
		api:         api,
		searchPage:  10,
	}
}

// Resolve maps a scraped item name, plus an optionally known id, onto a
// stored item:
//
//	(a) lookup by known id, backfilling a missing icon best-effort;
//	(b) else case-insensitive exact name match in the items table;
//	(c) else live search, accepting only an exact case-insensitive name
//	    match, which is then persisted;
//	(d) else unresolved.
func (r *Resolver) Resolve(ctx context.Context, name string, knownID int64) (*models.Item, error) {
	if knownID != 0 {
		item, err := r.items.GetByID(ctx, knownID)
		if err == nil {
			if !item.Icon.Valid {
				r.backfillIcon(ctx, item)
			}
			return item, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		// stale id: fall through to the name steps
	}

	item, err := r.items.GetByName(ctx, name)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	candidates, err := r.api.SearchItems(ctx, name, r.searchPage)
	if err != nil {
		log.Warn().Err(err).Str("item", name).Msg("Item search failed, treating as unresolved")
		metrics.UnresolvedItems.Inc()
		return nil, ErrUnresolved
	}

	for _, c := range candidates {
		if !strings.EqualFold(c.Name, name) {
			continue
		}

		resolved, err := r.persistCandidate(ctx, c)
		if err != nil {
			return nil, err
		}
		return resolved, nil
	}

	nearest, similarity := nearestCandidate(name, candidates)
	log.Warn().
		Str("item", name).
		Str("nearest_candidate", nearest).
		Float64("similarity", similarity).
		Msg("Item name could not be resolved")
	metrics.UnresolvedItems.Inc()

	return nil, ErrUnresolved
}

// ResolveSuggestion resolves a suggestion's item name and writes the
// resolved id back onto the row when it differs from what is stored
func (r *Resolver) ResolveSuggestion(ctx context.Context, s *models.Suggestion) (*models.Item, error) {
	var known int64
	if s.ItemID.Valid {
		known = s.ItemID.Int64
	}

	item, err := r.Resolve(ctx, s.ItemName, known)
	if err != nil {
		return nil, err
	}

	if !s.ItemID.Valid || s.ItemID.Int64 != item.ID {
		if err := r.suggestions.SetItemID(ctx, s.ID, item.ID); err != nil {
			return nil, fmt.Errorf("failed to write back resolved id: %w", err)
		}
		s.ItemID = sql.NullInt64{Int64: item.ID, Valid: true}
	}
	return item, nil
}

// persistCandidate stores a search hit as a canonical item, pulling the
// full detail when the search summary lacks a usable slot
func (r *Resolver) persistCandidate(ctx context.Context, c blizzard.ItemSummary) (*models.Item, error) {
	invType := c.InventoryType
	quality := c.Quality

	if invType == "" {
		detail, err := r.api.ItemDetail(ctx, c.ID)
		if err != nil {
			log.Warn().Err(err).Int64("item_id", c.ID).Msg("Item detail fetch failed for search hit")
		} else {
			invType = detail.InventoryType
			quality = detail.Quality
		}
	}

	slotCode, ok := models.SlotForInventoryType(invType)
	if !ok {
		log.Warn().
			Int64("item_id", c.ID).
			Str("inventory_type", invType).
			Msg("Search hit has untracked inventory type, treating as unresolved")
		return nil, ErrUnresolved
	}

	item := &models.Item{
		ID:       c.ID,
		Name:     c.Name,
		SlotCode: slotCode,
	}
	if quality != "" {
		item.Quality = sql.NullString{String: quality, Valid: true}
	}
	if icon, err := r.api.ItemIcon(ctx, c.ID); err == nil {
		item.Icon = sql.NullString{String: icon, Valid: true}
	}

	if err := r.items.Upsert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// backfillIcon fetches and stores a missing icon; failures only log
func (r *Resolver) backfillIcon(ctx context.Context, item *models.Item) {
	icon, err := r.api.ItemIcon(ctx, item.ID)
	if err != nil {
		log.Debug().Err(err).Int64("item_id", item.ID).Msg("Icon backfill failed")
		return
	}

	if err := r.items.SetIcon(ctx, item.ID, icon); err != nil {
		log.Warn().Err(err).Int64("item_id", item.ID).Msg("Failed to store backfilled icon")
		return
	}
	item.Icon = sql.NullString{String: icon, Valid: true}
}

// nearestCandidate names the closest search result by Jaro-Winkler
// similarity, for operator triage of unresolved names
func nearestCandidate(name string, candidates []blizzard.ItemSummary) (string, float64) {
	var best string
	var bestScore float64
	for _, c := range candidates {
		score := matchr.JaroWinkler(strings.ToLower(name), strings.ToLower(c.Name), false)
		if score > bestScore {
			bestScore = score
			best = c.Name
		}
	}
	return best, bestScore
}
