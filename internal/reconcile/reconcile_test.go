package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpdaum/wipesontrash-sub000/internal/blizzard"
	"github.com/bpdaum/wipesontrash-sub000/internal/models"
	"github.com/bpdaum/wipesontrash-sub000/internal/repository"
)

type fakeItemStore struct {
	items    map[int64]*models.Item
	icons    map[int64]string
	upserted []int64
}

func newFakeItemStore(items ...*models.Item) *fakeItemStore {
	s := &fakeItemStore{items: map[int64]*models.Item{}, icons: map[int64]string{}}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *fakeItemStore) GetByID(_ context.Context, id int64) (*models.Item, error) {
	if it, ok := s.items[id]; ok {
		return it, nil
	}
	return nil, repository.ErrNotFound
}

func (s *fakeItemStore) GetByName(_ context.Context, name string) (*models.Item, error) {
	for _, it := range s.items {
		if strings.EqualFold(it.Name, name) {
			return it, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeItemStore) Upsert(_ context.Context, item *models.Item) error {
	s.items[item.ID] = item
	s.upserted = append(s.upserted, item.ID)
	return nil
}

func (s *fakeItemStore) SetIcon(_ context.Context, id int64, icon string) error {
	s.icons[id] = icon
	return nil
}

type fakeSuggestionStore struct {
	written map[int64]int64 // suggestion id -> item id
}

func (s *fakeSuggestionStore) SetItemID(_ context.Context, id, itemID int64) error {
	if s.written == nil {
		s.written = map[int64]int64{}
	}
	s.written[id] = itemID
	return nil
}

type fakeItemSource struct {
	details  map[int64]*blizzard.ItemDetail
	icons    map[int64]string
	results  []blizzard.ItemSummary
	searches int
}

func (s *fakeItemSource) ItemDetail(_ context.Context, id int64) (*blizzard.ItemDetail, error) {
	if d, ok := s.details[id]; ok {
		return d, nil
	}
	return nil, errors.New("no detail")
}

func (s *fakeItemSource) ItemIcon(_ context.Context, id int64) (string, error) {
	if icon, ok := s.icons[id]; ok {
		return icon, nil
	}
	return "", errors.New("no icon")
}

func (s *fakeItemSource) SearchItems(_ context.Context, _ string, _ int) ([]blizzard.ItemSummary, error) {
	s.searches++
	return s.results, nil
}

func TestResolveByKnownID(t *testing.T) {
	store := newFakeItemStore(&models.Item{
		ID:       100,
		Name:     "Crown of Woven Shadow",
		SlotCode: "HEAD",
		Icon:     sql.NullString{String: "icon.jpg", Valid: true},
	})
	api := &fakeItemSource{}
	r := NewResolver(store, &fakeSuggestionStore{}, api)

	item, err := r.Resolve(context.Background(), "Crown of Woven Shadow", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), item.ID)
	assert.Zero(t, api.searches, "Known id should short-circuit before search")
}

func TestResolveByIDBackfillsMissingIcon(t *testing.T) {
	store := newFakeItemStore(&models.Item{ID: 100, Name: "Crown of Woven Shadow", SlotCode: "HEAD"})
	api := &fakeItemSource{icons: map[int64]string{100: "crown.jpg"}}
	r := NewResolver(store, &fakeSuggestionStore{}, api)

	item, err := r.Resolve(context.Background(), "Crown of Woven Shadow", 100)
	require.NoError(t, err)
	assert.Equal(t, "crown.jpg", store.icons[100], "Missing icon should be backfilled")
	assert.Equal(t, "crown.jpg", item.Icon.String)
}

func TestResolveStaleIDFallsBackToName(t *testing.T) {
	// The stored id points at nothing; an exact-name row exists elsewhere
	store := newFakeItemStore(&models.Item{ID: 200, Name: "Seal of the Poisoned Pact", SlotCode: "FINGER1"})
	api := &fakeItemSource{}
	sugg := &fakeSuggestionStore{}
	r := NewResolver(store, sugg, api)

	s := &models.Suggestion{
		ID:       7,
		ItemName: "Seal of the Poisoned Pact",
		ItemID:   sql.NullInt64{Int64: 999, Valid: true}, // stale
	}

	item, err := r.ResolveSuggestion(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int64(200), item.ID, "Name match should win over the stale id")
	assert.Equal(t, int64(200), sugg.written[7], "Resolved id should be written back onto the suggestion")
	assert.Equal(t, int64(200), s.ItemID.Int64)
}

func TestResolveNameMatchIsCaseInsensitive(t *testing.T) {
	store := newFakeItemStore(&models.Item{ID: 300, Name: "Ara-Kara Sacbrood", SlotCode: "TRINKET1"})
	r := NewResolver(store, &fakeSuggestionStore{}, &fakeItemSource{})

	item, err := r.Resolve(context.Background(), "ara-kara sacbrood", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(300), item.ID)
}

func TestResolveViaLiveSearchPersists(t *testing.T) {
	store := newFakeItemStore()
	api := &fakeItemSource{
		results: []blizzard.ItemSummary{
			{ID: 400, Name: "Ashkandur, Fall of the Brotherhood", Quality: "EPIC", InventoryType: "TWOHWEAPON"},
			{ID: 401, Name: "Ashkandi, Greatsword of the Brotherhood", Quality: "EPIC", InventoryType: "TWOHWEAPON"},
		},
		icons: map[int64]string{400: "ashkandur.jpg"},
	}
	r := NewResolver(store, &fakeSuggestionStore{}, api)

	item, err := r.Resolve(context.Background(), "ashkandur, fall of the brotherhood", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(400), item.ID, "Only the exact case-insensitive match is accepted")
	assert.Equal(t, "MAIN_HAND", item.SlotCode)
	assert.Contains(t, store.upserted, int64(400), "Search hit should be persisted")

	// a later run for the same name now resolves from the store
	api.searches = 0
	again, err := r.Resolve(context.Background(), "Ashkandur, Fall of the Brotherhood", 0)
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)
	assert.Zero(t, api.searches)
}

func TestResolveUnresolvedWhenNoExactMatch(t *testing.T) {
	store := newFakeItemStore()
	api := &fakeItemSource{
		results: []blizzard.ItemSummary{
			{ID: 500, Name: "Crown of Woven Shadows", InventoryType: "HEAD"}, // off by one letter
		},
	}
	r := NewResolver(store, &fakeSuggestionStore{}, api)

	_, err := r.Resolve(context.Background(), "Crown of Woven Shadow", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.Empty(t, store.upserted, "Near-misses must not be persisted")
}

func TestNearestCandidate(t *testing.T) {
	candidates := []blizzard.ItemSummary{
		{ID: 1, Name: "Seal of the Poisoned Pact"},
		{ID: 2, Name: "Band of the Shattered Crown"},
	}

	name, score := nearestCandidate("Seal of the Poison Pact", candidates)
	assert.Equal(t, "Seal of the Poisoned Pact", name)
	assert.Greater(t, score, 0.9)
}
