package blizzard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bpdaum/wipesontrash-sub000/internal/auth"
	"github.com/bpdaum/wipesontrash-sub000/internal/fetch"
)

// ErrBadPayload is returned when a 200 response is missing required fields.
// Callers treat it like no-data and skip the unit.
var ErrBadPayload = errors.New("blizzard: response missing required fields")

// Client is the Battle.net game-data API client. Endpoints are namespaced
// by region (static-{region} for game data, profile-{region} for guild and
// character data) and locale-aware.
type Client struct {
	baseURL string
	region  string
	locale  string
	fetcher *fetch.Client
	tokens  *auth.Provider
}

// DefaultBaseURL returns the regional API host
func DefaultBaseURL(region string) string {
	return fmt.Sprintf("https://%s.api.blizzard.com", region)
}

// NewClient creates a new game-data API client
func NewClient(fetcher *fetch.Client, tokens *auth.Provider, baseURL, region, locale string) *Client {
	return &Client{
		baseURL: baseURL,
		region:  region,
		locale:  locale,
		fetcher: fetcher,
		tokens:  tokens,
	}
}

func (c *Client) staticNamespace() string {
	return "static-" + c.region
}

func (c *Client) profileNamespace() string {
	return "profile-" + c.region
}

// get fetches one endpoint with a bearer token. A missing token is an
// error the caller logs and treats as skip-this-fetch.
func (c *Client) get(ctx context.Context, path, namespace string, extra map[string]string, out interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("no access token: %w", err)
	}

	query := map[string]string{
		"namespace": namespace,
		"locale":    c.locale,
	}
	for k, v := range extra {
		query[k] = v
	}

	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}

	return c.fetcher.GetJSON(ctx, c.baseURL+path, query, headers, out)
}

// GuildRoster fetches the member list for a guild
func (c *Client) GuildRoster(ctx context.Context, realmSlug, guildSlug string) ([]RosterMember, error) {
	path := fmt.Sprintf("/data/wow/guild/%s/%s/roster", realmSlug, guildSlug)

	var resp rosterResponse
	if err := c.get(ctx, path, c.profileNamespace(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch guild roster: %w", err)
	}

	members := make([]RosterMember, 0, len(resp.Members))
	for _, m := range resp.Members {
		if m.Character.ID == 0 || m.Character.Name == "" {
			log.Warn().Msg("Roster member missing id or name, skipping")
			continue
		}
		members = append(members, RosterMember{
			ID:        m.Character.ID,
			Name:      m.Character.Name,
			RealmSlug: m.Character.Realm.Slug,
			ClassID:   m.Character.PlayableClass.ID,
			Level:     m.Character.Level,
			Rank:      m.Rank,
		})
	}
	return members, nil
}

// CharacterSummary fetches a character's profile summary (active spec and
// item levels)
func (c *Client) CharacterSummary(ctx context.Context, realmSlug, nameSlug string) (*CharacterSummary, error) {
	path := fmt.Sprintf("/profile/wow/character/%s/%s", realmSlug, nameSlug)

	var resp characterSummaryResponse
	if err := c.get(ctx, path, c.profileNamespace(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch character summary: %w", err)
	}

	if resp.ID == 0 || resp.Name == "" {
		return nil, ErrBadPayload
	}

	return &CharacterSummary{
		ID:                resp.ID,
		Name:              resp.Name,
		Class:             resp.CharacterClass.Name,
		ActiveSpec:        resp.ActiveSpec.Name,
		AverageItemLevel:  resp.AverageItemLevel,
		EquippedItemLevel: resp.EquippedItemLevel,
	}, nil
}

// PlayableClasses fetches the class index and each class's specializations
func (c *Client) PlayableClasses(ctx context.Context) ([]PlayableClass, error) {
	var index playableClassIndexResponse
	if err := c.get(ctx, "/data/wow/playable-class/index", c.staticNamespace(), nil, &index); err != nil {
		return nil, fmt.Errorf("failed to fetch class index: %w", err)
	}

	classes := make([]PlayableClass, 0, len(index.Classes))
	for _, ref := range index.Classes {
		if ref.ID == 0 || ref.Name == "" {
			continue
		}

		var detail playableClassResponse
		path := fmt.Sprintf("/data/wow/playable-class/%d", ref.ID)
		if err := c.get(ctx, path, c.staticNamespace(), nil, &detail); err != nil {
			log.Warn().Err(err).Int("class_id", ref.ID).Msg("Failed to fetch class detail, skipping")
			continue
		}

		class := PlayableClass{ID: ref.ID, Name: ref.Name}
		for _, s := range detail.Specializations {
			if s.Name == "" {
				continue
			}
			class.Specs = append(class.Specs, PlayableSpec{ID: s.ID, Name: s.Name})
		}
		classes = append(classes, class)
	}
	return classes, nil
}

// JournalInstances fetches the instance index (raids and dungeons)
func (c *Client) JournalInstances(ctx context.Context) ([]InstanceRef, error) {
	var resp journalInstanceIndexResponse
	if err := c.get(ctx, "/data/wow/journal-instance/index", c.staticNamespace(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch instance index: %w", err)
	}

	instances := make([]InstanceRef, 0, len(resp.Instances))
	for _, i := range resp.Instances {
		if i.ID == 0 || i.Name == "" {
			continue
		}
		instances = append(instances, InstanceRef{ID: i.ID, Name: i.Name})
	}
	return instances, nil
}

// JournalInstance fetches one instance's detail: category and encounter refs
func (c *Client) JournalInstance(ctx context.Context, id int64) (*JournalInstance, error) {
	path := fmt.Sprintf("/data/wow/journal-instance/%d", id)

	var resp journalInstanceResponse
	if err := c.get(ctx, path, c.staticNamespace(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch instance %d: %w", id, err)
	}

	if resp.ID == 0 || resp.Name == "" {
		return nil, ErrBadPayload
	}

	inst := &JournalInstance{
		ID:       resp.ID,
		Name:     resp.Name,
		Category: resp.Category.Type,
	}
	for _, e := range resp.Encounters {
		if e.ID == 0 {
			continue
		}
		inst.Encounters = append(inst.Encounters, EncounterRef{ID: e.ID, Name: e.Name})
	}
	return inst, nil
}

// JournalEncounter fetches one encounter's loot table
func (c *Client) JournalEncounter(ctx context.Context, id int64) (*JournalEncounter, error) {
	path := fmt.Sprintf("/data/wow/journal-encounter/%d", id)

	var resp journalEncounterResponse
	if err := c.get(ctx, path, c.staticNamespace(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch encounter %d: %w", id, err)
	}

	if resp.ID == 0 {
		return nil, ErrBadPayload
	}

	enc := &JournalEncounter{ID: resp.ID, Name: resp.Name}
	for _, it := range resp.Items {
		if it.Item.ID == 0 || it.Item.Name == "" {
			continue
		}
		enc.Items = append(enc.Items, ItemRef{ID: it.Item.ID, Name: it.Item.Name})
	}
	return enc, nil
}

// ItemDetail fetches one item's detail
func (c *Client) ItemDetail(ctx context.Context, id int64) (*ItemDetail, error) {
	path := fmt.Sprintf("/data/wow/item/%d", id)

	var resp itemDetailResponse
	if err := c.get(ctx, path, c.staticNamespace(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch item %d: %w", id, err)
	}

	if resp.ID == 0 || resp.Name == "" {
		return nil, ErrBadPayload
	}

	return &ItemDetail{
		ID:            resp.ID,
		Name:          resp.Name,
		Quality:       resp.Quality.Type,
		InventoryType: resp.InventoryType.Type,
	}, nil
}

// ItemIcon fetches the icon asset URL for an item
func (c *Client) ItemIcon(ctx context.Context, id int64) (string, error) {
	path := fmt.Sprintf("/data/wow/media/item/%d", id)

	var resp itemMediaResponse
	if err := c.get(ctx, path, c.staticNamespace(), nil, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch item media %d: %w", id, err)
	}

	for _, a := range resp.Assets {
		if a.Key == "icon" && a.Value != "" {
			return a.Value, nil
		}
	}
	return "", ErrBadPayload
}

// SearchItems queries the item search endpoint for a small page of
// name-matching candidates
func (c *Client) SearchItems(ctx context.Context, name string, pageSize int) ([]ItemSummary, error) {
	if pageSize <= 0 {
		pageSize = 10
	}

	extra := map[string]string{
		"name." + c.locale: name,
		"_pageSize":        fmt.Sprintf("%d", pageSize),
		"orderby":          "id",
	}

	var resp itemSearchResponse
	if err := c.get(ctx, "/data/wow/search/item", c.staticNamespace(), extra, &resp); err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}

	results := make([]ItemSummary, 0, len(resp.Results))
	for _, r := range resp.Results {
		localized := r.Data.Name[c.locale]
		if r.Data.ID == 0 || localized == "" {
			continue
		}
		results = append(results, ItemSummary{
			ID:            r.Data.ID,
			Name:          localized,
			Quality:       r.Data.Quality.Type,
			InventoryType: r.Data.InventoryType.Type,
		})
	}
	return results, nil
}
