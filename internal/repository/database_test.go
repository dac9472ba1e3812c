package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpdaum/wipesontrash-sub000/internal/models"
)

// Integration tests. Point TEST_DATABASE_URL at a scratch database:
//
//	TEST_DATABASE_URL=postgresql://localhost:5432/wot_test go test ./internal/repository/...
//
// Tests are skipped when the variable is unset.

func setupTestDB(t *testing.T) (*Database, context.Context) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := NewDatabase(ctx, dsn)
	require.NoError(t, err, "Failed to connect to test database")

	require.NoError(t, db.EnsureSchema(ctx))

	// each test starts from empty data tables; static slots are reseeded
	_, err = db.Pool.Exec(ctx, `
		TRUNCATE encounter_performance, report_attendance, reports,
			bis_suggestions, bis_selections, characters, items, sources,
			equipment_slots CASCADE
	`)
	require.NoError(t, err)
	require.NoError(t, db.Slots.Seed(ctx))

	t.Cleanup(db.Close)
	return db, ctx
}

func TestDatabaseHealth(t *testing.T) {
	db, ctx := setupTestDB(t)

	assert.NoError(t, db.Health(ctx))
}

func TestItemUpsertIdempotent(t *testing.T) {
	db, ctx := setupTestDB(t)

	item := &models.Item{
		ID:       19019,
		Name:     "Thunderfury, Blessed Blade of the Windseeker",
		Quality:  sql.NullString{String: "LEGENDARY", Valid: true},
		SlotCode: "MAIN_HAND",
	}
	require.NoError(t, db.Items.Upsert(ctx, item))
	require.NoError(t, db.Items.Upsert(ctx, item))

	count, err := db.Items.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "Upserting twice must not duplicate the row")

	got, err := db.Items.GetByID(ctx, 19019)
	require.NoError(t, err)
	assert.Equal(t, item.Name, got.Name)
	assert.Equal(t, "MAIN_HAND", got.SlotCode)
}

func TestItemIconNotOverwritten(t *testing.T) {
	db, ctx := setupTestDB(t)

	item := &models.Item{ID: 1000, Name: "Crown of Will", SlotCode: "HEAD"}
	require.NoError(t, db.Items.Upsert(ctx, item))

	require.NoError(t, db.Items.SetIcon(ctx, 1000, "inv_crown_01"))

	// a later upsert carrying a different icon must not flip it
	item.Icon = sql.NullString{String: "inv_crown_02", Valid: true}
	require.NoError(t, db.Items.Upsert(ctx, item))

	got, err := db.Items.GetByID(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, "inv_crown_01", got.Icon.String)

	// SetIcon is likewise a no-op once an icon exists
	require.NoError(t, db.Items.SetIcon(ctx, 1000, "inv_crown_03"))
	got, err = db.Items.GetByID(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, "inv_crown_01", got.Icon.String)
}

func TestItemGetByNameCaseInsensitive(t *testing.T) {
	db, ctx := setupTestDB(t)

	item := &models.Item{ID: 2000, Name: "Seal of the Broken Pact", SlotCode: "FINGER1"}
	require.NoError(t, db.Items.Upsert(ctx, item))

	got, err := db.Items.GetByName(ctx, "seal of the BROKEN pact")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.ID)

	_, err = db.Items.GetByName(ctx, "No Such Item")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCharacterSoftDeletePreservesOverrides(t *testing.T) {
	db, ctx := setupTestDB(t)

	for _, c := range []*models.Character{
		{ID: 1, Name: "Mirwen", Realm: "Area 52", Class: "Druid"},
		{ID: 2, Name: "Korgab", Realm: "Area 52", Class: "Warrior"},
	} {
		require.NoError(t, db.Characters.Upsert(ctx, c))
	}

	// a user-set override lives outside ingestion's writes
	_, err := db.Pool.Exec(ctx,
		`UPDATE characters SET status_override = 'raider', spec_override = 'Guardian' WHERE id = 2`)
	require.NoError(t, err)

	// Korgab left the guild
	n, err := db.Characters.DeactivateAbsent(ctx, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := db.Characters.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.False(t, got.Active, "Departed characters are deactivated, not deleted")
	assert.Equal(t, "raider", got.StatusOverride.String, "Soft delete keeps user overrides")

	// rejoining re-activates and still leaves the overrides alone
	require.NoError(t, db.Characters.Upsert(ctx, &models.Character{
		ID: 2, Name: "Korgab", Realm: "Area 52", Class: "Warrior",
		Status: sql.NullString{String: "member", Valid: true},
	}))

	got, err = db.Characters.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Equal(t, "member", got.Status.String)
	assert.Equal(t, "raider", got.StatusOverride.String)
	assert.Equal(t, "Guardian", got.SpecOverride.String)
	assert.Equal(t, "raider", got.EffectiveStatus())
}

func TestCharacterUpsertKeepsGearScore(t *testing.T) {
	db, ctx := setupTestDB(t)

	require.NoError(t, db.Characters.Upsert(ctx, &models.Character{
		ID: 1, Name: "Mirwen", Realm: "Area 52", Class: "Druid",
		GearScore: sql.NullFloat64{Float64: 489.5, Valid: true},
	}))

	// a run where the profile endpoint had no item level must not wipe it
	require.NoError(t, db.Characters.Upsert(ctx, &models.Character{
		ID: 1, Name: "Mirwen", Realm: "Area 52", Class: "Druid",
	}))

	got, err := db.Characters.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 489.5, got.GearScore.Float64)
}

func TestCharacterSetAggregates(t *testing.T) {
	db, ctx := setupTestDB(t)

	require.NoError(t, db.Characters.Upsert(ctx, &models.Character{
		ID: 1, Name: "Mirwen", Realm: "Area 52", Class: "Druid",
		AvgPercentile: sql.NullFloat64{},
	}))

	require.NoError(t, db.Characters.SetAggregates(ctx, 1, 75.0, 92.5, 4))
	got, err := db.Characters.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 75.0, got.AttendancePct.Float64)
	assert.Equal(t, 92.5, got.AvgPercentile.Float64)

	// with zero parses the attendance updates but the percentile keeps
	// its last value
	require.NoError(t, db.Characters.SetAggregates(ctx, 1, 50.0, 0, 0))
	got, err = db.Characters.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.AttendancePct.Float64)
	assert.Equal(t, 92.5, got.AvgPercentile.Float64)
}

func TestBiSSelectionOnePerSlot(t *testing.T) {
	db, ctx := setupTestDB(t)

	require.NoError(t, db.Characters.Upsert(ctx, &models.Character{
		ID: 1, Name: "Mirwen", Realm: "Area 52", Class: "Druid",
	}))
	for _, id := range []int64{3001, 3002} {
		require.NoError(t, db.Items.Upsert(ctx, &models.Item{
			ID: id, Name: "Helm Variant", SlotCode: "HEAD",
		}))
	}

	sel := &models.BiSSelection{
		CharacterID: 1,
		SlotCode:    "HEAD",
		ItemID:      sql.NullInt64{Int64: 3001, Valid: true},
	}
	require.NoError(t, db.BiS.Set(ctx, sel))

	sel.ItemID = sql.NullInt64{Int64: 3002, Valid: true}
	require.NoError(t, db.BiS.Set(ctx, sel))

	sels, err := db.BiS.ListByCharacter(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sels, 1, "A second pick for the same slot replaces the first")
	assert.Equal(t, int64(3002), sels[0].ItemID.Int64)
}

func TestSuggestionReplacePreservesResolvedIDs(t *testing.T) {
	db, ctx := setupTestDB(t)

	require.NoError(t, db.Items.Upsert(ctx, &models.Item{
		ID: 4000, Name: "Band of Burrowed Light", SlotCode: "FINGER1",
	}))

	first := []*models.Suggestion{
		{Class: "Priest", Spec: "Holy", SlotCode: "FINGER1", ItemName: "Band of Burrowed Light"},
		{Class: "Priest", Spec: "Holy", SlotCode: "HEAD", ItemName: "Unmapped Crown"},
	}
	require.NoError(t, db.Suggestions.ReplaceForSpec(ctx, "Priest", "Holy", first))

	// reconciliation resolved the ring after the first scrape
	require.NoError(t, db.Suggestions.SetItemID(ctx, first[0].ID, 4000))

	// the next scrape returns the same rows, unresolved again
	second := []*models.Suggestion{
		{Class: "Priest", Spec: "Holy", SlotCode: "FINGER1", ItemName: "band of burrowed light"},
		{Class: "Priest", Spec: "Holy", SlotCode: "HEAD", ItemName: "Unmapped Crown"},
	}
	require.NoError(t, db.Suggestions.ReplaceForSpec(ctx, "Priest", "Holy", second))

	rows, err := db.Suggestions.ListBySpec(ctx, "Priest", "Holy")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byName := map[string]*models.Suggestion{}
	for _, s := range rows {
		byName[s.SlotCode] = s
	}
	assert.Equal(t, int64(4000), byName["FINGER1"].ItemID.Int64,
		"Resolved ids survive a re-scrape of the same (slot, name) row")
	assert.False(t, byName["HEAD"].ItemID.Valid)

	unresolved, err := db.Suggestions.ListUnresolved(ctx, "Priest", "Holy")
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "Unmapped Crown", unresolved[0].ItemName)
}

func TestSuggestionSetItemIDMissingRow(t *testing.T) {
	db, ctx := setupTestDB(t)

	require.NoError(t, db.Items.Upsert(ctx, &models.Item{
		ID: 4000, Name: "Band of Burrowed Light", SlotCode: "FINGER1",
	}))

	err := db.Suggestions.SetItemID(ctx, 99999, 4000)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportSaveTransactional(t *testing.T) {
	db, ctx := setupTestDB(t)

	require.NoError(t, db.Characters.Upsert(ctx, &models.Character{
		ID: 1, Name: "Mirwen", Realm: "Area 52", Class: "Druid",
		Role: sql.NullString{String: models.RoleHealer, Valid: true},
	}))

	report := &models.Report{
		Code:      "abc123",
		Title:     sql.NullString{String: "Weekly clear", Valid: true},
		StartTime: time.Date(2026, 8, 20, 19, 0, 0, 0, time.UTC),
		Zone:      sql.NullString{String: "Manaforge Omega", Valid: true},
	}
	perfs := []models.EncounterPerformance{
		{ReportCode: "abc123", CharacterID: 1, EncounterID: 500, Metric: models.MetricHPS, Percentile: 92.5},
		{ReportCode: "abc123", CharacterID: 1, EncounterID: 500, Metric: models.MetricDPS, Percentile: 14.0},
	}

	require.NoError(t, db.Reports.Save(ctx, report, []int64{1}, perfs))
	// re-processing the same report is a no-op for counts
	require.NoError(t, db.Reports.Save(ctx, report, []int64{1}, perfs))

	exists, err := db.Reports.Exists(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, exists)

	total, err := db.Reports.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	attended, err := db.Reports.CountAttendance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, attended)

	hps, err := db.Reports.Percentiles(ctx, 1, models.MetricHPS)
	require.NoError(t, err)
	assert.Equal(t, []float64{92.5}, hps, "Metric filter keeps off-role parses out")
}
