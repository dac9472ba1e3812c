package job

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpdaum/wipesontrash-sub000/internal/models"
	"github.com/bpdaum/wipesontrash-sub000/internal/warcraftlogs"
)

func TestFlattenRankingsMetricByRole(t *testing.T) {
	byName := map[string]*models.Character{
		"mirwen": {ID: 1, Name: "Mirwen"},
		"korgab": {ID: 2, Name: "Korgab"},
	}

	rankings := []warcraftlogs.EncounterRanking{
		{
			EncounterID: 500,
			Healers: []warcraftlogs.Parse{
				{Name: "Mirwen", Spec: "Restoration", RankPercent: 92.5},
			},
			DPS: []warcraftlogs.Parse{
				// Mirwen's off-role damage parse rides in the dps group
				{Name: "Mirwen", Spec: "Restoration", RankPercent: 14.0},
				{Name: "Korgab", Spec: "Fury", RankPercent: 71.2},
				{Name: "Pugdruid", Spec: "Balance", RankPercent: 99.0},
			},
		},
	}

	perfs := flattenRankings("abc123", rankings, byName)
	require.Len(t, perfs, 3, "Non-member parses are dropped")

	metrics := map[string][]float64{}
	for _, p := range perfs {
		assert.Equal(t, "abc123", p.ReportCode)
		assert.Equal(t, int64(500), p.EncounterID)
		if p.CharacterID == 1 {
			metrics[p.Metric] = append(metrics[p.Metric], p.Percentile)
		}
	}

	assert.Equal(t, []float64{92.5}, metrics[models.MetricHPS])
	assert.Equal(t, []float64{14.0}, metrics[models.MetricDPS])
}

func TestFlattenRankingsTanksRankOnDPS(t *testing.T) {
	byName := map[string]*models.Character{
		"brakk": {ID: 3, Name: "Brakk"},
	}

	rankings := []warcraftlogs.EncounterRanking{
		{
			EncounterID: 501,
			Tanks: []warcraftlogs.Parse{
				{Name: "Brakk", Spec: "Protection", RankPercent: 55.0},
			},
		},
	}

	perfs := flattenRankings("abc123", rankings, byName)
	require.Len(t, perfs, 1)
	assert.Equal(t, models.MetricDPS, perfs[0].Metric)
	assert.Equal(t, sql.NullString{String: "Protection", Valid: true}, perfs[0].Spec)
}

func TestAverageForRoleHealerIgnoresOffRoleParses(t *testing.T) {
	perfs := []models.EncounterPerformance{
		{CharacterID: 1, EncounterID: 500, Metric: models.MetricHPS, Percentile: 92.5},
		{CharacterID: 1, EncounterID: 500, Metric: models.MetricDPS, Percentile: 14.0},
	}

	avg, count := AverageForRole(models.RoleHealer, perfs)
	assert.Equal(t, 92.5, avg, "A healer's dps parses never enter the average")
	assert.Equal(t, 1, count)
}

func TestAverageForRoleDPS(t *testing.T) {
	perfs := []models.EncounterPerformance{
		{Metric: models.MetricDPS, Percentile: 60.0},
		{Metric: models.MetricDPS, Percentile: 80.0},
		{Metric: models.MetricHPS, Percentile: 5.0},
	}

	avg, count := AverageForRole(models.RoleDPS, perfs)
	assert.Equal(t, 70.0, avg)
	assert.Equal(t, 2, count)
}

func TestAverageForRoleNoParses(t *testing.T) {
	avg, count := AverageForRole(models.RoleTank, nil)
	assert.Zero(t, avg)
	assert.Zero(t, count)
}

func TestMean(t *testing.T) {
	assert.Zero(t, mean(nil))
	assert.Equal(t, 50.0, mean([]float64{25, 75}))
}
