package job

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bpdaum/wipesontrash-sub000/internal/metrics"
	"github.com/bpdaum/wipesontrash-sub000/internal/models"
	"github.com/bpdaum/wipesontrash-sub000/internal/warcraftlogs"
)

// SyncLogs pulls recent combat-log reports, records attendance and
// per-encounter performance (one transaction per report), then recomputes
// each active character's aggregates
func (r *Runner) SyncLogs(ctx context.Context) error {
	if err := r.db.EnsureSchema(ctx); err != nil {
		return err
	}

	characters, err := r.db.Characters.ListActive(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]*models.Character, len(characters))
	for _, c := range characters {
		byName[strings.ToLower(c.Name)] = c
	}

	pages := r.cfg.WCLReportPages
	if pages <= 0 {
		pages = 1
	}

	saved := 0
	for page := 1; page <= pages; page++ {
		summaries, more, err := r.logs.GuildReports(
			ctx, r.cfg.GuildName, r.cfg.RealmSlug(), r.cfg.Region, page, 25)
		if err != nil {
			return fmt.Errorf("report listing failed: %w", err)
		}

		for _, summary := range summaries {
			if err := r.syncReport(ctx, summary.Code, byName); err != nil {
				metrics.BatchesRolledBack.Inc()
				log.Error().Err(err).Str("report", summary.Code).Msg("Report batch failed, continuing")
				continue
			}
			saved++
		}

		if !more {
			break
		}
	}
	log.Info().Int("count", saved).Msg("Reports saved")

	return r.recomputeAggregates(ctx, characters)
}

// syncReport fetches one report and writes it in a single transaction
func (r *Runner) syncReport(ctx context.Context, code string, byName map[string]*models.Character) error {
	detail, err := r.logs.Report(ctx, code)
	if err != nil {
		return err
	}

	report := &models.Report{
		Code:      detail.Code,
		StartTime: detail.StartTime,
	}
	if detail.Title != "" {
		report.Title = sql.NullString{String: detail.Title, Valid: true}
	}
	if !detail.EndTime.IsZero() {
		report.EndTime = sql.NullTime{Time: detail.EndTime, Valid: true}
	}
	if detail.Zone != "" {
		report.Zone = sql.NullString{String: detail.Zone, Valid: true}
	}

	var attendees []int64
	for _, actor := range detail.Actors {
		c, ok := byName[strings.ToLower(actor.Name)]
		if !ok {
			continue // pug or renamed character; attendance tracks members only
		}
		attendees = append(attendees, c.ID)
	}

	perfs := flattenRankings(detail.Code, detail.Rankings, byName)

	return r.db.Reports.Save(ctx, report, attendees, perfs)
}

// flattenRankings maps the per-role ranking groups onto performance rows.
// The role group fixes the metric: healer parses are hps, tank and dps
// parses are dps.
func flattenRankings(reportCode string, rankings []warcraftlogs.EncounterRanking, byName map[string]*models.Character) []models.EncounterPerformance {
	var perfs []models.EncounterPerformance

	add := func(encounterID int64, metric string, parses []warcraftlogs.Parse) {
		for _, p := range parses {
			c, ok := byName[strings.ToLower(p.Name)]
			if !ok {
				continue
			}
			perf := models.EncounterPerformance{
				ReportCode:  reportCode,
				CharacterID: c.ID,
				EncounterID: encounterID,
				Metric:      metric,
				Percentile:  p.RankPercent,
			}
			if p.Spec != "" {
				perf.Spec = sql.NullString{String: p.Spec, Valid: true}
			}
			perfs = append(perfs, perf)
		}
	}

	for _, enc := range rankings {
		add(enc.EncounterID, models.MetricDPS, enc.Tanks)
		add(enc.EncounterID, models.MetricHPS, enc.Healers)
		add(enc.EncounterID, models.MetricDPS, enc.DPS)
	}
	return perfs
}

// recomputeAggregates refreshes each character's attendance percentage and
// average percentile. Only the role-appropriate metric counts: a healer's
// off-role dps parses never enter the average.
func (r *Runner) recomputeAggregates(ctx context.Context, characters []*models.Character) error {
	total, err := r.db.Reports.Count(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		return nil
	}

	for _, c := range characters {
		attended, err := r.db.Reports.CountAttendance(ctx, c.ID)
		if err != nil {
			log.Warn().Err(err).Int64("character_id", c.ID).Msg("Attendance count failed")
			continue
		}

		metric := models.PrimaryMetric(c.Role.String)
		percentiles, err := r.db.Reports.Percentiles(ctx, c.ID, metric)
		if err != nil {
			log.Warn().Err(err).Int64("character_id", c.ID).Msg("Percentile fetch failed")
			continue
		}

		attendancePct := float64(attended) / float64(total) * 100
		avg := mean(percentiles)

		if err := r.db.Characters.SetAggregates(ctx, c.ID, attendancePct, avg, len(percentiles)); err != nil {
			log.Warn().Err(err).Int64("character_id", c.ID).Msg("Failed to store aggregates")
		}
	}
	return nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// AverageForRole averages only the role-appropriate parses out of a mixed
// set of performance rows
func AverageForRole(role string, perfs []models.EncounterPerformance) (float64, int) {
	metric := models.PrimaryMetric(role)

	var matching []float64
	for _, p := range perfs {
		if p.Metric == metric {
			matching = append(matching, p.Percentile)
		}
	}
	return mean(matching), len(matching)
}
