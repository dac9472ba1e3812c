package models

import (
	"database/sql"
	"time"
)

// Performance metrics
const (
	MetricHPS = "hps"
	MetricDPS = "dps"
)

// Report is a combat-log report keyed by its external report code
type Report struct {
	Code      string         `db:"code"`
	Title     sql.NullString `db:"title"`
	StartTime time.Time      `db:"start_time"`
	EndTime   sql.NullTime   `db:"end_time"`
	Zone      sql.NullString `db:"zone"`
	CreatedAt time.Time      `db:"created_at"`
}

// Attendance records a character's presence in one report
type Attendance struct {
	ID          int64  `db:"id"`
	ReportCode  string `db:"report_code"`
	CharacterID int64  `db:"character_id"`
}

// EncounterPerformance is one rank-percentile parse, unique per
// (report, character, encounter, metric)
type EncounterPerformance struct {
	ID          int64          `db:"id"`
	ReportCode  string         `db:"report_code"`
	CharacterID int64          `db:"character_id"`
	EncounterID int64          `db:"encounter_id"`
	Metric      string         `db:"metric"`
	Spec        sql.NullString `db:"spec"`
	Percentile  float64        `db:"percentile"`
}

// PrimaryMetric returns the metric that counts toward a character's
// aggregate for the given role: healers parse on hps, everyone else on dps
func PrimaryMetric(role string) string {
	if role == RoleHealer {
		return MetricHPS
	}
	return MetricDPS
}
