package models

import (
	"database/sql"
	"time"
)

// Character roles
const (
	RoleTank   = "tank"
	RoleHealer = "healer"
	RoleDPS    = "dps"
)

// Character statuses computed from guild rank
const (
	StatusOfficer = "officer"
	StatusRaider  = "raider"
	StatusMember  = "member"
)

// Character is a guild member keyed by its external character id.
// StatusOverride and SpecOverride are user-set through the front end and
// are never written by ingestion; effective values are
// COALESCE(override, computed).
type Character struct {
	ID             int64           `db:"id"`
	Name           string          `db:"name"`
	Realm          string          `db:"realm"`
	Class          string          `db:"class"`
	Spec           sql.NullString  `db:"spec"`
	Role           sql.NullString  `db:"role"`
	Status         sql.NullString  `db:"status"`
	StatusOverride sql.NullString  `db:"status_override"`
	SpecOverride   sql.NullString  `db:"spec_override"`
	GearScore      sql.NullFloat64 `db:"gear_score"`
	AttendancePct  sql.NullFloat64 `db:"attendance_pct"`
	AvgPercentile  sql.NullFloat64 `db:"avg_percentile"`
	Active         bool            `db:"active"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// EffectiveSpec returns the user override when set, else the computed spec
func (c *Character) EffectiveSpec() string {
	if c.SpecOverride.Valid {
		return c.SpecOverride.String
	}
	return c.Spec.String
}

// EffectiveStatus returns the user override when set, else the computed status
func (c *Character) EffectiveStatus() string {
	if c.StatusOverride.Valid {
		return c.StatusOverride.String
	}
	return c.Status.String
}

// healerSpecs and tankSpecs cover every class; spec names are unambiguous
// across classes for role purposes (Holy and Restoration always heal,
// Protection always tanks).
var healerSpecs = map[string]bool{
	"Restoration":  true,
	"Holy":         true,
	"Discipline":   true,
	"Mistweaver":   true,
	"Preservation": true,
}

var tankSpecs = map[string]bool{
	"Protection": true,
	"Guardian":   true,
	"Blood":      true,
	"Brewmaster": true,
	"Vengeance":  true,
}

// RoleForSpec computes the combat role from a specialization name.
// Unknown or empty specs default to dps.
func RoleForSpec(spec string) string {
	switch {
	case healerSpecs[spec]:
		return RoleHealer
	case tankSpecs[spec]:
		return RoleTank
	default:
		return RoleDPS
	}
}

// StatusForRank computes membership status from the roster rank
// (0 = guild master)
func StatusForRank(rank int) string {
	switch {
	case rank <= 1:
		return StatusOfficer
	case rank <= 4:
		return StatusRaider
	default:
		return StatusMember
	}
}
