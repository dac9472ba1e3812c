package models

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleForSpec(t *testing.T) {
	assert.Equal(t, RoleHealer, RoleForSpec("Restoration"))
	assert.Equal(t, RoleHealer, RoleForSpec("Discipline"))
	assert.Equal(t, RoleTank, RoleForSpec("Protection"))
	assert.Equal(t, RoleTank, RoleForSpec("Blood"))
	assert.Equal(t, RoleDPS, RoleForSpec("Arcane"))
	assert.Equal(t, RoleDPS, RoleForSpec(""), "Unknown spec should default to dps")
}

func TestStatusForRank(t *testing.T) {
	assert.Equal(t, StatusOfficer, StatusForRank(0))
	assert.Equal(t, StatusOfficer, StatusForRank(1))
	assert.Equal(t, StatusRaider, StatusForRank(4))
	assert.Equal(t, StatusMember, StatusForRank(5))
}

func TestEffectiveOverrides(t *testing.T) {
	c := &Character{
		Spec:   sql.NullString{String: "Arms", Valid: true},
		Status: sql.NullString{String: StatusMember, Valid: true},
	}

	assert.Equal(t, "Arms", c.EffectiveSpec())
	assert.Equal(t, StatusMember, c.EffectiveStatus())

	c.SpecOverride = sql.NullString{String: "Fury", Valid: true}
	c.StatusOverride = sql.NullString{String: StatusRaider, Valid: true}

	assert.Equal(t, "Fury", c.EffectiveSpec(), "User spec override should win")
	assert.Equal(t, StatusRaider, c.EffectiveStatus(), "User status override should win")
}

func TestPrimaryMetric(t *testing.T) {
	assert.Equal(t, MetricHPS, PrimaryMetric(RoleHealer))
	assert.Equal(t, MetricDPS, PrimaryMetric(RoleTank))
	assert.Equal(t, MetricDPS, PrimaryMetric(RoleDPS))
}

func TestSlotForInventoryType(t *testing.T) {
	code, ok := SlotForInventoryType("CLOAK")
	assert.True(t, ok)
	assert.Equal(t, "BACK", code)

	code, ok = SlotForInventoryType("FINGER")
	assert.True(t, ok)
	assert.Equal(t, "FINGER1", code)

	_, ok = SlotForInventoryType("TABARD")
	assert.False(t, ok, "Untracked inventory types should not resolve")
}
