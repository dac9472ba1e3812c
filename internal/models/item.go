package models

import (
	"database/sql"
	"time"
)

// Source is a named content source (raid, dungeon, or the fixed "system" row)
type Source struct {
	ID        int64     `db:"id"`
	Kind      string    `db:"kind"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// Source kinds
const (
	SourceKindRaid    = "raid"
	SourceKindDungeon = "dungeon"
	SourceKindSystem  = "system"
)

// Item is a game item keyed by its external id. Rows are idempotently
// upserted; the icon is backfilled only while NULL.
type Item struct {
	ID        int64          `db:"id"`
	Name      string         `db:"name"`
	Quality   sql.NullString `db:"quality"`
	Icon      sql.NullString `db:"icon"`
	SlotCode  string         `db:"slot_code"`
	SourceID  sql.NullInt64  `db:"source_id"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// BiSSelection is a character's chosen item for one slot, written by the
// front end. Unique per (character, slot).
type BiSSelection struct {
	ID          int64         `db:"id"`
	CharacterID int64         `db:"character_id"`
	SlotCode    string        `db:"slot_code"`
	ItemID      sql.NullInt64 `db:"item_id"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

// Suggestion is a scraped best-in-slot recommendation. ItemID is filled in
// by reconciliation and preserved across re-scrapes of the same row.
type Suggestion struct {
	ID        int64         `db:"id"`
	Class     string        `db:"class"`
	Spec      string        `db:"spec"`
	SlotCode  string        `db:"slot_code"`
	ItemName  string        `db:"item_name"`
	ItemID    sql.NullInt64 `db:"item_id"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}
