package models

// EquipmentSlot is a canonical gear slot, static reference data seeded by
// the items job
type EquipmentSlot struct {
	Code        string `db:"code"`
	DisplayName string `db:"display_name"`
	SortOrder   int    `db:"sort_order"`
}

// CanonicalSlots is the full slot table in display order
var CanonicalSlots = []EquipmentSlot{
	{Code: "HEAD", DisplayName: "Head", SortOrder: 1},
	{Code: "NECK", DisplayName: "Neck", SortOrder: 2},
	{Code: "SHOULDER", DisplayName: "Shoulder", SortOrder: 3},
	{Code: "BACK", DisplayName: "Back", SortOrder: 4},
	{Code: "CHEST", DisplayName: "Chest", SortOrder: 5},
	{Code: "WRIST", DisplayName: "Wrist", SortOrder: 6},
	{Code: "HANDS", DisplayName: "Hands", SortOrder: 7},
	{Code: "WAIST", DisplayName: "Waist", SortOrder: 8},
	{Code: "LEGS", DisplayName: "Legs", SortOrder: 9},
	{Code: "FEET", DisplayName: "Feet", SortOrder: 10},
	{Code: "FINGER1", DisplayName: "Ring 1", SortOrder: 11},
	{Code: "FINGER2", DisplayName: "Ring 2", SortOrder: 12},
	{Code: "TRINKET1", DisplayName: "Trinket 1", SortOrder: 13},
	{Code: "TRINKET2", DisplayName: "Trinket 2", SortOrder: 14},
	{Code: "MAIN_HAND", DisplayName: "Main Hand", SortOrder: 15},
	{Code: "OFF_HAND", DisplayName: "Off Hand", SortOrder: 16},
	{Code: "RANGED", DisplayName: "Ranged", SortOrder: 17},
}

// inventoryTypeToSlot maps the game API inventory_type codes onto our
// canonical slot codes. Paired slots collapse onto the first position.
var inventoryTypeToSlot = map[string]string{
	"HEAD":           "HEAD",
	"NECK":           "NECK",
	"SHOULDER":       "SHOULDER",
	"CLOAK":          "BACK",
	"BACK":           "BACK",
	"CHEST":          "CHEST",
	"ROBE":           "CHEST",
	"WRIST":          "WRIST",
	"HAND":           "HANDS",
	"HANDS":          "HANDS",
	"WAIST":          "WAIST",
	"LEGS":           "LEGS",
	"FEET":           "FEET",
	"FINGER":         "FINGER1",
	"TRINKET":        "TRINKET1",
	"WEAPON":         "MAIN_HAND",
	"TWOHWEAPON":     "MAIN_HAND",
	"WEAPONMAINHAND": "MAIN_HAND",
	"WEAPONOFFHAND":  "OFF_HAND",
	"SHIELD":         "OFF_HAND",
	"HOLDABLE":       "OFF_HAND",
	"RANGED":         "RANGED",
	"RANGEDRIGHT":    "RANGED",
}

// SlotForInventoryType resolves an API inventory type to a canonical slot
// code; ok is false for types we do not track (bags, tabards, ...)
func SlotForInventoryType(invType string) (string, bool) {
	code, ok := inventoryTypeToSlot[invType]
	return code, ok
}
