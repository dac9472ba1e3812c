package blizzard

// Exported results returned to jobs. Wire-format structs below are
// unexported; the parse step drops entries missing required fields.

// RosterMember is one guild roster entry
type RosterMember struct {
	ID        int64
	Name      string
	RealmSlug string
	ClassID   int
	Level     int
	Rank      int
}

// CharacterSummary is a character's profile summary
type CharacterSummary struct {
	ID                int64
	Name              string
	Class             string
	ActiveSpec        string
	AverageItemLevel  float64
	EquippedItemLevel float64
}

// PlayableClass is a class with its specializations
type PlayableClass struct {
	ID    int
	Name  string
	Specs []PlayableSpec
}

// PlayableSpec is one class specialization
type PlayableSpec struct {
	ID   int
	Name string
}

// InstanceRef is an entry in the journal instance index
type InstanceRef struct {
	ID   int64
	Name string
}

// JournalInstance is one instance's detail
type JournalInstance struct {
	ID         int64
	Name       string
	Category   string // INSTANCE kind, e.g. RAID or DUNGEON
	Encounters []EncounterRef
}

// EncounterRef is an encounter reference inside an instance
type EncounterRef struct {
	ID   int64
	Name string
}

// JournalEncounter is one encounter with its loot table
type JournalEncounter struct {
	ID    int64
	Name  string
	Items []ItemRef
}

// ItemRef is a loot-table item reference
type ItemRef struct {
	ID   int64
	Name string
}

// ItemDetail is one item's detail
type ItemDetail struct {
	ID            int64
	Name          string
	Quality       string
	InventoryType string
}

// ItemSummary is one item search result
type ItemSummary struct {
	ID            int64
	Name          string
	Quality       string
	InventoryType string
}

// Wire formats

type typeRef struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type rosterResponse struct {
	Members []struct {
		Character struct {
			ID    int64  `json:"id"`
			Name  string `json:"name"`
			Level int    `json:"level"`
			Realm struct {
				Slug string `json:"slug"`
			} `json:"realm"`
			PlayableClass struct {
				ID int `json:"id"`
			} `json:"playable_class"`
		} `json:"character"`
		Rank int `json:"rank"`
	} `json:"members"`
}

type characterSummaryResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	CharacterClass struct {
		Name string `json:"name"`
	} `json:"character_class"`
	ActiveSpec struct {
		Name string `json:"name"`
	} `json:"active_spec"`
	AverageItemLevel  float64 `json:"average_item_level"`
	EquippedItemLevel float64 `json:"equipped_item_level"`
}

type playableClassIndexResponse struct {
	Classes []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"classes"`
}

type playableClassResponse struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Specializations []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"specializations"`
}

type journalInstanceIndexResponse struct {
	Instances []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"instances"`
}

type journalInstanceResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Category   typeRef `json:"category"`
	Encounters []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"encounters"`
}

type journalEncounterResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Items []struct {
		Item struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"item"`
	} `json:"items"`
}

type itemDetailResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Quality       typeRef `json:"quality"`
	InventoryType typeRef `json:"inventory_type"`
}

type itemMediaResponse struct {
	Assets []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"assets"`
}

type itemSearchResponse struct {
	Results []struct {
		Data struct {
			ID      int64             `json:"id"`
			Name    map[string]string `json:"name"`
			Quality struct {
				Type string `json:"type"`
			} `json:"quality"`
			InventoryType struct {
				Type string `json:"type"`
			} `json:"inventory_type"`
		} `json:"data"`
	} `json:"results"`
}
