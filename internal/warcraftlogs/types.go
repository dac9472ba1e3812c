package warcraftlogs

import "time"

// ReportSummary is one entry in a guild's report listing
type ReportSummary struct {
	Code      string
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Zone      string
}

// Report is one report's detail
type Report struct {
	Code      string
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Zone      string
	Actors    []Actor
	Rankings  []EncounterRanking
}

// Actor is a player present in a report
type Actor struct {
	ID     int
	Name   string
	Server string
	Class  string
}

// EncounterRanking holds the per-role parses for one encounter.
// Healers rank on hps; tanks and dps rank on dps.
type EncounterRanking struct {
	EncounterID   int64
	EncounterName string
	Tanks         []Parse
	Healers       []Parse
	DPS           []Parse
}

// Parse is one character's rank percentile for an encounter
type Parse struct {
	Name        string
	Server      string
	Class       string
	Spec        string
	RankPercent float64
}

// Wire format of the rankings JSON column

type rankingsPayload struct {
	Data []struct {
		Encounter struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"encounter"`
		Roles struct {
			Tanks   roleRanking `json:"tanks"`
			Healers roleRanking `json:"healers"`
			DPS     roleRanking `json:"dps"`
		} `json:"roles"`
	} `json:"data"`
}

type roleRanking struct {
	Characters []rankedCharacter `json:"characters"`
}

type rankedCharacter struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Class  string `json:"class"`
	Spec   string `json:"spec"`
	Server struct {
		Name string `json:"name"`
	} `json:"server"`
	RankPercent float64 `json:"rankPercent"`
}
