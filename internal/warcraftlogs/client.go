package warcraftlogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bpdaum/wipesontrash-sub000/internal/auth"
	"github.com/bpdaum/wipesontrash-sub000/internal/fetch"
)

// ErrBadPayload is returned when the GraphQL response carries errors or is
// missing required fields. Callers skip the unit.
var ErrBadPayload = errors.New("warcraftlogs: bad response payload")

// DefaultEndpoint is the v2 client API endpoint
const DefaultEndpoint = "https://www.warcraftlogs.com/api/v2/client"

const guildReportsQuery = `query ($name: String!, $serverSlug: String!, $serverRegion: String!, $page: Int!, $limit: Int!) {
  reportData {
    reports(guildName: $name, guildServerSlug: $serverSlug, guildServerRegion: $serverRegion, page: $page, limit: $limit) {
      data {
        code
        title
        startTime
        endTime
        zone { name }
      }
      has_more_pages
    }
  }
}`

const reportDetailQuery = `query ($code: String!) {
  reportData {
    report(code: $code) {
      code
      title
      startTime
      endTime
      zone { name }
      masterData(translate: true) {
        actors(type: "Player") {
          id
          name
          server
          subType
        }
      }
      rankings
    }
  }
}`

// Client is the combat-analytics GraphQL client: one POST endpoint taking a
// query/variables envelope.
type Client struct {
	endpoint string
	fetcher  *fetch.Client
	tokens   *auth.Provider
}

// NewClient creates a new Warcraft Logs client
func NewClient(fetcher *fetch.Client, tokens *auth.Provider, endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		fetcher:  fetcher,
		tokens:   tokens,
	}
}

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type gqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// query posts one GraphQL request and decodes data into out, failing closed
// on transport errors, GraphQL errors, or a missing data payload
func (c *Client) query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("no access token: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}

	var envelope gqlEnvelope
	req := gqlRequest{Query: query, Variables: variables}
	if err := c.fetcher.PostJSON(ctx, c.endpoint, headers, req, &envelope); err != nil {
		return err
	}

	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrBadPayload, envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 {
		return ErrBadPayload
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

// GuildReports fetches one page of a guild's report listing
func (c *Client) GuildReports(ctx context.Context, guildName, serverSlug, serverRegion string, page, limit int) ([]ReportSummary, bool, error) {
	if limit <= 0 {
		limit = 25
	}

	var resp struct {
		ReportData struct {
			Reports struct {
				Data []struct {
					Code      string  `json:"code"`
					Title     string  `json:"title"`
					StartTime float64 `json:"startTime"`
					EndTime   float64 `json:"endTime"`
					Zone      struct {
						Name string `json:"name"`
					} `json:"zone"`
				} `json:"data"`
				HasMorePages bool `json:"has_more_pages"`
			} `json:"reports"`
		} `json:"reportData"`
	}

	vars := map[string]interface{}{
		"name":         guildName,
		"serverSlug":   serverSlug,
		"serverRegion": serverRegion,
		"page":         page,
		"limit":        limit,
	}
	if err := c.query(ctx, guildReportsQuery, vars, &resp); err != nil {
		return nil, false, fmt.Errorf("failed to fetch guild reports: %w", err)
	}

	reports := make([]ReportSummary, 0, len(resp.ReportData.Reports.Data))
	for _, r := range resp.ReportData.Reports.Data {
		if r.Code == "" || r.StartTime == 0 {
			continue
		}
		reports = append(reports, ReportSummary{
			Code:      r.Code,
			Title:     r.Title,
			StartTime: msToTime(r.StartTime),
			EndTime:   msToTime(r.EndTime),
			Zone:      r.Zone.Name,
		})
	}
	return reports, resp.ReportData.Reports.HasMorePages, nil
}

// Report fetches one report's detail: player actors and encounter rankings
func (c *Client) Report(ctx context.Context, code string) (*Report, error) {
	var resp struct {
		ReportData struct {
			Report struct {
				Code      string  `json:"code"`
				Title     string  `json:"title"`
				StartTime float64 `json:"startTime"`
				EndTime   float64 `json:"endTime"`
				Zone      struct {
					Name string `json:"name"`
				} `json:"zone"`
				MasterData struct {
					Actors []struct {
						ID      int    `json:"id"`
						Name    string `json:"name"`
						Server  string `json:"server"`
						SubType string `json:"subType"`
					} `json:"actors"`
				} `json:"masterData"`
				Rankings json.RawMessage `json:"rankings"`
			} `json:"report"`
		} `json:"reportData"`
	}

	vars := map[string]interface{}{"code": code}
	if err := c.query(ctx, reportDetailQuery, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch report %s: %w", code, err)
	}

	raw := resp.ReportData.Report
	if raw.Code == "" || raw.StartTime == 0 {
		return nil, ErrBadPayload
	}

	report := &Report{
		Code:      raw.Code,
		Title:     raw.Title,
		StartTime: msToTime(raw.StartTime),
		EndTime:   msToTime(raw.EndTime),
		Zone:      raw.Zone.Name,
	}

	for _, a := range raw.MasterData.Actors {
		if a.Name == "" {
			continue
		}
		report.Actors = append(report.Actors, Actor{
			ID:     a.ID,
			Name:   a.Name,
			Server: a.Server,
			Class:  a.SubType,
		})
	}

	// rankings is an untyped JSON column on the API side; parse failures
	// leave the report usable for attendance alone
	if len(raw.Rankings) > 0 {
		var rankings rankingsPayload
		if err := json.Unmarshal(raw.Rankings, &rankings); err == nil {
			report.Rankings = convertRankings(rankings)
		}
	}

	return report, nil
}

func convertRankings(payload rankingsPayload) []EncounterRanking {
	out := make([]EncounterRanking, 0, len(payload.Data))
	for _, d := range payload.Data {
		if d.Encounter.ID == 0 {
			continue
		}
		er := EncounterRanking{
			EncounterID:   d.Encounter.ID,
			EncounterName: d.Encounter.Name,
		}
		er.Tanks = convertParses(d.Roles.Tanks.Characters)
		er.Healers = convertParses(d.Roles.Healers.Characters)
		er.DPS = convertParses(d.Roles.DPS.Characters)
		out = append(out, er)
	}
	return out
}

func convertParses(chars []rankedCharacter) []Parse {
	parses := make([]Parse, 0, len(chars))
	for _, ch := range chars {
		if ch.Name == "" {
			continue
		}
		parses = append(parses, Parse{
			Name:        ch.Name,
			Server:      ch.Server.Name,
			Class:       ch.Class,
			Spec:        ch.Spec,
			RankPercent: ch.RankPercent,
		})
	}
	return parses
}

func msToTime(ms float64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}
