package guide

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/bpdaum/wipesontrash-sub000/internal/fetch"
)

// ErrNoTable is returned when no table on the page looks like a BiS table
var ErrNoTable = errors.New("guide: no best-in-slot table found")

// Row is one parsed recommendation: a canonical slot and the item name the
// guide suggests for it. ItemID is nonzero when the page links the item.
type Row struct {
	SlotCode string
	ItemName string
	ItemID   int64
}

// Scraper pulls gear-guide pages and extracts the BiS table
type Scraper struct {
	baseURL string
	fetcher *fetch.Client
}

// NewScraper creates a gear-guide scraper
func NewScraper(fetcher *fetch.Client, baseURL string) *Scraper {
	return &Scraper{baseURL: strings.TrimRight(baseURL, "/"), fetcher: fetcher}
}

// slotNames maps the slot labels guide tables use onto canonical codes
var slotNames = map[string]string{
	"head":      "HEAD",
	"helm":      "HEAD",
	"neck":      "NECK",
	"amulet":    "NECK",
	"shoulder":  "SHOULDER",
	"shoulders": "SHOULDER",
	"back":      "BACK",
	"cloak":     "BACK",
	"chest":     "CHEST",
	"wrist":     "WRIST",
	"wrists":    "WRIST",
	"bracers":   "WRIST",
	"hands":     "HANDS",
	"gloves":    "HANDS",
	"waist":     "WAIST",
	"belt":      "WAIST",
	"legs":      "LEGS",
	"feet":      "FEET",
	"boots":     "FEET",
	"ring":      "FINGER1",
	"ring 1":    "FINGER1",
	"ring 2":    "FINGER2",
	"finger":    "FINGER1",
	"finger 1":  "FINGER1",
	"finger 2":  "FINGER2",
	"trinket":   "TRINKET1",
	"trinket 1": "TRINKET1",
	"trinket 2": "TRINKET2",
	"weapon":    "MAIN_HAND",
	"main hand": "MAIN_HAND",
	"main-hand": "MAIN_HAND",
	"two-hand":  "MAIN_HAND",
	"off hand":  "OFF_HAND",
	"off-hand":  "OFF_HAND",
	"offhand":   "OFF_HAND",
	"shield":    "OFF_HAND",
	"ranged":    "RANGED",
	"wand":      "RANGED",
}

// pairedSecond advances a repeated slot label onto its second position
var pairedSecond = map[string]string{
	"FINGER1":  "FINGER2",
	"TRINKET1": "TRINKET2",
}

var itemHrefPattern = regexp.MustCompile(`item[=/-](\d+)`)

// FetchBiS fetches and parses the BiS page for one class/spec
func (s *Scraper) FetchBiS(ctx context.Context, class, spec string) ([]Row, error) {
	url := fmt.Sprintf("%s/%s/%s/bis-gear", s.baseURL, slugify(class), slugify(spec))

	body, err := s.fetcher.GetHTML(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guide page: %w", err)
	}

	rows, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("guide page %s: %w", url, err)
	}
	return rows, nil
}

// Parse extracts the BiS rows from a guide page. Guide pages carry several
// tables (talents, stat weights, gear); the BiS table is the one whose
// header row names both a slot column and an item column.
func Parse(html []byte) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse guide page: %w", err)
	}

	var table *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if isBiSTable(t) {
			table = t
			return false
		}
		return true
	})
	if table == nil {
		return nil, ErrNoTable
	}

	var rows []Row
	seen := map[string]bool{}

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return // header or decorative row
		}

		slotLabel := normalize(cells.Eq(0).Text())
		code, ok := slotNames[slotLabel]
		if !ok {
			log.Debug().Str("slot", slotLabel).Msg("Unrecognized slot label in guide table")
			return
		}
		if seen[code] {
			if second, paired := pairedSecond[code]; paired && !seen[second] {
				code = second
			} else {
				return
			}
		}

		itemCell := cells.Eq(1)
		name := strings.TrimSpace(itemCell.Find("a").First().Text())
		if name == "" {
			name = strings.TrimSpace(itemCell.Text())
		}
		if name == "" {
			return
		}

		row := Row{SlotCode: code, ItemName: name}
		if href, exists := itemCell.Find("a").First().Attr("href"); exists {
			if m := itemHrefPattern.FindStringSubmatch(href); m != nil {
				if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
					row.ItemID = id
				}
			}
		}

		seen[code] = true
		rows = append(rows, row)
	})

	if len(rows) == 0 {
		return nil, ErrNoTable
	}
	return rows, nil
}

func isBiSTable(t *goquery.Selection) bool {
	header := normalize(t.Find("tr").First().Text())
	if header == "" {
		return false
	}
	hasSlot := strings.Contains(header, "slot")
	hasItem := strings.Contains(header, "item") || strings.Contains(header, "bis") ||
		strings.Contains(header, "best in slot")
	return hasSlot && hasItem
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}
