// Package dashboard computes reporting rollups over the response log.
package dashboard

import (
	"sort"
	"strings"
	"time"

	"github.com/bblibapp/bblib-server/internal/domain"
)

const (
	topItemsLimit = 10
	recentLimit   = 20

	// unknownTitle labels top-list rows whose item ID no longer resolves
	// against the inventory.
	unknownTitle = "(unknown)"
	// blankClassLabel groups affirmative votes for items without a class.
	blankClassLabel = "(blank)"
)

// Summary is the full dashboard payload.
type Summary struct {
	Voters           int          `json:"voters"`
	TotalResponses   int          `json:"total_responses"`
	AffirmativeTag   string       `json:"affirmative_tag"`
	TotalAffirmative int          `json:"total_affirmative"`
	TopItems         []TopItem    `json:"top_items"`
	ByClass          []ClassCount `json:"by_class"`
	Recent           []Activity   `json:"recent"`
}

// TopItem is one row of the affirmative-vote leaderboard.
type TopItem struct {
	ItemID string `json:"item_id"`
	Title  string `json:"title"`
	Class  string `json:"class"`
	Count  int    `json:"count"`
}

// ClassCount is the affirmative-vote total for one class facet value.
type ClassCount struct {
	Class string `json:"class"`
	Count int    `json:"count"`
}

// Activity is one row of the recent-responses table.
type Activity struct {
	When   string `json:"when"`
	Email  string `json:"email"`
	Choice string `json:"choice"`
	ItemID string `json:"item_id"`
}

// Build aggregates the response log against the inventory. affirmativeTag is
// the choice value counted as a positive vote, compared case-insensitively.
func Build(items []domain.Item, responses []domain.Response, affirmativeTag string) Summary {
	s := Summary{
		TotalResponses: len(responses),
		AffirmativeTag: affirmativeTag,
	}

	voters := make(map[string]struct{})
	affirmativeByItem := make(map[string]int)
	for _, r := range responses {
		if r.Email != "" {
			voters[r.Email] = struct{}{}
		}
		if !strings.EqualFold(r.Choice, affirmativeTag) {
			continue
		}
		s.TotalAffirmative++
		if r.ItemID != "" {
			affirmativeByItem[r.ItemID]++
		}
	}
	s.Voters = len(voters)

	byID := make(map[string]domain.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	s.TopItems = topItems(affirmativeByItem, byID)
	s.ByClass = byClass(affirmativeByItem, byID)
	s.Recent = recent(responses)

	return s
}

func topItems(affirmativeByItem map[string]int, byID map[string]domain.Item) []TopItem {
	rows := make([]TopItem, 0, len(affirmativeByItem))
	for id, n := range affirmativeByItem {
		row := TopItem{ItemID: id, Count: n, Title: unknownTitle}
		if it, ok := byID[id]; ok {
			row.Class = it.Class
			row.Title = it.Title
			if row.Title == "" {
				row.Title = "(untitled)"
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Title < rows[j].Title
	})

	if len(rows) > topItemsLimit {
		rows = rows[:topItemsLimit]
	}
	return rows
}

func byClass(affirmativeByItem map[string]int, byID map[string]domain.Item) []ClassCount {
	counts := make(map[string]int)
	for id, n := range affirmativeByItem {
		label := blankClassLabel
		if it, ok := byID[id]; ok && it.Class != "" {
			label = it.Class
		}
		counts[label] += n
	}

	rows := make([]ClassCount, 0, len(counts))
	for label, n := range counts {
		rows = append(rows, ClassCount{Class: label, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Class < rows[j].Class
	})
	return rows
}

func recent(responses []domain.Response) []Activity {
	type stamped struct {
		act    Activity
		when   time.Time
		parsed bool
	}

	rows := make([]stamped, 0, len(responses))
	for _, r := range responses {
		row := stamped{act: Activity{
			When:   r.Timestamp,
			Email:  r.Email,
			Choice: r.Choice,
			ItemID: r.ItemID,
		}}
		if ts, err := parseTimestamp(r.Timestamp); err == nil {
			row.when, row.parsed = ts, true
		}
		rows = append(rows, row)
	}

	// Parseable timestamps sort newest first; unparseable ones sort after
	// every parseable one and keep their original relative order.
	sort.SliceStable(rows, func(i, j int) bool {
		switch {
		case rows[i].parsed && rows[j].parsed:
			return rows[i].when.After(rows[j].when)
		case rows[i].parsed:
			return true
		default:
			return false
		}
	})

	if len(rows) > recentLimit {
		rows = rows[:recentLimit]
	}
	out := make([]Activity, len(rows))
	for i, r := range rows {
		out[i] = r.act
	}
	return out
}

// timestampLayouts covers the formats the sheet has been seen to record.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
