// Package domain contains the core data types for the BBLib repertoire server.
package domain

import (
	"strings"

	"github.com/bblibapp/bblib-server/internal/csvtext"
)

// Item is one repertoire entry from the inventory sheet.
//
// The canonical fields are resolved from the raw row via ordered candidate
// header lists; Fields retains every raw column untouched so detail views and
// exports keep full fidelity.
type Item struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle,omitempty"`
	Class         string `json:"class"`
	Genre         string `json:"genre"`
	Duration      string `json:"duration,omitempty"`
	Composer      string `json:"composer,omitempty"`
	Arranger      string `json:"arranger,omitempty"`
	RecordingLink string `json:"recording_link,omitempty"`

	Fields csvtext.Record `json:"fields"`

	// searchText is the precomputed lower-cased haystack for substring search.
	searchText string
}

// Candidate header spellings per canonical field, probed in order. The sheet
// has changed column naming conventions more than once; first match wins.
var (
	itemIDKeys        = []string{"ID", "id", "Id"}
	itemTitleKeys     = []string{"TITLE", "Title", "title"}
	itemSubtitleKeys  = []string{"SUBTITLE", "Subtitle", "subtitle"}
	itemClassKeys     = []string{"CLASS10", "CLASS", "Class10", "Class", "class10", "class"}
	itemGenreKeys     = []string{"GENRE", "Genre", "genre"}
	itemDurationKeys  = []string{"DURATION", "Duration", "LENGTH", "Length"}
	itemComposerKeys  = []string{"COMPOSER", "Composer", "composer"}
	itemArrangerKeys  = []string{"ARRANGER", "Arranger", "arranger"}
	itemRecordingKeys = []string{"RECORDINGLINK", "RECORDING_LINK", "Recording Link", "recordinglink"}
	itemNoteKeys      = []string{"PERFORMANCE NOTES", "NOTE1", "NOTE2"}
)

// GenreUnknown is the canonical genre for rows with a blank genre cell.
const GenreUnknown = "Unknown"

// NewItem builds an Item from a decoded inventory row.
func NewItem(rec csvtext.Record) Item {
	it := Item{
		ID:            pick(rec, itemIDKeys),
		Title:         pick(rec, itemTitleKeys),
		Subtitle:      pick(rec, itemSubtitleKeys),
		Class:         pick(rec, itemClassKeys),
		Genre:         pick(rec, itemGenreKeys),
		Duration:      pick(rec, itemDurationKeys),
		Composer:      pick(rec, itemComposerKeys),
		Arranger:      pick(rec, itemArrangerKeys),
		RecordingLink: pick(rec, itemRecordingKeys),
		Fields:        rec,
	}
	if it.Genre == "" {
		it.Genre = GenreUnknown
	}

	hay := []string{
		it.ID, it.Title, it.Subtitle, it.Class, it.Genre,
		it.Composer, it.Arranger,
	}
	for _, k := range itemNoteKeys {
		hay = append(hay, rec[k])
	}
	it.searchText = strings.ToLower(strings.Join(hay, " "))

	return it
}

// HasItemIDColumn reports whether a decoded inventory header carries any of
// the recognized ID column spellings.
func HasItemIDColumn(columns []string) bool {
	for _, col := range columns {
		for _, k := range itemIDKeys {
			if col == k {
				return true
			}
		}
	}
	return false
}

// MatchesQuery reports whether the item matches a free-text query by
// case-insensitive substring over the canonical fields and note columns.
// An empty or whitespace query matches everything.
func (it Item) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(it.searchText, q)
}

// pick returns the first trimmed value whose key is present in the record.
func pick(rec csvtext.Record, keys []string) string {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
