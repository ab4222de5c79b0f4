// Package facet implements filtering and faceted counting over the inventory.
//
// Two independent facet groups (class and genre) combine with a free-text
// query: values within a group are OR'd, the groups and the query are AND'd.
// Counts for a group deliberately ignore that group's own selection so they
// read as "how many results would picking this value give me".
package facet

import (
	"sort"
	"strings"

	"github.com/bblibapp/bblib-server/internal/domain"
)

// Selection is a set of selected facet values. An empty (or nil) Selection
// means "no restriction".
type Selection map[string]struct{}

// NewSelection builds a Selection from a list of values, trimming whitespace
// and dropping blanks.
func NewSelection(values ...string) Selection {
	sel := make(Selection, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			sel[v] = struct{}{}
		}
	}
	return sel
}

// Matches reports whether the value satisfies the selection: an empty
// selection matches everything, otherwise membership is required.
func (s Selection) Matches(value string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[strings.TrimSpace(value)]
	return ok
}

// Values returns the selected values in sorted order.
func (s Selection) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Visible returns the items matching query AND classSel AND genreSel, in the
// inventory's original order.
func Visible(items []domain.Item, classSel, genreSel Selection, query string) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if it.MatchesQuery(query) && classSel.Matches(it.Class) && genreSel.Matches(it.Genre) {
			out = append(out, it)
		}
	}
	return out
}

// Counts holds per-value item counts for both facet groups.
type Counts struct {
	Class map[string]int
	Genre map[string]int
}

// Count computes faceted counts. Class counts are taken over items matching
// the query and the genre selection (the class selection is ignored), and
// vice versa for genre counts. Blank class values are excluded; a blank genre
// never occurs because normalization substitutes "Unknown".
func Count(items []domain.Item, classSel, genreSel Selection, query string) Counts {
	counts := Counts{
		Class: make(map[string]int),
		Genre: make(map[string]int),
	}

	for _, it := range items {
		if !it.MatchesQuery(query) {
			continue
		}
		if genreSel.Matches(it.Genre) && it.Class != "" {
			counts.Class[it.Class]++
		}
		if classSel.Matches(it.Class) && it.Genre != "" {
			counts.Genre[it.Genre]++
		}
	}

	return counts
}

// ClassValues returns the distinct non-blank class values across the full
// inventory, lexicographically sorted.
func ClassValues(items []domain.Item) []string {
	return distinct(items, func(it domain.Item) string { return it.Class })
}

// GenreValues returns the distinct non-blank genre values across the full
// inventory, lexicographically sorted.
func GenreValues(items []domain.Item) []string {
	return distinct(items, func(it domain.Item) string { return it.Genre })
}

func distinct(items []domain.Item, get func(domain.Item) string) []string {
	seen := make(map[string]struct{})
	for _, it := range items {
		v := strings.TrimSpace(get(it))
		if v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
