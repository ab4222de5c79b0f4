package service

import (
	"context"
	"strings"
	"time"

	"github.com/bblibapp/bblib-server/internal/dashboard"
	"github.com/bblibapp/bblib-server/internal/domain"
	"github.com/bblibapp/bblib-server/internal/errors"
	"github.com/bblibapp/bblib-server/internal/facet"
	"github.com/bblibapp/bblib-server/internal/sheets"
	"github.com/bblibapp/bblib-server/internal/userstate"
)

// ItemsQuery selects a page of visible items.
type ItemsQuery struct {
	Classes []string
	Genres  []string
	Query   string
	Limit   int
	Offset  int
}

// ItemsResult is one page of the filtered inventory.
type ItemsResult struct {
	Items   []domain.Item `json:"items"`
	Total   int           `json:"total"`
	Matched int           `json:"matched"`
	Columns []string      `json:"columns"`

	LoadID   string    `json:"load_id"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Items returns the page of items matching the query and facet selections, in
// inventory order.
func (s *LibraryService) Items(q ItemsQuery) ItemsResult {
	snap := s.current()

	visible := facet.Visible(snap.items,
		facet.NewSelection(q.Classes...),
		facet.NewSelection(q.Genres...),
		q.Query)

	matched := len(visible)

	limit := q.Limit
	if limit <= 0 {
		limit = s.cfg.Server.PageSize
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > matched {
		offset = matched
	}
	end := offset + limit
	if end > matched {
		end = matched
	}

	return ItemsResult{
		Items:    visible[offset:end],
		Total:    len(snap.items),
		Matched:  matched,
		Columns:  snap.columns,
		LoadID:   snap.loadID,
		LoadedAt: snap.loadedAt,
	}
}

// Item returns one inventory item by ID.
func (s *LibraryService) Item(itemID string) (domain.Item, error) {
	snap := s.current()
	for _, it := range snap.items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return domain.Item{}, errors.NotFoundf("item %q not found", itemID)
}

// FacetsResult holds facet values and counts for one filter state.
type FacetsResult struct {
	ClassValues []string       `json:"class_values"`
	GenreValues []string       `json:"genre_values"`
	ClassCounts map[string]int `json:"class_counts"`
	GenreCounts map[string]int `json:"genre_counts"`
}

// Facets returns the distinct facet values over the full inventory plus the
// faceted counts for the given selections and query.
func (s *LibraryService) Facets(classes, genres []string, query string) FacetsResult {
	snap := s.current()

	counts := facet.Count(snap.items,
		facet.NewSelection(classes...),
		facet.NewSelection(genres...),
		query)

	return FacetsResult{
		ClassValues: facet.ClassValues(snap.items),
		GenreValues: facet.GenreValues(snap.items),
		ClassCounts: counts.Class,
		GenreCounts: counts.Genre,
	}
}

// Me derives the calling identity's state from the response log. In public
// mode the state is always empty.
func (s *LibraryService) Me(identity string) userstate.State {
	if s.cfg.Access.PublicMode {
		return userstate.Empty()
	}
	return userstate.Derive(s.current().responses, identity)
}

// IsAdmin reports whether the identity may see the dashboard: role "admin" in
// the roles sheet, or membership in the configured admin list.
func (s *LibraryService) IsAdmin(identity string) bool {
	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" {
		return false
	}
	if s.current().roles[identity] == domain.RoleAdmin {
		return true
	}
	for _, email := range s.cfg.Access.AdminEmails {
		if email == identity {
			return true
		}
	}
	return false
}

// Dashboard returns the aggregate rollups. Admins only; hidden entirely in
// public mode.
func (s *LibraryService) Dashboard(identity string) (dashboard.Summary, error) {
	if s.cfg.Access.PublicMode {
		return dashboard.Summary{}, errors.Forbidden("dashboard is not available in public mode")
	}
	if strings.TrimSpace(identity) == "" {
		return dashboard.Summary{}, errors.Unauthorized("an identity is required for the dashboard")
	}
	if !s.IsAdmin(identity) {
		return dashboard.Summary{}, errors.Forbidden("dashboard requires the admin role")
	}

	snap := s.current()
	return dashboard.Build(snap.items, snap.responses, s.cfg.Sheets.AffirmativeChoice), nil
}

// Respond dispatches one response row after checking that the item exists.
func (s *LibraryService) Respond(ctx context.Context, identity, itemID, choice, comment string) (sheets.Receipt, error) {
	if _, err := s.Item(itemID); err != nil {
		return sheets.Receipt{}, err
	}
	return s.dispatcher.Submit(ctx, identity, itemID, choice, comment)
}

// Vote dispatches the configured vote choice for an item.
func (s *LibraryService) Vote(ctx context.Context, identity, itemID string) (sheets.Receipt, error) {
	return s.Respond(ctx, identity, itemID, s.cfg.Sheets.VoteChoice, "")
}

// SaveComment dispatches a comment row for an item.
func (s *LibraryService) SaveComment(ctx context.Context, identity, itemID, comment string) (sheets.Receipt, error) {
	if strings.TrimSpace(comment) == "" {
		return sheets.Receipt{}, errors.Validation("comment cannot be empty")
	}
	return s.Respond(ctx, identity, itemID, commentChoice, comment)
}

// Status describes the current snapshot for health reporting.
type Status struct {
	Loaded    bool      `json:"loaded"`
	FromCache bool      `json:"from_cache"`
	LoadID    string    `json:"load_id,omitempty"`
	LoadedAt  time.Time `json:"loaded_at,omitzero"`
	Items     int       `json:"items"`
	Responses int       `json:"responses"`
}

// Status reports the current snapshot's vital signs.
func (s *LibraryService) Status() Status {
	snap := s.current()
	return Status{
		Loaded:    snap.loadID != "",
		FromCache: snap.fromCache,
		LoadID:    snap.loadID,
		LoadedAt:  snap.loadedAt,
		Items:     len(snap.items),
		Responses: len(snap.responses),
	}
}
