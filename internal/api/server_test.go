package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bblibapp/bblib-server/internal/config"
	"github.com/bblibapp/bblib-server/internal/errors"
	"github.com/bblibapp/bblib-server/internal/logger"
	"github.com/bblibapp/bblib-server/internal/service"
	"github.com/bblibapp/bblib-server/internal/sheets"
)

const (
	apiInventoryCSV = "ID,TITLE,CLASS,GENRE,COMPOSER\n" +
		"1,\"Song, A\",Pop,Rock,Lennon\n" +
		"2,Song B,Jazz,Rock,Monk\n" +
		"3,Song C,Pop,Swing,Basie\n"

	apiResponsesCSV = "TS,EMAIL,ID,CHOICE,COMMENT\n" +
		"2026-01-01,alice@example.com,1,WANT,\n" +
		"2026-01-02,alice@example.com,2,comment,lovely\n" +
		"2026-01-03,bob@example.com,1,WANT,\n"

	apiRolesCSV = "email,role\nboss@example.com,admin\n"
)

type stubFetcher struct {
	inventoryCSV string
	responsesCSV string
	rolesCSV     string
	invErr       error
}

func (f *stubFetcher) FetchInventory(ctx context.Context, url string) (sheets.Inventory, error) {
	if f.invErr != nil {
		return sheets.Inventory{}, f.invErr
	}
	return sheets.ParseInventory(f.inventoryCSV), nil
}

func (f *stubFetcher) FetchResponses(ctx context.Context, url string) (sheets.ResponseLog, error) {
	return sheets.ParseResponses(f.responsesCSV), nil
}

func (f *stubFetcher) FetchRoles(ctx context.Context, url string) (sheets.RoleSet, error) {
	return sheets.ParseRoles(f.rolesCSV), nil
}

type stubDispatcher struct {
	lastChoice string
	err        error
}

func (d *stubDispatcher) Submit(ctx context.Context, identity, itemID, choice, comment string) (sheets.Receipt, error) {
	if d.err != nil {
		return sheets.Receipt{}, d.err
	}
	d.lastChoice = choice
	return sheets.Receipt{ID: "resp-test", DispatchedAt: time.Now()}, nil
}

type testServer struct {
	*Server
	api        humatest.TestAPI
	fetcher    *stubFetcher
	dispatcher *stubDispatcher
}

func setupTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{
			Sheets: config.SheetsConfig{
				InventoryURL:      "https://example.com/inventory.csv",
				ResponsesURL:      "https://example.com/responses.csv",
				RolesURL:          "https://example.com/roles.csv",
				WriteURL:          "https://example.com/write",
				AffirmativeChoice: "WANT",
				VoteChoice:        "thumbs_up",
			},
			Server: config.ServerConfig{Port: "8080", PageSize: 40},
		}
	}

	fetcher := &stubFetcher{
		inventoryCSV: apiInventoryCSV,
		responsesCSV: apiResponsesCSV,
		rolesCSV:     apiRolesCSV,
	}
	dispatcher := &stubDispatcher{}

	log := logger.New(logger.Config{Writer: io.Discard, Level: slog.LevelError})
	svc := service.NewLibraryService(cfg, fetcher, dispatcher, nil, log)
	s := NewServer(cfg, svc, log)

	return &testServer{
		Server:     s,
		api:        humatest.Wrap(t, s.api),
		fetcher:    fetcher,
		dispatcher: dispatcher,
	}
}

func loadedTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	ts := setupTestServer(t, cfg)
	_, err := ts.svc.Reload(context.Background())
	require.NoError(t, err)
	return ts
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health.Status)

	_, err := ts.svc.Reload(context.Background())
	require.NoError(t, err)

	resp = ts.api.Get("/health")
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 3, health.Snapshot.Items)
}

func TestListItems(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Get("/api/v1/items?class=Pop")
	require.Equal(t, http.StatusOK, resp.Code)

	var res service.ItemsResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Matched)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "1", res.Items[0].ID)
	assert.NotEmpty(t, res.LoadID)
}

func TestListItems_QueryAndPaging(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Get("/api/v1/items?q=monk")
	require.Equal(t, http.StatusOK, resp.Code)

	var res service.ItemsResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Matched)

	resp = ts.api.Get("/api/v1/items?limit=1&offset=2")
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &res))
	require.Len(t, res.Items, 1)
	assert.Equal(t, "3", res.Items[0].ID)
}

func TestGetItem(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Get("/api/v1/items/2")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Song B")

	resp = ts.api.Get("/api/v1/items/999")
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), string(errors.CodeNotFound))
}

func TestGetFacets(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Get("/api/v1/facets?class=Pop")
	require.Equal(t, http.StatusOK, resp.Code)

	var res service.FacetsResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &res))
	assert.Equal(t, []string{"Jazz", "Pop"}, res.ClassValues)
	assert.Equal(t, 2, res.ClassCounts["Pop"], "class counts ignore the class selection")
	assert.Equal(t, 1, res.GenreCounts["Rock"], "genre counts honor the class selection")
}

func TestGetMe(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Get("/api/v1/me", "X-BBLib-User: Alice@Example.com")
	require.Equal(t, http.StatusOK, resp.Code)

	var me MeResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &me))
	assert.Equal(t, "alice@example.com", me.Email)
	assert.False(t, me.ReadOnly)
	assert.Equal(t, []string{"1", "2"}, me.VotedIDs)
	assert.Equal(t, "lovely", me.Comments["2"])
}

func TestGetMe_NoIdentity(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Get("/api/v1/me")
	require.Equal(t, http.StatusOK, resp.Code)

	var me MeResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &me))
	assert.True(t, me.ReadOnly)
	assert.Empty(t, me.VotedIDs)
}

func TestGetMe_PublicModeIgnoresIdentity(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Get("/api/v1/me?mode=public", "X-BBLib-User: alice@example.com")
	require.Equal(t, http.StatusOK, resp.Code)

	var me MeResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &me))
	assert.True(t, me.ReadOnly)
	assert.Empty(t, me.Email)
	assert.Empty(t, me.VotedIDs)
}

func TestSubmitResponse(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Post("/api/v1/responses",
		"X-BBLib-User: alice@example.com",
		map[string]any{"item_id": "1", "choice": "thumbs_up"})
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())

	var body SubmitResponseBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "dispatched", body.Status)
	assert.Equal(t, "resp-test", body.Receipt.ID)
	assert.Equal(t, "thumbs_up", ts.dispatcher.lastChoice)
}

func TestSubmitResponse_RequiresIdentity(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Post("/api/v1/responses",
		map[string]any{"item_id": "1", "choice": "thumbs_up"})
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), string(errors.CodeUnauthorized))
}

func TestSubmitResponse_PublicModeRejected(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Post("/api/v1/responses?mode=public",
		"X-BBLib-User: alice@example.com",
		map[string]any{"item_id": "1", "choice": "thumbs_up"})
	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Contains(t, resp.Body.String(), string(errors.CodeReadOnly))
}

func TestSubmitResponse_UnknownItem(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Post("/api/v1/responses",
		"X-BBLib-User: alice@example.com",
		map[string]any{"item_id": "999", "choice": "thumbs_up"})
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestReloadEndpoint(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Post("/api/v1/reload")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var res service.LoadResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Items)
	assert.NotEmpty(t, res.LoadID)
}

func TestReloadEndpoint_UpstreamFailure(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.fetcher.invErr = errors.FetchFailed("inventory", 503)

	resp := ts.api.Post("/api/v1/reload")
	require.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Contains(t, resp.Body.String(), string(errors.CodeFetchFailed))
}

func TestDashboard(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Get("/api/v1/dashboard", "X-BBLib-User: boss@example.com")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "total_responses")

	resp = ts.api.Get("/api/v1/dashboard", "X-BBLib-User: alice@example.com")
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Get("/api/v1/dashboard")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestDashboard_PublicMode(t *testing.T) {
	ts := loadedTestServer(t, nil)

	resp := ts.api.Get("/api/v1/dashboard?mode=public", "X-BBLib-User: boss@example.com")
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestServerWidePublicMode(t *testing.T) {
	cfg := &config.Config{
		Sheets: config.SheetsConfig{
			InventoryURL:      "https://example.com/inventory.csv",
			ResponsesURL:      "https://example.com/responses.csv",
			AffirmativeChoice: "WANT",
			VoteChoice:        "thumbs_up",
		},
		Access: config.AccessConfig{PublicMode: true},
		Server: config.ServerConfig{Port: "8080", PageSize: 40},
	}
	ts := loadedTestServer(t, cfg)

	resp := ts.api.Get("/api/v1/me", "X-BBLib-User: alice@example.com")
	var me MeResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &me))
	assert.True(t, me.ReadOnly)

	resp = ts.api.Post("/api/v1/responses",
		"X-BBLib-User: alice@example.com",
		map[string]any{"item_id": "1", "choice": "thumbs_up"})
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Get("/api/v1/dashboard", "X-BBLib-User: boss@example.com")
	require.Equal(t, http.StatusForbidden, resp.Code)
}
