// Package sheets talks to the published-spreadsheet endpoints: CSV reads for
// the inventory, response log, and roles sheets, and the form-encoded write
// endpoint for new responses.
package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bblibapp/bblib-server/internal/errors"
	"github.com/bblibapp/bblib-server/internal/logger"
)

// maxBodyBytes caps how much CSV we are willing to read from an endpoint.
const maxBodyBytes = 32 << 20

// Client fetches published CSV exports.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *logger.Logger
}

// NewClient creates a read client. Published-sheet exports are served from a
// shared frontend, so requests are rate limited to stay well under its
// throttling threshold.
func NewClient(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		// 2 requests per second, burst of 4
		rateLimiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 4),
		logger:      log,
	}
}

// FetchInventory downloads and decodes the inventory sheet.
func (c *Client) FetchInventory(ctx context.Context, rawURL string) (Inventory, error) {
	text, err := c.fetch(ctx, "inventory", rawURL)
	if err != nil {
		return Inventory{}, err
	}
	return ParseInventory(text), nil
}

// FetchResponses downloads and decodes the response log sheet.
func (c *Client) FetchResponses(ctx context.Context, rawURL string) (ResponseLog, error) {
	text, err := c.fetch(ctx, "responses", rawURL)
	if err != nil {
		return ResponseLog{}, err
	}
	return ParseResponses(text), nil
}

// FetchRoles downloads and decodes the optional roles sheet.
func (c *Client) FetchRoles(ctx context.Context, rawURL string) (RoleSet, error) {
	text, err := c.fetch(ctx, "roles", rawURL)
	if err != nil {
		return RoleSet{}, err
	}
	return ParseRoles(text), nil
}

// fetch downloads one CSV export. Every request bypasses intermediary caches
// so reloads observe fresh sheet edits: the export endpoints serve stale
// copies aggressively otherwise.
func (c *Client) fetch(ctx context.Context, dataset, rawURL string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Validationf("invalid %s CSV URL", dataset).WithCause(err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(time.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	c.logger.Debug("fetching CSV", "dataset", dataset, "url", rawURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.FetchFailed(dataset, 0).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", errors.FetchFailed(dataset, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeFetchFailed, "%s CSV read failed", dataset)
	}

	text := string(body)
	if isProbablyHTML(text) {
		// A sheet that is not published to the web answers with an HTML
		// sign-in or error page instead of CSV.
		return "", errors.NotPublic(dataset + " sheet is not published as CSV")
	}

	c.logger.Debug("fetched CSV", "dataset", dataset, "bytes", len(text))

	return text, nil
}

// htmlMarkers are checked against the start of a response body to detect an
// HTML page masquerading as a CSV export.
var htmlMarkers = []string{"<!doctype", "<html", "<head", "<body"}

func isProbablyHTML(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	if len(head) > 200 {
		head = head[:200]
	}
	for _, marker := range htmlMarkers {
		if strings.Contains(head, marker) {
			return true
		}
	}
	return false
}
