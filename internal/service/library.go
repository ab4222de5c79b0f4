// Package service orchestrates the library: loading snapshots from the
// sheets, serving filtered views, and dispatching submissions.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/bblibapp/bblib-server/internal/config"
	"github.com/bblibapp/bblib-server/internal/domain"
	"github.com/bblibapp/bblib-server/internal/errors"
	"github.com/bblibapp/bblib-server/internal/logger"
	"github.com/bblibapp/bblib-server/internal/sheets"
	"github.com/bblibapp/bblib-server/internal/store"
)

// Dataset names, shared between fetch logging and the snapshot cache.
const (
	datasetInventory = "inventory"
	datasetResponses = "responses"
	datasetRoles     = "roles"
)

// commentChoice is the choice value recorded for comment-only submissions.
const commentChoice = "comment"

// Fetcher downloads the published CSV exports.
type Fetcher interface {
	FetchInventory(ctx context.Context, url string) (sheets.Inventory, error)
	FetchResponses(ctx context.Context, url string) (sheets.ResponseLog, error)
	FetchRoles(ctx context.Context, url string) (sheets.RoleSet, error)
}

// Dispatcher dispatches response rows to the write endpoint.
type Dispatcher interface {
	Submit(ctx context.Context, identity, itemID, choice, comment string) (sheets.Receipt, error)
}

// Cache persists the last-good CSV per dataset across restarts. A nil Cache
// disables warming.
type Cache interface {
	SaveSnapshot(ctx context.Context, dataset, body string, fetchedAt time.Time) error
	LoadSnapshot(ctx context.Context, dataset string) (store.Snapshot, error)
}

// snapshot is one immutable generation of sheet data. It is replaced
// wholesale on reload and never patched in place.
type snapshot struct {
	loadID    string
	loadedAt  time.Time
	fromCache bool

	columns   []string
	items     []domain.Item
	responses []domain.Response
	roles     map[string]string
}

// LibraryService owns the current snapshot and every operation over it.
type LibraryService struct {
	cfg        *config.Config
	fetcher    Fetcher
	dispatcher Dispatcher
	cache      Cache
	logger     *logger.Logger

	mu   sync.RWMutex
	snap *snapshot

	// reloads coalesces concurrent reload requests onto one fetch.
	reloads singleflight.Group
}

// NewLibraryService creates the service with an empty snapshot. Call
// WarmFromCache and Reload to populate it.
func NewLibraryService(cfg *config.Config, fetcher Fetcher, dispatcher Dispatcher, cache Cache, log *logger.Logger) *LibraryService {
	return &LibraryService{
		cfg:        cfg,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		cache:      cache,
		logger:     log,
		snap:       &snapshot{roles: map[string]string{}},
	}
}

// LoadResult describes one completed snapshot load.
type LoadResult struct {
	LoadID    string    `json:"load_id"`
	LoadedAt  time.Time `json:"loaded_at"`
	Items     int       `json:"items"`
	Responses int       `json:"responses"`
	FromCache bool      `json:"from_cache"`
}

// WarmFromCache installs the last persisted snapshot, if any, so the server
// has data before its first fetch completes. Failures are logged and
// swallowed: an empty snapshot is a valid starting state.
func (s *LibraryService) WarmFromCache(ctx context.Context) {
	if s.cache == nil {
		return
	}

	cached, err := s.cache.LoadSnapshot(ctx, datasetInventory)
	if err != nil {
		s.logger.Debug("no cached inventory to warm from", "error", err)
		return
	}

	inv := sheets.ParseInventory(cached.Body)
	if err := validateInventory(inv); err != nil {
		s.logger.Warn("cached inventory failed validation, ignoring", "error", err)
		return
	}

	next := &snapshot{
		loadID:    uuid.NewString(),
		loadedAt:  cached.FetchedAt,
		fromCache: true,
		columns:   inv.Columns,
		items:     inv.Items,
		roles:     map[string]string{},
	}

	if resp, err := s.cache.LoadSnapshot(ctx, datasetResponses); err == nil {
		next.responses = sheets.ParseResponses(resp.Body).Responses
	}
	if roles, err := s.cache.LoadSnapshot(ctx, datasetRoles); err == nil {
		next.roles = sheets.ParseRoles(roles.Body).Roles
	}

	s.install(next)

	s.logger.Info("warmed snapshot from cache",
		"load_id", next.loadID,
		"items", len(next.items),
		"responses", len(next.responses),
		"fetched_at", cached.FetchedAt,
	)
}

// Reload fetches every sheet and swaps in a new snapshot. Concurrent calls
// coalesce onto one in-flight load and share its result. On failure the
// previous snapshot keeps serving.
func (s *LibraryService) Reload(ctx context.Context) (LoadResult, error) {
	v, err, shared := s.reloads.Do("reload", func() (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return LoadResult{}, err
	}
	if shared {
		s.logger.Debug("reload coalesced onto in-flight load")
	}
	return v.(LoadResult), nil
}

// load performs one full fetch-validate-swap cycle.
func (s *LibraryService) load(ctx context.Context) (LoadResult, error) {
	started := time.Now()

	inv, err := s.fetcher.FetchInventory(ctx, s.cfg.Sheets.InventoryURL)
	if err != nil {
		return LoadResult{}, err
	}
	if err := validateInventory(inv); err != nil {
		return LoadResult{}, err
	}

	next := &snapshot{
		loadID:   uuid.NewString(),
		loadedAt: time.Now(),
		columns:  inv.Columns,
		items:    inv.Items,
		roles:    map[string]string{},
	}

	var respLog sheets.ResponseLog
	if s.cfg.Sheets.ResponsesURL != "" {
		respLog, err = s.fetcher.FetchResponses(ctx, s.cfg.Sheets.ResponsesURL)
		if err != nil {
			return LoadResult{}, err
		}
		next.responses = respLog.Responses
	}

	var roleSet sheets.RoleSet
	if s.cfg.Sheets.RolesURL != "" {
		roleSet, err = s.fetcher.FetchRoles(ctx, s.cfg.Sheets.RolesURL)
		if err != nil {
			return LoadResult{}, err
		}
		next.roles = roleSet.Roles
	}

	s.install(next)
	s.persist(ctx, inv.Text, respLog.Text, roleSet.Text, next.loadedAt)

	s.logger.Info("snapshot loaded",
		"load_id", next.loadID,
		"items", len(next.items),
		"responses", len(next.responses),
		"roles", len(next.roles),
		"duration", time.Since(started),
	)

	return LoadResult{
		LoadID:    next.loadID,
		LoadedAt:  next.loadedAt,
		Items:     len(next.items),
		Responses: len(next.responses),
	}, nil
}

func (s *LibraryService) install(next *snapshot) {
	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
}

func (s *LibraryService) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// persist writes the fetched CSV bodies to the cache, best effort.
func (s *LibraryService) persist(ctx context.Context, inventory, responses, roles string, fetchedAt time.Time) {
	if s.cache == nil {
		return
	}
	save := func(dataset, body string) {
		if body == "" {
			return
		}
		if err := s.cache.SaveSnapshot(ctx, dataset, body, fetchedAt); err != nil {
			s.logger.Warn("failed to cache snapshot", "dataset", dataset, "error", err)
		}
	}
	save(datasetInventory, inventory)
	save(datasetResponses, responses)
	save(datasetRoles, roles)
}

// validateInventory enforces the loader's invariants: rows exist, an ID
// column is present, and every row has an ID.
func validateInventory(inv sheets.Inventory) error {
	if len(inv.Items) == 0 {
		return errors.EmptyDataset("inventory CSV loaded but contains no rows")
	}
	if !domain.HasItemIDColumn(inv.Columns) {
		return errors.MissingColumn("inventory CSV has no ID column")
	}
	for i, it := range inv.Items {
		if it.ID == "" {
			return errors.MissingColumn(fmt.Sprintf("inventory item %d has an empty ID", i+1))
		}
	}
	return nil
}
