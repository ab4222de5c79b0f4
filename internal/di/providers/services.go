package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bblibapp/bblib-server/internal/config"
	"github.com/bblibapp/bblib-server/internal/logger"
	"github.com/bblibapp/bblib-server/internal/service"
	"github.com/bblibapp/bblib-server/internal/sheets"
)

// ProvideLibraryService provides the snapshot-serving library service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	client := do.MustInvoke[*sheets.Client](i)
	submitter := do.MustInvoke[*sheets.Submitter](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	// A nil *store.Store must stay a nil interface, otherwise the service
	// would try to persist through it.
	var cache service.Cache
	if storeHandle.Store != nil {
		cache = storeHandle.Store
	}

	return service.NewLibraryService(cfg, client, submitter, cache, log), nil
}

// RunInitialLoad warms the service from the snapshot cache and kicks off the
// first live fetch in the background. A failed fetch is logged, not fatal:
// the cached snapshot (or an empty one) keeps serving until a reload succeeds.
func RunInitialLoad(i do.Injector) {
	svc := do.MustInvoke[*service.LibraryService](i)
	log := do.MustInvoke[*logger.Logger](i)

	warmCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	svc.WarmFromCache(warmCtx)
	cancel()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), initialLoadTimeout)
		defer cancel()

		if _, err := svc.Reload(ctx); err != nil {
			log.Error("Initial sheet load failed, serving cached snapshot", "error", err)
		}
	}()
}
