package providers

import (
	"github.com/samber/do/v2"

	"github.com/bblibapp/bblib-server/internal/config"
	"github.com/bblibapp/bblib-server/internal/logger"
	"github.com/bblibapp/bblib-server/internal/store"
)

// StoreHandle wraps the snapshot cache with shutdown capability. The Store
// field is nil when no cache path is configured.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	if h.Store == nil {
		return nil
	}
	return h.Close()
}

// ProvideStore provides the last-good CSV snapshot cache.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Cache.Path == "" {
		log.Info("Snapshot cache disabled, startup will always fetch live sheets")
		return &StoreHandle{}, nil
	}

	db, err := store.Open(cfg.Cache.Path, log)
	if err != nil {
		return nil, err
	}

	log.Info("Snapshot cache opened", "path", cfg.Cache.Path)

	return &StoreHandle{Store: db}, nil
}
