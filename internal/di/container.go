// Package di provides dependency injection configuration for the BBLib server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/bblibapp/bblib-server/internal/config"
	"github.com/bblibapp/bblib-server/internal/di/providers"
	"github.com/bblibapp/bblib-server/internal/logger"
	"github.com/bblibapp/bblib-server/internal/service"
	"github.com/bblibapp/bblib-server/internal/sheets"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Snapshot cache
	do.Provide(injector, providers.ProvideStore)

	// Sheets layer
	do.Provide(injector, providers.ProvideSheetsClient)
	do.Provide(injector, providers.ProvideWriteLimiter)
	do.Provide(injector, providers.ProvideSubmitter)

	// Business services
	do.Provide(injector, providers.ProvideLibraryService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*sheets.Client](injector)
	_ = do.MustInvoke[*providers.WriteLimiterHandle](injector)
	_ = do.MustInvoke[*sheets.Submitter](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Serve the last-good snapshot immediately, then fetch fresh sheets
	// in the background so a slow or broken upstream never blocks startup.
	providers.RunInitialLoad(injector)

	return nil
}
