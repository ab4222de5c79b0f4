// Package providers contains dependency injection providers for the BBLib server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/bblibapp/bblib-server/internal/config"
	"github.com/bblibapp/bblib-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting BBLib Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"inventory_url", cfg.Sheets.InventoryURL,
		"public_mode", cfg.Access.PublicMode,
	)

	return log, nil
}
