package providers

import (
	"github.com/samber/do/v2"

	"github.com/bblibapp/bblib-server/internal/config"
	"github.com/bblibapp/bblib-server/internal/logger"
	"github.com/bblibapp/bblib-server/internal/ratelimit"
	"github.com/bblibapp/bblib-server/internal/sheets"
)

// ProvideSheetsClient provides the published-CSV fetch client.
func ProvideSheetsClient(i do.Injector) (*sheets.Client, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return sheets.NewClient(log), nil
}

// WriteLimiterHandle wraps the per-identity write limiter with Shutdownable
// so its prune goroutine stops with the container.
type WriteLimiterHandle struct {
	*ratelimit.Keyed
}

// Shutdown implements do.Shutdownable.
func (h *WriteLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideWriteLimiter provides the per-identity submission rate limiter.
func ProvideWriteLimiter(i do.Injector) (*WriteLimiterHandle, error) {
	return &WriteLimiterHandle{Keyed: ratelimit.New(writeLimitPerSecond, writeLimitBurst)}, nil
}

// ProvideSubmitter provides the response dispatcher.
func ProvideSubmitter(i do.Injector) (*sheets.Submitter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	limiter := do.MustInvoke[*WriteLimiterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Sheets.WriteURL == "" && !cfg.Access.PublicMode {
		log.Warn("No write URL configured, submissions will be rejected as read-only")
	}

	return sheets.NewSubmitter(sheets.SubmitterOptions{
		WriteURL:    cfg.Sheets.WriteURL,
		SettleDelay: cfg.Sheets.SettleDelay,
		ReadOnly:    cfg.Access.PublicMode,
	}, limiter.Keyed, log), nil
}
