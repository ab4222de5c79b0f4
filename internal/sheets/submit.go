package sheets

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bblibapp/bblib-server/internal/errors"
	"github.com/bblibapp/bblib-server/internal/id"
	"github.com/bblibapp/bblib-server/internal/logger"
	"github.com/bblibapp/bblib-server/internal/ratelimit"
)

// submitAction is the fixed action value the write endpoint expects.
const submitAction = "submit"

// Receipt identifies a dispatched submission. It proves dispatch, not
// acceptance: the write endpoint never acknowledges individual rows, so the
// ID exists only for log correlation.
type Receipt struct {
	ID           string    `json:"id"`
	DispatchedAt time.Time `json:"dispatched_at"`
}

// SubmitterOptions configures a Submitter.
type SubmitterOptions struct {
	// WriteURL is the form endpoint that appends a row to the response
	// sheet. Empty means this deployment accepts no writes.
	WriteURL string
	// SettleDelay is how long to wait after dispatch before returning, so
	// an immediate follow-up read has a chance of seeing the new row.
	SettleDelay time.Duration
	// ReadOnly rejects every submission without network I/O.
	ReadOnly bool
}

// Submitter dispatches votes and comments to the sheet's write endpoint.
//
// The contract with the endpoint is deliberately weak: the request is
// form-encoded, the response body is never read, and a non-error return means
// "dispatched", nothing stronger. Whether the row actually landed is only
// observable through the next response-log fetch.
type Submitter struct {
	httpClient *http.Client
	opts       SubmitterOptions
	limiter    *ratelimit.Keyed
	logger     *logger.Logger
}

// NewSubmitter creates a Submitter. limiter keys submissions by identity.
func NewSubmitter(opts SubmitterOptions, limiter *ratelimit.Keyed, log *logger.Logger) *Submitter {
	return &Submitter{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		opts:    opts,
		limiter: limiter,
		logger:  log,
	}
}

// Submit dispatches one response row. In read-only mode it fails before any
// network I/O.
func (s *Submitter) Submit(ctx context.Context, identity, itemID, choice, comment string) (Receipt, error) {
	if s.opts.ReadOnly {
		return Receipt{}, errors.ReadOnly("submissions are disabled in public mode")
	}
	if s.opts.WriteURL == "" {
		return Receipt{}, errors.ReadOnly("no write endpoint is configured")
	}

	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" {
		return Receipt{}, errors.Unauthorized("an identity is required to submit")
	}
	if itemID == "" {
		return Receipt{}, errors.Validation("item ID is required")
	}
	if choice == "" {
		return Receipt{}, errors.Validation("choice is required")
	}

	if !s.limiter.Allow(identity) {
		return Receipt{}, errors.RateLimited("too many submissions, slow down")
	}

	receiptID, err := id.Generate("resp")
	if err != nil {
		return Receipt{}, errors.Internal("generate receipt ID").WithCause(err)
	}

	form := url.Values{}
	form.Set("action", submitAction)
	form.Set("email", identity)
	form.Set("id", itemID)
	form.Set("choice", choice)
	form.Set("comment", comment)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.WriteURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Receipt{}, errors.Internal("create submit request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	s.logger.Info("dispatching submission",
		"receipt", receiptID,
		"email", identity,
		"item", itemID,
		"choice", choice,
	)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Receipt{}, errors.Wrap(err, errors.CodeFetchFailed, "write dispatch failed")
	}
	// The endpoint's status and body carry no per-row meaning, so both are
	// ignored.
	resp.Body.Close()

	receipt := Receipt{ID: receiptID, DispatchedAt: time.Now()}

	// Give the sheet time to settle before the caller reloads. If the
	// caller gives up waiting, the dispatch already happened, so the
	// receipt is still returned.
	select {
	case <-time.After(s.opts.SettleDelay):
	case <-ctx.Done():
	}

	return receipt, nil
}
