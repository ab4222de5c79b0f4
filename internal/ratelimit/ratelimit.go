// Package ratelimit provides a keyed token-bucket limiter. The write path
// uses it with the submitter email as the key, so one eager user cannot
// flood the sheet's write endpoint for everyone.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pruneAfter is how long an idle key's limiter is kept before it is dropped.
// A dropped key starts over with a full bucket, which is acceptable at these
// limits.
const pruneAfter = 30 * time.Minute

// Keyed manages an independent rate limiter per key.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int

	done     chan struct{}
	stopOnce sync.Once
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a keyed limiter allowing rps requests per second with the given
// burst per key. Idle keys are pruned in the background until Stop is called.
func New(rps float64, burst int) *Keyed {
	k := &Keyed{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}

	go k.prune()

	return k
}

// Allow reports whether a request for key may proceed right now.
func (k *Keyed) Allow(key string) bool {
	return k.limiter(key).Allow()
}

// Wait blocks until a request for key is allowed or ctx is canceled.
func (k *Keyed) Wait(ctx context.Context, key string) error {
	return k.limiter(key).Wait(ctx)
}

func (k *Keyed) limiter(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.entries[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// Stop shuts down the background pruning.
func (k *Keyed) Stop() {
	k.stopOnce.Do(func() {
		close(k.done)
	})
}

func (k *Keyed) prune() {
	ticker := time.NewTicker(pruneAfter / 2)
	defer ticker.Stop()

	for {
		select {
		case <-k.done:
			return
		case now := <-ticker.C:
			k.mu.Lock()
			for key, e := range k.entries {
				if now.Sub(e.lastSeen) > pruneAfter {
					delete(k.entries, key)
				}
			}
			k.mu.Unlock()
		}
	}
}
