// Package retry provides the bounded retry-with-jitter policy applied to all
// storage connection attempts. Conditional updates are never routed through
// it: re-running a compare-and-set without re-reading state could report a
// stale success.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config bounds a retry loop.
type Config struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts uint64
	// BaseDelay is the initial backoff interval; subsequent delays grow
	// exponentially with randomized jitter.
	BaseDelay time.Duration
}

// DefaultConfig matches the storage-connection budget: 3 attempts starting at
// 200ms.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond}
}

// Do runs fn until it succeeds, the attempt budget is spent, or ctx is
// cancelled. The last error is returned.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.BaseDelay
	// RandomizationFactor stays at its 0.5 default for jitter.

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, cfg.MaxAttempts-1), ctx)
	return backoff.Retry(fn, policy)
}
