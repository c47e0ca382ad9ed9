// Package extract implements the two-tier extraction strategy: one bulk
// schema-constrained call against the listing page, with a per-URL fallback
// when the bulk result is too thin.
package extract

import (
	"context"
	"net/http"
	"time"

	"github.com/jonesrussell/shopcrawl/internal/scrapeapi"
)

// RetryPolicy controls retry behavior for bulk extraction calls.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the delay after the first failed attempt; subsequent
	// delays double.
	BaseDelay time.Duration
	// Retryable decides whether a failure is worth another attempt.
	Retryable func(err error) bool
}

// DefaultRetryPolicy returns the production policy: three attempts with
// exponential backoff, retrying only timeouts and 5xx responses.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Retryable:   RetryableError,
	}
}

// RetryableError reports whether err is a timeout, a rate limit, or a
// 5xx-class response. Any other failure (notably the remaining 4xx codes)
// halts the retry loop as non-retryable.
func RetryableError(err error) bool {
	if scrapeapi.IsTimeout(err) {
		return true
	}

	code := scrapeapi.StatusCode(err)
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= http.StatusInternalServerError && code < 600
}

// Delay returns the backoff before the given attempt (1-based). The first
// attempt has no delay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delay := p.BaseDelay
	for i := 2; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
