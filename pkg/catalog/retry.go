package catalog

import (
	"context"
	"math/rand"
	"time"
)

// Retry policy constants. Throttled and Timeout failures are retried with
// jittered exponential backoff up to a hard ceiling; every other kind
// fails fast since a retry cannot change the outcome.
const (
	MaxRetryAttempts = 3
	RetryBackoffBase = 200 * time.Millisecond
	RetryBackoffCap  = 10 * time.Second
)

// WithRetry runs fn, retrying up to MaxRetryAttempts additional times when
// the returned Result carries a retryable ToolError. Backoff doubles each
// attempt with up to 20% jitter, capped at RetryBackoffCap.
func WithRetry(ctx context.Context, fn func(ctx context.Context) Result) Result {
	var result Result
	backoff := RetryBackoffBase

	for attempt := 0; attempt <= MaxRetryAttempts; attempt++ {
		result = fn(ctx)
		if result.OK || result.Err == nil || !result.Err.Retryable {
			return result
		}
		if attempt == MaxRetryAttempts {
			return result
		}
		if ctx.Err() != nil {
			return Result{OK: false, Err: NewToolError(ErrorKindCancelled, ctx.Err().Error())}
		}

		select {
		case <-ctx.Done():
			return Result{OK: false, Err: NewToolError(ErrorKindCancelled, ctx.Err().Error())}
		case <-time.After(jitter(backoff)):
		}

		backoff *= 2
		if backoff > RetryBackoffCap {
			backoff = RetryBackoffCap
		}
	}
	return result
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	delta := time.Duration(rand.Int63n(int64(d) / 5))
	return d + delta
}
