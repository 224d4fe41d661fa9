package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithRetry_SucceedsWithoutRetryOnOK(t *testing.T) {
	calls := 0
	res := WithRetry(context.Background(), func(ctx context.Context) Result {
		calls++
		return Result{OK: true}
	})
	assert.True(t, res.OK)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesThrottledUpToMax(t *testing.T) {
	calls := 0
	res := WithRetry(context.Background(), func(ctx context.Context) Result {
		calls++
		return Result{OK: false, Err: NewToolError(ErrorKindThrottled, "slow down")}
	})
	assert.False(t, res.OK)
	assert.Equal(t, MaxRetryAttempts+1, calls)
}

func TestWithRetry_DoesNotRetryValidation(t *testing.T) {
	calls := 0
	res := WithRetry(context.Background(), func(ctx context.Context) Result {
		calls++
		return Result{OK: false, Err: NewToolError(ErrorKindValidation, "bad args")}
	})
	assert.False(t, res.OK)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	calls := 0
	res := WithRetry(ctx, func(ctx context.Context) Result {
		calls++
		return Result{OK: false, Err: NewToolError(ErrorKindTimeout, "slow")}
	})
	assert.Equal(t, ErrorKindCancelled, res.Err.Kind)
}
