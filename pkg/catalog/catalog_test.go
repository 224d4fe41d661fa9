package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_RegisterGetInvoke(t *testing.T) {
	c := New()
	c.Register(Tool{
		Descriptor: Descriptor{Name: "list_pods", Category: CategoryRead, TargetSystem: "kubernetes"},
		Invoke: func(ctx context.Context, args json.RawMessage) Result {
			return Result{OK: true, Payload: `[]`}
		},
	})

	tool, ok := c.Get("list_pods")
	require.True(t, ok)
	assert.Equal(t, CategoryRead, tool.Descriptor.Category)

	res := c.Invoke(context.Background(), "list_pods", nil)
	assert.True(t, res.OK)
}

func TestCatalog_InvokeUnknownTool(t *testing.T) {
	c := New()
	res := c.Invoke(context.Background(), "does_not_exist", nil)
	require.NotNil(t, res.Err)
	assert.Equal(t, ErrorKindNotFound, res.Err.Kind)
}

func TestCatalog_InvokeRecoversPanic(t *testing.T) {
	c := New()
	c.Register(Tool{
		Descriptor: Descriptor{Name: "boom"},
		Invoke: func(ctx context.Context, args json.RawMessage) Result {
			panic("adapter bug")
		},
	})

	res := c.Invoke(context.Background(), "boom", nil)
	require.NotNil(t, res.Err)
	assert.Equal(t, ErrorKindFatal, res.Err.Kind)
}

func TestCatalog_Subset(t *testing.T) {
	c := New()
	c.Register(Tool{Descriptor: Descriptor{Name: "a"}, Invoke: func(ctx context.Context, args json.RawMessage) Result { return Result{OK: true} }})
	c.Register(Tool{Descriptor: Descriptor{Name: "b"}, Invoke: func(ctx context.Context, args json.RawMessage) Result { return Result{OK: true} }})

	sub := c.Subset([]string{"a"})
	_, ok := sub.Get("a")
	assert.True(t, ok)
	_, ok = sub.Get("b")
	assert.False(t, ok)
}

func TestNewToolError_DefaultRetryable(t *testing.T) {
	assert.True(t, NewToolError(ErrorKindThrottled, "rate limited").Retryable)
	assert.True(t, NewToolError(ErrorKindTimeout, "slow").Retryable)
	assert.False(t, NewToolError(ErrorKindValidation, "bad input").Retryable)
	assert.False(t, NewToolError(ErrorKindNotFound, "missing").Retryable)
}
