package datadog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-api-key", "test-app-key")
	c.baseURL = srv.URL
	return c
}

func TestQueryMetric_SuccessAndCache(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "test-api-key", r.Header.Get("DD-API-KEY"))
		w.Write([]byte(`{"series":[]}`))
	})

	res := c.queryMetric(context.Background(), []byte(`{"query":"avg:system.cpu{*}"}`))
	require.True(t, res.OK)

	res2 := c.queryMetric(context.Background(), []byte(`{"query":"avg:system.cpu{*}"}`))
	require.True(t, res2.OK)
	assert.True(t, res2.Cached)
	assert.Equal(t, 1, calls, "second identical query should be served from cache")
}

func TestQueryMetric_RateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	res := c.queryMetric(context.Background(), []byte(`{"query":"avg:system.cpu{*}"}`))
	require.NotNil(t, res.Err)
	assert.Equal(t, "Throttled", string(res.Err.Kind))
}

func TestListMonitors_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	res := c.listMonitors(context.Background(), []byte(`{}`))
	require.NotNil(t, res.Err)
	assert.Equal(t, "NotFound", string(res.Err.Kind))
}
