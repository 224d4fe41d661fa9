// Package datadog implements the Tool Catalog's Datadog adapter. There is
// no Datadog Go SDK anywhere in the example pack, so this follows the
// teacher's pkg/runbook/github.go idiom of a thin http.Client wrapper
// hitting the provider's REST API directly rather than inventing or
// vendoring a client library (see DESIGN.md).
package datadog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
)

const (
	DefaultTimeout = 20 * time.Second
	DefaultBaseURL = "https://api.datadoghq.com"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	appKey     string
	cache      *catalog.MetricCache
}

func NewClient(apiKey, appKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		appKey:     appKey,
		cache:      catalog.NewMetricCache(catalog.MetricCacheTTL),
	}
}

func descriptor(name string, category catalog.Category, schema string) catalog.Descriptor {
	return catalog.Descriptor{Name: name, Category: category, TargetSystem: "datadog", InputSchema: json.RawMessage(schema)}
}

func RegisterTools(c *catalog.Catalog, client *Client) {
	c.Register(catalog.Tool{
		Descriptor: descriptor("dd_query_metric", catalog.CategoryRead, `{"type":"object","properties":{"query":{"type":"string"},"window_minutes":{"type":"integer"}},"required":["query"]}`),
		Invoke:     client.queryMetric,
	})
	c.Register(catalog.Tool{
		Descriptor: descriptor("dd_list_monitors", catalog.CategoryRead, `{"type":"object","properties":{"tags":{"type":"string"}}}`),
		Invoke:     client.listMonitors,
	})
}

func (c *Client) queryMetric(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Query         string `json:"query"`
		WindowMinutes int    `json:"window_minutes,omitempty"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindValidation, err.Error())}
	}
	if args.WindowMinutes <= 0 {
		args.WindowMinutes = 15
	}

	cacheKey := fmt.Sprintf("%s|%d", args.Query, args.WindowMinutes)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached
	}

	now := time.Now().UTC()
	from := now.Add(-time.Duration(args.WindowMinutes) * time.Minute)

	q := url.Values{}
	q.Set("query", args.Query)
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(now.Unix(), 10))

	result := c.do(ctx, http.MethodGet, "/api/v1/query?"+q.Encode(), nil)
	if result.OK {
		c.cache.Put(cacheKey, result)
	}
	return result
}

func (c *Client) listMonitors(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Tags string `json:"tags,omitempty"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindValidation, err.Error())}
	}

	path := "/api/v1/monitor"
	if args.Tags != "" {
		path += "?monitor_tags=" + url.QueryEscape(args.Tags)
	}
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) catalog.Result {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindFatal, err.Error())}
	}
	req.Header.Set("DD-API-KEY", c.apiKey)
	req.Header.Set("DD-APPLICATION-KEY", c.appKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindTimeout, err.Error())}
		}
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindUpstream, err.Error())}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindUpstream, err.Error())}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindThrottled, "datadog rate limited")}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindUnauthorized, "datadog auth rejected")}
	case resp.StatusCode == http.StatusNotFound:
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindNotFound, "datadog resource not found")}
	case resp.StatusCode >= 300:
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindUpstream, fmt.Sprintf("datadog returned HTTP %d", resp.StatusCode))}
	}

	body2, truncated, reason := catalog.TruncatePayload(string(raw))
	return catalog.Result{OK: true, Payload: body2, Truncated: truncated, TruncatedReason: reason}
}
