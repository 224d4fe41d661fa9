// Package github implements the Tool Catalog's GitHub adapter: read tools
// for correlating an incident with recent changes (PRs, issues, code
// search, file contents) and write tools for filing/annotating tickets
// directly on a repository when no Jira project is configured.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v69/github"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
)

const DefaultTimeout = 20 * time.Second

// Client wraps the go-github SDK client for one owner/repo pair.
type Client struct {
	gh      *github.Client
	Owner   string
	Repo    string
	Timeout time.Duration
}

func NewClient(token, owner, repo string) *Client {
	httpClient := &http.Client{Timeout: DefaultTimeout}
	gh := github.NewClient(httpClient)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	return &Client{gh: gh, Owner: owner, Repo: repo, Timeout: DefaultTimeout}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.Timeout)
}

func descriptor(name string, category catalog.Category, schema string) catalog.Descriptor {
	return catalog.Descriptor{
		Name:         name,
		Category:     category,
		TargetSystem: "github",
		InputSchema:  json.RawMessage(schema),
	}
}

func decodeArgs(raw json.RawMessage, dst any) *catalog.ToolError {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return catalog.NewToolError(catalog.ErrorKindValidation, fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

func payload(v any) catalog.Result {
	b, err := json.Marshal(v)
	if err != nil {
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindFatal, err.Error())}
	}
	body, truncated, reason := catalog.TruncatePayload(string(b))
	return catalog.Result{OK: true, Payload: body, Truncated: truncated, TruncatedReason: reason}
}

func classifyGitHubErr(err error) *catalog.ToolError {
	var ghErr *github.ErrorResponse
	if gherr, ok := err.(*github.ErrorResponse); ok {
		ghErr = gherr
	}
	if ghErr != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound:
			return catalog.NewToolError(catalog.ErrorKindNotFound, ghErr.Message)
		case http.StatusUnauthorized, http.StatusForbidden:
			return catalog.NewToolError(catalog.ErrorKindUnauthorized, ghErr.Message)
		case http.StatusTooManyRequests:
			return catalog.NewToolError(catalog.ErrorKindThrottled, ghErr.Message)
		}
	}
	if _, ok := err.(*github.RateLimitError); ok {
		return catalog.NewToolError(catalog.ErrorKindThrottled, err.Error())
	}
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return catalog.NewToolError(catalog.ErrorKindTimeout, err.Error())
	}
	return catalog.NewToolError(catalog.ErrorKindUpstream, err.Error())
}

// RegisterTools adds every GitHub tool to c.
func RegisterTools(c *catalog.Catalog, client *Client) {
	c.Register(catalog.Tool{
		Descriptor: descriptor("list_prs", catalog.CategoryRead, `{"type":"object","properties":{"state":{"type":"string"}}}`),
		Invoke:     client.listPRs,
	})
	c.Register(catalog.Tool{
		Descriptor: descriptor("list_issues", catalog.CategoryRead, `{"type":"object","properties":{"state":{"type":"string"},"labels":{"type":"string"}}}`),
		Invoke:     client.listIssues,
	})
	c.Register(catalog.Tool{
		Descriptor: descriptor("search_code", catalog.CategoryRead, `{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`),
		Invoke:     client.searchCode,
	})
	c.Register(catalog.Tool{
		Descriptor: descriptor("get_file", catalog.CategoryRead, `{"type":"object","properties":{"path":{"type":"string"},"ref":{"type":"string"}},"required":["path"]}`),
		Invoke:     client.getFile,
	})
	c.Register(catalog.Tool{
		Descriptor: descriptor("create_issue", catalog.CategoryWrite, `{"type":"object","properties":{"title":{"type":"string"},"body":{"type":"string"},"labels":{"type":"array","items":{"type":"string"}}},"required":["title","body"]}`),
		Invoke:     client.createIssue,
	})
	c.Register(catalog.Tool{
		Descriptor: descriptor("add_issue_comment", catalog.CategoryWrite, `{"type":"object","properties":{"number":{"type":"integer"},"body":{"type":"string"}},"required":["number","body"]}`),
		Invoke:     client.addIssueComment,
	})
	c.Register(catalog.Tool{
		Descriptor: descriptor("create_pull_request", catalog.CategoryWrite, `{"type":"object","properties":{"title":{"type":"string"},"head":{"type":"string"},"base":{"type":"string"},"body":{"type":"string"}},"required":["title","head","base"]}`),
		Invoke:     client.createPullRequest,
	})
}
