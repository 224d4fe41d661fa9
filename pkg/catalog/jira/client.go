// Package jira implements the Tool Catalog's Jira adapter: search-or-create
// and comment tools the Ticket Correlator uses when a service mapping
// names a Jira project instead of (or alongside) GitHub issues.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
)

const DefaultTimeout = 20 * time.Second

type Client struct {
	jc      *jira.Client
	Project string
	Timeout time.Duration
}

func NewClient(baseURL, user, token, project string) (*Client, error) {
	tp := jira.BasicAuthTransport{Username: user, Password: token}
	httpClient := tp.Client()
	httpClient.Timeout = DefaultTimeout

	jc, err := jira.NewClient(httpClient, baseURL)
	if err != nil {
		return nil, fmt.Errorf("jira client: %w", err)
	}
	return &Client{jc: jc, Project: project, Timeout: DefaultTimeout}, nil
}

func descriptor(name string, category catalog.Category, schema string) catalog.Descriptor {
	return catalog.Descriptor{Name: name, Category: category, TargetSystem: "jira", InputSchema: json.RawMessage(schema)}
}

func decodeArgs(raw json.RawMessage, dst any) *catalog.ToolError {
	if err := json.Unmarshal(raw, dst); err != nil {
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

func classifyJiraErr(resp *jira.Response, err error) *catalog.ToolError {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return catalog.NewToolError(catalog.ErrorKindNotFound, err.Error())
		case http.StatusUnauthorized, http.StatusForbidden:
			return catalog.NewToolError(catalog.ErrorKindUnauthorized, err.Error())
		case http.StatusTooManyRequests:
			return catalog.NewToolError(catalog.ErrorKindThrottled, err.Error())
		}
	}
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return catalog.NewToolError(catalog.ErrorKindTimeout, err.Error())
	}
	return catalog.NewToolError(catalog.ErrorKindUpstream, err.Error())
}

func RegisterTools(c *catalog.Catalog, client *Client) {
	c.Register(catalog.Tool{
		Descriptor: descriptor("search_tickets", catalog.CategoryRead, `{"type":"object","properties":{"jql":{"type":"string"}},"required":["jql"]}`),
		Invoke:     client.searchTickets,
	})
	c.Register(catalog.Tool{
		Descriptor: descriptor("create_ticket", catalog.CategoryWrite, `{"type":"object","properties":{"summary":{"type":"string"},"description":{"type":"string"},"issue_type":{"type":"string"},"priority":{"type":"string"}},"required":["summary","description"]}`),
		Invoke:     client.createTicket,
	})
	c.Register(catalog.Tool{
		Descriptor: descriptor("add_ticket_comment", catalog.CategoryWrite, `{"type":"object","properties":{"key":{"type":"string"},"body":{"type":"string"}},"required":["key","body"]}`),
		Invoke:     client.addTicketComment,
	})
}

func (c *Client) searchTickets(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		JQL string `json:"jql"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	issues, resp, err := c.jc.Issue.SearchWithContext(ctx, args.JQL, nil)
	if err != nil {
		return catalog.Result{OK: false, Err: classifyJiraErr(resp, err)}
	}
	return payload(issues)
}

func (c *Client) createTicket(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
		IssueType   string `json:"issue_type,omitempty"`
		Priority    string `json:"priority,omitempty"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}
	if args.IssueType == "" {
		args.IssueType = "Bug"
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	fields := &jira.IssueFields{
		Project:     jira.Project{Key: c.Project},
		Summary:     args.Summary,
		Description: args.Description,
		Type:        jira.IssueType{Name: args.IssueType},
	}
	if args.Priority != "" {
		fields.Priority = &jira.Priority{Name: args.Priority}
	}
	issue := &jira.Issue{Fields: fields}
	created, resp, err := c.jc.Issue.CreateWithContext(ctx, issue)
	if err != nil {
		return catalog.Result{OK: false, Err: classifyJiraErr(resp, err)}
	}
	return payload(created)
}

func (c *Client) addTicketComment(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Key  string `json:"key"`
		Body string `json:"body"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	comment, resp, err := c.jc.Issue.AddCommentWithContext(ctx, args.Key, &jira.Comment{Body: args.Body})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyJiraErr(resp, err)}
	}
	return payload(comment)
}
