// Package ticket implements the Ticket Correlation & Smart Commenting
// Engine: deterministic dedup-search, create-or-comment decision, and
// structured markdown comments against whichever of Jira/GitHub a service
// mapping names as its tracker.
package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
)

// Ref identifies one open ticket found or created in an external tracker.
type Ref struct {
	Key    string
	URL    string
	Status string
}

// tracker abstracts the two supported trackers (Jira, GitHub) behind the
// three operations the correlator needs. Both
// implementations call into the Tool Catalog rather than their SDKs
// directly, so every call is still subject to the Safety Hook Chain and
// the catalog's retry/truncation contract.
type tracker interface {
	search(ctx context.Context, summary string) (*Ref, error)
	create(ctx context.Context, summary, body, priority string) (Ref, error)
	comment(ctx context.Context, key, body string) error
}

func invokeOK(ctx context.Context, cat *catalog.Catalog, tool string, args any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	res := cat.Invoke(ctx, tool, raw)
	if !res.OK {
		if res.Err != nil {
			return "", fmt.Errorf("%s: %s", res.Err.Kind, res.Err.Message)
		}
		return "", fmt.Errorf("%s: unknown failure", tool)
	}
	return res.Payload, nil
}

// jiraTracker implements tracker against the Jira adapter's
// search_tickets/create_ticket/add_ticket_comment tools.
type jiraTracker struct {
	cat     *catalog.Catalog
	project string
}

type jiraIssue struct {
	Key    string `json:"key"`
	Self   string `json:"self"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
	} `json:"fields"`
}

func (j *jiraTracker) search(ctx context.Context, summary string) (*Ref, error) {
	jql := fmt.Sprintf(`project = %s AND statusCategory != Done AND summary ~ "%s"`, j.project, jqlEscape(summary))
	payload, err := invokeOK(ctx, j.cat, "search_tickets", map[string]string{"jql": jql})
	if err != nil {
		return nil, err
	}

	var issues []jiraIssue
	if err := json.Unmarshal([]byte(payload), &issues); err != nil {
		return nil, fmt.Errorf("ticket: parse jira search result: %w", err)
	}
	for _, iss := range issues {
		if strings.EqualFold(strings.TrimSpace(iss.Fields.Summary), strings.TrimSpace(summary)) {
			return &Ref{Key: iss.Key, URL: iss.Self, Status: iss.Fields.Status.Name}, nil
		}
	}
	return nil, nil
}

func (j *jiraTracker) create(ctx context.Context, summary, body, priority string) (Ref, error) {
	payload, err := invokeOK(ctx, j.cat, "create_ticket", map[string]string{
		"summary": summary, "description": body, "priority": priority,
	})
	if err != nil {
		return Ref{}, err
	}
	var iss jiraIssue
	if err := json.Unmarshal([]byte(payload), &iss); err != nil {
		return Ref{}, fmt.Errorf("ticket: parse jira create result: %w", err)
	}
	return Ref{Key: iss.Key, URL: iss.Self}, nil
}

func (j *jiraTracker) comment(ctx context.Context, key, body string) error {
	_, err := invokeOK(ctx, j.cat, "add_ticket_comment", map[string]string{"key": key, "body": body})
	return err
}

func jqlEscape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// githubTracker implements tracker against the GitHub adapter's
// list_issues/create_issue/add_issue_comment tools. The underlying
// catalog.github.Client is bound to one repository at boot (the service
// mapping that routes here is expected to target that same repository).
type githubTracker struct {
	cat *catalog.Catalog
}

type githubIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	HTMLURL string `json:"html_url"`
}

func (g *githubTracker) search(ctx context.Context, summary string) (*Ref, error) {
	payload, err := invokeOK(ctx, g.cat, "list_issues", map[string]string{"state": "open"})
	if err != nil {
		return nil, err
	}

	var issues []githubIssue
	if err := json.Unmarshal([]byte(payload), &issues); err != nil {
		return nil, fmt.Errorf("ticket: parse github issue list: %w", err)
	}
	for _, iss := range issues {
		if strings.EqualFold(strings.TrimSpace(iss.Title), strings.TrimSpace(summary)) {
			return &Ref{Key: fmt.Sprintf("%d", iss.Number), URL: iss.HTMLURL, Status: iss.State}, nil
		}
	}
	return nil, nil
}

func (g *githubTracker) create(ctx context.Context, summary, body, priority string) (Ref, error) {
	payload, err := invokeOK(ctx, g.cat, "create_issue", map[string]any{
		"title": summary, "body": body, "labels": []string{"priority/" + strings.ToLower(priority)},
	})
	if err != nil {
		return Ref{}, err
	}
	var iss githubIssue
	if err := json.Unmarshal([]byte(payload), &iss); err != nil {
		return Ref{}, fmt.Errorf("ticket: parse github create result: %w", err)
	}
	return Ref{Key: fmt.Sprintf("%d", iss.Number), URL: iss.HTMLURL}, nil
}

func (g *githubTracker) comment(ctx context.Context, key, body string) error {
	_, err := invokeOK(ctx, g.cat, "add_issue_comment", map[string]any{"number": jsonNumber(key), "body": body})
	return err
}

func jsonNumber(key string) int {
	var n int
	fmt.Sscanf(key, "%d", &n)
	return n
}
