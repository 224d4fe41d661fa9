package github

import (
	"context"
	"encoding/json"

	"github.com/google/go-github/v69/github"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
)

func (c *Client) listPRs(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		State string `json:"state,omitempty"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}
	if args.State == "" {
		args.State = "open"
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	prs, _, err := c.gh.PullRequests.List(ctx, c.Owner, c.Repo, &github.PullRequestListOptions{State: args.State})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyGitHubErr(err)}
	}
	return payload(prs)
}

func (c *Client) listIssues(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		State  string `json:"state,omitempty"`
		Labels string `json:"labels,omitempty"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}
	if args.State == "" {
		args.State = "open"
	}
	opts := &github.IssueListByRepoOptions{State: args.State}
	if args.Labels != "" {
		opts.Labels = []string{args.Labels}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	issues, _, err := c.gh.Issues.ListByRepo(ctx, c.Owner, c.Repo, opts)
	if err != nil {
		return catalog.Result{OK: false, Err: classifyGitHubErr(err)}
	}
	return payload(issues)
}

func (c *Client) searchCode(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Query string `json:"query"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	scoped := args.Query + " repo:" + c.Owner + "/" + c.Repo
	result, _, err := c.gh.Search.Code(ctx, scoped, nil)
	if err != nil {
		return catalog.Result{OK: false, Err: classifyGitHubErr(err)}
	}
	return payload(result)
}

func (c *Client) getFile(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Path string `json:"path"`
		Ref  string `json:"ref,omitempty"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	opts := &github.RepositoryContentGetOptions{Ref: args.Ref}
	fileContent, _, _, err := c.gh.Repositories.GetContents(ctx, c.Owner, c.Repo, args.Path, opts)
	if err != nil {
		return catalog.Result{OK: false, Err: classifyGitHubErr(err)}
	}
	content, err := fileContent.GetContent()
	if err != nil {
		return catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindUpstream, err.Error())}
	}

	body, truncated, reason := catalog.TruncatePayload(content)
	return catalog.Result{OK: true, Payload: body, Truncated: truncated, TruncatedReason: reason}
}

func (c *Client) createIssue(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Title  string   `json:"title"`
		Body   string   `json:"body"`
		Labels []string `json:"labels,omitempty"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	issue, _, err := c.gh.Issues.Create(ctx, c.Owner, c.Repo, &github.IssueRequest{
		Title:  &args.Title,
		Body:   &args.Body,
		Labels: &args.Labels,
	})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyGitHubErr(err)}
	}
	return payload(issue)
}

func (c *Client) addIssueComment(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Number int    `json:"number"`
		Body   string `json:"body"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	comment, _, err := c.gh.Issues.CreateComment(ctx, c.Owner, c.Repo, args.Number, &github.IssueComment{Body: &args.Body})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyGitHubErr(err)}
	}
	return payload(comment)
}

func (c *Client) createPullRequest(ctx context.Context, raw json.RawMessage) catalog.Result {
	var args struct {
		Title string `json:"title"`
		Head  string `json:"head"`
		Base  string `json:"base"`
		Body  string `json:"body,omitempty"`
	}
	if verr := decodeArgs(raw, &args); verr != nil {
		return catalog.Result{OK: false, Err: verr}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	pr, _, err := c.gh.PullRequests.Create(ctx, c.Owner, c.Repo, &github.NewPullRequest{
		Title: &args.Title,
		Head:  &args.Head,
		Base:  &args.Base,
		Body:  &args.Body,
	})
	if err != nil {
		return catalog.Result{OK: false, Err: classifyGitHubErr(err)}
	}
	return payload(pr)
}
