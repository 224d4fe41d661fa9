// Package notify implements the Notifier: a best-effort, fail-open
// emitter of one-line human-readable alerts to Slack and/or a Teams
// (generic incoming-webhook) channel. It is nil-safe throughout so an
// unconfigured deployment can pass a nil *Service everywhere a Service is
// expected.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goslack "github.com/slack-go/slack"
)

// SlackClient is a thin wrapper around the slack-go SDK, adapted from the
// teacher's pkg/slack/client.go (same PostMessage idiom, no thread lookup
// since sentryd's notifications are standalone one-liners, not threaded
// session updates).
type SlackClient struct {
	api       *goslack.Client
	channelID string
	logger    *slog.Logger
}

func NewSlackClient(token, channelID string) *SlackClient {
	return &SlackClient{api: goslack.New(token), channelID: channelID, logger: slog.Default().With("component", "notify-slack")}
}

func (c *SlackClient) PostMessage(ctx context.Context, text string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, _, err := c.api.PostMessageContext(ctx, c.channelID, goslack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("chat.postMessage failed: %w", err)
	}
	return nil
}

// TeamsClient posts to a Microsoft Teams incoming webhook. No Teams SDK
// exists anywhere in the example pack; this follows the same thin
// http.Client idiom as pkg/runbook/github.go and pkg/catalog/datadog.
type TeamsClient struct {
	webhookURL string
	httpClient *http.Client
}

func NewTeamsClient(webhookURL string) *TeamsClient {
	return &TeamsClient{webhookURL: webhookURL, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

type teamsCard struct {
	Text string `json:"text"`
}

func (c *TeamsClient) PostMessage(ctx context.Context, text string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(teamsCard{Text: text})
	if err != nil {
		return fmt.Errorf("marshal teams payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create teams request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("teams webhook post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("teams webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
