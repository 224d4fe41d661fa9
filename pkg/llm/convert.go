package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	"github.com/codeready-toolchain/sentryd/pkg/session"
)

// buildToolParams converts catalog descriptors into the SDK's tool
// definition shape, using each tool's JSON schema verbatim as its input
// schema.
func buildToolParams(descs []catalog.Descriptor) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(descs))
	for _, d := range descs {
		var schema anthropic.ToolInputSchemaParam
		_ = json.Unmarshal(d.InputSchema, &schema)
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name,
				Description: anthropic.String(d.Description),
				InputSchema: schema,
			},
		})
	}
	return out
}

// systemPrompt returns the session's seeded system prompt text, which is
// always Messages[0] per session.NewSession.
func systemPrompt(sess *session.Session) string {
	snap := sess.Snapshot()
	if len(snap.Messages) == 0 {
		return ""
	}
	if snap.Messages[0].Kind == session.KindSystemPrompt {
		return snap.Messages[0].Text
	}
	return ""
}

// buildMessageParams converts every non-system-prompt message in sess
// into the SDK's message parameter shape, preserving the user/assistant/
// tool_use/tool_result structure the API requires.
func buildMessageParams(sess *session.Session) []anthropic.MessageParam {
	snap := sess.Snapshot()
	var out []anthropic.MessageParam

	for _, m := range snap.Messages {
		switch m.Kind {
		case session.KindSystemPrompt:
			continue
		case session.KindUserText:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		case session.KindAssistantText:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
		case session.KindToolCall:
			out = append(out, anthropic.NewAssistantMessage(
				anthropic.NewToolUseBlock(m.ToolCallID, json.RawMessage(m.ToolArgs), m.ToolName),
			))
		case session.KindToolResult:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, toolResultText(m), !m.ToolOK),
			))
		}
	}
	return out
}

func toolResultText(m session.Message) string {
	if m.ToolOK {
		return m.ToolPayload
	}
	return m.ToolError
}

// splitResponse extracts the terminal text (if any) and the requested
// tool calls (if any) from one provider response.
func splitResponse(resp *anthropic.Message) (text string, calls []toolCall) {
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += variant.Text
		case anthropic.ToolUseBlock:
			calls = append(calls, toolCall{ID: variant.ID, Name: variant.Name, Args: json.RawMessage(variant.Input)})
		}
	}
	return text, calls
}

// providerRetryAttempts and providerRetryBackoff give provider 5xx/throttle
// failures 3 attempts with exponential backoff, mirroring pkg/catalog's
// retry shape but scoped to provider calls specifically (a provider error
// is never a ToolError).
const (
	providerRetryAttempts = 3
	providerRetryBackoff  = 500 * time.Millisecond
)

func catalogRetryMessage(ctx context.Context, c *Client, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	backoff := providerRetryBackoff

	for attempt := 0; attempt <= providerRetryAttempts; attempt++ {
		msg, err := c.api.Messages.New(ctx, params)
		if err == nil {
			return msg, nil
		}
		lastErr = err
		if !isRetryableProviderErr(err) || attempt == providerRetryAttempts {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}

func isRetryableProviderErr(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == 429
	}
	return false
}
