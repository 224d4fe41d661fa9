package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"golang.org/x/sync/errgroup"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	"github.com/codeready-toolchain/sentryd/pkg/safety"
	"github.com/codeready-toolchain/sentryd/pkg/session"
)

// Budget bounds a single Advance call along three dimensions; any one of
// them terminates the loop.
type Budget struct {
	MaxToolCalls        int
	MaxTokensPerAdvance int
	WallClockDeadline   time.Duration
}

// DefaultBudget holds the stated defaults for a query turn.
func DefaultBudget() Budget {
	return Budget{MaxToolCalls: 25, MaxTokensPerAdvance: 0, WallClockDeadline: DefaultQueryDeadline}
}

// TerminalOutcome is Advance's return value: either a terminal assistant
// message or a budget/deadline cutoff, never a bare error for recoverable
// conditions.
type TerminalOutcome struct {
	FinalText        string
	ToolCallCount    int
	TruncatedByBudget bool
	TruncatedByDeadline bool
}

// Driver runs the reason-act loop for one session.
type Driver struct {
	client *Client
	chain  *safety.Chain
	guardCluster string
}

func NewDriver(client *Client, chain *safety.Chain, clusterName string) *Driver {
	return &Driver{client: client, chain: chain, guardCluster: clusterName}
}

// Advance runs the reason-act loop forward one turn. userInput may be
// empty (e.g. an orchestrator cycle resuming an existing session rather
// than answering a fresh question).
func (d *Driver) Advance(ctx context.Context, sess *session.Session, userInput string, cat *catalog.Catalog, budget Budget) (TerminalOutcome, error) {
	if budget.WallClockDeadline <= 0 {
		budget.WallClockDeadline = DefaultQueryDeadline
	}
	if budget.MaxToolCalls <= 0 {
		budget.MaxToolCalls = 25
	}

	ctx, cancel := context.WithTimeout(ctx, budget.WallClockDeadline)
	defer cancel()

	if userInput != "" {
		sess.Append(session.Message{Kind: session.KindUserText, Text: userInput})
	}

	outcome := TerminalOutcome{}
	toolDescriptors := cat.Descriptors()
	tools := buildToolParams(toolDescriptors)

	for {
		if outcome.ToolCallCount >= budget.MaxToolCalls {
			outcome.TruncatedByBudget = true
			return outcome, nil
		}

		resp, err := d.callProvider(ctx, sess, tools)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				outcome.TruncatedByDeadline = true
				return outcome, nil
			}
			return outcome, fmt.Errorf("llm: provider call failed: %w", err)
		}

		text, toolCalls := splitResponse(resp)
		if len(toolCalls) == 0 {
			sess.Append(session.Message{Kind: session.KindAssistantText, Text: text})
			outcome.FinalText = text
			return outcome, nil
		}

		if text != "" {
			sess.Append(session.Message{Kind: session.KindAssistantText, Text: text})
		}
		for _, tc := range toolCalls {
			sess.Append(session.Message{Kind: session.KindToolCall, ToolCallID: tc.ID, ToolName: tc.Name, ToolArgs: tc.Args})
		}

		if err := d.runToolCalls(ctx, sess, cat, toolCalls); err != nil {
			return outcome, err
		}
		outcome.ToolCallCount += len(toolCalls)

		if ctx.Err() != nil {
			outcome.TruncatedByDeadline = true
			return outcome, nil
		}
	}
}

type toolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

// runToolCalls executes tc under a simple ordering guarantee: if every
// call in this batch is read-category, they may run
// concurrently (bounded via errgroup.SetLimit); otherwise serially.
// Results are appended in provider-returned order regardless of
// execution order.
func (d *Driver) runToolCalls(ctx context.Context, sess *session.Session, cat *catalog.Catalog, calls []toolCall) error {
	results := make([]catalog.Result, len(calls))
	allRead := true
	for _, tc := range calls {
		if t, ok := cat.Get(tc.Name); !ok || t.Descriptor.Category != catalog.CategoryRead {
			allRead = false
			break
		}
	}

	if allRead {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(8)
		for i, tc := range calls {
			i, tc := i, tc
			g.Go(func() error {
				results[i] = d.invoke(gctx, cat, sess.ID, tc)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, tc := range calls {
			if ctx.Err() != nil {
				results[i] = catalog.Result{OK: false, Err: catalog.NewToolError(catalog.ErrorKindCancelled, ctx.Err().Error())}
				continue
			}
			results[i] = d.invoke(ctx, cat, sess.ID, tc)
		}
	}

	for i, tc := range calls {
		r := results[i]
		sess.Append(session.Message{
			Kind:        session.KindToolResult,
			ToolCallID:  tc.ID,
			ToolOK:      r.OK,
			ToolPayload: r.Payload,
			ToolError:   errMessage(r),
		})
	}
	return nil
}

func errMessage(r catalog.Result) string {
	if r.Err == nil {
		return ""
	}
	return string(r.Err.Kind) + ": " + r.Err.Message
}

func (d *Driver) invoke(ctx context.Context, cat *catalog.Catalog, sessionID string, tc toolCall) catalog.Result {
	var category catalog.Category
	if t, ok := cat.Get(tc.Name); ok {
		category = t.Descriptor.Category
	}
	inv := safety.Invocation{
		Tool:      tc.Name,
		Args:      tc.Args,
		Category:  category,
		Cluster:   d.guardCluster,
		SessionID: sessionID,
	}
	return d.chain.Execute(ctx, inv)
}

func (d *Driver) callProvider(ctx context.Context, sess *session.Session, tools []anthropic.ToolUnionParam) (*anthropic.Message, error) {
	params := anthropic.MessageNewParams{
		Model:     d.client.Model,
		MaxTokens: d.client.MaxTokens,
		Messages:  buildMessageParams(sess),
		Tools:     tools,
	}
	if system := systemPrompt(sess); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	return catalogRetryMessage(ctx, d.client, params)
}
