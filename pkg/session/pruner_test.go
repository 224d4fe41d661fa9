package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrune_NoOpBelowThreshold(t *testing.T) {
	s := NewSession("sess-1", "sys", 1_000_000)
	s.Append(Message{Kind: KindUserText, Text: "hi"})
	before := len(s.Messages)

	s.Prune(PruneTriggerFraction)

	assert.Len(t, s.Messages, before, "pruning an already-below-threshold session is a no-op")
}

func TestPrune_DropsOldestToolPairFirst(t *testing.T) {
	s := NewSession("sess-1", "sys", 50)
	s.Append(Message{Kind: KindToolCall, ToolCallID: "1", ToolName: "list_pods", ToolArgs: []byte(`{}`)})
	s.Append(Message{Kind: KindToolResult, ToolCallID: "1", ToolOK: true, ToolPayload: "all good here, lots of padding text to push token count up"})
	s.Append(Message{Kind: KindUserText, Text: "what about node pressure on the cluster right now"})

	s.Prune(0.5)

	// The tool call/result pair should be gone as a unit; the text turn survives
	// longer since pairs are dropped first.
	for _, m := range s.Messages {
		assert.NotEqual(t, KindToolCall, m.Kind)
		assert.NotEqual(t, KindToolResult, m.Kind)
	}
}

func TestPrune_NeverDropsSystemPrompt(t *testing.T) {
	s := NewSession("sess-1", "sys", 10)
	for i := 0; i < 20; i++ {
		s.Append(Message{Kind: KindUserText, Text: "padding text to exceed the token budget repeatedly"})
	}

	s.Prune(PruneTriggerFraction)

	require.NotEmpty(t, s.Messages)
	assert.Equal(t, KindSystemPrompt, s.Messages[0].Kind)
}

func TestPrune_NeverDropsPinnedMessages(t *testing.T) {
	s := NewSession("sess-1", "sys", 10)
	s.Append(Message{Kind: KindUserText, Text: "pinned critical context about the incident"})
	s.Pin(1)
	for i := 0; i < 20; i++ {
		s.Append(Message{Kind: KindUserText, Text: "filler padding text to exceed the token budget"})
	}

	s.Prune(PruneTriggerFraction)

	found := false
	for _, m := range s.Messages {
		if m.Text == "pinned critical context about the incident" {
			found = true
		}
	}
	assert.True(t, found, "pinned message must survive pruning via steps 3-4")
}

func TestPrune_ToolPairsNeverSplit(t *testing.T) {
	s := NewSession("sess-1", "sys", 1000)
	s.Append(Message{Kind: KindToolCall, ToolCallID: "a", ToolName: "get_pod"})
	s.Append(Message{Kind: KindToolResult, ToolCallID: "a", ToolOK: true, ToolPayload: "ok"})

	s.Prune(2.0) // impossible threshold forces maximum pruning

	callCount, resultCount := 0, 0
	for _, m := range s.Messages {
		if m.Kind == KindToolCall {
			callCount++
		}
		if m.Kind == KindToolResult {
			resultCount++
		}
	}
	assert.Equal(t, callCount, resultCount, "a tool call and its result are either both present or both absent")
}

func TestPrune_SummarizesPinnedWhenOnlyPinnedAndSystemRemain(t *testing.T) {
	s := NewSession("sess-1", "sys", 10)
	s.Append(Message{Kind: KindUserText, Text: "the pinned finding that must survive"})
	s.Pin(1)

	s.Prune(0.0) // forces the pruner to run even with nothing non-pinned to drop

	require.NotEmpty(t, s.Messages)
	last := s.Messages[len(s.Messages)-1]
	assert.Equal(t, KindAssistantText, last.Kind)
	assert.Contains(t, last.Text, "Previously:")
	assert.Empty(t, s.Flags.PinnedIndices, "summarized turns are unpinned")
}
