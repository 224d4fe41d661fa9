package session

import (
	"encoding/json"
	"sync"
	"time"
)

// MessageKind identifies which variant of the tagged Conversation Message a
// Message value holds.
type MessageKind string

const (
	KindSystemPrompt  MessageKind = "system_prompt"
	KindUserText      MessageKind = "user_text"
	KindAssistantText MessageKind = "assistant_text"
	KindToolCall      MessageKind = "tool_call"
	KindToolResult    MessageKind = "tool_result"
)

// Message is the tagged Conversation Message variant from the data model:
// SystemPrompt | UserText | AssistantText | ToolCall{id,name,args} |
// ToolResult{id,ok,payload,error}. Only the fields relevant to Kind are set.
type Message struct {
	Kind MessageKind `json:"kind"`

	// Text holds the content for SystemPrompt, UserText and AssistantText.
	Text string `json:"text,omitempty"`

	// ToolCall fields.
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolArgs   json.RawMessage `json:"tool_args,omitempty"`

	// ToolResult fields. ToolCallID is reused to join the pair.
	ToolOK      bool   `json:"tool_ok,omitempty"`
	ToolPayload string `json:"tool_payload,omitempty"`
	ToolError   string `json:"tool_error,omitempty"`
}

// tokenCost returns the approximate token estimate contribution of a single
// message, including a small fixed overhead per message for role/framing
// tokens the raw text doesn't capture.
func (m Message) tokenCost() int {
	const perMessageOverhead = 4
	switch m.Kind {
	case KindToolCall:
		return EstimateTokens(string(m.ToolArgs)) + EstimateTokens(m.ToolName) + perMessageOverhead
	case KindToolResult:
		return EstimateTokens(m.ToolPayload) + EstimateTokens(m.ToolError) + perMessageOverhead
	default:
		return EstimateTokens(m.Text) + perMessageOverhead
	}
}

// Flags holds pruning metadata for a session.
type Flags struct {
	// PinnedIndices lists message indices the size pruner must never drop
	// (until step 5 of the pruner policy summarizes and unpins them).
	PinnedIndices []int `json:"pinned_indices,omitempty"`
}

// Session holds one conversation history: {id, created_at, last_used_at,
// messages[], token_estimate, flags}. Each session has exactly one exclusive
// writer at a time, enforced by mu — the LLM Driver call-site (or the size
// pruner) holds the lock for the duration of its read-modify-write.
type Session struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	LastUsedAt    time.Time `json:"last_used_at"`
	Messages      []Message `json:"messages"`
	TokenEstimate int       `json:"token_estimate"`
	Flags         Flags     `json:"flags"`
	MaxTokens     int       `json:"max_tokens"`

	mu sync.RWMutex
}

// NewSession creates a session seeded with a SystemPrompt message, satisfying
// the invariant that messages[0] is always the current SystemPrompt.
func NewSession(id, systemPrompt string, maxTokens int) *Session {
	now := time.Now()
	s := &Session{
		ID:         id,
		CreatedAt:  now,
		LastUsedAt: now,
		MaxTokens:  maxTokens,
		Messages: []Message{
			{Kind: KindSystemPrompt, Text: systemPrompt},
		},
	}
	s.TokenEstimate = s.Messages[0].tokenCost()
	return s
}

// Append adds a message to the session and refreshes last_used_at and the
// token estimate. Thread-safe; the caller is expected to already hold
// logical ownership of the session for the duration of one LLM turn.
func (s *Session) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Messages = append(s.Messages, msg)
	s.TokenEstimate += msg.tokenCost()
	s.LastUsedAt = time.Now()
}

// Pin marks a message index as never-prune until explicitly unpinned.
func (s *Session) Pin(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, i := range s.Flags.PinnedIndices {
		if i == index {
			return
		}
	}
	s.Flags.PinnedIndices = append(s.Flags.PinnedIndices, index)
}

// OverBudget reports whether the session's token estimate is at or above the
// given fraction of MaxTokens (e.g. 0.8 for the 80% pruner trigger).
func (s *Session) OverBudget(fraction float64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return float64(s.TokenEstimate) >= fraction*float64(s.MaxTokens)
}

// Snapshot returns a defensive copy of the session's messages and metadata
// for read-only use (HTTP responses, cycle report assembly).
func (s *Session) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]Message, len(s.Messages))
	copy(messages, s.Messages)

	pinned := make([]int, len(s.Flags.PinnedIndices))
	copy(pinned, s.Flags.PinnedIndices)

	return Session{
		ID:            s.ID,
		CreatedAt:     s.CreatedAt,
		LastUsedAt:    s.LastUsedAt,
		Messages:      messages,
		TokenEstimate: s.TokenEstimate,
		Flags:         Flags{PinnedIndices: pinned},
		MaxTokens:     s.MaxTokens,
	}
}

// withLock runs fn with the session's write lock held, for callers (the
// pruner) that need an atomic read-modify-write across multiple fields.
func (s *Session) withLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}
