package session

import (
	"sort"
	"strings"
)

// PruneTriggerFraction is the default fraction of MaxTokens at which the
// size pruner runs (80%, per the orchestrator session rule).
const PruneTriggerFraction = 0.8

// Prune applies the deterministic size pruner policy when the session is at
// or above triggerFraction of MaxTokens. A no-op when already below
// threshold, making repeated calls idempotent.
//
// Policy, in order:
//  1. messages[0] (system prompt) is never dropped.
//  2. messages whose index is pinned are never dropped.
//  3. oldest non-pinned (ToolCall, ToolResult) pairs are dropped first, as
//     units — a pair is never split.
//  4. if still above threshold, oldest non-pinned assistant/user text turns
//     are dropped one at a time.
//  5. if still above threshold and only pinned+system remain, the oldest
//     pinned turns are collapsed into one synthetic AssistantText("Previously: …")
//     and unpinned.
func (s *Session) Prune(triggerFraction float64) {
	s.withLock(func() {
		threshold := int(triggerFraction * float64(s.MaxTokens))
		if s.TokenEstimate < threshold {
			return
		}

		for s.TokenEstimate > threshold {
			if !s.dropOldestToolPairLocked() {
				break
			}
		}

		for s.TokenEstimate > threshold {
			if !s.dropOldestTextTurnLocked() {
				break
			}
		}

		if s.TokenEstimate > threshold {
			s.summarizePinnedTurnsLocked()
		}
	})
}

func pinnedSet(indices []int) map[int]bool {
	set := make(map[int]bool, len(indices))
	for _, i := range indices {
		set[i] = true
	}
	return set
}

// dropOldestToolPairLocked removes the oldest non-pinned adjacent
// (ToolCall, ToolResult) pair. Caller must hold s.mu.
func (s *Session) dropOldestToolPairLocked() bool {
	pinned := pinnedSet(s.Flags.PinnedIndices)
	for i := 1; i < len(s.Messages)-1; i++ {
		call, result := s.Messages[i], s.Messages[i+1]
		if call.Kind == KindToolCall && result.Kind == KindToolResult &&
			call.ToolCallID == result.ToolCallID &&
			!pinned[i] && !pinned[i+1] {
			s.removeIndicesLocked([]int{i, i + 1})
			return true
		}
	}
	return false
}

// dropOldestTextTurnLocked removes the oldest non-pinned UserText or
// AssistantText message. Caller must hold s.mu.
func (s *Session) dropOldestTextTurnLocked() bool {
	pinned := pinnedSet(s.Flags.PinnedIndices)
	for i := 1; i < len(s.Messages); i++ {
		kind := s.Messages[i].Kind
		if (kind == KindUserText || kind == KindAssistantText) && !pinned[i] {
			s.removeIndicesLocked([]int{i})
			return true
		}
	}
	return false
}

// summarizePinnedTurnsLocked collapses every pinned message into a single
// synthetic AssistantText and unpins it. Caller must hold s.mu.
func (s *Session) summarizePinnedTurnsLocked() {
	if len(s.Flags.PinnedIndices) == 0 {
		return
	}

	sorted := append([]int(nil), s.Flags.PinnedIndices...)
	sort.Ints(sorted)

	parts := make([]string, 0, len(sorted))
	for _, i := range sorted {
		if i < 0 || i >= len(s.Messages) {
			continue
		}
		parts = append(parts, summarizeMessage(s.Messages[i]))
	}

	insertAt := sorted[0]
	s.removeIndicesLocked(sorted)

	if insertAt > len(s.Messages) {
		insertAt = len(s.Messages)
	}

	synthetic := Message{Kind: KindAssistantText, Text: "Previously: " + strings.Join(parts, "; ")}
	merged := make([]Message, 0, len(s.Messages)+1)
	merged = append(merged, s.Messages[:insertAt]...)
	merged = append(merged, synthetic)
	merged = append(merged, s.Messages[insertAt:]...)
	s.Messages = merged
	s.Flags.PinnedIndices = nil
	s.recomputeTokenEstimateLocked()
}

// summarizeMessage renders a one-line summary of a message for the
// synthetic collapsed-turn text.
func summarizeMessage(m Message) string {
	switch m.Kind {
	case KindToolCall:
		return "called " + m.ToolName
	case KindToolResult:
		if m.ToolOK {
			return "tool result ok"
		}
		return "tool result failed: " + m.ToolError
	default:
		const maxLen = 120
		text := m.Text
		if len(text) > maxLen {
			text = text[:maxLen] + "…"
		}
		return text
	}
}

// removeIndicesLocked deletes the given message indices and shifts
// PinnedIndices to match the new positions. Caller must hold s.mu.
func (s *Session) removeIndicesLocked(idxs []int) {
	remove := pinnedSet(idxs)

	newMessages := make([]Message, 0, len(s.Messages)-len(idxs))
	indexMap := make(map[int]int, len(s.Messages))
	for i, m := range s.Messages {
		if remove[i] {
			continue
		}
		indexMap[i] = len(newMessages)
		newMessages = append(newMessages, m)
	}

	newPinned := make([]int, 0, len(s.Flags.PinnedIndices))
	for _, p := range s.Flags.PinnedIndices {
		if ni, ok := indexMap[p]; ok {
			newPinned = append(newPinned, ni)
		}
	}

	s.Messages = newMessages
	s.Flags.PinnedIndices = newPinned
	s.recomputeTokenEstimateLocked()
}

// recomputeTokenEstimateLocked recalculates TokenEstimate from scratch.
// Caller must hold s.mu.
func (s *Session) recomputeTokenEstimateLocked() {
	total := 0
	for _, m := range s.Messages {
		total += m.tokenCost()
	}
	s.TokenEstimate = total
}
