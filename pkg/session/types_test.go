package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSession_SeedsSystemPrompt(t *testing.T) {
	s := NewSession("sess-1", "You are a triage assistant.", 1000)

	assert.Equal(t, "sess-1", s.ID)
	assert.Len(t, s.Messages, 1)
	assert.Equal(t, KindSystemPrompt, s.Messages[0].Kind)
	assert.Greater(t, s.TokenEstimate, 0)
}

func TestSession_Append(t *testing.T) {
	s := NewSession("sess-1", "sys", 1000)
	before := s.TokenEstimate

	s.Append(Message{Kind: KindUserText, Text: "what is wrong with my cluster?"})

	assert.Len(t, s.Messages, 2)
	assert.Greater(t, s.TokenEstimate, before)
}

func TestSession_Pin_NoDuplicates(t *testing.T) {
	s := NewSession("sess-1", "sys", 1000)
	s.Pin(0)
	s.Pin(0)

	assert.Equal(t, []int{0}, s.Flags.PinnedIndices)
}

func TestSession_OverBudget(t *testing.T) {
	s := NewSession("sess-1", "sys", 10)
	assert.True(t, s.OverBudget(0))
	assert.False(t, s.OverBudget(1000))
}

func TestSession_Snapshot_IsDefensiveCopy(t *testing.T) {
	s := NewSession("sess-1", "sys", 1000)
	snap := s.Snapshot()

	s.Append(Message{Kind: KindUserText, Text: "hello"})

	assert.Len(t, snap.Messages, 1, "snapshot should not see later mutations")
	assert.Len(t, s.Messages, 2)
}
