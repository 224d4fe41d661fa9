package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codeready-toolchain/sentryd/pkg/llm"
	"github.com/codeready-toolchain/sentryd/pkg/session"
)

// querySystemPrompt seeds every single-shot and newly-created session.
const querySystemPrompt = "You are sentryd, an incident-triage assistant. Use the available tools to investigate the user's question about the cluster and answer concisely."

// queryMaxTokens bounds a single-shot or query-session's token budget —
// smaller than the orchestrator's persistent session since a query turn
// is a one-off investigation, not an accumulating incident history.
const queryMaxTokens = 64000

// queryHandler handles POST /api/v1/query: a single-shot, unpersisted
// session (the `query` op).
func (s *Server) queryHandler(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}
	if !s.checkClusterContext(c, req.Context) {
		return
	}

	sess := session.NewSession(uuid.New().String(), querySystemPrompt, queryMaxTokens)
	resp, err := s.advance(c, sess, req.Prompt)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	resp.SessionID = ""
	c.JSON(http.StatusOK, resp)
}

// sessionQueryHandler handles POST /api/v1/sessions/:id/query: append to
// an existing session (the `session.query` op).
func (s *Server) sessionQueryHandler(c *gin.Context) {
	id := c.Param("id")
	var req SessionQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}
	if !s.checkClusterContext(c, req.Context) {
		return
	}

	sess, err := s.sessions.Get(id)
	if err != nil {
		mapSessionError(c, err)
		return
	}

	resp, err := s.advance(c, sess, req.Prompt)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	resp.SessionID = id
	c.JSON(http.StatusOK, resp)
}

// advance drives sess forward one turn with prompt and assembles the
// response envelope: terminal text plus a summary of tools invoked and
// tokens used.
func (s *Server) advance(c *gin.Context, sess *session.Session, prompt string) (QueryResponse, error) {
	before := sess.Snapshot()
	start := time.Now()

	outcome, err := s.driver.Advance(c.Request.Context(), sess, prompt, s.cat, llm.DefaultBudget())
	duration := time.Since(start)
	if err != nil {
		return QueryResponse{}, err
	}

	after := sess.Snapshot()
	return QueryResponse{
		Response: outcome.FinalText,
		Metadata: Metadata{
			ToolsInvoked: toolNamesSince(before, after),
			TokensUsed:   after.TokenEstimate - before.TokenEstimate,
			DurationMS:   duration.Milliseconds(),
			Truncated:    outcome.TruncatedByBudget || outcome.TruncatedByDeadline,
		},
	}, nil
}

// toolNamesSince returns the names of every tool call appended to after
// beyond before's message count, in call order.
func toolNamesSince(before, after session.Session) []string {
	var names []string
	for i := len(before.Messages); i < len(after.Messages); i++ {
		m := after.Messages[i]
		if m.Kind == session.KindToolCall {
			names = append(names, m.ToolName)
		}
	}
	return names
}
