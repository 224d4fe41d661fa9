package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/sentryd/pkg/session"
)

// createSessionHandler handles POST /api/v1/sessions (the `session.create`
// op).
func (s *Server) createSessionHandler(c *gin.Context) {
	var req SessionCreateRequest
	_ = c.ShouldBindJSON(&req)
	if !s.checkClusterContext(c, req.Context) {
		return
	}

	sess := s.sessions.Create(querySystemPrompt, queryMaxTokens)
	if req.Prompt != "" {
		if _, err := s.advance(c, sess, req.Prompt); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusCreated, SessionCreateResponse{SessionID: sess.ID})
}

// getSessionHandler handles GET /api/v1/sessions/:id (the `session.get`
// op): session metadata plus history.
func (s *Server) getSessionHandler(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		mapSessionError(c, err)
		return
	}

	snap := sess.Snapshot()
	c.JSON(http.StatusOK, SessionGetResponse{
		SessionID:     snap.ID,
		CreatedAt:     snap.CreatedAt,
		LastUsedAt:    snap.LastUsedAt,
		TokenEstimate: snap.TokenEstimate,
		Messages:      messageViews(snap.Messages),
	})
}

// deleteSessionHandler handles DELETE /api/v1/sessions/:id (the
// `session.delete` op).
func (s *Server) deleteSessionHandler(c *gin.Context) {
	id := c.Param("id")
	if err := s.sessions.Delete(id); err != nil {
		mapSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionDeleteResponse{SessionID: id, Message: "session deleted"})
}

// statsHandler handles GET /api/v1/sessions/stats (the `sessions.stats`
// op).
func (s *Server) statsHandler(c *gin.Context) {
	stats := s.sessions.Stats()
	c.JSON(http.StatusOK, SessionsStatsResponse{Count: stats.Count, Evictions: stats.Evictions})
}

func messageViews(msgs []session.Message) []MessageView {
	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		if m.Text == "" {
			continue
		}
		views = append(views, MessageView{Kind: string(m.Kind), Text: m.Text})
	}
	return views
}
