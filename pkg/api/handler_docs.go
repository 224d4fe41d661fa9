package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// docsHandler handles GET /api/v1/docs (the `docs` op): a
// static description of the engine's operations, auth, and rate limits.
func (s *Server) docsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, DocsResponse{Endpoints: []DocsEndpoint{
		{Op: "query", Method: "POST", Path: "/api/v1/query", Purpose: "single-shot: prompt → answer", Auth: "optional API key", RateLimit: "60/min (10/min unauthenticated)"},
		{Op: "session.create", Method: "POST", Path: "/api/v1/sessions", Purpose: "open a session, return id", Auth: "optional API key", RateLimit: "10/min"},
		{Op: "session.query", Method: "POST", Path: "/api/v1/sessions/:id/query", Purpose: "append to an existing session", Auth: "API key (inherits session's)", RateLimit: "60/min"},
		{Op: "session.get", Method: "GET", Path: "/api/v1/sessions/:id", Purpose: "read session metadata + history", Auth: "API key", RateLimit: "30/min"},
		{Op: "session.delete", Method: "DELETE", Path: "/api/v1/sessions/:id", Purpose: "destroy session", Auth: "API key", RateLimit: "—"},
		{Op: "sessions.stats", Method: "GET", Path: "/api/v1/sessions/stats", Purpose: "counts, evictions", Auth: "API key", RateLimit: "—"},
		{Op: "health", Method: "GET", Path: "/health", Purpose: "liveness", Auth: "none", RateLimit: "—"},
		{Op: "docs", Method: "GET", Path: "/api/v1/docs", Purpose: "schema", Auth: "none", RateLimit: "—"},
	}})
}
