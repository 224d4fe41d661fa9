package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// healthHandler handles GET /health (the `health` op): an unauthenticated
// liveness check. Only checks this process's own state (the session
// store); external dependencies are deliberately excluded so a flaky LLM
// provider or cluster API never causes the orchestrator to restart a
// healthy process.
func (s *Server) healthHandler(c *gin.Context) {
	checks := map[string]HealthCheck{
		"session_store": {Status: "healthy"},
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.versionString(),
		Checks:  checks,
	})
}
