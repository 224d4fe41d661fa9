package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// mapSessionError maps a session.Store lookup failure to an HTTP status.
// The store's only failure mode is "not found", so no richer taxonomy is
// needed here (contrast pkg/api/errors.go's teacher analog, which maps a
// services.ValidationError/ErrNotCancellable/ErrAlreadyExists set that has
// no equivalent in this domain's session store).
func mapSessionError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if strings.Contains(err.Error(), "not found") {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
