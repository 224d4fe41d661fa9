package api

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
)

// identityKey is the gin.Context key holding the resolved caller identity
// (the API key if presented and valid, else the source IP), used as the
// rate limiter's partition key.
const identityKey = "sentryd.identity"

// apiKeyAuth enforces the HTTP engine's auth rule: if no keys are configured,
// every request is allowed (dev mode). Otherwise a presented X-API-Key
// must constant-time match one configured key. When keys are configured
// and required is true, a missing or invalid key is rejected; when
// required is false, a missing key falls through as an unauthenticated
// (IP-identified) request instead of a hard failure.
func apiKeyAuth(keys []string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("X-API-Key")

		if len(keys) == 0 {
			c.Set(identityKey, identityFor(c, presented))
			c.Next()
			return
		}

		if presented == "" {
			if required {
				c.AbortWithStatusJSON(401, gin.H{"error": "X-API-Key header is required"})
				return
			}
			c.Set(identityKey, identityFor(c, ""))
			c.Next()
			return
		}

		if !keyMatches(presented, keys) {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid API key"})
			return
		}

		c.Set(identityKey, presented)
		c.Next()
	}
}

// keyMatches reports whether presented constant-time-matches any key in
// keys, so the comparison's timing never betrays which prefix was wrong.
func keyMatches(presented string, keys []string) bool {
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(presented), []byte(k)) == 1 {
			return true
		}
	}
	return false
}

// identityFor returns the rate-limiter partition key: the presented API
// key if non-empty, else the request's source IP.
func identityFor(c *gin.Context, presented string) string {
	if presented != "" {
		return presented
	}
	return c.ClientIP()
}

func identity(c *gin.Context) string {
	if v, ok := c.Get(identityKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.ClientIP()
}
