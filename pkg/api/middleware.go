package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/codeready-toolchain/sentryd/pkg/config"
)

// securityHeaders sets standard response headers on every response.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		c.Next()
	}
}

// endpointDefault is the built-in (endpoint, auth-state) rate limit used
// when config.APIConfig.RateLimits has no entry for the endpoint.
type endpointDefault struct {
	authRPM, unauthRPM int
	burst              int
}

var builtinEndpointLimits = map[string]endpointDefault{
	"query":           {authRPM: 60, unauthRPM: 10, burst: 10},
	"session.create":  {authRPM: 10, unauthRPM: 10, burst: 5},
	"session.query":   {authRPM: 60, unauthRPM: 60, burst: 10},
	"session.get":     {authRPM: 30, unauthRPM: 30, burst: 5},
}

// limiterRegistry holds one token-bucket limiter per (endpoint, identity)
// pair, created lazily and kept for the process lifetime.
type limiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	cfg      *config.APIConfig
}

func newLimiterRegistry(cfg *config.APIConfig) *limiterRegistry {
	return &limiterRegistry{limiters: make(map[string]*rate.Limiter), cfg: cfg}
}

func (r *limiterRegistry) limiterFor(endpoint, ident string, authenticated bool) *rate.Limiter {
	key := endpoint + "|" + ident

	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[key]; ok {
		return l
	}

	rpm, burst := r.rateFor(endpoint, authenticated)
	l := rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
	r.limiters[key] = l
	return l
}

func (r *limiterRegistry) rateFor(endpoint string, authenticated bool) (rpm, burst int) {
	if r.cfg != nil {
		if rl, ok := r.cfg.RateLimits[endpoint]; ok {
			return rl.RequestsPerMinute, rl.Burst
		}
	}

	if d, ok := builtinEndpointLimits[endpoint]; ok {
		if authenticated {
			return d.authRPM, d.burst
		}
		return d.unauthRPM, d.burst
	}

	if r.cfg != nil {
		return r.cfg.DefaultRateLimit.RequestsPerMinute, r.cfg.DefaultRateLimit.Burst
	}
	return 60, 10
}

// rateLimit enforces endpoint's limit for the caller's resolved identity,
// returning a 429-equivalent with a Retry-After hint on rejection. The
// hint is derived from the endpoint's configured rate rather than from a
// reservation, since consuming a reservation here would itself cost the
// caller a future token.
func (r *limiterRegistry) rateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identity(c)
		authenticated := c.GetHeader("X-API-Key") != ""

		l := r.limiterFor(endpoint, ident, authenticated)
		if !l.Allow() {
			rpm, _ := r.rateFor(endpoint, authenticated)
			retryAfter := time.Duration(60.0/float64(max(rpm, 1))*1000) * time.Millisecond
			c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
			c.AbortWithStatusJSON(429, gin.H{"error": "rate limit exceeded", "retry_after_seconds": retryAfter.Seconds()})
			return
		}
		c.Next()
	}
}
