package config

import "time"

// RateLimitConfig bounds requests per identity for one API endpoint class.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained rate allowed.
	RequestsPerMinute int `yaml:"requests_per_minute"`
	// Burst is the token-bucket burst size.
	Burst int `yaml:"burst"`
}

// APIConfig controls the HTTP query/session engine.
type APIConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`

	// APIKeys is the set of accepted X-API-Key values. An empty list means
	// development mode: all requests are allowed without a key.
	APIKeys []string `yaml:"api_keys,omitempty"`

	// RateLimits maps endpoint name ("query", "session.create", ...) to its
	// rate limit. Endpoints not listed use DefaultRateLimit.
	RateLimits map[string]RateLimitConfig `yaml:"rate_limits,omitempty"`

	// DefaultRateLimit applies to any endpoint not present in RateLimits.
	DefaultRateLimit RateLimitConfig `yaml:"default_rate_limit"`

	// QuerySessionTTL is how long an idle query session is kept before
	// eviction.
	QuerySessionTTL time.Duration `yaml:"query_session_ttl"`

	// MaxQuerySessions caps the number of concurrently held query sessions;
	// the oldest is evicted once the cap is exceeded.
	MaxQuerySessions int `yaml:"max_query_sessions"`
}

// DefaultAPIConfig returns the built-in API defaults.
func DefaultAPIConfig() *APIConfig {
	return &APIConfig{
		Addr:             ":8080",
		DefaultRateLimit: RateLimitConfig{RequestsPerMinute: 60, Burst: 10},
		QuerySessionTTL:  30 * time.Minute,
		MaxQuerySessions: 500,
	}
}
