package api

import "time"

// Metadata accompanies every query/session-query response: tools
// invoked, tokens used, duration, and whether the turn was truncated.
type Metadata struct {
	ToolsInvoked []string `json:"tools_invoked"`
	TokensUsed   int      `json:"tokens_used"`
	DurationMS   int64    `json:"duration_ms"`
	Truncated    bool     `json:"truncated,omitempty"`
}

// QueryResponse is returned by POST /api/v1/query and
// POST /api/v1/sessions/:id/query.
type QueryResponse struct {
	Response  string   `json:"response"`
	SessionID string   `json:"session_id,omitempty"`
	Metadata  Metadata `json:"metadata"`
}

// SessionCreateResponse is returned by POST /api/v1/sessions.
type SessionCreateResponse struct {
	SessionID string `json:"session_id"`
}

// MessageView is the externally-facing projection of one session.Message,
// omitting tool call/result fields a caller with no tool-catalog context
// couldn't interpret anyway; Text alone is enough for a transcript view.
type MessageView struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
}

// SessionGetResponse is returned by GET /api/v1/sessions/:id.
type SessionGetResponse struct {
	SessionID     string         `json:"session_id"`
	CreatedAt     time.Time      `json:"created_at"`
	LastUsedAt    time.Time      `json:"last_used_at"`
	TokenEstimate int            `json:"token_estimate"`
	Messages      []MessageView  `json:"messages"`
}

// SessionDeleteResponse is returned by DELETE /api/v1/sessions/:id.
type SessionDeleteResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// SessionsStatsResponse is returned by GET /api/v1/sessions/stats.
type SessionsStatsResponse struct {
	Count     int `json:"count"`
	Evictions int `json:"evictions"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
}

// HealthCheck reports the status of a single health check component.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// DocsEndpoint describes one HTTP operation for GET /api/v1/docs.
type DocsEndpoint struct {
	Op         string `json:"op"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Purpose    string `json:"purpose"`
	Auth       string `json:"auth"`
	RateLimit  string `json:"rate_limit"`
}

// DocsResponse is returned by GET /api/v1/docs.
type DocsResponse struct {
	Endpoints []DocsEndpoint `json:"endpoints"`
}
