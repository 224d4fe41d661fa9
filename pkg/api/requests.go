package api

// RequestContext carries the optional, caller-supplied context object in
// the HTTP surface ("prompt", "session_id", "context"). Cluster, when set,
// is checked against the engine's single allow-listed
// cluster at ingress, before any LLM call is made.
type RequestContext struct {
	Cluster string `json:"cluster,omitempty"`
}

// QueryRequest is the body for POST /api/v1/query (single-shot).
type QueryRequest struct {
	Prompt  string         `json:"prompt"`
	Context *RequestContext `json:"context,omitempty"`
}

// SessionCreateRequest is the body for POST /api/v1/sessions.
type SessionCreateRequest struct {
	Prompt  string         `json:"prompt,omitempty"`
	Context *RequestContext `json:"context,omitempty"`
}

// SessionQueryRequest is the body for POST /api/v1/sessions/:id/query.
type SessionQueryRequest struct {
	Prompt  string         `json:"prompt"`
	Context *RequestContext `json:"context,omitempty"`
}
