// Package llm implements the LLM Driver: the single Advance operation
// that runs one coherent turn of the reason-act loop against the
// Anthropic API, routing every tool call through the Safety Hook Chain.
package llm

import (
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Client wraps the Anthropic SDK client with the model and default
// parameters sentryd uses for every Advance call.
type Client struct {
	api         anthropic.Client
	Model       anthropic.Model
	MaxTokens   int64
	Temperature float64
}

// NewClient builds a Client. apiKey is read by callers from the
// configured env var (see config.LLMProviderConfig) so this package
// never touches os.Getenv directly.
func NewClient(apiKey, model string, maxTokens int64) *Client {
	return &Client{
		api:       anthropic.NewClient(option.WithAPIKey(apiKey)),
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
	}
}

// DefaultQueryDeadline and DefaultCycleDeadline are the wall-clock budget
// defaults: a query session gets 180s per advance, an orchestrator cycle
// gets 600s (tool-heavy investigations run longer).
const (
	DefaultQueryDeadline = 180 * time.Second
	DefaultCycleDeadline = 600 * time.Second
)
