// Package config provides configuration management for sentryd, including
// subagent, cluster, service-mapping, and LLM provider configurations.
package config

import (
	"fmt"
	"sync"
	"time"
)

// SubAgentConfig defines one of the six fixed subagent profiles the
// orchestrator can delegate diagnosis, correlation, and remediation to.
type SubAgentConfig struct {
	// Human-readable description surfaced to the orchestrator's own LLM
	// when it decides whether to delegate to this profile.
	Description string `yaml:"description,omitempty"`

	// Tool adapters this subagent is allowed to call (subset of the
	// catalog: "kubernetes", "github", "aws", "datadog", "jira", "notify").
	Tools []string `yaml:"tools" validate:"omitempty"`

	// CustomInstructions override the built-in system prompt for this profile.
	CustomInstructions string `yaml:"custom_instructions"`

	// LLMProvider selects which configured provider this subagent uses.
	LLMProvider string `yaml:"llm_provider,omitempty"`

	// MaxToolCalls bounds the reason-act loop for a single delegation
	// (overrides the global Budget default when set).
	MaxToolCalls *int `yaml:"max_tool_calls,omitempty" validate:"omitempty,min=1"`

	// Timeout bounds wall-clock time for a single delegation.
	Timeout *time.Duration `yaml:"timeout,omitempty"`

	// CanRemediate marks the subagent as allowed to invoke remediation
	// tools. Only the "remediation" profile should set this.
	CanRemediate bool `yaml:"can_remediate,omitempty"`
}

// SubAgentRegistry stores subagent configurations in memory with thread-safe access.
type SubAgentRegistry struct {
	agents map[SubAgentName]*SubAgentConfig
	mu     sync.RWMutex
}

// NewSubAgentRegistry creates a new subagent registry.
func NewSubAgentRegistry(agents map[SubAgentName]*SubAgentConfig) *SubAgentRegistry {
	copied := make(map[SubAgentName]*SubAgentConfig, len(agents))
	for k, v := range agents {
		copied[k] = v
	}
	return &SubAgentRegistry{agents: copied}
}

// Get retrieves a subagent configuration by name (thread-safe).
func (r *SubAgentRegistry) Get(name SubAgentName) (*SubAgentConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, exists := r.agents[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSubAgentNotFound, name)
	}
	return agent, nil
}

// GetAll returns all subagent configurations (thread-safe, returns copy).
func (r *SubAgentRegistry) GetAll() map[SubAgentName]*SubAgentConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[SubAgentName]*SubAgentConfig, len(r.agents))
	for k, v := range r.agents {
		result[k] = v
	}
	return result
}

// Has checks if a subagent profile exists in the registry (thread-safe).
func (r *SubAgentRegistry) Has(name SubAgentName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.agents[name]
	return exists
}

// Len returns the number of subagent profiles in the registry (thread-safe).
func (r *SubAgentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
