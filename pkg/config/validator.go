package config

import (
	"fmt"
	"net/url"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at first error).
// Validated in order: clusters → services → subagents → LLM providers →
// remediation → notify → api → defaults → runbooks.
func (v *Validator) ValidateAll() error {
	if err := v.validateClusters(); err != nil {
		return fmt.Errorf("cluster validation failed: %w", err)
	}
	if err := v.validateServices(); err != nil {
		return fmt.Errorf("service mapping validation failed: %w", err)
	}
	if err := v.validateSubAgents(); err != nil {
		return fmt.Errorf("subagent validation failed: %w", err)
	}
	if err := v.validateLLMProviders(); err != nil {
		return fmt.Errorf("LLM provider validation failed: %w", err)
	}
	if err := v.validateRemediation(); err != nil {
		return fmt.Errorf("remediation validation failed: %w", err)
	}
	if err := v.validateNotify(); err != nil {
		return fmt.Errorf("notify validation failed: %w", err)
	}
	if err := v.validateAPI(); err != nil {
		return fmt.Errorf("api validation failed: %w", err)
	}
	if err := v.validateDefaults(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}
	if err := v.validateRunbooks(); err != nil {
		return fmt.Errorf("runbooks validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateClusters() error {
	if len(v.cfg.Clusters) == 0 {
		return fmt.Errorf("at least one cluster must be configured")
	}
	seen := make(map[string]bool, len(v.cfg.Clusters))
	for _, cl := range v.cfg.Clusters {
		if cl.Name == "" {
			return NewValidationError("cluster", "", "name", fmt.Errorf("name is required"))
		}
		if seen[cl.Name] {
			return NewValidationError("cluster", cl.Name, "name", fmt.Errorf("duplicate cluster name"))
		}
		seen[cl.Name] = true
	}
	return nil
}

func (v *Validator) validateServices() error {
	for ns, svc := range v.cfg.ServiceMapping {
		if svc.Namespace == "" {
			return NewValidationError("service", ns, "namespace", fmt.Errorf("namespace is required"))
		}
		if svc.Criticality == "" {
			return NewValidationError("service", ns, "criticality", fmt.Errorf("criticality is required"))
		}
		for _, dep := range svc.DependsOn {
			if _, ok := v.cfg.ServiceMapping[dep]; !ok {
				return NewValidationError("service", ns, "depends_on", fmt.Errorf("unknown dependency '%s'", dep))
			}
		}
	}
	return nil
}

func (v *Validator) validateSubAgents() error {
	for name, agent := range v.cfg.SubAgentRegistry.GetAll() {
		if !name.IsValid() {
			return NewValidationError("subagent", string(name), "", fmt.Errorf("not a recognized subagent profile"))
		}
		if agent.LLMProvider != "" && !v.cfg.LLMProviderRegistry.Has(agent.LLMProvider) {
			return NewValidationError("subagent", string(name), "llm_provider", fmt.Errorf("LLM provider '%s' not found", agent.LLMProvider))
		}
		if agent.MaxToolCalls != nil && *agent.MaxToolCalls < 1 {
			return NewValidationError("subagent", string(name), "max_tool_calls", fmt.Errorf("must be at least 1"))
		}
		if name != SubAgentRemediation && agent.CanRemediate {
			return NewValidationError("subagent", string(name), "can_remediate", fmt.Errorf("only the remediation profile may set can_remediate"))
		}
	}
	return nil
}

func (v *Validator) validateLLMProviders() error {
	for name, provider := range v.cfg.LLMProviderRegistry.GetAll() {
		if !provider.Type.IsValid() {
			return NewValidationError("llm_provider", name, "type", fmt.Errorf("invalid provider type: %s", provider.Type))
		}
		if provider.Model == "" {
			return NewValidationError("llm_provider", name, "model", fmt.Errorf("model is required"))
		}
		if provider.MaxToolResultTokens < 1000 {
			return NewValidationError("llm_provider", name, "max_tool_result_tokens", fmt.Errorf("must be at least 1000"))
		}
	}

	defaultProvider := v.cfg.Defaults.LLMProvider
	if defaultProvider != "" && !v.cfg.LLMProviderRegistry.Has(defaultProvider) {
		return NewValidationError("defaults", "", "llm_provider", fmt.Errorf("provider '%s' not found", defaultProvider))
	}
	return nil
}

func (v *Validator) validateRemediation() error {
	r := v.cfg.Remediation
	if r == nil {
		return fmt.Errorf("remediation configuration is nil")
	}
	for _, kind := range r.ApprovedKinds {
		if !kind.IsValid() {
			return NewValidationError("remediation", "", "approved_kinds", fmt.Errorf("unknown kind: %s", kind))
		}
	}
	if r.MinReplicasForRestart < 1 {
		return NewValidationError("remediation", "", "min_replicas_for_restart", fmt.Errorf("must be at least 1"))
	}
	if r.MaxScaleStep < 1 {
		return NewValidationError("remediation", "", "max_scale_step", fmt.Errorf("must be at least 1"))
	}
	return nil
}

func (v *Validator) validateNotify() error {
	n := v.cfg.Notify
	if n == nil {
		return fmt.Errorf("notify configuration is nil")
	}
	if n.DedupWindow < 0 {
		return NewValidationError("notify", "", "dedup_window", fmt.Errorf("must be non-negative"))
	}
	if n.DashboardURL != "" {
		if _, err := url.ParseRequestURI(n.DashboardURL); err != nil {
			return NewValidationError("notify", "", "dashboard_url", fmt.Errorf("invalid URL: %w", err))
		}
	}
	return nil
}

func (v *Validator) validateAPI() error {
	a := v.cfg.API
	if a == nil {
		return fmt.Errorf("api configuration is nil")
	}
	if a.Addr == "" {
		return NewValidationError("api", "", "addr", fmt.Errorf("addr is required"))
	}
	if a.DefaultRateLimit.RequestsPerMinute < 1 {
		return NewValidationError("api", "", "default_rate_limit", fmt.Errorf("requests_per_minute must be at least 1"))
	}
	if a.QuerySessionTTL <= 0 {
		return NewValidationError("api", "", "query_session_ttl", fmt.Errorf("must be positive"))
	}
	if a.MaxQuerySessions < 1 {
		return NewValidationError("api", "", "max_query_sessions", fmt.Errorf("must be at least 1"))
	}
	return nil
}

func (v *Validator) validateDefaults() error {
	defaults := v.cfg.Defaults
	if defaults == nil {
		return nil
	}

	if defaults.AlertMasking != nil && defaults.AlertMasking.Enabled {
		builtin := GetBuiltinConfig()
		groupName := defaults.AlertMasking.PatternGroup
		if groupName == "" {
			return NewValidationError("defaults", "", "alert_masking.pattern_group",
				fmt.Errorf("pattern_group is required when alert masking is enabled"))
		}
		if _, exists := builtin.PatternGroups[groupName]; !exists {
			return NewValidationError("defaults", "", "alert_masking.pattern_group",
				fmt.Errorf("pattern group '%s' not found in built-in groups", groupName))
		}
	}

	return nil
}

func (v *Validator) validateRunbooks() error {
	rb := v.cfg.Runbooks
	if rb == nil || rb.RepoURL == "" {
		return nil
	}
	if _, err := url.ParseRequestURI(rb.RepoURL); err != nil {
		return NewValidationError("runbooks", "", "repo_url", fmt.Errorf("invalid URL: %w", err))
	}
	if rb.CacheTTL <= 0 {
		return NewValidationError("runbooks", "", "cache_ttl", fmt.Errorf("must be positive"))
	}
	return nil
}
