package config

// Shared types used across configuration structs.

// MaskingConfig defines data masking configuration for a tool adapter
// (kubernetes, github, aws, datadog, jira, ...).
type MaskingConfig struct {
	Enabled        bool             `yaml:"enabled"`
	PatternGroups  []string         `yaml:"pattern_groups,omitempty"`
	Patterns       []string         `yaml:"patterns,omitempty"`
	CustomPatterns []MaskingPattern `yaml:"custom_patterns,omitempty"`
}

// MaskingPattern defines a regex-based masking pattern.
type MaskingPattern struct {
	Pattern     string `yaml:"pattern" validate:"required"`
	Replacement string `yaml:"replacement" validate:"required"`
	Description string `yaml:"description,omitempty"`
}

// ServiceMappingConfig binds a Kubernetes namespace/deployment to the
// external systems (source repo, ticket project) used to correlate findings.
type ServiceMappingConfig struct {
	// Namespace is the Kubernetes namespace this mapping applies to (required).
	Namespace string `yaml:"namespace" validate:"required"`

	// Component is the human-readable service name used in ticket titles and
	// notifications (defaults to Namespace when empty).
	Component string `yaml:"component,omitempty"`

	// RepoOwner/RepoName locate the GitHub repository whose recent merges
	// are checked for deploy correlation.
	RepoOwner string `yaml:"repo_owner,omitempty"`
	RepoName  string `yaml:"repo_name,omitempty"`

	// Criticality feeds the severity escalation table (e.g. "tier-1", "tier-2").
	Criticality string `yaml:"criticality" validate:"required"`

	// KnownIssues lists short free-text notes surfaced to the LLM as prior
	// context ("flaky liveness probe under cold cache").
	KnownIssues []string `yaml:"known_issues,omitempty"`

	// DependsOn names other services this one depends on, used to avoid
	// opening duplicate tickets for a cascading failure.
	DependsOn []string `yaml:"depends_on,omitempty"`

	// JiraProject overrides the default ticket project key for this service.
	JiraProject string `yaml:"jira_project,omitempty"`
}
