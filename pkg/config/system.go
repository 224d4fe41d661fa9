package config

import "time"

// GitHubConfig holds resolved GitHub integration configuration, used both
// for deploy correlation (recent merged PRs) and the GitHub subagent.
type GitHubConfig struct {
	TokenEnv string // Env var name containing GitHub PAT (default: "GITHUB_TOKEN")
}

// JiraConfig holds resolved Jira integration configuration for the Ticket
// Correlator and the Jira subagent.
type JiraConfig struct {
	BaseURL      string // Jira instance base URL
	TokenEnv     string // Env var name containing the Jira API token
	UserEnv      string // Env var name containing the Jira account email/user
	DefaultProject string // Project key used when a service mapping doesn't override it
}

// AWSConfig holds resolved AWS integration configuration for the CloudWatch
// and EC2 tool adapters. Credentials are resolved through the default AWS
// SDK chain (env vars, shared config, instance role); this only pins the
// region and an optional named profile.
type AWSConfig struct {
	Region  string `yaml:"region,omitempty"`
	Profile string `yaml:"profile,omitempty"`
}

// DatadogConfig holds resolved Datadog integration configuration for the
// optional traffic-correlation tool.
type DatadogConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Site       string `yaml:"site,omitempty"` // e.g. "datadoghq.com", "datadoghq.eu"
	APIKeyEnv  string `yaml:"api_key_env,omitempty"`
	AppKeyEnv  string `yaml:"app_key_env,omitempty"`
}

// RunbookConfig holds resolved runbook system configuration.
type RunbookConfig struct {
	RepoURL        string        // GitHub repo URL for listing runbooks (empty = disabled)
	CacheTTL       time.Duration // Cache duration (default: 1m)
	AllowedDomains []string      // Allowed URL domains (default: ["github.com", "raw.githubusercontent.com"])
}
