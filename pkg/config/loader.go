package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// SentrydYAMLConfig represents the complete sentryd.yaml file structure.
type SentrydYAMLConfig struct {
	System      *SystemYAMLConfig               `yaml:"system"`
	Clusters    []ClusterConfig                  `yaml:"clusters"`
	Services    map[string]ServiceMappingConfig  `yaml:"services"`
	SubAgents   map[SubAgentName]SubAgentConfig  `yaml:"subagents"`
	Defaults    *Defaults                        `yaml:"defaults"`
	Cycle       *CycleConfig                     `yaml:"cycle"`
	Remediation *RemediationConfig               `yaml:"remediation"`
	Notify      *NotifyConfig                    `yaml:"notify"`
	API         *APIConfig                       `yaml:"api"`
	Thresholds  *ThresholdsConfig                `yaml:"thresholds"`
}

// SystemYAMLConfig groups system-wide infrastructure settings.
type SystemYAMLConfig struct {
	GitHub      *GitHubYAMLConfig         `yaml:"github"`
	Jira        *JiraYAMLConfig           `yaml:"jira"`
	AWS         *AWSConfig                `yaml:"aws"`
	Datadog     *DatadogConfig            `yaml:"datadog"`
	Runbooks    *RunbooksYAMLConfig       `yaml:"runbooks"`
	ToolMasking map[string]*MaskingConfig `yaml:"tool_masking"`
}

// GitHubYAMLConfig holds GitHub integration settings from YAML.
type GitHubYAMLConfig struct {
	TokenEnv string `yaml:"token_env,omitempty"` // Defaults to "GITHUB_TOKEN" if omitted
}

// JiraYAMLConfig holds Jira integration settings from YAML.
type JiraYAMLConfig struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	TokenEnv       string `yaml:"token_env,omitempty"`
	UserEnv        string `yaml:"user_env,omitempty"`
	DefaultProject string `yaml:"default_project,omitempty"`
}

// RunbooksYAMLConfig holds runbook system settings from YAML.
type RunbooksYAMLConfig struct {
	RepoURL        string   `yaml:"repo_url,omitempty"`
	CacheTTL       string   `yaml:"cache_ttl,omitempty"` // Parsed to time.Duration
	AllowedDomains []string `yaml:"allowed_domains,omitempty"`
}

// LLMProvidersYAMLConfig represents the complete llm-providers.yaml file structure.
type LLMProvidersYAMLConfig struct {
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load YAML files from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined configurations
//  5. Build in-memory registries
//  6. Apply default values
//  7. Validate all configuration
//  8. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"clusters", stats.Clusters,
		"services", stats.ServiceMapping,
		"subagents", stats.SubAgents,
		"llm_providers", stats.LLMProviders)

	return cfg, nil
}

// load is the internal loader (not exported).
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	sentrydConfig, err := loader.loadSentrydYAML()
	if err != nil {
		return nil, NewLoadError("sentryd.yaml", err)
	}

	llmProviders, err := loader.loadLLMProvidersYAML()
	if err != nil {
		return nil, NewLoadError("llm-providers.yaml", err)
	}

	builtin := GetBuiltinConfig()

	subAgents := mergeSubAgents(builtin.SubAgents, sentrydConfig.SubAgents)
	serviceMapping := mergeServiceMappings(nil, sentrydConfig.Services)
	llmProvidersMerged := mergeLLMProviders(builtin.LLMProviders, llmProviders)

	subAgentRegistry := NewSubAgentRegistry(subAgents)
	llmProviderRegistry := NewLLMProviderRegistry(llmProvidersMerged)

	defaults := sentrydConfig.Defaults
	if defaults == nil {
		defaults = &Defaults{}
	}
	if defaults.LLMProvider == "" {
		defaults.LLMProvider = "anthropic-default"
	}
	if defaults.MaxToolCalls == 0 {
		defaults.MaxToolCalls = 25
	}
	if defaults.AlertMasking == nil {
		defaults.AlertMasking = &AlertMaskingDefaults{
			Enabled:      true,
			PatternGroup: "security",
		}
	}

	cycleConfig := DefaultCycleConfig()
	if sentrydConfig.Cycle != nil {
		if err := mergo.Merge(cycleConfig, sentrydConfig.Cycle, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge cycle config: %w", err)
		}
	}

	remediationConfig := DefaultRemediationConfig()
	if sentrydConfig.Remediation != nil {
		if err := mergo.Merge(remediationConfig, sentrydConfig.Remediation, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge remediation config: %w", err)
		}
	}

	notifyConfig := DefaultNotifyConfig()
	if sentrydConfig.Notify != nil {
		if err := mergo.Merge(notifyConfig, sentrydConfig.Notify, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge notify config: %w", err)
		}
	}

	apiConfig := DefaultAPIConfig()
	if sentrydConfig.API != nil {
		if err := mergo.Merge(apiConfig, sentrydConfig.API, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge api config: %w", err)
		}
	}

	thresholdsConfig := DefaultThresholdsConfig()
	if sentrydConfig.Thresholds != nil && len(sentrydConfig.Thresholds.Escalation) > 0 {
		thresholdsConfig = sentrydConfig.Thresholds
	}

	githubCfg := resolveGitHubConfig(sentrydConfig.System)
	jiraCfg := resolveJiraConfig(sentrydConfig.System)
	awsCfg := resolveAWSConfig(sentrydConfig.System)
	datadogCfg := resolveDatadogConfig(sentrydConfig.System)
	runbooksCfg := resolveRunbooksConfig(sentrydConfig.System)
	toolMaskingCfg := resolveToolMaskingConfig(sentrydConfig.System)

	return &Config{
		configDir:           configDir,
		Clusters:            sentrydConfig.Clusters,
		ServiceMapping:      serviceMapping,
		SubAgentRegistry:    subAgentRegistry,
		LLMProviderRegistry: llmProviderRegistry,
		Defaults:            defaults,
		Cycle:               cycleConfig,
		Remediation:         remediationConfig,
		Notify:              notifyConfig,
		API:                 apiConfig,
		Thresholds:          thresholdsConfig,
		GitHub:              githubCfg,
		Jira:                jiraCfg,
		AWS:                 awsCfg,
		Datadog:             datadogCfg,
		Runbooks:            runbooksCfg,
		ToolMasking:         toolMaskingCfg,
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand environment variables (${VAR} / $VAR). On parse/execution
	// errors the original data passes through unchanged, letting the YAML
	// parser surface a clearer error.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadSentrydYAML() (*SentrydYAMLConfig, error) {
	var config SentrydYAMLConfig
	config.Services = make(map[string]ServiceMappingConfig)
	config.SubAgents = make(map[SubAgentName]SubAgentConfig)

	if err := l.loadYAML("sentryd.yaml", &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func (l *configLoader) loadLLMProvidersYAML() (map[string]LLMProviderConfig, error) {
	var config LLMProvidersYAMLConfig
	config.LLMProviders = make(map[string]LLMProviderConfig)

	if err := l.loadYAML("llm-providers.yaml", &config); err != nil {
		return nil, err
	}

	return config.LLMProviders, nil
}

// resolveGitHubConfig resolves GitHub configuration from system YAML, applying defaults.
func resolveGitHubConfig(sys *SystemYAMLConfig) *GitHubConfig {
	cfg := &GitHubConfig{TokenEnv: "GITHUB_TOKEN"}
	if sys != nil && sys.GitHub != nil && sys.GitHub.TokenEnv != "" {
		cfg.TokenEnv = sys.GitHub.TokenEnv
	}
	return cfg
}

// resolveJiraConfig resolves Jira configuration from system YAML, applying defaults.
func resolveJiraConfig(sys *SystemYAMLConfig) *JiraConfig {
	cfg := &JiraConfig{TokenEnv: "JIRA_API_TOKEN", UserEnv: "JIRA_USER_EMAIL"}
	if sys == nil || sys.Jira == nil {
		return cfg
	}
	j := sys.Jira
	if j.BaseURL != "" {
		cfg.BaseURL = j.BaseURL
	}
	if j.TokenEnv != "" {
		cfg.TokenEnv = j.TokenEnv
	}
	if j.UserEnv != "" {
		cfg.UserEnv = j.UserEnv
	}
	if j.DefaultProject != "" {
		cfg.DefaultProject = j.DefaultProject
	}
	return cfg
}

// resolveAWSConfig resolves AWS configuration from system YAML.
func resolveAWSConfig(sys *SystemYAMLConfig) *AWSConfig {
	if sys != nil && sys.AWS != nil {
		return sys.AWS
	}
	return &AWSConfig{}
}

// resolveDatadogConfig resolves Datadog configuration from system YAML.
func resolveDatadogConfig(sys *SystemYAMLConfig) *DatadogConfig {
	if sys != nil && sys.Datadog != nil {
		return sys.Datadog
	}
	return &DatadogConfig{Enabled: false}
}

// resolveToolMaskingConfig resolves per-adapter tool-result masking rules,
// keyed by the same target-system name the Tool Catalog stamps on every
// Descriptor ("kubernetes", "github", "jira", "aws", "datadog"). Built-in
// defaults enable masking for the adapters most likely to surface Secret
// data or credentials; a user config entry for an adapter replaces its
// default outright rather than merging field-by-field.
func resolveToolMaskingConfig(sys *SystemYAMLConfig) map[string]*MaskingConfig {
	resolved := map[string]*MaskingConfig{
		"kubernetes": {Enabled: true, PatternGroups: []string{"kubernetes"}},
		"aws":        {Enabled: true, PatternGroups: []string{"cloud"}},
		"datadog":    {Enabled: true, PatternGroups: []string{"cloud"}},
		"jira":       {Enabled: true, PatternGroups: []string{"tickets"}},
		"github":     {Enabled: true, Patterns: []string{"github_token", "api_key", "token"}},
	}
	for adapterID, cfg := range sys.toolMaskingOrNil() {
		resolved[adapterID] = cfg
	}
	return resolved
}

// toolMaskingOrNil guards against a nil SystemYAMLConfig, matching the
// defensive style of the other resolve* helpers in this file.
func (sys *SystemYAMLConfig) toolMaskingOrNil() map[string]*MaskingConfig {
	if sys == nil {
		return nil
	}
	return sys.ToolMasking
}

// resolveRunbooksConfig resolves runbook configuration from system YAML, applying defaults.
func resolveRunbooksConfig(sys *SystemYAMLConfig) *RunbookConfig {
	cfg := &RunbookConfig{
		CacheTTL:       1 * time.Minute,
		AllowedDomains: []string{"github.com", "raw.githubusercontent.com"},
	}

	if sys == nil || sys.Runbooks == nil {
		return cfg
	}

	rb := sys.Runbooks
	if rb.RepoURL != "" {
		cfg.RepoURL = rb.RepoURL
	}
	if rb.CacheTTL != "" {
		if d, err := time.ParseDuration(rb.CacheTTL); err == nil {
			cfg.CacheTTL = d
		} else {
			slog.Warn("Invalid cache_ttl in runbooks config, using default",
				"value", rb.CacheTTL,
				"default", cfg.CacheTTL,
				"error", err)
		}
	}
	if len(rb.AllowedDomains) > 0 {
		cfg.AllowedDomains = rb.AllowedDomains
	}

	return cfg
}
