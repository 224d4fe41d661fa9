package config

// Config is the umbrella configuration object that encapsulates all
// registries and settings. This is the primary object returned by
// Initialize() and threaded through the rest of the application.
type Config struct {
	configDir string // Configuration directory path (for reference)

	Clusters       []ClusterConfig
	ServiceMapping map[string]*ServiceMappingConfig // keyed by namespace

	SubAgentRegistry    *SubAgentRegistry
	LLMProviderRegistry *LLMProviderRegistry

	Defaults     *Defaults
	Cycle        *CycleConfig
	Remediation  *RemediationConfig
	Notify       *NotifyConfig
	API          *APIConfig
	Thresholds   *ThresholdsConfig
	GitHub       *GitHubConfig
	Jira         *JiraConfig
	AWS          *AWSConfig
	Datadog      *DatadogConfig
	Runbooks     *RunbookConfig

	// ToolMasking holds per-adapter masking rules (kubernetes, github, jira,
	// aws, datadog), keyed by catalog.Descriptor.TargetSystem, applied to
	// every tool result before it reaches the LLM or is persisted.
	ToolMasking map[string]*MaskingConfig
}

// Initialize is defined in loader.go

// ConfigStats contains statistics about loaded configuration.
type ConfigStats struct {
	SubAgents      int
	LLMProviders   int
	Clusters       int
	ServiceMapping int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		SubAgents:      c.SubAgentRegistry.Len(),
		LLMProviders:   len(c.LLMProviderRegistry.GetAll()),
		Clusters:       len(c.Clusters),
		ServiceMapping: len(c.ServiceMapping),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetSubAgent retrieves a subagent configuration by name.
func (c *Config) GetSubAgent(name SubAgentName) (*SubAgentConfig, error) {
	return c.SubAgentRegistry.Get(name)
}

// GetLLMProvider retrieves an LLM provider configuration by name.
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}

// GetServiceMapping retrieves the service mapping for a namespace.
func (c *Config) GetServiceMapping(namespace string) (*ServiceMappingConfig, error) {
	m, ok := c.ServiceMapping[namespace]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return m, nil
}

// IsClusterAllowed reports whether name is in the configured cluster allow-list.
func (c *Config) IsClusterAllowed(name string) bool {
	for _, cl := range c.Clusters {
		if cl.Name == name {
			return true
		}
	}
	return false
}

// ClusterByName returns the cluster configuration for name, if allow-listed.
func (c *Config) ClusterByName(name string) (*ClusterConfig, error) {
	for i := range c.Clusters {
		if c.Clusters[i].Name == name {
			return &c.Clusters[i], nil
		}
	}
	return nil, ErrClusterNotAllowed
}
