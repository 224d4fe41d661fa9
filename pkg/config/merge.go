package config

// mergeSubAgents merges built-in and user-defined subagent configurations.
// User-defined profiles override built-in profiles with the same name.
func mergeSubAgents(builtin map[SubAgentName]SubAgentConfig, user map[SubAgentName]SubAgentConfig) map[SubAgentName]*SubAgentConfig {
	result := make(map[SubAgentName]*SubAgentConfig)

	for name, cfg := range builtin {
		toolsCopy := make([]string, len(cfg.Tools))
		copy(toolsCopy, cfg.Tools)
		cfgCopy := cfg
		cfgCopy.Tools = toolsCopy
		result[name] = &cfgCopy
	}

	for name, cfg := range user {
		cfgCopy := cfg
		result[name] = &cfgCopy
	}

	return result
}

// mergeServiceMappings merges built-in (empty by default) and user-defined
// service mappings, keyed by namespace. User-defined mappings override
// built-in ones with the same namespace.
func mergeServiceMappings(builtin map[string]ServiceMappingConfig, user map[string]ServiceMappingConfig) map[string]*ServiceMappingConfig {
	result := make(map[string]*ServiceMappingConfig)

	for ns, cfg := range builtin {
		cfgCopy := cfg
		result[ns] = &cfgCopy
	}

	for ns, cfg := range user {
		cfgCopy := cfg
		result[ns] = &cfgCopy
	}

	return result
}

// mergeLLMProviders merges built-in and user-defined LLM provider configurations.
// User-defined providers override built-in providers with the same name.
func mergeLLMProviders(builtin map[string]LLMProviderConfig, user map[string]LLMProviderConfig) map[string]*LLMProviderConfig {
	result := make(map[string]*LLMProviderConfig)

	for name, provider := range builtin {
		providerCopy := provider
		result[name] = &providerCopy
	}

	for name, provider := range user {
		providerCopy := provider
		result[name] = &providerCopy
	}

	return result
}
