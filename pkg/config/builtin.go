package config

import (
	"sync"
)

// BuiltinConfig holds all built-in configuration data: default subagent
// profiles, the default LLM provider, and masking patterns.
type BuiltinConfig struct {
	SubAgents        map[SubAgentName]SubAgentConfig
	LLMProviders     map[string]LLMProviderConfig
	MaskingPatterns  map[string]MaskingPattern
	PatternGroups    map[string][]string
	CodeMaskers      []string
	DefaultRunbook   string
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration (thread-safe, lazy-initialized).
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		SubAgents:       initBuiltinSubAgents(),
		LLMProviders:    initBuiltinLLMProviders(),
		MaskingPatterns: initBuiltinMaskingPatterns(),
		PatternGroups:   initBuiltinPatternGroups(),
		CodeMaskers:     initBuiltinCodeMaskers(),
		DefaultRunbook:  defaultRunbookContent,
	}
}

func initBuiltinSubAgents() map[SubAgentName]SubAgentConfig {
	return map[SubAgentName]SubAgentConfig{
		SubAgentDiagnostics: {
			Description: "Inspects cluster state (pods, deployments, events, metrics) and produces structured Findings",
			Tools:       []string{"kubernetes"},
			CustomInstructions: `You are a Kubernetes diagnostics investigator.

Your task:
1. Inspect the namespaces and workloads you are given for signs of trouble:
   crash loops, OOMKills, NotReady conditions, resource pressure.
2. For each problem you confirm with evidence, emit a Finding with a kind,
   severity, the affected namespace/workload, and the evidence you gathered.
3. Do not speculate about root cause beyond what the evidence supports.
4. Never attempt to modify cluster state; this profile is read-only.`,
		},
		SubAgentLogAnalyzer: {
			Description: "Reads pod and container logs around a Finding's time window and extracts error patterns",
			Tools:       []string{"kubernetes"},
			CustomInstructions: `You are a log analysis investigator.

Given a Finding, fetch relevant logs and extract the error patterns, stack
traces, or anomalies that explain the symptom. Summarize what changed
relative to a healthy baseline when you can tell. This profile is read-only.`,
		},
		SubAgentRemediation: {
			Description: "Proposes and, when approved, applies narrowly-scoped remediation actions",
			Tools:       []string{"kubernetes"},
			CanRemediate: true,
			CustomInstructions: `You are a remediation investigator.

You may recommend or (only for approved kinds, only on dev clusters) apply:
restarting a deployment with at least two replicas, scaling a deployment by
a small step, or clearing failed pods. Never recommend destructive actions
outside this whitelist. Always state your reasoning before acting.`,
		},
		SubAgentCostOptimizer: {
			Description: "Reviews resource requests/limits and EC2/CloudWatch utilization for right-sizing opportunities",
			Tools:       []string{"kubernetes", "aws"},
			CustomInstructions: `You are a cost optimization investigator.

Compare requested resources against observed utilization and flag
over-provisioned workloads or idle infrastructure. This profile is
read-only and does not apply changes.`,
		},
		SubAgentGitHub: {
			Description: "Correlates findings with recent deployments by inspecting merged pull requests",
			Tools:       []string{"github"},
			CustomInstructions: `You are a deployment correlation investigator.

Given a Finding and a service mapping's repository, check for pull requests
merged shortly before the Finding's first occurrence. Report the most
likely candidate changes with links.`,
		},
		SubAgentJira: {
			Description: "Searches for and creates/updates tickets tracking a Finding",
			Tools:       []string{"jira"},
			CustomInstructions: `You are a ticket correlation investigator.

Search for an existing open ticket matching the Finding's summary format
before creating a new one. Follow the structured comment format for
updates and never close a ticket automatically.`,
		},
	}
}

func initBuiltinLLMProviders() map[string]LLMProviderConfig {
	return map[string]LLMProviderConfig{
		"anthropic-default": {
			Type:                LLMProviderTypeAnthropic,
			Model:               "claude-sonnet-4-20250514",
			APIKeyEnv:           "ANTHROPIC_API_KEY",
			MaxTokens:           4096,
			MaxToolResultTokens: 150000, // Conservative for 200K context
		},
	}
}

func initBuiltinMaskingPatterns() map[string]MaskingPattern {
	return map[string]MaskingPattern{
		"api_key": {
			Pattern:     `(?i)(?:api[_-]?key|apikey|key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-]{20,})["\']?`,
			Replacement: `"api_key": "[MASKED_API_KEY]"`,
			Description: "API keys",
		},
		"password": {
			Pattern:     `(?i)(?:password|pwd|pass)["\']?\s*[:=]\s*["\']?([^"\'\s\n]{6,})["\']?`,
			Replacement: `"password": "[MASKED_PASSWORD]"`,
			Description: "Passwords",
		},
		"certificate": {
			Pattern:     `(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`,
			Replacement: `[MASKED_CERTIFICATE]`,
			Description: "SSL/TLS certificates",
		},
		"certificate_authority_data": {
			Pattern:     `(?i)certificate-authority-data:\s*([A-Za-z0-9+/]{20,}={0,2})`,
			Replacement: `certificate-authority-data: [MASKED_CA_CERTIFICATE]`,
			Description: "K8s CA data",
		},
		"token": {
			Pattern:     `(?i)(?:token|bearer|jwt)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"token": "[MASKED_TOKEN]"`,
			Description: "Access tokens",
		},
		"email": {
			Pattern:     `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9]+(?:[.-][A-Za-z0-9]+)*\.[A-Za-z]{2,63}\b`,
			Replacement: `[MASKED_EMAIL]`,
			Description: "Email addresses",
		},
		"ssh_key": {
			Pattern:     `ssh-(?:rsa|dss|ed25519|ecdsa)\s+[A-Za-z0-9+/=]+`,
			Replacement: `[MASKED_SSH_KEY]`,
			Description: "SSH public keys",
		},
		"base64_secret": {
			Pattern:     `\b([A-Za-z0-9+/]{20,}={0,2})\b`,
			Replacement: `[MASKED_BASE64_VALUE]`,
			Description: "Base64 values (20+ chars)",
		},
		"base64_short": {
			Pattern:     `:\s+([A-Za-z0-9+/]{4,19}={0,2})(?:\s|$)`,
			Replacement: `: [MASKED_SHORT_BASE64]`,
			Description: "Short base64 values",
		},
		"private_key": {
			Pattern:     `(?i)(?:private[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"private_key": "[MASKED_PRIVATE_KEY]"`,
			Description: "Private keys",
		},
		"secret_key": {
			Pattern:     `(?i)(?:secret[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"secret_key": "[MASKED_SECRET_KEY]"`,
			Description: "Secret keys",
		},
		"aws_access_key": {
			Pattern:     `(?i)(?:aws[_-]?access[_-]?key[_-]?id)["\']?\s*[:=]\s*["\']?(AKIA[A-Z0-9]{16})["\']?`,
			Replacement: `"aws_access_key_id": "[MASKED_AWS_KEY]"`,
			Description: "AWS access keys",
		},
		"aws_secret_key": {
			Pattern:     `(?i)(?:aws[_-]?secret[_-]?access[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9/+=]{40})["\']?`,
			Replacement: `"aws_secret_access_key": "[MASKED_AWS_SECRET]"`,
			Description: "AWS secret keys",
		},
		"github_token": {
			Pattern:     `(?i)(?:github[_-]?token|gh[ps]_[A-Za-z0-9_]{36,255})`,
			Replacement: `[MASKED_GITHUB_TOKEN]`,
			Description: "GitHub tokens",
		},
		"slack_token": {
			Pattern:     `(?i)xox[baprs]-[A-Za-z0-9-]{10,72}`,
			Replacement: `[MASKED_SLACK_TOKEN]`,
			Description: "Slack tokens",
		},
		"jira_token": {
			Pattern:     `(?i)(?:jira[_-]?(?:api[_-]?)?token)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-]{20,})["\']?`,
			Replacement: `"jira_token": "[MASKED_JIRA_TOKEN]"`,
			Description: "Jira API tokens",
		},
	}
}

// initBuiltinPatternGroups returns predefined groups of masking patterns.
// Pattern group members can reference either:
//   - MaskingPatterns: regex-based patterns
//   - CodeMaskers: code-based maskers for complex structural parsing (e.g., kubernetes_secret)
//
// Example: "kubernetes_secret" is a code-based masker that parses YAML/JSON
// to mask only Secret data (not ConfigMaps), so it appears in CodeMaskers
// instead of MaskingPatterns. Implemented in pkg/masking/kubernetes_secret.go.
func initBuiltinPatternGroups() map[string][]string {
	return map[string][]string{
		"basic":      {"api_key", "password"},
		"secrets":    {"api_key", "password", "token", "private_key", "secret_key"},
		"security":   {"api_key", "password", "token", "certificate", "certificate_authority_data", "email", "ssh_key"},
		"kubernetes": {"kubernetes_secret", "api_key", "password", "certificate_authority_data"},
		"cloud":      {"aws_access_key", "aws_secret_key", "api_key", "token"},
		"tickets":    {"jira_token", "api_key", "token", "email"},
		"all":        {"base64_secret", "base64_short", "api_key", "password", "certificate", "certificate_authority_data", "email", "token", "ssh_key", "private_key", "secret_key", "aws_access_key", "aws_secret_key", "github_token", "slack_token", "jira_token"},
	}
}

// initBuiltinCodeMaskers returns names of code-based maskers for complex masking scenarios.
// These maskers require structural parsing and can be referenced in PatternGroups.
// Unlike regex patterns in MaskingPatterns, code-based maskers implement custom logic.
//
// Each name must match a Masker registered in pkg/masking/service.go (registerMasker).
// Implementations live in pkg/masking/ — see each masker's Name() method.
func initBuiltinCodeMaskers() []string {
	return []string{
		"kubernetes_secret", // pkg/masking/kubernetes_secret.go
	}
}

const defaultRunbookContent = `# Generic Troubleshooting Guide

## Investigation Steps

1. **Analyze the finding** - Review evidence and identify the affected workload
2. **Gather context** - Use tools to check current state and recent changes
3. **Identify root cause** - Investigate potential causes based on the finding kind
4. **Assess impact** - Determine scope and severity
5. **Recommend actions** - Suggest safe investigation or remediation steps

## Guidelines

- Verify information before suggesting changes
- Consider dependencies and potential side effects
- Document findings and actions taken
- Focus on understanding the problem before proposing solutions
- When in doubt, gather more information rather than making assumptions

## Common Investigation Patterns

### For Crash Loops / OOMKills
- Check resource requests/limits against observed usage
- Review recent deployments or configuration changes
- Inspect container logs for the crash reason

### For Availability Issues
- Verify service health and readiness
- Check for recent restarts or crashes
- Review dependencies and upstream services

### For Error Rate / Latency Spikes
- Analyze error messages and stack traces
- Correlate with recent deployments
- Check for external service failures
`
