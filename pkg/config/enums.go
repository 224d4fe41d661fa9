package config

// Severity is the escalation level assigned to a Finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid reports whether the severity is one of the known levels.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// FindingKind categorizes the nature of a diagnosed problem.
type FindingKind string

const (
	FindingKindCrashLoop     FindingKind = "crash_loop"
	FindingKindOOMKilled     FindingKind = "oom_killed"
	FindingKindNotReady      FindingKind = "not_ready"
	FindingKindHighErrorRate FindingKind = "high_error_rate"
	FindingKindHighLatency   FindingKind = "high_latency"
	FindingKindDeployFailure FindingKind = "deploy_failure"
	FindingKindResourceLimit FindingKind = "resource_limit"
	FindingKindOther         FindingKind = "other"
)

// TicketStatus is the lifecycle state of a correlated ticket.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// RemediationKind enumerates the whitelisted auto-remediation actions.
type RemediationKind string

const (
	RemediationRestartDeployment RemediationKind = "restart_deployment"
	RemediationScaleDeployment   RemediationKind = "scale_deployment"
	RemediationClearFailedPods   RemediationKind = "clear_failed_pods"
)

// IsValid reports whether the remediation kind is recognized.
func (k RemediationKind) IsValid() bool {
	switch k {
	case RemediationRestartDeployment, RemediationScaleDeployment, RemediationClearFailedPods:
		return true
	default:
		return false
	}
}

// LLMProviderType identifies the backing LLM API family.
type LLMProviderType string

const (
	LLMProviderTypeAnthropic LLMProviderType = "anthropic"
)

// IsValid checks if the LLM provider type is valid.
func (t LLMProviderType) IsValid() bool {
	return t == LLMProviderTypeAnthropic
}

// SubAgentName identifies one of the fixed subagent profiles the orchestrator
// can delegate to.
type SubAgentName string

const (
	SubAgentDiagnostics   SubAgentName = "diagnostics"
	SubAgentLogAnalyzer   SubAgentName = "log-analyzer"
	SubAgentRemediation   SubAgentName = "remediation"
	SubAgentCostOptimizer SubAgentName = "cost-optimizer"
	SubAgentGitHub        SubAgentName = "github"
	SubAgentJira          SubAgentName = "jira"
)

// IsValid reports whether the name is one of the six fixed subagent profiles.
func (n SubAgentName) IsValid() bool {
	switch n {
	case SubAgentDiagnostics, SubAgentLogAnalyzer, SubAgentRemediation,
		SubAgentCostOptimizer, SubAgentGitHub, SubAgentJira:
		return true
	default:
		return false
	}
}
