package config

import "time"

// EscalationRule maps how long a problem has persisted for a given service
// criticality tier to the severity that should be assigned.
type EscalationRule struct {
	Criticality string        `yaml:"criticality" validate:"required"`
	Downtime    time.Duration `yaml:"downtime" validate:"required"`
	Severity    Severity      `yaml:"severity" validate:"required"`
}

// ThresholdsConfig groups the numeric thresholds the monitoring cycle uses
// to decide escalation and significance.
type ThresholdsConfig struct {
	// Escalation is an ordered list of rules; the first rule whose
	// Criticality matches and whose Downtime is <= the observed downtime,
	// taking the highest Severity among matches, wins.
	Escalation []EscalationRule `yaml:"escalation,omitempty"`

	// RestartDeltaSignificant is the minimum increase in restart count
	// since the last ticket comment that counts as a significant change
	// (ticket comment gate B).
	RestartDeltaSignificant int `yaml:"restart_delta_significant"`

	// ResolvedStableDuration is how long a finding must be absent before
	// the correlator treats the underlying problem as resolved.
	ResolvedStableDuration time.Duration `yaml:"resolved_stable_duration"`

	// CommentMinInterval is the minimum time between ticket comments
	// regardless of significance (gate A, time component).
	CommentMinInterval time.Duration `yaml:"comment_min_interval"`
}

// DefaultThresholdsConfig returns the built-in escalation table: tier-1
// services escalate to critical after 5 minutes of downtime and to high
// immediately; tier-2 after 15 minutes; everything else after 30.
func DefaultThresholdsConfig() *ThresholdsConfig {
	return &ThresholdsConfig{
		Escalation: []EscalationRule{
			{Criticality: "tier-1", Downtime: 0, Severity: SeverityHigh},
			{Criticality: "tier-1", Downtime: 5 * time.Minute, Severity: SeverityCritical},
			{Criticality: "tier-2", Downtime: 0, Severity: SeverityWarning},
			{Criticality: "tier-2", Downtime: 15 * time.Minute, Severity: SeverityHigh},
			{Criticality: "tier-3", Downtime: 0, Severity: SeverityInfo},
			{Criticality: "tier-3", Downtime: 30 * time.Minute, Severity: SeverityWarning},
		},
		RestartDeltaSignificant: 10,
		ResolvedStableDuration:  30 * time.Minute,
		CommentMinInterval:      24 * time.Hour,
	}
}

// Escalate returns the highest severity among matching rules for the given
// criticality and downtime, or SeverityInfo if no rule matches.
func (t *ThresholdsConfig) Escalate(criticality string, downtime time.Duration) Severity {
	best := SeverityInfo
	for _, rule := range t.Escalation {
		if rule.Criticality != criticality {
			continue
		}
		if downtime < rule.Downtime {
			continue
		}
		if rule.Severity.AtLeast(best) {
			best = rule.Severity
		}
	}
	return best
}
