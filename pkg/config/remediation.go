package config

// RemediationConfig bounds what the remediation subagent is allowed to do
// automatically, without a human in the loop.
type RemediationConfig struct {
	// Enabled gates all auto-remediation. When false the remediation
	// subagent can still be delegated to for read-only recommendations.
	Enabled bool `yaml:"enabled"`

	// ApprovedKinds is the whitelist of remediation actions that may be
	// applied without human approval. Anything not listed here is reported
	// as a recommendation only.
	ApprovedKinds []RemediationKind `yaml:"approved_kinds,omitempty"`

	// MinReplicasForRestart is the minimum current replica count a
	// deployment must have before a rolling restart is attempted
	// (restarting a single-replica deployment risks a full outage).
	MinReplicasForRestart int `yaml:"min_replicas_for_restart"`

	// MaxScaleStep bounds how many replicas a single scale action may add
	// or remove in one cycle.
	MaxScaleStep int `yaml:"max_scale_step"`
}

// DefaultRemediationConfig returns the conservative built-in remediation
// defaults: restart (>=2 replicas), scale by at most 2, and clearing failed
// pods are approved; everything else requires a human.
func DefaultRemediationConfig() *RemediationConfig {
	return &RemediationConfig{
		Enabled: true,
		ApprovedKinds: []RemediationKind{
			RemediationRestartDeployment,
			RemediationScaleDeployment,
			RemediationClearFailedPods,
		},
		MinReplicasForRestart: 2,
		MaxScaleStep:          2,
	}
}

// Approves reports whether kind is in the approved whitelist.
func (r *RemediationConfig) Approves(kind RemediationKind) bool {
	if r == nil || !r.Enabled {
		return false
	}
	for _, k := range r.ApprovedKinds {
		if k == kind {
			return true
		}
	}
	return false
}
