package orchestrator

import (
	"time"

	"github.com/codeready-toolchain/sentryd/pkg/config"
)

// pendingDowntimeThreshold is the "transient Pending > 10 min"
// approved-remediation condition.
const pendingDowntimeThreshold = 10 * time.Minute

// remediationIdempotenceWindow bounds how far back the in-memory
// RemediationRecord list is consulted: "not applied in the previous
// cycle" per the data model's Remediation Record retention (two cycles).
const remediationIdempotenceWindow = 2

// remediationKindFor maps a Finding's kind to the single remediation
// action that could plausibly fix it. Returns false when no built-in
// remediation applies to this kind of problem.
func remediationKindFor(f Finding) (config.RemediationKind, bool) {
	switch f.Kind {
	case config.FindingKindCrashLoop:
		return config.RemediationRestartDeployment, true
	case config.FindingKindNotReady:
		return config.RemediationClearFailedPods, true
	case config.FindingKindResourceLimit, config.FindingKindHighErrorRate:
		return config.RemediationScaleDeployment, true
	default:
		return "", false
	}
}

// eligibleForAutoRemediation implements the "Approved auto-remediation"
// gate: every condition must hold.
func (o *Orchestrator) eligibleForAutoRemediation(f Finding, kind config.RemediationKind, recent []RemediationRecord) (bool, string) {
	if o.remediation == nil || !o.remediation.Enabled {
		return false, "auto-remediation disabled"
	}
	if !o.remediation.Approves(kind) {
		return false, "remediation kind not in approved whitelist"
	}

	switch f.Kind {
	case config.FindingKindCrashLoop:
		if len(f.CorrelatedDeployments) == 0 {
			return false, "crash loop has no recent deploy correlation"
		}
	case config.FindingKindNotReady:
		if f.downtime() < pendingDowntimeThreshold {
			return false, "pending duration below threshold"
		}
	default:
		return false, "finding kind not eligible for auto-remediation"
	}

	if o.protectedNamespaces[f.Namespace] {
		return false, "namespace is protected"
	}

	cl, ok := o.guard.Lookup(f.Cluster)
	if !ok || !cl.Dev {
		return false, "cluster is not on the dev auto-remediation allow-list"
	}

	for _, r := range recent {
		if r.FindingID == f.ID && r.Kind == kind {
			return false, "remediation already applied in a recent cycle"
		}
	}

	return true, ""
}

// pruneRemediationHistory drops records older than the retention window,
// measured in completed cycles rather than wall-clock time.
func pruneRemediationHistory(history [][]RemediationRecord) [][]RemediationRecord {
	if len(history) <= remediationIdempotenceWindow {
		return history
	}
	return history[len(history)-remediationIdempotenceWindow:]
}

func flattenHistory(history [][]RemediationRecord) []RemediationRecord {
	var out []RemediationRecord
	for _, cycle := range history {
		out = append(out, cycle...)
	}
	return out
}
