package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/codeready-toolchain/sentryd/pkg/config"
	"github.com/codeready-toolchain/sentryd/pkg/notify"
)

// escalate applies the escalation policy, invokes the Ticket Correlator,
// and attempts auto-remediation when
// every approved-remediation condition holds.
func (o *Orchestrator) escalate(ctx context.Context, cycleID string, f Finding, remediations *[]RemediationRecord) ActionRecord {
	mapping := o.cfg.ServiceMapping[f.Namespace]
	criticality, component, repoOwner, repoName, project := "tier-3", f.Namespace, "", "", ""
	if mapping != nil {
		criticality = mapping.Criticality
		if mapping.Component != "" {
			component = mapping.Component
		}
		repoOwner, repoName, project = mapping.RepoOwner, mapping.RepoName, mapping.JiraProject
	}
	if project == "" && o.cfg.Jira != nil {
		project = o.cfg.Jira.DefaultProject
	}

	severity := f.Severity
	if o.cfg.Thresholds != nil {
		severity = o.cfg.Thresholds.Escalate(criticality, f.downtime())
	}

	action := ActionRecord{FindingID: f.ID, Namespace: f.Namespace, Workload: f.Workload}

	switch {
	case severity == config.SeverityCritical, severity == config.SeverityHigh:
		action.Action = "ticket"

		// Remediation runs before correlation so a same-cycle auto-remediation
		// attempt is reflected in the significance gate instead of only
		// showing up a cycle later.
		remediated := false
		if severity == config.SeverityCritical {
			remediated = o.attemptRemediation(ctx, cycleID, f, remediations, &action)
		}
		o.runCorrelation(ctx, f, component, repoOwner, repoName, project, true, remediated, &action)
		o.trackEscalated(f, component, repoOwner, repoName, project)
		o.alert(ctx, severity, f, component, action.TicketKey)

	case severity == config.SeverityWarning:
		action.Action = "comment"
		o.runCorrelation(ctx, f, component, repoOwner, repoName, project, false, false, &action)
		o.trackEscalated(f, component, repoOwner, repoName, project)

	default:
		action.Action = "log_only"
		action.Reason = "severity below ticket threshold"
	}

	return action
}

// combineReason appends addition to existing with a separator, so a
// remediation-skip reason set earlier in escalate() survives a later
// correlation outcome instead of being overwritten by it.
func combineReason(existing, addition string) string {
	if addition == "" {
		return existing
	}
	if existing == "" {
		return addition
	}
	return existing + "; " + addition
}

// errorSignature fingerprints a finding's evidence so the ticket correlator
// can tell a new distinct failure mode apart from a recurrence of the same
// one, even when severity and restart count haven't moved.
func errorSignature(evidence []string) string {
	if len(evidence) == 0 {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.Join(evidence, "\n")))
	return hex.EncodeToString(sum[:])
}

func (o *Orchestrator) runCorrelation(ctx context.Context, f Finding, component, repoOwner, repoName, project string, allowCreate, remediationAttempted bool, action *ActionRecord) {
	if o.correlator == nil {
		action.Reason = combineReason(action.Reason, "ticket correlator not configured")
		return
	}

	in := CorrelationInput{
		Cluster:               f.Cluster,
		Namespace:             f.Namespace,
		Component:             component,
		Kind:                  f.Kind,
		Severity:              f.Severity,
		Evidence:              f.Evidence,
		RestartCount:          f.RestartCount,
		CorrelatedDeployments: f.CorrelatedDeployments,
		JiraProject:           project,
		RepoOwner:             repoOwner,
		RepoName:              repoName,
		AllowCreate:           allowCreate,
		ErrorSignature:        errorSignature(f.Evidence),
		RemediationAttempted:  remediationAttempted,
	}

	outcome, err := o.correlator.Correlate(ctx, in)
	if err != nil {
		action.Reason = combineReason(action.Reason, "ticket correlation failed: "+err.Error())
		return
	}
	action.TicketKey = outcome.TicketKey
	action.CommentAdded = outcome.CommentAdded
	action.Reason = combineReason(action.Reason, outcome.Reason)
}

func (o *Orchestrator) alert(ctx context.Context, severity config.Severity, f Finding, component, ticketKey string) {
	if o.notifier == nil {
		return
	}
	o.notifier.Send(ctx, notify.Alert{
		Severity:  string(severity),
		Cluster:   f.Cluster,
		Component: component,
		Kind:      string(f.Kind),
		Summary:   fmt.Sprintf("%s/%s: %s", f.Namespace, f.Workload, f.Kind),
		TicketLink: ticketKey,
	})
}

// attemptRemediation runs approved auto-remediation for f, if eligible, and
// reports whether it actually applied a remediation this cycle.
func (o *Orchestrator) attemptRemediation(ctx context.Context, cycleID string, f Finding, remediations *[]RemediationRecord, action *ActionRecord) bool {
	kind, ok := remediationKindFor(f)
	if !ok {
		return false
	}

	recent := flattenHistory(o.remediationHistory)
	eligible, reason := o.eligibleForAutoRemediation(f, kind, recent)
	if !eligible {
		action.Reason = combineReason(action.Reason, "remediation skipped: "+reason)
		return false
	}

	task := fmt.Sprintf("Apply %s to %s/%s on cluster %s. Finding: %s. This is an approved, bounded auto-remediation.",
		kind, f.Namespace, f.Workload, f.Cluster, f.Kind)
	if _, err := o.delegator.delegate(ctx, config.SubAgentRemediation, task); err != nil {
		action.Reason = combineReason(action.Reason, "remediation attempt failed: "+err.Error())
		return false
	}

	action.Remediated = true
	*remediations = append(*remediations, RemediationRecord{
		FindingID: f.ID,
		Kind:      kind,
		Cluster:   f.Cluster,
		Namespace: f.Namespace,
		Workload:  f.Workload,
		AppliedAt: time.Now(),
		CycleID:   cycleID,
	})
	return true
}
