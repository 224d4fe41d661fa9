package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/codeready-toolchain/sentryd/pkg/config"
)

// defaultResolvedStableDuration is used when Thresholds.ResolvedStableDuration
// is unset.
const defaultResolvedStableDuration = 30 * time.Minute

// trackedFinding is a cross-cycle record of one escalated finding, kept so a
// finding that stops appearing in diagnosis can be recognized as resolved
// rather than simply forgotten.
type trackedFinding struct {
	cluster, namespace, workload string
	kind                         config.FindingKind
	component                    string
	repoOwner, repoName          string
	project                      string
	lastSeverity                 config.Severity
	lastRestartCount             int

	// absentSince is zero while the finding is still present in the
	// current cycle's diagnosis; set the first cycle it disappears, and
	// used to measure the stable-absence window before declaring it
	// resolved.
	absentSince time.Time
}

// findingTrackKey identifies a finding for cross-cycle resolution tracking,
// matching the ticket correlator's own dedup key.
func findingTrackKey(cluster, namespace string, kind config.FindingKind) string {
	return strings.Join([]string{cluster, namespace, string(kind)}, "|")
}

func (o *Orchestrator) resolvedStableDuration() time.Duration {
	if o.cfg.Thresholds != nil && o.cfg.Thresholds.ResolvedStableDuration > 0 {
		return o.cfg.Thresholds.ResolvedStableDuration
	}
	return defaultResolvedStableDuration
}

// trackEscalated records (or refreshes) the tracked state for a finding that
// just reached a ticket or comment action, so a later cycle in which it no
// longer appears can detect and report its resolution.
func (o *Orchestrator) trackEscalated(f Finding, component, repoOwner, repoName, project string) {
	key := findingTrackKey(f.Cluster, f.Namespace, f.Kind)
	o.tracked[key] = &trackedFinding{
		cluster:          f.Cluster,
		namespace:        f.Namespace,
		workload:         f.Workload,
		kind:             f.Kind,
		component:        component,
		repoOwner:        repoOwner,
		repoName:         repoName,
		project:          project,
		lastSeverity:     f.Severity,
		lastRestartCount: f.RestartCount,
	}
}

// detectResolved compares this cycle's escalated-finding keys against the
// tracked set carried from prior cycles. A finding absent for less than the
// stable-absence window is left tracked (it may just be a noisy gap);
// past that window, it fires a one-time resolution comment and stops being
// tracked, so a later recurrence is treated as a fresh finding.
func (o *Orchestrator) detectResolved(ctx context.Context, presentKeys map[string]bool) {
	now := time.Now()
	stable := o.resolvedStableDuration()

	for key, tf := range o.tracked {
		if presentKeys[key] {
			tf.absentSince = time.Time{}
			continue
		}
		if tf.absentSince.IsZero() {
			tf.absentSince = now
			continue
		}
		if now.Sub(tf.absentSince) < stable {
			continue
		}

		o.reportResolved(ctx, tf)
		delete(o.tracked, key)
	}
}

// reportResolved tells the ticket correlator a tracked finding has cleared,
// so it can comment on (never create) the associated ticket and forget its
// dedup state.
func (o *Orchestrator) reportResolved(ctx context.Context, tf *trackedFinding) {
	if o.correlator == nil {
		return
	}

	in := CorrelationInput{
		Cluster:      tf.cluster,
		Namespace:    tf.namespace,
		Component:    tf.component,
		Kind:         tf.kind,
		Severity:     tf.lastSeverity,
		RestartCount: tf.lastRestartCount,
		JiraProject:  tf.project,
		RepoOwner:    tf.repoOwner,
		RepoName:     tf.repoName,
		AllowCreate:  false,
		Resolved:     true,
	}

	if _, err := o.correlator.Correlate(ctx, in); err != nil {
		o.logger.Warn("resolved-finding correlation failed",
			"namespace", tf.namespace, "kind", tf.kind, "error", err)
	}
}
