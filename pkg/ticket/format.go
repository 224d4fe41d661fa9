package ticket

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/sentryd/pkg/orchestrator"
)

// metricsSnapshotMarker prefixes the embedded snapshot line so the next
// cycle could, in principle, recover last-known metrics purely from the
// tracker's comment history: the metrics snapshot is embedded in the
// comment body so the next cycle can parse "last known metrics".
const metricsSnapshotMarker = "<!-- sentryd-metrics:"

func (c *Correlator) maskEvidence(s string) string {
	if c.masker == nil {
		return s
	}
	return c.masker.MaskEvidence(s)
}

func (c *Correlator) renderCreateBody(in orchestrator.CorrelationInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Diagnosis\n\n")
	fmt.Fprintf(&b, "- **Cluster:** %s\n- **Namespace:** %s\n- **Kind:** %s\n- **Severity:** %s\n",
		in.Cluster, in.Namespace, in.Kind, in.Severity)
	if in.RestartCount > 0 {
		fmt.Fprintf(&b, "- **Restart count:** %d\n", in.RestartCount)
	}

	if len(in.Evidence) > 0 {
		b.WriteString("\n### Evidence\n\n")
		for _, e := range in.Evidence {
			fmt.Fprintf(&b, "- %s\n", c.maskEvidence(e))
		}
	}

	if len(in.CorrelatedDeployments) > 0 {
		b.WriteString("\n### Correlated Deployments\n\n")
		for _, d := range in.CorrelatedDeployments {
			fmt.Fprintf(&b, "- [#%d](%s) %s (merged %s)\n", d.Number, d.URL, d.Title, d.MergedAt.Format("2006-01-02 15:04"))
		}
	}

	b.WriteString("\n")
	b.WriteString(metricsSnapshotSnapshot(in))
	return b.String()
}

// renderCommentBody formats the structured markdown comment: Change
// Detected, Current Metrics, New Observations, Next Steps.
func (c *Correlator) renderCommentBody(in orchestrator.CorrelationInput, prev *dedupState) string {
	var b strings.Builder

	b.WriteString("### Change Detected\n\n")
	switch {
	case in.Resolved:
		b.WriteString("Finding no longer observed; treating as resolved.\n")
	case prev.lastSeverity != in.Severity:
		fmt.Fprintf(&b, "Severity changed from %s to %s.\n", prev.lastSeverity, in.Severity)
	case in.RemediationAttempted:
		b.WriteString("Auto-remediation attempted this cycle.\n")
	case in.RestartCount-prev.lastRestartCount > 0:
		fmt.Fprintf(&b, "Restart count increased by %d since the last update.\n", in.RestartCount-prev.lastRestartCount)
	case in.ErrorSignature != "" && prev.lastErrorSignature != "" && in.ErrorSignature != prev.lastErrorSignature:
		b.WriteString("New error pattern observed in evidence since the last update.\n")
	default:
		b.WriteString("Recurring observation; no status change since the last update.\n")
	}

	if in.Resolved {
		b.WriteString("\n### Current Metrics\n\n- **Status:** resolved\n")
	} else {
		fmt.Fprintf(&b, "\n### Current Metrics\n\n- **Severity:** %s\n- **Restart count:** %d\n", in.Severity, in.RestartCount)
	}

	if len(in.Evidence) > 0 {
		b.WriteString("\n### New Observations\n\n")
		for _, e := range in.Evidence {
			fmt.Fprintf(&b, "- %s\n", c.maskEvidence(e))
		}
	}

	b.WriteString("\n### Next Steps\n\n")
	switch {
	case in.Resolved:
		b.WriteString("No further action; will reopen escalation if the finding recurs.\n")
	case in.Severity == "critical":
		b.WriteString("Escalated as CRITICAL; see remediation action (if any) in the cycle report.\n")
	default:
		b.WriteString("Continuing to monitor; will update on the next significant change.\n")
	}

	b.WriteString("\n")
	b.WriteString(metricsSnapshotSnapshot(in))
	return b.String()
}

func metricsSnapshotSnapshot(in orchestrator.CorrelationInput) string {
	return fmt.Sprintf("%s severity=%s restart_count=%d -->\n", metricsSnapshotMarker, in.Severity, in.RestartCount)
}
