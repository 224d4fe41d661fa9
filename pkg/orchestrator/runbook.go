package orchestrator

import (
	"context"
	"fmt"
	"strings"
)

// runbookEvidenceLimit bounds how much of a matched runbook's content is
// folded into a Finding's evidence, so one large runbook can't crowd out
// the rest of the cycle's context budget.
const runbookEvidenceLimit = 1500

// matchKnownIssueRunbook returns the first known-issue entry that looks
// like a runbook URL: a service mapping's known_issues[] may reference
// one directly.
func matchKnownIssueRunbook(knownIssues []string) (string, bool) {
	for _, issue := range knownIssues {
		trimmed := strings.TrimSpace(issue)
		if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
			return trimmed, true
		}
	}
	return "", false
}

// correlateRunbook enriches f.Evidence with a matched runbook's content
// when the namespace's service mapping names one, fetched through the
// already-adapted pkg/runbook.Service (cache + allowed-domain validation).
// Best-effort: a fetch failure is silently skipped, since a missing
// runbook must never block the rest of correlation.
func (o *Orchestrator) correlateRunbook(ctx context.Context, f *Finding, knownIssues []string) {
	if o.runbooks == nil {
		return
	}
	url, ok := matchKnownIssueRunbook(knownIssues)
	if !ok {
		return
	}

	content, err := o.runbooks.Resolve(ctx, url)
	if err != nil || content == "" {
		return
	}
	if len(content) > runbookEvidenceLimit {
		content = content[:runbookEvidenceLimit] + "…"
	}
	f.Evidence = append(f.Evidence, fmt.Sprintf("runbook %s:\n%s", url, content))
}
