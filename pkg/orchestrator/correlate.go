package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/codeready-toolchain/sentryd/pkg/config"
)

// deployCorrelationWindow is the default window of recently-merged PRs
// checked for deploy correlation.
const deployCorrelationWindow = 6 * time.Hour

// deployCorrelationSlop is how far a merge time may fall outside a
// finding's first_seen and still be considered a plausible cause.
const deployCorrelationSlop = 30 * time.Minute

// correlate enriches a HIGH-or-above Finding with log evidence,
// deployment correlation, and (when a mapping
// names it) traffic correlation, each via its own subagent delegation.
func (o *Orchestrator) correlate(ctx context.Context, f *Finding) {
	if requiresLogEvidence(*f) {
		task := fmt.Sprintf("Summarize recent logs and events for %s/%s on cluster %s explaining the root cause.",
			f.Namespace, f.Workload, f.Cluster)
		if text, err := o.delegator.delegate(ctx, config.SubAgentLogAnalyzer, task); err == nil && text != "" {
			f.Evidence = append(f.Evidence, "log-analyzer: "+text)
		}
	}

	mapping, ok := o.cfg.ServiceMapping[f.Namespace]
	if !ok {
		return
	}

	o.correlateRunbook(ctx, f, mapping.KnownIssues)

	if mapping.RepoOwner == "" || mapping.RepoName == "" {
		return
	}

	task := fmt.Sprintf(
		"Repository %s/%s. List pull requests merged within %s of %s; report "+
			"ones that plausibly explain an incident in %s/%s. Respond with a "+
			"JSON array of {number, title, url, merged_at}.",
		mapping.RepoOwner, mapping.RepoName, deployCorrelationWindow,
		f.FirstSeen.Format(time.RFC3339), f.Namespace, f.Workload,
	)
	text, err := o.delegator.delegate(ctx, config.SubAgentGitHub, task)
	if err != nil || text == "" {
		return
	}

	f.CorrelatedDeployments = parseDeployCorrelations(text, f.FirstSeen)

	if o.cfg.Datadog != nil && o.cfg.Datadog.Enabled {
		task := fmt.Sprintf("Check for traffic/egress/IO anomalies correlated with %s/%s around %s.",
			f.Namespace, f.Workload, f.FirstSeen.Format(time.RFC3339))
		if text, err := o.delegator.delegate(ctx, config.SubAgentCostOptimizer, task); err == nil {
			f.CorrelatedTraffic = text
		}
	}
}

func parseDeployCorrelations(text string, firstSeen time.Time) []DeploymentCorrelation {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil
	}

	var raw []DeploymentCorrelation
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil
	}

	out := make([]DeploymentCorrelation, 0, len(raw))
	for _, pr := range raw {
		if pr.MergedAt.After(firstSeen.Add(-deployCorrelationSlop)) &&
			pr.MergedAt.Before(firstSeen.Add(deployCorrelationSlop)) {
			out = append(out, pr)
		}
	}
	return out
}
