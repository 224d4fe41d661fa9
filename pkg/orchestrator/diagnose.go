package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/codeready-toolchain/sentryd/pkg/config"
)

// diagnose assembles cycle context, delegates to the diagnostics subagent
// across every critical namespace
// (the configured service mapping's keys double as the critical-namespace
// list, since every monitored namespace has a mapping), and parse the
// result into Findings.
func (o *Orchestrator) diagnose(ctx context.Context, cycleID string) ([]Finding, error) {
	namespaces := criticalNamespaces(o.cfg.ServiceMapping)

	task := fmt.Sprintf(
		"Cycle %s at %s. Scan these namespaces on cluster %q and report every "+
			"non-healthy workload: %v",
		cycleID, time.Now().UTC().Format(time.RFC3339), o.clusterName, namespaces,
	)

	text, err := o.delegator.delegate(ctx, config.SubAgentDiagnostics, task)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: diagnostics delegation: %w", err)
	}

	findings, err := parseFindings(o.clusterName, text, time.Now())
	if err != nil {
		return nil, fmt.Errorf("orchestrator: parse diagnostics: %w", err)
	}
	return findings, nil
}

func criticalNamespaces(mapping map[string]*config.ServiceMappingConfig) []string {
	out := make([]string, 0, len(mapping))
	for ns := range mapping {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// requiresLogEvidence reports whether kind is one of the finding kinds
// that need a log-analyzer pass before correlation (CrashLoopBackOff,
// OOMKilled, frequent restarts).
func requiresLogEvidence(f Finding) bool {
	return f.Kind == config.FindingKindCrashLoop || f.Kind == config.FindingKindOOMKilled || f.RestartCount >= 5
}
