package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/codeready-toolchain/sentryd/pkg/config"
)

// rawFinding is the JSON shape the diagnostics subagent's prompt asks for;
// parseFindings fills in the fields the subagent isn't positioned to know
// (cluster, timestamps, stable ID).
type rawFinding struct {
	Severity     string   `json:"severity"`
	Namespace    string   `json:"namespace"`
	Workload     string   `json:"workload"`
	Kind         string   `json:"kind"`
	Evidence     []string `json:"evidence"`
	RestartCount int      `json:"restart_count"`
}

// parseFindings extracts the JSON array of findings from the diagnostics
// subagent's final text. The subagent is instructed to respond with
// nothing but the array, but models occasionally wrap it in a fenced code
// block, so the outermost bracket pair is located defensively.
func parseFindings(cluster string, text string, now time.Time) ([]Finding, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("orchestrator: no JSON array in diagnostics output")
	}

	var raw []rawFinding
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("orchestrator: parse diagnostics output: %w", err)
	}

	findings := make([]Finding, 0, len(raw))
	for i, r := range raw {
		findings = append(findings, Finding{
			ID:           fmt.Sprintf("%s/%s/%s-%d", cluster, r.Namespace, r.Workload, i),
			Severity:     normalizeSeverity(r.Severity),
			Cluster:      cluster,
			Namespace:    r.Namespace,
			Workload:     r.Workload,
			Kind:         normalizeKind(r.Kind),
			Evidence:     r.Evidence,
			FirstSeen:    now,
			LastSeen:     now,
			RestartCount: r.RestartCount,
		})
	}
	return findings, nil
}

func normalizeSeverity(s string) config.Severity {
	sev := config.Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return config.SeverityInfo
	}
	return sev
}

func normalizeKind(s string) config.FindingKind {
	kind := config.FindingKind(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")))
	switch kind {
	case config.FindingKindCrashLoop, config.FindingKindOOMKilled, config.FindingKindNotReady,
		config.FindingKindHighErrorRate, config.FindingKindHighLatency, config.FindingKindDeployFailure,
		config.FindingKindResourceLimit:
		return kind
	default:
		return config.FindingKindOther
	}
}
