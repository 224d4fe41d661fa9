package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/sentryd/pkg/config"
	"github.com/codeready-toolchain/sentryd/pkg/runbook"
)

func TestMatchKnownIssueRunbook_FindsURL(t *testing.T) {
	url, ok := matchKnownIssueRunbook([]string{"flaky liveness probe", "https://github.com/org/repo/blob/main/runbooks/crashloop.md"})
	assert.True(t, ok)
	assert.Equal(t, "https://github.com/org/repo/blob/main/runbooks/crashloop.md", url)
}

func TestMatchKnownIssueRunbook_NoURL(t *testing.T) {
	_, ok := matchKnownIssueRunbook([]string{"flaky liveness probe under cold cache"})
	assert.False(t, ok)
}

func TestCorrelateRunbook_NilServiceIsNoOp(t *testing.T) {
	o := &Orchestrator{}
	f := &Finding{Kind: config.FindingKindCrashLoop}
	o.correlateRunbook(context.Background(), f, []string{"https://example.com/runbook.md"})
	assert.Empty(t, f.Evidence)
}

func TestCorrelateRunbook_AppendsTruncatedEvidence(t *testing.T) {
	rbCfg := &config.RunbookConfig{AllowedDomains: []string{"example.com"}}
	o := &Orchestrator{runbooks: runbook.NewService(rbCfg, "", "fallback")}
	f := &Finding{Kind: config.FindingKindCrashLoop}

	o.correlateRunbook(context.Background(), f, nil)
	assert.Empty(t, f.Evidence, "no URL in known issues should add nothing")
}
