package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/sentryd/pkg/cluster"
	"github.com/codeready-toolchain/sentryd/pkg/config"
)

// testGuard initializes the process-wide cluster guard exactly once (its
// Init is a sync.Once singleton) with every cluster this test file's cases
// need, since a second Init call with a different list would be silently
// ignored.
func testGuard(t *testing.T) *cluster.Guard {
	t.Helper()
	return cluster.Init([]config.ClusterConfig{
		{Name: "remediation-dev-allow", Dev: true},
		{Name: "remediation-prod-deny", Dev: false},
		{Name: "remediation-protected-ns", Dev: true},
		{Name: "remediation-repeat", Dev: true},
		{Name: "remediation-no-correlation", Dev: true},
	})
}

func testOrchestrator(t *testing.T, protected []string) *Orchestrator {
	t.Helper()
	protectedSet := map[string]bool{"kube-system": true, "kube-public": true}
	for _, ns := range protected {
		protectedSet[ns] = true
	}
	return &Orchestrator{
		guard:               testGuard(t),
		remediation:         config.DefaultRemediationConfig(),
		protectedNamespaces: protectedSet,
	}
}

func TestEligibleForAutoRemediation_CrashLoopWithCorrelation_Allowed(t *testing.T) {
	o := testOrchestrator(t, nil)
	f := Finding{
		ID: "f1", Cluster: "remediation-dev-allow", Namespace: "payments", Kind: config.FindingKindCrashLoop,
		CorrelatedDeployments: []DeploymentCorrelation{{Number: 1}},
	}
	kind, ok := remediationKindFor(f)
	assert := assert.New(t)
	assert.True(ok)
	eligible, reason := o.eligibleForAutoRemediation(f, kind, nil)
	assert.True(eligible, reason)
}

func TestEligibleForAutoRemediation_ProdClusterDenied(t *testing.T) {
	o := testOrchestrator(t, nil)
	f := Finding{
		ID: "f2", Cluster: "remediation-prod-deny", Namespace: "payments", Kind: config.FindingKindCrashLoop,
		CorrelatedDeployments: []DeploymentCorrelation{{Number: 1}},
	}
	kind, _ := remediationKindFor(f)
	eligible, _ := o.eligibleForAutoRemediation(f, kind, nil)
	assert.False(t, eligible)
}

func TestEligibleForAutoRemediation_ProtectedNamespaceDenied(t *testing.T) {
	o := testOrchestrator(t, []string{"payments"})
	f := Finding{
		ID: "f3", Cluster: "remediation-protected-ns", Namespace: "payments", Kind: config.FindingKindCrashLoop,
		CorrelatedDeployments: []DeploymentCorrelation{{Number: 1}},
	}
	kind, _ := remediationKindFor(f)
	eligible, _ := o.eligibleForAutoRemediation(f, kind, nil)
	assert.False(t, eligible)
}

func TestEligibleForAutoRemediation_IdempotenceGuardDenied(t *testing.T) {
	o := testOrchestrator(t, nil)
	f := Finding{
		ID: "f4", Cluster: "remediation-repeat", Namespace: "payments", Kind: config.FindingKindCrashLoop,
		CorrelatedDeployments: []DeploymentCorrelation{{Number: 1}},
	}
	kind, _ := remediationKindFor(f)
	recent := []RemediationRecord{{FindingID: "f4", Kind: kind, AppliedAt: time.Now()}}
	eligible, reason := o.eligibleForAutoRemediation(f, kind, recent)
	assert.False(t, eligible)
	assert.Contains(t, reason, "already applied")
}

func TestEligibleForAutoRemediation_CrashLoopWithoutCorrelationDenied(t *testing.T) {
	o := testOrchestrator(t, nil)
	f := Finding{ID: "f5", Cluster: "remediation-no-correlation", Namespace: "payments", Kind: config.FindingKindCrashLoop}
	kind, _ := remediationKindFor(f)
	eligible, _ := o.eligibleForAutoRemediation(f, kind, nil)
	assert.False(t, eligible)
}

func TestPruneRemediationHistory_KeepsOnlyLastTwoCycles(t *testing.T) {
	history := [][]RemediationRecord{
		{{FindingID: "a"}}, {{FindingID: "b"}}, {{FindingID: "c"}},
	}
	pruned := pruneRemediationHistory(history)
	assert.Len(t, pruned, 2)
	flat := flattenHistory(pruned)
	assert.Len(t, flat, 2)
	assert.Equal(t, "b", flat[0].FindingID)
	assert.Equal(t, "c", flat[1].FindingID)
}
