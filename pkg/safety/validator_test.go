package safety

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	"github.com/codeready-toolchain/sentryd/pkg/cluster"
	"github.com/codeready-toolchain/sentryd/pkg/config"
)

// testGuard returns the process-wide Cluster Guard, initializing it on
// first use. Every test in this file allow-lists the same single cluster
// ("dev-eks"), so cluster.Init's once-only semantics never interfere
// across test functions within this package.
func testGuard(t *testing.T, clusters ...string) *cluster.Guard {
	t.Helper()
	var cfgs []config.ClusterConfig
	for _, name := range clusters {
		cfgs = append(cfgs, config.ClusterConfig{Name: name})
	}
	return cluster.Init(cfgs)
}

func args(m map[string]any) json.RawMessage {
	b, _ := json.Marshal(m)
	return b
}

func TestValidate_DestructiveOnDisallowedCluster_Denied(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	verdict := v.Validate(Invocation{Tool: "delete_pod", Category: catalog.CategoryDestructive, Cluster: "prod-eks", Args: args(map[string]any{"namespace": "app-dev"})})
	assert.False(t, verdict.Allow)
}

func TestValidate_DeleteInProtectedNamespace_Denied(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	verdict := v.Validate(Invocation{Tool: "delete_pod", Category: catalog.CategoryDestructive, Cluster: "dev-eks", Args: args(map[string]any{"namespace": "kube-system"})})
	assert.False(t, verdict.Allow)
}

func TestValidate_DeleteNamespaceAlwaysDenied(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	verdict := v.Validate(Invocation{Tool: "delete_namespace", Category: catalog.CategoryDestructive, Cluster: "dev-eks", Args: args(map[string]any{"namespace": "app-dev"})})
	assert.False(t, verdict.Allow)
}

func TestValidate_RolloutRestartLowReplicas_Denied(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	verdict := v.Validate(Invocation{Tool: "rollout_restart", Category: catalog.CategoryWrite, Cluster: "dev-eks", Args: args(map[string]any{"namespace": "app-dev", "current_replicas": 1})})
	assert.False(t, verdict.Allow)
}

func TestValidate_RolloutRestartEnoughReplicas_Allowed(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	verdict := v.Validate(Invocation{Tool: "rollout_restart", Category: catalog.CategoryWrite, Cluster: "dev-eks", Args: args(map[string]any{"namespace": "app-dev", "current_replicas": 3})})
	assert.True(t, verdict.Allow)
}

func TestValidate_ScaleDeploymentBigStep_Denied(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	verdict := v.Validate(Invocation{Tool: "scale_deployment", Category: catalog.CategoryWrite, Cluster: "dev-eks", Args: args(map[string]any{"namespace": "app-dev", "current_replicas": 2, "replicas": 10})})
	assert.False(t, verdict.Allow)
}

func TestValidate_ScaleDeploymentSmallStep_Allowed(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	verdict := v.Validate(Invocation{Tool: "scale_deployment", Category: catalog.CategoryWrite, Cluster: "dev-eks", Args: args(map[string]any{"namespace": "app-dev", "current_replicas": 2, "replicas": 4})})
	assert.True(t, verdict.Allow)
}

func TestValidate_DeletePodInSystemNamespace_Denied(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	verdict := v.Validate(Invocation{Tool: "delete_pod", Category: catalog.CategoryDestructive, Cluster: "dev-eks", Args: args(map[string]any{"namespace": "kube-system"})})
	assert.False(t, verdict.Allow)
}

func TestValidate_SecretLikePath_Denied(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	verdict := v.Validate(Invocation{Tool: "apply_manifest", Category: catalog.CategoryWrite, Cluster: "dev-eks", Args: args(map[string]any{"namespace": "app-dev", "path": "/etc/app/.env"})})
	assert.False(t, verdict.Allow)
}

func TestValidate_DefaultAllow(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	verdict := v.Validate(Invocation{Tool: "list_pods", Category: catalog.CategoryRead, Cluster: "dev-eks", Args: args(map[string]any{"namespace": "app-dev"})})
	assert.True(t, verdict.Allow)
}
