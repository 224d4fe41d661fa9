package safety

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/sentryd/pkg/audit"
	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	"github.com/codeready-toolchain/sentryd/pkg/config"
	"github.com/codeready-toolchain/sentryd/pkg/masking"
)

func TestChain_DenyNeverReachesCatalog(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	invoked := false
	c := catalog.New()
	c.Register(catalog.Tool{
		Descriptor: catalog.Descriptor{Name: "delete_pod", Category: catalog.CategoryDestructive},
		Invoke: func(ctx context.Context, args json.RawMessage) catalog.Result {
			invoked = true
			return catalog.Result{OK: true}
		},
	})

	logPath := filepath.Join(t.TempDir(), "audit.ndjson")
	logger, err := audit.Open(logPath)
	require.NoError(t, err)
	defer logger.Close()

	chain := NewChain(v, logger, nil, c, nil)
	res := chain.Execute(context.Background(), Invocation{
		Tool: "delete_pod", Category: catalog.CategoryDestructive, Cluster: "dev-eks",
		Args: args(map[string]any{"namespace": "kube-system", "name": "x"}),
	})

	assert.False(t, res.OK)
	require.NotNil(t, res.Err)
	assert.Contains(t, res.Err.Message, "BLOCKED:")
	assert.False(t, invoked, "the catalog tool must never run when the validator denies")
}

func TestChain_AllowInvokesCatalogAndLogs(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	c := catalog.New()
	c.Register(catalog.Tool{
		Descriptor: catalog.Descriptor{Name: "list_pods", Category: catalog.CategoryRead},
		Invoke: func(ctx context.Context, args json.RawMessage) catalog.Result {
			return catalog.Result{OK: true, Payload: "[]"}
		},
	})

	logPath := filepath.Join(t.TempDir(), "audit.ndjson")
	logger, err := audit.Open(logPath)
	require.NoError(t, err)

	chain := NewChain(v, logger, nil, c, nil)
	res := chain.Execute(context.Background(), Invocation{
		Tool: "list_pods", Category: catalog.CategoryRead, Cluster: "dev-eks",
		Args: args(map[string]any{"namespace": "app-dev"}),
	})
	require.NoError(t, logger.Close())

	assert.True(t, res.OK)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"decision":"allow"`)
}

func TestChain_MasksSecretPayloadBeforeReturning(t *testing.T) {
	g := testGuard(t, "dev-eks")
	v := NewValidator(g, nil)

	secretYAML := "kind: Secret\ndata:\n  password: c2VjcmV0\n"
	c := catalog.New()
	c.Register(catalog.Tool{
		Descriptor: catalog.Descriptor{Name: "get_pod", Category: catalog.CategoryRead, TargetSystem: "kubernetes"},
		Invoke: func(ctx context.Context, args json.RawMessage) catalog.Result {
			return catalog.Result{OK: true, Payload: secretYAML}
		},
	})

	masker := masking.NewMaskingService(map[string]*config.MaskingConfig{
		"kubernetes": {Enabled: true, PatternGroups: []string{"kubernetes"}},
	}, masking.AlertMaskingConfig{})

	chain := NewChain(v, nil, nil, c, masker)
	res := chain.Execute(context.Background(), Invocation{
		Tool: "get_pod", Category: catalog.CategoryRead, Cluster: "dev-eks",
		Args: args(map[string]any{"namespace": "app-dev", "name": "x"}),
	})

	assert.True(t, res.OK)
	assert.NotContains(t, res.Payload, "c2VjcmV0", "secret data must never reach the caller unmasked")
	assert.Contains(t, res.Payload, masking.MaskedSecretValue)
}
