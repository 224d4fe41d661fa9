package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	"github.com/codeready-toolchain/sentryd/pkg/cluster"
	"github.com/codeready-toolchain/sentryd/pkg/config"
	"github.com/codeready-toolchain/sentryd/pkg/safety"
	"github.com/codeready-toolchain/sentryd/pkg/session"
)

func testDriver(t *testing.T, cat *catalog.Catalog) *Driver {
	t.Helper()
	g := cluster.Init([]config.ClusterConfig{{Name: "dev-eks"}})
	v := safety.NewValidator(g, nil)
	chain := safety.NewChain(v, nil, nil, cat, nil)
	return NewDriver(nil, chain, "dev-eks")
}

func TestRunToolCalls_AppendsResultsInProviderOrder(t *testing.T) {
	cat := catalog.New()
	cat.Register(catalog.Tool{
		Descriptor: catalog.Descriptor{Name: "list_pods", Category: catalog.CategoryRead},
		Invoke:     func(ctx context.Context, args json.RawMessage) catalog.Result { return catalog.Result{OK: true, Payload: "pods"} },
	})
	cat.Register(catalog.Tool{
		Descriptor: catalog.Descriptor{Name: "get_events", Category: catalog.CategoryRead},
		Invoke:     func(ctx context.Context, args json.RawMessage) catalog.Result { return catalog.Result{OK: true, Payload: "events"} },
	})

	d := testDriver(t, cat)
	sess := session.NewSession("s1", "sys", 100000)

	calls := []toolCall{
		{ID: "1", Name: "list_pods", Args: []byte(`{}`)},
		{ID: "2", Name: "get_events", Args: []byte(`{}`)},
	}
	require.NoError(t, d.runToolCalls(context.Background(), sess, cat, calls))

	msgs := sess.Snapshot().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "1", msgs[0].ToolCallID)
	assert.Equal(t, "pods", msgs[0].ToolPayload)
	assert.Equal(t, "2", msgs[1].ToolCallID)
	assert.Equal(t, "events", msgs[1].ToolPayload)
}

func TestRunToolCalls_SafetyDenyAppearsAsToolResultNotError(t *testing.T) {
	cat := catalog.New()
	cat.Register(catalog.Tool{
		Descriptor: catalog.Descriptor{Name: "delete_pod", Category: catalog.CategoryDestructive},
		Invoke:     func(ctx context.Context, args json.RawMessage) catalog.Result { return catalog.Result{OK: true} },
	})

	d := testDriver(t, cat)
	sess := session.NewSession("s1", "sys", 100000)

	calls := []toolCall{{ID: "1", Name: "delete_pod", Args: []byte(`{"namespace":"kube-system","name":"x"}`)}}
	require.NoError(t, d.runToolCalls(context.Background(), sess, cat, calls))

	msgs := sess.Snapshot().Messages
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].ToolOK)
	assert.Contains(t, msgs[0].ToolError, "BLOCKED")
}

func TestDefaultBudget(t *testing.T) {
	b := DefaultBudget()
	assert.Equal(t, 25, b.MaxToolCalls)
	assert.Equal(t, DefaultQueryDeadline, b.WallClockDeadline)
}
