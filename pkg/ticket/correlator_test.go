package ticket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	"github.com/codeready-toolchain/sentryd/pkg/config"
	"github.com/codeready-toolchain/sentryd/pkg/orchestrator"
)

type fakeJira struct {
	searchResult []jiraIssue
	created      jiraIssue
	comments     []string
}

func newFakeJiraCatalog(f *fakeJira) *catalog.Catalog {
	cat := catalog.New()
	cat.Register(catalog.Tool{
		Descriptor: catalog.Descriptor{Name: "search_tickets", Category: catalog.CategoryRead, TargetSystem: "jira"},
		Invoke: func(ctx context.Context, args json.RawMessage) catalog.Result {
			data, _ := json.Marshal(f.searchResult)
			return catalog.Result{OK: true, Payload: string(data)}
		},
	})
	cat.Register(catalog.Tool{
		Descriptor: catalog.Descriptor{Name: "create_ticket", Category: catalog.CategoryWrite, TargetSystem: "jira"},
		Invoke: func(ctx context.Context, args json.RawMessage) catalog.Result {
			data, _ := json.Marshal(f.created)
			return catalog.Result{OK: true, Payload: string(data)}
		},
	})
	cat.Register(catalog.Tool{
		Descriptor: catalog.Descriptor{Name: "add_ticket_comment", Category: catalog.CategoryWrite, TargetSystem: "jira"},
		Invoke: func(ctx context.Context, args json.RawMessage) catalog.Result {
			var decoded struct{ Body string }
			_ = json.Unmarshal(args, &decoded)
			f.comments = append(f.comments, decoded.Body)
			return catalog.Result{OK: true, Payload: `{}`}
		},
	})
	return cat
}

func TestCorrelate_NoMatchAndAllowCreate_CreatesTicket(t *testing.T) {
	f := &fakeJira{created: jiraIssue{Key: "OPS-1", Self: "http://jira/OPS-1"}}
	c := New(newFakeJiraCatalog(f), config.DefaultThresholdsConfig(), nil)

	in := orchestrator.CorrelationInput{
		Cluster: "dev-eks", Namespace: "payments", Component: "payments", Kind: config.FindingKindCrashLoop,
		Severity: config.SeverityCritical, JiraProject: "OPS", AllowCreate: true,
	}
	out, err := c.Correlate(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Equal(t, "OPS-1", out.TicketKey)
}

func TestCorrelate_NoMatchAndNotAllowed_DoesNothing(t *testing.T) {
	f := &fakeJira{}
	c := New(newFakeJiraCatalog(f), config.DefaultThresholdsConfig(), nil)

	in := orchestrator.CorrelationInput{
		Cluster: "dev-eks", Namespace: "payments", Component: "payments", Kind: config.FindingKindCrashLoop,
		Severity: config.SeverityWarning, JiraProject: "OPS", AllowCreate: false,
	}
	out, err := c.Correlate(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.Empty(t, out.TicketKey)
}

func TestCorrelate_ExistingTicket_SignificantChangeComments(t *testing.T) {
	f := &fakeJira{}
	c := New(newFakeJiraCatalog(f), config.DefaultThresholdsConfig(), nil)
	key := stateKey(orchestrator.CorrelationInput{Cluster: "dev-eks", Namespace: "payments", Kind: config.FindingKindCrashLoop})
	c.state[key] = &dedupState{
		ref: Ref{Key: "OPS-9", URL: "http://jira/OPS-9"}, lastCommentAt: time.Now().Add(-25 * time.Hour),
		lastRestartCount: 2, lastSeverity: config.SeverityHigh, firstDetectionDone: true,
	}

	in := orchestrator.CorrelationInput{
		Cluster: "dev-eks", Namespace: "payments", Component: "payments", Kind: config.FindingKindCrashLoop,
		Severity: config.SeverityHigh, RestartCount: 15, JiraProject: "OPS", AllowCreate: true,
	}
	out, err := c.Correlate(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.CommentAdded)
	require.Len(t, f.comments, 1)
	assert.Contains(t, f.comments[0], "Change Detected")
	assert.Contains(t, f.comments[0], "sentryd-metrics")
}

func TestCorrelate_ExistingTicket_NoSignificantChangeSkipsComment(t *testing.T) {
	f := &fakeJira{}
	c := New(newFakeJiraCatalog(f), config.DefaultThresholdsConfig(), nil)
	key := stateKey(orchestrator.CorrelationInput{Cluster: "dev-eks", Namespace: "payments", Kind: config.FindingKindCrashLoop})
	c.state[key] = &dedupState{
		ref: Ref{Key: "OPS-9"}, lastCommentAt: time.Now().Add(-1 * time.Hour),
		lastRestartCount: 2, lastSeverity: config.SeverityHigh, firstDetectionDone: true,
	}

	in := orchestrator.CorrelationInput{
		Cluster: "dev-eks", Namespace: "payments", Kind: config.FindingKindCrashLoop,
		Severity: config.SeverityHigh, RestartCount: 3, JiraProject: "OPS",
	}
	out, err := c.Correlate(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, out.CommentAdded)
	assert.Empty(t, f.comments)
}

func TestCorrelate_ExistingTicket_NewErrorPatternComments(t *testing.T) {
	f := &fakeJira{}
	c := New(newFakeJiraCatalog(f), config.DefaultThresholdsConfig(), nil)
	key := stateKey(orchestrator.CorrelationInput{Cluster: "dev-eks", Namespace: "payments", Kind: config.FindingKindCrashLoop})
	c.state[key] = &dedupState{
		ref: Ref{Key: "OPS-9"}, lastCommentAt: time.Now().Add(-1 * time.Hour),
		lastRestartCount: 2, lastSeverity: config.SeverityHigh, lastErrorSignature: "sig-a", firstDetectionDone: true,
	}

	in := orchestrator.CorrelationInput{
		Cluster: "dev-eks", Namespace: "payments", Kind: config.FindingKindCrashLoop,
		Severity: config.SeverityHigh, RestartCount: 2, JiraProject: "OPS", ErrorSignature: "sig-b",
	}
	out, err := c.Correlate(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.CommentAdded)
	require.Len(t, f.comments, 1)
	assert.Contains(t, f.comments[0], "New error pattern")
}

func TestCorrelate_ExistingTicket_RemediationAttemptedComments(t *testing.T) {
	f := &fakeJira{}
	c := New(newFakeJiraCatalog(f), config.DefaultThresholdsConfig(), nil)
	key := stateKey(orchestrator.CorrelationInput{Cluster: "dev-eks", Namespace: "payments", Kind: config.FindingKindCrashLoop})
	c.state[key] = &dedupState{
		ref: Ref{Key: "OPS-9"}, lastCommentAt: time.Now().Add(-1 * time.Hour),
		lastRestartCount: 2, lastSeverity: config.SeverityCritical, firstDetectionDone: true,
	}

	in := orchestrator.CorrelationInput{
		Cluster: "dev-eks", Namespace: "payments", Kind: config.FindingKindCrashLoop,
		Severity: config.SeverityCritical, RestartCount: 2, JiraProject: "OPS", RemediationAttempted: true,
	}
	out, err := c.Correlate(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.CommentAdded)
	require.Len(t, f.comments, 1)
	assert.Contains(t, f.comments[0], "Auto-remediation attempted")
}

func TestCorrelate_ResolvedFinding_CommentsAndForgetsState(t *testing.T) {
	f := &fakeJira{}
	c := New(newFakeJiraCatalog(f), config.DefaultThresholdsConfig(), nil)
	key := stateKey(orchestrator.CorrelationInput{Cluster: "dev-eks", Namespace: "payments", Kind: config.FindingKindCrashLoop})
	c.state[key] = &dedupState{
		ref: Ref{Key: "OPS-9"}, lastCommentAt: time.Now().Add(-1 * time.Hour),
		lastRestartCount: 2, lastSeverity: config.SeverityHigh, firstDetectionDone: true,
	}

	in := orchestrator.CorrelationInput{
		Cluster: "dev-eks", Namespace: "payments", Kind: config.FindingKindCrashLoop,
		Severity: config.SeverityHigh, RestartCount: 2, JiraProject: "OPS", Resolved: true,
	}
	out, err := c.Correlate(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.CommentAdded)
	assert.Equal(t, "resolved", out.Reason)
	require.Len(t, f.comments, 1)
	assert.Contains(t, f.comments[0], "treating as resolved")

	c.mu.Lock()
	_, stillTracked := c.state[key]
	c.mu.Unlock()
	assert.False(t, stillTracked, "resolved finding should be forgotten so a recurrence starts fresh")
}

func TestCorrelate_ResolvedFinding_NoExistingTicketDoesNothing(t *testing.T) {
	f := &fakeJira{}
	c := New(newFakeJiraCatalog(f), config.DefaultThresholdsConfig(), nil)

	in := orchestrator.CorrelationInput{
		Cluster: "dev-eks", Namespace: "payments", Kind: config.FindingKindCrashLoop,
		Severity: config.SeverityHigh, JiraProject: "OPS", Resolved: true,
	}
	out, err := c.Correlate(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, out.CommentAdded)
	assert.Empty(t, f.comments)
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, "Highest", priorityFor(config.SeverityCritical))
	assert.Equal(t, "High", priorityFor(config.SeverityHigh))
	assert.Equal(t, "Medium", priorityFor(config.SeverityWarning))
	assert.Equal(t, "Low", priorityFor(config.SeverityInfo))
}
