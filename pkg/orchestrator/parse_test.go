package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/sentryd/pkg/config"
)

func TestParseFindings_ExtractsArrayFromFencedText(t *testing.T) {
	now := time.Now()
	text := "Here is what I found:\n```json\n[\n" +
		`{"severity":"high","namespace":"payments","workload":"api","kind":"crash_loop","evidence":["restarting"],"restart_count":7}` +
		"\n]\n```"

	findings, err := parseFindings("dev-eks", text, now)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, config.SeverityHigh, f.Severity)
	assert.Equal(t, "payments", f.Namespace)
	assert.Equal(t, "api", f.Workload)
	assert.Equal(t, config.FindingKindCrashLoop, f.Kind)
	assert.Equal(t, 7, f.RestartCount)
	assert.Equal(t, "dev-eks", f.Cluster)
	assert.NotEmpty(t, f.ID)
}

func TestParseFindings_NoArrayIsError(t *testing.T) {
	_, err := parseFindings("dev-eks", "everything looks healthy", time.Now())
	assert.Error(t, err)
}

func TestNormalizeSeverity_UnknownFallsBackToInfo(t *testing.T) {
	assert.Equal(t, config.SeverityInfo, normalizeSeverity("urgent"))
}

func TestNormalizeKind_UnknownFallsBackToOther(t *testing.T) {
	assert.Equal(t, config.FindingKindOther, normalizeKind("weird thing"))
}
