package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReport_WritesValidJSONAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	report := CycleReport{
		CycleID:    "cycle-1",
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		Findings:   []Finding{{ID: "f1", Namespace: "payments"}},
	}

	require.NoError(t, writeReport(dir, report))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cycle-1.json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, "cycle-1.json"))
	require.NoError(t, err)

	var got CycleReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "cycle-1", got.CycleID)
	assert.Len(t, got.Findings, 1)
}

func TestWriteReport_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	require.NoError(t, writeReport(dir, CycleReport{CycleID: "c2"}))

	_, err := os.Stat(filepath.Join(dir, "c2.json"))
	assert.NoError(t, err)
}
