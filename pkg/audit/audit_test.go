package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_AppendWritesNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.ndjson")
	l, err := Open(path)
	require.NoError(t, err)

	l.Append(Entry{Tool: "delete_pod", ArgHash: HashArgs([]byte(`{"name":"x"}`)), Decision: DecisionDeny, Reason: "system namespace"})
	l.Append(Entry{Tool: "list_pods", ArgHash: HashArgs([]byte(`{}`)), Decision: DecisionAllow, Reason: "read tool"})
	require.NoError(t, l.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []Entry
	for scanner.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		lines = append(lines, e)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, DecisionDeny, lines[0].Decision)
	assert.Equal(t, "delete_pod", lines[0].Tool)
}

func TestHashArgs_DoesNotLeakRawArgs(t *testing.T) {
	hash := HashArgs([]byte(`{"secret":"sensitive-value"}`))
	assert.NotContains(t, hash, "sensitive-value")
	assert.Len(t, hash, 64)
}
