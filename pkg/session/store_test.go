package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryStore_CreateAndGet(t *testing.T) {
	st := NewQueryStore(30*time.Minute, 1000)
	defer st.Close()

	s := st.Create("sys prompt", 1000)
	got, err := st.Get(s.ID)

	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
}

func TestQueryStore_GetUnknown(t *testing.T) {
	st := NewQueryStore(30*time.Minute, 1000)
	defer st.Close()

	_, err := st.Get("nonexistent")
	assert.Error(t, err)
}

func TestQueryStore_HardCapEvictsOldest(t *testing.T) {
	st := NewQueryStore(30*time.Minute, 2)
	defer st.Close()

	first := st.Create("sys", 1000)
	time.Sleep(2 * time.Millisecond)
	st.Create("sys", 1000)
	time.Sleep(2 * time.Millisecond)
	st.Create("sys", 1000) // exceeds cap, should evict `first`

	_, err := st.Get(first.ID)
	assert.Error(t, err, "oldest-by-last-used session should have been evicted")
	assert.Equal(t, StoreStats{Count: 2, Evictions: 1}, st.Stats())
}

func TestQueryStore_TTLSweep(t *testing.T) {
	st := NewQueryStore(1*time.Millisecond, 1000)
	defer st.Close()

	s := st.Create("sys", 1000)
	time.Sleep(5 * time.Millisecond)

	st.sweep()

	_, err := st.Get(s.ID)
	assert.Error(t, err, "expired session should be swept")
	assert.Equal(t, 1, st.Stats().Evictions)
}

func TestOrchestratorStore_NoTTLNoCapl(t *testing.T) {
	st := NewOrchestratorStore()
	defer st.Close()

	for i := 0; i < 10; i++ {
		st.Create("sys", 1000)
	}

	assert.Equal(t, 10, st.Stats().Count)

	// StartSweeper should be a no-op when TTL is disabled.
	st.StartSweeper(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 10, st.Stats().Count)
}

func TestStore_Delete(t *testing.T) {
	st := NewQueryStore(30*time.Minute, 1000)
	defer st.Close()

	s := st.Create("sys", 1000)
	require.NoError(t, st.Delete(s.ID))

	_, err := st.Get(s.ID)
	assert.Error(t, err)
}
