package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StoreStats reports counters surfaced on the sessions.stats endpoint.
type StoreStats struct {
	Count     int `json:"count"`
	Evictions int `json:"evictions"`
}

// Store holds sessions in memory, keyed by ID. One Store instance is used
// for query sessions (TTL-bounded, hard-capped) and a second, separately
// configured instance backs the single persistent orchestrator session
// (TTL disabled, unbounded until the size pruner trips).
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	ttl         time.Duration // 0 disables TTL eviction
	maxSessions int           // 0 disables the hard cap
	evictions   int

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewQueryStore creates a Store for query sessions: TTL eviction from
// last_used_at, plus a hard cap on total sessions evicting the
// oldest-by-last-used when exceeded.
func NewQueryStore(ttl time.Duration, maxSessions int) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		maxSessions: maxSessions,
		stopCh:      make(chan struct{}),
	}
}

// NewOrchestratorStore creates a Store for the single persistent
// orchestrator session: no TTL, no hard cap — the size pruner is the only
// bound on its footprint.
func NewOrchestratorStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
	}
}

// Create starts a new session seeded with systemPrompt, evicting the
// oldest-by-last-used session first if the store is at its hard cap.
func (st *Store) Create(systemPrompt string, maxTokens int) *Session {
	id := uuid.New().String()
	s := NewSession(id, systemPrompt, maxTokens)

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.maxSessions > 0 && len(st.sessions) >= st.maxSessions {
		st.evictOldestLocked()
	}
	st.sessions[id] = s
	return s
}

// Get retrieves a session by ID.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return s, nil
}

// Delete removes a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	delete(st.sessions, id)
	return nil
}

// List returns a defensive snapshot of every session.
func (st *Store) List() []Session {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s.Snapshot())
	}
	return out
}

// Stats reports the current session count and cumulative evictions.
func (st *Store) Stats() StoreStats {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return StoreStats{Count: len(st.sessions), Evictions: st.evictions}
}

// evictOldestLocked removes the session with the oldest LastUsedAt.
// Caller must hold st.mu.
func (st *Store) evictOldestLocked() {
	var oldestID string
	var oldestAt time.Time

	for id, s := range st.sessions {
		lastUsed := s.Snapshot().LastUsedAt
		if oldestID == "" || lastUsed.Before(oldestAt) {
			oldestID = id
			oldestAt = lastUsed
		}
	}

	if oldestID != "" {
		delete(st.sessions, oldestID)
		st.evictions++
	}
}

// sweep evicts every session whose last_used_at is older than the TTL.
// A no-op when TTL is disabled (the orchestrator store).
func (st *Store) sweep() {
	if st.ttl <= 0 {
		return
	}

	cutoff := time.Now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	for id, s := range st.sessions {
		if s.Snapshot().LastUsedAt.Before(cutoff) {
			delete(st.sessions, id)
			st.evictions++
		}
	}
}

// StartSweeper launches the background TTL eviction sweeper, running at the
// given interval (spec requires at least once a minute for query sessions).
// A no-op for stores with TTL disabled. Stop via Close.
func (st *Store) StartSweeper(interval time.Duration) {
	if st.ttl <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				st.sweep()
			case <-st.stopCh:
				return
			}
		}
	}()

	slog.Info("Session sweeper started", "ttl", st.ttl, "interval", interval)
}

// Close stops the sweeper goroutine, if running. Safe to call more than
// once or on a store that never started a sweeper.
func (st *Store) Close() {
	st.stopOnce.Do(func() {
		close(st.stopCh)
	})
}
