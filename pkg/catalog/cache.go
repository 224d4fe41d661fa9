package catalog

import (
	"sync"
	"time"
)

// MetricCacheTTL bounds how long a metrics-query result is reused before
// the adapter must re-fetch: identical (metric, time_window) lookups
// within this window are served from cache rather than re-queried.
const MetricCacheTTL = 5 * time.Minute

// MetricCache is a small TTL-keyed cache shared by the AWS and Datadog
// adapters. Keys are adapter-defined (typically "metric|window"); values
// are pre-serialized Results so cache hits skip re-marshalling too.
type MetricCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	result    Result
	expiresAt time.Time
}

func NewMetricCache(ttl time.Duration) *MetricCache {
	if ttl <= 0 {
		ttl = MetricCacheTTL
	}
	return &MetricCache{entries: make(map[string]cacheEntry), ttl: ttl}
}

// Get returns a cached Result (marked Cached: true) if present and not
// expired.
func (c *MetricCache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return Result{}, false
	}
	r := e.result
	r.Cached = true
	return r, true
}

// Put stores a fresh (uncached) Result under key for the cache's TTL.
func (c *MetricCache) Put(key string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
}
