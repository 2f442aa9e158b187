// Package cache provides the per-provider TTL caches behind the fetch
// layer. Values are raw bytes (HTTP bodies or marshaled computations) so
// the in-memory store and the redis adapter behave identically.
package cache

import (
	"sync"
	"time"
)

// Store is the cache contract the fetch layer consumes. The in-memory
// TTLCache is the default; a redis adapter backs the same interface when
// REDIS_URL is configured.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
	Stats() Stats
	Stop()
}

// Stats summarizes cache behavior for debug payloads.
type Stats struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	Evictions    int64 `json:"evictions"`
	CleanupRuns  int64 `json:"cleanup_runs"`
	TotalEntries int64 `json:"total_entries"`
}

// TTLCache is an in-process cache with per-entry expiry, LRU eviction at
// capacity, and a janitor goroutine for expired entries.
type TTLCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	maxEntries int
	stats      Stats
	stopCh     chan struct{}
	stopOnce   sync.Once
}

type cacheEntry struct {
	value    []byte
	expires  time.Time
	accessed time.Time
}

// NewTTLCache builds a cache bounded at maxEntries and starts its janitor.
func NewTTLCache(maxEntries int) *TTLCache {
	c := &TTLCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Get returns the live value for key. Expired entries read as misses and
// are reaped on contact.
func (c *TTLCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		c.stats.Misses++
		return nil, false
	}
	entry.accessed = time.Now()
	c.stats.Hits++
	return entry.value, true
}

// Set stores value under key for ttl, evicting the least recently used
// entry when at capacity.
func (c *TTLCache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLRU()
	}
	now := time.Now()
	c.entries[key] = &cacheEntry{value: value, expires: now.Add(ttl), accessed: now}
}

// Delete removes key if present.
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Stats snapshots hit/miss accounting.
func (c *TTLCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.TotalEntries = int64(len(c.entries))
	return s
}

// Stop halts the janitor. Safe to call more than once.
func (c *TTLCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// evictLRU removes the least recently accessed entry. Caller holds the lock.
func (c *TTLCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.accessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.accessed
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
	}
}

func (c *TTLCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *TTLCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}
	c.stats.CleanupRuns++
}
