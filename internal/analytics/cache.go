package analytics

import (
	"sync"
	"time"

	"github.com/dgnsrekt/trade-analytics-api/internal/gamma"
)

type snapshotEntry struct {
	exposure *gamma.Exposure
	expires  time.Time
}

// SnapshotCache holds computed exposures per symbol for a fixed TTL so
// bursts of requests for the same symbol reuse one computation. A zero TTL
// disables caching entirely.
type SnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]snapshotEntry
	ttl     time.Duration
}

func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		entries: make(map[string]snapshotEntry),
		ttl:     ttl,
	}
}

// Get returns the cached exposure for a symbol, or nil when missing or
// expired. Expired entries are dropped lazily on the next Put.
func (c *SnapshotCache) Get(symbol string) *gamma.Exposure {
	if c.ttl <= 0 {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[symbol]
	if !ok || time.Now().After(entry.expires) {
		return nil
	}
	return entry.exposure
}

func (c *SnapshotCache) Put(symbol string, exposure *gamma.Exposure) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}

	c.entries[symbol] = snapshotEntry{
		exposure: exposure,
		expires:  now.Add(c.ttl),
	}
}

// Reset drops all cached snapshots and returns how many were held.
func (c *SnapshotCache) Reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.entries)
	c.entries = make(map[string]snapshotEntry)
	return count
}

// Len reports the number of cached snapshots, expired or not.
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
