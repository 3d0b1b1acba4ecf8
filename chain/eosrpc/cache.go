package eosrpc

import (
	"sync"
	"time"
)

// cacheEntry is a cache entry with TTL.
type cacheEntry struct {
	value     *CurrencyStats
	expiresAt time.Time
}

// statsCache is a small in-memory TTL cache of currency stats.
type statsCache struct {
	entries map[string]cacheEntry

	ttl time.Duration
	mu  sync.RWMutex
}

func newStatsCache(ttl time.Duration) *statsCache {
	return &statsCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// get returns the cached stats if still valid.
func (c *statsCache) get(key string) (*CurrencyStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}

	return entry.value, true
}

// set caches stats under key.
func (c *statsCache) set(key string, stats *CurrencyStats) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, k)
		}
	}

	c.entries[key] = cacheEntry{
		value:     stats,
		expiresAt: now.Add(c.ttl),
	}
}
