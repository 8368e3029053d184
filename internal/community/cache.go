package community

import (
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a TTL-based in-memory cache namespaced by key: one entry per
// rule id, plus one entry for the index itself. It uses sync.Map for
// lock-free reads on the hot path and the same stale-while-revalidate
// shape the auth layer uses for authenticated tenant lookups: an expired
// entry is still served immediately, with a CompareAndSwap flag ensuring
// only one caller refreshes it; that caller fetches synchronously while
// the others keep receiving the stale entry.
type Cache struct {
	store sync.Map // map[string]*cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	data       []byte
	expiresAt  time.Time
	refreshing atomic.Bool
}

// NewCache creates a Cache with the given TTL (§4.7 default: 24 hours).
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// GetResult holds the outcome of a cache lookup.
type GetResult struct {
	Data         []byte
	Hit          bool
	NeedsRefresh bool
}

// Get looks up key. A fresh hit returns NeedsRefresh=false; a stale hit
// still returns the data but signals that exactly one caller should
// refresh it.
func (c *Cache) Get(key string) GetResult {
	val, ok := c.store.Load(key)
	if !ok {
		return GetResult{}
	}
	entry := val.(*cacheEntry)

	if time.Now().Before(entry.expiresAt) {
		return GetResult{Data: entry.data, Hit: true}
	}

	needsRefresh := entry.refreshing.CompareAndSwap(false, true)
	return GetResult{Data: entry.data, Hit: true, NeedsRefresh: needsRefresh}
}

// Set stores data under key with the cache's configured TTL.
func (c *Cache) Set(key string, data []byte) {
	c.store.Store(key, &cacheEntry{data: data, expiresAt: time.Now().Add(c.ttl)})
}

// Invalidate removes a single key. The manual cache-clear operation
// (Loader.ClearCache) uses Clear instead.
func (c *Cache) Invalidate(key string) {
	c.store.Delete(key)
}

// Clear removes every cached entry.
func (c *Cache) Clear() {
	c.store.Range(func(key, _ any) bool {
		c.store.Delete(key)
		return true
	})
}
