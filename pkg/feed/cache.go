package feed

import (
	"sync"
	"time"
)

// Cache is a short-lived read cache in front of the feed fetch, keyed only
// by wall-clock elapsed time and invalidated purely by expiry. It avoids
// hammering the upstream feed when ingestion is triggered repeatedly within
// the freshness window.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	items     []RawItem
	fetchedAt time.Time
}

// NewCache creates a cache with the given freshness window. The clock is
// injectable for tests; nil means time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now}
}

// Get returns the cached items while they are still fresh
func (c *Cache) Get() ([]RawItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchedAt.IsZero() || c.now().Sub(c.fetchedAt) > c.ttl {
		return nil, false
	}
	return c.items, true
}

// Put stores freshly fetched items and restarts the freshness window
func (c *Cache) Put(items []RawItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.fetchedAt = c.now()
}
