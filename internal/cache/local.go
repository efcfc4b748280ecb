package cache

import (
	"context"
	"sync"
	"time"
)

// LocalCache is an in-process fallback used when no Redis is configured.
// Entries expire lazily on read.
type LocalCache struct {
	mu      sync.RWMutex
	entries map[string]localEntry
	ttl     time.Duration
}

type localEntry struct {
	response  string
	expiresAt time.Time
}

// NewLocalCache builds an in-process cache with the given TTL.
func NewLocalCache(ttl time.Duration) *LocalCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LocalCache{entries: make(map[string]localEntry), ttl: ttl}
}

// Get returns the cached response for the pair, if any.
func (c *LocalCache) Get(_ context.Context, userID, message string) (string, bool) {
	key := cacheKey(userID, message)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false
	}
	return entry.response, true
}

// Set stores the response under the pair's key.
func (c *LocalCache) Set(_ context.Context, userID, message, response string) {
	c.mu.Lock()
	c.entries[cacheKey(userID, message)] = localEntry{
		response:  response,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}
