package registry

import (
	"sync"
	"time"
)

// Cache provides in-memory caching with TTL for metadata documents.
// Failed fetches are cached too, so a missing document is requested once per TTL.
type Cache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	metadata map[string]*cacheEntry[Metadata]
}

type cacheEntry[T any] struct {
	value     T
	err       error
	expiresAt time.Time
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:      ttl,
		metadata: make(map[string]*cacheEntry[Metadata]),
	}
}

// GetMetadata returns the cached result for a metadata URL if still valid.
func (c *Cache) GetMetadata(url string) (Metadata, error, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.metadata[url]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil, false
	}
	return entry.value, entry.err, true
}

// SetMetadata caches the result of fetching a metadata URL.
func (c *Cache) SetMetadata(url string, md Metadata, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata[url] = &cacheEntry[Metadata]{
		value:     md,
		err:       err,
		expiresAt: time.Now().Add(c.ttl),
	}
}
