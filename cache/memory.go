package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value     string
	expiresAt time.Time
}

// MemCache is an in-process Cache. Expired entries are evicted lazily
// on read and wholesale on Stats.
type MemCache struct {
	mu         sync.Mutex
	entries    map[string]memEntry
	defaultTTL time.Duration
	hits       int64
	misses     int64

	// now is overridable for TTL tests.
	now func() time.Time
}

// NewMemCache creates an in-memory cache. defaultTTL applies when Set
// is called with a non-positive TTL.
func NewMemCache(defaultTTL time.Duration) *MemCache {
	return &MemCache{
		entries:    make(map[string]memEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (c *MemCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		if ok {
			delete(c.entries, key)
		}
		c.misses++
		return "", ErrMiss
	}
	c.hits++
	return entry.value, nil
}

func (c *MemCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memEntry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memEntry)
	return nil
}

func (c *MemCache) Stats(ctx context.Context) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var size int64
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			continue
		}
		size += int64(len(entry.value))
	}
	return Stats{Hits: c.hits, Misses: c.misses, ItemCount: len(c.entries), SizeBytes: size}, nil
}
