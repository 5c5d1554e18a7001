// Package cache provides TTL-tiered caching for scraped and researched
// content. Keys are content-addressed from normalized inputs so repeat
// lookups for the same route, city, or query hit the same entry.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Stats reports cache effectiveness counters and the bytes held by
// live entries.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	ItemCount int   `json:"item_count"`
	SizeBytes int64 `json:"size_bytes"`
}

// Cache stores string payloads (typically JSON) under content-addressed
// keys with per-entry TTL. Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the value for key, or ErrMiss if absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key. A non-positive ttl falls back to the
	// backend's default.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes all entries.
	Clear(ctx context.Context) error
	// Stats returns hit/miss counters, item count, and stored bytes.
	Stats(ctx context.Context) (Stats, error)
}
