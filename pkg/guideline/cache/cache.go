// Package cache stores compiled guidelines between analysis runs.
//
// A compiled guideline depends only on the pack, the form revision and the
// form fingerprint. The key carries the pack id, a hash of the pack content,
// the revision and the fingerprint. Entries are never invalidated
// explicitly; an edited pack or a changed form produces a new key.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ustudiopd/eventlive/pkg/guideline/compiler"
)

// Cache stores compiled guidelines.
type Cache interface {
	// Get returns the cached entry; ok is false on a miss.
	Get(ctx context.Context, key string) (compiled *compiler.Compiled, ok bool, err error)

	// Set stores an entry.
	Set(ctx context.Context, key string, compiled *compiler.Compiled) error

	// Close releases resources held by the cache.
	Close() error
}

// Key builds the cache key for a compiled guideline. contentHash is
// guideline.ContentHash of the pack, so packs sharing an id (or having none)
// never share an entry.
func Key(packID, contentHash, revision, fingerprint string) string {
	return fmt.Sprintf("guideline:compiled:%s:%s:%s:%s", packID, contentHash, revision, fingerprint)
}

type memoryEntry struct {
	compiled  *compiler.Compiled
	expiresAt time.Time
	lastUsed  time.Time
}

// MemoryCache is an in-process cache with a TTL and a size bound. When full,
// the least recently used entry is evicted.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryCache creates an in-process cache. A zero ttl disables expiry; a
// non-positive maxEntries defaults to 256.
func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &MemoryCache{
		entries:    make(map[string]*memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (*compiler.Compiled, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	now := c.now()
	if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	e.lastUsed = now
	return e.compiled, true, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, compiled *compiler.Compiled) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	e := &memoryEntry{compiled: compiled, lastUsed: now}
	if c.ttl > 0 {
		e.expiresAt = now.Add(c.ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.lastUsed.Before(oldest) {
			oldestKey, oldest = k, e.lastUsed
		}
	}
	delete(c.entries, oldestKey)
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close implements Cache.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*memoryEntry)
	return nil
}
