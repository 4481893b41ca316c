package services

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	scope     string
	value     []byte
	expiresAt time.Time
}

// purgeInterval is how often Set sweeps out expired entries.
const purgeInterval = time.Minute

// MemoryCache is the default per-process ResponseCache.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	now        func() time.Time
	lastPurged time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.entries[key]
	if !ok {
		return nil, false, nil
	}
	// never serve past expiry
	if !mc.now().Before(e.expiresAt) {
		delete(mc.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (mc *MemoryCache) Set(_ context.Context, key, scope string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	if now.Sub(mc.lastPurged) >= purgeInterval {
		mc.purgeLocked(now)
		mc.lastPurged = now
	}

	mc.entries[key] = cacheEntry{
		scope:     scope,
		value:     value,
		expiresAt: now.Add(ttl),
	}
	return nil
}

func (mc *MemoryCache) InvalidateScope(_ context.Context, scope string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for k, e := range mc.entries {
		if e.scope == scope {
			delete(mc.entries, k)
		}
	}
	return nil
}

func (mc *MemoryCache) Clear(_ context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.entries = make(map[string]cacheEntry)
	return nil
}

// Purge drops expired entries. Set also does this at most once per purgeInterval,
// so keys that are never read again don't pile up.
func (mc *MemoryCache) Purge() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.purgeLocked(mc.now())
}

func (mc *MemoryCache) purgeLocked(now time.Time) int {
	removed := 0
	for k, e := range mc.entries {
		if !now.Before(e.expiresAt) {
			delete(mc.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.entries)
}
