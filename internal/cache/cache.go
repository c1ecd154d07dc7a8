// Package cache provides the in-process response cache for the chat endpoint.
//
// The cache is a latency optimization, never a correctness dependency: it is
// keyed by a fingerprint of the request shape, entries expire after a short
// TTL, and the whole table is lost on restart.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// DefaultSweepThreshold is the entry count above which Set triggers a full
// sweep of expired entries. The cache is not an LRU: with a short TTL a
// periodic sweep keeps the table small without eviction bookkeeping.
const DefaultSweepThreshold = 100

// entry is a single cached response.
type entry struct {
	value     string
	expiresAt time.Time
}

// Cache is a concurrency-safe expiring response cache.
// Writes are last-wins; entries for the same key are idempotent derivations,
// so a lost write is harmless.
type Cache struct {
	mu             sync.Mutex
	entries        map[string]entry
	sweepThreshold int

	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

// New creates an empty cache with the default sweep threshold.
func New() *Cache {
	return &Cache{
		entries:        make(map[string]entry),
		sweepThreshold: DefaultSweepThreshold,
		now:            time.Now,
	}
}

// Fingerprint derives the cache key for a chat request.
//
// History LENGTH (not content) is part of the key on purpose: a repeated
// first message in a fresh conversation hits the cache, while the same text
// sent as a follow-up (different history length) must not be served a stale
// first-turn answer.
//
// Each component is length-prefixed so no byte sequence inside a component
// can alias a component boundary.
func Fingerprint(historyLen int, message, persona, model string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d", historyLen)
	for _, part := range []string{message, persona, model} {
		fmt.Fprintf(h, "|%d:%s", len(part), part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached value for key, or ("", false) if absent or expired.
// Expired entries are removed lazily on read.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

// Set stores value under key with the given TTL.
// A TTL of zero or less disables caching for the call.
// When the table exceeds the sweep threshold, all expired entries are
// evicted opportunistically.
func (c *Cache) Set(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.entries) > c.sweepThreshold {
		for k, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}

	c.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
}

// Len reports the current number of entries, including any not yet swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
