// Package cache provides the small TTL caches that back metadata and
// network lookups. Reads never mutate the cache; expired entries stay
// stored until a sweep removes them, so repeated lookups inside one
// sweep interval stay cheap and deterministic.
package cache

import (
	"log"
	"sort"
	"time"
)

// Class selects the lifetime applied to an entry.
type Class int

const (
	// ClassMetadata covers parsed attribute documents and derived
	// georeferencing results.
	ClassMetadata Class = iota
	// ClassNetwork covers raw remote fetches and existence probes,
	// which go stale faster than parsed metadata.
	ClassNetwork
)

const (
	MetadataTTL = 5 * time.Minute
	NetworkTTL  = MetadataTTL / 2

	// DefaultCeiling bounds the number of stored entries.
	DefaultCeiling = 1000
)

func (c Class) ttl() time.Duration {
	if c == ClassNetwork {
		return NetworkTTL
	}
	return MetadataTTL
}

type entry[V any] struct {
	value     V
	class     Class
	createdAt time.Time
}

// Cache is a keyed TTL cache. It is not safe for concurrent use; the
// driver model is single threaded and callers serialize access.
type Cache[V any] struct {
	entries map[string]entry[V]
	ceiling int
	verbose bool
	ttls    [2]time.Duration

	now func() time.Time
}

func New[V any](ceiling int, verbose bool) *Cache[V] {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ceiling: ceiling,
		verbose: verbose,
		now:     time.Now,
	}
}

// SetTTL overrides the lifetime applied to one entry class. Zero or
// negative restores the built-in lifetime.
func (c *Cache[V]) SetTTL(class Class, ttl time.Duration) {
	if class == ClassMetadata || class == ClassNetwork {
		c.ttls[class] = ttl
	}
}

func (c *Cache[V]) ttlFor(class Class) time.Duration {
	if class == ClassMetadata || class == ClassNetwork {
		if ttl := c.ttls[class]; ttl > 0 {
			return ttl
		}
	}
	return class.ttl()
}

// Get reports the cached value for key. An expired entry is a miss but
// is not removed; only Put and Sweep change what is stored.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.createdAt) > c.ttlFor(e.class) {
		if c.verbose {
			log.Printf("cache: stale entry for %v", key)
		}
		return zero, false
	}
	return e.value, true
}

// Put stores value under key. When the cache is full and key is new,
// the oldest entry is evicted first.
func (c *Cache[V]) Put(key string, value V, class Class) {
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.ceiling {
		c.evictOldest(len(c.entries) - c.ceiling + 1)
	}
	c.entries[key] = entry[V]{value: value, class: class, createdAt: c.now()}
}

// Sweep removes expired entries, then evicts oldest-first until the
// cache fits under its ceiling. It returns the number of entries
// removed.
func (c *Cache[V]) Sweep() int {
	removed := 0
	now := c.now()
	for key, e := range c.entries {
		if now.Sub(e.createdAt) > c.ttlFor(e.class) {
			delete(c.entries, key)
			removed++
		}
	}
	if over := len(c.entries) - c.ceiling; over > 0 {
		removed += c.evictOldest(over)
	}
	if c.verbose && removed > 0 {
		log.Printf("cache: swept %d entries, %d remain", removed, len(c.entries))
	}
	return removed
}

func (c *Cache[V]) evictOldest(n int) int {
	if n <= 0 {
		return 0
	}
	type aged struct {
		key string
		at  time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for key, e := range c.entries {
		all = append(all, aged{key, e.createdAt})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].at.Equal(all[j].at) {
			return all[i].key < all[j].key
		}
		return all[i].at.Before(all[j].at)
	})
	if n > len(all) {
		n = len(all)
	}
	for _, a := range all[:n] {
		delete(c.entries, a.key)
	}
	return n
}

func (c *Cache[V]) Len() int { return len(c.entries) }

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	c.entries = make(map[string]entry[V])
}
