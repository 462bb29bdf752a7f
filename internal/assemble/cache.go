package assemble

import (
	"sync"
	"time"

	"github.com/driveshelf/driveshelf/internal/metrics"
	"github.com/driveshelf/driveshelf/internal/render"
)

// ContentCache stores assembled results keyed by slug with per-entry TTL
// derived from the adapter-supplied cache policy. Entries are evicted
// lazily on read; there is no background sweep.
type ContentCache struct {
	defaultTTL int // seconds, applied when a result carries no policy

	mu      sync.Mutex
	entries map[string]cacheEntry

	now     func() time.Time // injectable for tests
	onEvict func(key string) // optional, called outside the lock
}

type cacheEntry struct {
	value     *render.Result
	createdAt time.Time
}

// NewContentCache creates a cache with the given default TTL in seconds.
func NewContentCache(defaultTTLSeconds int) *ContentCache {
	return &ContentCache{
		defaultTTL: defaultTTLSeconds,
		entries:    make(map[string]cacheEntry),
		now:        time.Now,
	}
}

// SetOnEvict registers a callback fired after an expired entry is
// dropped. Must be called before the cache is shared.
func (c *ContentCache) SetOnEvict(fn func(key string)) {
	c.onEvict = fn
}

// Get returns the cached result for key, or nil. Entries whose age
// exceeds the effective TTL are deleted and reported as absent. A TTL of
// zero or below means the entry never expires.
func (c *ContentCache) Get(key string) *render.Result {
	c.mu.Lock()

	entry, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		metrics.RecordContentCacheMiss()
		return nil
	}

	ttl := c.defaultTTL
	if entry.value.CachePolicy != nil {
		ttl = entry.value.CachePolicy.Revalidate
	}
	if ttl <= 0 {
		c.mu.Unlock()
		metrics.RecordContentCacheHit()
		return entry.value
	}

	age := c.now().Sub(entry.createdAt)
	if age > time.Duration(ttl)*time.Second {
		delete(c.entries, key)
		c.mu.Unlock()
		metrics.RecordContentCacheEviction()
		metrics.RecordContentCacheMiss()
		if c.onEvict != nil {
			c.onEvict(key)
		}
		return nil
	}

	c.mu.Unlock()
	metrics.RecordContentCacheHit()
	return entry.value
}

// Set stores a result under key, resetting its age.
func (c *ContentCache) Set(key string, value *render.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, createdAt: c.now()}
}

// Len returns the number of live entries, expired or not.
func (c *ContentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
