package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultTTL is how long an entry stays readable after insertion.
	DefaultTTL = 30 * time.Minute

	// DefaultMaxEntries bounds the number of resident entries.
	DefaultMaxEntries = 500

	// evictFraction of the resident entries is dropped when the cache is full.
	evictFraction = 0.1
)

// cacheEntry holds a cached value with its insertion time.
type cacheEntry struct {
	key        string
	value      string
	insertedAt time.Time
}

// MemoryConfig holds configuration for the in-memory cache.
type MemoryConfig struct {
	Name       string           // Metrics label, defaults to DefaultName
	TTL        time.Duration    // Entry lifetime; 0 or negative disables expiry
	MaxEntries int              // Capacity; 0 or negative means unbounded
	Now        func() time.Time // Clock, defaults to time.Now
}

// DefaultMemoryConfig returns the 30 minute, 500 entry configuration.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		TTL:        DefaultTTL,
		MaxEntries: DefaultMaxEntries,
	}
}

// MemoryCache is a thread-safe, bounded in-memory cache with TTL support.
//
// Entries are kept in insertion order. When a new key arrives at capacity
// the oldest 10% (at least one) are evicted first. Reads do not change the
// order; overwriting a key counts as a fresh insertion.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = oldest
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	hits, misses, evictions prometheus.Counter
	resident                prometheus.Gauge
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache(cfg MemoryConfig) *MemoryCache {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	name := cfg.Name
	if name == "" {
		name = DefaultName
	}
	return &MemoryCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		now:        now,
		hits:       cacheHits.WithLabelValues(layerMemory, name),
		misses:     cacheMisses.WithLabelValues(layerMemory, name),
		evictions:  cacheEvictions.WithLabelValues(name),
		resident:   cacheEntries.WithLabelValues(name),
	}
}

// Get retrieves a value from the cache.
// Returns the value and true if found and not expired, empty string and false otherwise.
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses.Inc()
		return "", false
	}

	entry := el.Value.(*cacheEntry)
	if c.expired(entry, c.now()) {
		c.remove(el)
		c.misses.Inc()
		return "", false
	}

	c.hits.Inc()
	return entry.value, true
}

// Set stores a value in the cache, evicting the oldest entries first if the
// cache is full.
func (c *MemoryCache) Set(key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}

	c.purgeExpired(now)

	if c.maxEntries > 0 && c.order.Len() >= c.maxEntries {
		n := int(float64(c.order.Len()) * evictFraction)
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			c.remove(c.order.Front())
		}
		c.evictions.Add(float64(n))
	}

	c.entries[key] = c.order.PushBack(&cacheEntry{
		key:        key,
		value:      value,
		insertedAt: now,
	})
	c.resident.Set(float64(c.order.Len()))
	return nil
}

// expired must be called with the lock held.
func (c *MemoryCache) expired(e *cacheEntry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.insertedAt) > c.ttl
}

// purgeExpired drops expired entries from the front. Insertion order is
// also timestamp order, so it stops at the first fresh entry.
func (c *MemoryCache) purgeExpired(now time.Time) {
	for el := c.order.Front(); el != nil; el = c.order.Front() {
		if !c.expired(el.Value.(*cacheEntry), now) {
			return
		}
		c.remove(el)
	}
}

// remove must be called with the lock held.
func (c *MemoryCache) remove(el *list.Element) {
	entry := c.order.Remove(el).(*cacheEntry)
	delete(c.entries, entry.key)
}

// Len returns the number of resident entries (including expired ones not
// yet purged).
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns the resident keys, oldest first.
func (c *MemoryCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*cacheEntry).key)
	}
	return keys
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.resident.Set(0)
}

// Entries returns all non-expired entries as key-value pairs.
// This is used for cache export.
func (c *MemoryCache) Entries() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]string, c.order.Len())
	now := c.now()

	for el := c.order.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*cacheEntry)
		if c.expired(entry, now) {
			continue
		}
		result[entry.key] = entry.value
	}

	return result
}

// Verify MemoryCache implements TranslationCache
var _ TranslationCache = (*MemoryCache)(nil)
