package cache

import (
	"strings"
	"sync"
	"time"
)

// MemoryCache is an in-process key/value store with per-entry TTL, used to
// memoize discovery/match/favorite reads. Expired entries behave exactly
// like absent ones: they count as misses and are evicted lazily on access
// or by the periodic sweeper.
//
// Keys are namespaced by convention, e.g. "matches:42:...", and invalidation
// happens by exact key or by prefix.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	hits    uint64
	misses  uint64

	// now is swappable so tests can drive expiry with a fake clock.
	now func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Stats is an observability snapshot; it has no effect on correctness.
type Stats struct {
	Size    int     `json:"size"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

// Set stores value under key, overwriting any existing entry and resetting
// its expiry. A non-positive ttl stores the entry without expiry.
func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
}

// Get returns the value for key. An absent or expired entry is a miss, not
// an error; an expired entry is removed on access.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.expired(e) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Delete removes one entry; absent keys are a no-op.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// DeletePrefix removes every entry whose key starts with prefix and returns
// how many were removed. Used for bulk invalidation, e.g. all pages under
// "matches:42" after a new match for user 42.
func (c *MemoryCache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// CleanupExpired sweeps all expired entries and returns the number removed.
// Called by the periodic sweeper; safe to call on demand.
func (c *MemoryCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Stats reports size and hit/miss counters since process start.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Size: len(c.entries), Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// StartSweeper runs CleanupExpired every interval until Stop is called.
// Lifecycle is owned by the process entry point.
func (c *MemoryCache) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanupExpired()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweeper. Safe to call multiple times.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *MemoryCache) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}
