// ABOUTME: Thread-safe TTL cache marking interaction IDs the dispatcher has handled.
// ABOUTME: Redelivered interactions are detected here before any handler runs.

package dedupe

import (
	"sync"
	"time"
)

type entry struct {
	key  string
	seen time.Time
}

// Cache tracks recently handled interaction IDs. The gateway may redeliver
// an interaction; marking IDs here keeps dispatch idempotent without any
// handler needing its own replay logic. Expired entries are pruned inline
// on writes, so no background goroutine is needed.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	order   []entry // insertion order, oldest first
	ttl     time.Duration
	maxSize int
}

// New creates a cache. ttl should cover the gateway's token validity
// window; maxSize bounds memory under interaction bursts.
func New(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// CheckAndMark atomically reports whether key was already handled and, if
// not, marks it. Returns true for a replay.
func (c *Cache) CheckAndMark(key string) bool {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if seen, ok := c.seen[key]; ok && now.Sub(seen) < c.ttl {
		return true
	}

	c.prune(now)
	c.seen[key] = now
	c.order = append(c.order, entry{key: key, seen: now})
	return false
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// prune drops expired entries and, if still over capacity, the oldest ones.
// Must be called with mu held.
func (c *Cache) prune(now time.Time) {
	cut := 0
	for cut < len(c.order) && now.Sub(c.order[cut].seen) >= c.ttl {
		delete(c.seen, c.order[cut].key)
		cut++
	}
	for len(c.order)-cut >= c.maxSize && cut < len(c.order) {
		delete(c.seen, c.order[cut].key)
		cut++
	}
	c.order = c.order[cut:]
}
