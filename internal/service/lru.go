package service

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// LRU is a small in-memory LRU with a sliding idle TTL per entry.
// Every successful lookup pushes the entry's expiry forward.
// Concurrency: methods are safe for concurrent use.
type LRU[V any] struct {
	mu     sync.Mutex
	cap    int
	ttl    time.Duration
	ll     *list.List               // front = most-recently used
	items  map[string]*list.Element // key -> element
	now    func() time.Time
	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
}

type lruEntry[V any] struct {
	key    string
	value  V
	expiry time.Time // zero means no expiry
}

// LRUConfig groups constructor options.
type LRUConfig struct {
	Capacity int
	IdleTTL  time.Duration // <= 0 disables idle expiry
	Now      func() time.Time
}

// NewLRU creates an LRU. Capacity defaults to 1024.
func NewLRU[V any](cfg LRUConfig) *LRU[V] {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1024
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &LRU[V]{
		cap:   capacity,
		ttl:   cfg.IdleTTL,
		ll:    list.New(),
		items: make(map[string]*list.Element, min(capacity, 4096)),
		now:   nowFn,
	}
}

// Get returns the value for key if present and not idle-expired.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return ent.value, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// GetOrCreate returns the live value for key, creating it with create when absent.
// create runs under the cache lock and must not block.
func (c *LRU[V]) GetOrCreate(key string, create func() V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return ent.value, false
	}
	c.misses.Add(1)

	v := create()
	el := c.ll.PushFront(&lruEntry[V]{key: key, value: v, expiry: c.expiry()})
	c.items[key] = el
	c.evictIfNeeded()
	return v, true
}

// Set inserts or replaces the value for key.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, found := c.items[key]; found {
		ent := el.Value.(*lruEntry[V])
		ent.value = value
		ent.expiry = c.expiry()
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&lruEntry[V]{key: key, value: value, expiry: c.expiry()})
	c.items[key] = el
	c.evictIfNeeded()
}

// Delete removes a key from the cache.
func (c *LRU[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
		return true
	}
	return false
}

// Sweep drops every idle-expired entry and returns how many were removed.
func (c *LRU[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	// Expiry only moves forward on use, so scanning from the back is enough
	// to find every stale entry; stop at the first live one.
	for el := c.ll.Back(); el != nil; {
		prev := el.Prev()
		ent := el.Value.(*lruEntry[V])
		if !c.isExpired(ent) {
			break
		}
		c.removeElement(el)
		removed++
		el = prev
	}
	return removed
}

// Len returns the current number of items in the cache.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// LRUStats are simple counters for observability.
type LRUStats struct {
	Hits, Misses, Evictions uint64
	Size, Capacity          int
}

// Stats returns a snapshot of counters and sizes.
func (c *LRU[V]) Stats() LRUStats {
	return LRUStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicts.Load(),
		Size:      c.Len(),
		Capacity:  c.cap,
	}
}

// Helpers (caller must hold c.mu).
func (c *LRU[V]) lookup(key string) (*lruEntry[V], bool) {
	el, found := c.items[key]
	if !found {
		return nil, false
	}
	ent := el.Value.(*lruEntry[V])
	if c.isExpired(ent) {
		c.removeElement(el)
		return nil, false
	}
	ent.expiry = c.expiry()
	c.ll.MoveToFront(el)
	return ent, true
}

func (c *LRU[V]) expiry() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}

func (c *LRU[V]) isExpired(e *lruEntry[V]) bool {
	if e.expiry.IsZero() {
		return false
	}
	return c.now().After(e.expiry)
}

func (c *LRU[V]) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*lruEntry[V]).key)
}

func (c *LRU[V]) evictIfNeeded() {
	for c.ll.Len() > c.cap {
		el := c.ll.Back()
		if el == nil {
			return
		}
		c.removeElement(el)
		c.evicts.Add(1)
	}
}
