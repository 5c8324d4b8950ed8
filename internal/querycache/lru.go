package querycache

import (
	"container/list"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const defaultCapacity = 1024

// LRU is an in-memory LRU cache with per-entry TTL. It is the first cache
// tier and is safe for concurrent use.
type LRU struct {
	mu     sync.Mutex
	cap    int
	ll     *list.List               // front = most-recently used
	items  map[string]*list.Element // key -> element
	now    func() time.Time
	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
}

type lruEntry struct {
	key    string
	value  []byte
	expiry time.Time // zero means no expiry
}

// NewLRU creates an LRU holding at most capacity entries.
func NewLRU(capacity int, now func() time.Time) *LRU {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &LRU{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[string]*list.Element, capacity),
		now:   now,
	}
}

// Get returns the value for key if present and not expired.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.items[key]
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	ent := el.Value.(*lruEntry)
	if c.expired(ent) {
		c.remove(el)
		c.misses.Add(1)
		return nil, false
	}
	c.ll.MoveToFront(el)
	c.hits.Add(1)
	return ent.value, true
}

// Set inserts or updates a value. ttl <= 0 means no expiration.
func (c *LRU) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}

	if el, found := c.items[key]; found {
		ent := el.Value.(*lruEntry)
		ent.value, ent.expiry = value, exp
		c.ll.MoveToFront(el)
		return
	}

	c.items[key] = c.ll.PushFront(&lruEntry{key: key, value: value, expiry: exp})
	for c.ll.Len() > c.cap {
		c.remove(c.ll.Back())
		c.evicts.Add(1)
	}
}

// Delete removes key and reports whether it was present.
func (c *LRU) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
		return true
	}
	return false
}

// DeleteFunc removes every key for which match returns true and returns the count.
func (c *LRU) DeleteFunc(match func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, el := range c.items {
		if match(key) {
			c.remove(el)
			n++
		}
	}
	return n
}

// DeletePrefix removes key and every key nested under it ("a:b" removes "a:b" and "a:b:c").
func (c *LRU) DeletePrefix(key string) int {
	return c.DeleteFunc(func(k string) bool { return under(k, key) })
}

// Clear removes every entry.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	clear(c.items)
}

// Len returns the current number of items in the cache.
func (c *LRU) Len() int {
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
func (c *LRU) Stats() LRUStats {
	return LRUStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicts.Load(),
		Size:      c.Len(),
		Capacity:  c.cap,
	}
}

// caller must hold c.mu
func (c *LRU) expired(e *lruEntry) bool {
	return !e.expiry.IsZero() && c.now().After(e.expiry)
}

// caller must hold c.mu
func (c *LRU) remove(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*lruEntry).key)
}

func under(key, prefix string) bool {
	if prefix == "" {
		return true
	}
	return key == prefix || strings.HasPrefix(key, prefix+KeySeparator)
}
