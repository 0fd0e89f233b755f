// Package cache provides a size-bounded LRU cache.
package cache

import (
	"sync"
)

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

// LRU is a least-recently-used cache. OnEvict, when set, is called for
// every entry that leaves the cache, whether evicted, replaced,
// invalidated or cleared.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	data    map[K]*node[K, V]
	maxSize int
	head    *node[K, V]
	tail    *node[K, V]
	stats   Stats

	onEvict func(K, V)
}

// node is an entry of the doubly-linked recency list
type node[K comparable, V any] struct {
	key   K
	value V
	prev  *node[K, V]
	next  *node[K, V]
}

// NewLRU creates a cache holding at most maxSize entries
func NewLRU[K comparable, V any](maxSize int, onEvict func(K, V)) *LRU[K, V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU[K, V]{
		data:    make(map[K]*node[K, V]),
		maxSize: maxSize,
		stats:   Stats{MaxSize: maxSize},
		onEvict: onEvict,
	}
}

// Get retrieves a value and marks it most recently used
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.data[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	c.moveToFront(n)
	c.stats.Hits++
	return n.value, true
}

// Set stores a value, evicting the least recently used entry when full
func (c *LRU[K, V]) Set(key K, value V) {
	var evicted []*node[K, V]

	c.mu.Lock()
	if n, exists := c.data[key]; exists {
		evicted = append(evicted, &node[K, V]{key: key, value: n.value})
		n.value = value
		c.moveToFront(n)
	} else {
		if len(c.data) >= c.maxSize && c.tail != nil {
			evicted = append(evicted, c.tail)
			c.remove(c.tail)
			c.stats.Evictions++
		}
		n := &node[K, V]{key: key, value: value}
		c.addToFront(n)
		c.data[key] = n
	}
	c.mu.Unlock()

	c.notify(evicted)
}

// Invalidate removes a specific key from the cache
func (c *LRU[K, V]) Invalidate(key K) {
	var evicted []*node[K, V]

	c.mu.Lock()
	if n, ok := c.data[key]; ok {
		c.remove(n)
		evicted = append(evicted, n)
	}
	c.mu.Unlock()

	c.notify(evicted)
}

// Clear removes all entries from the cache
func (c *LRU[K, V]) Clear() {
	var evicted []*node[K, V]

	c.mu.Lock()
	for n := c.head; n != nil; n = n.next {
		evicted = append(evicted, n)
	}
	c.data = make(map[K]*node[K, V])
	c.head, c.tail = nil, nil
	c.mu.Unlock()

	c.notify(evicted)
}

// Len returns the number of cached entries
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// GetStats returns cache statistics
func (c *LRU[K, V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.data)
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

// notify runs onEvict outside the lock so callbacks may use the cache
func (c *LRU[K, V]) notify(evicted []*node[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, n := range evicted {
		c.onEvict(n.key, n.value)
	}
}

func (c *LRU[K, V]) addToFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU[K, V]) moveToFront(n *node[K, V]) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.addToFront(n)
}

func (c *LRU[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
}

func (c *LRU[K, V]) remove(n *node[K, V]) {
	c.unlink(n)
	delete(c.data, n.key)
}
