// internal/cache/lru.go
//
// Small least-recently-used cache.
//
// Context
// -------
// The session store keeps one entry per visitor cookie and bounds the table
// with this LRU.  Recency order doubles as idle order, so the sweeper only
// has to look at the tail: Oldest reports the least recently touched entry
// and RemoveOldest drops it.
//
// Notes
// -----
// • Not safe for concurrent use.  Callers hold their own lock.
// • OnEvict fires for capacity evictions and explicit removals, never for
//   in-place updates.
package cache

import "container/list"

// LRU is a generic least-recently-used cache.
type LRU[K comparable, V any] struct {
	cap  int
	ll   *list.List
	dict map[K]*list.Element

	// OnEvict, when set, is called after an entry leaves the cache.
	OnEvict func(key K, val V)
}

type pair[K comparable, V any] struct {
	key K
	val V
}

// New returns an LRU with the given capacity.  Panics on cap < 1.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU[K, V]{
		cap:  capacity,
		ll:   list.New(),
		dict: make(map[K]*list.Element, capacity),
	}
}

// Get retrieves a value and marks it MRU.
func (c *LRU[K, V]) Get(key K) (val V, ok bool) {
	if ele, hit := c.dict[key]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(pair[K, V]).val, true
	}
	return val, false
}

// Peek retrieves a value without touching recency.
func (c *LRU[K, V]) Peek(key K) (val V, ok bool) {
	if ele, hit := c.dict[key]; hit {
		return ele.Value.(pair[K, V]).val, true
	}
	return val, false
}

// Add inserts or updates a value.  Returns true when an older entry was
// evicted to make room.
func (c *LRU[K, V]) Add(key K, val V) (evicted bool) {
	if ele, hit := c.dict[key]; hit {
		ele.Value = pair[K, V]{key, val}
		c.ll.MoveToFront(ele)
		return false
	}
	ele := c.ll.PushFront(pair[K, V]{key, val})
	c.dict[key] = ele
	if c.ll.Len() > c.cap {
		c.removeElement(c.ll.Back())
		return true
	}
	return false
}

// Remove drops key.  Reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	if ele, hit := c.dict[key]; hit {
		c.removeElement(ele)
		return true
	}
	return false
}

// Oldest returns the least recently used entry without touching it.
func (c *LRU[K, V]) Oldest() (key K, val V, ok bool) {
	ele := c.ll.Back()
	if ele == nil {
		return key, val, false
	}
	p := ele.Value.(pair[K, V])
	return p.key, p.val, true
}

// RemoveOldest drops the least recently used entry.
func (c *LRU[K, V]) RemoveOldest() (key K, val V, ok bool) {
	ele := c.ll.Back()
	if ele == nil {
		return key, val, false
	}
	p := ele.Value.(pair[K, V])
	c.removeElement(ele)
	return p.key, p.val, true
}

// Len reports current size.
func (c *LRU[K, V]) Len() int { return c.ll.Len() }

func (c *LRU[K, V]) removeElement(ele *list.Element) {
	c.ll.Remove(ele)
	p := ele.Value.(pair[K, V])
	delete(c.dict, p.key)
	if c.OnEvict != nil {
		c.OnEvict(p.key, p.val)
	}
}
