package ircache

import (
	"container/list"
	"sync"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/types"
)

// MemoryCache is a process-local LRU over decoded IRDocuments (§4.12
// "Memory cache is not process-shared"), grounded on the teacher's
// semantic.LRUCache: a map into a container/list for O(1) get/set/evict,
// generalized from query-normalization entries to cache_key -> IRDocument
// and guarded by a single mutex (§5 "IR cache (memory): single mutex
// around the LRU").
type MemoryCache struct {
	maxSize int
	mu      sync.Mutex
	items   map[types.ContentHash]*list.Element
	order   *list.List
}

type memEntry struct {
	key types.ContentHash
	doc *ir.IRDocument
}

// NewMemoryCache creates an LRU holding up to maxSize entries. maxSize<=0
// falls back to a modest default rather than growing unbounded.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &MemoryCache{
		maxSize: maxSize,
		items:   make(map[types.ContentHash]*list.Element),
		order:   list.New(),
	}
}

// Get returns the cached document for key and marks it most-recently-used.
func (c *MemoryCache) Get(key types.ContentHash) (*ir.IRDocument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*memEntry).doc, true
}

// Put inserts or replaces the entry for key, evicting the least recently
// used entry if the cache is now over capacity.
func (c *MemoryCache) Put(key types.ContentHash, doc *ir.IRDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*memEntry).doc = doc
		return
	}

	elem := c.order.PushFront(&memEntry{key: key, doc: doc})
	c.items[key] = elem

	if c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*memEntry).key)
		}
	}
}

// Len reports the current number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
