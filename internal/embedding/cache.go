package embedding

import (
	"container/list"
	"sync"
)

// Cache is an LRU cache for embeddings keyed by the exact input text.
// A capacity of zero or less disables caching entirely.
type Cache struct {
	capacity int
	entries  map[string]*list.Element
	order    *list.List
	mu       sync.Mutex
}

type cacheItem struct {
	text   string
	vector []float32
}

// NewCache creates an LRU cache holding up to capacity embeddings.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached embedding for text, marking it most recently used.
func (c *Cache) Get(text string) ([]float32, bool) {
	if c.capacity <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[text]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheItem).vector, true
}

// Put stores the embedding for text, evicting the least recently used entry
// when full.
func (c *Cache) Put(text string, vector []float32) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[text]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheItem).vector = vector
		return
	}
	c.entries[text] = c.order.PushFront(&cacheItem{text: text, vector: vector})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheItem).text)
	}
}

// Len returns the number of cached embeddings.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
