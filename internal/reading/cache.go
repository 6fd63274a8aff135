package reading

import "sync"

// Cache holds fetched chapter text for a single reading session, keyed by
// chapter index. Entries are never mutated in place; a refresh invalidates
// and re-fetches. There is no eviction: the cache lives only as long as the
// session and is cleared wholesale on book change.
type Cache struct {
	mu      sync.RWMutex
	entries map[int]string
}

// NewCache creates an empty chapter cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[int]string)}
}

// Get returns the cached text for a chapter index, if present.
func (c *Cache) Get(index int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	text, ok := c.entries[index]
	return text, ok
}

// Put stores chapter text under an index. Existing entries are overwritten;
// callers invalidate first when they need re-fetch semantics.
func (c *Cache) Put(index int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[index] = text
}

// Invalidate removes a single index from the cache.
func (c *Cache) Invalidate(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, index)
}

// Clear drops every entry. Called on book change and session teardown.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]string)
}

// Len returns the number of cached chapters.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
