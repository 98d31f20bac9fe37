// Package cache holds rendered project views so repeated timeline reads skip
// the database. Every write to a project invalidates its entries.
package cache

import "sync"

type Cache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func New() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[key]
	return data, ok
}

func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
}

// Invalidate drops every entry whose key ends with the given suffix. Keys are
// namespaced as "<view>:<project_id>", so passing a project id clears all of
// that project's cached views.
func (c *Cache) Invalidate(suffix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix {
			delete(c.entries, key)
		}
	}
}

func Key(view, projectID string) string {
	return view + ":" + projectID
}
