package client

import (
	"encoding/json"
	"sync"
)

// Cache is an explicit response cache keyed by request signature
// (method + path). Entries hold the raw response payload of the last
// successful fetch; a failed fetch never evicts what is already there,
// so views keep rendering stale-but-present data.
type Cache struct {
	mu      sync.Mutex
	entries map[string]json.RawMessage
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]json.RawMessage)}
}

// Get returns the cached payload for a signature.
func (c *Cache) Get(signature string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[signature]
	return raw, ok
}

// Set stores the payload for a signature, replacing any previous entry.
// Last successful fetch wins.
func (c *Cache) Set(signature string, payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[signature] = payload
}

// Invalidate drops the entry for a signature. The next read for that
// signature goes to the network.
func (c *Cache) Invalidate(signature string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, signature)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
