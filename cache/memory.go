package cache

import (
	"context"
	"sync"
	"time"
)

// cacheEntry holds a cached value with its expiration.
type cacheEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiration
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemoryStore is a thread-safe, process-local store with TTL support.
// Values do not outlive the process, so it reports itself as not persistent.
type InMemoryStore struct {
	cache  map[string]cacheEntry
	mu     sync.RWMutex
	groups map[string]bool
	now    func() time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		cache:  make(map[string]cacheEntry),
		groups: make(map[string]bool),
		now:    time.Now,
	}
}

func memoryKey(group, key string) string {
	return group + ":" + key
}

// Get retrieves a value from the store.
func (c *InMemoryStore) Get(_ context.Context, group, key string) ([]byte, error) {
	k := memoryKey(group, key)

	c.mu.RLock()
	entry, ok := c.cache[k]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if entry.expired(c.now()) {
		c.mu.Lock()
		// A Set may have replaced the entry since RUnlock.
		if cur, ok := c.cache[k]; ok && cur.expired(c.now()) {
			delete(c.cache, k)
		}
		c.mu.Unlock()
		return nil, ErrNotFound
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a value in the store.
func (c *InMemoryStore) Set(_ context.Context, group, key string, value []byte, ttl time.Duration) error {
	entry := cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[memoryKey(group, key)] = entry
	return nil
}

// Delete removes a value from the store.
func (c *InMemoryStore) Delete(_ context.Context, group, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, memoryKey(group, key))
	return nil
}

// Exists reports whether a non-expired value is stored under key.
func (c *InMemoryStore) Exists(_ context.Context, group, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[memoryKey(group, key)]
	return ok && !entry.expired(c.now()), nil
}

// AddGlobalGroups records the groups. A single process has nothing to share.
func (c *InMemoryStore) AddGlobalGroups(groups ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range groups {
		c.groups[g] = true
	}
}

// IsGlobalGroup reports whether group was registered as global.
func (c *InMemoryStore) IsGlobalGroup(group string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.groups[group]
}

// Persistent always returns false.
func (c *InMemoryStore) Persistent() bool {
	return false
}

// Len returns the number of entries in the store (including expired ones).
func (c *InMemoryStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Clear removes all entries from the store.
func (c *InMemoryStore) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

// Verify InMemoryStore implements Store
var _ Store = (*InMemoryStore)(nil)
