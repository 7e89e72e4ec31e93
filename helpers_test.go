package mocache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ZaguanLabs/mocache/cache"
)

// testStore wraps an in-memory store with a configurable persistence flag
// and failure injection.
type testStore struct {
	*cache.InMemoryStore

	persistent bool
	failGet    error
	failSet    error
	failDelete error
	failExists error

	mu      sync.Mutex
	gets    int
	lastTTL time.Duration
}

func newTestStore(persistent bool) *testStore {
	return &testStore{InMemoryStore: cache.NewInMemoryStore(), persistent: persistent}
}

func (s *testStore) Persistent() bool { return s.persistent }

func (s *testStore) Get(ctx context.Context, group, key string) ([]byte, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	if s.failGet != nil {
		return nil, s.failGet
	}
	return s.InMemoryStore.Get(ctx, group, key)
}

func (s *testStore) Set(ctx context.Context, group, key string, value []byte, ttl time.Duration) error {
	if s.failSet != nil {
		return s.failSet
	}
	s.mu.Lock()
	s.lastTTL = ttl
	s.mu.Unlock()
	return s.InMemoryStore.Set(ctx, group, key, value, ttl)
}

func (s *testStore) Delete(ctx context.Context, group, key string) error {
	if s.failDelete != nil {
		return s.failDelete
	}
	return s.InMemoryStore.Delete(ctx, group, key)
}

func (s *testStore) Exists(ctx context.Context, group, key string) (bool, error) {
	if s.failExists != nil {
		return false, s.failExists
	}
	return s.InMemoryStore.Exists(ctx, group, key)
}

var errBoom = errors.New("boom")

// stubLoader serves catalogs from a map and counts parses.
type stubLoader struct {
	files map[string]*Catalog
	calls int
}

func (l *stubLoader) Load(path string) (*Catalog, error) {
	l.calls++
	c, ok := l.files[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return c, nil
}

// stubRegistry records merged catalogs.
type stubRegistry struct {
	merged map[string]*Catalog
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{merged: make(map[string]*Catalog)}
}

func (r *stubRegistry) Merge(domain string, c *Catalog) {
	r.merged[domain] = c.Merge(r.merged[domain])
}

type stubResolver map[string]string

func (r stubResolver) ResolveDomain(unit string) (string, bool) {
	d, ok := r[unit]
	return d, ok
}

func bonjour() *Catalog {
	c := NewCatalog()
	c.Headers["Language"] = "fr"
	c.Add(Entry{Singular: "Hello", Translations: []string{"Bonjour"}})
	return c
}
