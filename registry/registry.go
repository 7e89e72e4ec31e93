// Package registry holds the process-wide translation table, one merged
// catalog per text domain.
package registry

import (
	"sort"
	"sync"

	"github.com/ZaguanLabs/mocache"
)

// Registry is a thread-safe table of catalogs keyed by text domain.
type Registry struct {
	mu       sync.RWMutex
	catalogs map[string]*mocache.Catalog
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{catalogs: make(map[string]*mocache.Catalog)}
}

// Merge adds c to the domain's catalog. Entries and headers of c replace
// existing ones with the same key; everything else is kept.
func (r *Registry) Merge(domain string, c *mocache.Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalogs[domain] = c.Merge(r.catalogs[domain])
}

// Catalog returns the merged catalog of a domain.
func (r *Registry) Catalog(domain string) (*mocache.Catalog, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.catalogs[domain]
	return c, ok
}

// Translate looks msgid up in the domain's catalog, returning msgid itself
// when no translation is loaded.
func (r *Registry) Translate(domain, msgid string) string {
	return r.TranslateContext(domain, "", msgid)
}

// TranslateContext is Translate for a message with a context.
func (r *Registry) TranslateContext(domain, context, msgid string) string {
	c, ok := r.Catalog(domain)
	if !ok {
		return msgid
	}
	if s, ok := c.TranslateContext(context, msgid); ok {
		return s
	}
	return msgid
}

// Unload forgets a domain. It reports whether the domain was loaded.
func (r *Registry) Unload(domain string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.catalogs[domain]
	delete(r.catalogs, domain)
	return ok
}

// Domains returns the loaded domains in sorted order.
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.catalogs))
	for d := range r.catalogs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

var _ mocache.Registry = (*Registry)(nil)
