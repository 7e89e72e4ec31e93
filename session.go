package mocache

import (
	"context"
	"errors"

	"github.com/ZaguanLabs/mocache/cache"
)

// Session is one unit of work against a Controller. It owns the in-memory
// image of the domain index, which Close flushes exactly once. A Session is
// not safe for concurrent use.
type Session struct {
	ctrl   *Controller
	index  *DomainIndex
	closed bool
}

// Index returns the session's domain index.
func (s *Session) Index() *DomainIndex {
	return s.index
}

// Lookup returns the cached catalog for the (domain, path) pair. It reports
// false when caching is disabled for the pair or nothing usable is cached.
func (s *Session) Lookup(ctx context.Context, domain, path string) (*Catalog, bool) {
	if !s.ctrl.Enabled(domain, path) {
		Lookups.WithLabelValues("disabled").Inc()
		return nil, false
	}
	return s.get(ctx, domain, s.ctrl.Key(domain, path))
}

// Store caches cat for the (domain, path) pair and, for non-core domains,
// registers its fingerprint in the domain index. It reports whether the
// catalog was written.
func (s *Session) Store(ctx context.Context, domain, path string, cat *Catalog) bool {
	return s.put(ctx, domain, s.ctrl.policy.path(domain, path), s.ctrl.Key(domain, path), cat)
}

// Load makes the catalog at path available to the registry, from the cache
// when possible and by parsing the file otherwise. It reports false with a
// nil error when caching is disabled for the pair, in which case the caller
// loads the file itself. A parse failure is returned as a *LoaderError.
func (s *Session) Load(ctx context.Context, domain, path string) (bool, error) {
	c := s.ctrl
	if !c.Enabled(domain, path) {
		Lookups.WithLabelValues("disabled").Inc()
		return false, nil
	}

	if c.policy.BeforeLoad != nil {
		c.policy.BeforeLoad(domain, path)
	}

	key := c.Key(domain, path)
	if cat, ok := s.get(ctx, domain, key); ok {
		s.merge(domain, cat)
		return true, nil
	}

	if c.loader == nil {
		return false, nil
	}

	file := c.policy.path(domain, path)
	cat, err := c.loader.Load(file)
	if err != nil {
		var lerr *LoaderError
		if !errors.As(err, &lerr) {
			err = &LoaderError{Path: file, Message: "load failed", Cause: err}
		}
		return false, err
	}

	s.put(ctx, domain, file, key, cat)
	s.merge(domain, cat)
	return true, nil
}

func (s *Session) get(ctx context.Context, domain, key string) (*Catalog, bool) {
	log := s.ctrl.logger.With().Str("domain", domain).Str("key", key).Logger()

	data, err := s.ctrl.store.Get(ctx, CacheGroup, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			StoreErrors.WithLabelValues("get").Inc()
			log.Warn().Err(&CacheError{Op: "get", Message: "treating as miss", Cause: err}).Msg("Catalog cache read failed")
		}
		Lookups.WithLabelValues("miss").Inc()
		log.Debug().Msg("Catalog cache miss")
		return nil, false
	}

	cat, err := decodeCatalog(data)
	if err != nil {
		StoreErrors.WithLabelValues("decode").Inc()
		Lookups.WithLabelValues("miss").Inc()
		log.Warn().Err(err).Msg("Cached catalog unusable")
		return nil, false
	}

	Lookups.WithLabelValues("hit").Inc()
	log.Debug().Int("entries", cat.Len()).Msg("Catalog cache hit")
	return cat, true
}

// put writes cat under key. file is the rewritten catalog path, passed to
// the TTL hook.
func (s *Session) put(ctx context.Context, domain, file, key string, cat *Catalog) bool {
	c := s.ctrl
	log := c.logger.With().Str("domain", domain).Str("key", key).Logger()

	if cat == nil {
		StoreWrites.WithLabelValues("skipped").Inc()
		return false
	}

	ttl := c.ttl(domain, file)
	if ttl < 0 {
		StoreWrites.WithLabelValues("skipped").Inc()
		log.Debug().Dur("ttl", ttl).Msg("Negative TTL, catalog not cached")
		return false
	}

	data, err := encodeCatalog(cat)
	if err != nil {
		StoreWrites.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Msg("Catalog could not be encoded")
		return false
	}

	if err := c.store.Set(ctx, CacheGroup, key, data, ttl); err != nil {
		StoreErrors.WithLabelValues("set").Inc()
		StoreWrites.WithLabelValues("failed").Inc()
		log.Warn().Err(&CacheError{Op: "set", Message: "catalog not cached", Cause: err}).Msg("Catalog cache write failed")
		return false
	}

	StoreWrites.WithLabelValues("ok").Inc()
	log.Debug().Dur("ttl", ttl).Msg("Catalog cached")

	if !isDefaultDomain(domain) {
		s.index.Add(ctx, domain, key)
	}
	return true
}

func (s *Session) merge(domain string, cat *Catalog) {
	if s.ctrl.registry != nil {
		s.ctrl.registry.Merge(domain, cat)
	}
}

// Invalidate deletes every cached catalog of the given domains and drops
// them from the index. It reports whether any domain had cached catalogs.
func (s *Session) Invalidate(ctx context.Context, domains ...string) bool {
	flushed := 0
	for _, domain := range domains {
		if domain == "" {
			continue
		}
		keys, ok := s.index.Remove(ctx, domain)
		if !ok || len(keys) == 0 {
			continue
		}
		flushed++
		s.deleteKeys(ctx, keys)
		s.ctrl.logger.Info().Str("domain", domain).Int("keys", len(keys)).Msg("Invalidated cached catalogs")
	}
	return flushed > 0
}

// InvalidateAll deletes every indexed catalog and the durable index.
func (s *Session) InvalidateAll(ctx context.Context) bool {
	total := 0
	for _, keys := range s.index.Reset(ctx) {
		s.deleteKeys(ctx, keys)
		total += len(keys)
	}

	if err := s.index.Drop(ctx); err != nil {
		s.ctrl.logger.Warn().Err(err).Msg("Domain index record not deleted")
	}

	s.ctrl.logger.Info().Int("keys", total).Msg("Invalidated all cached catalogs")
	return true
}

func (s *Session) deleteKeys(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.ctrl.store.Delete(ctx, CacheGroup, key); err != nil {
			StoreErrors.WithLabelValues("delete").Inc()
			s.ctrl.logger.Warn().Err(&CacheError{Op: "delete", Message: key, Cause: err}).Msg("Cached catalog not deleted")
			continue
		}
		InvalidatedKeys.Inc()
	}
}

// OnThemeSwitch invalidates the domains of both the previous and the new theme.
func (s *Session) OnThemeSwitch(ctx context.Context, oldDomain, newDomain string) bool {
	return s.Invalidate(ctx, oldDomain, newDomain)
}

// OnPluginToggle invalidates the domain declared by a plugin that was
// activated or deactivated. It reports false when the domain cannot be resolved.
func (s *Session) OnPluginToggle(ctx context.Context, unit string) bool {
	if s.ctrl.resolver == nil {
		return false
	}
	domain, ok := s.ctrl.resolver.ResolveDomain(unit)
	if !ok || domain == "" {
		s.ctrl.logger.Debug().Str("unit", unit).Msg("Plugin text domain not resolved")
		return false
	}
	return s.Invalidate(ctx, domain)
}

// Close prunes the domain index and persists it if it was touched. Calling
// Close more than once is a no-op.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	probe := func(ctx context.Context, key string) (bool, error) {
		ok, err := s.ctrl.store.Exists(ctx, CacheGroup, key)
		if err != nil {
			StoreErrors.WithLabelValues("exists").Inc()
		}
		return ok, err
	}
	return s.index.Flush(ctx, s.ctrl.probeConcurrency, probe)
}
