package mocache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ZaguanLabs/mocache/cache"
	"github.com/ZaguanLabs/mocache/record"
	"github.com/rs/zerolog"
)

// CacheGroup is the store group holding cached catalogs.
const CacheGroup = "mo_cache"

// Loader parses a catalog file.
type Loader interface {
	Load(path string) (*Catalog, error)
}

// DomainResolver finds the text domain declared by a theme or plugin.
type DomainResolver interface {
	ResolveDomain(unit string) (string, bool)
}

// Registry receives every catalog the controller hands out.
type Registry interface {
	Merge(domain string, c *Catalog)
}

// Controller implements the read-through/write-through protocol for
// translation catalogs. A Controller is safe for concurrent use; the
// per-request state lives in the Sessions it creates.
type Controller struct {
	store            cache.Store
	record           record.Record
	loader           Loader
	resolver         DomainResolver
	registry         Registry
	policy           Policy
	hostVersion      string
	recordName       string
	probeConcurrency int
	logger           zerolog.Logger
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithLoader sets the parser used on cache misses.
func WithLoader(l Loader) Option {
	return func(c *Controller) {
		c.loader = l
	}
}

// WithResolver sets the resolver used by OnPluginToggle.
func WithResolver(r DomainResolver) Option {
	return func(c *Controller) {
		c.resolver = r
	}
}

// WithRegistry sets the translation table loaded catalogs are merged into.
func WithRegistry(r Registry) Option {
	return func(c *Controller) {
		c.registry = r
	}
}

// WithPolicy sets the extension hooks.
func WithPolicy(p Policy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// WithHostVersion sets the version seeding the core catalog fingerprints.
func WithHostVersion(v string) Option {
	return func(c *Controller) {
		c.hostVersion = v
	}
}

// WithRecordName overrides the name of the durable domain index record.
func WithRecordName(name string) Option {
	return func(c *Controller) {
		c.recordName = name
	}
}

// WithProbeConcurrency bounds the concurrent existence probes of a flush.
func WithProbeConcurrency(n int) Option {
	return func(c *Controller) {
		c.probeConcurrency = n
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// New creates a Controller caching catalogs in store and persisting the
// domain index in rec.
func New(store cache.Store, rec record.Record, opts ...Option) *Controller {
	c := &Controller{
		store:            store,
		record:           rec,
		recordName:       IndexRecordName,
		probeConcurrency: DefaultProbeConcurrency,
		logger:           zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.store.AddGlobalGroups(CacheGroup)

	return c
}

// Begin starts a unit of work. The caller must Close the returned session.
func (c *Controller) Begin() *Session {
	return &Session{
		ctrl:  c,
		index: NewDomainIndex(c.record, c.recordName, c.logger),
	}
}

// Do runs fn inside a unit of work and flushes the domain index when fn
// returns, including on error or panic.
func (c *Controller) Do(ctx context.Context, fn func(*Session) error) (err error) {
	s := c.Begin()
	defer func() {
		err = errors.Join(err, s.Close(ctx))
	}()
	return fn(s)
}

// Key returns the fingerprint under which the catalog at path is cached.
func (c *Controller) Key(domain, path string) string {
	return DeriveKey(domain, c.policy.path(domain, path), c.policy.seed(domain), c.hostVersion)
}

// Enabled reports whether caching applies to the (domain, path) pair. By
// default it does only when the store outlives the process.
func (c *Controller) Enabled(domain, path string) bool {
	return c.policy.enabled(domain, path, c.store.Persistent())
}

// ttl resolves the time-to-live of a catalog about to be stored.
func (c *Controller) ttl(domain, path string) time.Duration {
	def := time.Duration(0)
	if c.store.Persistent() {
		def = DefaultTTL
	}
	return c.policy.ttl(domain, path, def)
}

// storedCatalog is the value written to the store. Both fields must be
// present for a cached value to be usable.
type storedCatalog struct {
	Entries map[string]Entry  `json:"entries"`
	Headers map[string]string `json:"headers"`
}

func encodeCatalog(cat *Catalog) ([]byte, error) {
	v := storedCatalog{Entries: cat.Entries, Headers: cat.Headers}
	if v.Entries == nil {
		v.Entries = map[string]Entry{}
	}
	if v.Headers == nil {
		v.Headers = map[string]string{}
	}
	return json.Marshal(v)
}

func decodeCatalog(data []byte) (*Catalog, error) {
	var v storedCatalog
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if v.Entries == nil || v.Headers == nil {
		return nil, errors.New("entries or headers missing")
	}
	return &Catalog{Entries: v.Entries, Headers: v.Headers}, nil
}
