package mocache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaguanLabs/mocache/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, opts ...Option) (*Controller, *testStore, *record.MemoryRecord) {
	t.Helper()
	store := newTestStore(true)
	rec := record.NewMemoryRecord()
	return New(store, rec, opts...), store, rec
}

func readIndex(t *testing.T, rec *record.MemoryRecord) map[string][]string {
	t.Helper()
	var stored map[string][]string
	_, err := rec.Read(context.Background(), IndexRecordName, &stored)
	require.NoError(t, err)
	return stored
}

func TestNew_RegistersGlobalGroup(t *testing.T) {
	_, store, _ := newTestController(t)
	assert.True(t, store.IsGlobalGroup(CacheGroup))
}

func TestSession_StoreThenLookup(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx := context.Background()
	s := ctrl.Begin()

	require.True(t, s.Store(ctx, "my-theme", "/path/en_US.mo", bonjour()))

	got, ok := s.Lookup(ctx, "my-theme", "/path/en_US.mo")
	require.True(t, ok)
	assert.Equal(t, bonjour().Entries, got.Entries)
	assert.Equal(t, map[string]string{"Language": "fr"}, got.Headers)

	_, ok = s.Lookup(ctx, "my-theme", "/path/de_DE.mo")
	assert.False(t, ok)
}

func TestSession_EmptyCatalogRoundTrip(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx := context.Background()
	s := ctrl.Begin()

	require.True(t, s.Store(ctx, "my-theme", "/empty.mo", &Catalog{}))

	got, ok := s.Lookup(ctx, "my-theme", "/empty.mo")
	require.True(t, ok, "an empty catalog is still a hit")
	assert.Equal(t, 0, got.Len())
}

func TestSession_StoreIsIdempotentInIndex(t *testing.T) {
	ctrl, _, rec := newTestController(t)
	ctx := context.Background()

	err := ctrl.Do(ctx, func(s *Session) error {
		s.Store(ctx, "my-theme", "/path/en_US.mo", bonjour())
		s.Store(ctx, "my-theme", "/path/en_US.mo", bonjour())
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{
		"my-theme": {ctrl.Key("my-theme", "/path/en_US.mo")},
	}, readIndex(t, rec))
}

func TestSession_DefaultDomainNotIndexed(t *testing.T) {
	ctrl, _, rec := newTestController(t, WithHostVersion("6.4.2"))
	ctx := context.Background()

	s := ctrl.Begin()
	assert.True(t, s.Store(ctx, DefaultDomain, "/wp/fr_FR.mo", bonjour()))
	assert.True(t, s.Store(ctx, "", "/wp/admin-fr_FR.mo", bonjour()))
	require.NoError(t, s.Close(ctx))

	assert.False(t, s.Index().Touched())
	assert.False(t, rec.Has(IndexRecordName), "index untouched, nothing persisted")

	_, ok := ctrl.Begin().Lookup(ctx, DefaultDomain, "/wp/fr_FR.mo")
	assert.True(t, ok)

	// A host upgrade changes the core fingerprints
	upgraded := New(ctrl.store, rec, WithHostVersion("6.5.0"))
	_, ok = upgraded.Begin().Lookup(ctx, DefaultDomain, "/wp/fr_FR.mo")
	assert.False(t, ok)
}

func TestSession_DisabledByDefaultOnNonPersistentStore(t *testing.T) {
	store := newTestStore(false)
	ctrl := New(store, record.NewMemoryRecord())
	ctx := context.Background()
	s := ctrl.Begin()

	assert.False(t, ctrl.Enabled("my-theme", "/p.mo"))

	// Store still writes, without expiration
	require.True(t, s.Store(ctx, "my-theme", "/p.mo", bonjour()))
	assert.Equal(t, time.Duration(0), store.lastTTL)

	_, ok := s.Lookup(ctx, "my-theme", "/p.mo")
	assert.False(t, ok, "disabled lookups always miss")
	assert.Equal(t, 0, store.gets, "disabled lookups never reach the store")
}

func TestSession_EnabledHook(t *testing.T) {
	store := newTestStore(false)
	ctrl := New(store, record.NewMemoryRecord(), WithPolicy(Policy{
		Enabled: func(domain, _ string, enabled bool) bool { return domain == "my-theme" || enabled },
	}))
	ctx := context.Background()
	s := ctrl.Begin()

	s.Store(ctx, "my-theme", "/p.mo", bonjour())
	s.Store(ctx, "my-plugin", "/p.mo", bonjour())

	_, ok := s.Lookup(ctx, "my-theme", "/p.mo")
	assert.True(t, ok)
	_, ok = s.Lookup(ctx, "my-plugin", "/p.mo")
	assert.False(t, ok)
}

func TestSession_TTL(t *testing.T) {
	tests := []struct {
		name    string
		hook    func(domain, path string, ttl time.Duration) time.Duration
		stored  bool
		wantTTL time.Duration
	}{
		{name: "default", stored: true, wantTTL: DefaultTTL},
		{
			name:    "override",
			hook:    func(_, _ string, _ time.Duration) time.Duration { return time.Hour },
			stored:  true,
			wantTTL: time.Hour,
		},
		{
			name:    "malformed override",
			hook:    func(_, _ string, _ time.Duration) time.Duration { return CoerceTTL("later") },
			stored:  true,
			wantTTL: MinimumTTL,
		},
		{
			name:   "negative disables storing",
			hook:   func(_, _ string, _ time.Duration) time.Duration { return -time.Second },
			stored: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, store, rec := newTestController(t, WithPolicy(Policy{TTL: tt.hook}))
			ctx := context.Background()
			s := ctrl.Begin()

			assert.Equal(t, tt.stored, s.Store(ctx, "my-theme", "/p.mo", bonjour()))
			require.NoError(t, s.Close(ctx))

			if tt.stored {
				assert.Equal(t, tt.wantTTL, store.lastTTL)
				assert.Len(t, readIndex(t, rec)["my-theme"], 1)
			} else {
				assert.False(t, rec.Has(IndexRecordName), "nothing stored, nothing indexed")
			}
		})
	}
}

func TestSession_WriteFailureSkipsIndex(t *testing.T) {
	ctrl, store, rec := newTestController(t)
	store.failSet = errBoom
	ctx := context.Background()

	s := ctrl.Begin()
	assert.False(t, s.Store(ctx, "my-theme", "/p.mo", bonjour()))
	require.NoError(t, s.Close(ctx))

	assert.False(t, rec.Has(IndexRecordName))
}

func TestSession_ReadFailureIsMiss(t *testing.T) {
	ctrl, store, _ := newTestController(t)
	ctx := context.Background()
	s := ctrl.Begin()

	s.Store(ctx, "my-theme", "/p.mo", bonjour())
	store.failGet = errBoom

	_, ok := s.Lookup(ctx, "my-theme", "/p.mo")
	assert.False(t, ok)
}

func TestSession_CorruptValueIsMiss(t *testing.T) {
	ctrl, store, _ := newTestController(t)
	ctx := context.Background()
	key := ctrl.Key("my-theme", "/p.mo")

	for _, raw := range []string{`not json`, `{"entries":{}}`, `{"headers":{}}`, `null`} {
		require.NoError(t, store.InMemoryStore.Set(ctx, CacheGroup, key, []byte(raw), 0))
		_, ok := ctrl.Begin().Lookup(ctx, "my-theme", "/p.mo")
		assert.False(t, ok, "value %s", raw)
	}
}

func TestSession_PathAndSeedHooks(t *testing.T) {
	ctrl, _, _ := newTestController(t, WithPolicy(Policy{
		Path: func(_, path string) string { return "/real" + path },
		Seed: func(domain string) string {
			if domain == "my-plugin" {
				return "2.0.0"
			}
			return ""
		},
	}))
	ctx := context.Background()
	s := ctrl.Begin()

	s.Store(ctx, "my-plugin", "/p.mo", bonjour())
	_, ok := s.Lookup(ctx, "my-plugin", "/p.mo")
	assert.True(t, ok, "lookup derives the same key as store")

	assert.Equal(t, DeriveKey("my-plugin", "/real/p.mo", "2.0.0", ""), ctrl.Key("my-plugin", "/p.mo"))
}

func TestSession_Load(t *testing.T) {
	loader := &stubLoader{files: map[string]*Catalog{"/path/fr_FR.mo": bonjour()}}
	reg := newStubRegistry()
	var seen []string
	ctrl, _, rec := newTestController(t,
		WithLoader(loader),
		WithRegistry(reg),
		WithPolicy(Policy{BeforeLoad: func(domain, path string) { seen = append(seen, domain+":"+path) }}),
	)
	ctx := context.Background()

	// First unit of work parses and caches
	err := ctrl.Do(ctx, func(s *Session) error {
		ok, err := s.Load(ctx, "my-theme", "/path/fr_FR.mo")
		assert.True(t, ok)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)
	assert.Len(t, readIndex(t, rec)["my-theme"], 1)

	// Second unit of work is served from the cache
	err = ctrl.Do(ctx, func(s *Session) error {
		ok, err := s.Load(ctx, "my-theme", "/path/fr_FR.mo")
		assert.True(t, ok)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls, "cached catalog is not parsed again")

	s, ok := reg.merged["my-theme"].Translate("Hello")
	assert.True(t, ok)
	assert.Equal(t, "Bonjour", s)
	assert.Equal(t, []string{"my-theme:/path/fr_FR.mo", "my-theme:/path/fr_FR.mo"}, seen)
}

func TestSession_LoadParseFailure(t *testing.T) {
	loader := &stubLoader{files: map[string]*Catalog{}}
	ctrl, _, rec := newTestController(t, WithLoader(loader))
	ctx := context.Background()
	s := ctrl.Begin()

	ok, err := s.Load(ctx, "my-theme", "/missing.mo")
	assert.False(t, ok)

	var lerr *LoaderError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "/missing.mo", lerr.Path)

	require.NoError(t, s.Close(ctx))
	assert.False(t, rec.Has(IndexRecordName))
}

func TestSession_LoadDisabled(t *testing.T) {
	loader := &stubLoader{files: map[string]*Catalog{"/p.mo": bonjour()}}
	ctrl := New(newTestStore(false), record.NewMemoryRecord(), WithLoader(loader))

	ok, err := ctrl.Begin().Load(context.Background(), "my-theme", "/p.mo")
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 0, loader.calls, "caller loads the file itself")
}

func TestSession_Invalidate(t *testing.T) {
	ctrl, store, rec := newTestController(t)
	ctx := context.Background()

	require.NoError(t, ctrl.Do(ctx, func(s *Session) error {
		s.Store(ctx, "my-theme", "/t/fr_FR.mo", bonjour())
		s.Store(ctx, "my-theme", "/t/de_DE.mo", bonjour())
		s.Store(ctx, "my-plugin", "/p/fr_FR.mo", bonjour())
		return nil
	}))

	require.NoError(t, ctrl.Do(ctx, func(s *Session) error {
		assert.True(t, s.Invalidate(ctx, "my-theme", "", "unknown"))
		assert.False(t, s.Invalidate(ctx, "my-theme"), "second invalidation is a no-op")
		return nil
	}))

	for _, path := range []string{"/t/fr_FR.mo", "/t/de_DE.mo"} {
		ok, err := store.Exists(ctx, CacheGroup, ctrl.Key("my-theme", path))
		require.NoError(t, err)
		assert.False(t, ok)
	}

	_, ok := ctrl.Begin().Lookup(ctx, "my-plugin", "/p/fr_FR.mo")
	assert.True(t, ok, "other domains are untouched")

	assert.Equal(t, map[string][]string{
		"my-plugin": {ctrl.Key("my-plugin", "/p/fr_FR.mo")},
	}, readIndex(t, rec))
}

func TestSession_InvalidateDeleteFailureStillUnindexes(t *testing.T) {
	ctrl, store, _ := newTestController(t)
	ctx := context.Background()
	s := ctrl.Begin()

	s.Store(ctx, "my-theme", "/t.mo", bonjour())
	store.failDelete = errBoom

	assert.True(t, s.Invalidate(ctx, "my-theme"))
	assert.Empty(t, s.Index().Keys(ctx, "my-theme"))
}

func TestSession_InvalidateAll(t *testing.T) {
	ctrl, _, rec := newTestController(t)
	ctx := context.Background()

	require.NoError(t, ctrl.Do(ctx, func(s *Session) error {
		s.Store(ctx, "my-theme", "/t.mo", bonjour())
		s.Store(ctx, "my-plugin", "/p.mo", bonjour())
		return nil
	}))

	require.NoError(t, ctrl.Do(ctx, func(s *Session) error {
		assert.True(t, s.InvalidateAll(ctx))
		assert.True(t, s.InvalidateAll(ctx), "idempotent")
		return nil
	}))

	s := ctrl.Begin()
	_, ok := s.Lookup(ctx, "my-theme", "/t.mo")
	assert.False(t, ok)
	_, ok = s.Lookup(ctx, "my-plugin", "/p.mo")
	assert.False(t, ok)

	assert.Empty(t, readIndex(t, rec))
}

func TestSession_OnThemeSwitch(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx := context.Background()
	s := ctrl.Begin()

	require.True(t, s.Store(ctx, "my-theme", "/path/en_US.mo", bonjour()))

	got, ok := s.Lookup(ctx, "my-theme", "/path/en_US.mo")
	require.True(t, ok)
	assert.Equal(t, "fr", got.Headers["Language"])

	assert.True(t, s.OnThemeSwitch(ctx, "my-theme", "other-theme"))

	_, ok = s.Lookup(ctx, "my-theme", "/path/en_US.mo")
	assert.False(t, ok)

	assert.False(t, s.OnThemeSwitch(ctx, "my-theme", "other-theme"))
}

func TestSession_OnThemeSwitchAfterUnreadableIndex(t *testing.T) {
	store := newTestStore(true)
	rec := &flakyRecord{Record: record.NewMemoryRecord()}
	ctrl := New(store, rec)
	ctx := context.Background()

	require.NoError(t, ctrl.Do(ctx, func(s *Session) error {
		s.Store(ctx, "my-theme", "/t/fr_FR.mo", bonjour())
		return nil
	}))

	rec.readFailures = 1
	require.NoError(t, ctrl.Do(ctx, func(s *Session) error {
		s.Store(ctx, "my-plugin", "/p/fr_FR.mo", bonjour())
		return nil
	}))

	require.NoError(t, ctrl.Do(ctx, func(s *Session) error {
		assert.True(t, s.OnThemeSwitch(ctx, "my-theme", "other-theme"))
		_, ok := s.Lookup(ctx, "my-theme", "/t/fr_FR.mo")
		assert.False(t, ok)
		_, ok = s.Lookup(ctx, "my-plugin", "/p/fr_FR.mo")
		assert.True(t, ok)
		return nil
	}))
}

func TestSession_OnPluginToggle(t *testing.T) {
	ctrl, _, _ := newTestController(t, WithResolver(stubResolver{"my-plugin/my-plugin.php": "my-plugin"}))
	ctx := context.Background()
	s := ctrl.Begin()

	s.Store(ctx, "my-plugin", "/p.mo", bonjour())

	assert.False(t, s.OnPluginToggle(ctx, "unknown/unknown.php"), "unresolvable metadata invalidates nothing")
	assert.True(t, s.OnPluginToggle(ctx, "my-plugin/my-plugin.php"))

	_, ok := s.Lookup(ctx, "my-plugin", "/p.mo")
	assert.False(t, ok)

	noResolver, _, _ := newTestController(t)
	assert.False(t, noResolver.Begin().OnPluginToggle(ctx, "my-plugin/my-plugin.php"))
}

func TestSession_ClosePrunesEvictedKeys(t *testing.T) {
	ctrl, store, rec := newTestController(t, WithProbeConcurrency(2))
	ctx := context.Background()

	require.NoError(t, ctrl.Do(ctx, func(s *Session) error {
		s.Store(ctx, "my-theme", "/t/fr_FR.mo", bonjour())
		s.Store(ctx, "my-theme", "/t/de_DE.mo", bonjour())
		s.Store(ctx, "my-plugin", "/p/fr_FR.mo", bonjour())
		return nil
	}))

	// Evict out of band
	require.NoError(t, store.Delete(ctx, CacheGroup, ctrl.Key("my-theme", "/t/fr_FR.mo")))
	require.NoError(t, store.Delete(ctx, CacheGroup, ctrl.Key("my-plugin", "/p/fr_FR.mo")))

	// Any touch of the index triggers pruning at the end of the unit of work
	require.NoError(t, ctrl.Do(ctx, func(s *Session) error {
		s.Index().Domains(ctx)
		return nil
	}))

	assert.Equal(t, map[string][]string{
		"my-theme": {ctrl.Key("my-theme", "/t/de_DE.mo")},
	}, readIndex(t, rec))
}

func TestSession_FingerprintsAreNotShared(t *testing.T) {
	ctrl, store, rec := newTestController(t)
	ctx := context.Background()

	require.NoError(t, ctrl.Do(ctx, func(s *Session) error {
		s.Store(ctx, "theme-a", "/shared/fr_FR.mo", bonjour())
		s.Store(ctx, "theme-b", "/shared/fr_FR.mo", bonjour())
		return nil
	}))

	idx := readIndex(t, rec)
	require.Len(t, idx["theme-a"], 1)
	require.Len(t, idx["theme-b"], 1)
	assert.NotEqual(t, idx["theme-a"][0], idx["theme-b"][0])

	// Evicting one domain's catalog leaves the other domain indexed
	require.NoError(t, store.Delete(ctx, CacheGroup, idx["theme-a"][0]))
	require.NoError(t, ctrl.Do(ctx, func(s *Session) error {
		s.Index().Domains(ctx)
		return nil
	}))
	assert.Equal(t, map[string][]string{"theme-b": idx["theme-b"]}, readIndex(t, rec))
}

func TestSession_ProbeErrorsKeepKeys(t *testing.T) {
	ctrl, store, rec := newTestController(t)
	ctx := context.Background()

	s := ctrl.Begin()
	s.Store(ctx, "my-theme", "/t.mo", bonjour())
	store.failExists = errBoom
	require.NoError(t, s.Close(ctx))

	assert.Len(t, readIndex(t, rec)["my-theme"], 1)
}

func TestController_DoFlushesOnError(t *testing.T) {
	ctrl, _, rec := newTestController(t)
	ctx := context.Background()

	err := ctrl.Do(ctx, func(s *Session) error {
		s.Store(ctx, "my-theme", "/t.mo", bonjour())
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, readIndex(t, rec)["my-theme"], 1)
}

func TestController_DoFlushesOnPanic(t *testing.T) {
	ctrl, _, rec := newTestController(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = ctrl.Do(ctx, func(s *Session) error {
			s.Store(ctx, "my-theme", "/t.mo", bonjour())
			panic("handler crashed")
		})
	})
	assert.Len(t, readIndex(t, rec)["my-theme"], 1)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	ctrl, _, rec := newTestController(t)
	ctx := context.Background()
	s := ctrl.Begin()

	s.Store(ctx, "my-theme", "/t.mo", bonjour())
	require.NoError(t, s.Close(ctx))
	require.NoError(t, rec.Delete(ctx, IndexRecordName))

	require.NoError(t, s.Close(ctx))
	assert.False(t, rec.Has(IndexRecordName), "second close writes nothing")
}
