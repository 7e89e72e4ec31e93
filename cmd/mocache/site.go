package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ZaguanLabs/mocache"
	"github.com/ZaguanLabs/mocache/cache"
	"github.com/ZaguanLabs/mocache/cmd/mocache/commands"
	"github.com/ZaguanLabs/mocache/config"
	"github.com/ZaguanLabs/mocache/loader"
	"github.com/ZaguanLabs/mocache/logging"
	"github.com/ZaguanLabs/mocache/metadata"
	"github.com/ZaguanLabs/mocache/record"
	"github.com/ZaguanLabs/mocache/registry"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"
)

// site wires a Controller from the configuration. Every command runs as a
// single unit of work.
type site struct {
	ctrl     *mocache.Controller
	loader   *loader.MOLoader
	registry *registry.Registry
	logger   zerolog.Logger
	closers  []func() error
}

var _ commands.Application = (*site)(nil)

func openSite(_ context.Context, path string) (commands.Application, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logging.Setup(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: os.Stderr})
	logger := logging.NewLogger("cli")

	s := &site{
		loader:   loader.NewOSLoader(),
		registry: registry.New(),
		logger:   logger,
	}

	store, err := s.openStore(cfg)
	if err != nil {
		return nil, err
	}

	rec, err := openRecord(cfg, store)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	pluginDir := cfg.PluginDir
	if pluginDir != "" {
		if abs, err := filepath.Abs(pluginDir); err == nil {
			pluginDir = abs
		}
	}

	s.ctrl = mocache.New(store, rec,
		mocache.WithLoader(s.loader),
		mocache.WithRegistry(s.registry),
		mocache.WithResolver(metadata.NewHeaderResolver(osfs.New("/"), pluginDir)),
		mocache.WithPolicy(cfg.Policy()),
		mocache.WithHostVersion(cfg.HostVersion),
		mocache.WithProbeConcurrency(cfg.ProbeConcurrency),
		mocache.WithLogger(logging.NewLogger("controller")),
	)

	logger.Debug().Str("store", cfg.Store.Backend).Str("record", cfg.Record.Backend).Msg("Cache opened")
	return s, nil
}

func (s *site) openStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		store, err := cache.NewRedisStore(cache.RedisConfig{
			URL:       cfg.Store.RedisURL,
			KeyPrefix: cfg.Store.KeyPrefix,
			Namespace: cfg.Store.Namespace,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		return store, nil
	default:
		s.logger.Warn().Msg("Memory store does not outlive the process, caching is disabled unless forced")
		return cache.NewInMemoryStore(), nil
	}
}

func openRecord(cfg *config.Config, store cache.Store) (record.Record, error) {
	switch cfg.Record.Backend {
	case "memory":
		return record.NewMemoryRecord(), nil
	case "redis":
		rs, ok := store.(*cache.RedisStore)
		if !ok {
			return nil, errors.New("record backend redis requires the redis store")
		}
		return record.NewRedisRecord(rs.Client(), ""), nil
	default:
		return record.NewFileRecord(cfg.Record.Path), nil
	}
}

// abs resolves CLI paths against the working directory, since catalogs are
// read from a filesystem rooted at "/".
func abs(path string) string {
	if p, err := filepath.Abs(path); err == nil {
		return p
	}
	return path
}

func (s *site) Load(ctx context.Context, domain string, paths []string) (*commands.LoadResult, error) {
	err := s.ctrl.Do(ctx, func(sess *mocache.Session) error {
		for _, p := range paths {
			file := abs(p)
			ok, err := sess.Load(ctx, domain, file)
			if err != nil {
				return err
			}
			if ok {
				continue
			}

			// Caching disabled: load directly
			cat, err := s.loader.Load(file)
			if err != nil {
				return err
			}
			s.registry.Merge(domain, cat)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cat, _ := s.registry.Catalog(domain)
	res := &commands.LoadResult{Entries: cat.Len(), Locale: s.registry.Locale(domain)}
	if res.Locale != "" {
		res.Language = registry.LanguageName(res.Locale)
		res.Direction = registry.Direction(res.Locale)
	}
	return res, nil
}

func (s *site) Flush(ctx context.Context) error {
	return s.ctrl.Do(ctx, func(sess *mocache.Session) error {
		sess.InvalidateAll(ctx)
		return nil
	})
}

func (s *site) Invalidate(ctx context.Context, domains []string) (flushed bool, err error) {
	err = s.ctrl.Do(ctx, func(sess *mocache.Session) error {
		flushed = sess.Invalidate(ctx, domains...)
		return nil
	})
	return flushed, err
}

func (s *site) ThemeSwitch(ctx context.Context, oldDomain, newDomain string) (flushed bool, err error) {
	err = s.ctrl.Do(ctx, func(sess *mocache.Session) error {
		flushed = sess.OnThemeSwitch(ctx, oldDomain, newDomain)
		return nil
	})
	return flushed, err
}

func (s *site) PluginToggle(ctx context.Context, unit string) (flushed bool, err error) {
	// Existing relative paths are taken from the working directory; anything
	// else is left for the plugin directory lookup.
	if _, statErr := os.Stat(unit); statErr == nil {
		unit = abs(unit)
	}
	err = s.ctrl.Do(ctx, func(sess *mocache.Session) error {
		flushed = sess.OnPluginToggle(ctx, unit)
		return nil
	})
	return flushed, err
}

func (s *site) Export(ctx context.Context, w io.Writer, metadata map[string]string) (n int, err error) {
	err = s.ctrl.Do(ctx, func(sess *mocache.Session) error {
		n, err = mocache.NewExporter(sess).Export(ctx, w, metadata)
		return err
	})
	return n, err
}

func (s *site) Import(ctx context.Context, r io.Reader) (result *mocache.ImportResult, err error) {
	err = s.ctrl.Do(ctx, func(sess *mocache.Session) error {
		result, err = mocache.NewImporter(sess).Import(ctx, r)
		return err
	})
	return result, err
}

func (s *site) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}
