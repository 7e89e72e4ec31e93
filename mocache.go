// Package mocache provides a write-through cache for parsed translation
// catalogs.
//
// Parsing MO files on every request is expensive. Mocache stores parsed
// catalogs in a shared key/value store under a fingerprint derived from the
// text domain and the file path, keeps a per-domain index of those
// fingerprints in a durable record, and invalidates a domain when its theme
// or plugin changes.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/mocache"
//	    "github.com/ZaguanLabs/mocache/cache"
//	    "github.com/ZaguanLabs/mocache/loader"
//	    "github.com/ZaguanLabs/mocache/record"
//	    "github.com/ZaguanLabs/mocache/registry"
//	)
//
//	func main() {
//	    store, err := cache.NewRedisStore(cache.RedisConfig{URL: "redis://localhost:6379"})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    reg := registry.New()
//	    ctrl := mocache.New(store, record.NewRedisRecord(store.Client(), ""),
//	        mocache.WithLoader(loader.NewOSLoader()),
//	        mocache.WithRegistry(reg),
//	    )
//
//	    // One unit of work per request
//	    ctx := context.Background()
//	    err = ctrl.Do(ctx, func(s *mocache.Session) error {
//	        _, err := s.Load(ctx, "my-theme", "/srv/themes/my-theme/languages/fr_FR.mo")
//	        return err
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    fmt.Println(reg.Translate("my-theme", "Hello")) // Bonjour
//	}
package mocache
