package mocache

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultProbeConcurrency bounds the number of concurrent existence probes
// run while pruning the domain index.
const DefaultProbeConcurrency = 8

// probeFunc reports whether key is still present in the store.
type probeFunc func(ctx context.Context, key string) (bool, error)

// probeKeys runs probe for every unique key with at most limit probes in
// flight and returns the keys that are gone. A key whose probe fails is
// treated as present.
func probeKeys(ctx context.Context, keys []string, limit int, probe probeFunc) map[string]bool {
	if len(keys) == 0 {
		return map[string]bool{}
	}
	if limit <= 0 {
		limit = DefaultProbeConcurrency
	}

	unique := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		unique[k] = struct{}{}
	}

	var (
		mu   sync.Mutex
		gone = make(map[string]bool)
	)

	var g errgroup.Group
	g.SetLimit(limit)

	for key := range unique {
		key := key
		g.Go(func() error {
			present, err := probe(ctx, key)
			if err != nil || present {
				return nil
			}
			mu.Lock()
			gone[key] = true
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	return gone
}
