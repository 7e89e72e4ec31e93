package mocache

import (
	"context"
	"slices"
	"sort"

	"github.com/ZaguanLabs/mocache/record"
	"github.com/rs/zerolog"
)

// IndexRecordName is the durable record holding the domain index.
const IndexRecordName = "mocache_domain_index"

// DomainIndex maps text domains to the fingerprints stored for them.
//
// The index is loaded from its durable record on first use and written back
// only by Flush. It is not safe for concurrent use; every unit of work owns
// its own image.
type DomainIndex struct {
	record  record.Record
	name    string
	logger  zerolog.Logger
	domains map[string][]string
	loaded  bool
	// unread is set when the durable record could not be read, so the
	// image holds only this unit of work's changes.
	unread bool
}

// NewDomainIndex creates an index backed by the named record.
func NewDomainIndex(rec record.Record, name string, logger zerolog.Logger) *DomainIndex {
	if name == "" {
		name = IndexRecordName
	}
	return &DomainIndex{record: rec, name: name, logger: logger}
}

func (x *DomainIndex) load(ctx context.Context) {
	if x.loaded {
		return
	}
	x.loaded = true
	x.domains = make(map[string][]string)

	var stored map[string][]string
	if _, err := x.record.Read(ctx, x.name, &stored); err != nil {
		StoreErrors.WithLabelValues("read").Inc()
		x.logger.Warn().Err(&RecordError{Name: x.name, Message: "read", Cause: err}).
			Msg("Domain index unreadable, starting empty")
		x.unread = true
		return
	}
	x.merge(stored)
}

func (x *DomainIndex) merge(stored map[string][]string) {
	for domain, keys := range stored {
		for _, k := range keys {
			if k != "" && !slices.Contains(x.domains[domain], k) {
				x.domains[domain] = append(x.domains[domain], k)
			}
		}
	}
}

// Touched reports whether the index was loaded during this unit of work.
func (x *DomainIndex) Touched() bool {
	return x.loaded
}

// Add registers key under domain. It reports false if the key was
// already registered.
func (x *DomainIndex) Add(ctx context.Context, domain, key string) bool {
	x.load(ctx)
	if slices.Contains(x.domains[domain], key) {
		return false
	}
	x.domains[domain] = append(x.domains[domain], key)
	return true
}

// Keys returns a copy of the fingerprints registered under domain.
func (x *DomainIndex) Keys(ctx context.Context, domain string) []string {
	x.load(ctx)
	return slices.Clone(x.domains[domain])
}

// Domains returns the indexed domains in sorted order.
func (x *DomainIndex) Domains(ctx context.Context) []string {
	x.load(ctx)
	out := make([]string, 0, len(x.domains))
	for d := range x.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Remove drops domain from the index and returns its fingerprints.
func (x *DomainIndex) Remove(ctx context.Context, domain string) ([]string, bool) {
	x.load(ctx)
	keys, ok := x.domains[domain]
	if ok {
		delete(x.domains, domain)
	}
	return keys, ok
}

// Reset empties the index and returns everything it held.
func (x *DomainIndex) Reset(ctx context.Context) map[string][]string {
	x.load(ctx)
	old := x.domains
	x.domains = make(map[string][]string)
	return old
}

// Prune drops every fingerprint the probe reports as gone, then every
// domain left without fingerprints. It returns the number of fingerprints
// removed.
func (x *DomainIndex) Prune(ctx context.Context, limit int, probe probeFunc) int {
	if !x.loaded {
		return 0
	}

	var all []string
	for _, keys := range x.domains {
		all = append(all, keys...)
	}
	gone := probeKeys(ctx, all, limit, probe)

	removed := 0
	for domain, keys := range x.domains {
		kept := keys[:0]
		for _, k := range keys {
			if gone[k] {
				removed++
				continue
			}
			kept = append(kept, k)
		}
		if len(kept) == 0 {
			delete(x.domains, domain)
			continue
		}
		x.domains[domain] = kept
	}
	return removed
}

// Flush prunes the index and writes it to its durable record. An index that
// was never touched is left alone. If the record could not be read on load,
// it is read again and merged first; when that read fails too the record is
// not overwritten.
func (x *DomainIndex) Flush(ctx context.Context, limit int, probe probeFunc) error {
	if !x.loaded {
		return nil
	}

	if x.unread {
		var stored map[string][]string
		if _, err := x.record.Read(ctx, x.name, &stored); err != nil {
			StoreErrors.WithLabelValues("read").Inc()
			return &RecordError{Name: x.name, Message: "read before write", Cause: err}
		}
		x.merge(stored)
		x.unread = false
	}

	if n := x.Prune(ctx, limit, probe); n > 0 {
		PrunedKeys.Add(float64(n))
		x.logger.Debug().Int("pruned", n).Msg("Pruned stale fingerprints from domain index")
	}

	if err := x.record.Write(ctx, x.name, x.domains); err != nil {
		StoreErrors.WithLabelValues("write").Inc()
		return &RecordError{Name: x.name, Message: "write", Cause: err}
	}
	return nil
}

// Drop deletes the durable record. The in-memory image is untouched.
func (x *DomainIndex) Drop(ctx context.Context) error {
	if err := x.record.Delete(ctx, x.name); err != nil {
		StoreErrors.WithLabelValues("write").Inc()
		return &RecordError{Name: x.name, Message: "delete", Cause: err}
	}
	return nil
}
