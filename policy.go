package mocache

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTTL is used when the store is persistent and no override applies.
	DefaultTTL = 12 * time.Hour

	// MinimumTTL replaces a TTL override that could not be understood.
	MinimumTTL = time.Minute
)

// Policy holds the optional extension points of the controller. Every hook
// receives the value computed by the controller and returns the value to
// use; a nil hook keeps the computed value.
type Policy struct {
	// Enabled decides whether caching applies to a (domain, path) pair.
	Enabled func(domain, path string, enabled bool) bool

	// TTL overrides the time-to-live of a stored catalog. A negative
	// duration means the catalog is not stored at all.
	TTL func(domain, path string, ttl time.Duration) time.Duration

	// Seed supplies the invalidation seed for a domain, typically the
	// version of the theme or plugin that owns it.
	Seed func(domain string) string

	// Path rewrites the catalog path before the fingerprint is derived.
	Path func(domain, path string) string

	// BeforeLoad is notified before every managed catalog load.
	BeforeLoad func(domain, path string)
}

func (p Policy) enabled(domain, path string, def bool) bool {
	if p.Enabled == nil {
		return def
	}
	return p.Enabled(domain, path, def)
}

func (p Policy) ttl(domain, path string, def time.Duration) time.Duration {
	if p.TTL == nil {
		return def
	}
	return p.TTL(domain, path, def)
}

func (p Policy) seed(domain string) string {
	if p.Seed == nil {
		return ""
	}
	return p.Seed(domain)
}

func (p Policy) path(domain, path string) string {
	if p.Path == nil {
		return path
	}
	return p.Path(domain, path)
}

// CoerceBool interprets a loosely typed flag. Values that are not
// recognisably true are false.
func CoerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "true", "on", "yes":
			return true
		}
	case int:
		return b == 1
	case int64:
		return b == 1
	case float64:
		return b == 1
	}
	return false
}

// CoerceTTL interprets a loosely typed TTL. Integers are seconds, strings
// may be integers or Go durations ("90m"). Anything else, including
// fractional or out of range numbers, yields MinimumTTL.
func CoerceTTL(v any) time.Duration {
	switch n := v.(type) {
	case time.Duration:
		return n
	case int:
		return time.Duration(n) * time.Second
	case int64:
		return time.Duration(n) * time.Second
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < math.MaxInt32 {
			return time.Duration(n) * time.Second
		}
	case string:
		s := strings.TrimSpace(n)
		if secs, err := strconv.ParseInt(s, 10, 32); err == nil {
			return time.Duration(secs) * time.Second
		}
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return MinimumTTL
}

// CoerceSeed interprets a loosely typed seed. Non-strings yield "".
func CoerceSeed(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
