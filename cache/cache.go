// Package cache provides catalog store implementations.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Store is a grouped key-value cache with optional expiration.
type Store interface {
	// Get retrieves a value. Returns ErrNotFound if the key is absent or expired.
	Get(ctx context.Context, group, key string) ([]byte, error)

	// Set stores a value. A ttl of 0 means the value never expires.
	Set(ctx context.Context, group, key string, value []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, group, key string) error

	// Exists reports whether a key is present, regardless of its value.
	Exists(ctx context.Context, group, key string) (bool, error)

	// AddGlobalGroups marks groups as shared across every site using the
	// same backend. Stores without a notion of sites ignore it.
	AddGlobalGroups(groups ...string)

	// Persistent reports whether values survive the current process.
	Persistent() bool
}
