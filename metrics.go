package mocache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Lookups tracks catalog lookups by result ("hit", "miss", "disabled").
	Lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mocache_lookups_total",
			Help: "Total number of catalog cache lookups",
		},
		[]string{"result"},
	)

	// StoreWrites tracks catalog writes by result ("ok", "skipped", "failed").
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mocache_store_writes_total",
			Help: "Total number of catalog cache writes",
		},
		[]string{"result"},
	)

	// InvalidatedKeys tracks fingerprints deleted by invalidation.
	InvalidatedKeys = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mocache_invalidated_keys_total",
			Help: "Total number of cached catalogs removed by invalidation",
		},
	)

	// PrunedKeys tracks fingerprints dropped from the domain index because
	// the store no longer holds them.
	PrunedKeys = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mocache_pruned_keys_total",
			Help: "Total number of stale fingerprints pruned from the domain index",
		},
	)

	// StoreErrors tracks store and record failures by operation.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mocache_store_errors_total",
			Help: "Total number of catalog store and record errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "exists", "decode", "read", "write"
	)
)
