package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed catalog store.
//
// Keys are laid out as <prefix><namespace>:<group>:<key>. Groups registered
// with AddGlobalGroups drop the namespace so every site sharing the Redis
// instance resolves them to the same keys.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	namespace string

	mu     sync.RWMutex
	global map[string]bool
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	KeyPrefix string // Prefix for all keys (default: "mocache:")
	Namespace string // Per-site namespace for non-global groups (optional)

	// Retry controls how the initial ping is retried (default: DefaultRetryConfig).
	Retry *RetryConfig
}

// NewRedisStore creates a new Redis store with the given configuration.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	retry := DefaultRetryConfig()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = withRetry(ctx, retry, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisStoreFromClient(client, cfg.KeyPrefix, cfg.Namespace), nil
}

// NewRedisStoreFromClient creates a RedisStore from an existing Redis client.
func NewRedisStoreFromClient(client *redis.Client, keyPrefix, namespace string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "mocache:"
	}

	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		namespace: namespace,
		global:    make(map[string]bool),
	}
}

func (c *RedisStore) fullKey(group, key string) string {
	c.mu.RLock()
	global := c.global[group]
	c.mu.RUnlock()

	if global || c.namespace == "" {
		return c.keyPrefix + group + ":" + key
	}
	return c.keyPrefix + c.namespace + ":" + group + ":" + key
}

// Get retrieves a value from Redis.
func (c *RedisStore) Get(ctx context.Context, group, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.fullKey(group, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Set stores a value in Redis.
func (c *RedisStore) Set(ctx context.Context, group, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.fullKey(group, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a value from Redis.
func (c *RedisStore) Delete(ctx context.Context, group, key string) error {
	if err := c.client.Del(ctx, c.fullKey(group, key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Exists reports whether the key is present in Redis.
func (c *RedisStore) Exists(ctx context.Context, group, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.fullKey(group, key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// AddGlobalGroups marks groups as shared across namespaces.
func (c *RedisStore) AddGlobalGroups(groups ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range groups {
		c.global[g] = true
	}
}

// Persistent always returns true.
func (c *RedisStore) Persistent() bool {
	return true
}

// Client returns the underlying Redis client.
func (c *RedisStore) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *RedisStore) Close() error {
	return c.client.Close()
}

// Ping tests the Redis connection.
func (c *RedisStore) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Verify RedisStore implements Store
var _ Store = (*RedisStore)(nil)
