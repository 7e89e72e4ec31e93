package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRecord stores records as JSON strings in Redis, without expiration.
type RedisRecord struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRecord creates a RedisRecord. An empty prefix defaults to
// "mocache:record:".
func NewRedisRecord(client *redis.Client, keyPrefix string) *RedisRecord {
	if keyPrefix == "" {
		keyPrefix = "mocache:record:"
	}
	return &RedisRecord{client: client, keyPrefix: keyPrefix}
}

// Read implements Record.
func (r *RedisRecord) Read(ctx context.Context, name string, dst any) (bool, error) {
	data, err := r.client.Get(ctx, r.keyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decoding record %q: %w", name, err)
	}
	return true, nil
}

// Write implements Record.
func (r *RedisRecord) Write(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", name, err)
	}
	if err := r.client.Set(ctx, r.keyPrefix+name, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Record.
func (r *RedisRecord) Delete(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, r.keyPrefix+name).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

var _ Record = (*RedisRecord)(nil)
