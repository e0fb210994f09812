// Package cache provides key -> (value, expiry) stores for derived data.
// Values are JSON encoded so every store round-trips the same way.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL applies when Save is called with a non-positive ttl.
const DefaultTTL = 60 * time.Second

// Redis stores values in Redis with a per-key expiry.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client}, nil
}

// NewRedisWithClient creates a store from an existing Redis client.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// WithPrefix returns a store that namespaces every key with prefix.
func (s *Redis) WithPrefix(prefix string) *Redis {
	return &Redis{client: s.client, prefix: prefix}
}

func (s *Redis) key(k string) string {
	return s.prefix + k
}

// Load decodes the value under key into dst. It reports false when the key
// is missing or expired.
func (s *Redis) Load(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save stores value under key until ttl elapses.
func (s *Redis) Save(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.client.Set(ctx, s.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes key. Deleting a missing key is not an error.
func (s *Redis) Invalidate(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection
func (s *Redis) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
