package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStoreConfig describes the Redis connection for a shared store.
type RedisStoreConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	// TTL bounds entry lifetime. Zero means entries live until the backing
	// store evicts them.
	TTL time.Duration
}

// RedisStore shares cached results across application instances. Entries are
// JSON-encoded; the exact-key semantics are identical to MemoryStore.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisStoreConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address required")
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "promptdeck:completions:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

// Get returns the stored result for key, if any.
func (s *RedisStore) Get(ctx context.Context, key string) (Result, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("redis entry corrupt: %w", err)
	}
	return result, true, nil
}

// Set inserts a result under key.
func (s *RedisStore) Set(ctx context.Context, key string, result Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
