package connector

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/usestring/storeschema-mcp/internal/config"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
)

// RedisStore samples a Redis keyspace with SCAN and types keys with TYPE.
type RedisStore struct {
	base
	client *redis.Client
	match  string
}

func openRedis(ctx context.Context, cfg config.StoreConfig, opts Options) (Store, error) {
	ropts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if opts.ConnectTimeout > 0 {
		ropts.DialTimeout = opts.ConnectTimeout
	}

	client := redis.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return NewRedisStore(cfg.Name, client, cfg.Match), nil
}

// NewRedisStore wraps an existing client. An empty match scans every key.
func NewRedisStore(name string, client *redis.Client, match string) *RedisStore {
	if match == "" {
		match = "*"
	}
	return &RedisStore{
		base:   base{name: name, kind: config.KindRedis},
		client: client,
		match:  match,
	}
}

// Keys returns a SCAN cursor. A returned cursor of 0 ends the iteration; a
// step may legitimately return no keys.
func (s *RedisStore) Keys(ctx context.Context, batchHint int) (sampler.Cursor[string], error) {
	var (
		cursor  uint64
		started bool
	)
	return sampler.FuncCursor[string](func(ctx context.Context) ([]string, bool, error) {
		if started && cursor == 0 {
			return nil, true, nil
		}
		keys, next, err := s.client.Scan(ctx, cursor, s.match, int64(batchHint)).Result()
		if err != nil {
			return nil, false, fmt.Errorf("redis scan: %w", err)
		}
		started = true
		cursor = next
		return keys, cursor == 0, nil
	}), nil
}

// KeyType returns the native Redis type of key. A key that vanished between
// SCAN and TYPE ("none") is reported as an error.
func (s *RedisStore) KeyType(ctx context.Context, key string) (string, error) {
	t, err := s.client.Type(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("redis type %q: %w", key, err)
	}
	if t == "none" {
		return "", fmt.Errorf("redis type %q: key no longer exists", key)
	}
	return t, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
