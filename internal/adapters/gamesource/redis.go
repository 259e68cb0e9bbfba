package gamesource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rinkrat/featurecast/internal/domain/model"
)

// Default redis key layout, matching the collector's cache writes.
const (
	defaultKeyPrefix = "game:"
	scanBatchSize    = 200
)

// RedisSource reads per-game JSON blobs the collector cached in Redis.
type RedisSource struct {
	client *redis.Client
	prefix string
}

// RedisOption applies a configuration option to the RedisSource.
type RedisOption func(*RedisSource)

// WithKeyPrefix overrides the cache key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisSource) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisSource returns a source reading from the given client.
func NewRedisSource(client *redis.Client, opts ...RedisOption) *RedisSource {
	s := &RedisSource{
		client: client,
		prefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Games scans the key space and decodes every cached record. A blob that
// fails to decode aborts the load: partial history would silently shift
// every rolling window built from it.
func (s *RedisSource) Games(ctx context.Context) ([]model.GameRecord, error) {
	var games []model.GameRecord
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		var rec model.GameRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		games = append(games, rec)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan games: %w", err)
	}
	return games, nil
}
