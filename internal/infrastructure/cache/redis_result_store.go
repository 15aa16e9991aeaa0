package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcos-nsantos/bg-remover/internal/domain"
)

// RedisResultStore keeps removal results as PNG bytes under
// "{prefix}:removal:{key}". A zero TTL stores entries without expiry.
type RedisResultStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisResultStore(client *redis.Client, prefix string, ttl time.Duration) *RedisResultStore {
	return &RedisResultStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisResultStore) Name() string {
	return "redis"
}

func (s *RedisResultStore) redisKey(key string) string {
	if s.prefix == "" {
		return "removal:" + key
	}
	return fmt.Sprintf("%s:removal:%s", s.prefix, key)
}

func (s *RedisResultStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("getting removal %s: %w", key, err)
	}
	return data, nil
}

func (s *RedisResultStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.redisKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing removal %s: %w", key, err)
	}
	return nil
}

func (s *RedisResultStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("deleting removal %s: %w", key, err)
	}
	return nil
}
