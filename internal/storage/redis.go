package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore persists values in Redis with a TTL refreshed on read, so
// an abandoned table's state ages out on its own.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	k := s.prefix + key
	val, err := s.client.Get(ctx, k).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	_ = s.client.Expire(ctx, k, s.ttl).Err()
	return val, true, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

func (s *redisStore) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
