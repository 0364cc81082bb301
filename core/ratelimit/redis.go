package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"falcon-hq/config"
)

// redisStore backs counters with the shared redis instance so limits hold
// across processes. Any error bubbles up and the limiter falls back to the
// local store for that one check.
type redisStore struct {
	client  *redis.Client
	timeout time.Duration
}

func newRedisStore(cfg config.RedisConfig) *redisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &redisStore{client: client, timeout: timeout}
}

func (s *redisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var incr *redis.IntCmd
	var pttl *redis.DurationCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	ttl := pttl.Val()
	if ttl <= 0 {
		ttl = window
	}
	return incr.Val(), time.Now().Add(ttl), nil
}

func (s *redisStore) Reset(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, key).Err()
}
