package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisEnvelope wraps a cached value with the expiration metadata the
// sliding refresh on read needs. Redis key TTL handles the actual
// eviction; the deadline inside the envelope caps sliding extension.
type redisEnvelope struct {
	Value     []byte `json:"v"`
	Deadline  int64  `json:"d"`
	SlidingMS int64  `json:"s"`
}

// RedisStore is the Redis-backed Store implementation for multi-node
// deployments.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a store on top of an existing Redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Unreadable entry: drop it and report a miss.
		s.client.Del(ctx, key)
		return nil, false, nil
	}

	now := time.Now()
	deadline := time.UnixMilli(env.Deadline)
	if now.After(deadline) {
		s.client.Del(ctx, key)
		return nil, false, nil
	}

	if env.SlidingMS > 0 {
		extension := time.Duration(env.SlidingMS) * time.Millisecond
		if remaining := time.Until(deadline); remaining < extension {
			extension = remaining
		}
		s.client.PExpire(ctx, key, extension)
	}

	return env.Value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, opts Options) error {
	now := time.Now()
	env := redisEnvelope{
		Value:     value,
		Deadline:  now.Add(opts.AbsoluteTTL).UnixMilli(),
		SlidingMS: opts.SlidingTTL.Milliseconds(),
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	ttl := opts.AbsoluteTTL
	if opts.SlidingTTL > 0 && opts.SlidingTTL < opts.AbsoluteTTL {
		ttl = opts.SlidingTTL
	}

	return s.client.Set(ctx, key, payload, ttl).Err()
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
