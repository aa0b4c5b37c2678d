package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitRepository implements fixed-window request counting.
type RateLimitRepository interface {
	// Allow reports whether another request under key fits inside the
	// window. On a storage error it returns (true, err): the caller
	// decides whether to fail open, but a broken store never blocks.
	Allow(ctx context.Context, key string, requests int, window time.Duration) (bool, error)
}

type redisRateLimit struct {
	client *redis.Client
}

func NewRateLimitRepository(client *redis.Client) RateLimitRepository {
	return &redisRateLimit{client: client}
}

func (r *redisRateLimit) Allow(ctx context.Context, key string, requests int, window time.Duration) (bool, error) {
	// Hash the key for privacy
	hashed := fmt.Sprintf("ratelimit:%x", sha256.Sum256([]byte(key)))

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	count, err := r.client.Incr(ctx, hashed).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, hashed, window).Err(); err != nil {
			return true, err
		}
	}

	return count <= int64(requests), nil
}

// IdempotencyStore backs the Idempotency-Key middleware.
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return value, err
}

func (s *IdempotencyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return s.client.Set(ctx, key, value, ttl).Err()
}
