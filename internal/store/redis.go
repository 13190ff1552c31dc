package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps transport-level Redis failures so callers can decide
// whether to fail open or closed.
var ErrUnavailable = errors.New("ephemeral store unavailable")

// Store is a key-value store with per-key TTL expiry. It backs the rate
// limiter counters, pending registrations and the verifier result cache.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a Store backed by the given Redis client. All keys are
// namespaced with prefix.
func New(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "lg"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key(k string) string {
	return s.prefix + ":" + k
}

// Get returns the value at key, or ("", false, nil) when the key is absent
// or has expired.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, true, nil
}

// Set writes value at key with the given TTL, replacing any previous value
// and its expiry.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.key(k)
	}
	if err := s.redis.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Take atomically reads and deletes key (GETDEL). When two requests race on
// the same key, exactly one observes the value; the other gets absent. This
// is what makes pending-registration redemption single-use.
func (s *Store) Take(ctx context.Context, key string) (string, bool, error) {
	val, err := s.redis.GetDel(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, true, nil
}

// Incr increments the counter at key and refreshes its TTL on every call,
// mirroring a transient that is re-persisted on each write. Returns the
// post-increment count.
func (s *Store) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := s.redis.Incr(ctx, s.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := s.redis.Expire(ctx, s.key(key), ttl).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count, nil
}

// GetInt reads an integer counter, returning 0 when absent.
func (s *Store) GetInt(ctx context.Context, key string) (int64, error) {
	count, err := s.redis.Get(ctx, s.key(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count, nil
}
