// Package cache is the cache-aside layer. Values are written on read misses
// and dropped, never updated, after writes commit. Cache failures are logged
// and swallowed so they never fail a request.
//
// A reader that misses, loses a race with a committing writer and then writes
// back its older copy leaves a stale entry behind. The TTL bounds how long it
// lives, so RedisStore never stores a value without one.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the byte-level cache backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	HGet(ctx context.Context, key, field string) ([]byte, bool, error)
	HSet(ctx context.Context, key, field string, value []byte) error
	// Clear deletes every key matching a glob pattern.
	Clear(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
	Close() error
}

// DefaultTTL applies when RedisOptions.TTL is not positive.
const DefaultTTL = 10 * time.Minute

// RedisStore keeps values in Redis with a fixed TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

func (s *RedisStore) HGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	b, err := s.client.HGet(ctx, key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// HSet stores one field and refreshes the TTL of the whole hash.
func (s *RedisStore) HSet(ctx context.Context, key, field string, value []byte) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, field, value)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

const clearBatch = 100

func (s *RedisStore) Clear(ctx context.Context, pattern string) error {
	iter := s.client.Scan(ctx, 0, pattern, clearBatch).Iterator()

	batch := make([]string, 0, clearBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == clearBatch {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return s.client.Del(ctx, batch...).Err()
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// NopStore never hits. It is used when no Redis address is configured.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool, error)          { return nil, false, nil }
func (NopStore) Set(context.Context, string, []byte) error                  { return nil }
func (NopStore) HGet(context.Context, string, string) ([]byte, bool, error) { return nil, false, nil }
func (NopStore) HSet(context.Context, string, string, []byte) error         { return nil }
func (NopStore) Clear(context.Context, string) error                        { return nil }
func (NopStore) Ping(context.Context) error                                 { return nil }
func (NopStore) Close() error                                               { return nil }
