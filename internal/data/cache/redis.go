package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisStore backs the Store interface with a shared redis instance so
// multiple replicas see one cache. Failures degrade to misses; redis being
// down never fails a fetch.
type RedisStore struct {
	client *redis.Client
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

// Get fetches key; any redis error reads as a miss.
func (r *RedisStore) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		r.misses.Add(1)
		return nil, false
	}
	r.hits.Add(1)
	return val, true
}

// Set stores key for ttl, logging (not failing) on error.
func (r *RedisStore) Set(key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis cache set failed")
	}
}

// Delete removes key.
func (r *RedisStore) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = r.client.Del(ctx, key).Err()
}

// Stats reports client-side hit/miss counts. Entry totals live server-side
// and are not enumerated here.
func (r *RedisStore) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Misses: r.misses.Load()}
}

// Stop closes the connection.
func (r *RedisStore) Stop() {
	_ = r.client.Close()
}

// NewAuto picks the redis store when redisURL is set and reachable, falling
// back to the in-memory cache otherwise.
func NewAuto(ctx context.Context, redisURL string, maxEntries int) Store {
	if redisURL == "" {
		return NewTTLCache(maxEntries)
	}
	store, err := NewRedisStore(ctx, redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
		return NewTTLCache(maxEntries)
	}
	log.Info().Msg("cache backed by redis")
	return store
}
