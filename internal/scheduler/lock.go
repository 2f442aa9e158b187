package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Locker serializes scheduled jobs across replicas. Acquire returns a
// release func that is a no-op when acquisition failed.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool)
}

// NopLocker always grants. Single-replica deployments run with it, accepting
// duplicate runs if a second replica appears.
type NopLocker struct{}

// Acquire grants unconditionally.
func (NopLocker) Acquire(context.Context, string, time.Duration) (func(), bool) {
	return func() {}, true
}

// redisLocker takes SetNX leases keyed per job. The holder id guards release
// so an expired lease is never deleted out from under its new holder.
type redisLocker struct {
	client *redis.Client
	id     string
}

// NewLocker returns a redis-backed locker when redisURL is set and
// reachable, and NopLocker otherwise. Lock loss degrades to duplicate job
// runs, never to skipped ones.
func NewLocker(ctx context.Context, redisURL string) Locker {
	if redisURL == "" {
		return NopLocker{}
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("bad REDIS_URL, job locking disabled")
		return NopLocker{}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Warn().Err(err).Msg("redis unavailable, job locking disabled")
		return NopLocker{}
	}
	return &redisLocker{client: client, id: uuid.NewString()}
}

// Acquire leases key for ttl. A redis error grants the lock anyway.
func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool) {
	ok, err := l.client.SetNX(ctx, key, l.id, ttl).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("lock backend unavailable, proceeding unlocked")
		return func() {}, true
	}
	if !ok {
		return func() {}, false
	}
	return func() { l.release(key) }, true
}

// release deletes the lease only while this process still holds it.
func (l *redisLocker) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := l.client.Get(ctx, key).Result()
	if err != nil || val != l.id {
		return
	}
	_ = l.client.Del(ctx, key).Err()
}
