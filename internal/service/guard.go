package service

import (
	"context"
	"sync"
	"time"
)

// Locker guards a composer against overlapping submissions
type Locker interface {
	TryLock(ctx context.Context, key string) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// LocalLocker is a per-key, non-blocking lock held in process memory
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) TryLock(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return false, nil
	}
	l.held[key] = struct{}{}
	return true, nil
}

func (l *LocalLocker) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type redisLockClient interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// RedisLocker shares the busy state across processes through Redis.
// The TTL bounds how long a crashed submitter can block a composer.
type RedisLocker struct {
	client redisLockClient
	ttl    time.Duration
}

func NewRedisLocker(client redisLockClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (r *RedisLocker) TryLock(ctx context.Context, key string) (bool, error) {
	return r.client.AcquireLock(ctx, key, r.ttl)
}

func (r *RedisLocker) Unlock(ctx context.Context, key string) error {
	return r.client.ReleaseLock(ctx, key)
}
