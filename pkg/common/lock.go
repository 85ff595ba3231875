package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

var ErrLockNotHeld = errors.New("lock not held")

type RedisLockOptions struct {
	TtlS    int
	Retries int
}

// RedisLock hands out distributed locks keyed by name. Release must be
// called on the same RedisLock that acquired the key.
type RedisLock struct {
	client *redislock.Client
	mu     sync.Mutex
	locks  map[string]*redislock.Lock
}

func NewRedisLock(rdb *RedisClient) *RedisLock {
	return &RedisLock{
		client: redislock.New(rdb),
		locks:  make(map[string]*redislock.Lock),
	}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, opts RedisLockOptions) error {
	ttl := time.Duration(opts.TtlS) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Second
	}

	retry := redislock.NoRetry()
	if opts.Retries > 0 {
		retry = redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), opts.Retries)
	}

	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{RetryStrategy: retry})
	if err != nil {
		return fmt.Errorf("obtain %s: %w", key, err)
	}

	l.mu.Lock()
	l.locks[key] = lock
	l.mu.Unlock()
	return nil
}

func (l *RedisLock) Release(key string) error {
	l.mu.Lock()
	lock, ok := l.locks[key]
	delete(l.locks, key)
	l.mu.Unlock()

	if !ok {
		return ErrLockNotHeld
	}
	return lock.Release(context.Background())
}
