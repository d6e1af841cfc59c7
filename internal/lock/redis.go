// Package lock provides the per-scope mutex that serializes board
// operations. The board service has no transactions, so every synchronizer
// call is a read-then-write sequence that must not interleave with another
// writer on the same sheet.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"planroom/api/internal/util"
)

// releaseScript deletes the lock key only if it still holds our token, so an
// expired-and-reacquired lock is never released by the previous holder.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

type ScopeLock struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewScopeLock(redisURL string, ttl time.Duration) (*ScopeLock, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewScopeLockWithClient(client, ttl), nil
}

func NewScopeLockWithClient(client *redis.Client, ttl time.Duration) *ScopeLock {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ScopeLock{client: client, prefix: "boardlock:", ttl: ttl}
}

func (l *ScopeLock) Close() error {
	return l.client.Close()
}

// WithLock runs fn while holding the lock for scope, waiting for the current
// holder if necessary. Waiting stops when ctx is done.
func (l *ScopeLock) WithLock(ctx context.Context, scope string, fn func(ctx context.Context) error) error {
	key := l.prefix + scope
	token := util.NewID("")

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire lock %s: %w", scope, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("acquire lock %s: %w", scope, ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.client.Eval(releaseCtx, releaseScript, []string{key}, token).Err()
	}()

	return fn(ctx)
}
