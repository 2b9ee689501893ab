package quota

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/agencykit/pkg/token"
)

var ErrLockLost = errors.New("quota.lock_lost")

// releaseScript deletes the key only while it still holds our token, so a
// lock that expired and was taken by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes admissions across replicas sharing one Redis.
type RedisLocker struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

type RedisLockerOption func(*RedisLocker)

// WithLockTTL sets how long a lock survives a crashed holder. It must exceed
// the time one admission takes.
func WithLockTTL(d time.Duration) RedisLockerOption { return func(l *RedisLocker) { l.ttl = d } }

func WithRetryInterval(d time.Duration) RedisLockerOption {
	return func(l *RedisLocker) { l.retry = d }
}

func WithKeyPrefix(p string) RedisLockerOption { return func(l *RedisLocker) { l.prefix = p } }

func NewRedisLocker(client redis.Cmdable, opts ...RedisLockerOption) *RedisLocker {
	if client == nil {
		panic("quota: redis client is required")
	}
	l := &RedisLocker{
		client: client,
		prefix: "agencykit:lock:",
		ttl:    10 * time.Second,
		retry:  25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	owner, err := token.Nonce(16)
	if err != nil {
		return nil, err
	}
	key = l.prefix + key

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, owner, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{key}, owner).Int()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrLockLost
		}
		return nil
	}, nil
}
