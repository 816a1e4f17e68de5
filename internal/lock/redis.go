package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript deletes the key only while it still holds the caller's owner
// token, so a holder whose TTL already elapsed cannot drop a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX on a shared Redis instance.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisLocker returns a locker using client with the given TTL.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// TryAcquire implements Locker.
func (l *RedisLocker) TryAcquire(ctx context.Context, organizerID string, slotStartMillis int64) (string, bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, Key(organizerID, slotStartMillis), token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release implements Locker.
func (l *RedisLocker) Release(ctx context.Context, organizerID string, slotStartMillis int64, token string) error {
	if token == "" {
		return nil
	}
	return releaseScript.Run(ctx, l.client, []string{Key(organizerID, slotStartMillis)}, token).Err()
}

// Ping checks connectivity to Redis.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
