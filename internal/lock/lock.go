// Package lock provides short-lived mutual exclusion for booking commits,
// keyed by organizer and candidate slot start.
//
// Acquisition never waits: a caller that loses the race gets false
// immediately. The TTL bounds how long a crashed holder can block a slot;
// correctness comes from revalidating availability while the lock is held.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is used when a locker is constructed with a non-positive TTL.
const DefaultTTL = 10 * time.Second

// ErrNotAcquired is returned by WithLock when another holder owns the key.
var ErrNotAcquired = errors.New("lock: not acquired")

// Locker acquires and releases slot locks.
type Locker interface {
	// TryAcquire atomically sets the lock if absent and returns the owner
	// token of this acquisition. It reports false without blocking when the
	// lock is already held.
	TryAcquire(ctx context.Context, organizerID string, slotStartMillis int64) (token string, acquired bool, err error)
	// Release drops the lock only while it is still owned by token. Releasing
	// an expired or reassigned lock is a no-op.
	Release(ctx context.Context, organizerID string, slotStartMillis int64, token string) error
}

// Key returns the cache key for a slot lock.
func Key(organizerID string, slotStartMillis int64) string {
	return fmt.Sprintf("lock:booking:%s:%d", organizerID, slotStartMillis)
}

// WithLock acquires the slot lock, runs fn, and releases the lock on every
// exit path including panics. It returns ErrNotAcquired when the lock is held
// elsewhere. A release failure is reported only if fn succeeded.
func WithLock(ctx context.Context, locker Locker, organizerID string, slotStart time.Time, fn func(ctx context.Context) error) (err error) {
	millis := slotStart.UnixMilli()

	token, acquired, err := locker.TryAcquire(ctx, organizerID, millis)
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", Key(organizerID, millis), err)
	}
	if !acquired {
		return ErrNotAcquired
	}

	defer func() {
		// The caller's context may already be cancelled; release regardless.
		releaseErr := locker.Release(context.WithoutCancel(ctx), organizerID, millis, token)
		if releaseErr != nil && err == nil {
			err = fmt.Errorf("release lock %s: %w", Key(organizerID, millis), releaseErr)
		}
	}()

	return fn(ctx)
}
