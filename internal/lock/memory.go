package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker implements Locker inside a single process. It is meant for
// single-instance deployments and tests.
type MemoryLocker struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	locks map[string]memoryLock
}

type memoryLock struct {
	token   string
	expires time.Time
}

// NewMemoryLocker returns an in-process locker with the given TTL.
func NewMemoryLocker(ttl time.Duration) *MemoryLocker {
	return NewMemoryLockerWithClock(ttl, time.Now)
}

// NewMemoryLockerWithClock is NewMemoryLocker with an injectable clock.
func NewMemoryLockerWithClock(ttl time.Duration, now func() time.Time) *MemoryLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryLocker{ttl: ttl, now: now, locks: make(map[string]memoryLock)}
}

// TryAcquire implements Locker.
func (l *MemoryLocker) TryAcquire(_ context.Context, organizerID string, slotStartMillis int64) (string, bool, error) {
	key := Key(organizerID, slotStartMillis)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.locks[key]; ok && now.Before(held.expires) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.locks[key] = memoryLock{token: token, expires: now.Add(l.ttl)}
	return token, true, nil
}

// Release implements Locker.
func (l *MemoryLocker) Release(_ context.Context, organizerID string, slotStartMillis int64, token string) error {
	key := Key(organizerID, slotStartMillis)

	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.locks[key]; ok && held.token == token {
		delete(l.locks, key)
	}
	return nil
}
