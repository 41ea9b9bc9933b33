package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Locker is a cross-process lock such as the Redis SETNX locker.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// keyedMutex serializes work per key inside one process. Entries are dropped once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*keyedEntry{}}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func dayKey(employeeID string, date time.Time) string {
	return fmt.Sprintf("chancehr:attendance:%s:%s", employeeID, date.Format("2006-01-02"))
}

// lockDay takes the in-process lock and, when configured, the distributed one.
func (r *Recorder) lockDay(ctx context.Context, employeeID string, date time.Time) (func(), error) {
	key := dayKey(employeeID, date)
	unlock := r.locks.Lock(key)
	if r.distLock == nil {
		return unlock, nil
	}

	token, ok, err := r.distLock.TryLock(ctx, key, r.cfg.DayLockTTL)
	if err != nil {
		unlock()
		return nil, err
	}
	if !ok {
		unlock()
		return nil, ErrDayLocked
	}
	return func() {
		_ = r.distLock.Release(context.WithoutCancel(ctx), key, token)
		unlock()
	}, nil
}
