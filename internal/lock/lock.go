package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

// Locker is a short-TTL mutual-exclusion primitive keyed by a logical
// resource id and usable across independent request-handling processes.
// Acquisition fails fast; it never queues. Releasing a lock that expired or
// belongs to another holder is an expected no-op under TTL races.
type Locker interface {
	Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, holder string) error
}

// RedisLocker implements Locker over redsync mutexes. Mutex handles are kept
// per key+holder so this process can release what it acquired; a handle that
// is not found (expired, or acquired elsewhere) makes Release a no-op.
type RedisLocker struct {
	rs     *redsync.Redsync
	logger *slog.Logger

	mu   sync.Mutex
	held map[string]*redsync.Mutex
}

// NewRedisLocker builds a locker on top of the shared redis client.
func NewRedisLocker(client *goredislib.Client, logger *slog.Logger) *RedisLocker {
	pool := goredis.NewPool(client)
	return &RedisLocker{
		rs:     redsync.New(pool),
		logger: logger,
		held:   make(map[string]*redsync.Mutex),
	}
}

// Acquire is an atomic set-if-absent with expiry. Returns false without error
// when the lock is held by a different holder.
func (l *RedisLocker) Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(1),
		redsync.WithGenValueFunc(func() (string, error) { return holder, nil }),
	)

	if err := mutex.TryLockContext(ctx); err != nil {
		if errors.Is(err, redsync.ErrFailed) {
			return false, nil
		}
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) {
			return false, nil
		}
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	l.mu.Lock()
	l.held[handleKey(key, holder)] = mutex
	l.mu.Unlock()
	return true, nil
}

// Release unlocks a previously acquired mutex. Expired or foreign locks are
// logged and ignored.
func (l *RedisLocker) Release(ctx context.Context, key, holder string) error {
	l.mu.Lock()
	mutex, ok := l.held[handleKey(key, holder)]
	delete(l.held, handleKey(key, holder))
	l.mu.Unlock()

	if !ok {
		l.logger.Debug("release of unknown lock ignored", slog.String("key", key))
		return nil
	}

	released, err := mutex.UnlockContext(ctx)
	if err != nil {
		if errors.Is(err, redsync.ErrLockAlreadyExpired) {
			l.logger.Debug("lock already expired", slog.String("key", key))
			return nil
		}
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	if !released {
		l.logger.Debug("lock not held at release", slog.String("key", key))
	}
	return nil
}

// CouponKey builds the lock resource id serializing coupon redemption per
// coupon+actor.
func CouponKey(code, userID string) string {
	return fmt.Sprintf("coupon-lock:%s:%s", code, userID)
}

func handleKey(key, holder string) string {
	return key + "@" + holder
}
