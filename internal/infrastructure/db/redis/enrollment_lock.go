package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 10 * time.Second

// EnrollmentLock serialises concurrent enroll attempts for the same pair.
// Key format: lock:enroll:<user_id>:<course_id>
//
// The lock only narrows the race window; the conditional writes in the
// repositories are what keep the edge unique.
type EnrollmentLock struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewEnrollmentLock creates an EnrollmentLock. A non-positive ttl falls back
// to defaultLockTTL.
func NewEnrollmentLock(client redis.Cmdable, ttl time.Duration) *EnrollmentLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &EnrollmentLock{client: client, ttl: ttl}
}

// Acquire reports whether the caller now holds the lock for the pair.
func (l *EnrollmentLock) Acquire(ctx context.Context, userID, courseID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(userID, courseID), "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire enrollment lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock. An expired lock is released silently.
func (l *EnrollmentLock) Release(ctx context.Context, userID, courseID string) error {
	if err := l.client.Del(ctx, l.key(userID, courseID)).Err(); err != nil {
		return fmt.Errorf("release enrollment lock: %w", err)
	}
	return nil
}

func (l *EnrollmentLock) key(userID, courseID string) string {
	return fmt.Sprintf("lock:enroll:%s:%s", userID, courseID)
}
