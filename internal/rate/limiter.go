package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter enforces fixed-window rate limits backed by Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// New creates a rate [Limiter] backed by the given Redis client.
// All keys it creates are namespaced under prefix.
func New(redisClient redis.UniversalClient, prefix string) *Limiter {
	return &Limiter{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

// Check consumes one attempt for the action+subject pair in the current
// window and reports whether the call is still within budget. Every call
// increments the counter, including denied ones. Returns ErrRateLimited
// once the post-increment count exceeds limit.
func (l *Limiter) Check(ctx context.Context, action, subject string, limit int, window time.Duration) error {
	count, err := l.incrementWithTTL(ctx, l.key(action, subject, window), window)
	if err != nil {
		return err
	}
	if count > int64(limit) {
		return ErrRateLimited
	}
	return nil
}

// Remaining reports how many attempts are left for the action+subject pair
// in the current window without consuming one. Missing keys report the
// full budget and do not reveal subject existence.
func (l *Limiter) Remaining(ctx context.Context, action, subject string, limit int, window time.Duration) (int, error) {
	count, err := l.redis.Get(ctx, l.key(action, subject, window)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return limit, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	left := limit - int(count)
	if left < 0 {
		left = 0
	}
	return left, nil
}

// Reset clears the counter for the action+subject pair in the current
// window. The engine never calls it; it exists for embedders that want to
// forgive prior attempts, such as after an out-of-band identity check.
func (l *Limiter) Reset(ctx context.Context, action, subject string, window time.Duration) error {
	if err := l.redis.Del(ctx, l.key(action, subject, window)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) key(action, subject string, window time.Duration) string {
	bucket := l.now().Unix() / int64(window/time.Second)
	return fmt.Sprintf("%s:rl:%s:%s:%d", l.prefix, action, subject, bucket)
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
