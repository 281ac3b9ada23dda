package mfa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrChallengeNotFound is returned when a challenge id does not resolve,
	// whether it never existed, expired, or was already consumed.
	ErrChallengeNotFound = errors.New("mfa challenge not found")
	// ErrChallengeBackend wraps transport failures talking to Redis.
	ErrChallengeBackend = errors.New("mfa challenge backend unavailable")
)

// ChallengeStore binds opaque challenge ids to user ids in Redis for the
// window between a successful password check and the second-factor code.
type ChallengeStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewChallengeStore(redisClient redis.UniversalClient, prefix string, ttl time.Duration) *ChallengeStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ChallengeStore{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *ChallengeStore) key(challengeID string) string {
	return s.prefix + ":mfa:" + challengeID
}

// Issue creates a fresh challenge for the user and returns its opaque id.
func (s *ChallengeStore) Issue(ctx context.Context, userID string) (string, error) {
	challengeID := uuid.NewString()
	if err := s.redis.Set(ctx, s.key(challengeID), userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrChallengeBackend, err)
	}
	return challengeID, nil
}

// Resolve maps a challenge id back to its user id without consuming it.
// Consumption is a separate step so a wrong code leaves the challenge
// available for another attempt within the TTL.
func (s *ChallengeStore) Resolve(ctx context.Context, challengeID string) (string, error) {
	userID, err := s.redis.Get(ctx, s.key(challengeID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrChallengeNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrChallengeBackend, err)
	}
	return userID, nil
}

// Consume deletes the challenge after a successful code check.
func (s *ChallengeStore) Consume(ctx context.Context, challengeID string) error {
	if err := s.redis.Del(ctx, s.key(challengeID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrChallengeBackend, err)
	}
	return nil
}
