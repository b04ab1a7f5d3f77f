package stores

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetKeyPrefix = "bsky:reset:"

// RedisChallengeStore keeps challenges in Redis so horizontally scaled
// instances share them. Redis key TTL carries the expiry, so expired
// challenges vanish without a sweeper.
type RedisChallengeStore struct {
	client redis.UniversalClient
	ttl    time.Duration

	genCode func() (string, error)
}

// NewRedisChallengeStore creates a Redis-backed store whose codes expire
// after ttl.
func NewRedisChallengeStore(client redis.UniversalClient, ttl time.Duration) *RedisChallengeStore {
	return &RedisChallengeStore{
		client:  client,
		ttl:     ttl,
		genCode: GenerateCode,
	}
}

func (s *RedisChallengeStore) key(email string) string {
	return resetKeyPrefix + email
}

func (s *RedisChallengeStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := s.genCode()
	if err != nil {
		return "", err
	}

	// SET overwrites any prior challenge for the email and resets the TTL.
	if err := s.client.Set(ctx, s.key(email), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store reset challenge: %w", err)
	}

	return code, nil
}

func (s *RedisChallengeStore) Verify(ctx context.Context, email, code string) (bool, error) {
	stored, err := s.client.Get(ctx, s.key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read reset challenge: %w", err)
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1, nil
}

func (s *RedisChallengeStore) Consume(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete reset challenge: %w", err)
	}
	return nil
}
