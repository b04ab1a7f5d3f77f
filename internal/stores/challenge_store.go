package stores

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/blueskyapp/social-api/internal/models"
)

// ChallengeStore maps an email address to at most one outstanding
// ResetChallenge. Issue overwrites any prior challenge for the same email.
// Verify never consumes; only Consume invalidates a challenge.
type ChallengeStore interface {
	// Issue generates a fresh 6-digit code for the email, stores it with the
	// configured TTL and returns the code for out-of-band delivery.
	Issue(ctx context.Context, email string) (string, error)

	// Verify reports whether a challenge exists for the email, its code
	// matches exactly, and it has not yet expired. It does not mutate the
	// entry: repeated verification with a still-valid code keeps succeeding.
	Verify(ctx context.Context, email, code string) (bool, error)

	// Consume deletes the challenge for the email. Idempotent.
	Consume(ctx context.Context, email string) error
}

// GenerateCode returns a uniformly random 6-digit code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// MemoryChallengeStore keeps challenges in process memory for the lifetime
// of the server. Contention is low (one entry per user at a time), so a
// single lock around the map is enough. Expired entries are purged lazily on
// the next Verify of the same key, or overwritten by the next Issue.
type MemoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]models.ResetChallenge
	ttl        time.Duration

	// overridable in tests
	now     func() time.Time
	genCode func() (string, error)
}

// NewMemoryChallengeStore creates an in-process store whose codes expire
// after ttl.
func NewMemoryChallengeStore(ttl time.Duration) *MemoryChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[string]models.ResetChallenge),
		ttl:        ttl,
		now:        time.Now,
		genCode:    GenerateCode,
	}
}

func (s *MemoryChallengeStore) Issue(_ context.Context, email string) (string, error) {
	code, err := s.genCode()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[email] = models.ResetChallenge{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl),
	}

	return code, nil
}

func (s *MemoryChallengeStore) Verify(_ context.Context, email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[email]
	if !ok {
		return false, nil
	}

	now := s.now()
	if !now.Before(challenge.ExpiresAt) {
		delete(s.challenges, email)
		return false, nil
	}

	return challenge.Usable(code, now), nil
}

func (s *MemoryChallengeStore) Consume(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, email)
	return nil
}
