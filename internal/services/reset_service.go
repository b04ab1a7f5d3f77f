package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/blueskyapp/social-api/config"
	"github.com/blueskyapp/social-api/internal/events"
	"github.com/blueskyapp/social-api/internal/repositories"
	"github.com/blueskyapp/social-api/internal/stores"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

const resetEmailSubject = "Your OTP for Blue Sky Password Reset"

// ResetService drives the one-time-code password reset flow:
//
//	Idle -> CodeIssued -> CodeVerified -> Completed
//
// The server holds no per-session state; which store entries exist is the
// state. Verification never consumes a challenge, so a client can re-verify
// (or skip straight to completion) with a still-valid code. Only a
// successful CompleteReset consumes it.
type ResetService struct {
	accounts  AccountStore
	store     stores.ChallengeStore
	mailer    Mailer
	publisher *events.Publisher

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
	perMin    float64
	burst     int
}

// NewResetService creates the reset flow orchestrator.
func NewResetService(
	accounts AccountStore,
	store stores.ChallengeStore,
	mailer Mailer,
	publisher *events.Publisher,
	cfg config.ResetConfig,
) *ResetService {
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 3
	}
	burst := cfg.RequestBurst
	if burst <= 0 {
		burst = 3
	}

	return &ResetService{
		accounts:  accounts,
		store:     store,
		mailer:    mailer,
		publisher: publisher,
		limiters:  make(map[string]*rate.Limiter),
		perMin:    perMin,
		burst:     burst,
	}
}

// RequestReset issues a fresh code for the email and hands it to the mailer.
// A second request for the same email overwrites the first challenge.
// The account must exist; this leaks account existence to the caller, which
// VerifyCode/CompleteReset deliberately do not.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	if !s.allow(email) {
		return ErrTooManyRequests
	}

	user, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	code, err := s.store.Issue(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to issue reset code: %w", err)
	}

	body := fmt.Sprintf("Your OTP is: %s", code)
	if err := s.mailer.Send(user.Email, resetEmailSubject, body); err != nil {
		// The challenge stays issued; the client may retry the request.
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.publisher.PasswordResetRequested(email)

	return nil
}

// VerifyCode checks a submitted code without consuming it. "Never issued",
// "wrong code" and "expired" are indistinguishable to the caller.
func (s *ResetService) VerifyCode(ctx context.Context, email, code string) error {
	ok, err := s.store.Verify(ctx, email, code)
	if err != nil {
		return fmt.Errorf("failed to verify reset code: %w", err)
	}
	if !ok {
		return ErrInvalidOrExpiredCode
	}
	return nil
}

// CompleteReset re-validates the code, replaces the account's credential
// hash and consumes the challenge. A weak password leaves both the account
// and the challenge untouched.
func (s *ResetService) CompleteReset(ctx context.Context, email, code, newPassword string) error {
	ok, err := s.store.Verify(ctx, email, code)
	if err != nil {
		return fmt.Errorf("failed to verify reset code: %w", err)
	}
	if !ok {
		return ErrInvalidOrExpiredCode
	}

	if len(newPassword) < 6 {
		return ErrWeakPassword
	}

	user, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsUserNotFound(err) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.store.Consume(ctx, email); err != nil {
		return fmt.Errorf("failed to consume reset challenge: %w", err)
	}

	s.publisher.PasswordResetCompleted(user.ID.Hex(), email)

	return nil
}

// allow rate-limits issuance per email. Entries are small and bounded by the
// active user population, so they are not evicted.
func (s *ResetService) allow(email string) bool {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()

	limiter, ok := s.limiters[email]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(s.perMin/60), s.burst)
		s.limiters[email] = limiter
	}

	return limiter.Allow()
}
