package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/blueskyapp/social-api/config"
	"github.com/blueskyapp/social-api/internal/events"
	"github.com/blueskyapp/social-api/internal/models"
	"github.com/blueskyapp/social-api/internal/stores"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newResetFixture(t *testing.T) (*ResetService, *fakeUserStore, *fakeMailer, *stores.MemoryChallengeStore) {
	t.Helper()

	users := newFakeUserStore()
	mailer := &fakeMailer{}
	store := stores.NewMemoryChallengeStore(10 * time.Minute)
	publisher := events.NewPublisher(nil, config.KafkaTopics{})

	svc := NewResetService(users, store, mailer, publisher, config.ResetConfig{
		RequestsPerMin: 60, // effectively unlimited for most tests
		RequestBurst:   100,
	})
	return svc, users, mailer, store
}

// codeFrom extracts the code from the delivered email body.
func codeFrom(t *testing.T, mailer *fakeMailer) string {
	t.Helper()
	require.NotEmpty(t, mailer.sent)
	body := mailer.sent[len(mailer.sent)-1].body
	code := strings.TrimPrefix(body, "Your OTP is: ")
	require.Len(t, code, 6)
	return code
}

func seedAccount(users *fakeUserStore, email, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return users.add(&models.User{
		FullName:     "Ada Lovelace",
		Username:     "ada",
		Email:        email,
		PasswordHash: string(hash),
	})
}

func TestResetService_RequestReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("sends a six digit code to the account email", func(t *testing.T) {
		t.Parallel()
		svc, users, mailer, _ := newResetFixture(t)
		seedAccount(users, "a@b.com", "oldpass1")

		require.NoError(t, svc.RequestReset(ctx, "a@b.com"))

		require.Len(t, mailer.sent, 1)
		require.Equal(t, "a@b.com", mailer.sent[0].to)
		require.Equal(t, "Your OTP for Blue Sky Password Reset", mailer.sent[0].subject)

		code := codeFrom(t, mailer)
		require.GreaterOrEqual(t, code, "100000")
		require.LessOrEqual(t, code, "999999")
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		svc, _, mailer, _ := newResetFixture(t)

		err := svc.RequestReset(ctx, "nobody@b.com")
		require.ErrorIs(t, err, ErrAccountNotFound)
		require.Empty(t, mailer.sent)
	})

	t.Run("delivery failure surfaces and keeps the challenge", func(t *testing.T) {
		t.Parallel()
		svc, users, mailer, _ := newResetFixture(t)
		seedAccount(users, "a@b.com", "oldpass1")
		mailer.err = errSMTPDown

		err := svc.RequestReset(ctx, "a@b.com")
		require.ErrorIs(t, err, ErrDeliveryFailed)

		// The code was issued before delivery failed; a retry overwrites it.
		mailer.err = nil
		require.NoError(t, svc.RequestReset(ctx, "a@b.com"))
		require.NoError(t, svc.VerifyCode(ctx, "a@b.com", codeFrom(t, mailer)))
	})

	t.Run("second request overwrites the first code", func(t *testing.T) {
		t.Parallel()
		svc, users, mailer, _ := newResetFixture(t)
		seedAccount(users, "a@b.com", "oldpass1")

		require.NoError(t, svc.RequestReset(ctx, "a@b.com"))
		first := codeFrom(t, mailer)

		require.NoError(t, svc.RequestReset(ctx, "a@b.com"))
		second := codeFrom(t, mailer)

		require.NoError(t, svc.VerifyCode(ctx, "a@b.com", second))
		if first != second {
			require.ErrorIs(t, svc.VerifyCode(ctx, "a@b.com", first), ErrInvalidOrExpiredCode)
		}
	})

	t.Run("rate limited per email", func(t *testing.T) {
		t.Parallel()
		users := newFakeUserStore()
		seedAccount(users, "a@b.com", "oldpass1")
		seedAccount(users, "c@d.com", "oldpass1")
		mailer := &fakeMailer{}
		store := stores.NewMemoryChallengeStore(10 * time.Minute)
		svc := NewResetService(users, store, mailer, events.NewPublisher(nil, config.KafkaTopics{}), config.ResetConfig{
			RequestsPerMin: 3,
			RequestBurst:   3,
		})

		for i := 0; i < 3; i++ {
			require.NoError(t, svc.RequestReset(ctx, "a@b.com"))
		}
		require.ErrorIs(t, svc.RequestReset(ctx, "a@b.com"), ErrTooManyRequests)

		// A different email has its own budget.
		require.NoError(t, svc.RequestReset(ctx, "c@d.com"))
	})
}

func TestResetService_VerifyCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid code verifies without consuming", func(t *testing.T) {
		t.Parallel()
		svc, users, mailer, _ := newResetFixture(t)
		seedAccount(users, "a@b.com", "oldpass1")
		require.NoError(t, svc.RequestReset(ctx, "a@b.com"))
		code := codeFrom(t, mailer)

		require.NoError(t, svc.VerifyCode(ctx, "a@b.com", code))
		require.NoError(t, svc.VerifyCode(ctx, "a@b.com", code))
	})

	t.Run("wrong code", func(t *testing.T) {
		t.Parallel()
		svc, users, mailer, _ := newResetFixture(t)
		seedAccount(users, "a@b.com", "oldpass1")
		require.NoError(t, svc.RequestReset(ctx, "a@b.com"))

		wrong := "000000"
		if codeFrom(t, mailer) == wrong {
			wrong = "000001"
		}
		require.ErrorIs(t, svc.VerifyCode(ctx, "a@b.com", wrong), ErrInvalidOrExpiredCode)
	})

	t.Run("no challenge outstanding", func(t *testing.T) {
		t.Parallel()
		svc, users, _, _ := newResetFixture(t)
		seedAccount(users, "a@b.com", "oldpass1")

		require.ErrorIs(t, svc.VerifyCode(ctx, "a@b.com", "123456"), ErrInvalidOrExpiredCode)
	})
}

func TestResetService_CompleteReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("full flow updates the password and consumes the code", func(t *testing.T) {
		t.Parallel()
		svc, users, mailer, _ := newResetFixture(t)
		account := seedAccount(users, "a@b.com", "oldpass1")

		require.NoError(t, svc.RequestReset(ctx, "a@b.com"))
		code := codeFrom(t, mailer)

		require.NoError(t, svc.VerifyCode(ctx, "a@b.com", code))
		require.NoError(t, svc.CompleteReset(ctx, "a@b.com", code, "newpass1"))

		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("newpass1")))
		require.Error(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("oldpass1")))

		// The challenge is gone; the code cannot be replayed.
		require.ErrorIs(t, svc.VerifyCode(ctx, "a@b.com", code), ErrInvalidOrExpiredCode)
		require.ErrorIs(t, svc.CompleteReset(ctx, "a@b.com", code, "another1"), ErrInvalidOrExpiredCode)
	})

	t.Run("verify step is optional", func(t *testing.T) {
		t.Parallel()
		svc, users, mailer, _ := newResetFixture(t)
		account := seedAccount(users, "a@b.com", "oldpass1")

		require.NoError(t, svc.RequestReset(ctx, "a@b.com"))
		require.NoError(t, svc.CompleteReset(ctx, "a@b.com", codeFrom(t, mailer), "newpass1"))
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("newpass1")))
	})

	t.Run("weak password leaves account and challenge untouched", func(t *testing.T) {
		t.Parallel()
		svc, users, mailer, _ := newResetFixture(t)
		account := seedAccount(users, "a@b.com", "oldpass1")
		before := account.PasswordHash

		require.NoError(t, svc.RequestReset(ctx, "a@b.com"))
		code := codeFrom(t, mailer)

		require.ErrorIs(t, svc.CompleteReset(ctx, "a@b.com", code, "short"), ErrWeakPassword)
		require.Equal(t, before, account.PasswordHash)

		// The challenge survived the failed attempt.
		require.NoError(t, svc.CompleteReset(ctx, "a@b.com", code, "longenough"))
	})

	t.Run("wrong code beats weak password", func(t *testing.T) {
		t.Parallel()
		svc, users, mailer, _ := newResetFixture(t)
		seedAccount(users, "a@b.com", "oldpass1")
		require.NoError(t, svc.RequestReset(ctx, "a@b.com"))

		wrong := "000000"
		if codeFrom(t, mailer) == wrong {
			wrong = "000001"
		}
		require.ErrorIs(t, svc.CompleteReset(ctx, "a@b.com", wrong, "short"), ErrInvalidOrExpiredCode)
	})

	t.Run("no challenge outstanding", func(t *testing.T) {
		t.Parallel()
		svc, users, _, _ := newResetFixture(t)
		seedAccount(users, "a@b.com", "oldpass1")

		require.ErrorIs(t, svc.CompleteReset(ctx, "a@b.com", "123456", "newpass1"), ErrInvalidOrExpiredCode)
	})
}
