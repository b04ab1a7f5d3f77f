package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/blueskyapp/social-api/config"
	"github.com/blueskyapp/social-api/internal/events"
	"github.com/blueskyapp/social-api/internal/utils"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserStore, *utils.JWTService) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwtService := utils.NewJWTServiceFromKeys(key, config.JWTConfig{
		AccessTokenExpiry:  15,
		RefreshTokenExpiry: 7,
	})

	users := newFakeUserStore()
	svc := NewAuthService(users, jwtService, events.NewPublisher(nil, config.KafkaTopics{}))
	return svc, users, jwtService
}

func TestAuthService_Signup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates account and issues tokens", func(t *testing.T) {
		t.Parallel()
		svc, _, jwtService := newAuthFixture(t)

		user, tokens, err := svc.Signup(ctx, "Ada Lovelace", "ada", "ada@example.com", "secret1")
		require.NoError(t, err)
		require.False(t, user.ID.IsZero())
		require.Equal(t, "ada", user.Username)
		require.NotEqual(t, "secret1", user.PasswordHash)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))

		require.Equal(t, "Bearer", tokens.TokenType)
		claims, err := jwtService.ValidateAccessToken(tokens.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "ada", claims.Username)
		require.Equal(t, user.ID.Hex(), claims.Subject)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newAuthFixture(t)

		for _, email := range []string{"no-at-sign", "two@@example.com ", "spaces in@example.com", "missing@tld"} {
			_, _, err := svc.Signup(ctx, "Ada", "ada", email, "secret1")
			require.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
		}
	})

	t.Run("rejects taken username", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newAuthFixture(t)

		_, _, err := svc.Signup(ctx, "Ada", "ada", "ada@example.com", "secret1")
		require.NoError(t, err)

		_, _, err = svc.Signup(ctx, "Other", "ada", "other@example.com", "secret1")
		require.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("rejects taken email", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newAuthFixture(t)

		_, _, err := svc.Signup(ctx, "Ada", "ada", "ada@example.com", "secret1")
		require.NoError(t, err)

		_, _, err = svc.Signup(ctx, "Other", "other", "ada@example.com", "secret1")
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("rejects short password", func(t *testing.T) {
		t.Parallel()
		svc, users, _ := newAuthFixture(t)

		_, _, err := svc.Signup(ctx, "Ada", "ada", "ada@example.com", "five5")
		require.ErrorIs(t, err, ErrWeakPassword)
		require.Empty(t, users.users)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newAuthFixture(t)
		_, _, err := svc.Signup(ctx, "Ada", "ada", "ada@example.com", "secret1")
		require.NoError(t, err)

		user, tokens, err := svc.Login(ctx, "ada", "secret1")
		require.NoError(t, err)
		require.Equal(t, "ada", user.Username)
		require.NotEmpty(t, tokens.AccessToken)
		require.NotEmpty(t, tokens.RefreshToken)
	})

	t.Run("wrong password and unknown username report the same error", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newAuthFixture(t)
		_, _, err := svc.Signup(ctx, "Ada", "ada", "ada@example.com", "secret1")
		require.NoError(t, err)

		_, _, err = svc.Login(ctx, "ada", "wrongpass")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, _, err = svc.Login(ctx, "nobody", "secret1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid refresh token issues a new pair", func(t *testing.T) {
		t.Parallel()
		svc, _, jwtService := newAuthFixture(t)
		_, tokens, err := svc.Signup(ctx, "Ada", "ada", "ada@example.com", "secret1")
		require.NoError(t, err)

		user, fresh, err := svc.Refresh(ctx, tokens.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, "ada", user.Username)
		require.NotEmpty(t, fresh.RefreshToken)

		claims, err := jwtService.ValidateAccessToken(fresh.AccessToken)
		require.NoError(t, err)
		require.Equal(t, user.ID.Hex(), claims.Subject)
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newAuthFixture(t)

		_, _, err := svc.Refresh(ctx, "not-a-token")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejects access token in place of refresh token", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newAuthFixture(t)
		_, tokens, err := svc.Signup(ctx, "Ada", "ada", "ada@example.com", "secret1")
		require.NoError(t, err)

		_, _, err = svc.Refresh(ctx, tokens.AccessToken)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejects token for a deleted account", func(t *testing.T) {
		t.Parallel()
		svc, users, _ := newAuthFixture(t)
		user, tokens, err := svc.Signup(ctx, "Ada", "ada", "ada@example.com", "secret1")
		require.NoError(t, err)

		delete(users.users, user.ID)

		_, _, err = svc.Refresh(ctx, tokens.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_Me(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, users, _ := newAuthFixture(t)
	account := seedAccount(users, "ada@example.com", "secret1")

	user, err := svc.Me(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, account.ID, user.ID)

	_, err = svc.Me(ctx, primitive.NewObjectID())
	require.ErrorIs(t, err, ErrAccountNotFound)
}
