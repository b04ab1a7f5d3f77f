package stores

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisChallengeStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisChallengeStore(client, 10*time.Minute), mr
}

func TestRedisChallengeStoreContract(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("issue then verify", func(t *testing.T) {
		store, _ := newRedisStore(t)

		code, err := store.Issue(ctx, "a@b.com")
		require.NoError(t, err)
		require.Len(t, code, 6)

		ok, err := store.Verify(ctx, "a@b.com", code)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = store.Verify(ctx, "a@b.com", "000000")
		if code == "000000" {
			t.Skip("generated the probe code")
		}
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("unknown email", func(t *testing.T) {
		store, _ := newRedisStore(t)

		ok, err := store.Verify(ctx, "nobody@example.com", "123456")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("verify does not consume", func(t *testing.T) {
		store, _ := newRedisStore(t)

		code, err := store.Issue(ctx, "a@b.com")
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			ok, err := store.Verify(ctx, "a@b.com", code)
			require.NoError(t, err)
			require.True(t, ok)
		}
	})

	t.Run("consume deletes and is idempotent", func(t *testing.T) {
		store, _ := newRedisStore(t)

		code, err := store.Issue(ctx, "a@b.com")
		require.NoError(t, err)

		require.NoError(t, store.Consume(ctx, "a@b.com"))
		require.NoError(t, store.Consume(ctx, "a@b.com"))

		ok, err := store.Verify(ctx, "a@b.com", code)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("reissue overwrites and resets the TTL", func(t *testing.T) {
		store, mr := newRedisStore(t)
		store.genCode = sequenceCodes("111111", "222222")

		_, err := store.Issue(ctx, "a@b.com")
		require.NoError(t, err)

		mr.FastForward(6 * time.Minute)

		_, err = store.Issue(ctx, "a@b.com")
		require.NoError(t, err)

		mr.FastForward(6 * time.Minute) // past the first TTL, within the second

		ok, err := store.Verify(ctx, "a@b.com", "111111")
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = store.Verify(ctx, "a@b.com", "222222")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("expiry is enforced by key TTL", func(t *testing.T) {
		store, mr := newRedisStore(t)

		code, err := store.Issue(ctx, "a@b.com")
		require.NoError(t, err)

		mr.FastForward(10 * time.Minute)

		ok, err := store.Verify(ctx, "a@b.com", code)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func sequenceCodes(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code, nil
	}
}
