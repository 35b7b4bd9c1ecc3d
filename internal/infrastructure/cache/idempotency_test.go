package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	t.Run("first claim wins", func(t *testing.T) {
		ok, err := store.Claim(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Claim(ctx, "k1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("release frees the key", func(t *testing.T) {
		_, err := store.Claim(ctx, "k2", time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "k2"))

		ok, err := store.Claim(ctx, "k2", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired keys are claimable and swept", func(t *testing.T) {
		_, err := store.Claim(ctx, "k3", time.Minute)
		require.NoError(t, err)

		now = now.Add(2 * time.Minute)
		ok, err := store.Claim(ctx, "k3", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		now = now.Add(2 * time.Minute)
		store.cleanup()
		assert.Zero(t, store.Size())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		s := NewInMemoryIdempotencyStore(0)
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
	})
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisIdempotencyStore(client, "")

	ok, err := store.Claim(ctx, "order-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("idempotency:order-1"))

	ok, err = store.Claim(ctx, "order-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = store.Claim(ctx, "order-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired keys can be claimed again")

	require.NoError(t, store.Release(ctx, "order-1"))
	assert.False(t, mr.Exists("idempotency:order-1"))

	mr.Close()
	_, err = store.Claim(ctx, "order-2", time.Minute)
	assert.Error(t, err)
}
