package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionStoreExpiresFlags(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	store := NewRedisSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "s1", time.Minute))
	require.NoError(t, store.Create(ctx, "s2", time.Minute))

	ok, err := store.Exists(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, mini.Exists(sessionKeyPrefix+"s1"))

	require.NoError(t, store.Delete(ctx, "s1"))
	ok, err = store.Exists(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok)

	mini.FastForward(2 * time.Minute)
	ok, err = store.Exists(ctx, "s2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemorySessionStoreExpiresFlags(t *testing.T) {
	store := NewMemorySessionStore().(*memorySessionStore)
	current := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "s1", time.Minute))
	ok, err := store.Exists(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)

	current = current.Add(time.Minute)
	ok, err = store.Exists(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Delete(ctx, "unknown"))
}
