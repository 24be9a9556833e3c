package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisStore(t *testing.T, key string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), key)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore_LoadMissing(t *testing.T) {
	store, _ := newMiniRedisStore(t, "")

	state, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, state)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := newMiniRedisStore(t, "pets:test")
	ctx := context.Background()
	want := sampleState()

	require.NoError(t, store.Save(ctx, want))
	assert.True(t, mr.Exists("pets:test"))
	assert.False(t, mr.Exists(DefaultRedisKey))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Health, got.Health)
	assert.Equal(t, want.EvolutionStage, got.EvolutionStage)
	assert.Equal(t, want.Points, got.Points)
	assert.Equal(t, want.Streak, got.Streak)
	require.Len(t, got.EventHistory, 2)
	assert.Equal(t, want.EventHistory[0].ID, got.EventHistory[0].ID)

	want.Health = 10
	require.NoError(t, store.Save(ctx, want))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Health)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	store, mr := newMiniRedisStore(t, "")
	require.NoError(t, mr.Set(DefaultRedisKey, "{not json"))

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}

func TestRedisStore_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisStore(client, "")
	defer store.Close()

	assert.Equal(t, DefaultRedisKey, store.key)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := store.Load(ctx)
	assert.Error(t, err)
	assert.Error(t, store.Save(ctx, sampleState()))
}
