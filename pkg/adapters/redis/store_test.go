package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/sinew/pkg/adapters/redis"
	"github.com/aretw0/sinew/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.AssetStore = (*redis.Store)(nil)
	_ ports.Watchable  = (*redis.Store)(nil)
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_StoreContract(t *testing.T) {
	_, client := newClient(t)
	ports.RunAssetStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_LoaderContract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"))
	setup := map[string][]byte{
		"idle": []byte("kind: graph\nname: idle\n"),
		"walk": []byte("kind: graph\nname: walk\n"),
	}
	for name, data := range setup {
		require.NoError(t, store.PutAsset(context.Background(), name, data))
	}
	ports.RunAssetLoaderContract(t, store, setup)
}

func TestRedisStore_Watch(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Watch(ctx)
	require.NoError(t, err)
	require.NoError(t, store.PutAsset(ctx, "walk", []byte("x")))

	select {
	case name := <-ch:
		assert.Equal(t, "walk", name)
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestLocker_Contention(t *testing.T) {
	_, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "walk", time.Minute)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "walk", time.Minute)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)

	require.NoError(t, unlock(ctx))
	again, err := locker.Lock(ctx, "walk", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLocker_ExpiresAfterTTL(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	_, err := locker.Lock(ctx, "run", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	short, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlock, err := locker.Lock(short, "run", time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}
