package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/sinew/pkg/adapters/memory"
	"github.com/aretw0/sinew/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.AssetStore = (*memory.Store)(nil)
	_ ports.Watchable  = (*memory.Store)(nil)
)

func TestMemoryStore_LoaderContract(t *testing.T) {
	setup := map[string][]byte{
		"walk": []byte("kind: graph\nname: walk\n"),
		"run":  []byte("kind: graph\nname: run\n"),
	}
	docs := make(map[string]string, len(setup))
	for k, v := range setup {
		docs[k] = string(v)
	}
	ports.RunAssetLoaderContract(t, memory.NewStore(docs), setup)
}

func TestMemoryStore_StoreContract(t *testing.T) {
	ports.RunAssetStoreContract(t, memory.NewStore(nil))
}

func TestMemoryStore_Watch(t *testing.T) {
	store := memory.NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, store.PutAsset(ctx, "walk", []byte("x")))
	select {
	case name := <-ch:
		assert.Equal(t, "walk", name)
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}

	cancel()
	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed")
	}
}
