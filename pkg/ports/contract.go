package ports

import (
	"context"
	"testing"

	"github.com/aretw0/sinew/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAssetLoaderContract verifies that an AssetLoader serves exactly setup.
func RunAssetLoaderContract(t *testing.T, loader AssetLoader, setup map[string][]byte) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetAsset", func(t *testing.T) {
		for name, want := range setup {
			got, err := loader.GetAsset(ctx, name)
			require.NoError(t, err, "asset %s", name)
			assert.Equal(t, string(want), string(got))
		}
	})

	t.Run("GetAsset NotFound", func(t *testing.T) {
		_, err := loader.GetAsset(ctx, "non-existent-asset")
		assert.ErrorIs(t, err, domain.ErrAssetNotFound)
	})

	t.Run("ListAssets", func(t *testing.T) {
		names, err := loader.ListAssets(ctx)
		require.NoError(t, err)
		assert.Len(t, names, len(setup))
		assert.IsNonDecreasing(t, names)
		for name := range setup {
			assert.Contains(t, names, name)
		}
	})
}

// RunAssetStoreContract verifies the write operations of an AssetStore. The
// store should be empty.
func RunAssetStoreContract(t *testing.T, store AssetStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, store.PutAsset(ctx, "contract", []byte("name: contract\n")))
		got, err := store.GetAsset(ctx, "contract")
		require.NoError(t, err)
		assert.Equal(t, "name: contract\n", string(got))

		require.NoError(t, store.PutAsset(ctx, "contract", []byte("name: replaced\n")))
		got, err = store.GetAsset(ctx, "contract")
		require.NoError(t, err)
		assert.Equal(t, "name: replaced\n", string(got))
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.PutAsset(ctx, "contract-b", []byte("b")))
		require.NoError(t, store.PutAsset(ctx, "contract-a", []byte("a")))
		names, err := store.ListAssets(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"contract", "contract-a", "contract-b"}, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.DeleteAsset(ctx, "contract"))
		_, err := store.GetAsset(ctx, "contract")
		assert.ErrorIs(t, err, domain.ErrAssetNotFound)
		assert.ErrorIs(t, store.DeleteAsset(ctx, "contract"), domain.ErrAssetNotFound)
	})
}
