package ports

import "context"

// AssetStore is an AssetLoader that also accepts writes, used by the HTTP
// API to publish documents.
type AssetStore interface {
	AssetLoader

	// PutAsset creates or replaces an asset.
	PutAsset(ctx context.Context, name string, data []byte) error

	// DeleteAsset removes an asset. Deleting an unknown asset returns domain.ErrAssetNotFound.
	DeleteAsset(ctx context.Context, name string) error
}
