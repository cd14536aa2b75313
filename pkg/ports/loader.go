package ports

import "context"

// AssetLoader defines how the engine retrieves graph and machine documents.
// This allows the storage layer (files, Redis, memory) to be decoupled.
type AssetLoader interface {
	// GetAsset retrieves the raw document of an asset by name.
	// It returns domain.ErrAssetNotFound for unknown names.
	GetAsset(ctx context.Context, name string) ([]byte, error)

	// ListAssets returns the names of all available assets in sorted order.
	// This is used for introspection and tooling (e.g. 'sinew validate').
	ListAssets(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that receives the name of each changed asset.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
