package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/sinew/pkg/ports"
)

// Sync copies every asset of src into dst and returns the copied names.
// Nothing is deleted from dst.
func Sync(ctx context.Context, src ports.AssetLoader, dst ports.AssetStore, logger *slog.Logger) ([]string, error) {
	names, err := src.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	copied := make([]string, 0, len(names))
	for _, name := range names {
		data, err := src.GetAsset(ctx, name)
		if err != nil {
			return copied, fmt.Errorf("read %q: %w", name, err)
		}
		if err := dst.PutAsset(ctx, name, data); err != nil {
			return copied, fmt.Errorf("write %q: %w", name, err)
		}
		logger.Debug("asset synced", "asset", name, "bytes", len(data))
		copied = append(copied, name)
	}
	return copied, nil
}
