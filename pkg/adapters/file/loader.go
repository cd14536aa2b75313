package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/sinew/pkg/domain"
)

// extensions are tried in order when resolving an asset name.
var extensions = []string{".yaml", ".yml"}

// Loader implements ports.AssetStore over a directory of YAML documents.
// The asset name is the slash separated path relative to the root, without extension.
type Loader struct {
	root string
}

// New creates a loader rooted at dir.
func New(dir string) *Loader {
	return &Loader{root: dir}
}

// Root returns the directory served by the loader.
func (l *Loader) Root() string { return l.root }

func (l *Loader) path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid asset name %q", name)
	}
	return filepath.Join(l.root, clean), nil
}

// GetAsset reads <root>/<name>.yaml (or .yml).
func (l *Loader) GetAsset(_ context.Context, name string) ([]byte, error) {
	base, err := l.path(name)
	if err != nil {
		return nil, err
	}
	for _, ext := range extensions {
		data, err := os.ReadFile(base + ext)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read asset %s: %w", name, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, name)
}

// ListAssets walks the root directory. Hidden directories are skipped.
func (l *Loader) ListAssets(_ context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		name, ok := l.assetName(path)
		if ok {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (l *Loader) assetName(path string) (string, bool) {
	ext := filepath.Ext(path)
	if ext != ".yaml" && ext != ".yml" {
		return "", false
	}
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, ext)), true
}

// PutAsset writes <root>/<name>.yaml atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (l *Loader) PutAsset(_ context.Context, name string, data []byte) error {
	base, err := l.path(name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(base)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure asset directory: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(dir, ".tmp-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	// A .yml twin would shadow nothing but confuse ListAssets.
	_ = os.Remove(base + ".yml")
	if err := os.Rename(tmpPath, base+".yaml"); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// DeleteAsset removes the document of name.
func (l *Loader) DeleteAsset(_ context.Context, name string) error {
	base, err := l.path(name)
	if err != nil {
		return err
	}
	removed := false
	for _, ext := range extensions {
		err := os.Remove(base + ext)
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("failed to delete asset %s: %w", name, err)
		}
	}
	if !removed {
		return fmt.Errorf("%w: %s", domain.ErrAssetNotFound, name)
	}
	return nil
}
