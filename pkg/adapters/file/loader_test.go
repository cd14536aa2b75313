package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/sinew/pkg/adapters/file"
	"github.com/aretw0/sinew/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.AssetStore = (*file.Loader)(nil)
	_ ports.Watchable  = (*file.Loader)(nil)
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoader_Contract(t *testing.T) {
	dir := t.TempDir()
	setup := map[string][]byte{
		"walk":             []byte("kind: graph\nname: walk\n"),
		"machines/biped":   []byte("kind: machine\nname: biped\n"),
		"transitions/fade": []byte("kind: graph\nname: fade\n"),
	}
	writeFile(t, filepath.Join(dir, "walk.yaml"), string(setup["walk"]))
	writeFile(t, filepath.Join(dir, "machines", "biped.yml"), string(setup["machines/biped"]))
	writeFile(t, filepath.Join(dir, "transitions", "fade.yaml"), string(setup["transitions/fade"]))
	writeFile(t, filepath.Join(dir, "README.md"), "not an asset")
	writeFile(t, filepath.Join(dir, ".git", "config.yaml"), "hidden")

	ports.RunAssetLoaderContract(t, file.New(dir), setup)
}

func TestLoader_StoreContract(t *testing.T) {
	ports.RunAssetStoreContract(t, file.New(t.TempDir()))
}

func TestLoader_RejectsEscapingNames(t *testing.T) {
	l := file.New(t.TempDir())
	_, err := l.GetAsset(context.Background(), "../secret")
	assert.Error(t, err)
	assert.Error(t, l.PutAsset(context.Background(), "/etc/passwd", nil))
}

func TestLoader_Watch(t *testing.T) {
	dir := t.TempDir()
	l := file.New(dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := l.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, l.PutAsset(ctx, "walk", []byte("kind: graph\n")))
	select {
	case name := <-ch:
		assert.Equal(t, "walk", name)
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification")
	}
}
