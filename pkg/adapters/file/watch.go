package file

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow groups the burst of events an editor emits for one save.
const debounceWindow = 100 * time.Millisecond

// Watch reports changed asset names until ctx is done. Directories created
// after Watch started are watched too.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := l.addTree(w, l.root); err != nil {
		_ = w.Close()
		return nil, err
	}

	out := make(chan string, 64)
	go func() {
		defer close(out)
		defer w.Close()

		pending := make(map[string]bool)
		timer := time.NewTimer(debounceWindow)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						_ = l.addTree(w, ev.Name)
						continue
					}
				}
				if strings.HasPrefix(filepath.Base(ev.Name), ".tmp-") {
					continue
				}
				if name, ok := l.assetName(ev.Name); ok {
					pending[name] = true
					timer.Reset(debounceWindow)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("asset watcher error", "dir", l.root, "error", err)
			case <-timer.C:
				for name := range pending {
					select {
					case out <- name:
					case <-ctx.Done():
						return
					}
				}
				clear(pending)
			}
		}
	}()
	return out, nil
}

func (l *Loader) addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != l.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
