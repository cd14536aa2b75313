package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/sinew/pkg/domain"
)

// Store implements ports.AssetStore and ports.Watchable in memory.
// Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers []chan string
}

// NewStore creates a new in-memory store holding assets (name to YAML document).
func NewStore(assets map[string]string) *Store {
	s := &Store{data: make(map[string][]byte, len(assets))}
	for name, doc := range assets {
		s.data[name] = []byte(doc)
	}
	return s
}

// GetAsset returns a copy of the asset so callers can't mutate the store.
func (s *Store) GetAsset(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, name)
	}
	return append([]byte(nil), data...), nil
}

// ListAssets returns all asset names.
func (s *Store) ListAssets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names) // Deterministic order
	return names, nil
}

// PutAsset stores data under name and notifies watchers.
func (s *Store) PutAsset(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	s.data[name] = append([]byte(nil), data...)
	s.mu.Unlock()
	s.notify(name)
	return nil
}

// DeleteAsset removes an asset and notifies watchers.
func (s *Store) DeleteAsset(_ context.Context, name string) error {
	s.mu.Lock()
	if _, ok := s.data[name]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrAssetNotFound, name)
	}
	delete(s.data, name)
	s.mu.Unlock()
	s.notify(name)
	return nil
}

// Watch reports every PutAsset and DeleteAsset until ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 16)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (s *Store) notify(name string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.watchers {
		select {
		case ch <- name:
		default:
			// Slow watcher; a reload is already pending.
		}
	}
}
