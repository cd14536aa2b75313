package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/sinew/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.AssetStore and ports.Watchable using Redis.
// Documents live under <prefix>doc:<name>; a sorted set indexes the names and a
// pub/sub channel announces changes.
type Store struct {
	client  *backend.Client
	prefix  string
	lockTTL time.Duration
	locker  *Locker
}

type Option func(*Store)

// WithPrefix sets the key prefix for assets.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithLockTTL bounds how long a crashed writer can hold an asset lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.lockTTL = ttl
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client:  client,
		prefix:  "sinew:asset:",
		lockTTL: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(store)
	}
	store.locker = NewLocker(client, store.prefix)
	return store
}

func (s *Store) key(name string) string { return s.prefix + "doc:" + name }

func (s *Store) indexKey() string { return s.prefix + "index" }

func (s *Store) channel() string { return s.prefix + "changes" }

// GetAsset retrieves a document from Redis.
func (s *Store) GetAsset(ctx context.Context, name string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, name)
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// ListAssets returns the indexed names. All members share score 0, so Redis
// returns them in lexical order.
func (s *Store) ListAssets(ctx context.Context) ([]string, error) {
	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return names, nil
}

// PutAsset stores a document, indexes it and publishes its name.
func (s *Store) PutAsset(ctx context.Context, name string, data []byte) error {
	unlock, err := s.locker.Lock(ctx, name, s.lockTTL)
	if err != nil {
		return err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(name), data, 0)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: 0, Member: name})
	pipe.Publish(ctx, s.channel(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// DeleteAsset removes a document and its index entry.
func (s *Store) DeleteAsset(ctx context.Context, name string) error {
	unlock, err := s.locker.Lock(ctx, name, s.lockTTL)
	if err != nil {
		return err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	n, err := s.client.Del(ctx, s.key(name)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAssetNotFound, name)
	}
	pipe := s.client.Pipeline()
	pipe.ZRem(ctx, s.indexKey(), name)
	pipe.Publish(ctx, s.channel(), name)
	_, err = pipe.Exec(ctx)
	return err
}

// Watch subscribes to change announcements until ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	sub := s.client.Subscribe(ctx, s.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
