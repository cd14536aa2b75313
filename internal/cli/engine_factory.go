package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/aretw0/sinew"
	"github.com/aretw0/sinew/pkg/adapters/redis"
	"github.com/aretw0/sinew/pkg/domain"
	"github.com/aretw0/sinew/pkg/observability"
)

// EngineOptions selects where assets come from and how the engine logs.
type EngineOptions struct {
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	Prune         bool
	Debug         bool
	// Hooks are combined with the debug log hooks.
	Hooks domain.LifecycleHooks
}

// CreateEngine initializes a sinew engine with standard CLI conventions.
// A redis address takes precedence over the directory. The returned close
// function releases the store connection.
func CreateEngine(opts EngineOptions, logger *slog.Logger) (*sinew.Engine, func(), error) {
	hooks := opts.Hooks
	if opts.Debug {
		hooks = observability.Combine(hooks, observability.LogHooks(logger))
	}
	engineOpts := []sinew.Option{
		sinew.WithLogger(logger),
		sinew.WithPrune(opts.Prune),
		sinew.WithLifecycleHooks(hooks),
	}

	closer := func() {}
	if opts.RedisAddr != "" {
		var storeOpts []redis.Option
		if opts.RedisPrefix != "" {
			storeOpts = append(storeOpts, redis.WithPrefix(opts.RedisPrefix))
		}
		store := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, storeOpts...)
		closer = func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing redis store", "err", err)
			}
		}
		engineOpts = append(engineOpts, sinew.WithLoader(store))
	}

	engine, err := sinew.New(opts.Dir, engineOpts...)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, closer, nil
}

// determineEntryPoint picks the asset to run when none is named: "main",
// then "index", then an asset named after the directory, then the only asset.
func determineEntryPoint(assets []string, dir string) string {
	candidates := []string{"main", "index"}
	if dir != "" {
		if abs, err := filepath.Abs(dir); err == nil {
			candidates = append(candidates, filepath.Base(abs))
		}
	}
	for _, c := range candidates {
		if slices.Contains(assets, c) {
			return c
		}
	}
	if len(assets) == 1 {
		return assets[0]
	}
	return "main"
}
