package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/sinew"
)

// runWatch runs sim once and again after every asset change. Failing runs are
// logged and reported, not fatal: the next change may fix them.
func runWatch(ctx context.Context, engine *sinew.Engine, sim *simulation, logger *slog.Logger) error {
	changes, err := engine.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", sim.opts.Asset, err)
	}

	rerun := func() {
		if err := sim.run(ctx); err != nil && !IsInterrupted(err) {
			logger.Error("run failed", "asset", sim.opts.Asset, "err", err)
			fmt.Fprintf(sim.out, ">>> %s: %v\n", sim.opts.Asset, err)
		}
	}

	rerun()
	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-changes:
			if !ok {
				return nil
			}
			fmt.Fprintf(sim.out, ">>> %s changed, re-running %s\n", name, sim.opts.Asset)
			rerun()
		}
	}
}
