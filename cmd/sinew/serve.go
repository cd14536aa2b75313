package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/sinew"
	"github.com/aretw0/sinew/internal/cli"
	"github.com/aretw0/sinew/internal/presentation/tui"
	sinewhttp "github.com/aretw0/sinew/pkg/adapters/http"
	"github.com/aretw0/sinew/pkg/observability"
	"github.com/aretw0/sinew/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Start the HTTP server",
	Long:  `Serves the asset library over HTTP: descriptions, diagrams, validation, evaluation, Prometheus metrics and change events.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetString("port")
		watch, _ := cmd.Flags().GetBool("watch")

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)

		opts := engineOptions(cmd, args)
		opts.Hooks = metrics.Hooks()
		engine, closeEngine, err := cli.CreateEngine(opts, logger)
		if err != nil {
			return err
		}
		defer closeEngine()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		handlerOpts := []sinewhttp.Option{
			sinewhttp.WithLogger(logger),
			sinewhttp.WithMetrics(reg),
			sinewhttp.WithVersion(sinew.Version),
		}
		if store, ok := engine.Loader().(ports.AssetStore); ok {
			handlerOpts = append(handlerOpts, sinewhttp.WithStore(store))
		}
		if watch {
			if err := reloadOnChange(ctx, engine); err != nil {
				return err
			}
		}

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           sinewhttp.NewHandler(engine, handlerOpts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server starting", "addr", srv.Addr, "library", engine.Name)
			tui.PrintBanner(cmd.OutOrStdout(), sinew.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Starting Sinew Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("shutdown started", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sinew Server stopped gracefully")
			return nil
		}
	},
}

// reloadOnChange keeps the compiled assets fresh while the server runs.
func reloadOnChange(ctx context.Context, engine *sinew.Engine) error {
	changes, err := engine.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for range changes {
		}
	}()
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload assets when they change")
}
