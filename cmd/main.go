// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mergington/activities/internal/config"
	"github.com/mergington/activities/internal/handler"
	"github.com/mergington/activities/internal/logging"
	"github.com/mergington/activities/internal/metrics"
	"github.com/mergington/activities/internal/registry"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "activities",
		Short:        "Mergington High School extracurricular activity signup service",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newSeedCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var port, staticDir, seedFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("static-dir") {
				cfg.StaticDir = staticDir
			}
			if cmd.Flags().Changed("seed-file") {
				cfg.SeedFile = seedFile
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "8080", "port to listen on (overrides PORT)")
	cmd.Flags().StringVar(&staticDir, "static-dir", "./static", "directory served under /static/ (overrides STATIC_DIR)")
	cmd.Flags().StringVar(&seedFile, "seed-file", "", "YAML seed file, built-in catalogue when empty (overrides SEED_FILE)")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var seedFile string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Validate the seed catalogue and print it as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := registry.LoadSeed(seedFile)
			if err != nil {
				return err
			}
			return registry.MarshalSeed(cmd.OutOrStdout(), seed)
		},
	}
	cmd.Flags().StringVar(&seedFile, "seed-file", "", "YAML seed file, built-in catalogue when empty")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	// ── 1. Build the registry ─────────────────────────────────────────────
	seed, err := registry.LoadSeed(cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	roster, err := metrics.NewRoster()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	reg, err := registry.New(seed,
		registry.WithPolicy(cfg.Policy),
		registry.WithRecorder(roster),
	)
	if err != nil {
		return err
	}
	logger.Info("registry loaded",
		"activities", len(seed.Activities),
		"enforce_capacity", cfg.Policy.EnforceCapacity,
		"reject_duplicates", cfg.Policy.RejectDuplicates,
	)

	// ── 2. Build the router ───────────────────────────────────────────────
	router := handler.NewRouter(reg, logger, handler.RouterConfig{
		StaticDir: cfg.StaticDir,
		Metrics:   roster.Handler(),
	})

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
