package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/windsim/internal/adapter/http"
	"github.com/couchcryptid/windsim/internal/config"
	"github.com/couchcryptid/windsim/internal/observability"
	"github.com/couchcryptid/windsim/internal/pipeline"
	"github.com/couchcryptid/windsim/internal/simulation"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve simulations over HTTP",
		Long: `Serve POST /v1/simulations and GET /v1/simulations/{id} together with
/healthz, /readyz and /metrics until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, closeStore, err := openRunStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("run store close error", "error", err)
		}
	}()

	outs, err := openOutputs(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer outs.close(logger)

	sinks := append([]pipeline.Sink{store}, outs.sinks...)
	p := pipeline.New(simulation.NewSimulator(logger), sinks, logger, metrics, cfg.SinkMaxAttempts)

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, p, store, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("http server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
