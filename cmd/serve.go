package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/mixflow/internal/server"
	"github.com/desertthunder/mixflow/internal/shared"
	"github.com/desertthunder/mixflow/internal/telemetry"
	"github.com/urfave/cli/v3"
)

// Serve runs the diagnostic HTTP server until the context is canceled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if r.queue == nil || r.reporter == nil {
		return fmt.Errorf("%w: diagnostic endpoints not initialized", shared.ErrServiceUnavailable)
	}

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(server.NewStatusHandler(r.queue, r.reporter))
	router.Handle(http.MethodGet, "/metrics", telemetry.Handler())

	r.reporter.Start()
	defer r.reporter.Stop()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	r.logger.Info("diagnostic server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}
