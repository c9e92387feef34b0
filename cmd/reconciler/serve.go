package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lead-reconciliation/internal/handlers"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the reconciliation HTTP API",
		RunE: withApp(opts, func(ctx context.Context, a *app, _ []string) error {
			return serve(ctx, a)
		}),
	}
}

func serve(ctx context.Context, a *app) error {
	auth := a.cfg.Auth
	if auth.AdminPassword == "" || auth.SalesPassword == "" {
		a.logger.Warn("basic auth password not set, the guarded routes will reject every request",
			zap.Bool("admin_configured", auth.AdminPassword != ""),
			zap.Bool("sales_configured", auth.SalesPassword != ""))
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler().RegisterRoutes(mux)
	handlers.NewDealsHandler(a.uc, a.logger.Named("http")).
		RegisterRoutes(mux, handlers.NewBasicAuth(auth.AdminUser, auth.AdminPassword, "Deals", a.logger))
	handlers.NewReportsHandler(a.uc, a.logger.Named("http")).
		RegisterRoutes(mux, handlers.NewBasicAuth(auth.SalesUser, auth.SalesPassword, "Sales Report", a.logger))

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      mux,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
