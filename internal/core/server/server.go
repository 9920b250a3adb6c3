// Package server wires the HTTP routes and runs the listener.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avolkov/sentinel-gateway/internal/core/config"
	"github.com/avolkov/sentinel-gateway/internal/core/middleware"
	"github.com/avolkov/sentinel-gateway/internal/core/router"
	"github.com/avolkov/sentinel-gateway/internal/health"
	"github.com/avolkov/sentinel-gateway/internal/snapshot"
)

// Deps carries everything the routes need.
type Deps struct {
	Render    router.RenderHandler
	Snapshots *snapshot.Store
	Ready     health.ReadinessReporter
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, deps Deps) error {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(deps.Ready))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Post("/get-image", router.HandleGetImage(logger, deps.Render))
	r.Get("/download-image", router.HandleDownload(logger, deps.Snapshots))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
