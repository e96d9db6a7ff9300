package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/yanqian/astrochart/internal/infra/config"
	"github.com/yanqian/astrochart/internal/infra/ephemeriscache"
)

// App encapsulates the HTTP server and cache sweeper lifecycle.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	cache  ephemeriscache.Backend
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, cache ephemeriscache.Backend) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, cache: cache}
}

// Run starts the HTTP server and the cache sweeper and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorkers := context.WithCancel(ctx)
	var workers sync.WaitGroup
	defer func() {
		stopWorkers()
		workers.Wait()
	}()

	if a.cache != nil && a.cfg.Ephemeris.Cache.SweepInterval > 0 {
		workers.Add(1)
		go func() {
			defer workers.Done()
			a.logger.Info("cache sweeper starting", "interval", a.cfg.Ephemeris.Cache.SweepInterval)
			a.cache.Run(workerCtx, a.cfg.Ephemeris.Cache.SweepInterval)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
