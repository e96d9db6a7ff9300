package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/astrochart/internal/domain/chart"
	"github.com/yanqian/astrochart/internal/infra/artifact"
	"github.com/yanqian/astrochart/internal/infra/chartrepo"
	"github.com/yanqian/astrochart/internal/infra/config"
	"github.com/yanqian/astrochart/internal/infra/ephemeris/prokerala"
	"github.com/yanqian/astrochart/internal/infra/ephemeriscache"
	"github.com/yanqian/astrochart/internal/infra/render"
	"github.com/yanqian/astrochart/pkg/metrics"
)

func provideUsage() *metrics.ProviderUsage {
	return &metrics.ProviderUsage{}
}

func provideCacheBackend(cfg *config.Config, logger *slog.Logger) ephemeriscache.Backend {
	redis := cfg.Ephemeris.Cache.Redis
	if redis.Enabled {
		opt, err := buildValkeyOptions(redis.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return ephemeriscache.NewMemoryCache()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return ephemeriscache.NewMemoryCache()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
		} else {
			logger.Info("ephemeris valkey cache enabled", "addr", redis.Addr)
			return ephemeriscache.NewValkeyCache(client, "ephemeris")
		}
	}
	return ephemeriscache.NewMemoryCache()
}

func provideResponseCache(backend ephemeriscache.Backend) chart.ResponseCache {
	return backend
}

func provideEphemerisClient(cfg *config.Config, cache chart.ResponseCache, usage *metrics.ProviderUsage, logger *slog.Logger) *prokerala.Client {
	e := cfg.Ephemeris
	return prokerala.NewClient(prokerala.Config{
		BaseURL:           e.BaseURL,
		TokenURL:          e.TokenURL,
		ClientID:          e.ClientID,
		ClientSecret:      e.ClientSecret,
		Ayanamsa:          e.Ayanamsa,
		Timeout:           e.Timeout,
		RequestsPerSecond: e.RequestsPerSecond,
		Burst:             e.Burst,
	}, cache, usage, logger)
}

func provideRenderer(cfg *config.Config, logger *slog.Logger) *render.Renderer {
	return render.NewRenderer(render.Config{
		Width:   cfg.Render.Width,
		Height:  cfg.Render.Height,
		Workers: cfg.Render.Workers,
	}, logger)
}

func provideArtifactStore(cfg *config.Config, logger *slog.Logger) (chart.ArtifactStore, error) {
	a := cfg.Artifacts
	if a.Backend != config.ArtifactBackendR2 {
		logger.Info("artifact backend is memory, charts are not persisted across restarts")
		return artifact.NewMemoryStore(a.PublicBaseURL), nil
	}
	store, err := artifact.NewR2Store(artifact.R2Config{
		Endpoint:      a.Endpoint,
		AccessKey:     a.AccessKey,
		SecretKey:     a.SecretKey,
		Bucket:        a.Bucket,
		Region:        a.Region,
		Prefix:        a.Prefix,
		PublicBaseURL: a.PublicBaseURL,
		PresignExpiry: a.PresignExpiry,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("r2 artifact store enabled", "bucket", a.Bucket)
	return store, nil
}

func provideChartRepository(cfg *config.Config, logger *slog.Logger) chart.Repository {
	fallback := chartrepo.NewMemoryRepository()
	pg := cfg.Charts.Postgres
	dsn := strings.TrimSpace(pg.DSN)
	if dsn == "" {
		logger.Info("charts postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if pg.MaxConns > 0 {
		poolConfig.MaxConns = pg.MaxConns
	}
	if pg.MinConns > 0 {
		poolConfig.MinConns = pg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	repo := chartrepo.NewPostgresRepository(pool)
	if err := repo.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("charts schema setup failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("charts postgres repository enabled")
	return repo
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
