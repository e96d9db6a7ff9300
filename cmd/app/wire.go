//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/astrochart/internal/bootstrap"
	"github.com/yanqian/astrochart/internal/domain/chart"
	"github.com/yanqian/astrochart/internal/infra/config"
	"github.com/yanqian/astrochart/internal/infra/ephemeris/prokerala"
	"github.com/yanqian/astrochart/internal/infra/render"
	httpiface "github.com/yanqian/astrochart/internal/interface/http"
	"github.com/yanqian/astrochart/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideUsage,
		provideCacheBackend,
		provideResponseCache,
		provideEphemerisClient,
		provideRenderer,
		provideArtifactStore,
		provideChartRepository,
		chart.NewService,
		wire.Bind(new(chart.EphemerisClient), new(*prokerala.Client)),
		wire.Bind(new(chart.Renderer), new(*render.Renderer)),
		wire.Bind(new(httpiface.ProviderStatus), new(*prokerala.Client)),
		httpiface.NewChartHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
