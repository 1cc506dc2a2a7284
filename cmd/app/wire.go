//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/disha/internal/bootstrap"
	"github.com/yanqian/disha/internal/domain/aid"
	"github.com/yanqian/disha/internal/domain/alerts"
	"github.com/yanqian/disha/internal/domain/directory"
	"github.com/yanqian/disha/internal/domain/geo"
	"github.com/yanqian/disha/internal/domain/nationwide"
	"github.com/yanqian/disha/internal/domain/prediction"
	"github.com/yanqian/disha/internal/domain/report"
	"github.com/yanqian/disha/internal/domain/session"
	"github.com/yanqian/disha/internal/domain/submission"
	"github.com/yanqian/disha/internal/infra/backend"
	"github.com/yanqian/disha/internal/infra/config"
	"github.com/yanqian/disha/internal/infra/geocoding"
	"github.com/yanqian/disha/internal/infra/weather/openweather"
	"github.com/yanqian/disha/internal/infra/weather/visualcrossing"
	httpiface "github.com/yanqian/disha/internal/interface/http"
	"github.com/yanqian/disha/pkg/logger"
	"github.com/yanqian/disha/pkg/metrics"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewMetrics,
		provideClock,
		provideAlertsConfig,
		provideGeoConfig,
		provideNationwideConfig,
		providePredictionConfig,
		provideSessionConfig,
		provideAidConfig,
		provideReportConfig,
		provideDirectoryConfig,
		provideGenerator,
		provideNationwideGenerator,
		providePredictionGenerator,
		provideOpenWeather,
		provideVisualCrossing,
		provideGoogleMaps,
		provideReverseGeocoder,
		provideBackendClient,
		provideKVStore,
		provideSubmissionRepository,
		provideAidCredentials,
		provideReportCredentials,
		alerts.NewService,
		geo.NewService,
		nationwide.NewService,
		prediction.NewService,
		session.NewService,
		submission.NewService,
		aid.NewService,
		report.NewService,
		directory.New,
		wire.Bind(new(alerts.WeatherClient), new(*openweather.Client)),
		wire.Bind(new(alerts.ConditionsClient), new(*visualcrossing.Client)),
		wire.Bind(new(alerts.Geocoder), new(*geocoding.CachedGeocoder)),
		wire.Bind(new(geo.PlacesClient), new(*geocoding.GoogleMaps)),
		wire.Bind(new(geo.ReverseGeocoder), new(*geocoding.CachedGeocoder)),
		wire.Bind(new(prediction.WeatherClient), new(*openweather.Client)),
		wire.Bind(new(prediction.Geocoder), new(*openweather.Client)),
		wire.Bind(new(session.Backend), new(*backend.Client)),
		wire.Bind(new(aid.Backend), new(*backend.Client)),
		wire.Bind(new(report.Backend), new(*backend.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
