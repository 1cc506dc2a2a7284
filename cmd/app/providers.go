package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/valkey-io/valkey-go"

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
	"github.com/yanqian/disha/internal/infra/kvstore"
	"github.com/yanqian/disha/internal/infra/ledger"
	"github.com/yanqian/disha/internal/infra/llm"
	"github.com/yanqian/disha/internal/infra/upstream"
	"github.com/yanqian/disha/internal/infra/weather/openweather"
	"github.com/yanqian/disha/internal/infra/weather/visualcrossing"
	"github.com/yanqian/disha/pkg/kv"
	"github.com/yanqian/disha/pkg/metrics"
)

func provideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func provideAlertsConfig(cfg *config.Config) alerts.Config {
	return alerts.Config{
		DefaultLocation:  cfg.Geo.DefaultLocation.Name,
		DefaultLatitude:  cfg.Geo.DefaultLocation.Latitude,
		DefaultLongitude: cfg.Geo.DefaultLocation.Longitude,
	}
}

func provideGeoConfig(cfg *config.Config) geo.Config {
	return geo.Config{
		Country:        cfg.Geo.Country,
		Types:          cfg.Geo.Types,
		MinQueryLength: cfg.Geo.MinQueryLength,
		Debounce:       cfg.Geo.Debounce,
	}
}

func provideNationwideConfig(cfg *config.Config) nationwide.Config {
	return nationwide.Config{
		CacheKey:        cfg.Nationwide.CacheKey,
		TTL:             cfg.Nationwide.TTL,
		RefreshInterval: cfg.Nationwide.RefreshInterval,
		RefreshTimeout:  cfg.Nationwide.RefreshTimeout,
		Region:          cfg.Nationwide.Region,
		Prompt:          cfg.Nationwide.Prompt,
	}
}

func providePredictionConfig(cfg *config.Config) prediction.Config {
	return prediction.Config{
		HorizonHours: cfg.Prediction.HorizonHours,
		RadiusKm:     cfg.Prediction.RadiusKm,
	}
}

func provideSessionConfig(cfg *config.Config, logger *slog.Logger) session.Config {
	if cfg.Session.Secret == config.DevSessionSecret {
		logger.Warn("session secret not configured, using development secret")
	}
	return session.Config{
		Secret:   cfg.Session.Secret,
		TokenTTL: cfg.Session.TokenTTL,
		StoreTTL: cfg.Session.StoreTTL,
	}
}

func provideAidConfig(cfg *config.Config) aid.Config {
	return aid.Config{MaxAvatarBytes: cfg.Report.MaxAvatarBytes}
}

func provideReportConfig(cfg *config.Config) report.Config {
	return report.Config{
		MaxImageBytes: cfg.Report.MaxImageBytes,
		MaxVideoBytes: cfg.Report.MaxVideoBytes,
	}
}

func provideDirectoryConfig(cfg *config.Config) directory.Config {
	return cfg.Directory
}

func provideGenerator(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (llm.Generator, error) {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Warn("llm api key not set, nationwide summaries and predictions are disabled")
	}
	return llm.NewGenerator(llm.Config{
		Provider:        llm.Provider(strings.ToLower(cfg.LLM.Provider)),
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		Timeout:         cfg.LLM.Timeout,
	}, m)
}

func provideNationwideGenerator(gen llm.Generator) nationwide.Generator {
	return gen
}

func providePredictionGenerator(gen llm.Generator) prediction.Generator {
	return gen
}

func provideOpenWeather(cfg *config.Config, m *metrics.Metrics) *openweather.Client {
	return openweather.NewClient(cfg.Weather.OpenWeatherAPIKey, cfg.Weather.OpenWeatherBaseURL, upstream.New("openweather", cfg.Weather.Timeout, m))
}

func provideVisualCrossing(cfg *config.Config, m *metrics.Metrics) *visualcrossing.Client {
	return visualcrossing.NewClient(cfg.Weather.VisualCrossingAPIKey, cfg.Weather.VisualCrossingBaseURL, upstream.New("visualcrossing", cfg.Weather.Timeout, m))
}

func provideGoogleMaps(cfg *config.Config, m *metrics.Metrics) *geocoding.GoogleMaps {
	return geocoding.NewGoogleMaps(cfg.Geo.GoogleMapsAPIKey, cfg.Geo.GoogleMapsBaseURL, upstream.New("googlemaps", cfg.Geo.Timeout, m))
}

// provideReverseGeocoder prefers Nominatim and falls back to Google when a
// key is configured, behind one LRU cache.
func provideReverseGeocoder(cfg *config.Config, google *geocoding.GoogleMaps, m *metrics.Metrics) *geocoding.CachedGeocoder {
	chain := geocoding.Fallback{
		geocoding.NewNominatim(cfg.Geo.NominatimBaseURL, upstream.New("nominatim", cfg.Geo.Timeout, m)),
	}
	if strings.TrimSpace(cfg.Geo.GoogleMapsAPIKey) != "" {
		chain = append(chain, google)
	}
	return geocoding.NewCachedGeocoder(chain, cfg.Geo.CacheSize, m)
}

func provideBackendClient(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) *backend.Client {
	return backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, m, logger)
}

func provideAidCredentials(sessions session.Service) aid.Credentials {
	return sessions
}

func provideReportCredentials(sessions session.Service) report.Credentials {
	return sessions
}

func provideKVStore(cfg *config.Config, logger *slog.Logger) (kv.Store, func()) {
	fallback := func() (kv.Store, func()) {
		return kvstore.NewMemoryStore(), func() {}
	}
	if !cfg.Storage.Valkey.Enabled {
		logger.Info("valkey disabled, using memory store")
		return fallback()
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return fallback()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return fallback()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return fallback()
	}
	logger.Info("valkey store enabled", "addr", cfg.Storage.Valkey.Addr)
	return kvstore.NewValkeyStore(client, cfg.Storage.Valkey.Prefix), client.Close
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Storage.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Storage.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Storage.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideSubmissionRepository(cfg *config.Config, logger *slog.Logger) (submission.Repository, func()) {
	fallback := ledger.NewMemoryRepository()
	noop := func() {}
	dsn := strings.TrimSpace(cfg.Storage.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory submission ledger")
		return fallback, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory submission ledger", "error", err)
		return fallback, noop
	}
	if cfg.Storage.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Storage.Postgres.MaxConns
	}
	if cfg.Storage.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Storage.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory submission ledger", "error", err)
		return fallback, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory submission ledger", "error", err)
		pool.Close()
		return fallback, noop
	}
	repo := ledger.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("submission schema setup failed, using memory submission ledger", "error", err)
		pool.Close()
		return fallback, noop
	}
	logger.Info("postgres submission ledger enabled")
	return repo, pool.Close
}
