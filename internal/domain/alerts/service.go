package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/disha/internal/domain/geo"
	apperrors "github.com/yanqian/disha/pkg/errors"
	"github.com/yanqian/disha/pkg/kv"
)

const (
	unknownLocation = "Unknown Location"
	handoffTTL      = 30 * time.Minute
)

// Service exposes alert classification and local condition lookups.
type Service interface {
	Classify(ctx context.Context, readings Readings) ClassifyResponse
	Local(ctx context.Context, req LocalRequest) (LocalResponse, error)
	LastHandoff(ctx context.Context, sessionID string) (Handoff, bool, error)
}

// WeatherClient fetches the current observation at a point.
type WeatherClient interface {
	Current(ctx context.Context, lat, lon float64) (CurrentWeather, error)
}

// ConditionsClient fetches today's forecast elements for a location query.
type ConditionsClient interface {
	AirQuality(ctx context.Context, location string) (AirQuality, error)
	Wind(ctx context.Context, location string) (Wind, error)
	Solar(ctx context.Context, location string) (Solar, error)
}

// Geocoder resolves a point to a place.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (geo.Place, error)
}

type service struct {
	cfg        Config
	weather    WeatherClient
	conditions ConditionsClient
	geocoder   Geocoder
	store      kv.Store
	logger     *slog.Logger
}

// NewService wires up the alerts domain.
func NewService(cfg Config, weather WeatherClient, conditions ConditionsClient, geocoder Geocoder, store kv.Store, logger *slog.Logger) Service {
	return &service{
		cfg:        cfg,
		weather:    weather,
		conditions: conditions,
		geocoder:   geocoder,
		store:      store,
		logger:     logger.With("component", "alerts.service"),
	}
}

func (s *service) Classify(_ context.Context, readings Readings) ClassifyResponse {
	alerts := Classify(readings)
	return ClassifyResponse{Alerts: alerts, HasHighSeverity: HasHighSeverity(alerts)}
}

func (s *service) Local(ctx context.Context, req LocalRequest) (LocalResponse, error) {
	lat, lon := s.cfg.DefaultLatitude, s.cfg.DefaultLongitude
	usingDefault := req.Latitude == nil || req.Longitude == nil
	if !usingDefault {
		lat, lon = *req.Latitude, *req.Longitude
		if err := geo.ValidateCoordinates(lat, lon); err != nil {
			return LocalResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
		}
	}

	res := LocalResponse{Latitude: lat, Longitude: lon}
	if usingDefault {
		res.Location = s.cfg.DefaultLocation
		res.Notice = fmt.Sprintf("Location unavailable. Showing conditions for %s.", s.cfg.DefaultLocation)
	}
	query := fmt.Sprintf("%.6f,%.6f", lat, lon)

	var (
		mu       sync.Mutex
		failures []string
		g        errgroup.Group
	)
	fail := func(source string, err error) {
		s.logger.Warn("local conditions source failed", "source", source, "error", err)
		mu.Lock()
		failures = append(failures, source)
		mu.Unlock()
	}

	if !usingDefault {
		g.Go(func() error {
			place, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
			if err != nil || strings.TrimSpace(place.Name) == "" {
				if err != nil {
					s.logger.Warn("reverse geocode failed", "error", err)
				}
				res.Location = unknownLocation
				return nil
			}
			res.Location = place.Name
			return nil
		})
	}
	g.Go(func() error {
		current, err := s.weather.Current(ctx, lat, lon)
		if err != nil {
			fail("weather", err)
			return nil
		}
		res.Weather = &current
		return nil
	})
	g.Go(func() error {
		aq, err := s.conditions.AirQuality(ctx, query)
		if err != nil {
			fail("air_quality", err)
			return nil
		}
		res.AirQuality = &aq
		return nil
	})
	g.Go(func() error {
		wind, err := s.conditions.Wind(ctx, query)
		if err != nil {
			fail("wind", err)
			return nil
		}
		res.Wind = &wind
		return nil
	})
	g.Go(func() error {
		solar, err := s.conditions.Solar(ctx, query)
		if err != nil {
			fail("solar", err)
			return nil
		}
		res.Solar = &solar
		return nil
	})
	_ = g.Wait()

	if len(failures) == 4 {
		return LocalResponse{}, apperrors.Wrap(apperrors.CodeWeatherData, "weather data is unavailable for this location", nil)
	}

	res.Alerts = Classify(readingsFrom(res))
	res.HasHighSeverity = HasHighSeverity(res.Alerts)
	s.logger.Info("local conditions resolved", "location", res.Location, "alerts", len(res.Alerts), "failed_sources", failures)

	if req.SessionID != "" {
		s.saveHandoff(ctx, req.SessionID, Handoff{
			Location:  res.Location,
			Latitude:  lat,
			Longitude: lon,
			Weather:   res.Weather,
		})
	}
	return res, nil
}

func (s *service) LastHandoff(ctx context.Context, sessionID string) (Handoff, bool, error) {
	raw, ok, err := s.store.Get(ctx, handoffKey(sessionID))
	if err != nil {
		return Handoff{}, false, apperrors.Wrap(apperrors.CodeStorage, "failed to load last location", err)
	}
	if !ok {
		return Handoff{}, false, nil
	}
	var handoff Handoff
	if err := json.Unmarshal(raw, &handoff); err != nil {
		s.logger.Warn("discarding malformed handoff", "error", err)
		return Handoff{}, false, nil
	}
	return handoff, true, nil
}

func (s *service) saveHandoff(ctx context.Context, sessionID string, handoff Handoff) {
	payload, err := json.Marshal(handoff)
	if err != nil {
		s.logger.Warn("encode handoff failed", "error", err)
		return
	}
	if err := s.store.Set(ctx, handoffKey(sessionID), payload, handoffTTL); err != nil {
		s.logger.Warn("save handoff failed", "error", err)
	}
}

func readingsFrom(res LocalResponse) Readings {
	var r Readings
	if w := res.Weather; w != nil {
		r.TemperatureC = floatPtr(w.TemperatureC)
		r.SurfaceWindMS = floatPtr(w.WindSpeedMS)
		r.RainLastHourMM = w.RainLastHourMM
		r.Condition = w.Condition
	}
	if res.Wind != nil {
		r.HubWindKPH = floatPtr(res.Wind.Speed100)
	}
	if res.AirQuality != nil {
		r.AirQualityIndex = floatPtr(res.AirQuality.AQIUS)
	}
	return r
}

func handoffKey(sessionID string) string {
	return "handoff:" + sessionID
}

func floatPtr(v float64) *float64 {
	return &v
}
