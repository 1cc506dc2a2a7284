package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/yanqian/disha/internal/domain/alerts"
	"github.com/yanqian/disha/internal/domain/geo"
	apperrors "github.com/yanqian/disha/pkg/errors"
)

const unknownLocation = "Unknown Location"

// Service predicts secondary disasters around a point.
type Service interface {
	Predict(ctx context.Context, req Request) (Response, error)
}

// WeatherClient returns current conditions at a point.
type WeatherClient interface {
	Current(ctx context.Context, lat, lon float64) (alerts.CurrentWeather, error)
}

// Geocoder names a point.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (geo.Place, error)
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type service struct {
	cfg       Config
	weather   WeatherClient
	geocoder  Geocoder
	generator Generator
	logger    *slog.Logger
}

// NewService wires up the predictor.
func NewService(cfg Config, weather WeatherClient, geocoder Geocoder, generator Generator, logger *slog.Logger) Service {
	if cfg.HorizonHours <= 0 {
		cfg.HorizonHours = 72
	}
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = 50
	}
	return &service{
		cfg:       cfg,
		weather:   weather,
		geocoder:  geocoder,
		generator: generator,
		logger:    logger.With("component", "prediction.service"),
	}
}

func (s *service) Predict(ctx context.Context, req Request) (Response, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "lat and lon are required", nil)
	}
	lat, lon := *req.Latitude, *req.Longitude
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), err)
	}

	name := unknownLocation
	if place, err := s.geocoder.ReverseGeocode(ctx, lat, lon); err != nil {
		s.logger.Warn("location lookup failed", "error", err)
	} else if place.Name != "" {
		name = place.Name
	}

	weather, err := s.weather.Current(ctx, lat, lon)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeWeatherData, "Failed to fetch weather data", err)
	}

	res := Response{
		Location:    name,
		Coordinates: coordinates(lat, lon),
		Weather:     weather,
		Predictions: []Prediction{},
	}

	prompt, err := s.prompt(weather, name, lat, lon)
	if err != nil {
		s.logger.Error("build prompt failed", "error", err)
		return res, nil
	}
	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("prediction generation failed", "error", err)
		return res, nil
	}
	preds, err := ParsePredictions(raw)
	if err != nil {
		s.logger.Warn("prediction output unusable", "error", err, "output_bytes", len(raw))
		return res, nil
	}
	for i := range preds {
		preds[i].Location = res.Location
		preds[i].Coordinates = res.Coordinates
	}
	res.Predictions = preds
	s.logger.Info("predictions generated", "location", name, "count", len(preds))
	return res, nil
}

func (s *service) prompt(weather alerts.CurrentWeather, name string, lat, lon float64) (string, error) {
	weatherJSON, err := json.Marshal(weather)
	if err != nil {
		return "", err
	}
	locJSON, err := json.Marshal(map[string]any{"name": name, "lat": lat, "lon": lon})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Based on the following weather and location data, predict whether any secondary disasters may occur in the next %d hours, considering the %d km area around the location.
If there is no risk, return an empty array.

Weather data: %s
Location: %s

For each potential secondary disaster provide:
1. type (e.g. Flood, Landslide, Wildfire)
2. probability as a percentage from 0 to 100
3. timeframe in hours
4. impactZone description
5. weatherConditions currently observed
6. safetyTips with at least 4 tips specific to the disaster

Respond with a JSON array only, for example:
[{"type":"Flash Flood","probability":65,"timeframe":24,"impactZone":"Low-lying areas near rivers","weatherConditions":"Heavy rainfall","safetyTips":["Move to higher ground","Avoid walking in water","Don't drive through floods","Follow evacuation orders"]}]`,
		s.cfg.HorizonHours, s.cfg.RadiusKm, weatherJSON, locJSON), nil
}

func coordinates(lat, lon float64) string {
	return fmt.Sprintf("Lat: %.2f° Lon: %.2f°", lat, lon)
}
