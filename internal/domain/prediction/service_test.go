package prediction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/disha/internal/domain/alerts"
	"github.com/yanqian/disha/internal/domain/geo"
	apperrors "github.com/yanqian/disha/pkg/errors"
)

func TestPredictAnnotatesLocation(t *testing.T) {
	gen := &stubGenerator{out: `[{"type":"Flash Flood","probability":65,"timeframe":24,"safetyTips":["a","b","c","d"]}]`}
	svc := newTestService(&stubWeather{weather: alerts.CurrentWeather{Condition: "Rain", TemperatureC: 27}}, &stubGeocoder{place: geo.Place{Name: "Chandigarh"}}, gen)

	res, err := svc.Predict(context.Background(), Request{Latitude: ptr(30.7563), Longitude: ptr(76.6181)})
	require.NoError(t, err)
	require.Equal(t, "Chandigarh", res.Location)
	require.Equal(t, "Lat: 30.76° Lon: 76.62°", res.Coordinates)
	require.Equal(t, "Rain", res.Weather.Condition)
	require.Len(t, res.Predictions, 1)
	require.Equal(t, "Chandigarh", res.Predictions[0].Location)
	require.Equal(t, "Lat: 30.76° Lon: 76.62°", res.Predictions[0].Coordinates)
	require.Contains(t, gen.prompt, `"condition":"Rain"`)
	require.Contains(t, gen.prompt, `"name":"Chandigarh"`)
	require.Contains(t, gen.prompt, "next 72 hours")
}

func TestPredictGenerationFailureYieldsEmptyList(t *testing.T) {
	svc := newTestService(&stubWeather{}, &stubGeocoder{place: geo.Place{Name: "Pune"}}, &stubGenerator{err: errors.New("quota exceeded")})

	res, err := svc.Predict(context.Background(), Request{Latitude: ptr(18.52), Longitude: ptr(73.85)})
	require.NoError(t, err)
	require.NotNil(t, res.Predictions)
	require.Empty(t, res.Predictions)
}

func TestPredictUnparsableOutputYieldsEmptyList(t *testing.T) {
	svc := newTestService(&stubWeather{}, &stubGeocoder{}, &stubGenerator{out: "No risks found."})

	res, err := svc.Predict(context.Background(), Request{Latitude: ptr(18.52), Longitude: ptr(73.85)})
	require.NoError(t, err)
	require.Empty(t, res.Predictions)
	require.Equal(t, unknownLocation, res.Location)
}

func TestPredictGeocodeFailureFallsBack(t *testing.T) {
	svc := newTestService(&stubWeather{}, &stubGeocoder{err: errors.New("timeout")}, &stubGenerator{out: "[]"})

	res, err := svc.Predict(context.Background(), Request{Latitude: ptr(18.52), Longitude: ptr(73.85)})
	require.NoError(t, err)
	require.Equal(t, unknownLocation, res.Location)
}

func TestPredictWeatherFailure(t *testing.T) {
	gen := &stubGenerator{out: "[]"}
	svc := newTestService(&stubWeather{err: errors.New("502")}, &stubGeocoder{}, gen)

	_, err := svc.Predict(context.Background(), Request{Latitude: ptr(18.52), Longitude: ptr(73.85)})
	require.True(t, apperrors.IsCode(err, apperrors.CodeWeatherData))
	require.Zero(t, gen.calls)
}

func TestPredictValidatesCoordinates(t *testing.T) {
	svc := newTestService(&stubWeather{}, &stubGeocoder{}, &stubGenerator{})

	_, err := svc.Predict(context.Background(), Request{Latitude: ptr(18.52)})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.Predict(context.Background(), Request{Latitude: ptr(95), Longitude: ptr(73.85)})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func newTestService(w *stubWeather, g *stubGeocoder, gen *stubGenerator) Service {
	return NewService(Config{}, w, g, gen, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ptr(v float64) *float64 { return &v }

type stubWeather struct {
	weather alerts.CurrentWeather
	err     error
}

func (s *stubWeather) Current(context.Context, float64, float64) (alerts.CurrentWeather, error) {
	return s.weather, s.err
}

type stubGeocoder struct {
	place geo.Place
	err   error
}

func (s *stubGeocoder) ReverseGeocode(context.Context, float64, float64) (geo.Place, error) {
	return s.place, s.err
}

type stubGenerator struct {
	out    string
	err    error
	calls  int
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.out, s.err
}
