package geo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/disha/pkg/errors"
)

func TestAutocompleteShortQuerySkipsUpstream(t *testing.T) {
	places := &stubPlaces{}
	svc := newTestService(places, &stubGeocoder{}, clockwork.NewFakeClock(), 0)

	resp, err := svc.Autocomplete(context.Background(), AutocompleteRequest{Input: " De "})
	require.NoError(t, err)
	require.Empty(t, resp.Predictions)
	require.NotNil(t, resp.Predictions)
	require.Zero(t, places.callCount())
}

func TestAutocompletePassesRestrictions(t *testing.T) {
	places := &stubPlaces{predictions: []Prediction{{PlaceID: "p1", Description: "Delhi, India"}}}
	svc := newTestService(places, &stubGeocoder{}, clockwork.NewFakeClock(), 0)

	resp, err := svc.Autocomplete(context.Background(), AutocompleteRequest{Input: "Delhi"})
	require.NoError(t, err)
	require.Len(t, resp.Predictions, 1)
	require.Equal(t, "Delhi", places.lastInput)
	require.Equal(t, "IN", places.lastOpts.Country)
	require.Equal(t, []string{"geocode", "establishment"}, places.lastOpts.Types)
}

func TestAutocompleteUpstreamFailure(t *testing.T) {
	svc := newTestService(&stubPlaces{err: errors.New("quota")}, &stubGeocoder{}, clockwork.NewFakeClock(), 0)

	_, err := svc.Autocomplete(context.Background(), AutocompleteRequest{Input: "Mumbai"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeGeocode))
}

func TestAutocompleteDebounceKeepsLatest(t *testing.T) {
	clock := clockwork.NewFakeClock()
	places := &stubPlaces{predictions: []Prediction{{PlaceID: "p1"}}}
	svc := newTestService(places, &stubGeocoder{}, clock, 300*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := autocompleteAsync(ctx, svc, AutocompleteRequest{Input: "Pun", ClientID: "c1"})
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	second := autocompleteAsync(ctx, svc, AutocompleteRequest{Input: "Pune", ClientID: "c1"})
	require.NoError(t, clock.BlockUntilContext(ctx, 2))

	clock.Advance(300 * time.Millisecond)

	earlier := <-first
	require.NoError(t, earlier.err)
	require.True(t, earlier.resp.Superseded)
	latest := <-second
	require.NoError(t, latest.err)
	require.False(t, latest.resp.Superseded)
	require.Len(t, latest.resp.Predictions, 1)
	require.Equal(t, 1, places.callCount())
	require.Equal(t, "Pune", places.lastInput)
}

func TestAutocompleteDebounceIsPerClient(t *testing.T) {
	clock := clockwork.NewFakeClock()
	places := &stubPlaces{}
	svc := newTestService(places, &stubGeocoder{}, clock, 300*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := autocompleteAsync(ctx, svc, AutocompleteRequest{Input: "Chennai", ClientID: "a"})
	b := autocompleteAsync(ctx, svc, AutocompleteRequest{Input: "Chennai", ClientID: "b"})
	require.NoError(t, clock.BlockUntilContext(ctx, 2))
	clock.Advance(300 * time.Millisecond)

	for _, ch := range []<-chan autocompleteResult{a, b} {
		res := <-ch
		require.NoError(t, res.err)
		require.False(t, res.resp.Superseded)
	}
	require.Equal(t, 2, places.callCount())
}

func TestReverseFallsBackToCoordinates(t *testing.T) {
	svc := newTestService(&stubPlaces{}, &stubGeocoder{err: errors.New("timeout")}, clockwork.NewFakeClock(), 0)
	lat, lon := 28.6139, 77.209

	resp, err := svc.Reverse(context.Background(), ReverseRequest{Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	require.True(t, resp.Fallback)
	require.Equal(t, "28.613900, 77.209000", resp.Address)
}

func TestReverseReturnsAddress(t *testing.T) {
	geocoder := &stubGeocoder{place: Place{Name: "Connaught Place", FormattedAddress: "Connaught Place, New Delhi, India"}}
	svc := newTestService(&stubPlaces{}, geocoder, clockwork.NewFakeClock(), 0)
	lat, lon := 28.63, 77.22

	resp, err := svc.Reverse(context.Background(), ReverseRequest{Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	require.False(t, resp.Fallback)
	require.Equal(t, "Connaught Place, New Delhi, India", resp.Address)
}

func TestReverseRejectsBadInput(t *testing.T) {
	svc := newTestService(&stubPlaces{}, &stubGeocoder{}, clockwork.NewFakeClock(), 0)
	lat, lon := 91.0, 10.0

	_, err := svc.Reverse(context.Background(), ReverseRequest{Latitude: &lat, Longitude: &lon})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.Reverse(context.Background(), ReverseRequest{Latitude: &lat})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

type autocompleteResult struct {
	resp AutocompleteResponse
	err  error
}

func autocompleteAsync(ctx context.Context, svc Service, req AutocompleteRequest) <-chan autocompleteResult {
	out := make(chan autocompleteResult, 1)
	go func() {
		resp, err := svc.Autocomplete(ctx, req)
		out <- autocompleteResult{resp: resp, err: err}
	}()
	return out
}

func newTestService(places PlacesClient, geocoder ReverseGeocoder, clock clockwork.Clock, debounce time.Duration) Service {
	return NewService(Config{
		Country:        "IN",
		Types:          []string{"geocode", "establishment"},
		MinQueryLength: 3,
		Debounce:       debounce,
	}, places, geocoder, clock, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type stubPlaces struct {
	mu          sync.Mutex
	predictions []Prediction
	err         error
	calls       int
	lastInput   string
	lastOpts    AutocompleteOptions
}

func (s *stubPlaces) Autocomplete(_ context.Context, input string, opts AutocompleteOptions) ([]Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastInput = input
	s.lastOpts = opts
	return s.predictions, s.err
}

func (s *stubPlaces) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubGeocoder struct {
	place Place
	err   error
}

func (s *stubGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) (Place, error) {
	if s.err != nil {
		return Place{}, s.err
	}
	p := s.place
	p.Latitude, p.Longitude = lat, lon
	return p, nil
}
