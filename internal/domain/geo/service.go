package geo

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	apperrors "github.com/yanqian/disha/pkg/errors"
)

// Service exposes place search and reverse geocoding.
type Service interface {
	Autocomplete(ctx context.Context, req AutocompleteRequest) (AutocompleteResponse, error)
	Reverse(ctx context.Context, req ReverseRequest) (ReverseResponse, error)
	SafeRoute(ctx context.Context, req RouteRequest) (RouteResponse, error)
}

// PlacesClient queries an upstream place autocomplete API.
type PlacesClient interface {
	Autocomplete(ctx context.Context, input string, opts AutocompleteOptions) ([]Prediction, error)
}

// ReverseGeocoder resolves a point to a place.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}

type service struct {
	cfg       Config
	places    PlacesClient
	geocoder  ReverseGeocoder
	debouncer *debouncer
	logger    *slog.Logger
}

// NewService wires up the geo domain.
func NewService(cfg Config, places PlacesClient, geocoder ReverseGeocoder, clock clockwork.Clock, logger *slog.Logger) Service {
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = 3
	}
	return &service{
		cfg:       cfg,
		places:    places,
		geocoder:  geocoder,
		debouncer: newDebouncer(clock, cfg.Debounce),
		logger:    logger.With("component", "geo.service"),
	}
}

func (s *service) Autocomplete(ctx context.Context, req AutocompleteRequest) (AutocompleteResponse, error) {
	input := strings.TrimSpace(req.Input)
	if utf8.RuneCountInString(input) < s.cfg.MinQueryLength {
		return AutocompleteResponse{Predictions: []Prediction{}}, nil
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = "anonymous"
	}
	latest, err := s.debouncer.Wait(ctx, clientID)
	if err != nil {
		return AutocompleteResponse{}, err
	}
	if !latest {
		return AutocompleteResponse{Predictions: []Prediction{}, Superseded: true}, nil
	}

	predictions, err := s.places.Autocomplete(ctx, input, AutocompleteOptions{
		Country: s.cfg.Country,
		Types:   s.cfg.Types,
	})
	if err != nil {
		s.logger.Warn("place autocomplete failed", "error", err)
		return AutocompleteResponse{}, apperrors.Wrap(apperrors.CodeGeocode, "place search is unavailable", err)
	}
	if predictions == nil {
		predictions = []Prediction{}
	}
	return AutocompleteResponse{Predictions: predictions}, nil
}

func (s *service) Reverse(ctx context.Context, req ReverseRequest) (ReverseResponse, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return ReverseResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "lat and lon are required", nil)
	}
	lat, lon := *req.Latitude, *req.Longitude
	if err := ValidateCoordinates(lat, lon); err != nil {
		return ReverseResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}

	res := ReverseResponse{Latitude: lat, Longitude: lon}
	place, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
	address := place.FormattedAddress
	if address == "" {
		address = place.Name
	}
	if err != nil || strings.TrimSpace(address) == "" {
		if err != nil {
			s.logger.Warn("reverse geocode failed", "error", err)
		}
		res.Address = CoordinateLabel(lat, lon)
		res.Fallback = true
		return res, nil
	}
	res.Address = address
	return res, nil
}
