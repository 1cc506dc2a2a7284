package geo

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/yanqian/disha/pkg/errors"
)

const (
	directionsBaseURL   = "https://www.google.com/maps/dir/"
	missingRouteMessage = "Please enter both start location and destination"
	coordinatesNotice   = "Could not fetch location name, using coordinates instead."
)

func (s *service) SafeRoute(ctx context.Context, req RouteRequest) (RouteResponse, error) {
	to := strings.TrimSpace(req.To)
	if to == "" {
		return RouteResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, missingRouteMessage, nil)
	}

	res := RouteResponse{From: strings.TrimSpace(req.From), To: to}
	if res.From == "" && req.Latitude != nil && req.Longitude != nil {
		lat, lon := *req.Latitude, *req.Longitude
		if err := ValidateCoordinates(lat, lon); err != nil {
			return RouteResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
		}
		res.From, res.Notice = s.startingPoint(ctx, lat, lon)
	}
	if res.From == "" {
		return RouteResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, missingRouteMessage, nil)
	}

	res.MapsURL = directionsBaseURL + encodeComponent(res.From) + "/" + encodeComponent(res.To)
	return res, nil
}

// startingPoint names the caller's position, or falls back to "lat,lon".
func (s *service) startingPoint(ctx context.Context, lat, lon float64) (string, string) {
	place, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
	name := place.FormattedAddress
	if name == "" {
		name = place.Name
	}
	if err == nil && strings.TrimSpace(name) != "" {
		return name, ""
	}
	if err != nil {
		s.logger.Warn("route start lookup failed", "error", err)
	}
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64), coordinatesNotice
}

// encodeComponent escapes a single path segment the way browsers'
// encodeURIComponent does, so commas and slashes in addresses survive.
func encodeComponent(v string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
	return componentUnescaper.Replace(escaped)
}

var componentUnescaper = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
