package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yanqian/disha/internal/domain/geo"
	"github.com/yanqian/disha/internal/infra/upstream"
)

const defaultGoogleMapsURL = "https://maps.googleapis.com/maps/api"

// GoogleMaps serves place autocomplete and reverse geocoding.
type GoogleMaps struct {
	apiKey  string
	baseURL string
	http    *upstream.Client
}

// NewGoogleMaps builds a Google Maps client.
func NewGoogleMaps(apiKey, baseURL string, http *upstream.Client) *GoogleMaps {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultGoogleMapsURL
	}
	return &GoogleMaps{apiKey: apiKey, baseURL: strings.TrimRight(base, "/"), http: http}
}

type googleGeocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

type googleAutocompleteResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Predictions  []struct {
		PlaceID              string `json:"place_id"`
		Description          string `json:"description"`
		StructuredFormatting struct {
			MainText      string `json:"main_text"`
			SecondaryText string `json:"secondary_text"`
		} `json:"structured_formatting"`
	} `json:"predictions"`
}

// ReverseGeocode returns the first formatted address for the point.
func (g *GoogleMaps) ReverseGeocode(ctx context.Context, lat, lon float64) (geo.Place, error) {
	if g.apiKey == "" {
		return geo.Place{}, errors.New("google maps api key is not configured")
	}
	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%.6f,%.6f", lat, lon))
	params.Set("key", g.apiKey)

	var resp googleGeocodeResponse
	if err := g.http.GetJSON(ctx, g.baseURL+"/geocode/json?"+params.Encode(), &resp); err != nil {
		return geo.Place{}, err
	}
	if err := googleStatus(resp.Status, resp.ErrorMessage); err != nil {
		return geo.Place{}, err
	}
	if len(resp.Results) == 0 || resp.Results[0].FormattedAddress == "" {
		return geo.Place{}, fmt.Errorf("no address found for %s", geo.CoordinateLabel(lat, lon))
	}
	address := resp.Results[0].FormattedAddress
	return geo.Place{Name: address, FormattedAddress: address, Latitude: lat, Longitude: lon}, nil
}

// Autocomplete queries the Places autocomplete endpoint.
func (g *GoogleMaps) Autocomplete(ctx context.Context, input string, opts geo.AutocompleteOptions) ([]geo.Prediction, error) {
	if g.apiKey == "" {
		return nil, errors.New("google maps api key is not configured")
	}
	params := url.Values{}
	params.Set("input", input)
	params.Set("key", g.apiKey)
	if opts.Country != "" {
		params.Set("components", "country:"+strings.ToLower(opts.Country))
	}
	if len(opts.Types) > 0 {
		params.Set("types", strings.Join(opts.Types, "|"))
	}

	var resp googleAutocompleteResponse
	if err := g.http.GetJSON(ctx, g.baseURL+"/place/autocomplete/json?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if err := googleStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	out := make([]geo.Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		out = append(out, geo.Prediction{
			PlaceID:       p.PlaceID,
			Description:   p.Description,
			MainText:      p.StructuredFormatting.MainText,
			SecondaryText: p.StructuredFormatting.SecondaryText,
		})
	}
	return out, nil
}

// ZERO_RESULTS is a successful empty answer.
func googleStatus(status, message string) error {
	switch status {
	case "OK", "ZERO_RESULTS", "":
		return nil
	default:
		if message != "" {
			return fmt.Errorf("google maps status %s: %s", status, message)
		}
		return fmt.Errorf("google maps status %s", status)
	}
}
