package geo

import (
	"fmt"
	"time"
)

// Place is a resolved point.
type Place struct {
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formattedAddress,omitempty"`
	Latitude         float64 `json:"lat"`
	Longitude        float64 `json:"lon"`
}

// Prediction is one autocomplete suggestion.
type Prediction struct {
	PlaceID       string `json:"placeId"`
	Description   string `json:"description"`
	MainText      string `json:"mainText,omitempty"`
	SecondaryText string `json:"secondaryText,omitempty"`
}

// AutocompleteOptions restrict an upstream autocomplete query.
type AutocompleteOptions struct {
	Country string
	Types   []string
}

// AutocompleteRequest carries the raw query and the caller identity used
// for debouncing.
type AutocompleteRequest struct {
	Input    string `form:"input"`
	ClientID string `form:"-"`
}

// AutocompleteResponse lists predictions. Superseded is set when a newer
// request from the same client replaced this one inside the debounce window.
type AutocompleteResponse struct {
	Predictions []Prediction `json:"predictions"`
	Superseded  bool         `json:"superseded,omitempty"`
}

// ReverseRequest asks for the address of a point.
type ReverseRequest struct {
	Latitude  *float64 `form:"lat"`
	Longitude *float64 `form:"lon"`
}

// ReverseResponse is the formatted address of a point. Fallback marks a
// coordinate string returned in place of an address.
type ReverseResponse struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Fallback  bool    `json:"fallback,omitempty"`
}

// RouteRequest asks for directions between two places. When From is empty
// the start is resolved from Latitude/Longitude.
type RouteRequest struct {
	From      string   `form:"from"`
	To        string   `form:"to"`
	Latitude  *float64 `form:"lat"`
	Longitude *float64 `form:"lon"`
}

// RouteResponse carries the resolved endpoints and a Google Maps directions
// link. Notice is set when the start fell back to raw coordinates.
type RouteResponse struct {
	From    string `json:"from"`
	To      string `json:"to"`
	MapsURL string `json:"mapsUrl"`
	Notice  string `json:"notice,omitempty"`
}

// Config wires runtime options for the geo domain.
type Config struct {
	Country        string
	Types          []string
	MinQueryLength int
	Debounce       time.Duration
}

// ValidateCoordinates rejects points outside the WGS84 range.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %.6f out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %.6f out of range", lon)
	}
	return nil
}

// CoordinateLabel formats a point the way the pages show it when no address
// is known.
func CoordinateLabel(lat, lon float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lon)
}
