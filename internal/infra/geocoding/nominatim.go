package geocoding

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yanqian/disha/internal/domain/geo"
	"github.com/yanqian/disha/internal/infra/upstream"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org"

// Nominatim reverse geocodes through OpenStreetMap.
type Nominatim struct {
	baseURL string
	http    *upstream.Client
}

// NewNominatim builds a Nominatim client.
func NewNominatim(baseURL string, http *upstream.Client) *Nominatim {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultNominatimURL
	}
	return &Nominatim{baseURL: strings.TrimRight(base, "/"), http: http}
}

type nominatimReverse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
	} `json:"address"`
}

// ReverseGeocode returns the display name of the point.
func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lon float64) (geo.Place, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", fmt.Sprintf("%.6f", lat))
	params.Set("lon", fmt.Sprintf("%.6f", lon))

	var resp nominatimReverse
	if err := n.http.GetJSON(ctx, n.baseURL+"/reverse?"+params.Encode(), &resp); err != nil {
		return geo.Place{}, err
	}
	if resp.Error != "" {
		return geo.Place{}, fmt.Errorf("nominatim: %s", resp.Error)
	}
	if strings.TrimSpace(resp.DisplayName) == "" {
		return geo.Place{}, fmt.Errorf("nominatim returned no name for %s", geo.CoordinateLabel(lat, lon))
	}
	return geo.Place{
		Name:             resp.DisplayName,
		FormattedAddress: resp.DisplayName,
		Latitude:         lat,
		Longitude:        lon,
	}, nil
}
