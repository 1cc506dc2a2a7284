package openweather

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yanqian/disha/internal/domain/alerts"
	"github.com/yanqian/disha/internal/domain/geo"
	"github.com/yanqian/disha/internal/infra/upstream"
)

const defaultBaseURL = "https://api.openweathermap.org"

// Client talks to the OpenWeather current weather and reverse geocoding APIs.
type Client struct {
	apiKey  string
	baseURL string
	http    *upstream.Client
}

// NewClient builds an OpenWeather client.
func NewClient(apiKey, baseURL string, http *upstream.Client) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(base, "/"),
		http:    http,
	}
}

// Current fetches the current observation in metric units.
func (c *Client) Current(ctx context.Context, lat, lon float64) (alerts.CurrentWeather, error) {
	if c.apiKey == "" {
		return alerts.CurrentWeather{}, errors.New("openweather api key is not configured")
	}
	params := url.Values{}
	params.Set("lat", formatCoord(lat))
	params.Set("lon", formatCoord(lon))
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)

	var raw currentResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/data/2.5/weather?"+params.Encode(), &raw); err != nil {
		return alerts.CurrentWeather{}, err
	}
	if len(raw.Weather) == 0 {
		return alerts.CurrentWeather{}, fmt.Errorf("openweather response has no conditions")
	}
	return raw.toDomain(), nil
}

// ReverseGeocode resolves a point to the nearest named place.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (geo.Place, error) {
	if c.apiKey == "" {
		return geo.Place{}, errors.New("openweather api key is not configured")
	}
	params := url.Values{}
	params.Set("lat", formatCoord(lat))
	params.Set("lon", formatCoord(lon))
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	var raw []reverseEntry
	if err := c.http.GetJSON(ctx, c.baseURL+"/geo/1.0/reverse?"+params.Encode(), &raw); err != nil {
		return geo.Place{}, err
	}
	if len(raw) == 0 || strings.TrimSpace(raw[0].Name) == "" {
		return geo.Place{}, fmt.Errorf("no place found near %s", geo.CoordinateLabel(lat, lon))
	}
	entry := raw[0]
	parts := []string{entry.Name}
	if entry.State != "" {
		parts = append(parts, entry.State)
	}
	return geo.Place{
		Name:             entry.Name,
		FormattedAddress: strings.Join(parts, ", "),
		Latitude:         lat,
		Longitude:        lon,
	}, nil
}

type currentResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain *struct {
		OneHour *float64 `json:"1h"`
	} `json:"rain"`
}

func (r currentResponse) toDomain() alerts.CurrentWeather {
	out := alerts.CurrentWeather{
		Place:        r.Name,
		Condition:    r.Weather[0].Main,
		Description:  r.Weather[0].Description,
		Icon:         r.Weather[0].Icon,
		TemperatureC: r.Main.Temp,
		FeelsLikeC:   r.Main.FeelsLike,
		Humidity:     r.Main.Humidity,
		WindSpeedMS:  r.Wind.Speed,
	}
	if r.Rain != nil {
		out.RainLastHourMM = r.Rain.OneHour
	}
	return out
}

type reverseEntry struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Country string `json:"country"`
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
