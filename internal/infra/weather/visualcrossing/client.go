package visualcrossing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yanqian/disha/internal/domain/alerts"
	"github.com/yanqian/disha/internal/infra/upstream"
)

const defaultBaseURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

const (
	airQualityElements = "datetime,pm1,pm2p5,pm10,o3,no2,so2,co,aqius,aqieur"
	windElements       = "datetime,temp,windspeed50,winddir50,windspeed80,winddir80,windspeed100,winddir100"
	solarElements      = "datetime,ghiradiation,dniradiation,difradiation,gtiradiation,sunazimuth,sunelevation"
	solarTiltAngle     = "45"
)

// Client reads today's entry of the Visual Crossing timeline API.
type Client struct {
	apiKey  string
	baseURL string
	http    *upstream.Client
}

// NewClient builds a Visual Crossing client.
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

// AirQuality returns today's pollutant forecast for location.
func (c *Client) AirQuality(ctx context.Context, location string) (alerts.AirQuality, error) {
	d, err := c.today(ctx, location, url.Values{"elements": {airQualityElements}})
	if err != nil {
		return alerts.AirQuality{}, err
	}
	return alerts.AirQuality{
		Date:   d.Datetime,
		PM1:    d.PM1,
		PM2p5:  d.PM2p5,
		PM10:   d.PM10,
		O3:     d.O3,
		NO2:    d.NO2,
		SO2:    d.SO2,
		CO:     d.CO,
		AQIUS:  d.AQIUS,
		AQIEUR: d.AQIEUR,
	}, nil
}

// Wind returns today's wind profile at 50, 80 and 100 m.
func (c *Client) Wind(ctx context.Context, location string) (alerts.Wind, error) {
	d, err := c.today(ctx, location, url.Values{"include": {"days"}, "elements": {windElements}})
	if err != nil {
		return alerts.Wind{}, err
	}
	return alerts.Wind{
		Date:         d.Datetime,
		TemperatureC: d.Temp,
		Speed50:      d.WindSpeed50,
		Dir50:        d.WindDir50,
		Speed80:      d.WindSpeed80,
		Dir80:        d.WindDir80,
		Speed100:     d.WindSpeed100,
		Dir100:       d.WindDir100,
	}, nil
}

// Solar returns today's radiation summary on a 45 degree tilt.
func (c *Client) Solar(ctx context.Context, location string) (alerts.Solar, error) {
	d, err := c.today(ctx, location, url.Values{"elements": {solarElements}, "solarTiltAngle": {solarTiltAngle}})
	if err != nil {
		return alerts.Solar{}, err
	}
	return alerts.Solar{
		Date:         d.Datetime,
		GHI:          d.GHI,
		DNI:          d.DNI,
		DIF:          d.DIF,
		GTI:          d.GTI,
		SunAzimuth:   d.SunAzimuth,
		SunElevation: d.SunElevation,
	}, nil
}

func (c *Client) today(ctx context.Context, location string, extra url.Values) (day, error) {
	if c.apiKey == "" {
		return day{}, errors.New("visual crossing api key is not configured")
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return day{}, errors.New("location is required")
	}
	params := url.Values{}
	params.Set("unitGroup", "metric")
	params.Set("key", c.apiKey)
	params.Set("contentType", "json")
	for k, v := range extra {
		params[k] = v
	}

	var raw timeline
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(location), params.Encode())
	if err := c.http.GetJSON(ctx, endpoint, &raw); err != nil {
		return day{}, err
	}
	if len(raw.Days) == 0 {
		return day{}, fmt.Errorf("visual crossing returned no days for %q", location)
	}
	return raw.Days[0], nil
}

type timeline struct {
	ResolvedAddress string `json:"resolvedAddress"`
	Days            []day  `json:"days"`
}

type day struct {
	Datetime string `json:"datetime"`

	PM1    float64 `json:"pm1"`
	PM2p5  float64 `json:"pm2p5"`
	PM10   float64 `json:"pm10"`
	O3     float64 `json:"o3"`
	NO2    float64 `json:"no2"`
	SO2    float64 `json:"so2"`
	CO     float64 `json:"co"`
	AQIUS  float64 `json:"aqius"`
	AQIEUR float64 `json:"aqieur"`

	Temp         float64 `json:"temp"`
	WindSpeed50  float64 `json:"windspeed50"`
	WindDir50    float64 `json:"winddir50"`
	WindSpeed80  float64 `json:"windspeed80"`
	WindDir80    float64 `json:"winddir80"`
	WindSpeed100 float64 `json:"windspeed100"`
	WindDir100   float64 `json:"winddir100"`

	GHI          float64 `json:"ghiradiation"`
	DNI          float64 `json:"dniradiation"`
	DIF          float64 `json:"difradiation"`
	GTI          float64 `json:"gtiradiation"`
	SunAzimuth   float64 `json:"sunazimuth"`
	SunElevation float64 `json:"sunelevation"`
}
