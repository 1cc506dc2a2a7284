package alerts

// Severity grades an alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity maps free-form labels onto the enum; unknown labels are low.
func ParseSeverity(raw string) Severity {
	switch Severity(normalizeLabel(raw)) {
	case SeverityHigh:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Alert is recomputed on every refresh and never persisted.
type Alert struct {
	Category string   `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Readings are the metric inputs of the classifier. Nil fields are unknown
// and never fire a rule.
type Readings struct {
	TemperatureC    *float64 `json:"temperature,omitempty"`
	SurfaceWindMS   *float64 `json:"surfaceWindSpeed,omitempty"`
	HubWindKPH      *float64 `json:"hubWindSpeed,omitempty"`
	AirQualityIndex *float64 `json:"airQualityIndex,omitempty"`
	RainLastHourMM  *float64 `json:"rainLastHour,omitempty"`
	Condition       string   `json:"condition,omitempty"`
}

// ClassifyResponse is returned by the classify endpoint.
type ClassifyResponse struct {
	Alerts          []Alert `json:"alerts"`
	HasHighSeverity bool    `json:"hasHighSeverity"`
}

// LocalRequest asks for the conditions around a point. Both coordinates
// must be present, otherwise the default location is used.
type LocalRequest struct {
	Latitude  *float64 `form:"lat" json:"lat"`
	Longitude *float64 `form:"lon" json:"lon"`
	SessionID string   `form:"-" json:"-"`
}

// LocalResponse bundles everything the alerts page renders.
type LocalResponse struct {
	Location        string          `json:"location"`
	Latitude        float64         `json:"lat"`
	Longitude       float64         `json:"lon"`
	Notice          string          `json:"notice,omitempty"`
	Weather         *CurrentWeather `json:"weather,omitempty"`
	AirQuality      *AirQuality     `json:"airQuality,omitempty"`
	Wind            *Wind           `json:"wind,omitempty"`
	Solar           *Solar          `json:"solar,omitempty"`
	Alerts          []Alert         `json:"alerts"`
	HasHighSeverity bool            `json:"hasHighSeverity"`
}

// CurrentWeather is the current observation at a point.
type CurrentWeather struct {
	Place          string   `json:"place"`
	Condition      string   `json:"condition"`
	Description    string   `json:"description"`
	TemperatureC   float64  `json:"temperature"`
	FeelsLikeC     float64  `json:"feelsLike"`
	Humidity       float64  `json:"humidity"`
	WindSpeedMS    float64  `json:"windSpeed"`
	RainLastHourMM *float64 `json:"rainLastHour,omitempty"`
	Icon           string   `json:"icon,omitempty"`
}

// AirQuality is today's pollutant forecast.
type AirQuality struct {
	Date   string  `json:"date"`
	PM1    float64 `json:"pm1"`
	PM2p5  float64 `json:"pm2p5"`
	PM10   float64 `json:"pm10"`
	O3     float64 `json:"o3"`
	NO2    float64 `json:"no2"`
	SO2    float64 `json:"so2"`
	CO     float64 `json:"co"`
	AQIUS  float64 `json:"aqius"`
	AQIEUR float64 `json:"aqieur"`
}

// Wind is today's wind profile at turbine heights, km/h.
type Wind struct {
	Date         string  `json:"date"`
	TemperatureC float64 `json:"temp"`
	Speed50      float64 `json:"windspeed50"`
	Dir50        float64 `json:"winddir50"`
	Speed80      float64 `json:"windspeed80"`
	Dir80        float64 `json:"winddir80"`
	Speed100     float64 `json:"windspeed100"`
	Dir100       float64 `json:"winddir100"`
}

// Solar is today's radiation summary, W/m².
type Solar struct {
	Date         string  `json:"date"`
	GHI          float64 `json:"ghiradiation"`
	DNI          float64 `json:"dniradiation"`
	DIF          float64 `json:"difradiation"`
	GTI          float64 `json:"gtiradiation"`
	SunAzimuth   float64 `json:"sunazimuth"`
	SunElevation float64 `json:"sunelevation"`
}

// Handoff is what a session last fetched, kept for the next page.
type Handoff struct {
	Location  string          `json:"location"`
	Latitude  float64         `json:"lat"`
	Longitude float64         `json:"lon"`
	Weather   *CurrentWeather `json:"weather,omitempty"`
}

// Config wires runtime dependencies for the alerts domain.
type Config struct {
	DefaultLocation  string
	DefaultLatitude  float64
	DefaultLongitude float64
}
