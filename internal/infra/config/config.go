package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/disha/internal/domain/directory"
)

// DevSessionSecret is the signing secret used when none is configured.
const DevSessionSecret = "disha-dev-secret-change-me"

// Config aggregates runtime configuration used across the gateway.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	LLM        LLMConfig        `yaml:"llm"`
	Weather    WeatherConfig    `yaml:"weather"`
	Geo        GeoConfig        `yaml:"geo"`
	Nationwide NationwideConfig `yaml:"nationwide"`
	Prediction PredictionConfig `yaml:"prediction"`
	Backend    BackendConfig    `yaml:"backend"`
	Session    SessionConfig    `yaml:"session"`
	Report     ReportConfig     `yaml:"report"`
	Directory  directory.Config `yaml:"directory"`
	Storage    StorageConfig    `yaml:"storage"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig selects and configures the text generation provider.
type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	APIKey          string        `yaml:"apiKey"`
	BaseURL         string        `yaml:"baseUrl"`
	Model           string        `yaml:"model"`
	Temperature     float32       `yaml:"temperature"`
	MaxOutputTokens int           `yaml:"maxOutputTokens"`
	Timeout         time.Duration `yaml:"timeout"`
}

// WeatherConfig holds the weather data providers.
type WeatherConfig struct {
	OpenWeatherAPIKey     string        `yaml:"openWeatherApiKey"`
	OpenWeatherBaseURL    string        `yaml:"openWeatherBaseUrl"`
	VisualCrossingAPIKey  string        `yaml:"visualCrossingApiKey"`
	VisualCrossingBaseURL string        `yaml:"visualCrossingBaseUrl"`
	Timeout               time.Duration `yaml:"timeout"`
}

// GeoConfig holds geocoding and places settings.
type GeoConfig struct {
	NominatimBaseURL  string          `yaml:"nominatimBaseUrl"`
	GoogleMapsAPIKey  string          `yaml:"googleMapsApiKey"`
	GoogleMapsBaseURL string          `yaml:"googleMapsBaseUrl"`
	Country           string          `yaml:"country"`
	Types             []string        `yaml:"types"`
	CacheSize         int             `yaml:"cacheSize"`
	Debounce          time.Duration   `yaml:"debounce"`
	MinQueryLength    int             `yaml:"minQueryLength"`
	Timeout           time.Duration   `yaml:"timeout"`
	DefaultLocation   DefaultLocation `yaml:"defaultLocation"`
}

// DefaultLocation is used when the caller shares no position.
type DefaultLocation struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// NationwideConfig controls the cached nationwide summary.
type NationwideConfig struct {
	CacheKey        string        `yaml:"cacheKey"`
	TTL             time.Duration `yaml:"ttl"`
	RefreshInterval time.Duration `yaml:"refreshInterval"`
	RefreshTimeout  time.Duration `yaml:"refreshTimeout"`
	Region          string        `yaml:"region"`
	Prompt          string        `yaml:"prompt"`
}

// PredictionConfig controls the secondary disaster predictor.
type PredictionConfig struct {
	HorizonHours int `yaml:"horizonHours"`
	RadiusKm     int `yaml:"radiusKm"`
}

// BackendConfig points at the DISHA backend.
type BackendConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig controls gateway session tokens.
type SessionConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"tokenTtl"`
	StoreTTL time.Duration `yaml:"storeTtl"`
}

// ReportConfig limits uploaded media.
type ReportConfig struct {
	MaxImageBytes  int64 `yaml:"maxImageBytes"`
	MaxVideoBytes  int64 `yaml:"maxVideoBytes"`
	MaxAvatarBytes int64 `yaml:"maxAvatarBytes"`
}

// StorageConfig selects the persistence backends.
type StorageConfig struct {
	Valkey   ValkeyConfig   `yaml:"valkey"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// ValkeyConfig contains connection information for the key-value store.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from defaults, a .env file, a YAML file and the
// environment, in that order.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	setList(&cfg.HTTP.AllowedOrigins, "HTTP_ALLOWED_ORIGINS")
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	setBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	if cfg.LLM.APIKey == "" {
		setString(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	}
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	setInt(&cfg.LLM.MaxOutputTokens, "LLM_MAX_OUTPUT_TOKENS")
	setDuration(&cfg.LLM.Timeout, "LLM_TIMEOUT")

	setString(&cfg.Weather.OpenWeatherAPIKey, "OPENWEATHER_API_KEY")
	setString(&cfg.Weather.OpenWeatherBaseURL, "OPENWEATHER_BASE_URL")
	setString(&cfg.Weather.VisualCrossingAPIKey, "VISUAL_CROSSING_API_KEY")
	setString(&cfg.Weather.VisualCrossingBaseURL, "VISUAL_CROSSING_BASE_URL")
	setDuration(&cfg.Weather.Timeout, "WEATHER_TIMEOUT")

	setString(&cfg.Geo.NominatimBaseURL, "NOMINATIM_BASE_URL")
	setString(&cfg.Geo.GoogleMapsAPIKey, "GOOGLE_MAPS_API_KEY")
	setString(&cfg.Geo.GoogleMapsBaseURL, "GOOGLE_MAPS_BASE_URL")
	setString(&cfg.Geo.Country, "GEO_COUNTRY")
	setInt(&cfg.Geo.CacheSize, "GEO_CACHE_SIZE")
	setDuration(&cfg.Geo.Debounce, "GEO_DEBOUNCE")
	setInt(&cfg.Geo.MinQueryLength, "GEO_MIN_QUERY_LENGTH")

	setString(&cfg.Nationwide.CacheKey, "NATIONWIDE_CACHE_KEY")
	setDuration(&cfg.Nationwide.TTL, "NATIONWIDE_TTL")
	setDuration(&cfg.Nationwide.RefreshInterval, "NATIONWIDE_REFRESH_INTERVAL")
	setDuration(&cfg.Nationwide.RefreshTimeout, "NATIONWIDE_REFRESH_TIMEOUT")
	setString(&cfg.Nationwide.Region, "NATIONWIDE_REGION")
	setString(&cfg.Nationwide.Prompt, "NATIONWIDE_PROMPT")

	setString(&cfg.Backend.BaseURL, "BACKEND_BASE_URL")
	setDuration(&cfg.Backend.Timeout, "BACKEND_TIMEOUT")

	setString(&cfg.Session.Secret, "SESSION_SECRET")
	setDuration(&cfg.Session.TokenTTL, "SESSION_TOKEN_TTL")
	setDuration(&cfg.Session.StoreTTL, "SESSION_STORE_TTL")

	setBool(&cfg.Storage.Valkey.Enabled, "VALKEY_ENABLED")
	setString(&cfg.Storage.Valkey.Addr, "VALKEY_ADDR")
	setString(&cfg.Storage.Postgres.DSN, "POSTGRES_DSN")
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.MaxConns = int32(parsed)
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8090",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   120 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/places/autocomplete",
				},
			},
		},
		LLM: LLMConfig{
			Provider:        "gemini",
			Model:           "gemini-2.5-flash",
			Temperature:     0.2,
			MaxOutputTokens: 2048,
			Timeout:         60 * time.Second,
		},
		Weather: WeatherConfig{
			OpenWeatherBaseURL:    "https://api.openweathermap.org",
			VisualCrossingBaseURL: "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline",
			Timeout:               10 * time.Second,
		},
		Geo: GeoConfig{
			NominatimBaseURL:  "https://nominatim.openstreetmap.org",
			GoogleMapsBaseURL: "https://maps.googleapis.com/maps/api",
			Country:           "in",
			Types:             []string{"geocode", "establishment"},
			CacheSize:         1024,
			Debounce:          300 * time.Millisecond,
			MinQueryLength:    3,
			Timeout:           10 * time.Second,
			DefaultLocation: DefaultLocation{
				Name:      "New Delhi, India",
				Latitude:  28.6139,
				Longitude: 77.2090,
			},
		},
		Nationwide: NationwideConfig{
			CacheKey:        "nationwideWeatherV1",
			TTL:             10 * time.Minute,
			RefreshInterval: 10 * time.Minute,
			RefreshTimeout:  90 * time.Second,
			Region:          "India",
		},
		Prediction: PredictionConfig{
			HorizonHours: 72,
			RadiusKm:     50,
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			Secret:   DevSessionSecret,
			TokenTTL: 24 * time.Hour,
			StoreTTL: 7 * 24 * time.Hour,
		},
		Report: ReportConfig{
			MaxImageBytes:  5 << 20,
			MaxVideoBytes:  20 << 20,
			MaxAvatarBytes: 5 << 20,
		},
		Storage: StorageConfig{
			Valkey: ValkeyConfig{
				Prefix: "disha",
			},
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini", "openai":
	default:
		return fmt.Errorf("llm.provider %q must be gemini or openai", c.LLM.Provider)
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.Geo.MinQueryLength < 0 {
		return errors.New("geo.minQueryLength cannot be negative")
	}
	if c.Geo.Debounce < 0 {
		return errors.New("geo.debounce cannot be negative")
	}
	if c.Geo.DefaultLocation.Latitude < -90 || c.Geo.DefaultLocation.Latitude > 90 ||
		c.Geo.DefaultLocation.Longitude < -180 || c.Geo.DefaultLocation.Longitude > 180 {
		return errors.New("geo.defaultLocation is out of range")
	}
	if strings.TrimSpace(c.Nationwide.CacheKey) == "" {
		return errors.New("nationwide.cacheKey cannot be empty")
	}
	if c.Nationwide.TTL <= 0 {
		return errors.New("nationwide.ttl must be positive")
	}
	if c.Nationwide.RefreshInterval <= 0 {
		return errors.New("nationwide.refreshInterval must be positive")
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend.baseUrl cannot be empty")
	}
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errors.New("session.secret cannot be empty")
	}
	if c.Session.TokenTTL <= 0 {
		return errors.New("session.tokenTtl must be positive")
	}
	if c.Report.MaxImageBytes <= 0 || c.Report.MaxVideoBytes <= 0 || c.Report.MaxAvatarBytes <= 0 {
		return errors.New("report limits must be positive")
	}
	if c.Storage.Valkey.Enabled && strings.TrimSpace(c.Storage.Valkey.Addr) == "" {
		return errors.New("storage.valkey.addr cannot be empty when valkey is enabled")
	}
	return nil
}
