package prediction

import "github.com/yanqian/disha/internal/domain/alerts"

// Request carries the point to assess.
type Request struct {
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
}

// Prediction is one possible secondary disaster.
type Prediction struct {
	Type              string   `json:"type"`
	Probability       int      `json:"probability"`
	TimeframeHours    float64  `json:"timeframe"`
	Location          string   `json:"location"`
	Coordinates       string   `json:"coordinates"`
	ImpactZone        string   `json:"impactZone"`
	WeatherConditions string   `json:"weatherConditions"`
	SafetyTips        []string `json:"safetyTips"`
}

// Response lists the predictions for a point. An empty list means no risk
// was found or the model produced nothing usable.
type Response struct {
	Location    string                `json:"location"`
	Coordinates string                `json:"coordinates"`
	Weather     alerts.CurrentWeather `json:"weather"`
	Predictions []Prediction          `json:"predictions"`
}

// Config holds prediction settings.
type Config struct {
	// HorizonHours is how far ahead the model is asked to look.
	HorizonHours int
	// RadiusKm is the surrounding area the model should consider.
	RadiusKm int
}
