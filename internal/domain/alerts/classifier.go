package alerts

import "strings"

// Thresholds used by the default rules.
const (
	HeatThresholdC         = 35.0
	FreezingThresholdC     = 0.0
	WindAdvisoryMS         = 10.0
	HubWindMediumKPH       = 30.0
	HubWindHighKPH         = 50.0
	AirQualityUnhealthyAQI = 100.0
	HeavyRainfallPerHourMM = 10.0
)

// Rule inspects readings and optionally produces one alert.
type Rule func(r Readings) (Alert, bool)

// DefaultRules is the fixed rule set. Rules are independent; order only
// affects the order of the returned alerts.
var DefaultRules = []Rule{
	extremeHeat,
	freezing,
	windAdvisory,
	highWinds,
	airQuality,
	thunderstorm,
	heavyRainfall,
}

// Classify evaluates DefaultRules against r.
func Classify(r Readings) []Alert {
	return ClassifyWith(r, DefaultRules)
}

// ClassifyWith evaluates rules against r and returns every alert that fired.
func ClassifyWith(r Readings, rules []Rule) []Alert {
	out := make([]Alert, 0, len(rules))
	for _, rule := range rules {
		if alert, ok := rule(r); ok {
			out = append(out, alert)
		}
	}
	return out
}

// HasHighSeverity reports whether any alert is high severity.
func HasHighSeverity(alerts []Alert) bool {
	for _, a := range alerts {
		if a.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

func extremeHeat(r Readings) (Alert, bool) {
	if r.TemperatureC == nil || *r.TemperatureC < HeatThresholdC {
		return Alert{}, false
	}
	return Alert{
		Category: "extreme_heat",
		Severity: SeverityHigh,
		Message:  "Extreme heat warning. Stay hydrated and avoid the midday sun.",
	}, true
}

func freezing(r Readings) (Alert, bool) {
	if r.TemperatureC == nil || *r.TemperatureC > FreezingThresholdC {
		return Alert{}, false
	}
	return Alert{
		Category: "freezing_temperature",
		Severity: SeverityMedium,
		Message:  "Freezing temperature alert. Protect exposed pipes and dress in layers.",
	}, true
}

func windAdvisory(r Readings) (Alert, bool) {
	if r.SurfaceWindMS == nil || *r.SurfaceWindMS < WindAdvisoryMS {
		return Alert{}, false
	}
	return Alert{
		Category: "wind_advisory",
		Severity: SeverityLow,
		Message:  "Strong wind advisory. Secure loose objects outdoors.",
	}, true
}

func highWinds(r Readings) (Alert, bool) {
	if r.HubWindKPH == nil {
		return Alert{}, false
	}
	switch speed := *r.HubWindKPH; {
	case speed > HubWindHighKPH:
		return Alert{
			Category: "high_winds",
			Severity: SeverityHigh,
			Message:  "Extremely strong winds expected. Take necessary precautions.",
		}, true
	case speed > HubWindMediumKPH:
		return Alert{
			Category: "high_winds",
			Severity: SeverityMedium,
			Message:  "Strong winds expected. Secure loose objects outdoors.",
		}, true
	default:
		return Alert{}, false
	}
}

func airQuality(r Readings) (Alert, bool) {
	if r.AirQualityIndex == nil || *r.AirQualityIndex <= AirQualityUnhealthyAQI {
		return Alert{}, false
	}
	return Alert{
		Category: "air_quality",
		Severity: SeverityHigh,
		Message:  "Air quality is unhealthy. Consider staying indoors.",
	}, true
}

func thunderstorm(r Readings) (Alert, bool) {
	if normalizeLabel(r.Condition) != "thunderstorm" {
		return Alert{}, false
	}
	return Alert{
		Category: "thunderstorm",
		Severity: SeverityHigh,
		Message:  "Severe thunderstorm warning. Stay indoors and away from windows.",
	}, true
}

func heavyRainfall(r Readings) (Alert, bool) {
	if normalizeLabel(r.Condition) != "rain" || r.RainLastHourMM == nil || *r.RainLastHourMM <= HeavyRainfallPerHourMM {
		return Alert{}, false
	}
	return Alert{
		Category: "heavy_rainfall",
		Severity: SeverityMedium,
		Message:  "Heavy rainfall alert. Avoid low-lying and flood-prone areas.",
	}, true
}

func normalizeLabel(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
