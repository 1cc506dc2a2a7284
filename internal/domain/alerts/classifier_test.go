package alerts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyNoReadings(t *testing.T) {
	alerts := Classify(Readings{})
	require.Empty(t, alerts)
	require.False(t, HasHighSeverity(alerts))
}

func TestClassifyAirQuality(t *testing.T) {
	cases := []struct {
		aqi  float64
		want int
	}{
		{aqi: 42, want: 0},
		{aqi: 100, want: 0},
		{aqi: 100.5, want: 1},
		{aqi: 180, want: 1},
	}
	for _, tc := range cases {
		alerts := byCategory(Classify(Readings{AirQualityIndex: ptr(tc.aqi)}), "air_quality")
		require.Len(t, alerts, tc.want, "aqi %.1f", tc.aqi)
		for _, a := range alerts {
			require.Equal(t, SeverityHigh, a.Severity)
			require.Equal(t, "Air quality is unhealthy. Consider staying indoors.", a.Message)
		}
	}
}

func TestClassifyHubWindBands(t *testing.T) {
	cases := []struct {
		speed    float64
		severity Severity
		fires    bool
	}{
		{speed: 12, fires: false},
		{speed: 30, fires: false},
		{speed: 30.1, severity: SeverityMedium, fires: true},
		{speed: 50, severity: SeverityMedium, fires: true},
		{speed: 50.1, severity: SeverityHigh, fires: true},
		{speed: 95, severity: SeverityHigh, fires: true},
	}
	for _, tc := range cases {
		alerts := byCategory(Classify(Readings{HubWindKPH: ptr(tc.speed)}), "high_winds")
		if !tc.fires {
			require.Empty(t, alerts, "speed %.1f", tc.speed)
			continue
		}
		require.Len(t, alerts, 1, "speed %.1f", tc.speed)
		require.Equal(t, tc.severity, alerts[0].Severity, "speed %.1f", tc.speed)
	}
}

func TestClassifyTemperature(t *testing.T) {
	hot := Classify(Readings{TemperatureC: ptr(35)})
	require.Len(t, byCategory(hot, "extreme_heat"), 1)
	require.True(t, HasHighSeverity(hot))

	mild := Classify(Readings{TemperatureC: ptr(22)})
	require.Empty(t, mild)

	cold := Classify(Readings{TemperatureC: ptr(0)})
	freezing := byCategory(cold, "freezing_temperature")
	require.Len(t, freezing, 1)
	require.Equal(t, SeverityMedium, freezing[0].Severity)
}

func TestClassifySurfaceWindIsSeparateFromHubWind(t *testing.T) {
	alerts := Classify(Readings{SurfaceWindMS: ptr(12), HubWindKPH: ptr(20)})
	require.Len(t, alerts, 1)
	require.Equal(t, "wind_advisory", alerts[0].Category)
	require.Equal(t, SeverityLow, alerts[0].Severity)
}

func TestClassifyConditions(t *testing.T) {
	storm := Classify(Readings{Condition: "Thunderstorm"})
	require.Len(t, byCategory(storm, "thunderstorm"), 1)

	drizzle := Classify(Readings{Condition: "Rain", RainLastHourMM: ptr(4)})
	require.Empty(t, drizzle)

	downpour := Classify(Readings{Condition: "rain", RainLastHourMM: ptr(14)})
	require.Len(t, byCategory(downpour, "heavy_rainfall"), 1)

	noGauge := Classify(Readings{Condition: "Rain"})
	require.Empty(t, noGauge)
}

func TestClassifyRulesFireTogether(t *testing.T) {
	alerts := Classify(Readings{
		TemperatureC:    ptr(41),
		HubWindKPH:      ptr(62),
		AirQualityIndex: ptr(240),
		Condition:       "Thunderstorm",
	})
	require.Len(t, alerts, 4)
	require.Equal(t, alerts, Classify(Readings{
		TemperatureC:    ptr(41),
		HubWindKPH:      ptr(62),
		AirQualityIndex: ptr(240),
		Condition:       "Thunderstorm",
	}))
}

func TestParseSeverity(t *testing.T) {
	require.Equal(t, SeverityHigh, ParseSeverity(" HIGH "))
	require.Equal(t, SeverityMedium, ParseSeverity("Medium"))
	require.Equal(t, SeverityLow, ParseSeverity("severe"))
	require.Equal(t, SeverityLow, ParseSeverity(""))
}

func byCategory(alerts []Alert, category string) []Alert {
	var out []Alert
	for _, a := range alerts {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

func ptr(v float64) *float64 {
	return &v
}
