package prediction

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var arrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

type rawPrediction struct {
	Type              string          `json:"type"`
	Probability       json.RawMessage `json:"probability"`
	Timeframe         json.RawMessage `json:"timeframe"`
	ImpactZone        string          `json:"impactZone"`
	WeatherConditions string          `json:"weatherConditions"`
	SafetyTips        []string        `json:"safetyTips"`
}

// ParsePredictions extracts the first JSON array from model output. Items
// without a type are dropped and probabilities are clamped to 0..100.
func ParsePredictions(raw string) ([]Prediction, error) {
	match := arrayPattern.FindString(raw)
	if match == "" {
		return nil, fmt.Errorf("no JSON array in model output")
	}
	var items []rawPrediction
	if err := json.Unmarshal([]byte(match), &items); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	out := make([]Prediction, 0, len(items))
	for _, item := range items {
		kind := strings.TrimSpace(item.Type)
		if kind == "" {
			continue
		}
		prob := number(item.Probability)
		tips := make([]string, 0, len(item.SafetyTips))
		for _, tip := range item.SafetyTips {
			if tip = strings.TrimSpace(tip); tip != "" {
				tips = append(tips, tip)
			}
		}
		out = append(out, Prediction{
			Type:              kind,
			Probability:       int(math.Round(math.Min(100, math.Max(0, prob)))),
			TimeframeHours:    math.Max(0, number(item.Timeframe)),
			ImpactZone:        strings.TrimSpace(item.ImpactZone),
			WeatherConditions: strings.TrimSpace(item.WeatherConditions),
			SafetyTips:        tips,
		})
	}
	return out, nil
}

// number reads a JSON number or a numeric string such as "65%" or "24 hours".
func number(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-'
	})
	if end >= 0 {
		s = s[:end]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
