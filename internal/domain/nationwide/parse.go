package nationwide

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/yanqian/disha/internal/domain/alerts"
)

var (
	trailingObjectComma = regexp.MustCompile(`,\s*}`)
	trailingArrayComma  = regexp.MustCompile(`,\s*]`)
)

// ParseSummary turns raw model output into summary items. Anything that is
// not a JSON array yields an error; items without a region are dropped.
func ParseSummary(raw string) ([]SummaryItem, error) {
	cleaned := cleanModelJSON(raw)
	if cleaned == "" {
		return nil, errors.New("empty model output")
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &entries); err != nil {
		return nil, err
	}

	items := make([]SummaryItem, 0, len(entries))
	for _, entry := range entries {
		region := coerceString(entry["state"])
		if region == "" {
			region = coerceString(entry["region"])
		}
		if region == "" {
			continue
		}
		items = append(items, SummaryItem{
			Region:       region,
			Condition:    coerceString(entry["condition"]),
			Severity:     alerts.ParseSeverity(coerceString(entry["severity"])),
			Temperature:  coerceString(entry["temperature"]),
			Rainfall:     coerceString(entry["rainfall"]),
			WindSpeed:    coerceString(entry["windSpeed"]),
			AlertMessage: coerceString(entry["alertMessage"]),
		})
	}
	return items, nil
}

func cleanModelJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.ReplaceAll(cleaned, "\r", "")
	cleaned = strings.ReplaceAll(cleaned, "\n", "")
	cleaned = trailingObjectComma.ReplaceAllString(cleaned, "}")
	cleaned = trailingArrayComma.ReplaceAllString(cleaned, "]")
	return strings.TrimSpace(cleaned)
}

func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
