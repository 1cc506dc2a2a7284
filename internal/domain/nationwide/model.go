package nationwide

import (
	"time"

	"github.com/yanqian/disha/internal/domain/alerts"
)

// SummaryItem is one region of the generated nationwide summary. Values are
// free-form strings as produced by the model.
type SummaryItem struct {
	Region       string          `json:"region"`
	Condition    string          `json:"condition"`
	Severity     alerts.Severity `json:"severity"`
	Temperature  string          `json:"temperature"`
	Rainfall     string          `json:"rainfall"`
	WindSpeed    string          `json:"windSpeed"`
	AlertMessage string          `json:"alertMessage"`
}

// CachedSummary is the persisted value under the cache key.
type CachedSummary struct {
	FetchedAtMillis int64         `json:"fetchedAt"`
	Items           []SummaryItem `json:"items"`
}

// Response is what the nationwide endpoint returns.
type Response struct {
	Items           []SummaryItem `json:"items"`
	FetchedAt       *time.Time    `json:"fetchedAt,omitempty"`
	AgeSeconds      int64         `json:"ageSeconds"`
	Stale           bool          `json:"stale"`
	Refreshing      bool          `json:"refreshing"`
	HasHighSeverity bool          `json:"hasHighSeverity"`
}

// Config wires runtime options for the nationwide summary.
type Config struct {
	CacheKey        string
	TTL             time.Duration
	RefreshInterval time.Duration
	RefreshTimeout  time.Duration
	Region          string
	Prompt          string
}
