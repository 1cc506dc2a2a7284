package report

import (
	"github.com/yanqian/disha/internal/domain/submission"
	"github.com/yanqian/disha/internal/infra/backend"
)

// Request is an incident report with one attached image or video.
type Request struct {
	Title       string
	Description string
	// Location is "lat, lon".
	Location string
	File     *backend.FilePart
}

// Response reports how the upload settled.
type Response struct {
	Submission submission.Record `json:"submission"`
	Message    string            `json:"message"`
}

// Config holds the upload limits.
type Config struct {
	MaxImageBytes int64
	MaxVideoBytes int64
}

// MaxUploadBytes is the largest upload any media type may have.
func (c Config) MaxUploadBytes() int64 {
	return max(c.MaxImageBytes, c.MaxVideoBytes)
}

type location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
