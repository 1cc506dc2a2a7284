package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yanqian/disha/internal/infra/llm/chatgpt"
	"github.com/yanqian/disha/internal/infra/llm/gemini"
	"github.com/yanqian/disha/pkg/metrics"
)

// Provider names a generative text backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// ErrNotConfigured is returned by the generator used when no API key is set.
var ErrNotConfigured = errors.New("generative text provider is not configured")

// Generator turns a prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config selects and tunes the provider.
type Config struct {
	Provider        Provider
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float32
	MaxOutputTokens int
	Timeout         time.Duration
}

// NewGenerator returns the generator for cfg.Provider. A missing API key
// yields a generator that always fails, so the gateway still starts and
// serves cached data.
func NewGenerator(cfg Config, m *metrics.Metrics) (Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return unconfigured{}, nil
	}
	var (
		gen Generator
		err error
	)
	switch cfg.Provider {
	case ProviderGemini, "":
		gen, err = gemini.NewClient(gemini.Options{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
			Timeout:         cfg.Timeout,
		})
	case ProviderOpenAI:
		gen, err = chatgpt.NewClient(chatgpt.Options{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxOutputTokens,
			Timeout:     cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &instrumented{next: gen, upstream: upstreamName(cfg.Provider), metrics: m}, nil
}

type instrumented struct {
	next     Generator
	upstream string
	metrics  *metrics.Metrics
}

func (g *instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := g.next.Generate(ctx, prompt)
	if g.metrics != nil {
		g.metrics.UpstreamDuration.WithLabelValues(g.upstream).Observe(time.Since(start).Seconds())
		if err != nil {
			g.metrics.UpstreamErrors.WithLabelValues(g.upstream).Inc()
		}
	}
	return text, err
}

type unconfigured struct{}

func (unconfigured) Generate(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func upstreamName(p Provider) string {
	if p == ProviderOpenAI {
		return "openai"
	}
	return "gemini"
}
