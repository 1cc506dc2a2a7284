package nationwide

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yanqian/disha/internal/domain/alerts"
	"github.com/yanqian/disha/pkg/kv"
	"github.com/yanqian/disha/pkg/metrics"
)

const defaultPrompt = `Return ONLY a VALID JSON array. No markdown, no commentary.
Summarize the current %s-wide weather, one object per state or union territory that has notable conditions.
Each object must have exactly these string fields:
"state", "condition", "severity" (one of "low", "medium", "high"), "temperature", "rainfall", "windSpeed", "alertMessage".`

// Service serves the cached nationwide summary and keeps it fresh.
type Service interface {
	// Current returns the cached summary immediately and starts a background
	// refresh when it is stale.
	Current(ctx context.Context) Response
	// Refresh regenerates the summary now. ran is false when another refresh
	// was already in flight; items is nil when no fresh data was produced.
	Refresh(ctx context.Context) (items []SummaryItem, ran bool)
	// Run refreshes on a fixed interval until ctx is done.
	Run(ctx context.Context) error
}

// Generator produces raw model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type service struct {
	cfg       Config
	cache     *Cache
	generator Generator
	clock     clockwork.Clock
	metrics   *metrics.Metrics
	logger    *slog.Logger

	inFlight   atomic.Bool
	background sync.WaitGroup
}

// NewService wires up the nationwide summary domain.
func NewService(cfg Config, store kv.Store, generator Generator, clock clockwork.Clock, m *metrics.Metrics, logger *slog.Logger) Service {
	if cfg.CacheKey == "" {
		cfg.CacheKey = "nationwideWeatherV1"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 10 * time.Minute
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 90 * time.Second
	}
	if cfg.Region == "" {
		cfg.Region = "India"
	}
	logger = logger.With("component", "nationwide.service")
	return &service{
		cfg:       cfg,
		cache:     NewCache(store, cfg.CacheKey, logger),
		generator: generator,
		clock:     clock,
		metrics:   m,
		logger:    logger,
	}
}

func (s *service) Current(ctx context.Context) Response {
	cached := s.cache.Load(ctx)
	now := s.clock.Now()
	stale := IsStale(cached, millis(now), s.cfg.TTL.Milliseconds())

	res := Response{Items: []SummaryItem{}, Stale: stale}
	if cached != nil {
		fetchedAt := time.UnixMilli(cached.FetchedAtMillis).UTC()
		res.FetchedAt = &fetchedAt
		res.AgeSeconds = int64(now.Sub(fetchedAt) / time.Second)
		if cached.Items != nil {
			res.Items = cached.Items
		}
		if s.metrics != nil {
			s.metrics.NationwideAge.Set(float64(res.AgeSeconds))
		}
	}
	for _, item := range res.Items {
		if item.Severity == alerts.SeverityHigh {
			res.HasHighSeverity = true
			break
		}
	}

	if stale {
		s.refreshInBackground(ctx)
	}
	res.Refreshing = s.inFlight.Load()
	return res
}

func (s *service) Refresh(ctx context.Context) ([]SummaryItem, bool) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.record("skipped")
		s.logger.Info("nationwide refresh dropped, another refresh is running")
		return nil, false
	}
	defer s.inFlight.Store(false)
	return s.generate(ctx), true
}

func (s *service) Run(ctx context.Context) error {
	if IsStale(s.cache.Load(ctx), millis(s.clock.Now()), s.cfg.TTL.Milliseconds()) {
		s.refreshWithTimeout(ctx)
	}

	ticker := s.clock.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()
	s.logger.Info("nationwide refresher started", "interval", s.cfg.RefreshInterval.String())

	for {
		select {
		case <-ctx.Done():
			s.background.Wait()
			s.logger.Info("nationwide refresher stopped")
			return nil
		case <-ticker.Chan():
			s.refreshWithTimeout(ctx)
		}
	}
}

// refreshInBackground claims the in-flight guard on the caller's goroutine
// and hands it to the spawned refresh, so the response can report it.
func (s *service) refreshInBackground(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RefreshTimeout)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer cancel()
		defer s.inFlight.Store(false)
		s.generate(detached)
	}()
}

func (s *service) refreshWithTimeout(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RefreshTimeout)
	defer cancel()
	s.Refresh(ctx)
}

// generate never returns an error; every failure leaves the cache as it was.
func (s *service) generate(ctx context.Context) []SummaryItem {
	raw, err := s.generator.Generate(ctx, s.prompt())
	if err != nil {
		s.record("error")
		s.logger.Warn("nationwide summary generation failed", "error", err)
		return nil
	}
	items, err := ParseSummary(raw)
	if err != nil {
		s.record("malformed")
		s.logger.Warn("nationwide summary malformed", "error", err)
		return nil
	}
	if len(items) == 0 {
		s.record("malformed")
		s.logger.Warn("nationwide summary empty, keeping previous cache")
		return nil
	}

	summary := CachedSummary{FetchedAtMillis: millis(s.clock.Now()), Items: items}
	if err := s.cache.Save(ctx, summary); err != nil {
		s.record("error")
		s.logger.Warn("nationwide cache write failed", "error", err)
		return nil
	}
	s.record("success")
	s.logger.Info("nationwide summary refreshed", "regions", len(items))
	return items
}

func (s *service) prompt() string {
	if p := strings.TrimSpace(s.cfg.Prompt); p != "" {
		return p
	}
	return fmt.Sprintf(defaultPrompt, strings.ToUpper(s.cfg.Region))
}

func (s *service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.NationwideRefresh.WithLabelValues(outcome).Inc()
	}
}

func (s *service) wait() {
	s.background.Wait()
}
