package nationwide

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/disha/internal/infra/kvstore"
	"github.com/yanqian/disha/pkg/metrics"
)

const validSummary = `[{"state":"Kerala","condition":"Heavy rain","severity":"high"},{"state":"Delhi","condition":"Haze","severity":"medium"}]`

func TestRefreshStoresFreshSummary(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 7, 1, 6, 0, 0, 0, time.UTC))
	store := kvstore.NewMemoryStore()
	gen := &stubGenerator{outputs: []string{validSummary}}
	m := metrics.NewMetricsForTesting()
	svc := newTestService(store, gen, clock, m)

	items, ran := svc.Refresh(context.Background())
	require.True(t, ran)
	require.Len(t, items, 2)
	require.Contains(t, gen.lastPrompt(), "INDIA-wide")
	require.Equal(t, 1.0, testutil.ToFloat64(m.NationwideRefresh.WithLabelValues("success")))

	res := svc.Current(context.Background())
	require.False(t, res.Stale)
	require.True(t, res.HasHighSeverity)
	require.Len(t, res.Items, 2)
	require.NotNil(t, res.FetchedAt)
	require.Equal(t, clock.Now().UnixMilli(), res.FetchedAt.UnixMilli())
}

func TestRefreshFailureKeepsCache(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := kvstore.NewMemoryStore()
	gen := &stubGenerator{outputs: []string{validSummary, "not json at all", "[]"}, errs: []error{nil, nil, nil, errors.New("503")}}
	svc := newTestService(store, gen, clock, metrics.NewMetricsForTesting())
	ctx := context.Background()

	_, ran := svc.Refresh(ctx)
	require.True(t, ran)
	before, ok, err := store.Get(ctx, "nationwideWeatherV1")
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		clock.Advance(time.Minute)
		items, ran := svc.Refresh(ctx)
		require.True(t, ran)
		require.Nil(t, items)
	}

	after, ok, err := store.Get(ctx, "nationwideWeatherV1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, before, after)
}

func TestRefreshGuardDropsConcurrentRequests(t *testing.T) {
	gen := &blockingGenerator{started: make(chan struct{}), release: make(chan struct{}), output: validSummary}
	svc := newTestService(kvstore.NewMemoryStore(), gen, clockwork.NewFakeClock(), metrics.NewMetricsForTesting())

	type outcome struct {
		items []SummaryItem
		ran   bool
	}
	done := make(chan outcome, 1)
	go func() {
		items, ran := svc.Refresh(context.Background())
		done <- outcome{items: items, ran: ran}
	}()
	<-gen.started

	items, ran := svc.Refresh(context.Background())
	require.False(t, ran)
	require.Nil(t, items)
	require.True(t, svc.Current(context.Background()).Refreshing)

	close(gen.release)
	first := <-done
	require.True(t, first.ran)
	require.Len(t, first.items, 2)
	require.Equal(t, 1, gen.callCount())
}

func TestCurrentReportsRefreshingOnFirstEmptyCacheCall(t *testing.T) {
	gen := &blockingGenerator{started: make(chan struct{}), release: make(chan struct{}), output: validSummary}
	svc := newTestService(kvstore.NewMemoryStore(), gen, clockwork.NewFakeClock(), metrics.NewMetricsForTesting())
	ctx := context.Background()

	res := svc.Current(ctx)
	require.True(t, res.Stale)
	require.Empty(t, res.Items)
	require.True(t, res.Refreshing)

	<-gen.started
	require.True(t, svc.Current(ctx).Refreshing)
	require.Equal(t, 1, gen.callCount())

	close(gen.release)
	svc.(*service).wait()
	res = svc.Current(ctx)
	require.False(t, res.Refreshing)
	require.False(t, res.Stale)
	require.Len(t, res.Items, 2)
}

func TestCurrentServesStaleAndRefreshesInBackground(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 7, 1, 6, 0, 0, 0, time.UTC))
	store := kvstore.NewMemoryStore()
	gen := &stubGenerator{outputs: []string{validSummary, `[{"state":"Goa","severity":"low"}]`}}
	svc := newTestService(store, gen, clock, metrics.NewMetricsForTesting())
	ctx := context.Background()

	_, ran := svc.Refresh(ctx)
	require.True(t, ran)

	clock.Advance(10*time.Minute + time.Millisecond)
	res := svc.Current(ctx)
	require.True(t, res.Stale)
	require.Len(t, res.Items, 2)
	require.Equal(t, int64(600), res.AgeSeconds)

	svc.(*service).wait()
	res = svc.Current(ctx)
	require.False(t, res.Stale)
	require.Len(t, res.Items, 1)
	require.Equal(t, "Goa", res.Items[0].Region)
}

func TestCurrentWithoutCacheIsEmptyAndStale(t *testing.T) {
	gen := &stubGenerator{errs: []error{errors.New("offline")}}
	svc := newTestService(kvstore.NewMemoryStore(), gen, clockwork.NewFakeClock(), metrics.NewMetricsForTesting())

	res := svc.Current(context.Background())
	require.True(t, res.Stale)
	require.NotNil(t, res.Items)
	require.Empty(t, res.Items)
	require.Nil(t, res.FetchedAt)
	svc.(*service).wait()
}

func TestRunRefreshesOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	gen := &stubGenerator{outputs: []string{validSummary, validSummary, validSummary}}
	svc := newTestService(kvstore.NewMemoryStore(), gen, clock, metrics.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- svc.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	require.Equal(t, 1, gen.callCount())

	clock.Advance(10 * time.Minute)
	require.Eventually(t, func() bool { return gen.callCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop")
	}
}

func newTestService(store *kvstore.MemoryStore, gen Generator, clock clockwork.Clock, m *metrics.Metrics) Service {
	return NewService(Config{
		CacheKey:        "nationwideWeatherV1",
		TTL:             10 * time.Minute,
		RefreshInterval: 10 * time.Minute,
		Region:          "India",
	}, store, gen, clock, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type stubGenerator struct {
	mu      sync.Mutex
	outputs []string
	errs    []error
	calls   int
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	if idx < len(s.outputs) {
		return s.outputs[idx], nil
	}
	return "", errors.New("no more outputs")
}

func (s *stubGenerator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubGenerator) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
	output  string
	mu      sync.Mutex
	calls   int
}

func (b *blockingGenerator) Generate(ctx context.Context, _ string) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	close(b.started)
	select {
	case <-b.release:
		return b.output, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (b *blockingGenerator) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}
