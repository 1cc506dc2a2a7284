package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/disha/pkg/metrics"
)

func TestNewGeneratorWithoutKeyFails(t *testing.T) {
	gen, err := NewGenerator(Config{Provider: ProviderGemini}, nil)
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), "x")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewGeneratorRejectsUnknownProvider(t *testing.T) {
	_, err := NewGenerator(Config{Provider: "bard", APIKey: "k"}, nil)
	require.Error(t, err)
}

func TestOpenAIGeneratorRecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[]"}}]}`))
	}))
	defer srv.Close()

	m := metrics.NewMetricsForTesting()
	gen, err := NewGenerator(Config{Provider: ProviderOpenAI, APIKey: "k", BaseURL: srv.URL, Model: "gpt-4o-mini"}, m)
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "[]", text)
	require.Equal(t, 1, testutil.CollectAndCount(m.UpstreamDuration))
	require.Zero(t, testutil.ToFloat64(m.UpstreamErrors.WithLabelValues("openai")))
}
