package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/disha/pkg/metrics"
)

func TestGetJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "disha-gateway/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"name":"Delhi"}`))
	}))
	defer srv.Close()

	m := metrics.NewMetricsForTesting()
	client := New("nominatim", 0, m)
	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, client.GetJSON(context.Background(), srv.URL, &out))
	require.Equal(t, "Delhi", out.Name)
	require.Zero(t, testutil.ToFloat64(m.UpstreamErrors.WithLabelValues("nominatim")))
}

func TestGetJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := metrics.NewMetricsForTesting()
	client := New("openweather", 0, m)
	var out map[string]any
	err := client.GetJSON(context.Background(), srv.URL, &out)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusUnauthorized, statusErr.Status)
	require.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamErrors.WithLabelValues("openweather")))
}
