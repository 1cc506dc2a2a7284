package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yanqian/disha/pkg/metrics"
)

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Upstream string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed: status=%d body=%s", e.Upstream, e.Status, e.Body)
}

// Client performs JSON GET requests against one third-party API and
// records their latency.
type Client struct {
	name       string
	userAgent  string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// New builds a client. m may be nil.
func New(name string, timeout time.Duration, m *metrics.Metrics) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		name:       name,
		userAgent:  "disha-gateway/1.0",
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}
}

// WithTransport swaps the HTTP transport.
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	c.httpClient.Transport = rt
	return c
}

// Name is the upstream label used in metrics and errors.
func (c *Client) Name() string {
	return c.name
}

// GetJSON fetches endpoint and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, out any) (err error) {
	start := time.Now()
	defer func() { c.observe(start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Upstream: c.name, Status: resp.StatusCode, Body: string(payload)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return nil
}

func (c *Client) observe(start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamErrors.WithLabelValues(c.name).Inc()
	}
}
