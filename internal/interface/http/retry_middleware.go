package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/disha/internal/infra/config"
)

const maxRetryBackoff = 2 * time.Second

// withRetry replays idempotent GETs whose upstream answered with a
// transient gateway status. Excluded paths and other methods pass through.
func withRetry(next http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return next
	}
	skip := make(map[string]bool, len(cfg.Exclude))
	for _, path := range cfg.Exclude {
		skip[path] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || skip[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		var buffered *bufferedResponse
		for attempt := 1; ; attempt++ {
			buffered = newBufferedResponse()
			next.ServeHTTP(buffered, r.Clone(r.Context()))
			if !transientStatus(buffered.status) || attempt >= cfg.MaxAttempts {
				break
			}
			logger.Warn("retrying request after upstream failure",
				"path", r.URL.Path,
				"status", buffered.status,
				"attempt", attempt,
			)
			if !sleepContext(r, backoff(cfg.BaseBackoff, attempt)) {
				break
			}
		}
		buffered.flushTo(w)
	})
}

func backoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d <= 0 || d > maxRetryBackoff {
		return maxRetryBackoff
	}
	return d
}

// sleepContext waits for d and reports false if the client went away first.
func sleepContext(r *http.Request, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-r.Context().Done():
		return false
	case <-timer.C:
		return true
	}
}

func transientStatus(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// bufferedResponse holds one attempt's response until it is known to be final.
type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header)}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.WriteHeader(http.StatusOK)
	return b.body.Write(p)
}

// Flush is a no-op; gin checks for http.Flusher.
func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for key, values := range b.header {
		dst[key] = append([]string(nil), values...)
	}
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if b.body.Len() > 0 {
		_, _ = w.Write(b.body.Bytes())
	}
}
