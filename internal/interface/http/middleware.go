package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/yanqian/disha/internal/infra/config"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestLogger tags every request with an ID (reusing a sane inbound one)
// and logs the outcome once the handler chain returns.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", id,
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("http request", attrs...)
		case c.Request.URL.Path == "/healthz":
			logger.Debug("http request", attrs...)
		default:
			logger.Info("http request", attrs...)
		}
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// errorHandlingMiddleware renders the last handler error as
// {"error":{"code","message"}} unless a body was already written.
func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		message := httpErr.Message
		if message == "" {
			message = httpErr.Error()
		}

		level := slog.LevelWarn
		if httpErr.Status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			"request_id", requestID(c),
			"code", httpErr.Code,
			"status", httpErr.Status,
			"path", c.Request.URL.Path,
			"error", httpErr.Err,
		)

		c.JSON(httpErr.Status, gin.H{
			"error": gin.H{
				"code":    httpErr.Code,
				"message": message,
			},
		})
	}
}

// rateLimitMiddleware applies a per-client token bucket to the API group.
func rateLimitMiddleware(cfg config.RateLimitConfig, clock clockwork.Clock, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newClientLimiter(cfg, clock)
	return func(c *gin.Context) {
		client := c.ClientIP()
		ok, wait := limiter.take(client)
		if ok {
			c.Next()
			return
		}
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		logger.Warn("rate limit exceeded", "client", client, "path", c.Request.URL.Path, "retry_after", wait)
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests, please slow down", nil))
	}
}

type clientLimiter struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	buckets   map[string]*bucket
	perSecond float64
	burst     float64
	idle      time.Duration
	lastSweep time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

func newClientLimiter(cfg config.RateLimitConfig, clock clockwork.Clock) *clientLimiter {
	burst := float64(cfg.Burst)
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		clock:     clock,
		buckets:   make(map[string]*bucket),
		perSecond: float64(cfg.RequestsPerMinute) / 60,
		burst:     burst,
		idle:      5 * time.Minute,
		lastSweep: clock.Now(),
	}
}

// take spends one token for client. When none is left it reports how long
// until the next token is available.
func (l *clientLimiter) take(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	b, ok := l.buckets[client]
	if !ok {
		b = &bucket{tokens: l.burst, seen: now}
		l.buckets[client] = b
	} else if elapsed := now.Sub(b.seen).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.burst, b.tokens+elapsed*l.perSecond)
		b.seen = now
	}

	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}

	if b.tokens < 1 {
		missing := 1 - b.tokens
		return false, time.Duration(missing / l.perSecond * float64(time.Second))
	}
	b.tokens--
	return true, 0
}

func (l *clientLimiter) sweep(now time.Time) {
	for client, b := range l.buckets {
		if now.Sub(b.seen) > l.idle {
			delete(l.buckets, client)
		}
	}
	l.lastSweep = now
}
