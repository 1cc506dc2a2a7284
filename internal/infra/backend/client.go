package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/yanqian/disha/pkg/errors"
	"github.com/yanqian/disha/pkg/metrics"
)

const (
	loginPath        = "/api/v1/users/login"
	registerPath     = "/api/v1/users/register"
	refreshPath      = "/api/v1/users/refresh-token"
	currentUserPath  = "/api/v1/users/current-user"
	maxErrorBodySize = 4 << 10
)

// Messages shown to the user for authentication failures.
const (
	MessageNotAuthenticated = "You need to be logged in"
	MessageSessionExpired   = "Session expired. Please login again."
)

// Payload is a request body with its content type.
type Payload struct {
	Body        []byte
	ContentType string
}

// JSONPayload encodes v as a JSON payload.
func JSONPayload(v any) (Payload, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Body: body, ContentType: "application/json"}, nil
}

// TokenStore holds the backend credentials of one signed-in user.
type TokenStore interface {
	Tokens(ctx context.Context) (access, refresh string, err error)
	SetAccessToken(ctx context.Context, access string) error
}

// Client calls the DISHA backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient builds a backend client.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
		logger:     logger.With("component", "backend.client"),
	}
}

// Envelope is the backend's response wrapper.
type Envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

// Response is a successful backend answer.
type Response struct {
	Status int
	Body   []byte
}

// Envelope decodes the body; bodies that are not an envelope yield a zero
// value with Data set to the raw body.
func (r Response) Envelope() Envelope {
	var env Envelope
	if err := json.Unmarshal(r.Body, &env); err != nil || len(env.Data) == 0 {
		return Envelope{StatusCode: r.Status, Data: r.Body, Message: env.Message, Success: true}
	}
	return env
}

// Public sends an unauthenticated request.
func (c *Client) Public(ctx context.Context, method, path string, payload *Payload) (Response, error) {
	status, body, err := c.send(ctx, method, path, "", payload)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeBackend, "backend is unreachable", err)
	}
	if status < 200 || status >= 300 {
		return Response{}, statusError(status, body)
	}
	return Response{Status: status, Body: body}, nil
}

// Authorized sends a request with the caller's access credential. A 401 is
// answered with exactly one credential refresh and one retry.
func (c *Client) Authorized(ctx context.Context, tokens TokenStore, method, path string, payload *Payload) (Response, error) {
	access, refresh, err := tokens.Tokens(ctx)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load credentials", err)
	}
	if access == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeNotAuthenticated, MessageNotAuthenticated, nil)
	}

	status, body, err := c.send(ctx, method, path, access, payload)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeBackend, "backend is unreachable", err)
	}
	if status == http.StatusUnauthorized {
		fresh, err := c.refresh(ctx, refresh)
		if err != nil {
			c.recordRefresh("expired")
			c.logger.Info("credential refresh failed", "path", path, "error", err)
			return Response{}, apperrors.Wrap(apperrors.CodeSessionExpired, MessageSessionExpired, err)
		}
		c.recordRefresh("refreshed")
		if err := tokens.SetAccessToken(ctx, fresh); err != nil {
			c.logger.Warn("store refreshed credential failed", "error", err)
		}

		status, body, err = c.send(ctx, method, path, fresh, payload)
		if err != nil {
			return Response{}, apperrors.Wrap(apperrors.CodeBackend, "backend is unreachable", err)
		}
		if status == http.StatusUnauthorized {
			return Response{}, apperrors.Wrap(apperrors.CodeSessionExpired, MessageSessionExpired, nil)
		}
	}
	if status < 200 || status >= 300 {
		return Response{}, statusError(status, body)
	}
	return Response{Status: status, Body: body}, nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", errors.New("no refresh credential")
	}
	payload, err := JSONPayload(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", err
	}
	status, body, err := c.send(ctx, http.MethodPost, refreshPath, "", &payload)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("refresh rejected: status=%d", status)
	}
	var out struct {
		AccessToken string `json:"accessToken"`
		Data        struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	token := out.AccessToken
	if token == "" {
		token = out.Data.AccessToken
	}
	if token == "" {
		return "", errors.New("refresh response has no access token")
	}
	return token, nil
}

func (c *Client) send(ctx context.Context, method, path, access string, payload *Payload) (int, []byte, error) {
	start := time.Now()
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build backend request: %w", err)
	}
	if payload != nil && payload.ContentType != "" {
		req.Header.Set("Content-Type", payload.ContentType)
	}
	req.Header.Set("Accept", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(req)
	c.observe(start, err)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read backend response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) observe(start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.WithLabelValues("backend").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamErrors.WithLabelValues("backend").Inc()
	}
}

func (c *Client) recordRefresh(outcome string) {
	if c.metrics != nil {
		c.metrics.CredentialRefresh.WithLabelValues(outcome).Inc()
	}
}

// StatusError carries a non-success backend status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status=%d: %s", e.Status, e.Message)
}

// StatusOf returns the backend HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}

func statusError(status int, body []byte) error {
	var env Envelope
	message := ""
	if json.Unmarshal(body, &env) == nil {
		message = env.Message
	}
	if message == "" {
		if len(body) > maxErrorBodySize {
			body = body[:maxErrorBodySize]
		}
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return apperrors.Wrap(apperrors.CodeBackend, message, &StatusError{Status: status, Message: message})
}
