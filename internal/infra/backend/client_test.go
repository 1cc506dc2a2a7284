package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/disha/pkg/errors"
	"github.com/yanqian/disha/pkg/metrics"
)

const donationPath = "/api/v1/money/make-moneyDonation"

func TestAuthorizedWithoutAccessToken(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	_, err := client.Authorized(context.Background(), &memoryTokens{}, http.MethodPost, donationPath, jsonBody(t))
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotAuthenticated))
	require.Equal(t, MessageNotAuthenticated, apperrors.MessageOf(err))
	require.Zero(t, calls)
}

func TestAuthorizedSuccessSendsBearer(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer a1", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"statusCode":201,"data":{"id":"d1"},"message":"ok","success":true}`))
	})

	resp, err := client.Authorized(context.Background(), &memoryTokens{access: "a1", refresh: "r1"}, http.MethodPost, donationPath, jsonBody(t))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.Status)
	require.JSONEq(t, `{"id":"d1"}`, string(resp.Envelope().Data))
}

func TestAuthorizedRefreshesOnceAndRetries(t *testing.T) {
	var (
		mu         sync.Mutex
		bodies     []string
		refreshes  int
		authHeader []string
	)
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.URL.Path == refreshPath {
			refreshes++
			var in map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			require.Equal(t, "r1", in["refreshToken"])
			_, _ = w.Write([]byte(`{"accessToken":"a2"}`))
			return
		}
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))
		authHeader = append(authHeader, r.Header.Get("Authorization"))
		if r.Header.Get("Authorization") == "Bearer a1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"ok":true}}`))
	})
	tokens := &memoryTokens{access: "a1", refresh: "r1"}

	_, err := client.Authorized(context.Background(), tokens, http.MethodPost, donationPath, jsonBody(t))
	require.NoError(t, err)
	require.Equal(t, 1, refreshes)
	require.Equal(t, []string{"Bearer a1", "Bearer a2"}, authHeader)
	require.Len(t, bodies, 2)
	require.Equal(t, bodies[0], bodies[1])
	require.Equal(t, "a2", tokens.access)
	require.Equal(t, 1.0, testutil.ToFloat64(m.CredentialRefresh.WithLabelValues("refreshed")))
}

func TestAuthorizedSecond401IsSessionExpired(t *testing.T) {
	var attempts, refreshes int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == refreshPath {
			refreshes++
			_, _ = w.Write([]byte(`{"data":{"accessToken":"a2"}}`))
			return
		}
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Authorized(context.Background(), &memoryTokens{access: "a1", refresh: "r1"}, http.MethodPost, donationPath, jsonBody(t))
	require.True(t, apperrors.IsCode(err, apperrors.CodeSessionExpired))
	require.Equal(t, MessageSessionExpired, apperrors.MessageOf(err))
	require.Equal(t, 2, attempts)
	require.Equal(t, 1, refreshes)
}

func TestAuthorizedRefreshRejected(t *testing.T) {
	var attempts int
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == refreshPath {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Authorized(context.Background(), &memoryTokens{access: "a1", refresh: "r1"}, http.MethodPost, donationPath, jsonBody(t))
	require.True(t, apperrors.IsCode(err, apperrors.CodeSessionExpired))
	require.Equal(t, 1, attempts)
	require.Equal(t, 1.0, testutil.ToFloat64(m.CredentialRefresh.WithLabelValues("expired")))
}

func TestAuthorizedMissingRefreshToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NotEqual(t, refreshPath, r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Authorized(context.Background(), &memoryTokens{access: "a1"}, http.MethodPost, donationPath, jsonBody(t))
	require.True(t, apperrors.IsCode(err, apperrors.CodeSessionExpired))
}

func TestAuthorizedOtherFailureIsBackendError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":400,"message":"contact is required","success":false}`))
	})

	_, err := client.Authorized(context.Background(), &memoryTokens{access: "a1", refresh: "r1"}, http.MethodPost, donationPath, jsonBody(t))
	require.True(t, apperrors.IsCode(err, apperrors.CodeBackend))
	require.Equal(t, "contact is required", apperrors.MessageOf(err))
	require.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestLoginAndCurrentUser(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case loginPath:
			_, _ = w.Write([]byte(`{"statusCode":200,"data":{"accessToken":"a1","refreshToken":"r1","user":{"fullName":"Asha Rao"}},"success":true}`))
		case currentUserPath:
			require.Equal(t, http.MethodPost, r.Method)
			_, _ = w.Write([]byte(`{"statusCode":200,"data":{"fullName":"Asha Rao","email":"asha@example.com"},"success":true}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	res, err := client.Login(context.Background(), Credentials{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.Equal(t, "a1", res.AccessToken)
	require.Equal(t, "r1", res.RefreshToken)
	require.JSONEq(t, `{"fullName":"Asha Rao"}`, string(res.User))

	user, err := client.CurrentUser(context.Background(), &memoryTokens{access: "a1", refresh: "r1"})
	require.NoError(t, err)
	require.JSONEq(t, `{"fullName":"Asha Rao","email":"asha@example.com"}`, string(user))
}

func TestLoginRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid user credentials"}`))
	})

	_, err := client.Login(context.Background(), Credentials{Email: "x@example.com", Password: "wrongpass"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeBackend))
	require.Equal(t, http.StatusUnauthorized, StatusOf(err))
	require.Equal(t, "Invalid user credentials", apperrors.MessageOf(err))
}

func TestLoginMalformedResponseIsBackendError(t *testing.T) {
	cases := map[string]string{
		"undecodable data": `{"statusCode":200,"data":"tokens","success":true}`,
		"no access token":  `{"statusCode":200,"data":{"refreshToken":"r1"},"success":true}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			_, err := client.Login(context.Background(), Credentials{Email: "asha@example.com", Password: "secret123"})
			require.True(t, apperrors.IsCode(err, apperrors.CodeBackend))
			require.Equal(t, "Unexpected login response from server", apperrors.MessageOf(err))
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	m := metrics.NewMetricsForTesting()
	return NewClient(srv.URL, 0, m, slog.New(slog.NewTextHandler(io.Discard, nil))), m
}

func jsonBody(t *testing.T) *Payload {
	t.Helper()
	p, err := JSONPayload(map[string]string{"name": "Asha", "contact": "9876543210"})
	require.NoError(t, err)
	return &p
}

type memoryTokens struct {
	access  string
	refresh string
}

func (m *memoryTokens) Tokens(context.Context) (string, string, error) {
	return m.access, m.refresh, nil
}

func (m *memoryTokens) SetAccessToken(_ context.Context, access string) error {
	m.access = access
	return nil
}
