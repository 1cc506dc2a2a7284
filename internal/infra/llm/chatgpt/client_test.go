package chatgpt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSendsSystemAndUserTurns(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[{\"region\":\"Kerala\"}]"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "k", BaseURL: srv.URL, Model: "gemini-2.5-flash", MaxTokens: 512})
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), "summarize")
	require.NoError(t, err)
	require.Equal(t, `[{"region":"Kerala"}]`, text)
	require.Equal(t, defaultModel, got.Model)
	require.Equal(t, 512, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "system", got.Messages[0].Role)
	require.Equal(t, "summarize", got.Messages[1].Content)
}

func TestGenerateFailsOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "summarize")
	require.ErrorContains(t, err, "status=429")
}

func TestGenerateFailsWithoutChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "summarize")
	require.Error(t, err)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Options{})
	require.Error(t, err)
}
