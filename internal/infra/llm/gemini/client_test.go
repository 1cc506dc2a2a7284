package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSendsPromptAndConfig(t *testing.T) {
	var captured GenerateContentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		require.Equal(t, "secret", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"[{\"state\":\"Kerala\"}]"}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "secret", BaseURL: srv.URL, Temperature: 0.2, MaxOutputTokens: 2048})
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), "summarize")
	require.NoError(t, err)
	require.Equal(t, `[{"state":"Kerala"}]`, text)
	require.Len(t, captured.Contents, 1)
	require.Equal(t, "summarize", captured.Contents[0].Parts[0].Text)
	require.InDelta(t, 0.2, captured.GenerationConfig.Temperature, 1e-6)
	require.Equal(t, 2048, captured.GenerationConfig.MaxOutputTokens)
	require.Equal(t, "application/json", captured.GenerationConfig.ResponseMIMEType)
}

func TestGenerateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "secret", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "x")
	require.ErrorContains(t, err, "status=429")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer empty.Close()
	client, err = NewClient(Options{APIKey: "secret", BaseURL: empty.URL})
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "x")
	require.Error(t, err)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Options{})
	require.Error(t, err)
}
