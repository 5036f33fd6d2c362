package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optiq-dev/optiq/internal/provider"
)

func testAdapter(server *httptest.Server) *Adapter {
	return &Adapter{baseURL: server.URL, client: &http.Client{Timeout: 5 * time.Second}}
}

func TestCompleteNormalizesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-test-key", r.Header.Get("X-Goog-Api-Key"))

		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "rewritten"}]}}],
			"usageMetadata": {"promptTokenCount": 25, "candidatesTokenCount": 9}
		}`))
	}))
	defer server.Close()

	resp, err := testAdapter(server).Complete(context.Background(), provider.Request{
		Model:        "gemini-2.5-flash",
		SystemPrompt: "you rewrite prompts",
		UserPrompt:   "rewrite this",
		APIKey:       "g-test-key",
	})
	require.NoError(t, err)

	assert.Equal(t, "rewritten", resp.Text)
	assert.Equal(t, provider.TokenUsage{InputTokens: 25, OutputTokens: 9}, resp.Usage)
}

func TestCompleteWrapsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid"}}`))
	}))
	defer server.Close()

	_, err := testAdapter(server).Complete(context.Background(), provider.Request{
		Model:      "gemini-2.5-flash",
		UserPrompt: "hi",
		APIKey:     "bad",
	})

	var provErr *provider.Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, provider.Google, provErr.Provider)
	assert.Contains(t, provErr.Message, "API key not valid")
}

func TestCompleteRejectsEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": [], "usageMetadata": {"promptTokenCount": 3, "candidatesTokenCount": 0}}`))
	}))
	defer server.Close()

	_, err := testAdapter(server).Complete(context.Background(), provider.Request{
		Model:      "gemini-2.5-flash",
		UserPrompt: "hi",
		APIKey:     "g-test-key",
	})

	var provErr *provider.Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "empty response", provErr.Message)
}
