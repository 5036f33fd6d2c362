package anthropic

import (
	"context"
	"encoding/json"
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
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-API-Key"))
		assert.Equal(t, apiVersion, r.Header.Get("Anthropic-Version"))

		var payload messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "claude-sonnet-4-20250514", payload.Model)
		assert.Equal(t, "you rewrite prompts", payload.System)
		assert.Positive(t, payload.MaxTokens)

		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "rewritten "}, {"type": "text", "text": "prompt"}],
			"usage": {"input_tokens": 30, "output_tokens": 12}
		}`))
	}))
	defer server.Close()

	resp, err := testAdapter(server).Complete(context.Background(), provider.Request{
		Model:        "claude-sonnet-4-20250514",
		SystemPrompt: "you rewrite prompts",
		UserPrompt:   "rewrite this",
		APIKey:       "sk-ant-test",
	})
	require.NoError(t, err)

	assert.Equal(t, "rewritten prompt", resp.Text)
	assert.Equal(t, provider.TokenUsage{InputTokens: 30, OutputTokens: 12}, resp.Usage)
}

func TestCompleteWrapsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "rate limited"}}`))
	}))
	defer server.Close()

	_, err := testAdapter(server).Complete(context.Background(), provider.Request{
		Model:      "claude-sonnet-4-20250514",
		UserPrompt: "hi",
		APIKey:     "sk-ant-test",
	})

	var provErr *provider.Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, provider.Anthropic, provErr.Provider)
	assert.Contains(t, provErr.Message, "rate limited")
}

func TestCompleteRejectsEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": [], "usage": {"input_tokens": 5, "output_tokens": 0}}`))
	}))
	defer server.Close()

	_, err := testAdapter(server).Complete(context.Background(), provider.Request{
		Model:      "claude-sonnet-4-20250514",
		UserPrompt: "hi",
		APIKey:     "sk-ant-test",
	})

	var provErr *provider.Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "empty response", provErr.Message)
}
