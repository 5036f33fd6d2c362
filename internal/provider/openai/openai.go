// Package openai adapts the OpenAI chat completions API to the common
// adapter contract.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/optiq-dev/optiq/internal/provider"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultMaxTokens = 4096
)

type Adapter struct {
	baseURL string
	client  *http.Client
}

var _ provider.Adapter = (*Adapter)(nil)

func init() {
	if err := provider.Register(New()); err != nil {
		panic(err)
	}
}

func New() *Adapter {
	return &Adapter{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (a *Adapter) Provider() provider.Provider {
	return provider.OpenAI
}

func (a *Adapter) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	payload := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens: maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return provider.Response{}, provider.NewError(provider.OpenAI, "marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return provider.Response{}, provider.NewError(provider.OpenAI, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return provider.Response{}, provider.NewError(provider.OpenAI, "request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return provider.Response{}, provider.NewError(provider.OpenAI, "read response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return provider.Response{}, provider.NewError(provider.OpenAI, apiErrorMessage(httpResp.StatusCode, respBody), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return provider.Response{}, provider.NewError(provider.OpenAI, "decode response", err)
	}
	if len(parsed.Choices) == 0 {
		return provider.Response{}, provider.NewError(provider.OpenAI, "empty response", errors.New("no choices returned"))
	}

	return provider.Response{
		Text: parsed.Choices[0].Message.Content,
		Usage: provider.TokenUsage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
		},
	}, nil
}

func apiErrorMessage(status int, body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", status, parsed.Error.Message)
	}
	return fmt.Sprintf("api error (status %d)", status)
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
