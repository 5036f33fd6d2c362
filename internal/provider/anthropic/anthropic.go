// Package anthropic adapts the Anthropic messages API to the common
// adapter contract.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/optiq-dev/optiq/internal/provider"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
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
	return provider.Anthropic
}

func (a *Adapter) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	payload := messagesRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		System:    req.SystemPrompt,
		Messages: []message{
			{Role: "user", Content: req.UserPrompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return provider.Response{}, provider.NewError(provider.Anthropic, "marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return provider.Response{}, provider.NewError(provider.Anthropic, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", req.APIKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return provider.Response{}, provider.NewError(provider.Anthropic, "request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return provider.Response{}, provider.NewError(provider.Anthropic, "read response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return provider.Response{}, provider.NewError(provider.Anthropic, apiErrorMessage(httpResp.StatusCode, respBody), nil)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return provider.Response{}, provider.NewError(provider.Anthropic, "decode response", err)
	}

	var builder strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}
	text := builder.String()
	if text == "" {
		return provider.Response{}, provider.NewError(provider.Anthropic, "empty response", errors.New("no text content returned"))
	}

	return provider.Response{
		Text: text,
		Usage: provider.TokenUsage{
			InputTokens:  parsed.Usage.InputTokens,
			OutputTokens: parsed.Usage.OutputTokens,
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

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
