// Package google adapts the Gemini generateContent API to the common
// adapter contract.
package google

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

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

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
	return provider.Google
}

func (a *Adapter) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	payload := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: req.UserPrompt}}},
		},
	}
	if req.SystemPrompt != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return provider.Response{}, provider.NewError(provider.Google, "marshal request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return provider.Response{}, provider.NewError(provider.Google, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", req.APIKey)

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return provider.Response{}, provider.NewError(provider.Google, "request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return provider.Response{}, provider.NewError(provider.Google, "read response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return provider.Response{}, provider.NewError(provider.Google, apiErrorMessage(httpResp.StatusCode, respBody), nil)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return provider.Response{}, provider.NewError(provider.Google, "decode response", err)
	}
	if len(parsed.Candidates) == 0 {
		return provider.Response{}, provider.NewError(provider.Google, "empty response", errors.New("no candidates returned"))
	}

	var builder strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		builder.WriteString(p.Text)
	}

	return provider.Response{
		Text: builder.String(),
		Usage: provider.TokenUsage{
			InputTokens:  parsed.UsageMetadata.PromptTokenCount,
			OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
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

type generateRequest struct {
	SystemInstruction *content  `json:"system_instruction,omitempty"`
	Contents          []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
