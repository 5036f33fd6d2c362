package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Provider identifies an LLM vendor backend.
type Provider string

const (
	OpenAI    Provider = "openai"
	Anthropic Provider = "anthropic"
	Google    Provider = "google"
	XAI       Provider = "xai"
	DeepSeek  Provider = "deepseek"
)

var ErrUnknownProvider = errors.New("unknown provider")

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// All returns every supported provider in identifier order.
func All() []Provider {
	return []Provider{Anthropic, DeepSeek, Google, OpenAI, XAI}
}

// Parse canonicalizes an external provider string. Unknown input is an
// error, never a guess; providers are a fixed set and are never
// constructed from arbitrary strings.
func Parse(value string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "openai":
		return OpenAI, nil
	case "anthropic":
		return Anthropic, nil
	case "google":
		return Google, nil
	case "xai":
		return XAI, nil
	case "deepseek":
		return DeepSeek, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, value)
}
