// Package catalog holds the static model, provider and pricing table.
// Adding a model or adjusting a price is a data change here, never a
// change to the orchestration logic.
package catalog

import (
	"sort"

	"github.com/optiq-dev/optiq/internal/provider"
)

// Pricing is the per-model price in USD per million tokens.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

type entry struct {
	provider provider.Provider
	pricing  Pricing
}

var models = map[string]entry{
	// OpenAI
	"gpt-4o":      {provider.OpenAI, Pricing{2.50, 10.00}},
	"gpt-4o-mini": {provider.OpenAI, Pricing{0.15, 0.60}},
	"gpt-4.1":     {provider.OpenAI, Pricing{2.00, 8.00}},
	"o3-mini":     {provider.OpenAI, Pricing{1.10, 4.40}},

	// Anthropic
	"claude-sonnet-4-20250514":   {provider.Anthropic, Pricing{3.00, 15.00}},
	"claude-opus-4-20250514":     {provider.Anthropic, Pricing{15.00, 75.00}},
	"claude-3-5-haiku-20241022":  {provider.Anthropic, Pricing{0.80, 4.00}},
	"claude-3-7-sonnet-20250219": {provider.Anthropic, Pricing{3.00, 15.00}},

	// Google
	"gemini-2.5-pro":   {provider.Google, Pricing{1.25, 10.00}},
	"gemini-2.5-flash": {provider.Google, Pricing{0.30, 2.50}},
	"gemini-2.0-flash": {provider.Google, Pricing{0.10, 0.40}},

	// xAI
	"grok-3":      {provider.XAI, Pricing{3.00, 15.00}},
	"grok-3-mini": {provider.XAI, Pricing{0.30, 0.50}},

	// DeepSeek
	"deepseek-chat":     {provider.DeepSeek, Pricing{0.27, 1.10}},
	"deepseek-reasoner": {provider.DeepSeek, Pricing{0.55, 2.19}},
}

var defaults = map[provider.Provider]string{
	provider.OpenAI:    "gpt-4o",
	provider.Anthropic: "claude-sonnet-4-20250514",
	provider.Google:    "gemini-2.5-flash",
	provider.XAI:       "grok-3",
	provider.DeepSeek:  "deepseek-chat",
}

// LookupProvider returns the provider a model belongs to. An unknown
// model yields no match; the provider is never inferred from the name.
func LookupProvider(model string) (provider.Provider, bool) {
	e, ok := models[model]
	if !ok {
		return "", false
	}
	return e.provider, true
}

// LookupPricing returns the pricing record for a model, if known.
func LookupPricing(model string) (Pricing, bool) {
	e, ok := models[model]
	if !ok {
		return Pricing{}, false
	}
	return e.pricing, true
}

// DefaultModel returns the default model for a provider.
func DefaultModel(p provider.Provider) string {
	return defaults[p]
}

// Models returns all known models for a provider, sorted by name.
func Models(p provider.Provider) []string {
	names := make([]string, 0, len(models))
	for name, e := range models {
		if e.provider == p {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
